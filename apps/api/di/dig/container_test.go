package dig_container_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dig_container "github.com/trezcool/fyp/apps/api/di/dig"
	echoapi "github.com/trezcool/fyp/apps/api/echo"
	"github.com/trezcool/fyp/core"
	"github.com/trezcool/fyp/core/project"
	"github.com/trezcool/fyp/core/user"
	"github.com/trezcool/fyp/testutil"
)

func TestNew(t *testing.T) {
	engines := []struct {
		engine string
		path   string
	}{
		{engine: "bolt", path: "fyp.db"},
		{engine: "sqlite", path: "fyp.sqlite"},
	}
	for _, tt := range engines {
		t.Run(tt.engine, func(t *testing.T) {
			conf := testutil.NewConfig(t)
			conf.Database.Engine = tt.engine
			conf.Database.Path = filepath.Join(t.TempDir(), tt.path)

			c := dig_container.New(func() *core.Config { return conf })
			err := c.Invoke(func(
				users user.Repository,
				projects project.Repository,
				closer dig_container.DBCloserParam,
				sessions user.SessionStore,
				server *echoapi.Server,
			) {
				assert.NotNil(t, users)
				assert.NotNil(t, projects)
				assert.NotNil(t, sessions)
				assert.NotNil(t, server)
				assert.NoError(t, closer.Closer.Close())
			})
			require.NoError(t, err)
		})
	}
}
