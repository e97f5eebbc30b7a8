package files

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/fyp/core"
)

func TestLocalStore(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	key, err := store.Save(ctx, "projects/p1/proposal/my-proposal.pdf", strings.NewReader("content"))
	require.NoError(t, err)
	assert.Equal(t, "projects/p1/proposal/my-proposal.pdf", key)

	_, err = os.Stat(filepath.Join(store.Root(), "projects", "p1", "proposal", "my-proposal.pdf"))
	require.NoError(t, err)

	rc, err := store.Open(ctx, key)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, "content", string(data))

	// overwrite
	_, err = store.Save(ctx, key, strings.NewReader("v2"))
	require.NoError(t, err)
	rc, err = store.Open(ctx, `projects\p1\proposal\my-proposal.pdf`)
	require.NoError(t, err)
	data, _ = io.ReadAll(rc)
	_ = rc.Close()
	assert.Equal(t, "v2", string(data))

	require.NoError(t, store.Delete(ctx, key))
	_, err = store.Open(ctx, key)
	assert.True(t, core.IsNotFound(err))
	assert.NoError(t, store.Delete(ctx, key), "already deleted")
}

func TestLocalStore_errors(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", "/etc/passwd", "../outside.pdf", "projects/../../outside.pdf"} {
		_, err = store.Save(ctx, key, strings.NewReader("x"))
		assert.ErrorIs(t, err, errInvalidKey, key)

		_, err = store.Open(ctx, key)
		assert.True(t, core.IsNotFound(err), key)
	}

	_, err = store.Open(ctx, "projects/missing.pdf")
	assert.True(t, core.IsNotFound(err))
}
