package dig_container

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/fyp/apps/api/echo"
	"github.com/trezcool/fyp/core"
	"github.com/trezcool/fyp/core/project"
	"github.com/trezcool/fyp/core/user"
	emailsvc "github.com/trezcool/fyp/services/email"
	logsvc "github.com/trezcool/fyp/services/logger"
	"github.com/trezcool/fyp/storage/cache"
	"github.com/trezcool/fyp/storage/database"
	"github.com/trezcool/fyp/storage/database/boltdb"
	sqlxrepos "github.com/trezcool/fyp/storage/database/sqlx"
	"github.com/trezcool/fyp/storage/files"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

// Repositories are the storage of the configured database engine.
// Closer releases the underlying connection.
type Repositories struct {
	dig.Out
	Users    user.Repository
	Projects project.Repository
	Closer   io.Closer `name:"dbCloser"`
}

type DBCloserParam struct {
	dig.In
	Closer io.Closer `name:"dbCloser"`
}

type ServerParams struct {
	dig.In
	Conf       *core.Config
	Logger     core.Logger
	Validate   *validator.Validate
	Translator ut.Translator
	UserSvc    user.Service
	ProjectSvc project.Service
	Sessions   user.SessionStore
}

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug && conf.RollbarToken != "")
	return logger
}

func newDBLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug && conf.RollbarToken != "")
	return logger
}

// resolve makes p relative to the project root unless it is absolute.
func resolve(conf *core.Config, p string) string {
	if p == "" || p == ":memory:" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(conf.WorkDir, p)
}

func newRepositories(conf *core.Config, loggerParam DBLoggerParam) Repositories {
	setUp := func() (Repositories, error) {
		if !conf.Database.IsSQL() {
			db, err := boltdb.Open(resolve(conf, conf.Database.Path))
			if err != nil {
				return Repositories{}, err
			}
			return Repositories{
				Users:    boltdb.NewUserRepository(db),
				Projects: boltdb.NewProjectRepository(db),
				Closer:   db,
			}, nil
		}

		if conf.Database.Engine == "sqlite" {
			conf.Database.Path = resolve(conf, conf.Database.Path)
		}
		if err := database.CreateIfNotExist(conf); err != nil {
			return Repositories{}, err
		}
		db, err := database.Open(conf)
		if err != nil {
			return Repositories{}, err
		}
		if err = database.Migrate(context.Background(), db); err != nil {
			_ = db.Close()
			return Repositories{}, err
		}
		return Repositories{
			Users:    sqlxrepos.NewUserRepository(db),
			Projects: sqlxrepos.NewProjectRepository(db),
			Closer:   db,
		}, nil
	}

	repos, err := setUp()
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up %s database: %v", conf.Database.Engine, err), err)
	}
	return repos
}

func newCache(conf *core.Config, logger core.Logger) cache.Cache {
	return cache.New(conf, logger)
}

func newSessionStore(c cache.Cache) user.SessionStore {
	return cache.NewSessionStore(c)
}

func newFileStore(conf *core.Config, logger core.Logger) core.FileStore {
	if conf.Storage.Backend == "" || conf.Storage.Backend == "local" {
		conf.Storage.LocalDir = resolve(conf, conf.Storage.LocalDir)
	}
	store, err := files.New(context.Background(), conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up %s file storage: %v", conf.Storage.Backend, err), err)
	}
	return store
}

func newValidator() *validator.Validate {
	return validator.New()
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

func newUserFinder(svc user.Service) project.UserFinder {
	return svc
}

func newServer(p ServerParams) *echoapi.Server {
	return echoapi.NewServer(&echoapi.Deps{
		Conf:       p.Conf,
		Logger:     p.Logger,
		Validate:   p.Validate,
		Translator: p.Translator,
		UserSvc:    p.UserSvc,
		ProjectSvc: p.ProjectSvc,
		Sessions:   p.Sessions,
	})
}

// New returns a new dependency injection dig.Container.
// The configuration is loaded by newConfig, core.NewConfig when nil.
func New(newConfig func() *core.Config) *dig.Container {
	if newConfig == nil {
		newConfig = core.NewConfig
	}
	c := dig.New()

	must(c.Provide(newConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newRepositories))
	must(c.Provide(newCache))
	must(c.Provide(newSessionStore))
	must(c.Provide(newFileStore))
	must(c.Provide(emailsvc.NewService))
	must(c.Provide(newValidator))
	must(c.Provide(newTranslator))
	must(c.Provide(user.NewService))
	must(c.Provide(newUserFinder))
	must(c.Provide(project.NewService))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
