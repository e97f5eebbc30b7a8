// Package testutil sets up the databases, services and fixtures shared by the tests.
package testutil

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/trezcool/fyp/core"
	"github.com/trezcool/fyp/core/project"
	"github.com/trezcool/fyp/core/user"
	logsvc "github.com/trezcool/fyp/services/logger"
	"github.com/trezcool/fyp/storage/database"
	"github.com/trezcool/fyp/storage/database/boltdb"
)

// NewConfig returns the TEST configuration, with its storage redirected to temporary directories.
func NewConfig(t *testing.T) *core.Config {
	t.Helper()
	t.Setenv("ENV", "TEST")
	conf := core.NewConfig()
	conf.TestMode = true
	conf.Server.DisableReqLogs = true
	conf.Database.Engine = "bolt"
	conf.Database.Path = filepath.Join(t.TempDir(), "fyp.db")
	conf.Storage.Backend = "local"
	conf.Storage.LocalDir = t.TempDir()
	conf.Redis.Addr = ""
	return conf
}

// Init sets up the validators, templates and password lists, as the apps do on startup.
func Init(t *testing.T, conf *core.Config) (*validator.Validate, ut.Translator) {
	t.Helper()
	_en := en.New()
	translator, _ := ut.New(_en, _en).GetTranslator("en")
	validate := validator.New()

	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	project.InitValidators(validate, translator)

	logger := logsvc.NewDiscardLogger()
	core.ParseEmailTemplates(conf, logger)
	user.LoadCommonPasswords(logger)
	return validate, translator
}

// PrepareBoltDB opens a fresh bolt database, closed on cleanup.
func PrepareBoltDB(t *testing.T) *boltdb.DB {
	t.Helper()
	db, err := boltdb.Open(filepath.Join(t.TempDir(), "fyp.db"))
	if err != nil {
		t.Fatalf("PrepareBoltDB() failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// PrepareSQLDB opens a fresh, migrated, in-memory sqlite database, closed on cleanup.
func PrepareSQLDB(t *testing.T) *sqlx.DB {
	t.Helper()
	conf := &core.Config{Database: core.DatabaseConfig{Engine: "sqlite", Path: ":memory:"}}
	db, err := database.Open(conf)
	if err != nil {
		t.Fatalf("PrepareSQLDB() failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err = database.Migrate(context.Background(), db); err != nil {
		t.Fatalf("PrepareSQLDB() failed: %v", err)
	}
	return db
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, email, pwd, role string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	t.Helper()
	tstamp := time.Now().UTC().Truncate(time.Microsecond)
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     email,
		Role:      role,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	switch role {
	case user.RoleStudent:
		usr.EnrollmentNo = "FA20-" + usr.ID[:8]
	case user.RoleSupervisor, user.RoleCoordinator, user.RoleBoard:
		usr.FacultyID = "F-" + usr.ID[:6]
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

// Actor returns the workflow actor of usr.
func Actor(usr user.User) project.Actor {
	return project.Actor{ID: usr.ID, Role: usr.Role}
}
