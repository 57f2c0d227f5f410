package datastore

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/farmwatch/farmwatch/internal/conf"
	"github.com/farmwatch/farmwatch/internal/errors"
	"github.com/farmwatch/farmwatch/internal/logger"
)

// SQLiteStore implements DataStore for SQLite
type SQLiteStore struct {
	DataStore
	Settings *conf.Settings
}

func validateSQLiteConfig(settings *conf.Settings) error {
	if settings.Output.SQLite.Path == "" {
		return errors.Newf("sqlite path is empty").
			Component("datastore").
			Category(errors.CategoryConfiguration).
			Build()
	}
	return nil
}

// Open opens the SQLite file, creating its directory when needed.
func (store *SQLiteStore) Open() error {
	if err := validateSQLiteConfig(store.Settings); err != nil {
		return err
	}

	path := store.Settings.Output.SQLite.Path
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.New(err).
				Component("datastore").
				Category(errors.CategoryFileIO).
				Context("path", path).
				Build()
		}
	}

	// WAL keeps API reads from blocking behind collector writes
	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"
	db, err := gorm.Open(sqlite.Open(dsn), gormConfig())
	if err != nil {
		GetLogger().Error("failed to open SQLite database",
			logger.String("path", path),
			logger.Error(err))
		return dbError(err, "open")
	}

	store.DB = db
	return performAutoMigration(db, store.Settings.Debug, "SQLite", path)
}

// Close closes the SQLite database.
func (store *SQLiteStore) Close() error {
	return closeDB(store.DB, "SQLite")
}

// OpenInMemory returns a migrated store on a private in-memory SQLite
// database. Used by tests and dry runs.
func OpenInMemory() (*DataStore, error) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), gormConfig())
	if err != nil {
		return nil, dbError(err, "open")
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, dbError(err, "open")
	}
	// a second connection would see an empty database
	sqlDB.SetMaxOpenConns(1)

	if err := performAutoMigration(db, false, "SQLite", "memory"); err != nil {
		return nil, err
	}
	return &DataStore{DB: db}, nil
}

// Close closes an in-memory store.
func (ds *DataStore) Close() error {
	return closeDB(ds.DB, "SQLite")
}

// Open is a no-op for stores created with an existing connection.
func (ds *DataStore) Open() error {
	return ds.ready()
}
