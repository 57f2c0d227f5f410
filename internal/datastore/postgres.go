package datastore

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/farmwatch/farmwatch/internal/conf"
	"github.com/farmwatch/farmwatch/internal/errors"
	"github.com/farmwatch/farmwatch/internal/logger"
)

// PostgresStore implements DataStore for PostgreSQL
type PostgresStore struct {
	DataStore
	Settings *conf.Settings
}

func postgresDSN(settings *conf.Settings) string {
	c := settings.Output.Postgres
	port := c.Port
	if port == "" {
		port = "5432"
	}
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, port, c.Username, c.Password, c.Database, sslMode)
}

// Open connects to PostgreSQL and migrates the schema.
func (store *PostgresStore) Open() error {
	c := store.Settings.Output.Postgres
	if c.Host == "" || c.Database == "" {
		return errors.Newf("postgres host and database are required").
			Component("datastore").
			Category(errors.CategoryConfiguration).
			Build()
	}

	dsn := postgresDSN(store.Settings)
	db, err := gorm.Open(postgres.Open(dsn), gormConfig())
	if err != nil {
		GetLogger().Error("failed to open PostgreSQL database",
			logger.String("host", c.Host),
			logger.String("database", c.Database),
			logger.Error(err))
		return dbError(err, "open")
	}

	store.DB = db
	return performAutoMigration(db, store.Settings.Debug, "PostgreSQL", dsn)
}

// Close closes the PostgreSQL connection pool.
func (store *PostgresStore) Close() error {
	return closeDB(store.DB, "PostgreSQL")
}
