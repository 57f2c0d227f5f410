package datastore

import (
	"net"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/farmwatch/farmwatch/internal/conf"
	"github.com/farmwatch/farmwatch/internal/errors"
	"github.com/farmwatch/farmwatch/internal/logger"
)

// MySQLStore implements DataStore for MySQL
type MySQLStore struct {
	DataStore
	Settings *conf.Settings
}

func validateMySQLConfig(settings *conf.Settings) error {
	c := settings.Output.MySQL
	if c.Host == "" || c.Database == "" || c.Username == "" {
		return errors.Newf("mysql host, database and username are required").
			Component("datastore").
			Category(errors.CategoryConfiguration).
			Build()
	}
	return nil
}

// mysqlDSN builds the connection string with the driver's config type.
func mysqlDSN(settings *conf.Settings) string {
	c := settings.Output.MySQL
	port := c.Port
	if port == "" {
		port = "3306"
	}
	cfg := mysqldriver.NewConfig()
	cfg.User = c.Username
	cfg.Passwd = c.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(c.Host, port)
	cfg.DBName = c.Database
	cfg.ParseTime = true
	cfg.Loc = time.Local
	cfg.Params = map[string]string{"charset": "utf8mb4"}
	return cfg.FormatDSN()
}

// Open connects to MySQL and migrates the schema.
func (store *MySQLStore) Open() error {
	if err := validateMySQLConfig(store.Settings); err != nil {
		return err
	}

	dsn := mysqlDSN(store.Settings)
	db, err := gorm.Open(mysql.Open(dsn), gormConfig())
	if err != nil {
		GetLogger().Error("failed to open MySQL database",
			logger.String("host", store.Settings.Output.MySQL.Host),
			logger.String("database", store.Settings.Output.MySQL.Database),
			logger.Error(err))
		return dbError(err, "open")
	}

	store.DB = db
	return performAutoMigration(db, store.Settings.Debug, "MySQL", dsn)
}

// Close closes the MySQL connection pool.
func (store *MySQLStore) Close() error {
	return closeDB(store.DB, "MySQL")
}
