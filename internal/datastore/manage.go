package datastore

import (
	"net/url"
	"regexp"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/farmwatch/farmwatch/internal/errors"
	"github.com/farmwatch/farmwatch/internal/logger"
)

// DefaultSlowQueryThreshold is the duration after which a query is logged as slow.
const DefaultSlowQueryThreshold = 500 * time.Millisecond

// createGormLogger routes gorm output through the datastore module logger.
func createGormLogger() gormlogger.Interface {
	return logger.NewGormLoggerAdapter(GetLogger(), DefaultSlowQueryThreshold)
}

// gormConfig is shared by all backends.
func gormConfig() *gorm.Config {
	return &gorm.Config{
		Logger:         createGormLogger(),
		TranslateError: true,
	}
}

// performAutoMigration migrates all models and logs the outcome.
func performAutoMigration(db *gorm.DB, debug bool, dbType, connectionInfo string) error {
	start := time.Now()
	if err := db.AutoMigrate(allModels()...); err != nil {
		return errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "auto_migrate").
			Context("db_type", dbType).
			Build()
	}

	if debug {
		GetLogger().Debug("database schema migrated",
			logger.String("db_type", dbType),
			logger.String("connection", redactDSN(connectionInfo)),
			logger.Duration("duration", time.Since(start)))
	}
	return nil
}

var (
	dsnPasswordPattern = regexp.MustCompile(`(password=)\S+`)
	dsnUserinfoPattern = regexp.MustCompile(`^([^:@/]+):[^@]*@`)
)

// redactDSN hides passwords in MySQL, PostgreSQL and URL style DSNs.
func redactDSN(dsn string) string {
	if u, err := url.Parse(dsn); err == nil && u.User != nil && u.Scheme != "" {
		if _, ok := u.User.Password(); ok {
			u.User = url.UserPassword(u.User.Username(), "xxxxx")
			return u.String()
		}
	}
	dsn = dsnPasswordPattern.ReplaceAllString(dsn, "${1}***")
	return dsnUserinfoPattern.ReplaceAllString(dsn, "${1}:***@")
}

// closeDB closes the pool behind a gorm handle.
func closeDB(db *gorm.DB, dbType string) error {
	if db == nil {
		return errors.Newf("database connection is not initialized").
			Component("datastore").
			Category(errors.CategoryState).
			Build()
	}
	sqlDB, err := db.DB()
	if err != nil {
		return dbError(err, "close")
	}
	if err := sqlDB.Close(); err != nil {
		return dbError(err, "close")
	}
	GetLogger().Debug("database connection closed", logger.String("db_type", dbType))
	return nil
}
