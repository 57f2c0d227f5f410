// Package datastore persists readings, warnings, plans, market data and the
// product ledger through gorm. SQLite, MySQL and PostgreSQL are supported.
package datastore

import (
	"time"

	"gorm.io/gorm"

	"github.com/farmwatch/farmwatch/internal/conf"
	"github.com/farmwatch/farmwatch/internal/errors"
)

// Interface abstracts the underlying database implementation.
type Interface interface {
	Open() error
	Close() error

	// environment readings
	SaveEnvironmentData(data *EnvironmentData) error
	SaveEnvironmentBatch(data []EnvironmentData) error
	GetEnvironmentData(start, end time.Time) ([]EnvironmentData, error)
	LatestEnvironmentData() (*EnvironmentData, error)
	CountEnvironmentData(since time.Time) (int64, error)

	// outbreaks, predictions and treatment plans
	SavePestDisease(data *PestDiseaseData) error
	GetPestDisease(id uint) (*PestDiseaseData, error)
	ListPestDisease(limit int) ([]PestDiseaseData, error)
	SavePrediction(p *PredictionResult) error
	LatestPredictions(limit int) ([]PredictionResult, error)
	SaveTreatmentPlans(plans []TreatmentPlan) error
	ListTreatmentPlans(pestDiseaseID uint) ([]TreatmentPlan, error)

	// warnings
	SaveWarning(w *WarningRecord) error
	ListWarnings(status string, limit int) ([]WarningRecord, error)
	ResolveWarning(id uint) error
	HasRecentWarning(warningType, location string, since time.Time) (bool, error)

	// market
	SaveMarketData(data *MarketData) error
	GetMarketData(since time.Time) ([]MarketData, error)

	// traceability ledger
	CreateProduct(p *ProductTraceability) error
	GetProduct(productID string) (*ProductTraceability, error)
	AppendProductRecord(productID string, kind RecordKind, record any, dates *ProductDates) error
	UpdateProductDates(productID string, dates ProductDates) error
	SearchProducts(filter ProductFilter) ([]ProductTraceability, error)
	CountProducts() (int64, error)

	// users
	CreateUser(user *User, password string) error
	ActiveUsersWithSettings() ([]User, error)

	// devices
	SaveDeviceStatus(status *DeviceStatus) error
	ListDeviceStatus() ([]DeviceStatus, error)

	// Ping checks that the database answers.
	Ping() error
}

// OperationRecorder receives timing for every store operation.
type OperationRecorder interface {
	RecordOperation(operation, status string, duration time.Duration)
}

// DataStore implements Interface using a GORM database.
type DataStore struct {
	DB         *gorm.DB
	recorder   OperationRecorder
	writeHooks writeHooks
}

// SetOperationRecorder installs a recorder for operation metrics.
func (ds *DataStore) SetOperationRecorder(r OperationRecorder) {
	ds.recorder = r
}

// New creates a store for the enabled backend. Open must be called before use.
func New(settings *conf.Settings) (Interface, error) {
	switch {
	case settings.Output.SQLite.Enabled:
		return &SQLiteStore{Settings: settings}, nil
	case settings.Output.MySQL.Enabled:
		return &MySQLStore{Settings: settings}, nil
	case settings.Output.Postgres.Enabled:
		return &PostgresStore{Settings: settings}, nil
	default:
		return nil, errors.Newf("no database backend enabled").
			Component("datastore").
			Category(errors.CategoryConfiguration).
			Build()
	}
}

// track records an operation outcome and passes err through.
func (ds *DataStore) track(operation string, start time.Time, err error) error {
	if ds.recorder != nil {
		status := "success"
		if err != nil {
			status = "error"
		}
		ds.recorder.RecordOperation(operation, status, time.Since(start))
	}
	return err
}

func (ds *DataStore) ready() error {
	if ds.DB == nil {
		return errors.Newf("database connection is not initialized").
			Component("datastore").
			Category(errors.CategoryState).
			Build()
	}
	return nil
}

// Ping checks that the database answers.
func (ds *DataStore) Ping() error {
	if err := ds.ready(); err != nil {
		return err
	}
	sqlDB, err := ds.DB.DB()
	if err != nil {
		return dbError(err, "ping")
	}
	if err := sqlDB.Ping(); err != nil {
		return dbError(err, "ping")
	}
	return nil
}

// dbError wraps a gorm error. Record-not-found and duplicate keys keep
// their own categories so the API can map them.
func dbError(err error, operation string) error {
	category := errors.CategoryDatabase
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		category = errors.CategoryNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		category = errors.CategoryConflict
	}
	return errors.New(err).
		Component("datastore").
		Category(category).
		Context("operation", operation).
		Build()
}

func notFound(resource, id string) error {
	return errors.Newf("%s %s not found", resource, id).
		Component("datastore").
		Category(errors.CategoryNotFound).
		Context("resource", resource).
		Build()
}
