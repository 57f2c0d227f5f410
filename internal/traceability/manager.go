// Package traceability maintains the per-product production ledger and
// builds trace reports from it.
package traceability

import (
	"time"

	"github.com/farmwatch/farmwatch/internal/conf"
	"github.com/farmwatch/farmwatch/internal/datastore"
	"github.com/farmwatch/farmwatch/internal/errors"
	"github.com/farmwatch/farmwatch/internal/logger"
)

// DateLayout is the layout of record dates.
const DateLayout = "2006-01-02"

const (
	defaultPrefix   = "LJY"
	defaultTraceURL = "https://trace.langjiayuan.com/product/"
	createAttempts  = 3
)

// Store is the datastore subset the manager uses.
type Store interface {
	CreateProduct(p *datastore.ProductTraceability) error
	GetProduct(productID string) (*datastore.ProductTraceability, error)
	AppendProductRecord(productID string, kind datastore.RecordKind, record any, dates *datastore.ProductDates) error
	SearchProducts(filter datastore.ProductFilter) ([]datastore.ProductTraceability, error)
}

// Manager records production steps per product.
type Manager struct {
	store    Store
	prefix   string
	traceURL string
	now      func() time.Time
	log      logger.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager returns a manager using the traceability settings.
func NewManager(store Store, settings conf.TraceabilitySettings, opts ...Option) *Manager {
	m := &Manager{
		store:    store,
		prefix:   settings.Prefix,
		traceURL: settings.TraceURL,
		now:      time.Now,
		log:      GetLogger(),
	}
	if m.prefix == "" {
		m.prefix = defaultPrefix
	}
	if m.traceURL == "" {
		m.traceURL = defaultTraceURL
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ProductInfo is the initial information of a product batch.
type ProductInfo struct {
	PlantingDate  *time.Time `json:"planting_date"`
	HarvestDate   *time.Time `json:"harvest_date"`
	PackagingDate *time.Time `json:"packaging_date"`
	Location      string     `json:"location"`
}

// CreateProduct creates a ledger entry with a new ID and QR code and returns
// the product ID.
func (m *Manager) CreateProduct(info ProductInfo) (string, error) {
	var lastErr error
	for range createAttempts {
		id := GenerateProductID(m.prefix, m.now())
		qr, err := m.QRCode(id)
		if err != nil {
			return "", err
		}
		p := &datastore.ProductTraceability{
			ProductID:     id,
			QRCode:        qr,
			PlantingDate:  info.PlantingDate,
			HarvestDate:   info.HarvestDate,
			PackagingDate: info.PackagingDate,
			Location:      info.Location,
		}
		err = m.store.CreateProduct(p)
		if err == nil {
			m.log.Info("product created",
				logger.String("product_id", id),
				logger.String("location", info.Location))
			return id, nil
		}
		if !errors.IsCategory(err, errors.CategoryConflict) {
			return "", err
		}
		// ID collision, try another one
		lastErr = err
	}
	return "", lastErr
}

// GetTraceInfo returns the full ledger of a product.
func (m *Manager) GetTraceInfo(productID string) (*datastore.ProductTraceability, error) {
	return m.store.GetProduct(productID)
}

func (m *Manager) appendRecord(productID string, kind datastore.RecordKind, record any, dates *datastore.ProductDates) error {
	if productID == "" {
		return errors.ValidationError("product id is required")
	}
	if err := m.store.AppendProductRecord(productID, kind, record, dates); err != nil {
		return err
	}
	m.log.Debug("ledger record added",
		logger.String("product_id", productID),
		logger.String("kind", string(kind)))
	return nil
}

func formatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}
