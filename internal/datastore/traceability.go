package datastore

import (
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/farmwatch/farmwatch/internal/errors"
)

// RecordKind names one of the ledger slices of a product.
type RecordKind string

const (
	KindFertilizer RecordKind = "fertilizer"
	KindPesticide  RecordKind = "pesticide"
	KindProcessing RecordKind = "processing"
	KindTransport  RecordKind = "transport"
	KindQuality    RecordKind = "quality"
)

// ProductDates carries optional lifecycle dates. Nil fields are left unchanged.
type ProductDates struct {
	PlantingDate  *time.Time
	HarvestDate   *time.Time
	PackagingDate *time.Time
}

func (d *ProductDates) apply(p *ProductTraceability) {
	if d == nil {
		return
	}
	if d.PlantingDate != nil {
		p.PlantingDate = d.PlantingDate
	}
	if d.HarvestDate != nil {
		p.HarvestDate = d.HarvestDate
	}
	if d.PackagingDate != nil {
		p.PackagingDate = d.PackagingDate
	}
}

// ProductFilter narrows SearchProducts. Zero fields do not filter.
type ProductFilter struct {
	ProductID string // substring
	Location  string // substring
	Start     *time.Time
	End       *time.Time
	Limit     int
}

// CreateProduct stores a new product. A duplicate product ID is a conflict.
func (ds *DataStore) CreateProduct(p *ProductTraceability) (err error) {
	start := time.Now()
	defer func() { err = ds.track("create_product", start, err) }()

	if err := ds.ready(); err != nil {
		return err
	}
	if p.ProductID == "" {
		return errors.ValidationError("product id is required")
	}

	return ds.DB.Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&ProductTraceability{}).Where("product_id = ?", p.ProductID).Count(&n).Error; err != nil {
			return dbError(err, "create_product")
		}
		if n > 0 {
			return errors.Newf("product %s already exists", p.ProductID).
				Component("datastore").
				Category(errors.CategoryConflict).
				Context("product_id", p.ProductID).
				Build()
		}
		if err := tx.Create(p).Error; err != nil {
			return dbError(err, "create_product")
		}
		return nil
	})
}

// GetProduct loads a product with its full ledger.
func (ds *DataStore) GetProduct(productID string) (_ *ProductTraceability, err error) {
	start := time.Now()
	defer func() { err = ds.track("get_product", start, err) }()

	if err := ds.ready(); err != nil {
		return nil, err
	}
	return findProduct(ds.DB, productID)
}

func findProduct(db *gorm.DB, productID string) (*ProductTraceability, error) {
	var p ProductTraceability
	result := db.Where("product_id = ?", productID).Limit(1).Find(&p)
	if result.Error != nil {
		return nil, dbError(result.Error, "get_product")
	}
	if result.RowsAffected == 0 {
		return nil, notFound("product", productID)
	}
	return &p, nil
}

// lockForUpdate adds SELECT ... FOR UPDATE on backends that support it.
// SQLite serializes writers at the database level instead.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// AppendProductRecord appends record to the ledger slice named by kind and
// applies dates, all in one transaction that re-reads the row first.
// record must be the typed record for kind, by value or pointer.
func (ds *DataStore) AppendProductRecord(productID string, kind RecordKind, record any, dates *ProductDates) (err error) {
	start := time.Now()
	defer func() { err = ds.track("append_product_record", start, err) }()

	if err := ds.ready(); err != nil {
		return err
	}

	return ds.DB.Transaction(func(tx *gorm.DB) error {
		p, err := findProduct(lockForUpdate(tx), productID)
		if err != nil {
			return err
		}
		if err := appendRecord(p, kind, record); err != nil {
			return err
		}
		dates.apply(p)

		if err := tx.Save(p).Error; err != nil {
			return dbError(err, "append_product_record")
		}
		return nil
	})
}

func appendRecord(p *ProductTraceability, kind RecordKind, record any) error {
	ok := true
	switch kind {
	case KindFertilizer:
		var r FertilizerRecord
		if r, ok = derefRecord[FertilizerRecord](record); ok {
			p.FertilizerRecords = append(p.FertilizerRecords, r)
		}
	case KindPesticide:
		var r PesticideRecord
		if r, ok = derefRecord[PesticideRecord](record); ok {
			p.PesticideRecords = append(p.PesticideRecords, r)
		}
	case KindProcessing:
		var r ProcessingRecord
		if r, ok = derefRecord[ProcessingRecord](record); ok {
			p.ProcessingRecords = append(p.ProcessingRecords, r)
		}
	case KindTransport:
		var r TransportRecord
		if r, ok = derefRecord[TransportRecord](record); ok {
			p.TransportRecords = append(p.TransportRecords, r)
		}
	case KindQuality:
		var r QualityCheck
		if r, ok = derefRecord[QualityCheck](record); ok {
			p.QualityChecks = append(p.QualityChecks, r)
		}
	default:
		return errors.Newf("unknown record kind %q", kind).
			Component("datastore").
			Category(errors.CategoryValidation).
			Build()
	}
	if !ok {
		return errors.Newf("record of type %T does not match kind %q", record, kind).
			Component("datastore").
			Category(errors.CategoryValidation).
			Build()
	}
	return nil
}

func derefRecord[T any](record any) (T, bool) {
	switch r := record.(type) {
	case T:
		return r, true
	case *T:
		if r != nil {
			return *r, true
		}
	}
	var zero T
	return zero, false
}

// UpdateProductDates sets the non-nil lifecycle dates of a product.
func (ds *DataStore) UpdateProductDates(productID string, dates ProductDates) (err error) {
	start := time.Now()
	defer func() { err = ds.track("update_product_dates", start, err) }()

	if err := ds.ready(); err != nil {
		return err
	}
	updates := map[string]any{}
	if dates.PlantingDate != nil {
		updates["planting_date"] = *dates.PlantingDate
	}
	if dates.HarvestDate != nil {
		updates["harvest_date"] = *dates.HarvestDate
	}
	if dates.PackagingDate != nil {
		updates["packaging_date"] = *dates.PackagingDate
	}
	if len(updates) == 0 {
		return nil
	}
	result := ds.DB.Model(&ProductTraceability{}).Where("product_id = ?", productID).Updates(updates)
	if result.Error != nil {
		return dbError(result.Error, "update_product_dates")
	}
	if result.RowsAffected == 0 {
		return notFound("product", productID)
	}
	return nil
}

// SearchProducts returns products matching filter, newest first.
func (ds *DataStore) SearchProducts(filter ProductFilter) (rows []ProductTraceability, err error) {
	start := time.Now()
	defer func() { err = ds.track("search_products", start, err) }()

	if err := ds.ready(); err != nil {
		return nil, err
	}
	q := ds.DB.Model(&ProductTraceability{})
	if filter.ProductID != "" {
		q = q.Where("product_id LIKE ?", fmt.Sprintf("%%%s%%", filter.ProductID))
	}
	if filter.Location != "" {
		q = q.Where("location LIKE ?", fmt.Sprintf("%%%s%%", filter.Location))
	}
	if filter.Start != nil {
		q = q.Where("planting_date >= ?", *filter.Start)
	}
	if filter.End != nil {
		q = q.Where("planting_date <= ?", *filter.End)
	}
	if err := q.Order("created_at DESC, id DESC").Limit(clampLimit(filter.Limit)).Find(&rows).Error; err != nil {
		return nil, dbError(err, "search_products")
	}
	return rows, nil
}

// CountProducts returns the number of products in the ledger.
func (ds *DataStore) CountProducts() (n int64, err error) {
	start := time.Now()
	defer func() { err = ds.track("count_products", start, err) }()

	if err := ds.ready(); err != nil {
		return 0, err
	}
	if err := ds.DB.Model(&ProductTraceability{}).Count(&n).Error; err != nil {
		return 0, dbError(err, "count_products")
	}
	return n, nil
}
