package traceability

import (
	"time"

	"github.com/farmwatch/farmwatch/internal/datastore"
)

// ProductSummary is one search result.
type ProductSummary struct {
	ProductID            string     `json:"product_id"`
	Location             string     `json:"location"`
	PlantingDate         *time.Time `json:"planting_date"`
	HarvestDate          *time.Time `json:"harvest_date"`
	PackagingDate        *time.Time `json:"packaging_date"`
	HasFertilizerRecords bool       `json:"has_fertilizer_records"`
	HasPesticideRecords  bool       `json:"has_pesticide_records"`
	HasQualityChecks     bool       `json:"has_quality_checks"`
}

// SearchProducts finds products by ID or location substring and planting
// date range.
func (m *Manager) SearchProducts(filter datastore.ProductFilter) ([]ProductSummary, error) {
	rows, err := m.store.SearchProducts(filter)
	if err != nil {
		return nil, err
	}
	out := make([]ProductSummary, 0, len(rows))
	for i := range rows {
		p := &rows[i]
		out = append(out, ProductSummary{
			ProductID:            p.ProductID,
			Location:             p.Location,
			PlantingDate:         p.PlantingDate,
			HarvestDate:          p.HarvestDate,
			PackagingDate:        p.PackagingDate,
			HasFertilizerRecords: len(p.FertilizerRecords) > 0,
			HasPesticideRecords:  len(p.PesticideRecords) > 0,
			HasQualityChecks:     len(p.QualityChecks) > 0,
		})
	}
	return out, nil
}
