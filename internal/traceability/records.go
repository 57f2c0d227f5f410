package traceability

import (
	"time"

	"github.com/farmwatch/farmwatch/internal/datastore"
	"github.com/farmwatch/farmwatch/internal/errors"
)

// PlantingRecord describes how a batch was planted.
type PlantingRecord struct {
	PlantingDate      *time.Time     `json:"planting_date"`
	PlotNumber        string         `json:"plot_number"`
	SeedVariety       string         `json:"seed_variety"`
	PlantingMethod    string         `json:"planting_method"`
	SoilConditions    map[string]any `json:"soil_conditions"`
	WeatherConditions map[string]any `json:"weather_conditions"`
	Operator          string         `json:"operator"`
	Notes             string         `json:"notes"`
}

// HarvestRecord describes a harvest.
type HarvestRecord struct {
	HarvestDate       *time.Time     `json:"harvest_date"`
	HarvestMethod     string         `json:"harvest_method"`
	YieldAmount       float64        `json:"yield_amount"`
	Unit              string         `json:"unit"`
	QualityGrade      string         `json:"quality_grade"`
	MoistureContent   float64        `json:"moisture_content"`
	SugarContent      float64        `json:"sugar_content"`
	Operator          string         `json:"operator"`
	WeatherConditions map[string]any `json:"weather_conditions"`
	StorageConditions map[string]any `json:"storage_conditions"`
	Notes             string         `json:"notes"`
}

// PackagingRecord describes how a batch was packed.
type PackagingRecord struct {
	PackagingDate     *time.Time `json:"packaging_date"`
	PackagingType     string     `json:"packaging_type"`
	PackagingMaterial string     `json:"packaging_material"`
	PackageSize       string     `json:"package_size"`
	PackageCount      int        `json:"package_count"`
	Labels            []string   `json:"labels"`
	Operator          string     `json:"operator"`
	Notes             string     `json:"notes"`
}

// AddPlantingRecord records planting and sets the planting date.
func (m *Manager) AddPlantingRecord(productID string, r PlantingRecord) error {
	rec := datastore.ProcessingRecord{
		Timestamp:      m.now(),
		ProcessingType: datastore.StagePlanting,
		ProcessingDate: formatDate(r.PlantingDate),
		Operator:       r.Operator,
		Notes:          r.Notes,
		Details: details(map[string]any{
			"plot_number":        r.PlotNumber,
			"seed_variety":       r.SeedVariety,
			"planting_method":    r.PlantingMethod,
			"soil_conditions":    r.SoilConditions,
			"weather_conditions": r.WeatherConditions,
		}),
	}
	return m.appendRecord(productID, datastore.KindProcessing, rec,
		&datastore.ProductDates{PlantingDate: r.PlantingDate})
}

// AddHarvestRecord records a harvest and sets the harvest date.
func (m *Manager) AddHarvestRecord(productID string, r HarvestRecord) error {
	if r.YieldAmount < 0 {
		return errors.ValidationError("yield amount must not be negative")
	}
	if r.Unit == "" {
		r.Unit = "kg"
	}
	rec := datastore.ProcessingRecord{
		Timestamp:        m.now(),
		ProcessingType:   datastore.StageHarvest,
		ProcessingDate:   formatDate(r.HarvestDate),
		ProcessingMethod: r.HarvestMethod,
		OutputAmount:     r.YieldAmount,
		Operator:         r.Operator,
		Notes:            r.Notes,
		Details: details(map[string]any{
			"unit":               r.Unit,
			"quality_grade":      r.QualityGrade,
			"moisture_content":   r.MoistureContent,
			"sugar_content":      r.SugarContent,
			"weather_conditions": r.WeatherConditions,
			"storage_conditions": r.StorageConditions,
		}),
	}
	return m.appendRecord(productID, datastore.KindProcessing, rec,
		&datastore.ProductDates{HarvestDate: r.HarvestDate})
}

// AddProcessingRecord records a processing step.
func (m *Manager) AddProcessingRecord(productID string, r datastore.ProcessingRecord) error {
	if r.ProcessingType == "" {
		return errors.ValidationError("processing type is required")
	}
	if r.LossRate == 0 && r.InputAmount > 0 && r.OutputAmount > 0 {
		r.LossRate = (r.InputAmount - r.OutputAmount) / r.InputAmount
	}
	r.Timestamp = m.now()
	return m.appendRecord(productID, datastore.KindProcessing, r, nil)
}

// AddPackagingRecord records packing and sets the packaging date.
func (m *Manager) AddPackagingRecord(productID string, r PackagingRecord) error {
	rec := datastore.ProcessingRecord{
		Timestamp:        m.now(),
		ProcessingType:   datastore.StagePackaging,
		ProcessingDate:   formatDate(r.PackagingDate),
		ProcessingMethod: r.PackagingType,
		Operator:         r.Operator,
		Notes:            r.Notes,
		Details: details(map[string]any{
			"packaging_material": r.PackagingMaterial,
			"package_size":       r.PackageSize,
			"package_count":      r.PackageCount,
			"labels":             r.Labels,
		}),
	}
	return m.appendRecord(productID, datastore.KindProcessing, rec,
		&datastore.ProductDates{PackagingDate: r.PackagingDate})
}

// AddFertilizerRecord records a fertilizer application.
func (m *Manager) AddFertilizerRecord(productID string, r datastore.FertilizerRecord) error {
	if r.Amount < 0 {
		return errors.ValidationError("fertilizer amount must not be negative")
	}
	r.Timestamp = m.now()
	return m.appendRecord(productID, datastore.KindFertilizer, r, nil)
}

// AddPesticideRecord records a pesticide application.
func (m *Manager) AddPesticideRecord(productID string, r datastore.PesticideRecord) error {
	if r.Amount < 0 || r.SafetyInterval < 0 {
		return errors.ValidationError("pesticide amount and safety interval must not be negative")
	}
	r.Timestamp = m.now()
	return m.appendRecord(productID, datastore.KindPesticide, r, nil)
}

// AddTransportRecord records a shipment.
func (m *Manager) AddTransportRecord(productID string, r datastore.TransportRecord) error {
	r.Timestamp = m.now()
	return m.appendRecord(productID, datastore.KindTransport, r, nil)
}

// AddQualityCheck records an inspection.
func (m *Manager) AddQualityCheck(productID string, r datastore.QualityCheck) error {
	r.Timestamp = m.now()
	return m.appendRecord(productID, datastore.KindQuality, r, nil)
}

// details drops empty values.
func details(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		switch x := v.(type) {
		case nil:
			continue
		case string:
			if x == "" {
				continue
			}
		case map[string]any:
			if len(x) == 0 {
				continue
			}
		case []string:
			if len(x) == 0 {
				continue
			}
		}
		out[k] = v
	}
	return out
}
