package datastore

import (
	"strconv"
	"time"

	"github.com/farmwatch/farmwatch/internal/errors"
)

// SavePestDisease stores an outbreak observation.
func (ds *DataStore) SavePestDisease(data *PestDiseaseData) (err error) {
	start := time.Now()
	defer func() { err = ds.track("save_pest_disease", start, err) }()

	if err := ds.ready(); err != nil {
		return err
	}
	if data.SeverityLevel < 1 || data.SeverityLevel > 5 {
		return errors.Newf("severity level %d out of range 1-5", data.SeverityLevel).
			Component("datastore").
			Category(errors.CategoryValidation).
			Build()
	}
	if data.Timestamp.IsZero() {
		data.Timestamp = time.Now()
	}
	if err := ds.DB.Create(data).Error; err != nil {
		return dbError(err, "save_pest_disease")
	}
	return nil
}

// GetPestDisease loads one observation by ID.
func (ds *DataStore) GetPestDisease(id uint) (_ *PestDiseaseData, err error) {
	start := time.Now()
	defer func() { err = ds.track("get_pest_disease", start, err) }()

	if err := ds.ready(); err != nil {
		return nil, err
	}
	var row PestDiseaseData
	result := ds.DB.Limit(1).Find(&row, id)
	if result.Error != nil {
		return nil, dbError(result.Error, "get_pest_disease")
	}
	if result.RowsAffected == 0 {
		return nil, notFound("pest/disease record", strconv.FormatUint(uint64(id), 10))
	}
	return &row, nil
}

// ListPestDisease returns the newest observations first.
func (ds *DataStore) ListPestDisease(limit int) (rows []PestDiseaseData, err error) {
	start := time.Now()
	defer func() { err = ds.track("list_pest_disease", start, err) }()

	if err := ds.ready(); err != nil {
		return nil, err
	}
	if err := ds.DB.Order("timestamp DESC, id DESC").Limit(clampLimit(limit)).Find(&rows).Error; err != nil {
		return nil, dbError(err, "list_pest_disease")
	}
	return rows, nil
}

// SavePrediction stores a risk prediction.
func (ds *DataStore) SavePrediction(p *PredictionResult) (err error) {
	start := time.Now()
	defer func() { err = ds.track("save_prediction", start, err) }()

	if err := ds.ready(); err != nil {
		return err
	}
	if p.RiskLevel < 0 || p.RiskLevel > 1 {
		return errors.Newf("risk level %.2f out of range 0-1", p.RiskLevel).
			Component("datastore").
			Category(errors.CategoryValidation).
			Build()
	}
	if p.Timestamp.IsZero() {
		p.Timestamp = time.Now()
	}
	if err := ds.DB.Create(p).Error; err != nil {
		return dbError(err, "save_prediction")
	}
	return nil
}

// LatestPredictions returns the newest predictions first.
func (ds *DataStore) LatestPredictions(limit int) (rows []PredictionResult, err error) {
	start := time.Now()
	defer func() { err = ds.track("latest_predictions", start, err) }()

	if err := ds.ready(); err != nil {
		return nil, err
	}
	if err := ds.DB.Order("timestamp DESC, id DESC").Limit(clampLimit(limit)).Find(&rows).Error; err != nil {
		return nil, dbError(err, "latest_predictions")
	}
	return rows, nil
}

// SaveTreatmentPlans stores plans in one transaction.
func (ds *DataStore) SaveTreatmentPlans(plans []TreatmentPlan) (err error) {
	start := time.Now()
	defer func() { err = ds.track("save_treatment_plans", start, err) }()

	if err := ds.ready(); err != nil {
		return err
	}
	if len(plans) == 0 {
		return nil
	}
	if err := ds.DB.Create(&plans).Error; err != nil {
		return dbError(err, "save_treatment_plans")
	}
	return nil
}

// ListTreatmentPlans returns plans for an outbreak ordered by suitability.
// A zero ID lists plans not linked to any outbreak.
func (ds *DataStore) ListTreatmentPlans(pestDiseaseID uint) (rows []TreatmentPlan, err error) {
	start := time.Now()
	defer func() { err = ds.track("list_treatment_plans", start, err) }()

	if err := ds.ready(); err != nil {
		return nil, err
	}
	q := ds.DB.Order("suitability DESC, id ASC")
	if pestDiseaseID == 0 {
		q = q.Where("pest_disease_id IS NULL")
	} else {
		q = q.Where("pest_disease_id = ?", pestDiseaseID)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, dbError(err, "list_treatment_plans")
	}
	return rows, nil
}

const (
	defaultListLimit = 50
	maxListLimit     = 1000
)

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultListLimit
	case limit > maxListLimit:
		return maxListLimit
	default:
		return limit
	}
}
