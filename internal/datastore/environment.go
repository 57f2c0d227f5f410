package datastore

import (
	"time"

	"github.com/farmwatch/farmwatch/internal/errors"
)

// batchSize caps rows per INSERT statement.
const batchSize = 200

// SaveEnvironmentData stores one reading. A zero timestamp is set to now.
func (ds *DataStore) SaveEnvironmentData(data *EnvironmentData) (err error) {
	start := time.Now()
	defer func() { err = ds.track("save_environment", start, err) }()

	if err := ds.ready(); err != nil {
		return err
	}
	if data == nil {
		return errors.ValidationError("environment data is nil")
	}
	if data.Timestamp.IsZero() {
		data.Timestamp = time.Now()
	}
	if err := ds.DB.Create(data).Error; err != nil {
		return dbError(err, "save_environment")
	}
	ds.notifyWrite(TableEnvironment)
	return nil
}

// SaveEnvironmentBatch stores readings in batches inside one transaction.
func (ds *DataStore) SaveEnvironmentBatch(data []EnvironmentData) (err error) {
	start := time.Now()
	defer func() { err = ds.track("save_environment_batch", start, err) }()

	if err := ds.ready(); err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	if err := ds.DB.CreateInBatches(data, batchSize).Error; err != nil {
		return dbError(err, "save_environment_batch")
	}
	ds.notifyWrite(TableEnvironment)
	return nil
}

// GetEnvironmentData returns readings in [start, end] ordered by timestamp.
func (ds *DataStore) GetEnvironmentData(from, to time.Time) (rows []EnvironmentData, err error) {
	start := time.Now()
	defer func() { err = ds.track("get_environment", start, err) }()

	if err := ds.ready(); err != nil {
		return nil, err
	}
	if err := ds.DB.
		Where("timestamp >= ? AND timestamp <= ?", from, to).
		Order("timestamp ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, dbError(err, "get_environment")
	}
	return rows, nil
}

// LatestEnvironmentData returns the newest reading or a not-found error.
func (ds *DataStore) LatestEnvironmentData() (_ *EnvironmentData, err error) {
	start := time.Now()
	defer func() { err = ds.track("latest_environment", start, err) }()

	if err := ds.ready(); err != nil {
		return nil, err
	}
	var row EnvironmentData
	result := ds.DB.Order("timestamp DESC, id DESC").Limit(1).Find(&row)
	if result.Error != nil {
		return nil, dbError(result.Error, "latest_environment")
	}
	if result.RowsAffected == 0 {
		return nil, notFound("environment data", "latest")
	}
	return &row, nil
}

// CountEnvironmentData counts readings at or after since.
func (ds *DataStore) CountEnvironmentData(since time.Time) (n int64, err error) {
	start := time.Now()
	defer func() { err = ds.track("count_environment", start, err) }()

	if err := ds.ready(); err != nil {
		return 0, err
	}
	if err := ds.DB.Model(&EnvironmentData{}).Where("timestamp >= ?", since).Count(&n).Error; err != nil {
		return 0, dbError(err, "count_environment")
	}
	return n, nil
}
