package datastore

import (
	"time"

	"gorm.io/gorm/clause"

	"github.com/farmwatch/farmwatch/internal/errors"
)

// SaveDeviceStatus upserts the status row for a sensor.
func (ds *DataStore) SaveDeviceStatus(status *DeviceStatus) (err error) {
	start := time.Now()
	defer func() { err = ds.track("save_device_status", start, err) }()

	if err := ds.ready(); err != nil {
		return err
	}
	if status.SensorName == "" {
		return errors.ValidationError("sensor name is required")
	}
	if status.LastSeen.IsZero() {
		status.LastSeen = time.Now()
	}
	if err := ds.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "sensor_name"}},
		DoUpdates: clause.AssignmentColumns([]string{"pin", "type", "status", "last_reading", "last_error", "last_seen"}),
	}).Create(status).Error; err != nil {
		return dbError(err, "save_device_status")
	}
	return nil
}

// ListDeviceStatus returns all sensors ordered by name.
func (ds *DataStore) ListDeviceStatus() (rows []DeviceStatus, err error) {
	start := time.Now()
	defer func() { err = ds.track("list_device_status", start, err) }()

	if err := ds.ready(); err != nil {
		return nil, err
	}
	if err := ds.DB.Order("sensor_name ASC").Find(&rows).Error; err != nil {
		return nil, dbError(err, "list_device_status")
	}
	return rows, nil
}
