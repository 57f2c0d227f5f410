package datastore

import (
	"strconv"
	"time"

	"github.com/farmwatch/farmwatch/internal/errors"
)

// SaveWarning persists a warning. Status defaults to active.
func (ds *DataStore) SaveWarning(w *WarningRecord) (err error) {
	start := time.Now()
	defer func() { err = ds.track("save_warning", start, err) }()

	if err := ds.ready(); err != nil {
		return err
	}
	if w.WarningType == "" {
		return errors.ValidationError("warning type is required")
	}
	if w.Status == "" {
		w.Status = WarningActive
	}
	if w.Timestamp.IsZero() {
		w.Timestamp = time.Now()
	}
	if err := ds.DB.Create(w).Error; err != nil {
		return dbError(err, "save_warning")
	}
	return nil
}

// ListWarnings returns warnings newest first. An empty status lists all.
func (ds *DataStore) ListWarnings(status string, limit int) (rows []WarningRecord, err error) {
	start := time.Now()
	defer func() { err = ds.track("list_warnings", start, err) }()

	if err := ds.ready(); err != nil {
		return nil, err
	}
	q := ds.DB.Order("timestamp DESC, id DESC").Limit(clampLimit(limit))
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, dbError(err, "list_warnings")
	}
	return rows, nil
}

// ResolveWarning marks a warning resolved. Resolving twice is a no-op.
func (ds *DataStore) ResolveWarning(id uint) (err error) {
	start := time.Now()
	defer func() { err = ds.track("resolve_warning", start, err) }()

	if err := ds.ready(); err != nil {
		return err
	}
	var w WarningRecord
	result := ds.DB.Limit(1).Find(&w, id)
	if result.Error != nil {
		return dbError(result.Error, "resolve_warning")
	}
	if result.RowsAffected == 0 {
		return notFound("warning", strconv.FormatUint(uint64(id), 10))
	}
	if w.Status == WarningResolved {
		return nil
	}
	now := time.Now()
	if err := ds.DB.Model(&w).Updates(map[string]any{
		"status":      WarningResolved,
		"resolved_at": now,
	}).Error; err != nil {
		return dbError(err, "resolve_warning")
	}
	return nil
}

// HasRecentWarning reports whether a warning of the same type and location
// was raised at or after since.
func (ds *DataStore) HasRecentWarning(warningType, location string, since time.Time) (_ bool, err error) {
	start := time.Now()
	defer func() { err = ds.track("has_recent_warning", start, err) }()

	if err := ds.ready(); err != nil {
		return false, err
	}
	var n int64
	if err := ds.DB.Model(&WarningRecord{}).
		Where("warning_type = ? AND location = ? AND timestamp >= ?", warningType, location, since).
		Count(&n).Error; err != nil {
		return false, dbError(err, "has_recent_warning")
	}
	return n > 0, nil
}
