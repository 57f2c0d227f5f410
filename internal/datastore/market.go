package datastore

import (
	"time"

	"github.com/farmwatch/farmwatch/internal/errors"
)

// SaveMarketData stores a market observation.
func (ds *DataStore) SaveMarketData(data *MarketData) (err error) {
	start := time.Now()
	defer func() { err = ds.track("save_market_data", start, err) }()

	if err := ds.ready(); err != nil {
		return err
	}
	if data.ProductName == "" || data.Platform == "" {
		return errors.ValidationError("product name and platform are required")
	}
	if data.Price < 0 || data.SalesVolume < 0 {
		return errors.ValidationError("price and sales volume must not be negative")
	}
	if data.Timestamp.IsZero() {
		data.Timestamp = time.Now()
	}
	if err := ds.DB.Create(data).Error; err != nil {
		return dbError(err, "save_market_data")
	}
	ds.notifyWrite(TableMarket)
	return nil
}

// GetMarketData returns observations at or after since, oldest first.
func (ds *DataStore) GetMarketData(since time.Time) (rows []MarketData, err error) {
	start := time.Now()
	defer func() { err = ds.track("get_market_data", start, err) }()

	if err := ds.ready(); err != nil {
		return nil, err
	}
	if err := ds.DB.Where("timestamp >= ?", since).Order("timestamp ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, dbError(err, "get_market_data")
	}
	return rows, nil
}
