package api

import (
	"context"
	"strings"

	"github.com/farmwatch/farmwatch/internal/datastore"
)

// Report cache key prefixes.
const (
	qualityKeyPrefix = "quality:"
	marketKeyPrefix  = "market:"
)

// cachedReport returns the cached value for key or computes it once, even
// when many requests miss at the same time. Errors are not cached. The shared
// computation runs detached from ctx's cancellation: one caller going away
// must not fail the others waiting on the same key.
func cachedReport[T any](ctx context.Context, c *Controller, key string, compute func(context.Context) (T, error)) (T, error) {
	if v, ok := c.reports.Get(key); ok {
		if r, ok := v.(T); ok {
			return r, nil
		}
	}

	v, err, _ := c.reportsSF.Do(key, func() (any, error) {
		r, err := compute(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		c.reports.SetDefault(key, r)
		return r, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// invalidateReports drops cached reports whose key starts with prefix.
func (c *Controller) invalidateReports(prefix string) {
	for key := range c.reports.Items() {
		if strings.HasPrefix(key, prefix) {
			c.reports.Delete(key)
		}
	}
}

func (c *Controller) onStoreWrite(table string) {
	switch table {
	case datastore.TableEnvironment:
		c.invalidateReports(qualityKeyPrefix)
	case datastore.TableMarket:
		c.invalidateReports(marketKeyPrefix)
	}
}
