package api

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farmwatch/farmwatch/internal/datastore"
	"github.com/farmwatch/farmwatch/internal/errors"
)

func TestCachedReportIgnoresCallerCancellation(t *testing.T) {
	t.Parallel()
	_, c, _ := setupTestController(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got, err := cachedReport(ctx, c, "quality:1", func(rctx context.Context) (int, error) {
		if err := rctx.Err(); err != nil {
			return 0, err
		}
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, got)

	got, err = cachedReport(context.Background(), c, "quality:1", func(context.Context) (int, error) {
		return 0, errors.NewStd("should be served from cache")
	})
	require.NoError(t, err)
	assert.Equal(t, 42, got)
}

func TestCachedReportSharedComputationSurvivesLeaderCancel(t *testing.T) {
	t.Parallel()
	_, c, _ := setupTestController(t)

	started := make(chan struct{})
	release := make(chan struct{})
	var once bool
	compute := func(rctx context.Context) (int, error) {
		if !once {
			once = true
			close(started)
		}
		<-release
		return 7, rctx.Err()
	}

	type result struct {
		v   int
		err error
	}
	leaderCtx, cancelLeader := context.WithCancel(context.Background())
	leader := make(chan result, 1)
	go func() {
		v, err := cachedReport(leaderCtx, c, "market:7", compute)
		leader <- result{v, err}
	}()
	<-started

	follower := make(chan result, 1)
	go func() {
		v, err := cachedReport(context.Background(), c, "market:7", compute)
		follower <- result{v, err}
	}()

	cancelLeader()
	time.Sleep(10 * time.Millisecond)
	close(release)

	for _, ch := range []chan result{leader, follower} {
		r := <-ch
		require.NoError(t, r.err)
		assert.Equal(t, 7, r.v)
	}
}

func TestQualityReportFlushedByStoreWrites(t *testing.T) {
	t.Parallel()
	e, _, ds := setupTestController(t)

	total := func() float64 {
		rec := doRequest(t, e, http.MethodGet, "/api/v2/environment/quality?days=1", "")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		return decode[map[string]any](t, rec)["total_records"].(float64)
	}
	save := func() {
		temp := 21.5
		require.NoError(t, ds.SaveEnvironmentData(&datastore.EnvironmentData{
			Timestamp:   time.Now().Add(-time.Minute),
			Temperature: &temp,
			Location:    "orchard-1",
		}))
	}

	// written behind the API, as MQTT ingestion and the collector do
	save()
	assert.Equal(t, float64(1), total())
	save()
	assert.Equal(t, float64(2), total())

	products := func() float64 {
		rec := doRequest(t, e, http.MethodGet, "/api/v2/market/analysis", "")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		return decode[map[string]any](t, rec)["total_products"].(float64)
	}
	assert.Zero(t, products())
	require.NoError(t, ds.SaveMarketData(&datastore.MarketData{
		ProductName: "jujube", Platform: "jd", Price: 20, SalesVolume: 10,
	}))
	assert.Equal(t, float64(1), products())
}
