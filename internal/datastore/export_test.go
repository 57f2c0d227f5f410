package datastore

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedExportSource(t *testing.T, ds *DataStore) {
	t.Helper()

	batch := make([]EnvironmentData, 0, 30)
	for i := range 30 {
		batch = append(batch, EnvironmentData{
			Timestamp:   base.Add(time.Duration(i) * time.Hour),
			Temperature: ptr(15 + float64(i%10)),
			Location:    "orchard",
		})
	}
	require.NoError(t, ds.SaveEnvironmentBatch(batch))
	require.NoError(t, ds.SaveWarning(&WarningRecord{
		Timestamp: base, WarningType: "temperature_high", Severity: "high",
		Message: "too hot", Status: WarningActive,
	}))
	require.NoError(t, ds.CreateProduct(&ProductTraceability{ProductID: "LJY20240601EXPORT", Location: "orchard"}))
	require.NoError(t, ds.AppendProductRecord("LJY20240601EXPORT", KindQuality, QualityCheck{PassStatus: true}, nil))
	require.NoError(t, ds.CreateUser(&User{
		Username: "grower", Email: "grower@example.com", IsActive: true,
		NotificationSettings: []NotificationSetting{{NotificationType: ChannelPush, IsEnabled: true}},
	}, "secret"))
}

func TestExportCopiesEveryTable(t *testing.T) {
	t.Parallel()
	src := newTestStore(t)
	dst := newTestStore(t)
	seedExportSource(t, src)

	var mu sync.Mutex
	progressed := map[string]int64{}
	stats, err := Export(context.Background(), src, dst, 7, func(table string, done, total int64) {
		mu.Lock()
		progressed[table] = done
		mu.Unlock()
		assert.LessOrEqual(t, done, total)
	})
	require.NoError(t, err)
	require.Len(t, stats, len(allModels()))

	byTable := map[string]TableStats{}
	for _, s := range stats {
		byTable[s.Table] = s
		assert.Zero(t, s.Failed, s.Table)
	}
	envTable := tableName(src.DB, &EnvironmentData{})
	assert.Equal(t, int64(30), byTable[envTable].Copied)
	assert.Equal(t, int64(30), progressed[envTable])

	counts, err := VerifyExport(context.Background(), src, dst)
	require.NoError(t, err)
	for _, c := range counts {
		assert.True(t, c.Match(), "%s: %d vs %d", c.Table, c.Source, c.Target)
	}

	p, err := dst.GetProduct("LJY20240601EXPORT")
	require.NoError(t, err)
	assert.Len(t, p.QualityChecks, 1)
}

func TestExportIsResumable(t *testing.T) {
	t.Parallel()
	src := newTestStore(t)
	dst := newTestStore(t)
	seedExportSource(t, src)

	_, err := Export(context.Background(), src, dst, 0, nil)
	require.NoError(t, err)

	stats, err := Export(context.Background(), src, dst, 0, nil)
	require.NoError(t, err)
	for _, s := range stats {
		assert.Zero(t, s.Copied, s.Table)
		assert.Equal(t, s.Source, s.Skipped, s.Table)
	}
}

func TestExportNeedsOpenStores(t *testing.T) {
	t.Parallel()

	_, err := Export(context.Background(), &DataStore{}, newTestStore(t), 10, nil)
	require.Error(t, err)
}
