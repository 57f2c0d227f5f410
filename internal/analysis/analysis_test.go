package analysis

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farmwatch/farmwatch/internal/buildinfo"
	"github.com/farmwatch/farmwatch/internal/conf"
	"github.com/farmwatch/farmwatch/internal/errors"
	"github.com/farmwatch/farmwatch/internal/preprocess"
)

func testSettings(t *testing.T) *conf.Settings {
	t.Helper()
	s := &conf.Settings{}
	s.Main.Location = "test-field"
	s.Output.SQLite.Enabled = true
	s.Output.SQLite.Path = filepath.Join(t.TempDir(), "farmwatch.db")
	s.Sensors.Interval = 60
	return s
}

func openRuntime(t *testing.T, s *conf.Settings) *Runtime {
	t.Helper()
	rt, err := Open(s, buildinfo.NewContext("test", "", ""))
	require.NoError(t, err)
	t.Cleanup(rt.Close)
	return rt
}

func TestOpenRequiresBackend(t *testing.T) {
	t.Parallel()

	_, err := Open(&conf.Settings{}, nil)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))
}

func TestRequireSimulation(t *testing.T) {
	t.Parallel()

	s := testSettings(t)
	rt := openRuntime(t, s)
	require.Error(t, rt.RequireSimulation())

	s.Sensors.Simulate = true
	assert.NoError(t, rt.RequireSimulation())
}

func TestDaylight(t *testing.T) {
	t.Parallel()

	s := testSettings(t)
	rt := openRuntime(t, s)
	assert.Nil(t, rt.Daylight())

	s.Main.Latitude = 60.17
	s.Main.Longitude = 24.94
	assert.NotNil(t, rt.Daylight())
}

func TestCollectorGeneratesIntoStore(t *testing.T) {
	t.Parallel()

	s := testSettings(t)
	s.Sensors.Simulate = true
	rt := openRuntime(t, s)

	c, err := rt.Collector()
	require.NoError(t, err)

	n, err := c.GenerateTestData(context.Background(), 1, nil)
	require.NoError(t, err)
	assert.Equal(t, 24, n)

	rows, err := rt.Store.GetEnvironmentData(time.Now().Add(-48*time.Hour), time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Len(t, rows, 24)

	res, err := rt.Preprocessor().Process(context.Background(), time.Now().Add(-48*time.Hour), time.Now().Add(time.Hour), preprocess.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 24, res.RowsLoaded)
}
