//go:build integration

package datastore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcmysql "github.com/testcontainers/testcontainers-go/modules/mysql"

	"github.com/farmwatch/farmwatch/internal/conf"
)

func TestMySQLStoreAgainstContainer(t *testing.T) {
	ctx := context.Background()

	ctr, err := tcmysql.Run(ctx, "mysql:8.0",
		tcmysql.WithDatabase("farmwatch"),
		tcmysql.WithUsername("farm"),
		tcmysql.WithPassword("farmpass"),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	host, err := ctr.Host(ctx)
	require.NoError(t, err)
	port, err := ctr.MappedPort(ctx, "3306/tcp")
	require.NoError(t, err)

	s := &conf.Settings{}
	s.Output.MySQL = conf.MySQLSettings{
		Enabled:  true,
		Username: "farm",
		Password: "farmpass",
		Host:     host,
		Port:     port.Port(),
		Database: "farmwatch",
	}

	store, err := New(s)
	require.NoError(t, err)
	require.NoError(t, store.Open())
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.CreateProduct(&ProductTraceability{ProductID: "LJY-IT-1", Location: "field"}))
	for i := range 5 {
		require.NoError(t, store.AppendProductRecord("LJY-IT-1", KindQuality,
			QualityCheck{QualityGrade: "A", PassStatus: i%2 == 0}, nil))
	}
	p, err := store.GetProduct("LJY-IT-1")
	require.NoError(t, err)
	assert.Len(t, p.QualityChecks, 5)

	now := time.Now().Truncate(time.Second)
	require.NoError(t, store.SaveEnvironmentData(&EnvironmentData{Timestamp: now, Temperature: ptr(22.0), Location: "field"}))
	rows, err := store.GetEnvironmentData(now.Add(-time.Minute), now.Add(time.Minute))
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
