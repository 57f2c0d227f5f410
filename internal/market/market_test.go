package market

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farmwatch/farmwatch/internal/datastore"
	"github.com/farmwatch/farmwatch/internal/errors"
)

func TestSentimentScore(t *testing.T) {
	t.Parallel()

	tests := []struct {
		text string
		want float64
	}{
		{"", 0},
		{"arrived on tuesday", 0},
		{"Fresh and CRISP, would recommend", 1},
		{"stale and disappointed, asked for a refund", -1},
		{"sweet but a bit stale", 0},
		{"很甜很新鲜", 1},
		{"质量差，退货", -1},
		{"good, fresh, but fake packaging", 1.0 / 3},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, SentimentScore(tt.text), 1e-9, tt.text)
	}
}

var now = time.Date(2024, 11, 20, 12, 0, 0, 0, time.UTC)

func sample() []datastore.MarketData {
	return []datastore.MarketData{
		{ProductName: "jujube 1kg", Platform: "taobao", Price: 29.9, SalesVolume: 1200, Rating: 4.8, SentimentScore: 0.8},
		{ProductName: "jujube 2kg", Platform: "taobao", Price: 52.5, SalesVolume: 800, Rating: 4.6, SentimentScore: 0.5},
		{ProductName: "jujube gift box", Platform: "jd", Price: 99, SalesVolume: 300, Rating: 4.9, SentimentScore: 1},
		{ProductName: "jujube bulk", Platform: "pdd", Price: 19.9, SalesVolume: 2500, Rating: 4.1, SentimentScore: -0.2},
		{ProductName: "dried jujube", Platform: "jd", Price: 35, SalesVolume: 800, Rating: 4.5, SentimentScore: 0.3},
		{ProductName: "jujube tea", Platform: "tmall", Price: 45, SalesVolume: 150, Rating: 3.9, SentimentScore: 0},
	}
}

func TestBuildReport(t *testing.T) {
	t.Parallel()

	r := BuildReport(sample(), 7, now)

	assert.Equal(t, "7 days", r.DataPeriod)
	assert.Equal(t, 6, r.TotalProducts)
	assert.Empty(t, r.Message)

	require.NotNil(t, r.PriceAnalysis)
	assert.InDelta(t, 46.88, r.PriceAnalysis.AveragePrice, 1e-9)
	assert.InDelta(t, 19.9, r.PriceAnalysis.PriceRange.Min, 1e-9)
	assert.InDelta(t, 99.0, r.PriceAnalysis.PriceRange.Max, 1e-9)
	assert.InDelta(t, 41.2, r.PriceAnalysis.PlatformComparison["taobao"], 1e-9)
	assert.InDelta(t, 67.0, r.PriceAnalysis.PlatformComparison["jd"], 1e-9)
	assert.Len(t, r.PriceAnalysis.PlatformComparison, 4)

	require.NotNil(t, r.SalesAnalysis)
	assert.Equal(t, 5750, r.SalesAnalysis.TotalSales)
	assert.InDelta(t, 958.33, r.SalesAnalysis.AverageSales, 1e-9)
	require.Len(t, r.SalesAnalysis.TopSellingProducts, 5)
	assert.Equal(t, "jujube bulk", r.SalesAnalysis.TopSellingProducts[0].ProductName)
	assert.Equal(t, "jujube 1kg", r.SalesAnalysis.TopSellingProducts[1].ProductName)
	// ties keep their stored order
	assert.Equal(t, "jujube 2kg", r.SalesAnalysis.TopSellingProducts[2].ProductName)
	assert.Equal(t, "dried jujube", r.SalesAnalysis.TopSellingProducts[3].ProductName)

	require.NotNil(t, r.ConsumerPreferences)
	assert.InDelta(t, 4.47, r.ConsumerPreferences.AverageRating, 1e-9)
	assert.Equal(t, []string{"jujube 1kg", "jujube 2kg", "jujube gift box", "dried jujube"},
		r.ConsumerPreferences.HighRatedProducts)
	assert.InDelta(t, 0.4, r.ConsumerPreferences.SentimentScore, 1e-9)

	require.NotNil(t, r.MarketOpportunities)
	assert.Equal(t, "medium", r.MarketOpportunities.GrowthPotential)
	assert.Len(t, r.MarketOpportunities.RecommendedStrategies, 3)
}

func TestBuildReportHighGrowth(t *testing.T) {
	t.Parallel()

	rows := sample()[:1]
	r := BuildReport(rows, 7, now)
	assert.Equal(t, "high", r.MarketOpportunities.GrowthPotential)
}

func TestBuildReportEmpty(t *testing.T) {
	t.Parallel()

	r := BuildReport(nil, 7, now)
	assert.Equal(t, "no market data", r.Message)
	assert.Zero(t, r.TotalProducts)
	assert.Nil(t, r.PriceAnalysis)
}

func TestAnalyzerRecordAndReport(t *testing.T) {
	ds, err := datastore.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = ds.Close() })

	a := NewAnalyzer(ds, func() time.Time { return now })

	old := &datastore.MarketData{Timestamp: now.AddDate(0, 0, -30), ProductName: "old", Platform: "jd", Price: 10, SalesVolume: 5}
	require.NoError(t, a.Record(old, ""))

	for _, m := range sample() {
		m.Timestamp = now.Add(-time.Hour)
		require.NoError(t, a.Record(&m, ""))
	}

	withReviews := &datastore.MarketData{Timestamp: now, ProductName: "jujube 5kg", Platform: "tmall", Price: 120, SalesVolume: 10, Rating: 4.7}
	require.NoError(t, a.Record(withReviews, "fresh and sweet"))
	assert.InDelta(t, 1.0, withReviews.SentimentScore, 1e-9)

	r, err := a.Report(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 7, r.TotalProducts)
	assert.Equal(t, "7 days", r.DataPeriod)

	err = a.Record(&datastore.MarketData{ProductName: "x", Platform: "jd", SentimentScore: 2}, "")
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryValidation))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = a.Report(ctx, 7)
	require.ErrorIs(t, err, context.Canceled)
}

func TestBrandContent(t *testing.T) {
	t.Parallel()

	c := NewBrandContent("", "")
	assert.Equal(t, DefaultBrand, c.Brand)
	assert.Contains(t, c.Story, "Choose Langjiayuan")
	assert.Contains(t, c.ProductDescriptions[0], DefaultVariety)
	assert.Len(t, c.SocialMediaPosts, 5)

	custom := NewBrandContent("Green Valley", "golden jujube")
	assert.Contains(t, custom.Story, "Green Valley grows")
	assert.Equal(t, "Hand-picked golden jujube, plump, crisp and sweet", custom.ProductDescriptions[0])
}
