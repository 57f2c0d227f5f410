package market

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"slices"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/farmwatch/farmwatch/internal/datastore"
	"github.com/farmwatch/farmwatch/internal/errors"
	"github.com/farmwatch/farmwatch/internal/logger"
)

// Report defaults.
const (
	DefaultReportDays  = 7
	highRating         = 4.5
	highGrowthSales    = 1000
	topProductsLimit   = 5
	highRatedListLimit = 5
)

// Store is the datastore subset the analyzer uses.
type Store interface {
	SaveMarketData(data *datastore.MarketData) error
	GetMarketData(since time.Time) ([]datastore.MarketData, error)
}

// PriceRange is the lowest and highest observed price.
type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// PriceAnalysis summarizes prices.
type PriceAnalysis struct {
	AveragePrice       float64            `json:"average_price"`
	PriceRange         PriceRange         `json:"price_range"`
	PlatformComparison map[string]float64 `json:"platform_comparison"`
}

// ProductSales is one entry of the best sellers list.
type ProductSales struct {
	ProductName string `json:"product_name"`
	SalesVolume int    `json:"sales_volume"`
}

// SalesAnalysis summarizes sales volume.
type SalesAnalysis struct {
	TotalSales         int            `json:"total_sales"`
	AverageSales       float64        `json:"average_sales"`
	TopSellingProducts []ProductSales `json:"top_selling_products"`
}

// ConsumerPreferences summarizes ratings and review sentiment.
type ConsumerPreferences struct {
	AverageRating     float64  `json:"average_rating"`
	HighRatedProducts []string `json:"high_rated_products"`
	SentimentScore    float64  `json:"sentiment_score"`
}

// Opportunities lists growth potential and suggested strategies.
type Opportunities struct {
	GrowthPotential       string   `json:"growth_potential"`
	RecommendedStrategies []string `json:"recommended_strategies"`
	TargetSegments        []string `json:"target_segments"`
}

// Report is the market analysis over a recent period.
type Report struct {
	Generated           time.Time            `json:"report_generated"`
	DataPeriod          string               `json:"data_period"`
	TotalProducts       int                  `json:"total_products"`
	PriceAnalysis       *PriceAnalysis       `json:"price_analysis,omitempty"`
	SalesAnalysis       *SalesAnalysis       `json:"sales_analysis,omitempty"`
	ConsumerPreferences *ConsumerPreferences `json:"consumer_preferences,omitempty"`
	MarketOpportunities *Opportunities       `json:"market_opportunities,omitempty"`
	Message             string               `json:"message,omitempty"`
	Recommendation      string               `json:"recommendation,omitempty"`
}

// Analyzer builds market reports from stored observations.
type Analyzer struct {
	store Store
	now   func() time.Time
	log   logger.Logger
}

// NewAnalyzer returns an analyzer over store. now may be nil.
func NewAnalyzer(store Store, now func() time.Time) *Analyzer {
	if now == nil {
		now = time.Now
	}
	return &Analyzer{store: store, now: now, log: GetLogger()}
}

// Record stores an observation. When reviews is not empty the sentiment
// score is computed from it.
func (a *Analyzer) Record(data *datastore.MarketData, reviews string) error {
	if data == nil {
		return errors.ValidationError("market data is nil")
	}
	if reviews != "" {
		data.SentimentScore = SentimentScore(reviews)
	}
	if data.SentimentScore < -1 || data.SentimentScore > 1 {
		return errors.Newf("sentiment score %.2f out of range -1..1", data.SentimentScore).
			Component("market").
			Category(errors.CategoryValidation).
			Build()
	}
	return a.store.SaveMarketData(data)
}

// Report analyzes observations from the last days days.
func (a *Analyzer) Report(ctx context.Context, days int) (*Report, error) {
	if days <= 0 {
		days = DefaultReportDays
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	now := a.now()
	rows, err := a.store.GetMarketData(now.AddDate(0, 0, -days))
	if err != nil {
		return nil, errors.New(err).
			Component("market").
			Category(errors.CategoryMarket).
			Context("operation", "load_market_data").
			Build()
	}
	a.log.Debug("market data loaded", logger.Int("rows", len(rows)), logger.Int("days", days))
	return BuildReport(rows, days, now), nil
}

// BuildReport computes the report for rows.
func BuildReport(rows []datastore.MarketData, days int, now time.Time) *Report {
	r := &Report{
		Generated:     now,
		DataPeriod:    fmt.Sprintf("%d days", days),
		TotalProducts: len(rows),
	}
	if len(rows) == 0 {
		r.Message = "no market data"
		r.Recommendation = "collect market data first"
		return r
	}

	n := len(rows)
	prices := make([]float64, n)
	sales := make([]float64, n)
	ratings := make([]float64, n)
	sentiment := make([]float64, n)
	byPlatform := make(map[string][]float64)
	total := 0
	for i, m := range rows {
		prices[i] = m.Price
		sales[i] = float64(m.SalesVolume)
		ratings[i] = m.Rating
		sentiment[i] = m.SentimentScore
		byPlatform[m.Platform] = append(byPlatform[m.Platform], m.Price)
		total += m.SalesVolume
	}

	platforms := make(map[string]float64, len(byPlatform))
	for p, ps := range byPlatform {
		platforms[p] = round2(stat.Mean(ps, nil))
	}
	r.PriceAnalysis = &PriceAnalysis{
		AveragePrice:       round2(stat.Mean(prices, nil)),
		PriceRange:         PriceRange{Min: round2(slices.Min(prices)), Max: round2(slices.Max(prices))},
		PlatformComparison: platforms,
	}

	ranked := slices.Clone(rows)
	slices.SortStableFunc(ranked, func(x, y datastore.MarketData) int {
		return cmp.Compare(y.SalesVolume, x.SalesVolume)
	})
	top := make([]ProductSales, 0, topProductsLimit)
	for _, m := range ranked[:min(topProductsLimit, len(ranked))] {
		top = append(top, ProductSales{ProductName: m.ProductName, SalesVolume: m.SalesVolume})
	}
	avgSales := stat.Mean(sales, nil)
	r.SalesAnalysis = &SalesAnalysis{
		TotalSales:         total,
		AverageSales:       round2(avgSales),
		TopSellingProducts: top,
	}

	highRated := []string{}
	for _, m := range rows {
		if m.Rating >= highRating && len(highRated) < highRatedListLimit {
			highRated = append(highRated, m.ProductName)
		}
	}
	r.ConsumerPreferences = &ConsumerPreferences{
		AverageRating:     round2(stat.Mean(ratings, nil)),
		HighRatedProducts: highRated,
		SentimentScore:    round2(stat.Mean(sentiment, nil)),
	}

	growth := "medium"
	if avgSales > highGrowthSales {
		growth = "high"
	}
	r.MarketOpportunities = &Opportunities{
		GrowthPotential:       growth,
		RecommendedStrategies: []string{"Improve quality", "Optimize pricing", "Build the brand"},
		TargetSegments:        []string{"Health food enthusiasts", "Middle-aged and older consumers", "Expectant mothers"},
	}
	return r
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
