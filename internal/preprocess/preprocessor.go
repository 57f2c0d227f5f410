package preprocess

import (
	"context"
	"math"
	"time"

	"github.com/farmwatch/farmwatch/internal/conf"
	"github.com/farmwatch/farmwatch/internal/datastore"
	"github.com/farmwatch/farmwatch/internal/errors"
	"github.com/farmwatch/farmwatch/internal/logger"
)

// Source supplies stored readings. datastore.Interface satisfies it.
type Source interface {
	GetEnvironmentData(start, end time.Time) ([]datastore.EnvironmentData, error)
}

// RunRecorder receives one observation per pipeline run.
type RunRecorder interface {
	RecordPreprocessRun(status string, rows int, duration time.Duration)
}

// Options selects the pipeline steps and their methods.
type Options struct {
	RemoveOutliers   bool
	OutlierMethod    string
	OutlierThreshold float64

	Interpolate         bool
	InterpolationMethod string

	Smooth          bool
	SmoothingMethod string
	Window          int

	Normalize           bool
	NormalizationMethod string

	CreateFeatures bool
}

// DefaultOptions removes outliers, interpolates and creates features.
func DefaultOptions() Options {
	return Options{
		RemoveOutliers:      true,
		OutlierMethod:       OutlierZScore,
		OutlierThreshold:    DefaultOutlierThreshold,
		Interpolate:         true,
		InterpolationMethod: InterpLinear,
		SmoothingMethod:     SmoothRollingMean,
		Window:              5,
		NormalizationMethod: NormalizeMinMax,
		CreateFeatures:      true,
	}
}

// OptionsFromSettings returns DefaultOptions with methods taken from settings.
func OptionsFromSettings(s conf.PreprocessSettings) Options {
	o := DefaultOptions()
	if s.OutlierMethod != "" {
		o.OutlierMethod = s.OutlierMethod
	}
	if s.OutlierThreshold > 0 {
		o.OutlierThreshold = s.OutlierThreshold
	}
	if s.Interpolation != "" {
		o.InterpolationMethod = s.Interpolation
	}
	if s.Smoothing != "" {
		o.SmoothingMethod = s.Smoothing
	}
	if s.Window > 0 {
		o.Window = s.Window
	}
	if s.Normalization != "" {
		o.NormalizationMethod = s.Normalization
	}
	return o
}

// Result is the output of Process.
type Result struct {
	Frame           *Frame         `json:"-"`
	Scaler          *Scaler        `json:"scaler,omitempty"`
	RowsLoaded      int            `json:"rows_loaded"`
	RowsDropped     int            `json:"rows_dropped"`
	OutliersRemoved map[string]int `json:"outliers_removed,omitempty"`
}

// Preprocessor runs the cleaning pipeline over readings from a Source.
type Preprocessor struct {
	source   Source
	daylight DaylightFunc
	recorder RunRecorder
	logger   logger.Logger
}

// Option configures a Preprocessor.
type Option func(*Preprocessor)

// WithDaylight adds the is_daylight feature.
func WithDaylight(fn DaylightFunc) Option {
	return func(p *Preprocessor) { p.daylight = fn }
}

// WithRecorder reports pipeline runs to r.
func WithRecorder(r RunRecorder) Option {
	return func(p *Preprocessor) { p.recorder = r }
}

// New creates a Preprocessor.
func New(source Source, opts ...Option) *Preprocessor {
	p := &Preprocessor{source: source, logger: GetLogger()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Load reads readings in [start, end] into a frame sorted by timestamp.
func (p *Preprocessor) Load(ctx context.Context, start, end time.Time) (*Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := p.source.GetEnvironmentData(start, end)
	if err != nil {
		return nil, errors.New(err).
			Component("preprocess").
			Category(errors.CategoryPreprocessing).
			Context("operation", "load").
			Build()
	}
	p.logger.Debug("loaded readings", logger.Int("rows", len(rows)))
	return FrameFromEnvironment(rows), nil
}

// Process loads readings and runs the enabled steps in fixed order:
// outliers, interpolation, smoothing, normalization, features. Rows with any
// NaN left are dropped. An empty range returns an empty frame.
func (p *Preprocessor) Process(ctx context.Context, start, end time.Time, opts Options) (res *Result, err error) {
	began := time.Now()
	defer func() {
		if p.recorder == nil {
			return
		}
		status, rows := "success", 0
		if err != nil {
			status = "error"
		} else {
			rows = res.Frame.Len()
		}
		p.recorder.RecordPreprocessRun(status, rows, time.Since(began))
	}()

	f, err := p.Load(ctx, start, end)
	if err != nil {
		return nil, err
	}
	res = &Result{Frame: f, RowsLoaded: f.Len()}
	if f.Len() == 0 {
		p.logger.Warn("no data to process")
		return res, nil
	}

	steps := []struct {
		name    string
		enabled bool
		run     func() error
	}{
		{"remove_outliers", opts.RemoveOutliers, func() error {
			counts, err := RemoveOutliers(f, nil, opts.OutlierMethod, opts.OutlierThreshold)
			res.OutliersRemoved = counts
			return err
		}},
		{"interpolate", opts.Interpolate, func() error {
			return InterpolateMissing(f, opts.InterpolationMethod)
		}},
		{"smooth", opts.Smooth, func() error {
			return Smooth(f, opts.Window, opts.SmoothingMethod)
		}},
		{"normalize", opts.Normalize, func() error {
			scaler, err := Normalize(f, opts.NormalizationMethod)
			res.Scaler = scaler
			return err
		}},
		{"features", opts.CreateFeatures, func() error {
			CreateFeatures(f, p.daylight)
			return nil
		}},
	}

	for _, step := range steps {
		if !step.enabled {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := step.run(); err != nil {
			return nil, err
		}
	}

	res.RowsDropped = f.DropIncomplete()
	p.logger.Info("preprocessing completed",
		logger.Int("rows_loaded", res.RowsLoaded),
		logger.Int("rows_final", f.Len()),
		logger.Duration("duration", time.Since(began)))
	return res, nil
}

// CountStat is a count with its share of all records in percent.
type CountStat struct {
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// ColumnStats are rounded to two decimals. NaN fields encode as null.
type ColumnStats struct {
	Mean *float64 `json:"mean"`
	Std  *float64 `json:"std"`
	Min  *float64 `json:"min"`
	Max  *float64 `json:"max"`
	Q25  *float64 `json:"q25"`
	Q75  *float64 `json:"q75"`
}

// DateRange is the span of a report, formatted 2006-01-02 15:04:05.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// QualityReport summarizes missing values, outliers and statistics per column.
type QualityReport struct {
	TotalRecords  int                    `json:"total_records"`
	DateRange     *DateRange             `json:"date_range,omitempty"`
	MissingValues map[string]CountStat   `json:"missing_values"`
	Outliers      map[string]CountStat   `json:"outliers"`
	Statistics    map[string]ColumnStats `json:"statistics"`
}

// QualityReport loads readings in [start, end] and reports on them.
func (p *Preprocessor) QualityReport(ctx context.Context, start, end time.Time) (*QualityReport, error) {
	f, err := p.Load(ctx, start, end)
	if err != nil {
		return nil, err
	}
	return BuildQualityReport(f), nil
}

const reportTimeLayout = "2006-01-02 15:04:05"

// BuildQualityReport reports on the sensor columns of f. Outliers use the
// z-score method with the default threshold.
func BuildQualityReport(f *Frame) *QualityReport {
	r := &QualityReport{
		TotalRecords:  f.Len(),
		MissingValues: make(map[string]CountStat),
		Outliers:      make(map[string]CountStat),
		Statistics:    make(map[string]ColumnStats),
	}
	if f.Len() == 0 {
		return r
	}

	first, last := f.Timestamps[0], f.Timestamps[0]
	for _, ts := range f.Timestamps {
		if ts.Before(first) {
			first = ts
		}
		if ts.After(last) {
			last = ts
		}
	}
	r.DateRange = &DateRange{Start: first.Format(reportTimeLayout), End: last.Format(reportTimeLayout)}

	total := float64(f.Len())
	for _, col := range f.presentSensorColumns() {
		values := f.Columns[col]

		missing := countNaN(values)
		r.MissingValues[col] = CountStat{Count: missing, Percentage: round2(float64(missing) / total * 100)}

		mask, _ := DetectOutliers(f, col, OutlierZScore, DefaultOutlierThreshold)
		flagged := 0
		for _, m := range mask {
			if m {
				flagged++
			}
		}
		r.Outliers[col] = CountStat{Count: flagged, Percentage: round2(float64(flagged) / total * 100)}

		lo, hi := minMax(values)
		r.Statistics[col] = ColumnStats{
			Mean: rounded(mean(values)),
			Std:  rounded(sampleStd(values)),
			Min:  rounded(lo),
			Max:  rounded(hi),
			Q25:  rounded(quantile(values, 0.25)),
			Q75:  rounded(quantile(values, 0.75)),
		}
	}
	return r
}

func rounded(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	v = round2(v)
	return &v
}
