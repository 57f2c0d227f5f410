package warning

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/farmwatch/farmwatch/internal/conf"
	"github.com/farmwatch/farmwatch/internal/datastore"
	"github.com/farmwatch/farmwatch/internal/errors"
	"github.com/farmwatch/farmwatch/internal/events"
	"github.com/farmwatch/farmwatch/internal/logger"
)

// ErrCheckRunning is returned by RunCheck while another check is in progress.
var ErrCheckRunning = errors.NewStd("warning check already running")

const (
	defaultLocation = "Default"
	// readings and predictions older than this are not evaluated
	readingMaxAge    = time.Hour
	predictionMaxAge = 24 * time.Hour
	predictionLimit  = 50
)

// Store is the part of the datastore the service needs.
type Store interface {
	LatestEnvironmentData() (*datastore.EnvironmentData, error)
	LatestPredictions(limit int) ([]datastore.PredictionResult, error)
	SaveWarning(w *datastore.WarningRecord) error
	HasRecentWarning(warningType, location string, since time.Time) (bool, error)
	ResolveWarning(id uint) error
	ActiveUsersWithSettings() ([]datastore.User, error)
}

// Publisher accepts events without blocking.
type Publisher interface {
	TryPublish(event events.Event) bool
}

// Service runs warning checks and records their results.
type Service struct {
	store      Store
	publisher  Publisher
	thresholds conf.WarningThresholds
	interval   time.Duration
	window     time.Duration
	location   string

	recent  *cache.Cache
	running atomic.Bool
	now     func() time.Time
	log     logger.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithPublisher sets where warning events are published.
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithInterval overrides the scheduler interval.
func WithInterval(d time.Duration) Option {
	return func(s *Service) { s.interval = d }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a warning service from settings.
func NewService(store Store, settings *conf.Settings, opts ...Option) *Service {
	s := &Service{
		store:      store,
		thresholds: settings.Warnings.Thresholds,
		interval:   time.Duration(settings.Warnings.Interval) * time.Minute,
		window:     time.Duration(settings.Warnings.DedupWindow) * time.Minute,
		location:   settings.Main.Location,
		now:        time.Now,
		log:        GetLogger(),
	}
	if s.location == "" {
		s.location = defaultLocation
	}
	if s.interval <= 0 {
		s.interval = 10 * time.Minute
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.window > 0 {
		s.recent = cache.New(s.window, 2*s.window)
	}
	return s
}

// RunCheck evaluates the latest reading and predictions and returns the
// warnings that were newly recorded.
func (s *Service) RunCheck(ctx context.Context) ([]Warning, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrCheckRunning
	}
	defer s.running.Store(false)

	start := s.now()
	candidates, err := s.evaluate(start)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	channels := s.recipientChannels()
	var raised []Warning
	for _, w := range candidates {
		if err := ctx.Err(); err != nil {
			return raised, err
		}
		if s.isDuplicate(w, start) {
			s.log.Debug("duplicate warning suppressed",
				logger.String("warning_type", w.Type),
				logger.String("location", w.Location))
			continue
		}

		rec := &datastore.WarningRecord{
			Timestamp:         start,
			WarningType:       w.Type,
			Severity:          w.Severity,
			Message:           w.Message,
			Location:          w.Location,
			Status:            datastore.WarningActive,
			SentNotifications: channels,
		}
		if err := s.store.SaveWarning(rec); err != nil {
			return raised, err
		}
		w.RecordID = rec.ID
		s.remember(w)
		s.publish(w)
		raised = append(raised, w)
	}

	s.log.Info("warning check completed",
		logger.Int("candidates", len(candidates)),
		logger.Int("raised", len(raised)),
		logger.Duration("duration", time.Since(start)))
	return raised, nil
}

func (s *Service) evaluate(now time.Time) ([]Warning, error) {
	var out []Warning

	reading, err := s.store.LatestEnvironmentData()
	switch {
	case errors.IsNotFound(err):
		s.log.Debug("no environment data to check")
	case err != nil:
		return nil, err
	case now.Sub(reading.Timestamp) > readingMaxAge:
		s.log.Debug("latest reading is stale", logger.Time("timestamp", reading.Timestamp))
	default:
		for _, w := range CheckEnvironment(reading, s.thresholds) {
			if w.Location == "" {
				w.Location = s.location
			}
			out = append(out, w)
		}
	}

	predictions, err := s.store.LatestPredictions(predictionLimit)
	if err != nil {
		return nil, err
	}
	pests, diseases := latestRisks(predictions, now.Add(-predictionMaxAge))
	for _, w := range CheckPestDiseaseRisk(pests, diseases, s.thresholds) {
		w.Location = s.location
		w.Timestamp = now
		out = append(out, w)
	}
	return out, nil
}

// latestRisks keeps the newest prediction per target. Predictions are
// expected newest first.
func latestRisks(predictions []datastore.PredictionResult, since time.Time) (pests, diseases map[string]float64) {
	pests = map[string]float64{}
	diseases = map[string]float64{}
	for i := range predictions {
		p := &predictions[i]
		if p.Timestamp.Before(since) || p.Target == "" {
			continue
		}
		var m map[string]float64
		switch p.PredictionType {
		case datastore.PredictionPest:
			m = pests
		case datastore.PredictionDisease:
			m = diseases
		default:
			continue
		}
		if _, seen := m[p.Target]; !seen {
			m[p.Target] = p.RiskLevel
		}
	}
	return pests, diseases
}

func dedupKey(w Warning) string {
	return w.Type + "|" + w.Location
}

func (s *Service) isDuplicate(w Warning, now time.Time) bool {
	if s.window <= 0 {
		return false
	}
	if _, found := s.recent.Get(dedupKey(w)); found {
		return true
	}
	recent, err := s.store.HasRecentWarning(w.Type, w.Location, now.Add(-s.window))
	if err != nil {
		s.log.Warn("dedup lookup failed", logger.Error(err))
		return false
	}
	if recent {
		s.remember(w)
	}
	return recent
}

func (s *Service) remember(w Warning) {
	if s.recent != nil {
		s.recent.SetDefault(dedupKey(w), struct{}{})
	}
}

// recipientChannels lists the channels active users have enabled. Nothing
// is sent; the channels are recorded on the warning.
func (s *Service) recipientChannels() []string {
	users, err := s.store.ActiveUsersWithSettings()
	if err != nil {
		s.log.Warn("failed to load warning recipients", logger.Error(err))
		return nil
	}
	return datastore.EnabledChannels(users)
}

func (s *Service) publish(w Warning) {
	if s.publisher == nil {
		return
	}
	ev, err := events.NewWarningEvent(w.Type, w.Severity, w.Message, w.Location, w.Value, w.Threshold)
	if err != nil {
		s.log.Error("invalid warning event", logger.Error(err))
		return
	}
	ev.RecordID = w.RecordID
	ev.Subject = w.Subject
	ev.Title = Title(w)
	if !s.publisher.TryPublish(ev) {
		s.log.Debug("warning event not published", logger.String("warning_type", w.Type))
	}
}

// Start runs a check immediately and then every interval until ctx is done.
func (s *Service) Start(ctx context.Context) error {
	s.log.Info("warning scheduler started", logger.Duration("interval", s.interval))
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		s.scheduledCheck(ctx)
		select {
		case <-ctx.Done():
			s.log.Info("warning scheduler stopped")
			return nil
		case <-ticker.C:
		}
	}
}

func (s *Service) scheduledCheck(ctx context.Context) {
	_, err := s.RunCheck(ctx)
	switch {
	case err == nil:
	case errors.Is(err, ErrCheckRunning):
		s.log.Debug("previous warning check still running, skipping")
	case ctx.Err() != nil:
	default:
		s.log.Error("scheduled warning check failed", logger.Error(err))
	}
}

// Resolve marks a warning resolved.
func (s *Service) Resolve(id uint) error {
	return s.store.ResolveWarning(id)
}
