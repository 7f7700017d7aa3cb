// Package dashboard keeps the widget-facing snapshot fresh. A Refresher
// subscribes to the location session and on every change re-fetches four
// independent panels: the current reading, the calibrated forecast, the
// pollutant breakdown, and health recommendations. Panel writes are guarded
// by the session version, so a slow fetch for an abandoned location can
// never overwrite data for the current one.
package dashboard

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/air-quality-monitor/internal/domain"
	"github.com/couchcryptid/air-quality-monitor/internal/observability"
	"github.com/couchcryptid/air-quality-monitor/internal/session"
)

// Panel data sources reported in the snapshot. Sample means the upstream
// had nothing usable and the shared placeholder dataset is shown instead.
const (
	SourceLive   = "live"
	SourceSample = domain.SampleSource
)

// Snapshot is one consistent view of every dashboard panel.
type Snapshot struct {
	Location        string                 `json:"location"`
	Reading         *domain.AQIReading     `json:"reading,omitempty"`
	Forecast        []domain.ForecastPoint `json:"forecast"`
	ForecastSource  string                 `json:"forecast_source"`
	Calibration     string                 `json:"calibration,omitempty"`
	Pollutants      []domain.Pollutant     `json:"pollutants"`
	PollutantSource string                 `json:"pollutant_source"`
	Health          *domain.HealthAdvice   `json:"health,omitempty"`
	UpdatedAt       time.Time              `json:"updated_at"`
}

// Options wires a Refresher. ForecastDays defaults to 4 and Epsilon to
// domain.DefaultEpsilon when left zero.
type Options struct {
	AQI          domain.AQIProvider
	Forecast     domain.ForecastProvider
	Pollutants   domain.PollutantProvider
	Health       domain.HealthProvider
	Session      *session.Session
	Logger       *slog.Logger
	Metrics      *observability.Metrics
	ForecastDays int
	Epsilon      float64
}

// Refresher maintains the current Snapshot.
type Refresher struct {
	aqi        domain.AQIProvider
	forecast   domain.ForecastProvider
	pollutants domain.PollutantProvider
	health     domain.HealthProvider
	session    *session.Session
	logger     *slog.Logger
	metrics    *observability.Metrics
	days       int
	epsilon    float64
	ready      atomic.Bool

	mu      sync.Mutex
	version uint64
	snap    Snapshot
}

// New creates a Refresher with an empty snapshot.
func New(opts Options) *Refresher {
	if opts.ForecastDays <= 0 {
		opts.ForecastDays = 4
	}
	if opts.Epsilon <= 0 {
		opts.Epsilon = domain.DefaultEpsilon
	}
	return &Refresher{
		aqi:        opts.AQI,
		forecast:   opts.Forecast,
		pollutants: opts.Pollutants,
		health:     opts.Health,
		session:    opts.Session,
		logger:     opts.Logger,
		metrics:    opts.Metrics,
		days:       opts.ForecastDays,
		epsilon:    opts.Epsilon,
	}
}

// CheckReadiness returns nil once at least one refresh has published a
// snapshot, or an error describing why the service is not yet ready.
func (r *Refresher) CheckReadiness(_ context.Context) error {
	if !r.ready.Load() {
		return errors.New("dashboard has not completed a refresh yet")
	}
	return nil
}

// Snapshot returns a copy of the current dashboard state.
func (r *Refresher) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snap
}

// Run refreshes once for the initial location, then again on every session
// change until the context is cancelled.
func (r *Refresher) Run(ctx context.Context) error {
	changes, cancel := r.session.Subscribe()
	defer cancel()

	r.logger.Info("dashboard refresher started", "location", r.session.Current())
	r.Refresh(ctx)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("dashboard refresher stopping", "reason", ctx.Err())
			return nil
		case _, ok := <-changes:
			if !ok {
				return nil
			}
			r.Refresh(ctx)
		}
	}
}

// Refresh fetches all panels for the session's current location. The
// current reading is resolved first because the remaining panels are keyed
// by the city name it carries; those three then run concurrently.
func (r *Refresher) Refresh(ctx context.Context) {
	location, version := r.session.Snapshot()
	if location == "" {
		return
	}
	start := time.Now()

	city := r.refreshReading(ctx, location, version)

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		r.refreshForecast(ctx, location, city, version)
	}()
	go func() {
		defer wg.Done()
		r.refreshPollutants(ctx, city, version)
	}()
	go func() {
		defer wg.Done()
		r.refreshHealth(ctx, city, version)
	}()
	wg.Wait()

	r.metrics.RefreshDuration.Observe(time.Since(start).Seconds())
	if r.session.StillCurrent(version) {
		r.ready.Store(true)
	}
}

// refreshReading resolves the current AQI and returns the resolved city
// name, or "" when the upstream had no data for the location.
func (r *Refresher) refreshReading(ctx context.Context, location string, version uint64) string {
	reading, err := r.aqi.CurrentAQI(ctx, location)
	if err != nil {
		r.metrics.PanelRefreshes.WithLabelValues("reading", "error").Inc()
		r.logger.Warn("reading refresh failed", "location", location, "error", err)
		r.apply(location, version, func(s *Snapshot) {
			s.Reading = nil
		})
		return ""
	}
	r.metrics.PanelRefreshes.WithLabelValues("reading", "ok").Inc()
	r.apply(location, version, func(s *Snapshot) {
		s.Reading = &reading
	})
	return reading.City
}

// refreshForecast fetches the model forecast and calibrates it against the
// published current reading. domain.ErrNoData (an untrained model) is a
// valid empty state and falls back to the sample series.
func (r *Refresher) refreshForecast(ctx context.Context, location, city string, version uint64) {
	points := domain.SampleForecast()
	source := SourceSample

	if city != "" {
		fetched, err := r.forecast.Forecast(ctx, city, r.days)
		switch {
		case err == nil && len(fetched) > 0:
			points = fetched
			source = SourceLive
			r.metrics.PanelRefreshes.WithLabelValues("forecast", "ok").Inc()
		case errors.Is(err, domain.ErrNoData), err == nil:
			r.metrics.PanelRefreshes.WithLabelValues("forecast", "fallback").Inc()
		default:
			r.metrics.PanelRefreshes.WithLabelValues("forecast", "error").Inc()
			r.logger.Warn("forecast refresh failed", "city", city, "error", err)
		}
	} else {
		r.metrics.PanelRefreshes.WithLabelValues("forecast", "fallback").Inc()
	}

	r.apply(location, version, func(s *Snapshot) {
		outcome := domain.CalibrationEmpty
		if s.Reading != nil {
			points, outcome = domain.Calibrate(points, s.Reading.Value, r.epsilon)
		}
		r.metrics.Calibrations.WithLabelValues(string(outcome)).Inc()
		s.Forecast = points
		s.ForecastSource = source
		s.Calibration = string(outcome)
	})
}

func (r *Refresher) refreshPollutants(ctx context.Context, city string, version uint64) {
	rows := domain.SamplePollutants()
	source := SourceSample

	if city != "" {
		fetched, err := r.pollutants.Pollutants(ctx, city)
		switch {
		case err == nil && len(fetched) > 0:
			rows = fetched
			source = SourceLive
			r.metrics.PanelRefreshes.WithLabelValues("pollutants", "ok").Inc()
		case errors.Is(err, domain.ErrNoData), err == nil:
			r.metrics.PanelRefreshes.WithLabelValues("pollutants", "fallback").Inc()
		default:
			r.metrics.PanelRefreshes.WithLabelValues("pollutants", "error").Inc()
			r.logger.Warn("pollutant refresh failed", "city", city, "error", err)
		}
	} else {
		r.metrics.PanelRefreshes.WithLabelValues("pollutants", "fallback").Inc()
	}

	r.apply("", version, func(s *Snapshot) {
		s.Pollutants = rows
		s.PollutantSource = source
	})
}

// refreshHealth has no placeholder dataset: missing recommendations leave
// the panel empty rather than showing made-up medical advice.
func (r *Refresher) refreshHealth(ctx context.Context, city string, version uint64) {
	if city == "" {
		r.apply("", version, func(s *Snapshot) { s.Health = nil })
		return
	}
	advice, err := r.health.HealthAdvice(ctx, city)
	if err != nil {
		if errors.Is(err, domain.ErrNoData) {
			r.metrics.PanelRefreshes.WithLabelValues("health", "empty").Inc()
		} else {
			r.metrics.PanelRefreshes.WithLabelValues("health", "error").Inc()
			r.logger.Warn("health refresh failed", "city", city, "error", err)
		}
		r.apply("", version, func(s *Snapshot) { s.Health = nil })
		return
	}
	r.metrics.PanelRefreshes.WithLabelValues("health", "ok").Inc()
	r.apply("", version, func(s *Snapshot) { s.Health = &advice })
}

// apply publishes one panel write if the session version is still current.
// The first write for a new version resets the snapshot so panels from the
// previous location never mix with the new one.
func (r *Refresher) apply(location string, version uint64, mutate func(*Snapshot)) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.session.StillCurrent(version) {
		r.metrics.StaleDiscards.Inc()
		return
	}
	if r.version != version {
		r.version = version
		r.snap = Snapshot{Location: location}
		if location == "" {
			r.snap.Location = r.session.Current()
		}
	}
	mutate(&r.snap)
	r.snap.UpdatedAt = time.Now().UTC()
}
