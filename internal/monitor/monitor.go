// Package monitor implements the alert polling state machine: Idle until a
// subscription is saved, then Polling on a fixed interval, with a mandatory
// Cooldown window after each dispatched alert. Timing runs through an
// injected clock so the machine is testable without real timers.
package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/air-quality-monitor/internal/domain"
	"github.com/couchcryptid/air-quality-monitor/internal/observability"
	"github.com/couchcryptid/air-quality-monitor/internal/session"
	"github.com/couchcryptid/air-quality-monitor/internal/store"
)

// Options configures a Monitor. Clock defaults to the real clock,
// PollInterval to 2h, and Cooldown to 24h when left zero.
type Options struct {
	Provider     domain.AQIProvider
	Notifier     domain.Notifier
	Store        store.Store
	Session      *session.Session
	Logger       *slog.Logger
	Metrics      *observability.Metrics
	Clock        clockwork.Clock
	PollInterval time.Duration
	Cooldown     time.Duration
}

// Status is the monitor's externally visible state, read by the settings
// view. Zero times mean the corresponding event has not happened.
type Status struct {
	State         string                    `json:"state"`
	Subscription  *domain.AlertSubscription `json:"subscription,omitempty"`
	LastCheckTime time.Time                 `json:"last_check_time,omitzero"`
	NextCheckTime time.Time                 `json:"next_check_time,omitzero"`
	LastAlertSent time.Time                 `json:"last_alert_sent,omitzero"`
}

// Monitor owns the alert state machine. All timing state lives in the
// injected Store so a restarted process resumes a cooldown instead of
// double-firing; the timer handle itself is process-local and recreated.
type Monitor struct {
	provider domain.AQIProvider
	notifier domain.Notifier
	store    store.Store
	session  *session.Session
	logger   *slog.Logger
	metrics  *observability.Metrics
	clock    clockwork.Clock
	interval time.Duration
	cooldown time.Duration

	state atomic.Int32

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates an idle Monitor.
func New(opts Options) *Monitor {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 2 * time.Hour
	}
	if opts.Cooldown <= 0 {
		opts.Cooldown = 24 * time.Hour
	}
	return &Monitor{
		provider: opts.Provider,
		notifier: opts.Notifier,
		store:    opts.Store,
		session:  opts.Session,
		logger:   opts.Logger,
		metrics:  opts.Metrics,
		clock:    opts.Clock,
		interval: opts.PollInterval,
		cooldown: opts.Cooldown,
	}
}

// State returns the current lifecycle state.
func (m *Monitor) State() State {
	return State(m.state.Load())
}

// Start validates and persists the subscription, then begins monitoring.
// Re-entrant: a previous run is cancelled first, so at most one timer is
// ever active. The first check happens immediately, before any timer is
// armed; if a persisted cooldown is still open, the monitor resumes waiting
// out the remainder instead.
func (m *Monitor) Start(ctx context.Context, sub domain.AlertSubscription) error {
	if err := sub.Validate(); err != nil {
		return err
	}
	if err := store.SetSubscription(ctx, m.store, sub); err != nil {
		return fmt.Errorf("persist subscription: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopLocked()

	// Monitoring outlives the request that started it; only Stop or
	// Teardown ends it.
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	done := make(chan struct{})
	m.cancel = cancel
	m.done = done
	go m.run(runCtx, sub, done)
	return nil
}

// Stop cancels any running monitor and waits for it to exit. The persisted
// timing fields are left intact so a later Start can resume a cooldown.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopLocked()
}

func (m *Monitor) stopLocked() {
	if m.cancel == nil {
		return
	}
	m.cancel()
	<-m.done
	m.cancel = nil
	m.done = nil
}

// Teardown is the "add another account" action: stop monitoring and clear
// the subscription along with every persisted timing field.
func (m *Monitor) Teardown(ctx context.Context) error {
	m.Stop()
	if err := store.ClearAlertState(ctx, m.store); err != nil {
		return fmt.Errorf("clear alert state: %w", err)
	}
	m.logger.Info("alert monitoring torn down")
	return nil
}

// Status reads the persisted timing fields and subscription for display.
func (m *Monitor) Status(ctx context.Context) (Status, error) {
	st := Status{State: m.State().String()}

	if sub, found, err := store.GetSubscription(ctx, m.store); err != nil {
		return st, err
	} else if found {
		st.Subscription = &sub
	}
	var err error
	if st.LastCheckTime, _, err = store.GetTime(ctx, m.store, store.KeyLastCheckTime); err != nil {
		return st, err
	}
	if st.NextCheckTime, _, err = store.GetTime(ctx, m.store, store.KeyNextCheckTime); err != nil {
		return st, err
	}
	if st.LastAlertSent, _, err = store.GetTime(ctx, m.store, store.KeyLastAlertSent); err != nil {
		return st, err
	}
	return st, nil
}

func (m *Monitor) run(ctx context.Context, sub domain.AlertSubscription, done chan struct{}) {
	defer close(done)
	defer m.setState(StateIdle)

	if remaining := m.cooldownRemaining(ctx); remaining > 0 {
		m.setState(StateCooldown)
		m.logger.Info("resuming cooldown", "remaining", remaining.String())
		if !m.sleep(ctx, remaining) {
			return
		}
	}

	for {
		m.setState(StatePolling)
		wait, cooling := m.check(ctx, sub)
		if cooling {
			m.setState(StateCooldown)
		}
		if !m.sleep(ctx, wait) {
			return
		}
	}
}

// check performs one poll tick and returns how long to wait before the next
// one, plus whether that wait is a cooldown.
func (m *Monitor) check(ctx context.Context, sub domain.AlertSubscription) (time.Duration, bool) {
	now := m.clock.Now()
	if err := store.SetTime(ctx, m.store, store.KeyLastCheckTime, now); err != nil {
		m.logger.Warn("persist last check time failed", "error", err)
	}

	location := m.session.Current()
	if location == "" {
		m.metrics.PollChecks.WithLabelValues("skipped").Inc()
		m.logger.Warn("poll skipped, no active location")
		return m.interval, false
	}

	reading, err := m.provider.CurrentAQI(ctx, location)
	if err != nil {
		// Silent-skip policy: nextCheckTime is left untouched and no state
		// transition happens on a failed or empty fetch.
		m.metrics.PollChecks.WithLabelValues("skipped").Inc()
		m.logger.Warn("poll skipped", "location", location, "error", err)
		return m.interval, false
	}

	if reading.Value > sub.Threshold {
		m.dispatch(ctx, sub, reading)
		if err := store.SetTime(ctx, m.store, store.KeyLastAlertSent, now); err != nil {
			m.logger.Warn("persist last alert time failed", "error", err)
		}
		m.metrics.PollChecks.WithLabelValues("alert").Inc()
		return m.cooldown, true
	}

	if err := store.SetTime(ctx, m.store, store.KeyNextCheckTime, now.Add(m.interval)); err != nil {
		m.logger.Warn("persist next check time failed", "error", err)
	}
	m.metrics.PollChecks.WithLabelValues("clear").Inc()
	return m.interval, false
}

// dispatch sends the alert fire-and-forget: a sink failure is logged and
// counted, never retried, and never blocks the Cooldown transition.
func (m *Monitor) dispatch(ctx context.Context, sub domain.AlertSubscription, reading domain.AQIReading) {
	alert := domain.Alert{
		Subscription: sub,
		Reading:      reading,
		Message:      FormatWarning(sub, reading),
	}
	if err := m.notifier.SendAlert(ctx, alert); err != nil {
		m.metrics.AlertSendErrors.Inc()
		m.logger.Error("alert dispatch failed", "email", sub.Email, "error", err)
		return
	}
	m.metrics.AlertsSent.Inc()
	m.logger.Info("alert dispatched",
		"email", sub.Email,
		"aqi", reading.Value,
		"threshold", sub.Threshold,
		"category", reading.Category,
	)
}

// cooldownRemaining computes how much of the persisted cooldown window is
// still open, so a restarted monitor resumes waiting instead of re-firing.
func (m *Monitor) cooldownRemaining(ctx context.Context) time.Duration {
	lastAlert, found, err := store.GetTime(ctx, m.store, store.KeyLastAlertSent)
	if err != nil {
		m.logger.Warn("read last alert time failed", "error", err)
		return 0
	}
	if !found {
		return 0
	}
	return lastAlert.Add(m.cooldown).Sub(m.clock.Now())
}

func (m *Monitor) setState(s State) {
	m.state.Store(int32(s))
	m.metrics.MonitorState.Set(float64(s))
}

func (m *Monitor) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := m.clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.Chan():
		return true
	}
}

// FormatWarning renders the notification body for a threshold breach.
func FormatWarning(sub domain.AlertSubscription, reading domain.AQIReading) string {
	return fmt.Sprintf(
		"Air quality alert for %s: the current AQI is %d (%s), above your alert threshold of %d. Limit outdoor activity until conditions improve.",
		reading.City, reading.Value, reading.Category, sub.Threshold,
	)
}
