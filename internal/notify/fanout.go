package notify

import (
	"context"
	"errors"
	"log/slog"

	"github.com/couchcryptid/air-quality-monitor/internal/domain"
)

// Multi fans one alert out to every sink. Every sink is attempted even
// when an earlier one fails; the joined failures are returned for the
// caller to log, never retried.
type Multi struct {
	sinks  []domain.Notifier
	logger *slog.Logger
}

// NewMulti builds a fan-out over the given sinks.
func NewMulti(logger *slog.Logger, sinks ...domain.Notifier) *Multi {
	return &Multi{sinks: sinks, logger: logger}
}

// SendAlert dispatches the alert to all sinks.
func (m *Multi) SendAlert(ctx context.Context, alert domain.Alert) error {
	var errs []error
	for _, sink := range m.sinks {
		if err := sink.SendAlert(ctx, alert); err != nil {
			m.logger.Error("notification sink failed", "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
