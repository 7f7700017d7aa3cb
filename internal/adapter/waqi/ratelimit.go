package waqi

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/couchcryptid/air-quality-monitor/internal/domain"
)

// Limited wraps an AQIProvider with a client-side rate limit. The free
// feed API tier throttles aggressively, so both the dashboard and the
// alert monitor go through one shared limiter.
type Limited struct {
	provider domain.AQIProvider
	limiter  *rate.Limiter
}

// NewLimited wraps provider at rps requests per second with the given
// burst. Fractional rps is fine for slower-than-one-per-second limits.
func NewLimited(provider domain.AQIProvider, rps float64, burst int) *Limited {
	if burst < 1 {
		burst = 1
	}
	return &Limited{
		provider: provider,
		limiter:  rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// CurrentAQI waits for limiter permission, then forwards to the wrapped
// provider.
func (l *Limited) CurrentAQI(ctx context.Context, location string) (domain.AQIReading, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return domain.AQIReading{}, fmt.Errorf("rate limit wait: %w", err)
	}
	return l.provider.CurrentAQI(ctx, location)
}
