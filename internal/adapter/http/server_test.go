package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/couchcryptid/air-quality-monitor/internal/adapter/http"
	"github.com/couchcryptid/air-quality-monitor/internal/dashboard"
	"github.com/couchcryptid/air-quality-monitor/internal/domain"
	"github.com/couchcryptid/air-quality-monitor/internal/monitor"
	"github.com/couchcryptid/air-quality-monitor/internal/observability"
	"github.com/couchcryptid/air-quality-monitor/internal/session"
	"github.com/couchcryptid/air-quality-monitor/internal/store"
)

// --- mocks ---

type stubAQI struct{}

func (stubAQI) CurrentAQI(_ context.Context, _ string) (domain.AQIReading, error) {
	return domain.NewReading(42, "Krakow")
}

type stubForecast struct{}

func (stubForecast) Forecast(context.Context, string, int) ([]domain.ForecastPoint, error) {
	return nil, domain.ErrNoData
}

type stubPollutants struct{}

func (stubPollutants) Pollutants(context.Context, string) ([]domain.Pollutant, error) {
	return nil, domain.ErrNoData
}

type stubHealth struct{}

func (stubHealth) HealthAdvice(context.Context, string) (domain.HealthAdvice, error) {
	return domain.HealthAdvice{}, domain.ErrNoData
}

type stubNotifier struct{}

func (stubNotifier) SendAlert(context.Context, domain.Alert) error { return nil }

type stubGeocoder struct {
	places []domain.Place
	err    error
}

func (g *stubGeocoder) Search(context.Context, string) ([]domain.Place, error) {
	return g.places, g.err
}

type fixture struct {
	srv   *httpadapter.Server
	sess  *session.Session
	dash  *dashboard.Refresher
	store *store.Memory
}

func newTestServer(t *testing.T, geocoder domain.Geocoder) fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := observability.NewMetricsForTesting()
	sess := session.New("Krakow")
	mem := store.NewMemory()

	dash := dashboard.New(dashboard.Options{
		AQI:        stubAQI{},
		Forecast:   stubForecast{},
		Pollutants: stubPollutants{},
		Health:     stubHealth{},
		Session:    sess,
		Logger:     logger,
		Metrics:    metrics,
	})
	mon := monitor.New(monitor.Options{
		Provider: stubAQI{},
		Notifier: stubNotifier{},
		Store:    mem,
		Session:  sess,
		Logger:   logger,
		Metrics:  metrics,
	})
	t.Cleanup(mon.Stop)

	srv := httpadapter.NewServer(":0", httpadapter.Deps{
		Session:   sess,
		Dashboard: dash,
		Monitor:   mon,
		Geocoder:  geocoder,
		Ready:     dash,
		Logger:    logger,
	})
	return fixture{srv: srv, sess: sess, dash: dash, store: mem}
}

func do(t *testing.T, srv *httpadapter.Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(method, target, reader))
	return rec
}

// --- tests ---

func TestHealthzReturns200(t *testing.T) {
	f := newTestServer(t, nil)
	rec := do(t, f.srv, http.MethodGet, "/healthz", "")

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyzFollowsDashboardReadiness(t *testing.T) {
	f := newTestServer(t, nil)

	rec := do(t, f.srv, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	f.dash.Refresh(context.Background())
	rec = do(t, f.srv, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	f := newTestServer(t, nil)
	rec := do(t, f.srv, http.MethodGet, "/metrics", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestLocationRoundTrip(t *testing.T) {
	f := newTestServer(t, nil)

	rec := do(t, f.srv, http.MethodGet, "/api/v1/location", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Krakow")

	rec = do(t, f.srv, http.MethodPut, "/api/v1/location", `{"location": "Warsaw"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Warsaw", f.sess.Current())
}

func TestPutLocationAcceptsCoordinates(t *testing.T) {
	f := newTestServer(t, nil)

	rec := do(t, f.srv, http.MethodPut, "/api/v1/location", `{"lat": 50.0614, "lon": 19.9366}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "geo:50.0614;19.9366", f.sess.Current())
}

func TestPutLocationRejectsEmptyBody(t *testing.T) {
	f := newTestServer(t, nil)

	rec := do(t, f.srv, http.MethodPut, "/api/v1/location", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Krakow", f.sess.Current())

	rec = do(t, f.srv, http.MethodPut, "/api/v1/location", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDashboardSnapshot(t *testing.T) {
	f := newTestServer(t, nil)
	f.dash.Refresh(context.Background())

	rec := do(t, f.srv, http.MethodGet, "/api/v1/dashboard", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	var snap dashboard.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, "Krakow", snap.Location)
	require.NotNil(t, snap.Reading)
	assert.Equal(t, 42, snap.Reading.Value)
	assert.Equal(t, dashboard.SourceSample, snap.ForecastSource)
}

func TestSearch(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		geocoder := &stubGeocoder{places: []domain.Place{
			{Name: "Kraków, Poland", Lat: 50.0614, Lon: 19.9366},
		}}
		f := newTestServer(t, geocoder)

		rec := do(t, f.srv, http.MethodGet, "/api/v1/search?q=Krakow", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Kraków, Poland")
	})

	t.Run("missing query", func(t *testing.T) {
		f := newTestServer(t, &stubGeocoder{})
		rec := do(t, f.srv, http.MethodGet, "/api/v1/search", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("upstream failure", func(t *testing.T) {
		f := newTestServer(t, &stubGeocoder{err: fmt.Errorf("quota exhausted")})
		rec := do(t, f.srv, http.MethodGet, "/api/v1/search?q=Krakow", "")
		assert.Equal(t, http.StatusBadGateway, rec.Code)
	})

	t.Run("not configured", func(t *testing.T) {
		f := newTestServer(t, nil)
		rec := do(t, f.srv, http.MethodGet, "/api/v1/search?q=Krakow", "")
		assert.Equal(t, http.StatusNotImplemented, rec.Code)
	})
}

func TestAlertLifecycle(t *testing.T) {
	f := newTestServer(t, nil)

	body := `{
		"name": "Alice Nowak",
		"email": "alice@example.com",
		"phone": "123 456 789",
		"country_prefix": "+48",
		"threshold": 100
	}`
	rec := do(t, f.srv, http.MethodPost, "/api/v1/alerts", body)
	require.Equal(t, http.StatusCreated, rec.Code)

	var status monitor.Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	require.NotNil(t, status.Subscription)
	assert.Equal(t, "alice@example.com", status.Subscription.Email)

	require.Eventually(t, func() bool {
		rec := do(t, f.srv, http.MethodGet, "/api/v1/alerts", "")
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
		return status.State == "polling"
	}, 2*time.Second, 10*time.Millisecond)

	rec = do(t, f.srv, http.MethodDelete, "/api/v1/alerts", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	_, found, err := store.GetSubscription(context.Background(), f.store)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCreateAlertRejectsInvalidForm(t *testing.T) {
	f := newTestServer(t, nil)

	rec := do(t, f.srv, http.MethodPost, "/api/v1/alerts", `{"name": "x", "email": "nope"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "email")

	rec = do(t, f.srv, http.MethodPost, "/api/v1/alerts", `never json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
