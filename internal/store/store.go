// Package store persists the alert monitor's durable state behind a small
// key-value interface: the active subscription and its timing fields. Values
// are plain JSON, last-write-wins, no schema versioning. The monitor is the
// only writer; the settings endpoint reads for display.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/couchcryptid/air-quality-monitor/internal/domain"
)

// Persisted key names.
const (
	KeyActiveUser    = "activeUser"
	KeyLastCheckTime = "lastCheckTime"
	KeyNextCheckTime = "nextCheckTime"
	KeyLastAlertSent = "lastAlertSent"
)

// Store is a string key-value store. Get reports found=false for a missing
// key rather than an error.
type Store interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}

// SetTime stores a timestamp under key in RFC 3339 form.
func SetTime(ctx context.Context, s Store, key string, t time.Time) error {
	return s.Set(ctx, key, t.UTC().Format(time.RFC3339Nano))
}

// GetTime loads a timestamp stored by SetTime. A missing key returns the
// zero time with found=false.
func GetTime(ctx context.Context, s Store, key string) (time.Time, bool, error) {
	raw, found, err := s.Get(ctx, key)
	if err != nil || !found {
		return time.Time{}, false, err
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parse %s: %w", key, err)
	}
	return t, true, nil
}

// SetSubscription stores the active subscription as JSON under
// KeyActiveUser, replacing any previous one.
func SetSubscription(ctx context.Context, s Store, sub domain.AlertSubscription) error {
	data, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("marshal subscription: %w", err)
	}
	return s.Set(ctx, KeyActiveUser, string(data))
}

// GetSubscription loads the active subscription, if any.
func GetSubscription(ctx context.Context, s Store) (domain.AlertSubscription, bool, error) {
	raw, found, err := s.Get(ctx, KeyActiveUser)
	if err != nil || !found {
		return domain.AlertSubscription{}, false, err
	}
	var sub domain.AlertSubscription
	if err := json.Unmarshal([]byte(raw), &sub); err != nil {
		return domain.AlertSubscription{}, false, fmt.Errorf("unmarshal subscription: %w", err)
	}
	return sub, true, nil
}

// ClearAlertState removes every persisted alert key. Used by the
// "add another account" teardown.
func ClearAlertState(ctx context.Context, s Store) error {
	return s.Delete(ctx, KeyActiveUser, KeyLastCheckTime, KeyNextCheckTime, KeyLastAlertSent)
}
