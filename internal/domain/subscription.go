package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Validation patterns for the alert subscription form. Rejected locally,
// before any network call or persistence; no partial subscription is ever
// stored.
var (
	nameRe   = regexp.MustCompile(`^[A-Za-z][A-Za-z .'-]{1,49}$`)
	emailRe  = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	prefixRe = regexp.MustCompile(`^\+[0-9]{1,3}$`)
)

// MaxThreshold caps the alert threshold at the top of the displayed AQI
// scale.
const MaxThreshold = 500

// ErrInvalidSubscription wraps every Validate failure so transport layers
// can distinguish form errors from infrastructure errors.
var ErrInvalidSubscription = errors.New("invalid subscription")

// AlertSubscription is the single active alert account. Saving a new one
// replaces the old; it never appends.
type AlertSubscription struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	CountryPrefix string `json:"country_prefix"`
	Threshold     int    `json:"threshold"`
}

// Validate checks the subscription form fields. All failures are user-facing
// messages, joined so the form can show every problem at once.
func (s AlertSubscription) Validate() error {
	var errs []error
	if !nameRe.MatchString(strings.TrimSpace(s.Name)) {
		errs = append(errs, errors.New("name must be 2-50 letters"))
	}
	if !emailRe.MatchString(s.Email) {
		errs = append(errs, errors.New("email address is not valid"))
	}
	if !prefixRe.MatchString(s.CountryPrefix) {
		errs = append(errs, errors.New("country prefix must look like +1 or +44"))
	}
	if digits := countDigits(s.Phone); digits < 7 || digits > 12 {
		errs = append(errs, errors.New("phone number must contain 7-12 digits"))
	}
	if s.Threshold < 0 || s.Threshold > MaxThreshold {
		errs = append(errs, fmt.Errorf("threshold must be between 0 and %d", MaxThreshold))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidSubscription, errors.Join(errs...))
	}
	return nil
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			n++
		case r == ' ' || r == '-' || r == '(' || r == ')':
			// separators are fine
		default:
			return 0
		}
	}
	return n
}
