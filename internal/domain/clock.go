package domain

import "github.com/jonboulle/clockwork"

// clock is the package time source; readings are stamped from it so tests
// can freeze time via SetClock.
var clock = clockwork.NewRealClock()

// SetClock swaps the package time source. Pass nil to restore real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}
