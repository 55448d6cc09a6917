package synop

import "github.com/jonboulle/clockwork"

// clock is a package-level time source so tests can freeze time via SetClock.
// The decoder needs it because SYNOP headers omit the year and month.
var clock = clockwork.NewRealClock()

// SetClock swaps the time source for decoding. Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}
