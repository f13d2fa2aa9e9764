// Package clock abstracts wall-clock time and repeating tickers so that
// time-driven components can be exercised with injected ticks in tests.
package clock

import "time"

// Clock provides the current time and ticker construction.
type Clock interface {
	Now() time.Time

	// NewTicker returns a ticker firing roughly every interval until stopped.
	NewTicker(interval time.Duration) Ticker
}

// Ticker delivers periodic ticks on C until Stop is called.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// Real returns a Clock backed by the time package.
func Real() Clock {
	return realClock{}
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) NewTicker(interval time.Duration) Ticker {
	return &realTicker{t: time.NewTicker(interval)}
}

type realTicker struct {
	t *time.Ticker
}

func (r *realTicker) C() <-chan time.Time { return r.t.C }

func (r *realTicker) Stop() { r.t.Stop() }
