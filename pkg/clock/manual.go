package clock

import (
	"sync"
	"time"
)

// Manual is a Clock whose time only moves when Advance is called. Tickers
// created from it fire once per elapsed interval, which makes countdown and
// elapsed-time logic deterministic in tests.
type Manual struct {
	mu      sync.Mutex
	now     time.Time
	tickers []*manualTicker
}

// NewManual creates a Manual clock starting at the given time.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

// Now returns the current manual time.
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// NewTicker returns a ticker driven by Advance.
func (m *Manual) NewTicker(interval time.Duration) Ticker {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &manualTicker{
		ch:       make(chan time.Time, 64),
		interval: interval,
		next:     m.now.Add(interval),
		clock:    m,
	}
	m.tickers = append(m.tickers, t)
	return t
}

// Advance moves the clock forward and delivers every due tick before
// returning. Ticks are delivered synchronously so callers can assert on the
// resulting state immediately.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	now := m.now
	due := make([]*manualTicker, 0, len(m.tickers))
	due = append(due, m.tickers...)
	m.mu.Unlock()

	for _, t := range due {
		t.deliver(now)
	}
}

type manualTicker struct {
	mu       sync.Mutex
	ch       chan time.Time
	interval time.Duration
	next     time.Time
	stopped  bool
	clock    *Manual
}

func (t *manualTicker) C() <-chan time.Time { return t.ch }

func (t *manualTicker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
}

func (t *manualTicker) deliver(now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for !t.stopped && !t.next.After(now) {
		select {
		case t.ch <- t.next:
		default:
			// Consumer fell behind; drop the tick rather than block Advance.
		}
		t.next = t.next.Add(t.interval)
	}
}
