// Package notify delivers user-facing session notifications. Notifications
// are logged and retained in a bounded in-memory ring so the control surface
// can expose the recent ones.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/okian/rehearse/internal/domain/model"
	"github.com/okian/rehearse/pkg/clock"
	"github.com/okian/rehearse/pkg/logger"
)

// Entry is one delivered notification with its delivery time.
type Entry struct {
	SessionID    string             `json:"session_id"`
	Notification model.Notification `json:"notification"`
	At           time.Time          `json:"at"`
}

// Center receives notifications and keeps the most recent ones.
type Center struct {
	mu       sync.Mutex
	entries  []Entry
	capacity int
	clk      clock.Clock
	logger   logger.Logger
}

// NewCenter creates a notification center with default configuration.
func NewCenter(opts ...Option) *Center {
	c := &Center{
		capacity: defaultCapacity,
		clk:      clock.Real(),
		logger:   logger.Get().Named("notify"),
	}

	// Apply all options
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// For returns a Notifier bound to one session.
func (c *Center) For(sessionID string) *SessionNotifier {
	return &SessionNotifier{center: c, sessionID: sessionID}
}

// Notify records a notification without session attribution.
func (c *Center) Notify(ctx context.Context, n model.Notification) {
	c.record(ctx, "", n)
}

func (c *Center) record(ctx context.Context, sessionID string, n model.Notification) {
	if n.Variant == model.VariantDestructive {
		c.logger.Warn(ctx, "notification",
			logger.String("sessionID", sessionID),
			logger.String("title", n.Title),
			logger.String("description", n.Description),
		)
	} else {
		c.logger.Info(ctx, "notification",
			logger.String("sessionID", sessionID),
			logger.String("title", n.Title),
			logger.String("description", n.Description),
		)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, Entry{SessionID: sessionID, Notification: n, At: c.clk.Now()})
	if len(c.entries) > c.capacity {
		c.entries = c.entries[len(c.entries)-c.capacity:]
	}
}

// Recent returns up to limit notifications, newest last. A non-positive
// limit returns everything retained.
func (c *Center) Recent(limit int) []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.entries)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]Entry, n)
	copy(out, c.entries[len(c.entries)-n:])
	return out
}

// SessionNotifier tags notifications with a session id before recording
// them.
type SessionNotifier struct {
	center    *Center
	sessionID string
}

// Notify implements the session notifier capability.
func (s *SessionNotifier) Notify(ctx context.Context, n model.Notification) {
	s.center.record(ctx, s.sessionID, n)
}
