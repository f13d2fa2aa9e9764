// Package repository defines the feedback results store interface and errors.
package repository

import (
	"context"

	"github.com/okian/rehearse/internal/domain/types"
)

// Store provides read/write access to derived feedback results.
type Store interface {
	// Put stores the result for a session, replacing any previous one.
	Put(ctx context.Context, result types.FeedbackResult) error

	// Get returns the stored result for a session.
	// Returns ErrNotFound if no result exists yet.
	Get(ctx context.Context, sessionID string) (types.FeedbackResult, error)

	// Count returns the number of sessions with a stored result.
	Count(ctx context.Context) int
}
