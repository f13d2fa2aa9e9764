package repository

import (
	"context"
	"sync"

	"github.com/okian/rehearse/internal/domain/types"
	"github.com/okian/rehearse/pkg/logger"
)

// MemStore is an in-memory Store keyed by session id. Results are small and
// session-scoped; nothing here survives a restart.
type MemStore struct {
	mu      sync.RWMutex
	results map[string]types.FeedbackResult
	logger  logger.Logger
}

// NewMemStore creates an empty in-memory results store.
func NewMemStore(opts ...Option) *MemStore {
	s := &MemStore{
		results: make(map[string]types.FeedbackResult),
		logger:  logger.Get().Named("repository"),
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Put stores the result for a session, replacing any previous one.
func (s *MemStore) Put(ctx context.Context, result types.FeedbackResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[result.SessionID] = result

	s.logger.Debug(ctx, "feedback result stored",
		logger.String("sessionID", result.SessionID),
		logger.String("status", result.Status),
	)
	return nil
}

// Get returns the stored result for a session.
func (s *MemStore) Get(_ context.Context, sessionID string) (types.FeedbackResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result, ok := s.results[sessionID]
	if !ok {
		return types.FeedbackResult{}, ErrNotFound
	}
	return result, nil
}

// Count returns the number of sessions with a stored result.
func (s *MemStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.results)
}
