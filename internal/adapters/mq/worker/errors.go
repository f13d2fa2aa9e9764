package worker

import "errors"

// ErrStopped indicates the worker was shut down mid-poll.
var ErrStopped = errors.New("worker stopped")
