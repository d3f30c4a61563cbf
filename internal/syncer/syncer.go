// Package syncer defines the boundary interface to the external task
// API. Two implementations are interchangeable behind it: the live
// Todoist client (internal/todoist) and the dry-run client in this
// package. Materializer and router code never know which is bound.
package syncer

import (
	"context"
	"errors"
)

// ErrNotConfigured is returned when a client is used before the
// credentials/endpoint it needs have been supplied.
var ErrNotConfigured = errors.New("sync client not configured")

// CreateRequest describes one task-creation call.
type CreateRequest struct {
	Content     string
	Description string
	Labels      []string
	ParentID    string // external id of the parent task, if any
	ProjectID   string // "" means inbox/unassigned
	SectionID   string // overrides ProjectID placement when set
}

// Client is the sync adapter. CreateTask returns the external id of the
// created task. MoveTask relocates a task to a destination section.
type Client interface {
	CreateTask(ctx context.Context, req CreateRequest) (string, error)
	MoveTask(ctx context.Context, taskID, destSectionID string) error
}

// TransientError wraps a failure that may succeed on retry (timeouts,
// 5xx, connection resets). The live client retries these with backoff
// before surfacing them; everything else propagates immediately, since
// the external API has no create-idempotency key and a blind retry on an
// ambiguous failure risks duplicate tasks.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return e.Err.Error() }
func (e *TransientError) Unwrap() error { return e.Err }

// IsTransient reports whether err is (or wraps) a TransientError.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
