// Package ledger provides the append-mostly record store mapping
// template materialization runs and task nodes to external task ids and
// completion state. It is the single source of truth for idempotency:
// the completion router consults it before issuing moves, and every
// created external task is recorded here for audit.
//
// The concrete backends are SQLite (production) and an in-memory store
// (tests). Consumers depend on the Store interface so the two can be
// substituted.
package ledger

import (
	"context"
	"errors"

	"github.com/fernhill/todosync/internal/types"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// ErrExternalIDSet is returned when attempting to overwrite a run's
// external id. External ids are append-only: once set, never changed.
var ErrExternalIDSet = errors.New("external id already set")

// Store is the ledger interface satisfied by *SQLiteStore and *MemoryStore.
type Store interface {
	// CreateRun inserts a new materialization run record and assigns its ID.
	CreateRun(ctx context.Context, rec *types.ParentTaskRecord) error

	// SetRunExternalID records the external id of the run's root task.
	// Returns ErrExternalIDSet if the run already has one.
	SetRunExternalID(ctx context.Context, runID int64, externalID string) error

	// GetRun fetches a run by local id.
	GetRun(ctx context.Context, runID int64) (*types.ParentTaskRecord, error)

	// RecordTask inserts a record for one created external task and
	// assigns its ID.
	RecordTask(ctx context.Context, rec *types.ChildTaskRecord) error

	// GetTaskByExternalID fetches a task record by its external id.
	GetTaskByExternalID(ctx context.Context, externalID string) (*types.ChildTaskRecord, error)

	// ListTasksForRun returns the task records of one run in creation order.
	ListTasksForRun(ctx context.Context, runID int64) ([]*types.ChildTaskRecord, error)

	// MarkCompleted transitions a task to completed and records its last
	// known section. The transition is monotonic; marking an already
	// completed task is a no-op.
	MarkCompleted(ctx context.Context, externalID, sectionID string) error

	// Lifecycle
	Close() error
}
