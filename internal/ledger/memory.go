package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fernhill/todosync/internal/types"
)

// MemoryStore is an in-memory Store used by tests and quick dry runs.
type MemoryStore struct {
	mu         sync.RWMutex
	nextRunID  int64
	nextTaskID int64
	runs       map[int64]*types.ParentTaskRecord
	tasks      map[int64]*types.ChildTaskRecord
	byExternal map[string]int64
}

// NewMemory returns an empty in-memory ledger.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		runs:       make(map[int64]*types.ParentTaskRecord),
		tasks:      make(map[int64]*types.ChildTaskRecord),
		byExternal: make(map[string]int64),
	}
}

// CreateRun inserts a new materialization run record.
func (s *MemoryStore) CreateRun(_ context.Context, rec *types.ParentTaskRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextRunID++
	rec.ID = s.nextRunID
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	cp := *rec
	s.runs[rec.ID] = &cp
	return nil
}

// SetRunExternalID records the external id of the run's root task.
func (s *MemoryStore) SetRunExternalID(_ context.Context, runID int64, externalID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.runs[runID]
	if !ok {
		return fmt.Errorf("run %d: %w", runID, ErrNotFound)
	}
	if rec.ExternalID != "" {
		return fmt.Errorf("run %d: %w", runID, ErrExternalIDSet)
	}
	rec.ExternalID = externalID
	return nil
}

// GetRun fetches a run by local id.
func (s *MemoryStore) GetRun(_ context.Context, runID int64) (*types.ParentTaskRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.runs[runID]
	if !ok {
		return nil, fmt.Errorf("run %d: %w", runID, ErrNotFound)
	}
	cp := *rec
	return &cp, nil
}

// RecordTask inserts a record for one created external task.
func (s *MemoryStore) RecordTask(_ context.Context, rec *types.ChildTaskRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.byExternal[rec.ExternalID]; dup {
		return fmt.Errorf("task %s already recorded", rec.ExternalID)
	}
	s.nextTaskID++
	rec.ID = s.nextTaskID
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	cp := *rec
	s.tasks[rec.ID] = &cp
	s.byExternal[rec.ExternalID] = rec.ID
	return nil
}

// GetTaskByExternalID fetches a task record by external id.
func (s *MemoryStore) GetTaskByExternalID(_ context.Context, externalID string) (*types.ChildTaskRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byExternal[externalID]
	if !ok {
		return nil, fmt.Errorf("task %s: %w", externalID, ErrNotFound)
	}
	cp := *s.tasks[id]
	return &cp, nil
}

// ListTasksForRun returns the task records of one run in creation order.
func (s *MemoryStore) ListTasksForRun(_ context.Context, runID int64) ([]*types.ChildTaskRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*types.ChildTaskRecord
	for id := int64(1); id <= s.nextTaskID; id++ {
		rec, ok := s.tasks[id]
		if !ok || rec.ParentID != runID {
			continue
		}
		cp := *rec
		out = append(out, &cp)
	}
	return out, nil
}

// MarkCompleted transitions a task to completed. Monotonic.
func (s *MemoryStore) MarkCompleted(_ context.Context, externalID, sectionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byExternal[externalID]
	if !ok {
		return nil
	}
	rec := s.tasks[id]
	if rec.Completed {
		return nil
	}
	rec.Completed = true
	rec.SectionID = sectionID
	return nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error { return nil }
