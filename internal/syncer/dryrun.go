package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// DryRunClient records planned operations instead of calling the
// external API. Created tasks get synthetic ids so parent/child wiring
// still resolves; the ids are clearly marked so they can never be
// mistaken for real external ids.
type DryRunClient struct {
	mu     sync.Mutex
	next   int
	ops    []Op
	logger *slog.Logger
}

// Op is one recorded dry-run operation.
type Op struct {
	Kind    string // "create" or "move"
	Create  *CreateRequest
	TaskID  string // assigned id for creates, target id for moves
	Section string // destination section for moves
}

// NewDryRun returns a dry-run client. If logger is nil, slog.Default()
// is used.
func NewDryRun(logger *slog.Logger) *DryRunClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &DryRunClient{logger: logger}
}

// CreateTask records the planned create and returns a synthetic id.
func (c *DryRunClient) CreateTask(_ context.Context, req CreateRequest) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.next++
	id := fmt.Sprintf("dry-run-%d", c.next)
	r := req
	c.ops = append(c.ops, Op{Kind: "create", Create: &r, TaskID: id})
	c.logger.Info("dry-run: would create task",
		"id", id,
		"content", req.Content,
		"labels", req.Labels,
		"parent_id", req.ParentID,
		"project_id", req.ProjectID,
		"section_id", req.SectionID)
	return id, nil
}

// MoveTask records the planned move.
func (c *DryRunClient) MoveTask(_ context.Context, taskID, destSectionID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ops = append(c.ops, Op{Kind: "move", TaskID: taskID, Section: destSectionID})
	c.logger.Info("dry-run: would move task", "task_id", taskID, "section_id", destSectionID)
	return nil
}

// Ops returns a copy of the recorded operations in order.
func (c *DryRunClient) Ops() []Op {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Op, len(c.ops))
	copy(out, c.ops)
	return out
}
