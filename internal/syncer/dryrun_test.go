package syncer

import (
	"context"
	"strings"
	"testing"
)

func TestDryRunCreateAssignsSyntheticIDs(t *testing.T) {
	dry := NewDryRun(nil)
	ctx := context.Background()

	id1, err := dry.CreateTask(ctx, CreateRequest{Content: "Plant Habanero"})
	if err != nil {
		t.Fatalf("CreateTask() error: %v", err)
	}
	id2, err := dry.CreateTask(ctx, CreateRequest{Content: "Sow CH001", ParentID: id1})
	if err != nil {
		t.Fatalf("CreateTask() error: %v", err)
	}

	if !strings.HasPrefix(id1, "dry-run-") || !strings.HasPrefix(id2, "dry-run-") {
		t.Errorf("ids = %q, %q: synthetic ids must be clearly marked", id1, id2)
	}
	if id1 == id2 {
		t.Errorf("ids must be unique, both %q", id1)
	}
}

func TestDryRunRecordsOpsInOrder(t *testing.T) {
	dry := NewDryRun(nil)
	ctx := context.Background()

	id, _ := dry.CreateTask(ctx, CreateRequest{Content: "A", Labels: []string{"x"}})
	if err := dry.MoveTask(ctx, id, "S2"); err != nil {
		t.Fatalf("MoveTask() error: %v", err)
	}

	ops := dry.Ops()
	if len(ops) != 2 {
		t.Fatalf("recorded %d ops, want 2", len(ops))
	}
	if ops[0].Kind != "create" || ops[0].Create.Content != "A" {
		t.Errorf("op 0 = %+v", ops[0])
	}
	if ops[1].Kind != "move" || ops[1].TaskID != id || ops[1].Section != "S2" {
		t.Errorf("op 1 = %+v", ops[1])
	}
}

func TestIsTransient(t *testing.T) {
	err := &TransientError{Err: context.DeadlineExceeded}
	if !IsTransient(err) {
		t.Error("TransientError should classify as transient")
	}
	if IsTransient(context.Canceled) {
		t.Error("plain error should not classify as transient")
	}
}
