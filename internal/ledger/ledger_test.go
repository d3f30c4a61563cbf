package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/fernhill/todosync/internal/types"
)

// stores returns each backend under test by name.
func stores(t *testing.T) map[string]Store {
	t.Helper()
	sq, err := NewSQLite(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = sq.Close() })
	return map[string]Store{
		"memory": NewMemory(),
		"sqlite": sq,
	}
}

func TestRunLifecycle(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			rec := &types.ParentTaskRecord{
				TemplateID:  "chilli",
				TokenValues: map[string]string{"sku": "CH001", "variety_name": "Habanero"},
			}
			if err := store.CreateRun(ctx, rec); err != nil {
				t.Fatalf("CreateRun() error: %v", err)
			}
			if rec.ID == 0 {
				t.Fatal("CreateRun() did not assign an id")
			}

			if err := store.SetRunExternalID(ctx, rec.ID, "ext-1"); err != nil {
				t.Fatalf("SetRunExternalID() error: %v", err)
			}

			got, err := store.GetRun(ctx, rec.ID)
			if err != nil {
				t.Fatalf("GetRun() error: %v", err)
			}
			if got.ExternalID != "ext-1" {
				t.Errorf("ExternalID = %q, want ext-1", got.ExternalID)
			}
			if got.TokenValues["sku"] != "CH001" {
				t.Errorf("TokenValues = %v", got.TokenValues)
			}
			if got.CreatedAt.IsZero() {
				t.Error("CreatedAt not set")
			}
		})
	}
}

func TestRunExternalIDIsAppendOnly(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			rec := &types.ParentTaskRecord{TemplateID: "chilli"}
			if err := store.CreateRun(ctx, rec); err != nil {
				t.Fatalf("CreateRun() error: %v", err)
			}
			if err := store.SetRunExternalID(ctx, rec.ID, "ext-1"); err != nil {
				t.Fatalf("SetRunExternalID() error: %v", err)
			}

			err := store.SetRunExternalID(ctx, rec.ID, "ext-2")
			if !errors.Is(err, ErrExternalIDSet) {
				t.Errorf("overwrite error = %v, want ErrExternalIDSet", err)
			}

			got, _ := store.GetRun(ctx, rec.ID)
			if got.ExternalID != "ext-1" {
				t.Errorf("ExternalID = %q, original value must survive", got.ExternalID)
			}
		})
	}
}

func TestGetRunNotFound(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.GetRun(context.Background(), 4711)
			if !errors.Is(err, ErrNotFound) {
				t.Errorf("error = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestTaskRecords(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			run := &types.ParentTaskRecord{TemplateID: "chilli"}
			if err := store.CreateRun(ctx, run); err != nil {
				t.Fatalf("CreateRun() error: %v", err)
			}

			tasks := []*types.ChildTaskRecord{
				{ParentID: run.ID, ExternalID: "ext-1", Title: "Plant Habanero", SectionID: "S1"},
				{ParentID: run.ID, ExternalID: "ext-2", Title: "Sow CH001", Labels: []string{"sow", "planting"}},
			}
			for _, rec := range tasks {
				if err := store.RecordTask(ctx, rec); err != nil {
					t.Fatalf("RecordTask() error: %v", err)
				}
			}

			got, err := store.GetTaskByExternalID(ctx, "ext-2")
			if err != nil {
				t.Fatalf("GetTaskByExternalID() error: %v", err)
			}
			if got.Title != "Sow CH001" || len(got.Labels) != 2 {
				t.Errorf("record = %+v", got)
			}

			list, err := store.ListTasksForRun(ctx, run.ID)
			if err != nil {
				t.Fatalf("ListTasksForRun() error: %v", err)
			}
			if len(list) != 2 || list[0].ExternalID != "ext-1" || list[1].ExternalID != "ext-2" {
				t.Errorf("list = %+v, want creation order", list)
			}

			_, err = store.GetTaskByExternalID(ctx, "ext-404")
			if !errors.Is(err, ErrNotFound) {
				t.Errorf("error = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestMarkCompletedIsMonotonic(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			run := &types.ParentTaskRecord{TemplateID: "chilli"}
			if err := store.CreateRun(ctx, run); err != nil {
				t.Fatalf("CreateRun() error: %v", err)
			}
			rec := &types.ChildTaskRecord{ParentID: run.ID, ExternalID: "ext-9", Title: "T", SectionID: "S1"}
			if err := store.RecordTask(ctx, rec); err != nil {
				t.Fatalf("RecordTask() error: %v", err)
			}

			if err := store.MarkCompleted(ctx, "ext-9", "S2"); err != nil {
				t.Fatalf("MarkCompleted() error: %v", err)
			}
			got, _ := store.GetTaskByExternalID(ctx, "ext-9")
			if !got.Completed || got.SectionID != "S2" {
				t.Fatalf("record = %+v, want completed in S2", got)
			}

			// Second completion must not regress the section.
			if err := store.MarkCompleted(ctx, "ext-9", "S3"); err != nil {
				t.Fatalf("MarkCompleted() error: %v", err)
			}
			got, _ = store.GetTaskByExternalID(ctx, "ext-9")
			if got.SectionID != "S2" {
				t.Errorf("section = %q, duplicate completion must be a no-op", got.SectionID)
			}
		})
	}
}
