package materialize

import (
	"errors"
	"reflect"
	"testing"

	"github.com/fernhill/todosync/internal/tokens"
	"github.com/fernhill/todosync/internal/types"
)

// chilliTemplate mirrors the canonical crop template: two root tasks,
// one with a nested subtask.
func chilliTemplate() *types.Template {
	return &types.Template{
		ID:    "chilli",
		Title: "Test Chilli Template",
		Kind:  "crop",
		Tasks: []types.TaskNode{
			{Title: "Sow {sku}", Labels: "sow, planting"},
			{
				Title:  "Harvest {variety_name}",
				Labels: "harvest",
				Subtasks: []types.TaskNode{
					{Title: "{sku} checked in", Labels: "processing"},
				},
			},
		},
	}
}

func chilliValues() map[string]string {
	return map[string]string{
		"crop":         "Chilli",
		"sku":          "CH001",
		"variety_name": "Habanero",
		"bed":          "A1",
	}
}

func TestParseLabels(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"sow, planting", []string{"sow", "planting"}},
		{"", nil},
		{"harvest", []string{"harvest"}},
		{" a ,, b , ", []string{"a", "b"}},
		{"dup, dup", []string{"dup", "dup"}}, // duplicates pass through as declared
	}
	for _, tt := range tests {
		if got := ParseLabels(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("ParseLabels(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestBuildSubstitutesTitles(t *testing.T) {
	plan, err := Build(chilliTemplate(), chilliValues(), types.SyncSettings{})
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	if plan.RootTitle != "Plant Habanero" {
		t.Errorf("RootTitle = %q, want %q", plan.RootTitle, "Plant Habanero")
	}
	wantDesc := "Crop: Chilli\nVariety: Habanero\nSKU: CH001\nBed: A1"
	if plan.Description != wantDesc {
		t.Errorf("Description = %q, want %q", plan.Description, wantDesc)
	}

	if len(plan.Nodes) != 2 {
		t.Fatalf("got %d root nodes, want 2", len(plan.Nodes))
	}
	if plan.Nodes[0].Title != "Sow CH001" {
		t.Errorf("node 1 title = %q, want %q", plan.Nodes[0].Title, "Sow CH001")
	}
	if !reflect.DeepEqual(plan.Nodes[0].Labels, []string{"sow", "planting"}) {
		t.Errorf("node 1 labels = %v", plan.Nodes[0].Labels)
	}
	if plan.Nodes[1].Title != "Harvest Habanero" {
		t.Errorf("node 2 title = %q, want %q", plan.Nodes[1].Title, "Harvest Habanero")
	}
	if len(plan.Nodes[1].Children) != 1 || plan.Nodes[1].Children[0].Title != "CH001 checked in" {
		t.Errorf("node 2 children = %+v", plan.Nodes[1].Children)
	}
}

func TestBuildCorrelationKeys(t *testing.T) {
	plan, err := Build(chilliTemplate(), chilliValues(), types.SyncSettings{})
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if plan.Nodes[0].Key != "1" {
		t.Errorf("key = %q, want 1", plan.Nodes[0].Key)
	}
	if plan.Nodes[1].Key != "2" {
		t.Errorf("key = %q, want 2", plan.Nodes[1].Key)
	}
	if plan.Nodes[1].Children[0].Key != "2.1" {
		t.Errorf("child key = %q, want 2.1", plan.Nodes[1].Children[0].Key)
	}
}

func TestBuildValidationFailureBeforeAnyPlan(t *testing.T) {
	_, err := Build(chilliTemplate(), map[string]string{"sku": "CH001"}, types.SyncSettings{})
	if err == nil {
		t.Fatal("Build() should fail with missing required token")
	}
	var verr *tokens.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error type = %T, want *tokens.ValidationError", err)
	}
	if !reflect.DeepEqual(verr.Missing, []string{"variety_name"}) {
		t.Errorf("Missing = %v, want [variety_name]", verr.Missing)
	}
}

func TestBuildRejectsUnknownTokenInTitle(t *testing.T) {
	tmpl := chilliTemplate()
	tmpl.Tasks = append(tmpl.Tasks, types.TaskNode{Title: "Water {no_such_token}"})
	_, err := Build(tmpl, chilliValues(), types.SyncSettings{})
	if err == nil {
		t.Fatal("Build() should reject a title referencing an unknown token")
	}
}

func TestBuildEffectiveProjectPrecedence(t *testing.T) {
	st := types.SyncSettings{DefaultProjectID: "99999"}

	tmpl := chilliTemplate()
	plan, err := Build(tmpl, chilliValues(), st)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if plan.ProjectID != "99999" {
		t.Errorf("ProjectID = %q, want fallback 99999", plan.ProjectID)
	}

	tmpl.ProjectID = "12345"
	plan, err = Build(tmpl, chilliValues(), st)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if plan.ProjectID != "12345" {
		t.Errorf("ProjectID = %q, want template override 12345", plan.ProjectID)
	}
}

func TestBuildTemplateWithoutKind(t *testing.T) {
	tmpl := &types.Template{
		ID:    "plain",
		Title: "Plain Template",
		Tasks: []types.TaskNode{{Title: "Just a task"}},
	}
	plan, err := Build(tmpl, nil, types.SyncSettings{})
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if plan.RootTitle != "Plain Template" {
		t.Errorf("RootTitle = %q, want template title", plan.RootTitle)
	}
}

func TestPlanCount(t *testing.T) {
	plan, err := Build(chilliTemplate(), chilliValues(), types.SyncSettings{})
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	// root + Sow + Harvest + checked in
	if got := plan.Count(); got != 4 {
		t.Errorf("Count() = %d, want 4", got)
	}
}
