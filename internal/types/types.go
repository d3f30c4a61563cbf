// Package types defines core data structures for the todosync engine.
package types

import "time"

// TaskNode is one node in a template's task tree. Titles may contain
// {token} placeholders; Labels is the comma-separated list as authored.
type TaskNode struct {
	Title    string     `yaml:"title" json:"title"`
	Labels   string     `yaml:"labels,omitempty" json:"labels,omitempty"`
	Subtasks []TaskNode `yaml:"subtasks,omitempty" json:"subtasks,omitempty"`
}

// Template is an authored task group template. Kind names the task kind
// whose token fields parameterize the tree (see internal/taskkind).
type Template struct {
	ID          string     `yaml:"id" json:"id"`
	Title       string     `yaml:"title" json:"title"`
	Description string     `yaml:"description,omitempty" json:"description,omitempty"`
	Kind        string     `yaml:"kind,omitempty" json:"kind,omitempty"`
	ProjectID   string     `yaml:"project_id,omitempty" json:"project_id,omitempty"`
	SectionID   string     `yaml:"section_id,omitempty" json:"section_id,omitempty"`
	Tasks       []TaskNode `yaml:"tasks" json:"tasks"`
}

// TokenSpec describes one substitution token derived from a task kind's
// field metadata. Required mirrors the field's disallow-blank setting.
type TokenSpec struct {
	Name     string `json:"name"`
	Label    string `json:"label"`
	Required bool   `json:"required"`
}

// ParentTaskRecord is the ledger record for one materialization run of a
// template. ExternalID is empty until the parent task is created, then
// immutable; re-running the same template produces a new record.
type ParentTaskRecord struct {
	ID          int64             `json:"id"`
	TemplateID  string            `json:"template_id"`
	TokenValues map[string]string `json:"token_values"`
	ExternalID  string            `json:"external_id,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

// ChildTaskRecord is the ledger record for one task created under a parent.
type ChildTaskRecord struct {
	ID         int64     `json:"id"`
	ParentID   int64     `json:"parent_id"`
	ExternalID string    `json:"external_id"`
	Title      string    `json:"title"`
	Labels     []string  `json:"labels,omitempty"`
	SectionID  string    `json:"section_id,omitempty"`
	Completed  bool      `json:"completed"`
	CreatedAt  time.Time `json:"created_at"`
}

// SectionRule routes a completed task from a source section to a
// destination section when one of its labels matches. SourceSectionID may
// be SectionAny to match any section. Rules are evaluated in declaration
// order; the first match wins.
type SectionRule struct {
	SourceSectionID string `yaml:"source_section_id" json:"source_section_id" mapstructure:"source_section_id"`
	Label           string `yaml:"label" json:"label" mapstructure:"label"`
	DestSectionID   string `yaml:"dest_section_id" json:"dest_section_id" mapstructure:"dest_section_id"`
}

// SectionAny is the wildcard source section matching any section.
const SectionAny = "*"

// Matches reports whether the rule applies to a task currently in
// sectionID carrying the given labels.
func (r SectionRule) Matches(sectionID string, labels []string) bool {
	if r.SourceSectionID != SectionAny && r.SourceSectionID != sectionID {
		return false
	}
	for _, l := range labels {
		if l == r.Label {
			return true
		}
	}
	return false
}

// SyncSettings is an immutable snapshot of site-wide sync configuration.
// It is loaded once and passed explicitly; never consulted as global state.
type SyncSettings struct {
	DefaultProjectID   string        `json:"default_project_id"`
	DefaultDescription string        `json:"default_description,omitempty"`
	DryRun             bool          `json:"dry_run"`
	Rules              []SectionRule `json:"rules,omitempty"`
}

// CompletionEvent is the inbound webhook payload consumed by the router.
type CompletionEvent struct {
	Event     string   `json:"event"`
	TaskID    string   `json:"task_id"`
	SectionID string   `json:"section_id"`
	Labels    []string `json:"labels"`
}

// EventItemCompleted is the only event type the router acts on.
const EventItemCompleted = "item:completed"
