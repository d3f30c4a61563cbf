// Package materialize expands a task group template into an ordered
// sequence of task-creation operations against the external task API
// and executes them with parent-before-child causality.
package materialize

import (
	"fmt"
	"strings"

	"github.com/fernhill/todosync/internal/settings"
	"github.com/fernhill/todosync/internal/taskkind"
	"github.com/fernhill/todosync/internal/tokens"
	"github.com/fernhill/todosync/internal/types"
)

// CreateOp is one planned task-creation. Children reference their parent
// through the op tree itself; Key is a local correlation key ("2.1" is
// the first child of the second root node) used in results and errors,
// never sent to the external API.
type CreateOp struct {
	Key      string
	Title    string
	Labels   []string
	Children []*CreateOp
}

// Plan is a fully validated creation plan for one materialization run.
// Every title has been substituted and checked for unresolved
// placeholders before the plan exists, so nothing past this point can
// send a literal {token} to the external API.
type Plan struct {
	TemplateID  string
	Values      map[string]string
	RootTitle   string
	Description string
	ProjectID   string
	SectionID   string
	Nodes       []*CreateOp
}

// Build validates supplied token values against the template's kind and
// produces the creation plan. The returned error is a
// *tokens.ValidationError when required tokens are missing, or a plain
// error when a title references a token outside the kind's field set.
func Build(tmpl *types.Template, supplied map[string]string, st types.SyncSettings) (*Plan, error) {
	specs := tokens.Specs(tmpl)
	values, err := tokens.Resolve(specs, supplied)
	if err != nil {
		return nil, err
	}

	rootTitle := tmpl.Title
	description := tmpl.Description
	if kind := taskkind.Get(tmpl.Kind); kind != nil {
		if kind.TitleTemplate != "" {
			rootTitle = kind.TitleTemplate
		}
		if kind.DescriptionTemplate != "" {
			description = kind.DescriptionTemplate
		}
	}

	rootTitle, err = substituteChecked(rootTitle, values, "template title")
	if err != nil {
		return nil, err
	}
	description, err = substituteChecked(description, values, "template description")
	if err != nil {
		return nil, err
	}

	plan := &Plan{
		TemplateID:  tmpl.ID,
		Values:      values,
		RootTitle:   rootTitle,
		Description: settings.EffectiveDescription(description, st),
		ProjectID:   settings.EffectiveProjectID(tmpl, st),
		SectionID:   settings.EffectiveSectionID(tmpl),
	}

	plan.Nodes, err = buildOps(tmpl.Tasks, "", values)
	if err != nil {
		return nil, err
	}
	return plan, nil
}

func buildOps(nodes []types.TaskNode, parentKey string, values map[string]string) ([]*CreateOp, error) {
	ops := make([]*CreateOp, 0, len(nodes))
	for i, node := range nodes {
		key := fmt.Sprintf("%d", i+1)
		if parentKey != "" {
			key = parentKey + "." + key
		}
		title, err := substituteChecked(node.Title, values, "task "+key)
		if err != nil {
			return nil, err
		}
		op := &CreateOp{
			Key:    key,
			Title:  title,
			Labels: ParseLabels(node.Labels),
		}
		op.Children, err = buildOps(node.Subtasks, key, values)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	return ops, nil
}

func substituteChecked(s string, values map[string]string, where string) (string, error) {
	out := tokens.Substitute(s, values)
	if unresolved := tokens.Unresolved(out); len(unresolved) > 0 {
		return "", fmt.Errorf("%s references unknown tokens: %s", where, strings.Join(unresolved, ", "))
	}
	return out, nil
}

// ParseLabels splits a comma-separated label string: whitespace trimmed,
// empty segments dropped, order preserved, duplicates kept as declared.
func ParseLabels(s string) []string {
	if s == "" {
		return nil
	}
	var labels []string
	for _, part := range strings.Split(s, ",") {
		if l := strings.TrimSpace(part); l != "" {
			labels = append(labels, l)
		}
	}
	return labels
}

// Count returns the total number of planned create operations,
// including the run's root task.
func (p *Plan) Count() int {
	n := 1
	var walk func(ops []*CreateOp)
	walk = func(ops []*CreateOp) {
		for _, op := range ops {
			n++
			walk(op.Children)
		}
	}
	walk(p.Nodes)
	return n
}
