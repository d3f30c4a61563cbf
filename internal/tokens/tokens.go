// Package tokens derives token specs from a template's task kind and
// validates caller-supplied token values before materialization.
package tokens

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/fernhill/todosync/internal/taskkind"
	"github.com/fernhill/todosync/internal/types"
)

// ValidationError reports every required token that was missing or empty,
// so one round trip surfaces all field errors.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required tokens: %s", strings.Join(e.Missing, ", "))
}

// Specs returns the ordered token specs for a template, derived from its
// bound task kind. A template with no kind, or an unknown kind name,
// yields an empty list rather than an error so callers degrade to "no
// tokens required".
func Specs(tmpl *types.Template) []types.TokenSpec {
	if tmpl == nil || tmpl.Kind == "" {
		return nil
	}
	kind := taskkind.Get(tmpl.Kind)
	if kind == nil {
		return nil
	}
	return kind.TokenSpecs()
}

// Resolve validates supplied values against the token specs and returns
// the complete token-value mapping. Every declared token is present in
// the result; missing optional tokens default to the empty string.
// Unknown supplied keys are ignored. If any required token is absent or
// empty, Resolve returns a *ValidationError naming all of them.
func Resolve(specs []types.TokenSpec, supplied map[string]string) (map[string]string, error) {
	values := make(map[string]string, len(specs))
	var missing []string
	for _, spec := range specs {
		v := supplied[spec.Name]
		if spec.Required && v == "" {
			missing = append(missing, spec.Name)
			continue
		}
		values[spec.Name] = v
	}
	if len(missing) > 0 {
		return nil, &ValidationError{Missing: missing}
	}
	return values, nil
}

// Substitute replaces every literal {name} occurrence in s with the
// mapped value. Matching is exact and case-sensitive; there is no
// nesting or escaping.
func Substitute(s string, values map[string]string) string {
	for name, v := range values {
		s = strings.ReplaceAll(s, "{"+name+"}", v)
	}
	return s
}

var placeholderRe = regexp.MustCompile(`\{([A-Za-z0-9_]+)\}`)

// Unresolved returns the placeholder names still present in s, in order
// of first appearance. A non-empty result after Substitute means the
// string references tokens outside the resolved mapping.
func Unresolved(s string) []string {
	var names []string
	seen := make(map[string]bool)
	for _, m := range placeholderRe.FindAllStringSubmatch(s, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}
