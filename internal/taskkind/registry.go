// Package taskkind defines the task kinds that parameterize task group
// templates. A kind declares the token fields callers must supply, plus
// the title and description templates for the parent task created at the
// root of a materialization run.
//
// Kinds register themselves at init time; the registry provides access
// by name so templates can reference a kind as plain data.
package taskkind

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/fernhill/todosync/internal/types"
)

// TokenField is one token slot declared by a kind. Required fields must
// be supplied with a non-empty value before materialization.
type TokenField struct {
	Name     string
	Required bool
}

// Kind describes one task kind. TitleTemplate and DescriptionTemplate
// use the same literal {token} placeholder syntax as template task trees.
type Kind struct {
	Name                string
	DisplayName         string
	Fields              []TokenField
	TitleTemplate       string
	DescriptionTemplate string
}

// TokenSpecs returns the ordered token specs for this kind. Display
// labels are derived from the field name (underscores to spaces, words
// title-cased).
func (k *Kind) TokenSpecs() []types.TokenSpec {
	specs := make([]types.TokenSpec, len(k.Fields))
	for i, f := range k.Fields {
		specs[i] = types.TokenSpec{
			Name:     f.Name,
			Label:    labelFromName(f.Name),
			Required: f.Required,
		}
	}
	return specs
}

// TokenFieldNames returns the ordered field names.
func (k *Kind) TokenFieldNames() []string {
	names := make([]string, len(k.Fields))
	for i, f := range k.Fields {
		names[i] = f.Name
	}
	return names
}

func labelFromName(name string) string {
	words := strings.Split(name, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// Registry manages registered task kinds.
type Registry struct {
	mu    sync.RWMutex
	kinds map[string]*Kind
}

// globalRegistry is the default registry used by Register and Get.
var globalRegistry = &Registry{
	kinds: make(map[string]*Kind),
}

// Register adds a kind to the global registry. Typically called from
// init() in the file declaring the kind.
func Register(k *Kind) {
	globalRegistry.Register(k)
}

// Get retrieves a kind from the global registry.
// Returns nil if no kind with that name is registered.
func Get(name string) *Kind {
	return globalRegistry.Get(name)
}

// List returns the names of all registered kinds, sorted.
func List() []string {
	return globalRegistry.List()
}

// Register adds a kind to this registry.
func (r *Registry) Register(k *Kind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.kinds[k.Name] = k
}

// Get retrieves a kind by name, or nil if unknown.
func (r *Registry) Get(name string) *Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.kinds[name]
}

// List returns the sorted names of all registered kinds.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.kinds))
	for name := range r.kinds {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// MustGet retrieves a kind by name, returning an error describing the
// registered kinds when the name is unknown.
func MustGet(name string) (*Kind, error) {
	k := Get(name)
	if k == nil {
		return nil, fmt.Errorf("unknown task kind %q (registered: %s)", name, strings.Join(List(), ", "))
	}
	return k, nil
}
