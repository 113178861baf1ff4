package module

import (
	"fmt"
	"sort"
	"strings"

	"github.com/maurorisonho/Houdinis-sub002/internal/types"
)

// Registry is the ordered index of available modules, keyed by id. It is
// built once at startup and treated as read-only afterwards, so lookups
// need no locking.
type Registry struct {
	modules map[string]Module
	order   []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{modules: make(map[string]Module)}
}

// Register adds a module. Fails with MODULE_DUPLICATE when the id is
// already taken; the failure is fatal only to this registration.
func (r *Registry) Register(m Module) error {
	id := m.ID()
	if id == "" {
		return types.NewError(types.MODULE_LOAD_FAILED, "module id cannot be empty")
	}
	if m.Options() == nil {
		return types.NewError(types.MODULE_LOAD_FAILED,
			fmt.Sprintf("module %s has no option set", id))
	}
	if _, exists := r.modules[id]; exists {
		return types.NewError(types.MODULE_DUPLICATE,
			fmt.Sprintf("module %s is already registered", id))
	}

	r.modules[id] = m
	r.order = append(r.order, id)
	sort.Strings(r.order)
	return nil
}

// Find returns the module registered under id, or MODULE_NOT_FOUND.
func (r *Registry) Find(id string) (Module, error) {
	m, ok := r.modules[id]
	if !ok {
		return nil, types.NewError(types.MODULE_NOT_FOUND,
			fmt.Sprintf("no module named %q", id))
	}
	return m, nil
}

// List returns all modules in lexicographic id order, so `show modules`
// output is reproducible.
func (r *Registry) List() []Module {
	out := make([]Module, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.modules[id])
	}
	return out
}

// Search returns the modules whose id or description contains term,
// case-insensitively, in lexicographic id order.
func (r *Registry) Search(term string) []Module {
	needle := strings.ToLower(term)
	var out []Module
	for _, id := range r.order {
		m := r.modules[id]
		if strings.Contains(strings.ToLower(m.ID()), needle) ||
			strings.Contains(strings.ToLower(m.Description()), needle) {
			out = append(out, m)
		}
	}
	return out
}

// Len returns the number of registered modules.
func (r *Registry) Len() int {
	return len(r.order)
}
