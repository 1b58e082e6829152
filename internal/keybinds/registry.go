package keybinds

import (
	"sort"
	"strings"
)

// Binding represents a keybinding mapping
type Binding struct {
	Key     string
	Action  Action
	Context Context
}

// Registry manages keybinding mappings and matching
type Registry struct {
	// bindings maps context -> key -> action
	bindings map[Context]map[string]Action

	// multiKeyState tracks multi-key sequences (like 'gg' in vim)
	multiKeyState map[Context]string
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		bindings:      make(map[Context]map[string]Action),
		multiKeyState: make(map[Context]string),
	}
}

// Register binds key to action in context, replacing any previous action
func (r *Registry) Register(context Context, key string, action Action) {
	if r.bindings[context] == nil {
		r.bindings[context] = make(map[string]Action)
	}
	r.bindings[context][key] = action
}

// RegisterMultiple registers multiple keybindings for the same action
func (r *Registry) RegisterMultiple(context Context, keys []string, action Action) {
	for _, key := range keys {
		r.Register(context, key, action)
	}
}

// Unbind removes every key bound to action in context
func (r *Registry) Unbind(context Context, action Action) {
	for key, bound := range r.bindings[context] {
		if bound == action {
			delete(r.bindings[context], key)
		}
	}
}

// Match resolves key in context, falling back to the global context
func (r *Registry) Match(context Context, key string) (Action, bool) {
	if action, ok := r.bindings[context][key]; ok {
		return action, true
	}
	if action, ok := r.bindings[ContextGlobal][key]; ok {
		return action, true
	}
	return "", false
}

// MatchMultiKey handles multi-key sequences like 'gg' for go-to-top.
// Returns the action, whether it's a complete match, and whether it's a partial match
func (r *Registry) MatchMultiKey(context Context, key string) (Action, bool, bool) {
	if prevKey, pending := r.multiKeyState[context]; pending {
		delete(r.multiKeyState, context)

		if action, ok := r.Match(context, prevKey+key); ok {
			return action, true, false
		}
		return "", false, false
	}

	if action, ok := r.Match(context, key); ok && action == ActionGoToTopPrepare {
		r.multiKeyState[context] = key
		return "", false, true
	}

	action, ok := r.Match(context, key)
	return action, ok, false
}

// ClearMultiKeyState clears any pending multi-key state for a context
func (r *Registry) ClearMultiKeyState(context Context) {
	delete(r.multiKeyState, context)
}

// GetBinding returns the sorted keys bound to action in context, or in the
// global context when context has none
func (r *Registry) GetBinding(context Context, action Action) []string {
	keys := keysFor(r.bindings[context], action)
	if len(keys) == 0 && context != ContextGlobal {
		keys = keysFor(r.bindings[ContextGlobal], action)
	}
	return keys
}

func keysFor(bindings map[string]Action, action Action) []string {
	var keys []string
	for key, bound := range bindings {
		if bound == action {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

// GetBindingString returns a human-readable string of keys bound to an action
func (r *Registry) GetBindingString(context Context, action Action) string {
	keys := r.GetBinding(context, action)
	if len(keys) == 0 {
		return "unbound"
	}
	return strings.Join(keys, ", ")
}

// ListBindings returns the bindings of context followed by the global ones,
// each group sorted by key
func (r *Registry) ListBindings(context Context) []Binding {
	var bindings []Binding

	contexts := []Context{context}
	if context != ContextGlobal {
		contexts = append(contexts, ContextGlobal)
	}

	for _, ctx := range contexts {
		keys := make([]string, 0, len(r.bindings[ctx]))
		for key := range r.bindings[ctx] {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			bindings = append(bindings, Binding{Key: key, Action: r.bindings[ctx][key], Context: ctx})
		}
	}

	return bindings
}

// HasBinding checks if a key is bound in a context or globally
func (r *Registry) HasBinding(context Context, key string) bool {
	_, ok := r.Match(context, key)
	return ok
}

// Contexts returns the contexts that have bindings, sorted
func (r *Registry) Contexts() []Context {
	contexts := make([]Context, 0, len(r.bindings))
	for ctx := range r.bindings {
		contexts = append(contexts, ctx)
	}
	sort.Slice(contexts, func(i, j int) bool { return contexts[i] < contexts[j] })
	return contexts
}
