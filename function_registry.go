package optstore

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	// ErrFunctionNotFound is returned when a rule calls an unknown function.
	ErrFunctionNotFound = errors.New("optstore: function not registered")
	// ErrFunctionExists is returned when a name is registered twice.
	ErrFunctionExists = errors.New("optstore: function already registered")
)

// Function is a helper callable from rule expressions.
type Function func(args ...any) (any, error)

// FunctionRegistry holds the helpers exposed to rule expressions. Names are
// case-insensitive and stored lower-cased. Safe for concurrent use.
type FunctionRegistry struct {
	mu        sync.RWMutex
	functions map[string]Function
}

// NewFunctionRegistry constructs an empty registry.
func NewFunctionRegistry() *FunctionRegistry {
	return &FunctionRegistry{functions: make(map[string]Function)}
}

// Register adds fn under name. Empty names, nil functions and duplicates are
// rejected.
func (r *FunctionRegistry) Register(name string, fn Function) error {
	key := strings.ToLower(strings.TrimSpace(name))
	switch {
	case key == "":
		return fmt.Errorf("optstore: function name must not be empty")
	case fn == nil:
		return fmt.Errorf("optstore: function %q is nil", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.functions == nil {
		r.functions = make(map[string]Function)
	}
	if _, exists := r.functions[key]; exists {
		return fmt.Errorf("%w: %q", ErrFunctionExists, name)
	}
	r.functions[key] = fn
	return nil
}

// Merge copies the functions of other into r. Names already present in r
// win, so per-rule helpers are not clobbered by a shared registry.
func (r *FunctionRegistry) Merge(other *FunctionRegistry) {
	if r == nil || other == nil || r == other {
		return
	}
	snapshot := other.snapshot()
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.functions == nil {
		r.functions = make(map[string]Function, len(snapshot))
	}
	for name, fn := range snapshot {
		if _, exists := r.functions[name]; !exists {
			r.functions[name] = fn
		}
	}
}

// Clone returns an independent copy of the registry.
func (r *FunctionRegistry) Clone() *FunctionRegistry {
	if r == nil {
		return nil
	}
	return &FunctionRegistry{functions: r.snapshot()}
}

func (r *FunctionRegistry) snapshot() map[string]Function {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]Function, len(r.functions))
	for name, fn := range r.functions {
		out[name] = fn
	}
	return out
}

// Call runs the function registered for name.
func (r *FunctionRegistry) Call(name string, args ...any) (any, error) {
	var fn Function
	if r != nil {
		r.mu.RLock()
		fn = r.functions[strings.ToLower(strings.TrimSpace(name))]
		r.mu.RUnlock()
	}
	if fn == nil {
		return nil, fmt.Errorf("%w: %q", ErrFunctionNotFound, name)
	}
	return fn(args...)
}

// Names returns the registered names in sorted order.
func (r *FunctionRegistry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	names := make([]string, 0, len(r.functions))
	for name := range r.functions {
		names = append(names, name)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}

// Len returns the number of registered functions.
func (r *FunctionRegistry) Len() int {
	if r == nil {
		return 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.functions)
}

// RuleWithFunctionRegistry exposes the functions in registry to a rule
// compiled on the default engine. Several registries may be supplied; the
// first registration of a name wins.
func RuleWithFunctionRegistry(registry *FunctionRegistry) RuleOption {
	return func(cfg *ruleConfig) {
		if registry == nil {
			return
		}
		if cfg.shared == nil {
			cfg.shared = NewFunctionRegistry()
		}
		cfg.shared.Merge(registry)
	}
}

// RuleWithFunction registers fn under name for a single rule. It takes
// precedence over a registry function of the same name. Registration errors
// surface from the rule constructor.
func RuleWithFunction(name string, fn Function) RuleOption {
	return func(cfg *ruleConfig) {
		if cfg.functions == nil {
			cfg.functions = NewFunctionRegistry()
		}
		if err := cfg.functions.Register(name, fn); err != nil {
			cfg.optionErrs = append(cfg.optionErrs, err)
		}
	}
}
