package fields

import (
	"errors"
	"fmt"
	"sync"
)

var (
	ErrDuplicateFieldType = errors.New("duplicate field type")
	ErrUnknownFieldType   = errors.New("unknown field type")
)

// The registry is process-wide: built-ins register from init in declared
// order, an embedding program may append its own types at startup, and the
// table is read-only afterwards. The lock only guards that startup window.
var registry = struct {
	mu     sync.RWMutex
	byName map[string]FieldType
	order  []string
}{byName: map[string]FieldType{}}

// Register adds a field type under its Name. Registering a name twice fails
// with ErrDuplicateFieldType.
func Register(ft FieldType) error {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	name := ft.Name()
	if _, exists := registry.byName[name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateFieldType, name)
	}
	registry.byName[name] = ft
	registry.order = append(registry.order, name)
	return nil
}

func mustRegister(ft FieldType) {
	if err := Register(ft); err != nil {
		panic(err)
	}
}

// Resolve returns the field type registered under name, or
// ErrUnknownFieldType.
func Resolve(name string) (FieldType, error) {
	registry.mu.RLock()
	defer registry.mu.RUnlock()

	ft, ok := registry.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFieldType, name)
	}
	return ft, nil
}

// Available lists every registered field type, built-ins first in their
// declared order, then external registrations in registration order. The
// order only matters for editor UI presentation.
func Available() []FieldType {
	registry.mu.RLock()
	defer registry.mu.RUnlock()

	out := make([]FieldType, 0, len(registry.order))
	for _, name := range registry.order {
		out = append(out, registry.byName[name])
	}
	return out
}
