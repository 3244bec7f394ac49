package runtime

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/stamforge/modhost/internal/errs"
)

// Manager routes a mod's entry point to the adapter for its language,
// keyed by file extension (spec.md §4.7). Only TypeLua has a concrete
// adapter; the rest are reserved so a manifest naming them fails with
// CodeNotImplemented rather than silently being ignored.
type Manager struct {
	mu       sync.RWMutex
	adapters map[Type]Adapter
}

// NewManager returns an empty manager; call Register to wire in adapters.
func NewManager() *Manager {
	return &Manager{adapters: make(map[Type]Adapter)}
}

// Register installs the adapter for a language type.
func (m *Manager) Register(t Type, a Adapter) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.adapters[t] = a
}

// TypeForPath infers the runtime type from an entry point's extension.
func TypeForPath(path string) Type {
	switch filepath.Ext(path) {
	case ".lua":
		return TypeLua
	case ".js", ".mjs":
		return TypeJavaScript
	case ".cs":
		return TypeLuaCS
	case ".rs":
		return TypeRust
	case ".cpp", ".cc":
		return TypeCpp
	default:
		return Type(filepath.Ext(path))
	}
}

// For resolves the adapter for entryPath, or CodeNotImplemented if no
// adapter is registered for its inferred language.
func (m *Manager) For(entryPath string) (Adapter, error) {
	t := TypeForPath(entryPath)

	m.mu.RLock()
	a, ok := m.adapters[t]
	m.mu.RUnlock()
	if !ok {
		return nil, errs.WithMetadata(errs.CodeNotImplemented,
			"no runtime adapter registered for this mod language",
			map[string]string{"entry_path": entryPath, "runtime_type": string(t)})
	}
	return a, nil
}

// LoadMod resolves the adapter for path and loads modID through it.
func (m *Manager) LoadMod(ctx context.Context, modID, path string) error {
	a, err := m.For(path)
	if err != nil {
		return err
	}
	return a.LoadMod(ctx, modID, path)
}
