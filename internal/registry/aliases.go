package registry

import (
	"path"
	"strings"
	"sync"
)

// AliasMap resolves `@mod-id/subpath` import specifiers to a mod's
// absolute entry directory (spec.md §3/§4.4), written once at load time
// and read by the module resolver thereafter.
type AliasMap struct {
	mu   sync.RWMutex
	dirs map[string]string
}

// Aliases is the process-wide mod alias map.
var Aliases = NewAliasMap()

// NewAliasMap constructs an empty alias map.
func NewAliasMap() *AliasMap {
	return &AliasMap{dirs: make(map[string]string)}
}

// Register records modID's absolute entry directory.
func (a *AliasMap) Register(modID, entryDir string) {
	a.mu.Lock()
	a.dirs[modID] = entryDir
	a.mu.Unlock()
}

// Unregister removes modID, used when a mod is unloaded.
func (a *AliasMap) Unregister(modID string) {
	a.mu.Lock()
	delete(a.dirs, modID)
	a.mu.Unlock()
}

// Resolve translates a specifier of the form "@mod-id/sub/path". Returns
// the specifier unchanged (and false) when it isn't an alias form or the
// alias isn't registered, per spec.md §8's round-trip property.
func (a *AliasMap) Resolve(specifier string) (string, bool) {
	if !strings.HasPrefix(specifier, "@") {
		return specifier, false
	}
	rest := specifier[1:]
	modID, sub, _ := strings.Cut(rest, "/")

	a.mu.RLock()
	dir, ok := a.dirs[modID]
	a.mu.RUnlock()
	if !ok {
		return specifier, false
	}
	if sub == "" {
		return dir, true
	}
	return path.Join(dir, sub), true
}
