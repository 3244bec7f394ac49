package lua

import (
	lua "github.com/Shopify/go-lua"
	"github.com/stamforge/modhost/internal/registry"
)

// installRequireHook replaces the global require with one that resolves
// "@mod-id/path" specifiers through registry.Aliases before loading and
// running the target chunk (spec.md §4.3: mods import each other's
// modules by alias, not by filesystem path). Unlike stock Lua require,
// modules are not cached across calls — each mod context is short-lived
// and re-requiring the same alias twice within one script is rare.
func (c *Context) installRequireHook() {
	c.State.Register("require", c.require)
}

func (c *Context) require(state *lua.State) int {
	specifier := lua.CheckString(state, 1)

	if resolved, ok := registry.Aliases.Resolve(specifier); ok {
		specifier = resolved
	}

	if err := lua.LoadFile(state, specifier, ""); err != nil {
		lua.Errorf(state, "require %q: %v", specifier, err)
	}
	state.Call(0, 1)
	return 1
}
