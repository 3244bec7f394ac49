package lua

import (
	lua "github.com/Shopify/go-lua"
	"github.com/stamforge/modhost/internal/capability"
)

// ConsoleBinder wires the `console` capability into a mod context's
// global table, matching lua_binding_test.go's
// registerLuaTypes/SetFunctions shape.
type ConsoleBinder struct {
	Base func(c *Context) *capability.Console
}

func (b ConsoleBinder) Bind(c *Context) {
	console := b.Base(c)
	c.State.NewTable()
	lua.SetFunctions(c.State, []lua.RegistryFunction{
		{Name: "log", Function: consoleFn(console.Log)},
		{Name: "debug", Function: consoleFn(console.Debug)},
		{Name: "info", Function: consoleFn(console.Info)},
		{Name: "warn", Function: consoleFn(console.Warn)},
		{Name: "error", Function: consoleFn(console.Error)},
	}, 0)
	c.State.SetGlobal("console")
}

func consoleFn(level func(string)) lua.Function {
	return func(state *lua.State) int {
		level(lua.CheckString(state, 1))
		return 0
	}
}
