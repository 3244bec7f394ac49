package lua

import (
	lua "github.com/Shopify/go-lua"
	"github.com/stamforge/modhost/internal/capability"
)

// LocaleBinder wires the `locale` capability's get/get_with_args pair.
type LocaleBinder struct {
	Base func(c *Context) *capability.Locale
}

func (b LocaleBinder) Bind(c *Context) {
	loc := b.Base(c)
	c.State.NewTable()
	lua.SetFunctions(c.State, []lua.RegistryFunction{
		{Name: "get", Function: localeGet(loc)},
		{Name: "get_with_args", Function: localeGetWithArgs(loc)},
	}, 0)
	c.State.SetGlobal("locale")
}

func localeGet(loc *capability.Locale) lua.Function {
	return func(state *lua.State) int {
		id := lua.CheckString(state, 1)
		state.PushString(loc.Get(id))
		return 1
	}
}

func localeGetWithArgs(loc *capability.Locale) lua.Function {
	return func(state *lua.State) int {
		id := lua.CheckString(state, 1)
		lua.CheckType(state, 2, lua.TypeTable)

		args := make(map[string]string)
		state.PushNil()
		for state.Next(2) {
			key, _ := state.ToString(-2)
			value, _ := state.ToString(-1)
			args[key] = value
			state.Pop(1)
		}

		state.PushString(loc.GetWithArgs(id, args))
		return 1
	}
}
