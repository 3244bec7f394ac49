package lua

import (
	lua "github.com/Shopify/go-lua"
	"github.com/stamforge/modhost/internal/capability"
)

// FileBinder wires the `file` capability (currently just read_json,
// per spec.md §4.8).
type FileBinder struct {
	Base func(c *Context) *capability.File
}

func (b FileBinder) Bind(c *Context) {
	file := b.Base(c)
	c.State.NewTable()
	lua.SetFunctions(c.State, []lua.RegistryFunction{
		{Name: "read_json", Function: fileReadJSON(file)},
	}, 0)
	c.State.SetGlobal("file")
}

func fileReadJSON(file *capability.File) lua.Function {
	return func(state *lua.State) int {
		path := lua.CheckString(state, 1)
		encoding := lua.OptString(state, 2, "utf-8")

		result := file.ReadJSON(path, encoding)
		state.NewTable()
		switch result.Kind {
		case capability.JSONUseDefault:
			state.PushString("UseDefault")
			state.SetField(-2, "kind")
		case capability.JSONSuccess:
			state.PushString("Success")
			state.SetField(-2, "kind")
			state.PushString(result.JSON)
			state.SetField(-2, "json")
		case capability.JSONError:
			state.PushString("Error")
			state.SetField(-2, "kind")
			state.PushString(result.Message)
			state.SetField(-2, "message")
		}
		return 1
	}
}
