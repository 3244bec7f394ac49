package lua

import (
	lua "github.com/Shopify/go-lua"
	"github.com/stamforge/modhost/internal/capability"
	"github.com/stamforge/modhost/internal/graphics"
)

// GraphicBinder wires every command of the `graphic` capability for use
// by scripts; on a server runtime Base returns a Graphic
// with a nil Engine channel, so every call fails with CodeNotImplemented
// (spec.md §4.8).
type GraphicBinder struct {
	Base func(c *Context) *capability.Graphic
}

func (b GraphicBinder) Bind(c *Context) {
	g := b.Base(c)
	c.State.NewTable()
	lua.SetFunctions(c.State, []lua.RegistryFunction{
		{Name: "create_window", Function: graphicCreateWindow(g)},
		{Name: "close_window", Function: graphicCloseWindow(g)},
		{Name: "set_window_size", Function: graphicSetWindowSize(g)},
		{Name: "set_title", Function: graphicSetTitle(g)},
		{Name: "set_fullscreen", Function: graphicSetFullscreen(g)},
		{Name: "set_visible", Function: graphicSetVisible(g)},
		{Name: "set_position", Function: graphicSetPosition(g)},
		{Name: "set_position_mode", Function: graphicSetPositionMode(g)},
		{Name: "set_resizable", Function: graphicSetResizable(g)},
		{Name: "get_mouse_position", Function: graphicGetMousePosition(g)},
		{Name: "is_key_pressed", Function: graphicIsKeyPressed(g)},
		{Name: "get_pressed_keys", Function: graphicGetPressedKeys(g)},
		{Name: "get_engine_info", Function: graphicGetEngineInfo(g)},
		{Name: "shutdown", Function: graphicShutdown(g)},
	}, 0)
	c.State.SetGlobal("graphic")
}

func graphicCreateWindow(g *capability.Graphic) lua.Function {
	return func(state *lua.State) int {
		width := lua.CheckInteger(state, 1)
		height := lua.CheckInteger(state, 2)
		title := lua.OptString(state, 3, "")
		if err := g.CreateWindow(width, height, title); err != nil {
			lua.Errorf(state, "%v", err)
		}
		return 0
	}
}

func graphicCloseWindow(g *capability.Graphic) lua.Function {
	return func(state *lua.State) int {
		if err := g.CloseWindow(); err != nil {
			lua.Errorf(state, "%v", err)
		}
		return 0
	}
}

func graphicSetWindowSize(g *capability.Graphic) lua.Function {
	return func(state *lua.State) int {
		width := lua.CheckInteger(state, 1)
		height := lua.CheckInteger(state, 2)
		if err := g.SetWindowSize(width, height); err != nil {
			lua.Errorf(state, "%v", err)
		}
		return 0
	}
}

func graphicSetTitle(g *capability.Graphic) lua.Function {
	return func(state *lua.State) int {
		title := lua.CheckString(state, 1)
		if err := g.SetTitle(title); err != nil {
			lua.Errorf(state, "%v", err)
		}
		return 0
	}
}

func graphicSetFullscreen(g *capability.Graphic) lua.Function {
	return func(state *lua.State) int {
		fullscreen := state.ToBoolean(1)
		if err := g.SetFullscreen(fullscreen); err != nil {
			lua.Errorf(state, "%v", err)
		}
		return 0
	}
}

func graphicSetVisible(g *capability.Graphic) lua.Function {
	return func(state *lua.State) int {
		visible := state.ToBoolean(1)
		if err := g.SetVisible(visible); err != nil {
			lua.Errorf(state, "%v", err)
		}
		return 0
	}
}

func graphicSetPosition(g *capability.Graphic) lua.Function {
	return func(state *lua.State) int {
		x := lua.CheckInteger(state, 1)
		y := lua.CheckInteger(state, 2)
		if err := g.SetPosition(x, y); err != nil {
			lua.Errorf(state, "%v", err)
		}
		return 0
	}
}

func graphicSetPositionMode(g *capability.Graphic) lua.Function {
	return func(state *lua.State) int {
		mode := graphics.PositionMode(lua.CheckInteger(state, 1))
		if err := g.SetPositionMode(mode); err != nil {
			lua.Errorf(state, "%v", err)
		}
		return 0
	}
}

func graphicSetResizable(g *capability.Graphic) lua.Function {
	return func(state *lua.State) int {
		resizable := state.ToBoolean(1)
		if err := g.SetResizable(resizable); err != nil {
			lua.Errorf(state, "%v", err)
		}
		return 0
	}
}

func graphicGetMousePosition(g *capability.Graphic) lua.Function {
	return func(state *lua.State) int {
		x, y, err := g.GetMousePosition()
		if err != nil {
			lua.Errorf(state, "%v", err)
		}
		state.PushInteger(x)
		state.PushInteger(y)
		return 2
	}
}

func graphicIsKeyPressed(g *capability.Graphic) lua.Function {
	return func(state *lua.State) int {
		key := lua.CheckString(state, 1)
		pressed, err := g.IsKeyPressed(key)
		if err != nil {
			lua.Errorf(state, "%v", err)
		}
		state.PushBoolean(pressed)
		return 1
	}
}

func graphicGetPressedKeys(g *capability.Graphic) lua.Function {
	return func(state *lua.State) int {
		keys, err := g.GetPressedKeys()
		if err != nil {
			lua.Errorf(state, "%v", err)
		}
		state.NewTable()
		for i, k := range keys {
			state.PushString(k)
			state.RawSetInt(-2, i+1)
		}
		return 1
	}
}

func graphicGetEngineInfo(g *capability.Graphic) lua.Function {
	return func(state *lua.State) int {
		info, err := g.GetEngineInfo()
		if err != nil {
			lua.Errorf(state, "%v", err)
		}
		state.NewTable()
		state.PushString(info.Backend)
		state.SetField(-2, "backend")
		state.PushString(info.Version)
		state.SetField(-2, "version")
		return 1
	}
}

func graphicShutdown(g *capability.Graphic) lua.Function {
	return func(state *lua.State) int {
		if err := g.Shutdown(); err != nil {
			lua.Errorf(state, "%v", err)
		}
		return 0
	}
}
