package lua

import (
	"context"

	lua "github.com/Shopify/go-lua"
	"github.com/stamforge/modhost/internal/capability"
	"github.com/stamforge/modhost/internal/event"
	"github.com/stamforge/modhost/internal/manifest"
)

// SystemBinder wires the whole `system` capability. Every call here
// runs synchronously on whichever goroutine called into the mod, rather
// than suspending a Lua coroutine, the same choice NetworkBinder makes
// for network.download: a call that blocks holds that goroutine, and
// with it every other mod of the game that runs on it, until it returns.
type SystemBinder struct {
	Base func(c *Context) *capability.System
}

func (b SystemBinder) Bind(c *Context) {
	sys := b.Base(c)
	c.State.NewTable()
	lua.SetFunctions(c.State, []lua.RegistryFunction{
		{Name: "get_mods", Function: systemGetMods(sys)},
		{Name: "get_mod_packages", Function: systemGetModPackages(sys)},
		{Name: "get_mod_package_file_path", Function: systemGetModPackageFilePath(sys)},
		{Name: "register_event", Function: systemRegisterEvent(c, sys)},
		{Name: "unregister_event", Function: systemUnregisterEvent(sys)},
		{Name: "send_event", Function: systemSendEvent(sys)},
		{Name: "attach_mod", Function: systemAttachMod(sys)},
		{Name: "install_mod_from_path", Function: systemInstallModFromPath(sys)},
		{Name: "exit", Function: systemExit(sys)},
	}, 0)
	c.State.SetGlobal("system")
}

func systemGetMods(sys *capability.System) lua.Function {
	return func(state *lua.State) int {
		mods := sys.GetMods()
		state.NewTable()
		for i, m := range mods {
			state.NewTable()
			state.PushString(m.ID)
			state.SetField(-2, "mod_id")
			state.PushString(string(m.ModType))
			state.SetField(-2, "mod_type")
			state.PushInteger(int(m.Priority))
			state.SetField(-2, "priority")
			state.RawSetInt(-2, i+1)
		}
		return 1
	}
}

func systemRegisterEvent(c *Context, sys *capability.System) lua.Function {
	return func(state *lua.State) int {
		eventName := lua.CheckString(state, 1)
		lua.CheckType(state, 2, lua.TypeFunction)
		priority := lua.CheckInteger(state, 3)
		filter := event.ProtocolFilter(lua.OptInteger(state, 4, 0))
		routePrefix := lua.OptString(state, 5, "")

		id := sys.RegisterEvent(event.KeyCustom(eventName), c.ModID, int32(priority), filter, routePrefix)

		state.PushValue(2)
		c.StoreEventHandler(id)

		state.PushInteger(int(id))
		return 1
	}
}

func systemUnregisterEvent(sys *capability.System) lua.Function {
	return func(state *lua.State) int {
		id := uint64(lua.CheckInteger(state, 1))
		state.PushBoolean(sys.UnregisterEvent(id))
		return 1
	}
}

func systemExit(sys *capability.System) lua.Function {
	return func(state *lua.State) int {
		code := lua.CheckInteger(state, 1)
		sys.ExitProcess(code)
		return 0
	}
}

func systemGetModPackages(sys *capability.System) lua.Function {
	return func(state *lua.State) int {
		side := manifest.Side(lua.CheckString(state, 1))
		pkgs := sys.GetModPackages(side)
		state.NewTable()
		for i, p := range pkgs {
			state.NewTable()
			state.PushString(p.ModID)
			state.SetField(-2, "mod_id")
			state.PushString(string(p.Side))
			state.SetField(-2, "side")
			state.PushString(p.Path)
			state.SetField(-2, "path")
			state.RawSetInt(-2, i+1)
		}
		return 1
	}
}

func systemGetModPackageFilePath(sys *capability.System) lua.Function {
	return func(state *lua.State) int {
		modID := lua.CheckString(state, 1)
		side := manifest.Side(lua.CheckString(state, 2))
		path, ok := sys.GetModPackageFilePath(modID, side)
		if !ok {
			state.PushNil()
			return 1
		}
		state.PushString(path)
		return 1
	}
}

// systemSendEvent takes its event args as an array table (send_event(name,
// {arg1, arg2, ...})) rather than Lua varargs, mirroring how
// systemRegisterEvent's routePrefix/filter are passed as plain values;
// go-lua's stack-top introspection isn't exercised anywhere else in this
// package, so this avoids guessing at unverified varargs-counting calls.
func systemSendEvent(sys *capability.System) lua.Function {
	return func(state *lua.State) int {
		name := lua.CheckString(state, 1)
		lua.CheckType(state, 2, lua.TypeTable)

		var args []string
		state.PushNil()
		for state.Next(2) {
			v, _ := state.ToString(-1)
			args = append(args, v)
			state.Pop(1)
		}

		if err := sys.SendEvent(name, args); err != nil {
			lua.Errorf(state, "%v", err)
		}
		return 0
	}
}

func systemAttachMod(sys *capability.System) lua.Function {
	return func(state *lua.State) int {
		modID := lua.CheckString(state, 1)
		if err := sys.AttachMod(context.Background(), modID); err != nil {
			lua.Errorf(state, "%v", err)
		}
		return 0
	}
}

func systemInstallModFromPath(sys *capability.System) lua.Function {
	return func(state *lua.State) int {
		zipPath := lua.CheckString(state, 1)
		modID := lua.CheckString(state, 2)

		installPath, err := sys.InstallModFromPath(zipPath, modID)
		if err != nil {
			lua.Errorf(state, "%v", err)
		}
		state.PushString(installPath)
		return 1
	}
}
