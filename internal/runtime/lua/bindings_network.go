package lua

import (
	"context"

	lua "github.com/Shopify/go-lua"
	"github.com/stamforge/modhost/internal/capability"
)

// NetworkBinder wires `network.download`. The download runs
// synchronously on whichever goroutine called into the mod, rather than
// suspending a coroutine mid-call; that goroutine, and any other mod of
// the same game waiting on it, is blocked until the download returns.
// A failed download is returned to the script as a result table carrying
// `status` and an `error` message, never raised as a Lua error.
type NetworkBinder struct {
	Base func(c *Context) *capability.Network
}

func (b NetworkBinder) Bind(c *Context) {
	net := b.Base(c)
	c.State.NewTable()
	lua.SetFunctions(c.State, []lua.RegistryFunction{
		{Name: "download", Function: networkDownload(net)},
	}, 0)
	c.State.SetGlobal("network")
}

func networkDownload(net *capability.Network) lua.Function {
	return func(state *lua.State) int {
		uri := lua.CheckString(state, 1)

		result, err := net.Download(context.Background(), uri)

		state.NewTable()
		state.PushInteger(result.Status)
		state.SetField(-2, "status")
		if err != nil {
			state.PushString(err.Error())
			state.SetField(-2, "error")
		}
		if result.TempFilePath != "" {
			state.PushString(result.TempFilePath)
			state.SetField(-2, "temp_file_path")
		}
		if result.Buffer != nil {
			state.PushString(string(result.Buffer))
			state.SetField(-2, "buffer")
		}
		if result.FileName != "" {
			state.PushString(result.FileName)
			state.SetField(-2, "file_name")
		}
		return 1
	}
}
