package lua

import (
	"strconv"

	lua "github.com/Shopify/go-lua"
)

// StoreEventHandler records the function at the top of the stack into
// __eventHandlers[handlerID], keeping the only live reference to it in
// the mod's own Lua state rather than in any process-wide Go structure
// (spec.md §9: the event.Dispatcher tracks handler metadata, never the
// script function itself).
func (c *Context) StoreEventHandler(handlerID uint64) {
	c.State.Global("__eventHandlers")
	c.State.PushValue(-2) // the function, pushed by the caller before this call
	c.State.SetField(-2, strconv.FormatUint(handlerID, 10))
	c.State.Pop(2) // the table and the now-stored function
}

// InvokeEventHandler calls __eventHandlers[handlerID] with nargs values
// already pushed on the stack by the caller, leaving nresults return
// values behind. Used by the timer bindings; game.Runtime's URI and
// custom-event dispatch call mod global functions instead and do not go
// through it.
func (c *Context) InvokeEventHandler(handlerID uint64, nargs, nresults int) error {
	c.State.Global("__eventHandlers")
	c.State.PushString(strconv.FormatUint(handlerID, 10))
	c.State.RawGet(-2)
	c.State.Remove(-2) // drop the __eventHandlers table, keep the function

	if c.State.IsNoneOrNil(-1) {
		c.State.Pop(1 + nargs)
		return nil
	}

	// Move the function below its arguments: it was pushed after them.
	c.State.Insert(-(nargs + 1))
	if err := c.State.ProtectedCall(nargs, nresults, 0); err != nil {
		return decomposeError(c.ModID, err)
	}
	return nil
}

// RemoveEventHandler clears __eventHandlers[handlerID], dropping the
// script's last reference to that function.
func (c *Context) RemoveEventHandler(handlerID uint64) {
	c.State.Global("__eventHandlers")
	c.State.PushNil()
	c.State.SetField(-2, strconv.FormatUint(handlerID, 10))
	c.State.Pop(1)
}
