package lua

import (
	lua "github.com/Shopify/go-lua"
	"github.com/stamforge/modhost/internal/registry"
)

// TimerBinder wires setTimeout/setInterval/clearTimeout/clearInterval to
// registry.Timers, invoking the stored Lua callback on each fire from
// the timer's own goroutine via ResumeCoroutine-free direct call: timer
// callbacks take no arguments and return no results, so no stack
// marshalling beyond a single protected call is needed.
type TimerBinder struct{}

func (TimerBinder) Bind(c *Context) {
	c.State.PushGoFunction(timerSetTimeout(c))
	c.State.SetGlobal("setTimeout")
	c.State.PushGoFunction(timerSetInterval(c))
	c.State.SetGlobal("setInterval")
	c.State.PushGoFunction(timerClearTimeout())
	c.State.SetGlobal("clearTimeout")
	c.State.PushGoFunction(timerClearInterval())
	c.State.SetGlobal("clearInterval")
}

func timerSetTimeout(c *Context) lua.Function {
	return func(state *lua.State) int {
		lua.CheckType(state, 1, lua.TypeFunction)
		delayMs := lua.CheckInteger(state, 2)

		state.PushValue(1)
		handlerRef := c.nextHandlerRef()
		c.StoreEventHandler(handlerRef)

		id := registry.Timers.SetTimeout(msToDuration(delayMs), func() {
			_ = c.InvokeEventHandler(handlerRef, 0, 0)
			c.RemoveEventHandler(handlerRef)
		})
		state.PushInteger(int(id))
		return 1
	}
}

func timerSetInterval(c *Context) lua.Function {
	return func(state *lua.State) int {
		lua.CheckType(state, 1, lua.TypeFunction)
		delayMs := lua.CheckInteger(state, 2)

		state.PushValue(1)
		handlerRef := c.nextHandlerRef()
		c.StoreEventHandler(handlerRef)

		id := registry.Timers.SetInterval(msToDuration(delayMs), func() error {
			return c.InvokeEventHandler(handlerRef, 0, 0)
		})
		state.PushInteger(int(id))
		return 1
	}
}

func timerClearTimeout() lua.Function {
	return func(state *lua.State) int {
		registry.Timers.ClearTimeout(uint32(lua.CheckInteger(state, 1)))
		return 0
	}
}

func timerClearInterval() lua.Function {
	return func(state *lua.State) int {
		registry.Timers.ClearInterval(uint32(lua.CheckInteger(state, 1)))
		return 0
	}
}
