// Package lua implements the runtime.Adapter for Lua mods (spec.md §4.6),
// grounded on the Shopify/go-lua bindings exercised by the teacher's
// scripted-game test harness, in place of the JavaScript adapter spec.md
// describes; see SPEC_FULL.md §4.6 for the substitution rationale.
// Capability bindings run synchronously; no mod code runs inside a
// coroutine.
package lua

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	lua "github.com/Shopify/go-lua"
	"github.com/stamforge/modhost/internal/errs"
	"github.com/stamforge/modhost/internal/registry"
	"github.com/stamforge/modhost/internal/runtime"
)

// Binder lets a capability package (console, system, network, locale,
// file, graphic) wire its Go functions into a freshly created mod
// context, without this package importing any capability package
// directly.
type Binder interface {
	Bind(c *Context)
}

// Context is one mod's isolated Lua state. Every mod, including two
// mods in the same game, gets its own *lua.State; nothing but the
// process-wide registries (internal/registry) and the game's shared
// Dispatcher is visible across contexts.
type Context struct {
	ModID  string
	GameID string
	State  *lua.State
	Log    *slog.Logger

	mu         sync.Mutex
	pending    []*pendingCoroutine
	nextRef    uint64
}

// nextHandlerRef allocates a process-local (per-context) id for storing
// a Lua function in __eventHandlers, used by bindings whose handle
// isn't already a process-wide event.Handler.ID (timer callbacks).
func (c *Context) nextHandlerRef() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextRef++
	return c.nextRef<<1 | 1 // odd: distinguishes timer refs from event.Handler.IDs sharing the same table
}

// Adapter is the concrete runtime.Adapter for Lua. One Adapter serves
// every mod in a single game; GameID is fixed at construction, ModID
// varies per LoadMod call.
type Adapter struct {
	GameID  string
	Log     *slog.Logger
	Binders []Binder

	mu       sync.RWMutex
	contexts map[string]*Context
}

var _ runtime.Adapter = (*Adapter)(nil)

// NewAdapter returns an adapter for a single game, with binders applied
// to every mod context it creates.
func NewAdapter(gameID string, log *slog.Logger, binders ...Binder) *Adapter {
	return &Adapter{
		GameID:   gameID,
		Log:      log,
		Binders:  binders,
		contexts: make(map[string]*Context),
	}
}

// LoadMod creates a fresh *lua.State for modID, opens the standard
// libraries, wires globals and capability bindings, then loads and
// protected-calls the entry point at path (spec.md §4.6).
func (a *Adapter) LoadMod(ctx context.Context, modID, path string) error {
	state := lua.NewState()
	lua.OpenLibraries(state)

	mc := &Context{
		ModID:  modID,
		GameID: a.GameID,
		State:  state,
		Log:    a.Log.With("mod_id", modID, "game_id", a.GameID, "runtime_type", "lua"),
	}

	mc.installGlobals()
	mc.installRequireHook()
	for _, b := range a.Binders {
		b.Bind(mc)
	}

	if err := lua.LoadFile(state, path, ""); err != nil {
		return errs.Wrap(errs.CodeScriptError, fmt.Sprintf("load %s", path), err)
	}
	if err := state.ProtectedCall(0, 0, 0); err != nil {
		return decomposeError(modID, err)
	}

	a.mu.Lock()
	a.contexts[modID] = mc
	a.mu.Unlock()
	return nil
}

// CallModFunction invokes a zero-argument global function in modID's
// context, if it's defined. A missing function is not an error: most
// lifecycle hooks are optional (spec.md §4.6).
func (a *Adapter) CallModFunction(ctx context.Context, modID, fnName string) error {
	mc, err := a.context(modID)
	if err != nil {
		return err
	}
	return mc.call(fnName, nil)
}

// CallModFunctionWithReturn is CallModFunction plus coercion of the
// function's single return value into a runtime.ReturnValue.
func (a *Adapter) CallModFunctionWithReturn(ctx context.Context, modID, fnName string) (runtime.ReturnValue, error) {
	mc, err := a.context(modID)
	if err != nil {
		return runtime.ReturnValue{}, err
	}
	return mc.callWithReturn(fnName)
}

// UnloadMod drops the mod's context. The *lua.State becomes unreachable
// and is reclaimed by the Go garbage collector. It does not cancel the
// mod's registry.Timers entries or reset registry.FatalScriptError.
func (a *Adapter) UnloadMod(modID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.contexts, modID)
	return nil
}

func (a *Adapter) context(modID string) (*Context, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	mc, ok := a.contexts[modID]
	if !ok {
		return nil, errs.New(errs.CodeLoadError, fmt.Sprintf("mod %q has no loaded runtime context", modID))
	}
	return mc, nil
}

// installGlobals sets __MOD_ID__, __GAME_ID__, and an empty
// __eventHandlers table, the three globals every mod script can read to
// identify itself and its registered handlers (spec.md §4.6/§9).
func (c *Context) installGlobals() {
	c.State.PushString(c.ModID)
	c.State.SetGlobal("__MOD_ID__")
	c.State.PushString(c.GameID)
	c.State.SetGlobal("__GAME_ID__")
	c.State.NewTable()
	c.State.SetGlobal("__eventHandlers")
}

func (c *Context) call(fnName string, push func()) error {
	c.State.Global(fnName)
	if c.State.IsNoneOrNil(-1) {
		c.State.Pop(1)
		return nil
	}
	nargs := 0
	if push != nil {
		push()
		nargs = 1
	}
	if err := c.State.ProtectedCall(nargs, 0, 0); err != nil {
		return decomposeError(c.ModID, err)
	}
	return nil
}

func (c *Context) callWithReturn(fnName string) (runtime.ReturnValue, error) {
	c.State.Global(fnName)
	if c.State.IsNoneOrNil(-1) {
		c.State.Pop(1)
		return runtime.ReturnValue{}, nil
	}
	if err := c.State.ProtectedCall(0, 1, 0); err != nil {
		return runtime.ReturnValue{}, decomposeError(c.ModID, err)
	}
	defer c.State.Pop(1)
	return coerceReturn(c.State, -1), nil
}

func coerceReturn(state *lua.State, index int) runtime.ReturnValue {
	switch state.TypeOf(index) {
	case lua.TypeString:
		s, _ := state.ToString(index)
		return runtime.ReturnValue{Kind: runtime.ReturnString, Str: s}
	case lua.TypeBoolean:
		return runtime.ReturnValue{Kind: runtime.ReturnBool, Bool: state.ToBoolean(index)}
	case lua.TypeNumber:
		n, _ := state.ToInteger(index)
		return runtime.ReturnValue{Kind: runtime.ReturnInt, Int: int64(n)}
	default:
		return runtime.ReturnValue{}
	}
}

// FatalScriptErrorFlag reports whether any mod in any game has hit an
// unrecoverable script error (spec.md §4.6); a read-only view of
// registry.FatalScriptError.
func FatalScriptErrorFlag() bool {
	return registry.FatalScriptError.Poll()
}
