// Package game holds the per-game runtime container (spec.md §4.10):
// one Runtime per enabled game, bundling its script adapter, mod
// lists, system API, and event dispatcher behind the narrow async
// surface the main loop drives.
package game

import (
	"context"
	"log/slog"
	"sync"

	"github.com/stamforge/modhost/internal/capability"
	"github.com/stamforge/modhost/internal/errs"
	"github.com/stamforge/modhost/internal/event"
	"github.com/stamforge/modhost/internal/manifest"
	"github.com/stamforge/modhost/internal/registry"
	"github.com/stamforge/modhost/internal/runtime"
)

// TerminalKeyResponse answers dispatch_terminal_key, per spec.md §4.10.
type TerminalKeyResponse struct {
	Handled bool
}

// asyncGate is a 1-buffered channel used as an async-aware mutex: taking
// the single token is "locking," and because it's a channel rather than
// sync.Mutex, a handler dispatch can select on it alongside a ctx.Done()
// instead of blocking unconditionally (spec.md §4.10's "async read-write
// lock so handler dispatch can await").
type asyncGate chan struct{}

func newAsyncGate() asyncGate {
	g := make(asyncGate, 1)
	g <- struct{}{}
	return g
}

func (g asyncGate) lock(ctx context.Context) error {
	select {
	case <-g:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g asyncGate) unlock() { g <- struct{}{} }

// Runtime is the per-game container.
type Runtime struct {
	GameID string
	Log    *slog.Logger

	Manager    *runtime.Manager
	gate       asyncGate

	mu         sync.RWMutex
	serverMods []string
	clientMods []string
	infos      map[string]*manifest.Info

	Dispatcher *event.Dispatcher
	System     *capability.System

	shutdownCh chan struct{}
	taken      struct{ shutdown, sendEvent bool }
	takenMu    sync.Mutex
}

// NewRuntime constructs an empty per-game runtime.
func NewRuntime(gameID string, mgr *runtime.Manager, log *slog.Logger) *Runtime {
	r := &Runtime{
		GameID:     gameID,
		Log:        log,
		Manager:    mgr,
		gate:       newAsyncGate(),
		infos:      make(map[string]*manifest.Info),
		Dispatcher: event.NewDispatcher(),
		shutdownCh: make(chan struct{}, 1),
	}
	r.System = &capability.System{
		GameID:     gameID,
		Mods:       r.ModInfos,
		Dispatcher: r.Dispatcher,
	}
	return r
}

// ModInfos returns a snapshot of every known mod's bookkeeping.
func (r *Runtime) ModInfos() []manifest.Info {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]manifest.Info, 0, len(r.infos))
	for _, info := range r.infos {
		out = append(out, *info)
	}
	return out
}

// RegisterModInfo installs or overwrites bookkeeping for a mod (pass 1
// of server bootstrap, spec.md §4.11).
func (r *Runtime) RegisterModInfo(info manifest.Info) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := info
	r.infos[info.ID] = &cp
}

// ModInfo returns one mod's bookkeeping.
func (r *Runtime) ModInfo(modID string) (manifest.Info, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	info, ok := r.infos[modID]
	if !ok {
		return manifest.Info{}, false
	}
	return *info, true
}

// MarkLoaded flips a mod's Loaded flag (state machine: Registered -> Loaded).
func (r *Runtime) MarkLoaded(modID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if info, ok := r.infos[modID]; ok {
		info.Loaded = true
	}
}

// MarkBootstrapped flips a mod's Bootstrapped flag (Attached -> Bootstrapped),
// enforcing the invariant bootstrapped(M) => loaded(M) (spec.md §8).
func (r *Runtime) MarkBootstrapped(modID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	info, ok := r.infos[modID]
	if !ok || !info.Loaded {
		return errs.Newf(errs.CodeDependencyError, "mod %q cannot be bootstrapped before it is loaded", modID)
	}
	info.Bootstrapped = true
	return nil
}

// SetServerMods/SetClientMods record the ordered mod lists built during
// bootstrap (spec.md §4.11).
func (r *Runtime) SetServerMods(ids []string) { r.mu.Lock(); r.serverMods = ids; r.mu.Unlock() }
func (r *Runtime) SetClientMods(ids []string) { r.mu.Lock(); r.clientMods = ids; r.mu.Unlock() }

func (r *Runtime) ServerMods() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.serverMods))
	copy(out, r.serverMods)
	return out
}

func (r *Runtime) ClientMods() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.clientMods))
	copy(out, r.clientMods)
	return out
}

// DispatchRequestURI awaits the async gate, then, for every matching
// handler in dispatch order, calls the global function on_request_uri of
// the handler's mod through the runtime manager's adapters (spec.md
// §4.10). The function passed to system.register_event is not called:
// a handler only selects which mods are called. An integer return sets
// the response status and marks the response handled.
func (r *Runtime) DispatchRequestURI(ctx context.Context, uri string) (*event.UriResponse, error) {
	if err := r.gate.lock(ctx); err != nil {
		return nil, err
	}
	defer r.gate.unlock()

	return r.Dispatcher.DispatchURI(uri, func(h *event.Handler, resp *event.UriResponse) error {
		return r.invokeURIHandler(ctx, h, resp)
	}, func(h *event.Handler, err error) {
		if r.Log != nil {
			r.Log.Warn("request_uri handler failed", "mod_id", h.ModID, "error", err)
		}
	})
}

func (r *Runtime) invokeURIHandler(ctx context.Context, h *event.Handler, resp *event.UriResponse) error {
	a, err := r.Manager.For(h.ModID + ".lua")
	if err != nil {
		return err
	}
	ret, err := a.CallModFunctionWithReturn(ctx, h.ModID, "on_request_uri")
	if err != nil {
		return err
	}
	if ret.Kind == runtime.ReturnInt {
		resp.Status = uint16(ret.Int)
		resp.Handled = true
	}
	return nil
}

// DispatchCustomEvent calls, for every handler registered for eventName,
// the global function "on_"+eventName of the handler's mod; the function
// stored at registration is not called, and args are not passed to it.
func (r *Runtime) DispatchCustomEvent(ctx context.Context, eventName string, args []string) (event.CustomEventResponse, error) {
	if err := r.gate.lock(ctx); err != nil {
		return event.CustomEventResponse{}, err
	}
	defer r.gate.unlock()

	resp := r.Dispatcher.DispatchCustom(eventName, func(h *event.Handler) error {
		a, err := r.Manager.For(h.ModID + ".lua")
		if err != nil {
			return err
		}
		return a.CallModFunction(ctx, h.ModID, "on_"+eventName)
	}, nil)
	return resp, nil
}

// DispatchTerminalKey is the terminal (headless/CLI-facing) analog of a
// key-press event, counted separately so a host can decide whether any
// terminal-mode mod wants the key at all before doing real work.
func (r *Runtime) DispatchTerminalKey(ctx context.Context, key string) (TerminalKeyResponse, error) {
	handlers := r.Dispatcher.HandlersForCustom("terminal_key")
	for _, h := range handlers {
		a, err := r.Manager.For(h.ModID + ".lua")
		if err != nil {
			continue
		}
		if err := a.CallModFunction(ctx, h.ModID, "on_terminal_key"); err == nil {
			return TerminalKeyResponse{Handled: true}, nil
		}
	}
	return TerminalKeyResponse{Handled: false}, nil
}

// TerminalKeyHandlerCount reports how many mods currently handle terminal
// key events, so the host can skip key-forwarding work entirely when zero.
func (r *Runtime) TerminalKeyHandlerCount() int {
	return len(r.Dispatcher.HandlersForCustom("terminal_key"))
}

// TakeShutdownReceiver returns the shutdown request channel exactly
// once; subsequent calls return nil.
func (r *Runtime) TakeShutdownReceiver() <-chan struct{} {
	r.takenMu.Lock()
	defer r.takenMu.Unlock()
	if r.taken.shutdown {
		return nil
	}
	r.taken.shutdown = true
	return r.shutdownCh
}

// TakeSendEventReceiver delegates to the Dispatcher's one-shot accessor.
func (r *Runtime) TakeSendEventReceiver() <-chan event.SendEventRequest {
	return r.Dispatcher.TakeSendEventReceiver()
}

// RequestShutdown signals the shutdown channel, if anyone is listening.
func (r *Runtime) RequestShutdown() {
	select {
	case r.shutdownCh <- struct{}{}:
	default:
	}
}

// PollFatal reports whether any mod in this process has hit an
// unrecoverable script error (spec.md §4.11: polled after OnAttach/OnBootstrap).
func (r *Runtime) PollFatal() bool {
	return registry.FatalScriptError.Poll()
}
