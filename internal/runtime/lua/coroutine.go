package lua

import (
	"fmt"
	"sync/atomic"

	lua "github.com/Shopify/go-lua"
)

// pendingCoroutine is a coroutine started by StartAsync that has not yet
// been resumed to completion. No capability binding creates one: every
// binding runs synchronously. The mod's single Lua state must only ever
// run on the goroutine that owns it (spec.md §4.6: "async calls resolve
// on the game's main loop, never reentrantly").
type pendingCoroutine struct {
	id     uint64
	thread *lua.State
}

var nextCoroutineID uint64

// StartAsync creates a new thread on c's Lua state, records it as pending
// under a fresh id, and passes it to entry. A later ResumeCoroutine with
// that id resumes it.
//
// Nothing in this package calls StartAsync or ResumeCoroutine: the
// capability bindings (network.download, file.read_json, ...) never
// yield, and each returns its result to the script directly.
func (c *Context) StartAsync(entry func(thread *lua.State)) uint64 {
	thread := c.State.NewThread()
	id := atomic.AddUint64(&nextCoroutineID, 1)

	c.mu.Lock()
	c.pending = append(c.pending, &pendingCoroutine{id: id, thread: thread})
	c.mu.Unlock()

	entry(thread)
	return id
}

// ResumeCoroutine resumes the coroutine started under id with the given
// arguments already pushed onto its thread stack by the caller. If the
// coroutine finishes (status is no longer "suspended"), it is dropped
// from the pending set. A resume that errors is decomposed the same way
// a top-level call error is.
func (c *Context) ResumeCoroutine(id uint64, nargs int) error {
	c.mu.Lock()
	var target *pendingCoroutine
	remaining := c.pending[:0:0]
	for _, p := range c.pending {
		if p.id == id {
			target = p
			continue
		}
		remaining = append(remaining, p)
	}
	c.mu.Unlock()

	if target == nil {
		return nil // already resumed to completion, or never registered
	}

	err := lua.Resume(target.thread, c.State, nargs)
	if err == nil || err == lua.ErrOtherThreadDone {
		return nil
	}
	if err == lua.ErrYield {
		// still suspended on another async call; keep tracking it
		c.mu.Lock()
		c.pending = append(remaining, target)
		c.mu.Unlock()
		return nil
	}

	c.mu.Lock()
	c.pending = remaining
	c.mu.Unlock()
	return decomposeError(c.ModID, fmt.Errorf("coroutine %d: %w", id, err))
}
