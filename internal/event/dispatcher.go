// Package event implements the handler registry and async dispatch bus
// described in spec.md §4.5.
package event

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
)

// SystemEvent is one of the fixed system-level event keys.
type SystemEvent uint32

// RequestUri is currently the only system event.
const RequestUri SystemEvent = 0

// Key identifies an event: either a system enum or a custom string.
type Key struct {
	system SystemEvent
	custom string
	isCustom bool
}

// KeySystem builds a Key for a system event.
func KeySystem(e SystemEvent) Key { return Key{system: e} }

// KeyCustom builds a Key for a mod-defined custom event name.
func KeyCustom(name string) Key { return Key{custom: name, isCustom: true} }

func (k Key) String() string {
	if k.isCustom {
		return "custom:" + k.custom
	}
	return fmt.Sprintf("system:%d", k.system)
}

// ProtocolFilter restricts which URI schemes a RequestUri handler matches.
type ProtocolFilter int

const (
	All  ProtocolFilter = 0
	Stam ProtocolFilter = 1
	Http ProtocolFilter = 2
)

// Matches reports whether scheme satisfies the filter, per spec.md §4.5.
func (f ProtocolFilter) Matches(scheme string) bool {
	switch f {
	case All:
		return true
	case Stam:
		return scheme == "stam"
	case Http:
		return scheme == "http" || scheme == "https"
	default:
		return false
	}
}

// Handler is a registered event subscriber. handler_id is process-unique;
// the dispatcher never stores the underlying script function, only this
// id, so the owning script context is the sole place function values live
// (spec.md §9 "cyclic references avoided").
type Handler struct {
	ID             uint64
	ModID          string
	Priority       int32
	ProtocolFilter ProtocolFilter
	RoutePrefix    string
	Key            Key
	seq            uint64 // insertion order, for stable tie-breaking
}

var nextHandlerID uint64

// allocateHandlerID returns even ids only, so a script adapter can key
// its own callbacks by odd numbers in the same table as handler ids
// without a collision (runtime/lua's timer refs).
func allocateHandlerID() uint64 {
	return atomic.AddUint64(&nextHandlerID, 1) << 1
}

// Dispatcher is the per-game handler registry and router.
type Dispatcher struct {
	mu       sync.RWMutex
	byKey    map[string][]*Handler
	nextSeq  uint64
	sendCh   chan SendEventRequest
	taken    atomic.Bool
}

// SendEventRequest carries a custom event name and JSON-encoded arguments
// from a script's system.send_event call into the main loop (spec.md §4.5).
type SendEventRequest struct {
	EventName string
	Args      []string
	Response  chan error
}

// Option configures a Dispatcher at construction time.
type Option func(*Dispatcher)

// WithSendEventCapacity overrides the default bounded channel capacity of
// 16 (spec.md §9's open question: the 16 figure isn't policy, implementers
// may choose differently as long as it's exposed).
func WithSendEventCapacity(n int) Option {
	return func(d *Dispatcher) {
		d.sendCh = make(chan SendEventRequest, n)
	}
}

// NewDispatcher constructs an empty dispatcher.
func NewDispatcher(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		byKey:  make(map[string][]*Handler),
		sendCh: make(chan SendEventRequest, 16),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Register inserts a new handler, keeping the event's handler list sorted
// ascending by priority with insertion order breaking ties (spec.md §3/§4.5).
func (d *Dispatcher) Register(key Key, modID string, priority int32, filter ProtocolFilter, routePrefix string) uint64 {
	h := &Handler{
		ID:             allocateHandlerID(),
		ModID:          modID,
		Priority:       priority,
		ProtocolFilter: filter,
		RoutePrefix:    routePrefix,
		Key:            key,
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextSeq++
	h.seq = d.nextSeq

	k := key.String()
	list := d.byKey[k]
	list = append(list, h)
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].Priority != list[j].Priority {
			return list[i].Priority < list[j].Priority
		}
		return list[i].seq < list[j].seq
	})
	d.byKey[k] = list
	return h.ID
}

// Unregister removes a single handler by id, reporting whether it was
// found. A second call with the same id always returns false (spec.md §8).
func (d *Dispatcher) Unregister(id uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	for k, list := range d.byKey {
		for i, h := range list {
			if h.ID == id {
				d.byKey[k] = append(list[:i:i], list[i+1:]...)
				return true
			}
		}
	}
	return false
}

// UnregisterMod removes every handler owned by modID across all events.
func (d *Dispatcher) UnregisterMod(modID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for k, list := range d.byKey {
		kept := list[:0:0]
		for _, h := range list {
			if h.ModID != modID {
				kept = append(kept, h)
			}
		}
		d.byKey[k] = kept
	}
}

// HandlersForURI returns, in dispatch order, the RequestUri handlers that
// match uri by protocol filter and route prefix (spec.md §4.5/§8).
func (d *Dispatcher) HandlersForURI(rawURI string) ([]*Handler, error) {
	u, err := url.Parse(rawURI)
	if err != nil {
		return nil, fmt.Errorf("parse uri: %w", err)
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	list := d.byKey[KeySystem(RequestUri).String()]

	out := make([]*Handler, 0, len(list))
	for _, h := range list {
		if !h.ProtocolFilter.Matches(u.Scheme) {
			continue
		}
		if h.RoutePrefix != "" && !strings.HasPrefix(u.Path, h.RoutePrefix) {
			continue
		}
		out = append(out, h)
	}
	return out, nil
}

// HandlersForCustom returns, in dispatch order, the handlers registered
// for a mod-defined custom event name.
func (d *Dispatcher) HandlersForCustom(eventName string) []*Handler {
	d.mu.RLock()
	defer d.mu.RUnlock()
	list := d.byKey[KeyCustom(eventName).String()]
	out := make([]*Handler, len(list))
	copy(out, list)
	return out
}

// RequestSendEvent delivers name/args into the bounded send-event channel,
// awaiting a slot if the channel is full (spec.md §4.5/§5 backpressure).
func (d *Dispatcher) RequestSendEvent(eventName string, args []string) error {
	resp := make(chan error, 1)
	d.sendCh <- SendEventRequest{EventName: eventName, Args: args, Response: resp}
	return <-resp
}

// TakeSendEventReceiver returns the channel the main loop drains, exactly
// once at startup; subsequent calls return nil.
func (d *Dispatcher) TakeSendEventReceiver() <-chan SendEventRequest {
	if d.taken.Swap(true) {
		return nil
	}
	return d.sendCh
}
