package event

// UriResponse is mutated in place by each matching RequestUri handler; the
// final state after all handlers have run is the response sent back over
// the wire (spec.md §3).
type UriResponse struct {
	Status     uint16
	Handled    bool
	Buffer     []byte
	BufferSize uint64
	Filepath   string
}

// NewUriResponse returns the default {status:404, handled:false} response.
func NewUriResponse() *UriResponse {
	return &UriResponse{Status: 404}
}

// HandlerInvoker calls a single handler's script function against resp.
// The dispatcher itself never touches script state; it only orders calls
// and isolates failures, per spec.md §4.5/§9.
type HandlerInvoker func(h *Handler, resp *UriResponse) error

// FailureLogger records a handler failure without aborting dispatch.
type FailureLogger func(h *Handler, err error)

// DispatchURI runs every RequestUri handler matching rawURI, in priority
// order, against a single shared response object. No handler short-
// circuits the rest; a handler that errors is logged and skipped, and the
// dispatcher continues with the next one (spec.md §4.5).
//
// Resolved open question (spec.md §9): when every handler fails, no
// synthesized {status:500} response is produced — the response stays
// whatever the last *successful* writer left it as (or the untouched
// default if none succeeded). This is "last writer wins among whichever
// handlers succeeded," documented here as the chosen policy rather than
// left ambiguous.
func (d *Dispatcher) DispatchURI(rawURI string, invoke HandlerInvoker, onFailure FailureLogger) (*UriResponse, error) {
	handlers, err := d.HandlersForURI(rawURI)
	if err != nil {
		return nil, err
	}

	resp := NewUriResponse()
	for _, h := range handlers {
		if err := invoke(h, resp); err != nil && onFailure != nil {
			onFailure(h, err)
		}
	}
	return resp, nil
}

// CustomEventResponse is returned after dispatching a custom event to
// every registered handler; no shared mutable object is implied by
// spec.md for custom events, so the dispatcher simply reports how many
// handlers ran and how many failed.
type CustomEventResponse struct {
	Invoked int
	Failed  int
}

// DispatchCustom runs every handler registered for eventName, isolating
// failures the same way DispatchURI does.
func (d *Dispatcher) DispatchCustom(eventName string, invoke func(h *Handler) error, onFailure func(h *Handler, err error)) CustomEventResponse {
	handlers := d.HandlersForCustom(eventName)
	resp := CustomEventResponse{}
	for _, h := range handlers {
		resp.Invoked++
		if err := invoke(h); err != nil {
			resp.Failed++
			if onFailure != nil {
				onFailure(h, err)
			}
		}
	}
	return resp
}
