package registry

import "sync/atomic"

// FatalFlag is the process-wide "an unhandled rejection happened" signal
// (spec.md §3's FATAL_JS_ERROR). Polled by the lifecycle driver after
// every onAttach/onBootstrap call.
type FatalFlag struct {
	set atomic.Bool
}

// FatalScriptError is the process-wide fatal flag.
var FatalScriptError = &FatalFlag{}

// Set marks the flag. Safe to call from any runtime's goroutine.
func (f *FatalFlag) Set() {
	f.set.Store(true)
}

// Poll reports whether the flag is set, without clearing it.
func (f *FatalFlag) Poll() bool {
	return f.set.Load()
}

// Reset clears the flag, used between bootstrap attempts in tests.
func (f *FatalFlag) Reset() {
	f.set.Store(false)
}
