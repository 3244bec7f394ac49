package game

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stamforge/modhost/internal/errs"
	"github.com/stamforge/modhost/internal/manifest"
	"github.com/stamforge/modhost/internal/registry"
	"github.com/stamforge/modhost/internal/runtime"
)

func newTestRuntime() *Runtime {
	return NewRuntime("g1", runtime.NewManager(), slog.Default())
}

func TestMarkBootstrappedRequiresLoaded(t *testing.T) {
	r := newTestRuntime()
	r.RegisterModInfo(manifest.Info{ID: "mod-a"})

	if err := r.MarkBootstrapped("mod-a"); err == nil {
		t.Fatal("expected error bootstrapping an unloaded mod")
	}

	r.MarkLoaded("mod-a")
	if err := r.MarkBootstrapped("mod-a"); err != nil {
		t.Fatalf("expected bootstrap to succeed once loaded, got %v", err)
	}

	info, _ := r.ModInfo("mod-a")
	if !info.Loaded || !info.Bootstrapped {
		t.Fatalf("expected loaded+bootstrapped, got %+v", info)
	}
}

func TestDispatchRequestURINoHandlersReturnsDefault(t *testing.T) {
	r := newTestRuntime()
	resp, err := r.DispatchRequestURI(context.Background(), "stam://h/x")
	if err != nil {
		t.Fatalf("DispatchRequestURI: %v", err)
	}
	if resp.Status != 404 || resp.Handled {
		t.Fatalf("expected default 404 response, got %+v", resp)
	}
}

func TestTakeShutdownReceiverOnce(t *testing.T) {
	r := newTestRuntime()
	if r.TakeShutdownReceiver() == nil {
		t.Fatal("expected receiver on first take")
	}
	if r.TakeShutdownReceiver() != nil {
		t.Fatal("expected nil on second take")
	}
}

func TestPollFatalReflectsRegistry(t *testing.T) {
	r := newTestRuntime()
	if r.PollFatal() {
		t.Fatal("expected no fatal error initially")
	}
	_ = errs.New(errs.CodeFatalScriptError, "x") // constructing doesn't set the flag; only runtime/lua does
	if r.PollFatal() {
		t.Fatal("expected constructing an error not to set the fatal flag")
	}

	registry.FatalScriptError.Set()
	t.Cleanup(registry.FatalScriptError.Reset)
	if !r.PollFatal() {
		t.Fatal("expected PollFatal to report the registry flag once set")
	}
}
