package lua

import (
	"archive/zip"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stamforge/modhost/internal/capability"
	"github.com/stamforge/modhost/internal/event"
	"github.com/stamforge/modhost/internal/manifest"
	"github.com/stamforge/modhost/internal/registry"
)

func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func consoleBinder() ConsoleBinder {
	return ConsoleBinder{Base: func(c *Context) *capability.Console {
		return capability.NewConsole(slog.Default(), "game1", "lua", c.ModID)
	}}
}

func TestAdapterLoadModRunsEntryPoint(t *testing.T) {
	dir := t.TempDir()
	path := writeScript(t, dir, "main.lua", `
		__loaded = true
		function onAttach()
			console.log("attached")
		end
	`)

	adapter := NewAdapter("game1", slog.Default(), consoleBinder())
	if err := adapter.LoadMod(context.Background(), "mod-a", path); err != nil {
		t.Fatalf("LoadMod: %v", err)
	}
	if err := adapter.CallModFunction(context.Background(), "mod-a", "onAttach"); err != nil {
		t.Fatalf("CallModFunction: %v", err)
	}
}

func TestAdapterCallModFunctionMissingIsNoop(t *testing.T) {
	dir := t.TempDir()
	path := writeScript(t, dir, "main.lua", `__loaded = true`)

	adapter := NewAdapter("game1", slog.Default())
	if err := adapter.LoadMod(context.Background(), "mod-a", path); err != nil {
		t.Fatalf("LoadMod: %v", err)
	}
	if err := adapter.CallModFunction(context.Background(), "mod-a", "onBootstrap"); err != nil {
		t.Fatalf("expected no-op for missing function, got %v", err)
	}
}

func TestAdapterCallModFunctionWithReturnCoercesString(t *testing.T) {
	dir := t.TempDir()
	path := writeScript(t, dir, "main.lua", `
		function getName()
			return "hello"
		end
	`)

	adapter := NewAdapter("game1", slog.Default())
	if err := adapter.LoadMod(context.Background(), "mod-a", path); err != nil {
		t.Fatalf("LoadMod: %v", err)
	}
	rv, err := adapter.CallModFunctionWithReturn(context.Background(), "mod-a", "getName")
	if err != nil {
		t.Fatalf("CallModFunctionWithReturn: %v", err)
	}
	if rv.Str != "hello" {
		t.Fatalf("got %+v", rv)
	}
}

func TestAdapterCallModFunctionWithReturnCoercesInt(t *testing.T) {
	dir := t.TempDir()
	path := writeScript(t, dir, "main.lua", `
		function getValue()
			return 42
		end
	`)

	adapter := NewAdapter("game1", slog.Default())
	if err := adapter.LoadMod(context.Background(), "mod-a", path); err != nil {
		t.Fatalf("LoadMod: %v", err)
	}
	rv, err := adapter.CallModFunctionWithReturn(context.Background(), "mod-a", "getValue")
	if err != nil {
		t.Fatalf("CallModFunctionWithReturn: %v", err)
	}
	if rv.Int != 42 {
		t.Fatalf("got %+v", rv)
	}
}

func TestAdapterScriptErrorSetsFatalFlag(t *testing.T) {
	registry.FatalScriptError.Reset()
	t.Cleanup(registry.FatalScriptError.Reset)

	dir := t.TempDir()
	path := writeScript(t, dir, "main.lua", `
		function onAttach()
			error("boom")
		end
	`)

	adapter := NewAdapter("game1", slog.Default())
	if err := adapter.LoadMod(context.Background(), "mod-a", path); err != nil {
		t.Fatalf("LoadMod: %v", err)
	}
	if err := adapter.CallModFunction(context.Background(), "mod-a", "onAttach"); err == nil {
		t.Fatal("expected error")
	}
	if !registry.FatalScriptError.Poll() {
		t.Fatal("expected FatalScriptError to be set")
	}
}

func TestAdapterUnloadModDropsContext(t *testing.T) {
	dir := t.TempDir()
	path := writeScript(t, dir, "main.lua", `__loaded = true`)

	adapter := NewAdapter("game1", slog.Default())
	if err := adapter.LoadMod(context.Background(), "mod-a", path); err != nil {
		t.Fatalf("LoadMod: %v", err)
	}
	if err := adapter.UnloadMod("mod-a"); err != nil {
		t.Fatalf("UnloadMod: %v", err)
	}
	if err := adapter.CallModFunction(context.Background(), "mod-a", "onAttach"); err == nil {
		t.Fatal("expected error after unload")
	}
}

func TestRequireResolvesAlias(t *testing.T) {
	dir := t.TempDir()
	libDir := filepath.Join(dir, "lib")
	if err := os.MkdirAll(libDir, 0o755); err != nil {
		t.Fatal(err)
	}
	writeScript(t, libDir, "helper.lua", `return { value = 42 }`)
	registry.Aliases.Register("other-mod", filepath.Join(libDir, "helper.lua"))
	t.Cleanup(func() { registry.Aliases.Unregister("other-mod") })

	path := writeScript(t, dir, "main.lua", `
		local helper = require("@other-mod")
		function getValue()
			return helper.value
		end
	`)

	adapter := NewAdapter("game1", slog.Default())
	if err := adapter.LoadMod(context.Background(), "mod-a", path); err != nil {
		t.Fatalf("LoadMod: %v", err)
	}
	rv, err := adapter.CallModFunctionWithReturn(context.Background(), "mod-a", "getValue")
	if err != nil {
		t.Fatalf("CallModFunctionWithReturn: %v", err)
	}
	if rv.Int != 42 {
		t.Fatalf("got %+v", rv)
	}
}

func TestRequireUnresolvedAliasFailsLoad(t *testing.T) {
	dir := t.TempDir()
	path := writeScript(t, dir, "main.lua", `
		local helper = require("@no-such-mod")
	`)

	adapter := NewAdapter("game1", slog.Default())
	if err := adapter.LoadMod(context.Background(), "mod-a", path); err == nil {
		t.Fatal("expected load to fail for unresolved alias")
	}
}

// TestSystemRegisterEventStoresAndInvokesHandler loads a mod that
// registers a custom event handler through system.register_event, then
// invokes the stored function by its handler id, exercising
// StoreEventHandler and InvokeEventHandler end to end via SystemBinder.
func TestSystemRegisterEventStoresAndInvokesHandler(t *testing.T) {
	dir := t.TempDir()
	path := writeScript(t, dir, "main.lua", `
		handlerFired = false
		function onAttach()
			system.register_event("some_event", function(payload)
				handlerFired = true
			end, 0, 0, "")
		end
		function wasFired()
			return handlerFired
		end
	`)

	sys := &capability.System{
		GameID:     "game1",
		Dispatcher: event.NewDispatcher(),
	}
	binder := SystemBinder{Base: func(c *Context) *capability.System { return sys }}

	adapter := NewAdapter("game1", slog.Default(), binder)
	if err := adapter.LoadMod(context.Background(), "mod-a", path); err != nil {
		t.Fatalf("LoadMod: %v", err)
	}
	if err := adapter.CallModFunction(context.Background(), "mod-a", "onAttach"); err != nil {
		t.Fatalf("CallModFunction onAttach: %v", err)
	}

	handlers := sys.Dispatcher.HandlersForCustom("some_event")
	if len(handlers) != 1 {
		t.Fatalf("expected 1 registered handler, got %d", len(handlers))
	}

	mc, err := adapter.context("mod-a")
	if err != nil {
		t.Fatalf("context: %v", err)
	}
	if err := mc.InvokeEventHandler(handlers[0].ID, 0, 0); err != nil {
		t.Fatalf("InvokeEventHandler: %v", err)
	}
	fired, err := adapter.CallModFunctionWithReturn(context.Background(), "mod-a", "wasFired")
	if err != nil {
		t.Fatalf("CallModFunctionWithReturn wasFired: %v", err)
	}
	if !fired.Bool {
		t.Fatal("expected the stored handler to run when invoked by its id")
	}
}

func TestSystemGetModPackagesAndFilePath(t *testing.T) {
	dir := t.TempDir()
	path := writeScript(t, dir, "main.lua", `
		pkgPath = nil
		function onAttach()
			local pkgs = system.get_mod_packages("server")
			for _, p in ipairs(pkgs) do
				if p.mod_id == "mod-b" then
					pkgPath = p.path
				end
			end
		end
		function getPkgPath()
			return pkgPath
		end
		function lookupMissing()
			local p = system.get_mod_package_file_path("no-such-mod", "server")
			if p == nil then
				return "nil"
			end
			return p
		end
	`)

	sys := &capability.System{
		GameID:     "game1",
		Dispatcher: event.NewDispatcher(),
		Packages: func(side manifest.Side) []capability.ModPackageInfo {
			return []capability.ModPackageInfo{{ModID: "mod-b", Side: side, Path: "/mods/mod-b"}}
		},
	}
	binder := SystemBinder{Base: func(c *Context) *capability.System { return sys }}

	adapter := NewAdapter("game1", slog.Default(), binder)
	if err := adapter.LoadMod(context.Background(), "mod-a", path); err != nil {
		t.Fatalf("LoadMod: %v", err)
	}
	if err := adapter.CallModFunction(context.Background(), "mod-a", "onAttach"); err != nil {
		t.Fatalf("CallModFunction onAttach: %v", err)
	}

	rv, err := adapter.CallModFunctionWithReturn(context.Background(), "mod-a", "getPkgPath")
	if err != nil {
		t.Fatalf("getPkgPath: %v", err)
	}
	if rv.Str != "/mods/mod-b" {
		t.Fatalf("got %+v", rv)
	}

	rv, err = adapter.CallModFunctionWithReturn(context.Background(), "mod-a", "lookupMissing")
	if err != nil {
		t.Fatalf("lookupMissing: %v", err)
	}
	if rv.Str != "nil" {
		t.Fatalf("expected nil lookup, got %+v", rv)
	}
}

func TestSystemSendEventDispatchesCustomEvent(t *testing.T) {
	dir := t.TempDir()
	path := writeScript(t, dir, "main.lua", `
		function onAttach()
			system.send_event("ping", {"a", "b"})
		end
	`)

	sys := &capability.System{
		GameID:     "game1",
		Dispatcher: event.NewDispatcher(),
	}
	binder := SystemBinder{Base: func(c *Context) *capability.System { return sys }}

	received := make(chan event.SendEventRequest, 1)
	go func() {
		req := <-sys.Dispatcher.TakeSendEventReceiver()
		req.Response <- nil
		received <- req
	}()

	adapter := NewAdapter("game1", slog.Default(), binder)
	if err := adapter.LoadMod(context.Background(), "mod-a", path); err != nil {
		t.Fatalf("LoadMod: %v", err)
	}
	if err := adapter.CallModFunction(context.Background(), "mod-a", "onAttach"); err != nil {
		t.Fatalf("CallModFunction onAttach: %v", err)
	}

	select {
	case req := <-received:
		if req.EventName != "ping" {
			t.Fatalf("expected event name %q, got %q", "ping", req.EventName)
		}
		if len(req.Args) != 2 || req.Args[0] != "a" || req.Args[1] != "b" {
			t.Fatalf("expected args [a b], got %v", req.Args)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for send_event request")
	}
}

func TestSystemAttachModInvokesRequester(t *testing.T) {
	dir := t.TempDir()
	path := writeScript(t, dir, "main.lua", `
		function onAttach()
			system.attach_mod("mod-c")
		end
	`)

	var requested string
	sys := &capability.System{
		GameID:     "game1",
		Dispatcher: event.NewDispatcher(),
		Attach: func(ctx context.Context, modID string) error {
			requested = modID
			return nil
		},
	}
	binder := SystemBinder{Base: func(c *Context) *capability.System { return sys }}

	adapter := NewAdapter("game1", slog.Default(), binder)
	if err := adapter.LoadMod(context.Background(), "mod-a", path); err != nil {
		t.Fatalf("LoadMod: %v", err)
	}
	if err := adapter.CallModFunction(context.Background(), "mod-a", "onAttach"); err != nil {
		t.Fatalf("CallModFunction onAttach: %v", err)
	}
	if requested != "mod-c" {
		t.Fatalf("expected attach_mod to request %q, got %q", "mod-c", requested)
	}
}

func TestSystemInstallModFromPathExtractsArchive(t *testing.T) {
	srcDir := t.TempDir()
	zipPath := filepath.Join(srcDir, "mod-d.zip")
	writeZip(t, zipPath, map[string]string{"manifest.toml": "mod_id = \"mod-d\"\n"})

	destDir := t.TempDir()
	path := writeScript(t, srcDir, "main.lua", `
		installPath = nil
		function onAttach()
			installPath = system.install_mod_from_path("`+filepath.ToSlash(zipPath)+`", "mod-d")
		end
		function getInstallPath()
			return installPath
		end
	`)

	sys := &capability.System{
		GameID:     "game1",
		Dispatcher: event.NewDispatcher(),
		InstallDir: func() string { return destDir },
	}
	binder := SystemBinder{Base: func(c *Context) *capability.System { return sys }}

	adapter := NewAdapter("game1", slog.Default(), binder)
	if err := adapter.LoadMod(context.Background(), "mod-a", path); err != nil {
		t.Fatalf("LoadMod: %v", err)
	}
	if err := adapter.CallModFunction(context.Background(), "mod-a", "onAttach"); err != nil {
		t.Fatalf("CallModFunction onAttach: %v", err)
	}

	rv, err := adapter.CallModFunctionWithReturn(context.Background(), "mod-a", "getInstallPath")
	if err != nil {
		t.Fatalf("getInstallPath: %v", err)
	}
	want := filepath.Join(destDir, "mod-d")
	if rv.Str != want {
		t.Fatalf("expected install path %q, got %q", want, rv.Str)
	}
	if _, err := os.Stat(filepath.Join(want, "manifest.toml")); err != nil {
		t.Fatalf("expected extracted manifest.toml: %v", err)
	}
}

func writeZip(t *testing.T, path string, files map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	for name, body := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestContextNextHandlerRefIsOddAndMonotonic(t *testing.T) {
	c := &Context{}
	first := c.nextHandlerRef()
	second := c.nextHandlerRef()
	if first%2 == 0 || second%2 == 0 {
		t.Fatalf("expected odd refs, got %d and %d", first, second)
	}
	if second <= first {
		t.Fatalf("expected monotonically increasing refs, got %d then %d", first, second)
	}
}
