package capability

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stamforge/modhost/internal/event"
	"github.com/stamforge/modhost/internal/manifest"
)

func TestSystemGetModsSortsLoadedFirst(t *testing.T) {
	sys := &System{
		Mods: func() []manifest.Info {
			return []manifest.Info{
				{ID: "c", Loaded: false, Priority: 1},
				{ID: "a", Loaded: true, Priority: 5},
				{ID: "b", Loaded: true, Priority: 1},
			}
		},
	}

	got := sys.GetMods()
	if len(got) != 3 || got[0].ID != "b" || got[1].ID != "a" || got[2].ID != "c" {
		t.Fatalf("unexpected order: %+v", got)
	}
}

func TestSystemRegisterUnregisterEvent(t *testing.T) {
	sys := &System{Dispatcher: event.NewDispatcher()}
	id := sys.RegisterEvent(event.KeyCustom("ping"), "mod-a", 0, event.All, "")
	if len(sys.Dispatcher.HandlersForCustom("ping")) != 1 {
		t.Fatal("expected handler registered")
	}
	if !sys.UnregisterEvent(id) {
		t.Fatal("expected unregister to succeed")
	}
	if sys.UnregisterEvent(id) {
		t.Fatal("expected second unregister to fail")
	}
}

func TestSystemAttachModWithoutRequesterReturnsNotImplemented(t *testing.T) {
	sys := &System{}
	if err := sys.AttachMod(nil, "mod-a"); err == nil {
		t.Fatal("expected error when Attach is not wired")
	}
}

func TestSystemExitProcessInvokesOverride(t *testing.T) {
	var got int
	sys := &System{Exit: func(code int) { got = code }}
	sys.ExitProcess(7)
	if got != 7 {
		t.Fatalf("got %d", got)
	}
}

func TestInstallModFromPathExtractsFiles(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "mod.zip")
	writeZip(t, archivePath, map[string]string{
		"manifest.json": `{"id":"mod-a"}`,
		"scripts/main.lua": "return true",
	})

	destDir := filepath.Join(dir, "install")
	installPath, err := InstallModFromPath(archivePath, destDir, "mod-a")
	if err != nil {
		t.Fatalf("InstallModFromPath: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(installPath, "manifest.json"))
	if err != nil {
		t.Fatalf("read extracted file: %v", err)
	}
	if string(got) != `{"id":"mod-a"}` {
		t.Fatalf("got %q", got)
	}
}

func TestInstallModFromPathRejectsZipSlip(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "evil.zip")
	writeZip(t, archivePath, map[string]string{
		"../../escape.txt": "pwned",
	})

	destDir := filepath.Join(dir, "install")
	if _, err := InstallModFromPath(archivePath, destDir, "mod-a"); err == nil {
		t.Fatal("expected zip-slip entry to be rejected")
	}
}

func writeZip(t *testing.T, path string, files map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	w := zip.NewWriter(f)
	for name, content := range files {
		entry, err := w.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := entry.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
}
