package bootstrap

import (
	"archive/zip"
	"context"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/stamforge/modhost/internal/capability"
	"github.com/stamforge/modhost/internal/registry"
	"github.com/stamforge/modhost/internal/wire"
)

func buildModArchive(t *testing.T, path string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	w := zip.NewWriter(f)
	manifestEntry, err := w.Create("manifest.json")
	if err != nil {
		t.Fatal(err)
	}
	manifestEntry.Write([]byte(`{
		"name": "Mod A",
		"version": "1.0.0",
		"entry_point": "main.lua",
		"mod_type": "library",
		"priority": 0
	}`))

	luaEntry, err := w.Create("main.lua")
	if err != nil {
		t.Fatal(err)
	}
	luaEntry.Write([]byte(`function onAttach() end`))

	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestAttachClientModsDownloadsAndAttaches(t *testing.T) {
	registry.FatalScriptError.Reset()
	t.Cleanup(registry.FatalScriptError.Reset)

	archiveDir := t.TempDir()
	archivePath := filepath.Join(archiveDir, "mod-a.zip")
	buildModArchive(t, archivePath)

	tempDir := t.TempDir()
	net := &capability.Network{
		Stam: func(ctx context.Context, u *url.URL) ([]byte, string, error) {
			data, err := os.ReadFile(archivePath)
			return data, "mod-a.zip", err
		},
		TempFiles: registry.NewTempFileManager(tempDir, nil),
	}

	installDir := t.TempDir()
	mods := []wire.ModInfo{
		{ModID: "mod-a", ModType: "library", DownloadURL: "stam://game1/mod-a"},
	}

	rt, err := AttachClientMods(context.Background(), "game1", installDir, mods, net, slog.Default())
	if err != nil {
		t.Fatalf("AttachClientMods: %v", err)
	}

	info, ok := rt.ModInfo("mod-a")
	if !ok || !info.Loaded {
		t.Fatalf("expected mod-a loaded, got %+v", info)
	}
	if _, err := os.Stat(filepath.Join(installDir, "mod-a", "manifest.json")); err != nil {
		t.Fatalf("expected mod installed on disk: %v", err)
	}
}

func TestAttachClientModsSkipsDownloadWhenAlreadyInstalled(t *testing.T) {
	registry.FatalScriptError.Reset()
	t.Cleanup(registry.FatalScriptError.Reset)

	installDir := t.TempDir()
	modDir := filepath.Join(installDir, "mod-a")
	if err := os.MkdirAll(modDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(modDir, "manifest.json"), []byte(`{
		"name": "Mod A",
		"version": "1.0.0",
		"entry_point": "main.lua",
		"mod_type": "library",
		"priority": 0
	}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(modDir, "main.lua"), []byte(`function onAttach() end`), 0o644); err != nil {
		t.Fatal(err)
	}

	net := &capability.Network{
		Stam: func(ctx context.Context, u *url.URL) ([]byte, string, error) {
			t.Fatal("download should not be attempted for an already-installed mod")
			return nil, "", nil
		},
	}

	mods := []wire.ModInfo{{ModID: "mod-a", ModType: "library"}}
	if _, err := AttachClientMods(context.Background(), "game1", installDir, mods, net, slog.Default()); err != nil {
		t.Fatalf("AttachClientMods: %v", err)
	}
}
