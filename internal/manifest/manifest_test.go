package manifest

import (
	"os"
	"path/filepath"
	"testing"
)

func writeManifest(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "manifest.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseValidManifest(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, `{
		"name": "Mod A",
		"version": "1.2.3",
		"entry_point": "main.lua",
		"mod_type": "bootstrap",
		"priority": 5
	}`)

	m, err := Parse(path)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if m.Name != "Mod A" || m.Version != "1.2.3" || m.ModType != ModTypeBootstrap {
		t.Fatalf("got %+v", m)
	}
}

func TestParseRejectsUnknownField(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, `{
		"name": "Mod A",
		"version": "1.0.0",
		"unexpected_field": true
	}`)

	if _, err := Parse(path); err == nil {
		t.Fatal("expected schema validation to reject an unknown field")
	}
}

func TestParseRejectsMissingVersion(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, `{"name": "Mod A"}`)

	if _, err := Parse(path); err == nil {
		t.Fatal("expected schema validation to reject a missing version")
	}
}

func TestParseRejectsEmptyName(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, `{"name": "", "version": "1.0.0"}`)

	if _, err := Parse(path); err == nil {
		t.Fatal("expected empty name to be rejected")
	}
}

func TestResolvePrefersSideSpecificManifest(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "client"), 0o755); err != nil {
		t.Fatal(err)
	}
	writeManifest(t, dir, `{"name": "Base", "version": "1.0.0"}`)
	writeManifest(t, filepath.Join(dir, "client"), `{"name": "Client Override", "version": "1.0.0"}`)

	m, path, err := Resolve(dir, SideClient)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if m.Name != "Client Override" {
		t.Fatalf("expected side-specific manifest, got %+v (%s)", m, path)
	}
}

func TestResolveFallsBackToBaseManifest(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `{"name": "Base", "version": "1.0.0"}`)

	m, _, err := Resolve(dir, SideServer)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if m.Name != "Base" {
		t.Fatalf("got %+v", m)
	}
}
