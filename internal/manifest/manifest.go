// Package manifest parses and validates mod manifests (spec.md §3, §4.2).
package manifest

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/stamforge/modhost/internal/errs"
)

//go:embed manifest.schema.json
var manifestSchemaJSON []byte

// ModType is the declared category of a mod.
type ModType string

const (
	// ModTypeBootstrap mods receive an onBootstrap call after attach.
	ModTypeBootstrap ModType = "bootstrap"
	// ModTypeLibrary mods are attached but never bootstrapped.
	ModTypeLibrary ModType = "library"
)

// Manifest is the parsed contents of manifest.json.
type Manifest struct {
	Name        string            `json:"name"`
	Version     string            `json:"version"`
	Description string            `json:"description"`
	EntryPoint  string            `json:"entry_point,omitempty"`
	Priority    int32             `json:"priority"`
	ModType     ModType           `json:"mod_type,omitempty"`
	Requires    map[string]string `json:"requires,omitempty"`
}

// schema is loaded from the checked-in manifest.schema.json once at
// package init and reused for every Parse call, rather than derived
// from the Manifest struct tags: the schema is the source of truth a
// mod author can read without a Go toolchain.
var schema = mustLoadSchema()

func mustLoadSchema() *jsonschema.Resolved {
	var s jsonschema.Schema
	if err := json.Unmarshal(manifestSchemaJSON, &s); err != nil {
		panic(fmt.Sprintf("manifest: parse manifest.schema.json: %v", err))
	}
	resolved, err := s.Resolve(nil)
	if err != nil {
		panic(fmt.Sprintf("manifest: resolve manifest.schema.json: %v", err))
	}
	return resolved
}

// Side selects which of a mod's two possible manifests to read.
type Side string

const (
	SideClient Side = "client"
	SideServer Side = "server"
)

// Resolve implements the side-resolution rule of spec.md §4.2: prefer
// D/<side>/manifest.json, falling back to D/manifest.json.
func Resolve(modDir string, side Side) (*Manifest, string, error) {
	sidePath := filepath.Join(modDir, string(side), "manifest.json")
	if path, err := statManifest(sidePath); err == nil {
		m, err := Parse(path)
		return m, path, err
	}
	basePath := filepath.Join(modDir, "manifest.json")
	m, err := Parse(basePath)
	return m, basePath, err
}

func statManifest(path string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		return "", err
	}
	return path, nil
}

// Parse reads and schema-validates a manifest.json file.
func Parse(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrap(errs.CodeManifestError, "read manifest", err)
	}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errs.Wrap(errs.CodeManifestError, "parse manifest json", err)
	}
	if err := schema.Validate(raw); err != nil {
		return nil, errs.WrapWithMetadata(errs.CodeManifestError, "manifest failed schema validation",
			map[string]string{"path": path}, err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errs.Wrap(errs.CodeManifestError, "decode manifest", err)
	}
	if strings.TrimSpace(m.Name) == "" {
		return nil, errs.New(errs.CodeManifestError, "manifest name is required")
	}
	return &m, nil
}

// Serialize writes a Manifest back to canonical JSON, used by the
// round-trip property in spec.md §8.
func Serialize(m *Manifest) ([]byte, error) {
	return json.Marshal(m)
}
