package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/stamforge/modhost/internal/errs"
)

// ModConfig is one mod's entry under a game's "mods" map (spec.md §6).
type ModConfig struct {
	Enabled        bool     `json:"enabled"`
	Type           string   `json:"type,omitempty"`
	ClientDownload bool     `json:"client_download,omitempty"`
	ExecuteOn      []string `json:"execute_on,omitempty"`
}

// GameConfig is one entry under the server config's "games" map.
type GameConfig struct {
	Name    string               `json:"name"`
	Version string               `json:"version"`
	Enabled bool                 `json:"enabled"`
	Mods    map[string]ModConfig `json:"mods"`
}

// ServerConfig is the top-level server JSON configuration (spec.md §6).
type ServerConfig struct {
	Name      string                `json:"name"`
	LocalIP   string                `json:"local_ip"`
	LocalPort int                   `json:"local_port"`
	LogLevel  string                `json:"log_level"`
	ModsPath  string                `json:"mods_path"`
	TickRate  int                   `json:"tick_rate"`
	PublicURI string                `json:"public_uri,omitempty"`
	Games     map[string]GameConfig `json:"games"`
}

var serverSchema = mustResolveServerSchema()

func mustResolveServerSchema() *jsonschema.Resolved {
	s, err := jsonschema.For[ServerConfig](nil)
	if err != nil {
		panic(fmt.Sprintf("config: derive server schema: %v", err))
	}
	resolved, err := s.Resolve(nil)
	if err != nil {
		panic(fmt.Sprintf("config: resolve server schema: %v", err))
	}
	return resolved
}

// LoadServerConfig reads, schema-validates, and decodes a server config
// file, exactly as spec.md §6 describes.
func LoadServerConfig(path string) (*ServerConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrap(errs.CodeConfigError, "read config file", err)
	}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errs.Wrap(errs.CodeConfigError, "parse config json", err)
	}
	if err := serverSchema.Validate(raw); err != nil {
		return nil, errs.WrapWithMetadata(errs.CodeConfigError, "config failed schema validation",
			map[string]string{"path": path}, err)
	}

	var cfg ServerConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, errs.Wrap(errs.CodeConfigError, "decode config", err)
	}
	return &cfg, nil
}
