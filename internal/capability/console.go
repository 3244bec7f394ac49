// Package capability implements the host side of every API spec.md
// §4.8 exposes to mod scripts: console, system, network, locale, file,
// and the graphic stub. Each type here is pure Go, independent of any
// scripting language; runtime/lua's bindings_*.go files are the thin
// stack-marshalling layer that exposes these to Lua.
package capability

import "log/slog"

// Console logs on behalf of a single mod, attaching the fields spec.md
// §4.8 requires on every record.
type Console struct {
	log *slog.Logger
}

// NewConsole builds a Console whose records carry gameID/runtimeType/modID.
func NewConsole(base *slog.Logger, gameID, runtimeType, modID string) *Console {
	attrs := []any{"runtime_type", runtimeType, "mod_id", modID}
	if gameID != "" {
		attrs = append(attrs, "game_id", gameID)
	}
	return &Console{log: base.With(attrs...)}
}

func (c *Console) Log(message string)   { c.log.Debug(message) }
func (c *Console) Debug(message string) { c.log.Debug(message) }
func (c *Console) Info(message string)  { c.log.Info(message) }
func (c *Console) Warn(message string)  { c.log.Warn(message) }
func (c *Console) Error(message string) { c.log.Error(message) }
