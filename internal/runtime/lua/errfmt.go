package lua

import (
	"fmt"
	"strings"

	"github.com/stamforge/modhost/internal/errs"
	"github.com/stamforge/modhost/internal/registry"
)

// scriptError is the {name, message, stack} shape spec.md §4.6 asks
// script errors to decompose into, regardless of host language.
type scriptError struct {
	Name    string
	Message string
	Stack   string
}

// decomposeError turns a go-lua protected-call error into a scriptError
// wrapped as errs.CodeFatalScriptError, and sets registry.FatalScriptError
// for every error it receives: a load error, a lifecycle hook error, an
// event dispatch error and a timer callback error alike. An error the
// script catches itself with pcall never reaches it.
func decomposeError(modID string, cause error) error {
	se := parseLuaError(cause)
	registry.FatalScriptError.Set()

	return errs.WrapWithMetadata(errs.CodeFatalScriptError, fmt.Sprintf("mod %q script error: %s", modID, se.Message),
		map[string]string{
			"mod_id":      modID,
			"error_name":  se.Name,
			"error_stack": se.Stack,
		}, cause)
}

// parseLuaError splits a go-lua error's message on the first ": ", the
// conventional "chunkname:line: message" format lua.Errorf and runtime
// errors both use, into a name/message/stack triple.
func parseLuaError(err error) scriptError {
	msg := err.Error()
	if idx := strings.Index(msg, ": "); idx >= 0 {
		return scriptError{
			Name:    "LuaRuntimeError",
			Message: msg[idx+2:],
			Stack:   msg[:idx],
		}
	}
	return scriptError{Name: "LuaRuntimeError", Message: msg}
}
