package capability

import (
	"encoding/json"
	"errors"
	"os"

	"github.com/stamforge/modhost/internal/errs"
	"github.com/stamforge/modhost/internal/pathsec"
)

// JSONResult is the {Success(json) | UseDefault | Error(msg)} result
// file.read_json returns to scripts (spec.md §4.8); it is never thrown.
type JSONResult struct {
	Kind    JSONResultKind
	JSON    string
	Message string
}

type JSONResultKind int

const (
	JSONUseDefault JSONResultKind = iota
	JSONSuccess
	JSONError
)

// File implements the `file` capability.
type File struct {
	Guard *pathsec.Guard
}

// ReadJSON validates path through the path-security guard, then applies
// spec.md §4.8's three outcomes. Only the "utf-8" encoding is accepted.
func (f *File) ReadJSON(path, encoding string) JSONResult {
	if encoding != "utf-8" {
		return JSONResult{Kind: JSONError, Message: "only utf-8 encoding is supported"}
	}

	resolved, err := f.Guard.Resolve(path)
	if err != nil {
		return JSONResult{Kind: JSONError, Message: err.Error()}
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return JSONResult{Kind: JSONUseDefault}
		}
		return JSONResult{Kind: JSONError, Message: err.Error()}
	}
	if len(data) == 0 {
		return JSONResult{Kind: JSONUseDefault}
	}

	if !json.Valid(data) {
		return JSONResult{Kind: JSONError, Message: "invalid JSON"}
	}
	return JSONResult{Kind: JSONSuccess, JSON: string(data)}
}

// toScriptError is used by bindings that need a raw errs.Error for
// other capability calls that do propagate as thrown errors.
func toScriptError(err error) *errs.Error {
	var e *errs.Error
	if errors.As(err, &e) {
		return e
	}
	return errs.Wrap(errs.CodeScriptError, "unexpected error", err)
}
