// Package runtime defines the language-agnostic RuntimeAdapter contract
// (spec.md §4.6/§9) and the manager that multiplexes adapters by mod
// language (spec.md §4.7).
package runtime

import "context"

// Type identifies which language a mod's entry point is written in.
type Type string

const (
	TypeLua        Type = "lua"
	TypeJavaScript Type = "javascript" // reserved, see SPEC_FULL.md §4.6
	TypeLuaCS      Type = "csharp"     // reserved
	TypeRust       Type = "rust"       // reserved
	TypeCpp        Type = "cpp"        // reserved
)

// ReturnValue is the tagged union a script function's return coerces
// into (spec.md §9).
type ReturnValue struct {
	Kind ReturnKind
	Str  string
	Bool bool
	Int  int64
}

// ReturnKind tags which field of ReturnValue is meaningful.
type ReturnKind int

const (
	ReturnNone ReturnKind = iota
	ReturnString
	ReturnBool
	ReturnInt
)

// Adapter is the capability set every language runtime implements
// (spec.md §9: "RuntimeAdapter is a capability set... implemented by one
// variant per language").
type Adapter interface {
	// LoadMod creates an isolated per-mod context, wires the capability
	// bindings, and evaluates the entry point at path.
	LoadMod(ctx context.Context, modID, path string) error

	// CallModFunction invokes fnName with no arguments if it exists;
	// absence is not an error (lifecycle hooks are optional).
	CallModFunction(ctx context.Context, modID, fnName string) error

	// CallModFunctionWithReturn is CallModFunction plus return coercion.
	CallModFunctionWithReturn(ctx context.Context, modID, fnName string) (ReturnValue, error)

	// UnloadMod releases the per-mod context and its handler map.
	UnloadMod(modID string) error
}
