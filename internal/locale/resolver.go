package locale

import "strings"

// bidiIsolates are the Unicode directional-isolate marks a Fluent-style
// formatter wraps interpolated values in; spec.md §4.8 asks for them to
// be stripped from lookup results since this host doesn't render bidi
// text through a formatter.
const bidiIsolates = "⁦⁧⁨⁩"

// Strip removes bidi-isolate characters from s.
func Strip(s string) string {
	if !strings.ContainsAny(s, bidiIsolates) {
		return s
	}
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(bidiIsolates, r) {
			return -1
		}
		return r
	}, s)
}

// Resolver answers locale.get/get_with_args for one mod: its own
// catalogs for the caller's current and fallback locale, then the
// host-wide catalog shared by every mod in the game.
type Resolver struct {
	ModCurrent  *Catalog
	ModFallback *Catalog
	Host        *Catalog
}

// Get implements the three-level lookup order from spec.md §4.8:
// mod-local current -> mod-local fallback -> global host. A miss at
// every level returns "[id]", never an error — missing translations
// must never crash a script.
func (r Resolver) Get(key string) string {
	if v, ok := r.ModCurrent.Get(key); ok {
		return Strip(v)
	}
	if v, ok := r.ModFallback.Get(key); ok {
		return Strip(v)
	}
	if v, ok := r.Host.Get(key); ok {
		return Strip(v)
	}
	return "[" + key + "]"
}

// GetWithArgs is Get plus "{name}" placeholder substitution from args.
func (r Resolver) GetWithArgs(key string, args map[string]string) string {
	msg := r.Get(key)
	if msg == "["+key+"]" || len(args) == 0 {
		return msg
	}
	for name, value := range args {
		msg = strings.ReplaceAll(msg, "{"+name+"}", value)
	}
	return msg
}
