package capability

import "github.com/stamforge/modhost/internal/locale"

// Locale implements the `locale` capability for one mod by delegating
// to locale.Resolver's three-level lookup.
type Locale struct {
	Resolver locale.Resolver
}

func (l *Locale) Get(id string) string {
	return l.Resolver.Get(id)
}

func (l *Locale) GetWithArgs(id string, args map[string]string) string {
	return l.Resolver.GetWithArgs(id, args)
}
