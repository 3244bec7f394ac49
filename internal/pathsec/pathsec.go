// Package pathsec confines mod-visible filesystem access to a fixed set of
// roots (spec.md §4.3).
package pathsec

import (
	"path/filepath"
	"strings"

	"github.com/stamforge/modhost/internal/errs"
)

// Guard validates paths a mod supplies against its allowed roots.
type Guard struct {
	DataDir   string
	ConfigDir string // optional; empty means no config root is allowed
}

// roots returns the guard's allowed roots in lookup order: data_dir first,
// then config_dir, per spec.md §4.3.
func (g Guard) roots() []string {
	roots := []string{filepath.Clean(g.DataDir)}
	if g.ConfigDir != "" {
		roots = append(roots, filepath.Clean(g.ConfigDir))
	}
	return roots
}

// Resolve validates p without touching the filesystem: relative paths are
// resolved against data_dir then config_dir; absolute paths must already
// live under one of the two roots after lexical normalization. Resolve is
// safe to call before a file exists (it never requires p to exist).
func (g Guard) Resolve(p string) (string, error) {
	if !filepath.IsAbs(p) {
		for _, root := range g.roots() {
			candidate := filepath.Join(root, p)
			if withinRoot(candidate, root) {
				return candidate, nil
			}
		}
		return "", denied(p)
	}

	clean := filepath.Clean(p)
	for _, root := range g.roots() {
		if withinRoot(clean, root) {
			return clean, nil
		}
	}
	return "", denied(p)
}

// ResolveExisting is like Resolve but additionally follows symlinks (when
// they resolve) and re-checks the real path, per spec.md §4.3's "Symlinks,
// when they resolve, are followed and the real path is re-checked."
func (g Guard) ResolveExisting(p string) (string, error) {
	candidate, err := g.Resolve(p)
	if err != nil {
		return "", err
	}
	real, err := filepath.EvalSymlinks(candidate)
	if err != nil {
		// Path doesn't exist yet; the lexical candidate already passed the root check.
		return candidate, nil
	}
	for _, root := range g.roots() {
		if withinRoot(real, root) {
			return real, nil
		}
	}
	return "", denied(p)
}

func withinRoot(candidate, root string) bool {
	if candidate == root {
		return true
	}
	return strings.HasPrefix(candidate, root+string(filepath.Separator))
}

func denied(p string) error {
	return errs.WithMetadata(errs.CodePathDenied,
		"path escapes the allowed data/config roots: access denied",
		map[string]string{"path": p})
}
