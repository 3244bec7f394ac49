package manifest

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/stamforge/modhost/internal/errs"
)

// No semver library appears anywhere in the retrieved example corpus, so
// this comparator is a small hand-rolled implementation scoped to exactly
// what spec.md §4.2 needs: MAJOR.MINOR.PATCH[-pre] parsing and ordering.

// version is a parsed semver.
type version struct {
	major, minor, patch int
	pre                 string
}

func parseVersion(s string) (version, error) {
	s = strings.TrimSpace(s)
	core, pre, _ := strings.Cut(s, "-")
	parts := strings.Split(core, ".")
	if len(parts) != 3 {
		return version{}, fmt.Errorf("invalid version %q: expected MAJOR.MINOR.PATCH", s)
	}
	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return version{}, fmt.Errorf("invalid version %q: %w", s, err)
		}
		nums[i] = n
	}
	return version{major: nums[0], minor: nums[1], patch: nums[2], pre: pre}, nil
}

// compare returns -1, 0, 1 comparing a to b, ignoring pre-release strings
// (spec.md only requires ordering on the numeric triple for range checks).
func (a version) compare(b version) int {
	switch {
	case a.major != b.major:
		return cmpInt(a.major, b.major)
	case a.minor != b.minor:
		return cmpInt(a.minor, b.minor)
	case a.patch != b.patch:
		return cmpInt(a.patch, b.patch)
	default:
		return 0
	}
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// CompatibleMajorMinor reports whether two version strings share the same
// major.minor, per spec.md §6's versioning policy and §8's boundary cases
// ("1.2.3" vs "1.2.9" compatible; vs "1.3.0"/"2.2.3" not).
func CompatibleMajorMinor(a, b string) (bool, error) {
	va, err := parseVersion(a)
	if err != nil {
		return false, err
	}
	vb, err := parseVersion(b)
	if err != nil {
		return false, err
	}
	return va.major == vb.major && va.minor == vb.minor, nil
}

// Constraint is a parsed `requires` value: either an exact version
// ("X" -> min=max=X) or an inclusive range ("X,Y" -> [X,Y]).
type Constraint struct {
	Min, Max string
}

// ParseConstraint parses the `"X"` / `"X,Y"` grammar of spec.md §4.2.
func ParseConstraint(raw string) (Constraint, error) {
	raw = strings.TrimSpace(raw)
	if min, max, ok := strings.Cut(raw, ","); ok {
		return Constraint{Min: strings.TrimSpace(min), Max: strings.TrimSpace(max)}, nil
	}
	return Constraint{Min: raw, Max: raw}, nil
}

// Satisfies reports whether actual falls within [Min, Max] inclusive.
func (c Constraint) Satisfies(actual string) (bool, error) {
	va, err := parseVersion(actual)
	if err != nil {
		return false, err
	}
	vmin, err := parseVersion(c.Min)
	if err != nil {
		return false, err
	}
	vmax, err := parseVersion(c.Max)
	if err != nil {
		return false, err
	}
	return va.compare(vmin) >= 0 && va.compare(vmax) <= 0, nil
}

// HostVersions carries the versions a dependency key may resolve against.
type HostVersions struct {
	Client string
	Server string
	Game   string
}

// PeerLookup resolves a peer mod_id to its manifest version.
type PeerLookup func(modID string) (version string, ok bool)

// CheckRequires validates every entry in m.Requires per spec.md §4.2,
// skipping @client checks when skipClient is true (server-side resolution).
func CheckRequires(modID string, requires map[string]string, hosts HostVersions, skipClient bool, peers PeerLookup) error {
	for dep, raw := range requires {
		constraint, err := ParseConstraint(raw)
		if err != nil {
			return errs.WrapWithMetadata(errs.CodeDependencyError, "invalid constraint",
				map[string]string{"mod_id": modID, "dep": dep}, err)
		}

		var actual string
		switch dep {
		case "@client":
			if skipClient {
				continue
			}
			actual = hosts.Client
		case "@server":
			actual = hosts.Server
		case "@game":
			actual = hosts.Game
		default:
			v, ok := peers(dep)
			if !ok {
				return errs.WithMetadata(errs.CodeDependencyError, "required peer mod not present",
					map[string]string{"mod_id": modID, "dep": dep})
			}
			actual = v
		}

		ok, err := constraint.Satisfies(actual)
		if err != nil {
			return errs.WrapWithMetadata(errs.CodeDependencyError, "invalid version",
				map[string]string{"mod_id": modID, "dep": dep}, err)
		}
		if !ok {
			return errs.WithMetadata(errs.CodeDependencyError, "dependency version out of range",
				map[string]string{"mod_id": modID, "dep": dep, "constraint": raw, "actual": actual})
		}
	}
	return nil
}
