// Package locale implements the three-level message lookup spec.md §4.8
// describes for the `locale` capability: a mod's own catalog for the
// caller's current locale, then that mod's catalog for its fallback
// locale, then the host-wide catalog. Message files are a small
// `key = "value"` format (not full Fluent, which spec.md explicitly
// scopes out at §1 — only the lookup contract is implemented here),
// grounded on the teacher's line-oriented catalog parser.
package locale

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/language"
)

// Catalog holds one set of key/value messages for a single locale tag.
type Catalog struct {
	Tag      string
	Messages map[string]string
}

// ParseFile reads a "key = \"value\"" message file, one entry per line,
// blank lines and "#"-prefixed comments ignored.
func ParseFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	c := &Catalog{Messages: make(map[string]string)}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, err := parseEntry(line)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		c.Messages[key] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return c, nil
}

func parseEntry(line string) (string, string, error) {
	eq := strings.Index(line, "=")
	if eq < 0 {
		return "", "", fmt.Errorf("missing '=' in %q", line)
	}
	key := strings.TrimSpace(line[:eq])
	if key == "" {
		return "", "", fmt.Errorf("blank key in %q", line)
	}
	raw := strings.TrimSpace(line[eq+1:])
	value, err := strconv.Unquote(raw)
	if err != nil {
		return "", "", fmt.Errorf("unquote value for %q: %w", key, err)
	}
	return key, value, nil
}

// NormalizeTag parses and canonicalizes a locale identifier the way the
// teacher's catalog.Register does, so "en_us" and "en-US" hit the same
// bucket.
func NormalizeTag(raw string) (string, error) {
	tag, err := language.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse locale tag %q: %w", raw, err)
	}
	return tag.String(), nil
}

// Get returns the message for key, or false if absent.
func (c *Catalog) Get(key string) (string, bool) {
	if c == nil {
		return "", false
	}
	v, ok := c.Messages[key]
	return v, ok
}
