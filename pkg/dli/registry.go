package dli

import (
	"fmt"
	"strings"
)

// registry holds the bidirectional name/outlet mapping reported by the
// device. A registry is never mutated after construction; Reload() swaps in
// a freshly built one, so concurrent readers observe either the old or the
// new mapping but never a partial update.
type registry struct {
	byName map[string]outletEntry // normalized (lower-cased) name -> entry
	names  []string               // canonical names in device index order
}

type outletEntry struct {
	name   string // name with the original case reported by the device
	outlet int    // 0-indexed outlet number
}

func newRegistry(names []string) *registry {
	r := &registry{
		byName: make(map[string]outletEntry, len(names)),
		names:  names,
	}
	for i, name := range names {
		r.byName[strings.ToLower(name)] = outletEntry{name: name, outlet: i}
	}
	return r
}

func (r *registry) size() int {
	return len(r.names)
}

// nameOf returns the canonical name for a 0-indexed outlet number.
func (r *registry) nameOf(outlet int) (string, bool) {
	if outlet < 0 || outlet >= len(r.names) {
		return "", false
	}
	return r.names[outlet], true
}

// lookup does a case-insensitive exact match of an outlet name.
func (r *registry) lookup(name string) (int, bool) {
	entry, ok := r.byName[strings.ToLower(name)]
	return entry.outlet, ok
}

// resolve maps an outlet name to its 0-indexed outlet number. The match is
// case-insensitive. With fuzzy set, a name that does not match exactly is
// still accepted when it is a prefix of exactly one registered name; fuzzy
// queries must be at least two characters long.
func (r *registry) resolve(name string, fuzzy bool) (int, error) {
	if outlet, ok := r.lookup(name); ok {
		return outlet, nil
	}

	if !fuzzy {
		return 0, fmt.Errorf("cannot find a matching outlet for %q: %w", name, ErrOutletNotFound)
	}
	if len(name) < 2 {
		return 0, ErrFuzzyTooShort
	}

	var (
		matches   int
		lastMatch int
	)
	prefix := strings.ToLower(name)
	for _, entry := range r.byName {
		if strings.HasPrefix(strings.ToLower(entry.name), prefix) {
			matches++
			lastMatch = entry.outlet
		}
	}

	if matches == 0 {
		return 0, fmt.Errorf("cannot find a matching outlet for %q: %w", name, ErrOutletNotFound)
	}
	if matches > 1 {
		return 0, fmt.Errorf("found %d outlet matches for %q: %w", matches, name, ErrAmbiguousOutlet)
	}
	return lastMatch, nil
}
