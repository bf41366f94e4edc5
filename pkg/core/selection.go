package core

import (
	"slices"
	"strings"
)

// SourceSelection is a parsed "sources" filter. Included keeps first-seen
// order; both lists are lowercased and free of duplicates.
type SourceSelection struct {
	Included []string
	Excluded []string
}

// ParseSourceSelection splits a comma separated filter where "-key" excludes
// a provider and "key" includes one.
func ParseSourceSelection(raw string) SourceSelection {
	var sel SourceSelection
	if raw == "" {
		return sel
	}
	for _, tok := range strings.Split(raw, ",") {
		if excluded, ok := strings.CutPrefix(tok, "-"); ok {
			sel.Excluded = appendUnique(sel.Excluded, strings.ToLower(excluded))
			continue
		}
		sel.Included = appendUnique(sel.Included, strings.ToLower(tok))
	}
	return sel
}

func appendUnique(list []string, key string) []string {
	if key == "" || slices.Contains(list, key) {
		return list
	}
	return append(list, key)
}

// Resolve turns the selection into the ordered provider keys to query.
// Inclusions take full precedence: when any are present the exclusions are
// ignored. Keys unknown to the registry are dropped.
func (s SourceSelection) Resolve(r *Registry) []string {
	var keys []string
	if len(s.Included) == 0 {
		for _, key := range r.Keys() {
			if !slices.Contains(s.Excluded, key) {
				keys = append(keys, key)
			}
		}
		return keys
	}
	for _, key := range s.Included {
		if r.Has(key) {
			keys = append(keys, key)
		}
	}
	return keys
}

// ResolveSources parses raw and resolves it against the registry.
func ResolveSources(raw string, r *Registry) []string {
	return ParseSourceSelection(raw).Resolve(r)
}
