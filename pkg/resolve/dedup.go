package resolve

import (
	"strings"

	"github.com/rubiojr/yomiaudio/pkg/core"
)

// FamilyMembers returns the configured provider keys starting with prefix.
func FamilyMembers(r *core.Registry, prefix string) map[string]bool {
	members := make(map[string]bool)
	if prefix == "" {
		return members
	}
	for _, key := range r.Keys() {
		if strings.HasPrefix(key, prefix) {
			members[key] = true
		}
	}
	return members
}

// dedupKey identifies a recording regardless of which family member holds it.
// The display label is not part of the key.
func dedupKey(e core.AudioEntry) string {
	return e.Expression + "|" + e.ReadingOrEmpty() + "|" + e.SpeakerOrEmpty()
}

// DedupFamily drops family entries whose (expression, reading, speaker) was
// already seen earlier in entries. Entries from other providers pass through
// untouched, so ranking order decides which copy survives.
func DedupFamily(entries []core.AudioEntry, family map[string]bool) []core.AudioEntry {
	if len(family) == 0 {
		return entries
	}
	seen := make(map[string]bool)
	out := make([]core.AudioEntry, 0, len(entries))
	for _, e := range entries {
		if !family[e.Source] {
			out = append(out, e)
			continue
		}
		key := dedupKey(e)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, e)
	}
	return out
}
