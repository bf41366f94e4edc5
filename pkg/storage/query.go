package storage

import (
	"strconv"
	"strings"
)

// MaxRows caps the number of entries a single lookup returns.
const MaxRows = 100

// LookupQuery describes one entries lookup.
type LookupQuery struct {
	// Term must equal the entry expression exactly.
	Term string
	// Reading, when non-empty, restricts results to entries with that reading
	// or with no reading at all.
	Reading string
	// Sources restricts the provider keys. Empty means no restriction.
	Sources []string
	// Ranking orders results by provider: the position of a source in this
	// list is its rank, sources not listed sort last.
	Ranking []string
	// Limit overrides MaxRows when positive and smaller.
	Limit int
}

// BuildLookup renders q as SQL with positional placeholders. Every caller
// supplied value is returned in args, never interpolated into the text.
func BuildLookup(q LookupQuery) (string, []any) {
	var b strings.Builder
	args := make([]any, 0, 3+len(q.Sources)+len(q.Ranking))

	b.WriteString("SELECT source, speaker, display, file, expression, reading FROM entries WHERE expression = ?")
	args = append(args, q.Term)

	if len(q.Sources) > 0 {
		b.WriteString(" AND source IN (")
		b.WriteString(placeholders(len(q.Sources)))
		b.WriteString(")")
		for _, s := range q.Sources {
			args = append(args, s)
		}
	}

	if q.Reading != "" {
		b.WriteString(" AND (reading IS NULL OR reading = ?)")
		args = append(args, q.Reading)
	}

	b.WriteString(" ORDER BY ")
	if len(q.Ranking) > 0 {
		b.WriteString("CASE source")
		for i, s := range q.Ranking {
			b.WriteString(" WHEN ? THEN ")
			b.WriteString(strconv.Itoa(i + 1))
			args = append(args, s)
		}
		b.WriteString(" ELSE ")
		b.WriteString(strconv.Itoa(len(q.Ranking) + 1))
		b.WriteString(" END, ")
	}
	b.WriteString("speaker, reading LIMIT ?")

	limit := MaxRows
	if q.Limit > 0 && q.Limit < MaxRows {
		limit = q.Limit
	}
	args = append(args, limit)

	return b.String(), args
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

// RankOrder returns requested followed by every key of all that is not in
// requested, preserving the order of both.
func RankOrder(requested, all []string) []string {
	seen := make(map[string]bool, len(requested))
	order := make([]string, 0, len(all)+len(requested))
	for _, key := range requested {
		if !seen[key] {
			seen[key] = true
			order = append(order, key)
		}
	}
	for _, key := range all {
		if !seen[key] {
			seen[key] = true
			order = append(order, key)
		}
	}
	return order
}
