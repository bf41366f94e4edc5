package storage

import (
	"reflect"
	"slices"
	"strings"
	"testing"
)

func TestBuildLookup(t *testing.T) {
	tests := []struct {
		name     string
		query    LookupQuery
		wantSQL  string
		wantArgs []any
	}{
		{
			name:     "term only",
			query:    LookupQuery{Term: "猫"},
			wantSQL:  "SELECT source, speaker, display, file, expression, reading FROM entries WHERE expression = ? ORDER BY speaker, reading LIMIT ?",
			wantArgs: []any{"猫", 100},
		},
		{
			name: "sources reading and ranking",
			query: LookupQuery{
				Term:    "猫",
				Reading: "ねこ",
				Sources: []string{"jpod", "nhk16"},
				Ranking: []string{"jpod", "nhk16", "forvo"},
			},
			wantSQL: "SELECT source, speaker, display, file, expression, reading FROM entries WHERE expression = ?" +
				" AND source IN (?,?) AND (reading IS NULL OR reading = ?)" +
				" ORDER BY CASE source WHEN ? THEN 1 WHEN ? THEN 2 WHEN ? THEN 3 ELSE 4 END, speaker, reading LIMIT ?",
			wantArgs: []any{"猫", "jpod", "nhk16", "ねこ", "jpod", "nhk16", "forvo", 100},
		},
		{
			name:     "smaller limit honored",
			query:    LookupQuery{Term: "a", Limit: 5},
			wantSQL:  "SELECT source, speaker, display, file, expression, reading FROM entries WHERE expression = ? ORDER BY speaker, reading LIMIT ?",
			wantArgs: []any{"a", 5},
		},
		{
			name:     "limit never exceeds cap",
			query:    LookupQuery{Term: "a", Limit: 5000},
			wantSQL:  "SELECT source, speaker, display, file, expression, reading FROM entries WHERE expression = ? ORDER BY speaker, reading LIMIT ?",
			wantArgs: []any{"a", 100},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args := BuildLookup(tt.query)
			if sql != tt.wantSQL {
				t.Errorf("sql =\n%s\nwant\n%s", sql, tt.wantSQL)
			}
			if !reflect.DeepEqual(args, tt.wantArgs) {
				t.Errorf("args = %v, want %v", args, tt.wantArgs)
			}
		})
	}
}

func TestBuildLookupNeverInterpolates(t *testing.T) {
	hostile := `x" THEN 0 END; DROP TABLE entries; --`
	sql, args := BuildLookup(LookupQuery{
		Term:    hostile,
		Reading: hostile,
		Sources: []string{hostile},
		Ranking: []string{hostile},
	})
	if strings.Contains(sql, "DROP") || strings.Contains(sql, `"`) {
		t.Fatalf("caller text leaked into query: %s", sql)
	}
	if strings.Count(sql, "?") != len(args) {
		t.Fatalf("placeholder count %d does not match %d args", strings.Count(sql, "?"), len(args))
	}
}

func TestRankOrder(t *testing.T) {
	got := RankOrder([]string{"forvo", "nhk16", "forvo"}, []string{"nhk16", "jpod", "forvo", "taas"})
	want := []string{"forvo", "nhk16", "jpod", "taas"}
	if !slices.Equal(got, want) {
		t.Fatalf("RankOrder = %v, want %v", got, want)
	}
}
