package catalog

import (
	"testing"

	"github.com/cesargomez89/catalogsync/internal/domain"
)

func TestRank(t *testing.T) {
	items := []domain.Channel{
		{ID: 1, Name: "UK | BBC News HD"},
		{ID: 2, Name: "Sky Sports Main Event"},
		{ID: 3, Name: "US | News 12"},
		{ID: 4, Name: "Cartoon Network"},
	}

	tests := []struct {
		name  string
		query string
		limit int
		want  []int64
	}{
		{name: "empty query returns input", query: "", want: []int64{1, 2, 3, 4}},
		{name: "case insensitive", query: "NEWS", want: []int64{3, 1}},
		{name: "limit", query: "news", limit: 1, want: []int64{3}},
		{name: "no match", query: "weather", want: []int64{}},
		{name: "prefix stripped before matching", query: "bbc", want: []int64{1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Rank(tt.query, items, tt.limit)
			if len(got) != len(tt.want) {
				t.Fatalf("Expected %d results, got %d: %+v", len(tt.want), len(got), got)
			}
			for i, id := range tt.want {
				if got[i].ID != id {
					t.Errorf("Result %d: expected id %d, got %d", i, id, got[i].ID)
				}
			}
		})
	}
}
