package session

import (
	"reflect"
	"testing"
	"time"
)

func TestSearchTokens(t *testing.T) {
	tests := []struct {
		query string
		want  []string
	}{
		{"", nil},
		{"   ", nil},
		{"hello", []string{"hello"}},
		{"  Foo  bar ", []string{"foo", "bar"}},
		{"Fix\tLogin\nBug", []string{"fix", "login", "bug"}},
		{"你好 世界", []string{"你好", "世界"}},
	}
	for _, tt := range tests {
		got := SearchTokens(tt.query)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("SearchTokens(%q) = %v, want %v", tt.query, got, tt.want)
		}
	}
}

func TestTokenMatcher(t *testing.T) {
	m := NewTokenMatcher([]string{"hello", "world"})

	if m.Update("") {
		t.Error("empty text must not complete the matcher")
	}
	if m.Update("say HELLO to everyone") {
		t.Error("one of two tokens should not complete the matcher")
	}
	if !m.Update("the World is enough") {
		t.Error("second token should complete the matcher")
	}
	if !m.Complete() {
		t.Error("Complete() should stay true once all tokens were seen")
	}
}

func TestTokenMatcherNoTokens(t *testing.T) {
	m := NewTokenMatcher(nil)
	if m.Update("anything") {
		t.Error("Update with no tokens must report false")
	}
	if !m.Complete() {
		t.Error("Complete with no tokens is vacuously true")
	}
}

func TestMatchesProject(t *testing.T) {
	tests := []struct {
		project string
		query   string
		want    bool
	}{
		{"Users/alice/dev/webapp", "", true},
		{"Users/alice/dev/webapp", "WEBAPP", true},
		{"Users/alice/dev/webapp", "alice/dev", true},
		{"Users/alice/dev/webapp", "bob", false},
		{"", "x", false},
		{"", "", true},
	}
	for _, tt := range tests {
		if got := MatchesProject(tt.project, tt.query); got != tt.want {
			t.Errorf("MatchesProject(%q, %q) = %v, want %v", tt.project, tt.query, got, tt.want)
		}
	}
}

func TestMatchesDateRange(t *testing.T) {
	at := func(s string) *time.Time {
		parsed, err := time.Parse(time.RFC3339, s)
		if err != nil {
			t.Fatal(err)
		}
		return &parsed
	}

	start := at("2026-01-15T10:00:00Z")

	if !MatchesDateRange(start, nil, nil) {
		t.Error("no bounds must match")
	}
	if MatchesDateRange(nil, at("2026-01-01T00:00:00Z"), nil) {
		t.Error("missing start time never matches a bounded window")
	}
	if !MatchesDateRange(start, at("2026-01-15T10:00:00Z"), nil) {
		t.Error("since bound is inclusive")
	}
	if !MatchesDateRange(start, nil, at("2026-01-15T10:00:00Z")) {
		t.Error("until bound is inclusive")
	}
	if MatchesDateRange(start, at("2026-01-15T10:00:01Z"), nil) {
		t.Error("start before since must not match")
	}
	if MatchesDateRange(start, nil, at("2026-01-15T09:59:59Z")) {
		t.Error("start after until must not match")
	}

	// Bounds in other zones compare as instants.
	if !MatchesDateRange(start, at("2026-01-15T18:00:00+08:00"), at("2026-01-15T18:00:00+08:00")) {
		t.Error("equal instants in another zone must match")
	}
}

func TestQueryFilterPredicates(t *testing.T) {
	var nilFilter *QueryFilter
	if nilFilter.HasSearch() || nilFilter.HasProject() || nilFilter.HasDateRange() {
		t.Error("nil filter must constrain nothing")
	}
	if !nilFilter.Empty() {
		t.Error("nil filter is empty")
	}

	if (&QueryFilter{Search: "   "}).HasSearch() {
		t.Error("whitespace-only search is not a search")
	}
	if !(&QueryFilter{Search: "x"}).HasSearch() {
		t.Error("search with content")
	}
	if !(&QueryFilter{Project: "p"}).HasProject() {
		t.Error("project with content")
	}

	now := time.Now()
	if !(&QueryFilter{Since: &now}).HasDateRange() {
		t.Error("since sets a date range")
	}
	if (&QueryFilter{}).HasDateRange() {
		t.Error("no bounds, no range")
	}
	if (&QueryFilter{Project: "p"}).Empty() {
		t.Error("filter with project is not empty")
	}
}
