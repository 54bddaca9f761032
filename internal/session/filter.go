package session

import (
	"strings"
	"time"
)

// QueryFilter narrows session listings by content, project path, and
// start-time window. All bounds are inclusive.
type QueryFilter struct {
	Search  string
	Project string
	Since   *time.Time
	Until   *time.Time
}

func (f *QueryFilter) HasSearch() bool {
	return f != nil && strings.TrimSpace(f.Search) != ""
}

func (f *QueryFilter) HasProject() bool {
	return f != nil && strings.TrimSpace(f.Project) != ""
}

func (f *QueryFilter) HasDateRange() bool {
	return f != nil && (f.Since != nil || f.Until != nil)
}

// Empty reports whether the filter constrains nothing.
func (f *QueryFilter) Empty() bool {
	return !f.HasSearch() && !f.HasProject() && !f.HasDateRange()
}

// SearchTokens splits a query into lowercase whitespace-separated
// tokens. A session matches only when every token appears somewhere in
// its conversation text.
func SearchTokens(query string) []string {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return nil
	}
	tokens := make([]string, 0, len(fields))
	for _, field := range fields {
		tokens = append(tokens, strings.ToLower(field))
	}
	return tokens
}

// TokenMatcher tracks which search tokens have been seen across
// successive chunks of conversation text.
type TokenMatcher struct {
	tokens []string
	found  []bool
	hits   int
}

func NewTokenMatcher(tokens []string) *TokenMatcher {
	return &TokenMatcher{tokens: tokens, found: make([]bool, len(tokens))}
}

// Update scans one chunk of text and reports whether every token has
// now been seen. Empty chunks and empty token sets report false.
func (m *TokenMatcher) Update(text string) bool {
	if len(m.tokens) == 0 || text == "" {
		return false
	}
	lowered := strings.ToLower(text)
	for i, token := range m.tokens {
		if !m.found[i] && strings.Contains(lowered, token) {
			m.found[i] = true
			m.hits++
		}
	}
	return m.hits == len(m.tokens)
}

// Complete reports whether every token has been seen so far.
func (m *TokenMatcher) Complete() bool {
	return m.hits == len(m.tokens)
}

// MatchesProject reports whether the project path contains the query,
// case-insensitively. An empty query matches everything.
func MatchesProject(projectPath, query string) bool {
	if query == "" {
		return true
	}
	return strings.Contains(strings.ToLower(projectPath), strings.ToLower(query))
}

// MatchesDateRange reports whether a start time falls inside the
// inclusive window. Records without a start time never match a bounded
// window.
func MatchesDateRange(start, since, until *time.Time) bool {
	if since == nil && until == nil {
		return true
	}
	if start == nil {
		return false
	}
	s := start.UTC()
	if since != nil && s.Before(since.UTC()) {
		return false
	}
	if until != nil && s.After(until.UTC()) {
		return false
	}
	return true
}
