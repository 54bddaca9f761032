package session

import (
	"strings"
)

// Parser reads one tool's on-disk conversation logs.
type Parser interface {
	// ToolKey returns the stable identifier used in filters and the index.
	ToolKey() string

	// ToolName returns the human-readable tool name.
	ToolName() string

	// ListFiles returns every candidate log file for this tool. The
	// result is empty, not an error, when the tool has never run.
	ListFiles() ([]string, error)

	// ParseFile reads a single log into a Record. It returns a nil
	// record when the session has no manual user input or fails the
	// filter.
	ParseFile(path string, filter *QueryFilter) (*Record, error)

	// Scan lists sessions straight from disk, newest first. A
	// non-positive limit means unlimited.
	Scan(filter *QueryFilter, limit int) ([]*Record, error)

	// SearchText extracts the full searchable conversation text used to
	// populate the index.
	SearchText(path string) string

	// ResumeCommand returns the shell command that reopens a session.
	ResumeCommand(sessionID string) string

	// WatchRoot returns the directory tree holding this tool's logs and
	// how many levels of subdirectories new files can appear under.
	WatchRoot() (string, int)
}

// DefaultParsers returns the supported parsers in display order. Empty
// directory arguments select each tool's standard location.
func DefaultParsers(claudeDir, codexDir string) []Parser {
	return []Parser{
		NewClaudeParser(claudeDir),
		NewCodexParser(codexDir),
	}
}

// ParserFor finds the parser for a tool key.
func ParserFor(parsers []Parser, tool string) (Parser, bool) {
	key := strings.ToLower(strings.TrimSpace(tool))
	for _, p := range parsers {
		if p.ToolKey() == key {
			return p, true
		}
	}
	return nil, false
}

// passesFilter applies the project, date-range, and search-token checks
// that decide whether a parsed record survives the filter. Token checks
// use the matcher fed during parsing so assistant text counts too.
func passesFilter(rec *Record, filter *QueryFilter, tokens []string, matcher *TokenMatcher) bool {
	if filter == nil {
		return true
	}
	if filter.HasProject() && !MatchesProject(rec.ProjectPath, strings.TrimSpace(filter.Project)) {
		return false
	}
	if filter.HasDateRange() && !MatchesDateRange(rec.StartTime, filter.Since, filter.Until) {
		return false
	}
	if len(tokens) > 0 && !matcher.Complete() {
		return false
	}
	return true
}

// searchTokensFor builds the token list for a filter, or nil when the
// filter has no search component.
func searchTokensFor(filter *QueryFilter) []string {
	if !filter.HasSearch() {
		return nil
	}
	return SearchTokens(filter.Search)
}
