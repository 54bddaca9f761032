package session

import (
	"time"
	"unicode/utf8"
)

// Tool keys understood by the parser registry and the index.
const (
	ToolClaude = "claude"
	ToolCodex  = "codex"
	ToolAll    = "all"
)

// Record is one conversation log reduced to the fields the viewer and
// the index care about. StartTime and LastTime are nil when the log
// carried no usable timestamps.
type Record struct {
	Tool         string     `json:"tool"`
	SessionID    string     `json:"session_id"`
	ProjectPath  string     `json:"project_path"`
	StartTime    *time.Time `json:"start_time"`
	LastTime     *time.Time `json:"last_time"`
	MessageCount int        `json:"message_count"`
	FirstMessage string     `json:"first_message"`
	Summary      string     `json:"summary,omitempty"`
	FilePath     string     `json:"file_path"`
	Model        string     `json:"model"`

	// FileSize and FileMtime form the change fingerprint the indexer
	// compares against the stored row.
	FileSize  int64 `json:"file_size"`
	FileMtime int64 `json:"file_mtime"`

	// UserMessages holds the manual user inputs in file order. They feed
	// the detail view and the summarizer and are not persisted.
	UserMessages []string `json:"-"`
}

// SortTime returns the timestamp used for newest-first ordering,
// preferring last activity over the start time.
func (r *Record) SortTime() time.Time {
	if r.LastTime != nil {
		return *r.LastTime
	}
	if r.StartTime != nil {
		return *r.StartTime
	}
	return time.Time{}
}

// Title returns the list heading for the record, truncated to 60 runes.
func (r *Record) Title() string {
	if r.FirstMessage == "" {
		return "(untitled)"
	}
	if utf8.RuneCountInString(r.FirstMessage) > 60 {
		return TruncateRunes(r.FirstMessage, 60) + "..."
	}
	return r.FirstMessage
}
