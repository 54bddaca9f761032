// Package summary turns a session's user messages into the short
// description stored alongside the index row.
package summary

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/zbsdsb/ai-session-viewer/internal/session"
)

// Summarizer produces a short description of a session from its user
// messages.
type Summarizer interface {
	Summarize(ctx context.Context, messages []string) (string, error)
}

// Bullets is the zero-dependency summarizer: the first few messages as
// a bullet list. It never fails.
type Bullets struct{}

func (Bullets) Summarize(_ context.Context, messages []string) (string, error) {
	if len(messages) == 0 {
		return "(no user messages)", nil
	}

	head := messages
	if len(head) > 5 {
		head = head[:5]
	}
	var parts []string
	for _, msg := range head {
		clean := strings.TrimSpace(msg)
		if clean == "" {
			continue
		}
		if utf8.RuneCountInString(clean) > 60 {
			clean = session.TruncateRunes(clean, 60) + "..."
		}
		parts = append(parts, "• "+clean)
	}
	if len(messages) > 5 {
		parts = append(parts, fmt.Sprintf("  ... %d more messages", len(messages)-5))
	}
	if len(parts) == 0 {
		return "(no usable messages)", nil
	}
	return strings.Join(parts, "\n"), nil
}
