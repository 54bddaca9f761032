package session

import (
	"encoding/json"
	"strings"
	"unicode"
)

// TruncateRunes shortens s to at most n runes without splitting a
// multibyte character.
func TruncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// extractTextContent flattens a message content field that may be a
// plain string or a list of content blocks. Only text blocks contribute.
func extractTextContent(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var plain string
	if err := json.Unmarshal(raw, &plain); err == nil {
		return plain
	}
	var blocks []json.RawMessage
	if err := json.Unmarshal(raw, &blocks); err != nil {
		return ""
	}
	var parts []string
	for _, block := range blocks {
		var item string
		if err := json.Unmarshal(block, &item); err == nil {
			parts = append(parts, item)
			continue
		}
		var text struct {
			Type string `json:"type"`
			Text string `json:"text"`
		}
		if err := json.Unmarshal(block, &text); err != nil {
			continue
		}
		if text.Type == "text" && text.Text != "" {
			parts = append(parts, text.Text)
		}
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

// countSignificantRunes counts runes that are neither whitespace,
// punctuation, nor symbols.
func countSignificantRunes(s string) int {
	count := 0
	for _, r := range s {
		if unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r) {
			continue
		}
		count++
	}
	return count
}

// isPunctuationOnly reports whether non-empty text consists entirely of
// punctuation and symbols.
func isPunctuationOnly(s string) bool {
	stripped := strings.TrimSpace(s)
	if stripped == "" {
		return false
	}
	return countSignificantRunes(stripped) == 0
}

const separatorRunes = "─=━-_—"

// isSeparatorLine reports whether text is a horizontal-rule line.
func isSeparatorLine(s string) bool {
	stripped := strings.TrimSpace(s)
	if stripped == "" {
		return false
	}
	for _, r := range stripped {
		if !strings.ContainsRune(separatorRunes, r) {
			return false
		}
	}
	return true
}

// isShortTitle reports whether text has fewer than three significant
// runes and therefore makes a poor session heading.
func isShortTitle(s string) bool {
	if s == "" {
		return true
	}
	return countSignificantRunes(s) < 3
}
