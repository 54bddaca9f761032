package session

import (
	"encoding/json"
	"testing"
)

func TestTruncateRunes(t *testing.T) {
	tests := []struct {
		s    string
		n    int
		want string
	}{
		{"hello", 10, "hello"},
		{"hello", 5, "hello"},
		{"hello", 3, "hel"},
		{"", 3, ""},
		{"你好世界", 2, "你好"},
		{"héllo", 2, "hé"},
	}
	for _, tt := range tests {
		if got := TruncateRunes(tt.s, tt.n); got != tt.want {
			t.Errorf("TruncateRunes(%q, %d) = %q, want %q", tt.s, tt.n, got, tt.want)
		}
	}
}

func TestExtractTextContent(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"plain string", `"hello"`, "hello"},
		{"empty raw", ``, ""},
		{"null", `null`, ""},
		{"text blocks", `[{"type":"text","text":"one"},{"type":"text","text":"two"}]`, "one two"},
		{"mixed blocks", `[{"type":"tool_use","id":"t1"},{"type":"text","text":"kept"}]`, "kept"},
		{"bare strings in list", `["a","b"]`, "a b"},
		{"object", `{"type":"text","text":"x"}`, ""},
		{"number", `42`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractTextContent(json.RawMessage(tt.raw)); got != tt.want {
				t.Errorf("extractTextContent(%s) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestCountSignificantRunes(t *testing.T) {
	tests := []struct {
		s    string
		want int
	}{
		{"", 0},
		{"abc", 3},
		{"a b c", 3},
		{"?!.", 0},
		{"a?!", 1},
		{"你好", 2},
		{"→→→", 0},
	}
	for _, tt := range tests {
		if got := countSignificantRunes(tt.s); got != tt.want {
			t.Errorf("countSignificantRunes(%q) = %d, want %d", tt.s, got, tt.want)
		}
	}
}

func TestIsSeparatorLine(t *testing.T) {
	tests := []struct {
		s    string
		want bool
	}{
		{"--------", true},
		{"════", false},
		{"──── ────", false},
		{"  ────  ", true},
		{"===", true},
		{"___", true},
		{"——", true},
		{"", false},
		{"- a -", false},
	}
	for _, tt := range tests {
		if got := isSeparatorLine(tt.s); got != tt.want {
			t.Errorf("isSeparatorLine(%q) = %v, want %v", tt.s, got, tt.want)
		}
	}
}

func TestIsPunctuationOnly(t *testing.T) {
	tests := []struct {
		s    string
		want bool
	}{
		{"?!?", true},
		{"$$$", true},
		{"... ok", false},
		{"", false},
		{"   ", false},
		{"。，！", true},
	}
	for _, tt := range tests {
		if got := isPunctuationOnly(tt.s); got != tt.want {
			t.Errorf("isPunctuationOnly(%q) = %v, want %v", tt.s, got, tt.want)
		}
	}
}

func TestIsShortTitle(t *testing.T) {
	tests := []struct {
		s    string
		want bool
	}{
		{"", true},
		{"ok", true},
		{"ok!", true},
		{"fix", false},
		{"你好吗", false},
		{"a b", true},
	}
	for _, tt := range tests {
		if got := isShortTitle(tt.s); got != tt.want {
			t.Errorf("isShortTitle(%q) = %v, want %v", tt.s, got, tt.want)
		}
	}
}
