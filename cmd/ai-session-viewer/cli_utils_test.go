package main

import (
	"flag"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/zbsdsb/ai-session-viewer/internal/config"
	"github.com/zbsdsb/ai-session-viewer/internal/session"
)

func TestNormalizeArgs(t *testing.T) {
	tests := []struct {
		name     string
		setup    func() *flag.FlagSet // create FlagSet with flags
		args     []string
		expected []string
	}{
		{
			name: "flags already before positional args",
			setup: func() *flag.FlagSet {
				fs := flag.NewFlagSet("test", flag.ContinueOnError)
				fs.Bool("json", false, "")
				return fs
			},
			args:     []string{"--json", "6f9a2c"},
			expected: []string{"--json", "6f9a2c"},
		},
		{
			name: "bool flag after positional arg",
			setup: func() *flag.FlagSet {
				fs := flag.NewFlagSet("test", flag.ContinueOnError)
				fs.Bool("json", false, "")
				return fs
			},
			args:     []string{"6f9a2c", "--json"},
			expected: []string{"--json", "6f9a2c"},
		},
		{
			name: "multiple bool flags after positional arg",
			setup: func() *flag.FlagSet {
				fs := flag.NewFlagSet("test", flag.ContinueOnError)
				fs.Bool("json", false, "")
				fs.Bool("run", false, "")
				return fs
			},
			args:     []string{"6f9a2c", "--json", "--run"},
			expected: []string{"--json", "--run", "6f9a2c"},
		},
		{
			name: "string flag after positional arg",
			setup: func() *flag.FlagSet {
				fs := flag.NewFlagSet("test", flag.ContinueOnError)
				fs.String("db-path", "", "")
				return fs
			},
			args:     []string{"6f9a2c", "--db-path", "/tmp/index.db"},
			expected: []string{"--db-path", "/tmp/index.db", "6f9a2c"},
		},
		{
			name: "flag with equals syntax",
			setup: func() *flag.FlagSet {
				fs := flag.NewFlagSet("test", flag.ContinueOnError)
				fs.String("db-path", "", "")
				return fs
			},
			args:     []string{"6f9a2c", "--db-path=/tmp/index.db"},
			expected: []string{"--db-path=/tmp/index.db", "6f9a2c"},
		},
		{
			name: "mixed flags and positional args",
			setup: func() *flag.FlagSet {
				fs := flag.NewFlagSet("test", flag.ContinueOnError)
				fs.Bool("json", false, "")
				fs.String("capture", "", "")
				return fs
			},
			args:     []string{"6f9a2c", "--capture", "out.log", "--json"},
			expected: []string{"--capture", "out.log", "--json", "6f9a2c"},
		},
		{
			name: "no flags at all",
			setup: func() *flag.FlagSet {
				fs := flag.NewFlagSet("test", flag.ContinueOnError)
				fs.Bool("json", false, "")
				return fs
			},
			args:     []string{"6f9a2c"},
			expected: []string{"6f9a2c"},
		},
		{
			name: "empty args",
			setup: func() *flag.FlagSet {
				fs := flag.NewFlagSet("test", flag.ContinueOnError)
				fs.Bool("json", false, "")
				return fs
			},
			args:     []string{},
			expected: nil,
		},
		{
			name: "double dash terminator",
			setup: func() *flag.FlagSet {
				fs := flag.NewFlagSet("test", flag.ContinueOnError)
				fs.Bool("json", false, "")
				return fs
			},
			args:     []string{"--", "--json", "6f9a2c"},
			expected: []string{"--json", "6f9a2c"},
		},
		{
			name: "short flag after positional",
			setup: func() *flag.FlagSet {
				fs := flag.NewFlagSet("test", flag.ContinueOnError)
				fs.Bool("d", false, "")
				return fs
			},
			args:     []string{"6f9a2c", "-d"},
			expected: []string{"-d", "6f9a2c"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := tt.setup()
			result := normalizeArgs(fs, tt.args)
			if !reflect.DeepEqual(result, tt.expected) {
				t.Errorf("normalizeArgs() = %v, want %v", result, tt.expected)
			}
		})
	}
}

// TestNormalizeArgsIntegration runs normalizeArgs output through fs.Parse
// and checks the flag values land no matter where the flags appeared.
func TestNormalizeArgsIntegration(t *testing.T) {
	tests := []struct {
		name             string
		args             []string
		expectJSON       bool
		expectTool       string
		expectIdentifier string
	}{
		{
			name:             "flags before identifier",
			args:             []string{"--json", "-t", "claude", "6f9a2c"},
			expectJSON:       true,
			expectTool:       "claude",
			expectIdentifier: "6f9a2c",
		},
		{
			name:             "flags after identifier",
			args:             []string{"6f9a2c", "--json", "-t", "claude"},
			expectJSON:       true,
			expectTool:       "claude",
			expectIdentifier: "6f9a2c",
		},
		{
			name:             "flags mixed around identifier",
			args:             []string{"--json", "6f9a2c", "-t", "codex"},
			expectJSON:       true,
			expectTool:       "codex",
			expectIdentifier: "6f9a2c",
		},
		{
			name:             "only identifier no flags",
			args:             []string{"6f9a2c"},
			expectJSON:       false,
			expectTool:       "",
			expectIdentifier: "6f9a2c",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := flag.NewFlagSet("test", flag.ContinueOnError)
			jsonOutput := fs.Bool("json", false, "Output as JSON")
			tool := fs.String("t", "", "Tool")

			normalized := normalizeArgs(fs, tt.args)
			if err := fs.Parse(normalized); err != nil {
				t.Fatalf("Parse failed: %v", err)
			}

			identifier := fs.Arg(0)

			if *jsonOutput != tt.expectJSON {
				t.Errorf("json = %v, want %v", *jsonOutput, tt.expectJSON)
			}
			if *tool != tt.expectTool {
				t.Errorf("tool = %q, want %q", *tool, tt.expectTool)
			}
			if identifier != tt.expectIdentifier {
				t.Errorf("identifier = %q, want %q", identifier, tt.expectIdentifier)
			}
		})
	}
}

func TestResolveRecord(t *testing.T) {
	records := []*session.Record{
		{SessionID: "6f9a2c1b-33d0-0001", Tool: session.ToolClaude},
		{SessionID: "6f9a2c1b-33d0-0002", Tool: session.ToolCodex},
		{SessionID: "07b1d9aa-4417-9001", Tool: session.ToolClaude},
	}

	t.Run("exact match", func(t *testing.T) {
		rec, msg, code := resolveRecord(records, "07b1d9aa-4417-9001")
		if rec == nil {
			t.Fatalf("expected match, got error %q (%s)", msg, code)
		}
		if rec.SessionID != "07b1d9aa-4417-9001" {
			t.Errorf("matched %q", rec.SessionID)
		}
	})

	t.Run("unique prefix", func(t *testing.T) {
		rec, msg, code := resolveRecord(records, "07b1d9")
		if rec == nil {
			t.Fatalf("expected match, got error %q (%s)", msg, code)
		}
		if rec.SessionID != "07b1d9aa-4417-9001" {
			t.Errorf("matched %q", rec.SessionID)
		}
	})

	t.Run("ambiguous prefix", func(t *testing.T) {
		rec, msg, code := resolveRecord(records, "6f9a2c")
		if rec != nil {
			t.Fatalf("expected ambiguity, matched %q", rec.SessionID)
		}
		if code != ErrCodeAmbiguous {
			t.Errorf("code = %q, want %q", code, ErrCodeAmbiguous)
		}
		if !strings.Contains(msg, "matches multiple") {
			t.Errorf("message = %q", msg)
		}
	})

	t.Run("prefix shorter than six chars", func(t *testing.T) {
		rec, _, code := resolveRecord(records, "07b1")
		if rec != nil {
			t.Fatalf("short prefix should not match, got %q", rec.SessionID)
		}
		if code != ErrCodeNotFound {
			t.Errorf("code = %q, want %q", code, ErrCodeNotFound)
		}
	})

	t.Run("not found", func(t *testing.T) {
		rec, msg, code := resolveRecord(records, "deadbeef")
		if rec != nil {
			t.Fatal("expected no match")
		}
		if code != ErrCodeNotFound {
			t.Errorf("code = %q, want %q", code, ErrCodeNotFound)
		}
		if !strings.Contains(msg, "deadbeef") {
			t.Errorf("message = %q", msg)
		}
	})

	t.Run("empty id", func(t *testing.T) {
		rec, _, code := resolveRecord(records, "")
		if rec != nil {
			t.Fatal("expected no match")
		}
		if code != ErrCodeInvalidArgs {
			t.Errorf("code = %q, want %q", code, ErrCodeInvalidArgs)
		}
	})
}

func TestTruncateID(t *testing.T) {
	if got := TruncateID("6f9a2c1b-33d0-0001"); got != "6f9a2c1b-33d" {
		t.Errorf("TruncateID() = %q", got)
	}
	if got := TruncateID("short"); got != "short" {
		t.Errorf("TruncateID() = %q", got)
	}
}

func TestFormatPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}
	if got := FormatPath(filepath.Join(home, ".cache", "x.db")); got != "~/.cache/x.db" {
		t.Errorf("FormatPath() = %q", got)
	}
	if got := FormatPath("/opt/data/x.db"); got != "/opt/data/x.db" {
		t.Errorf("FormatPath() = %q", got)
	}
}

func TestFirstNonEmpty(t *testing.T) {
	if got := firstNonEmpty("", "  ", "codex"); got != "codex" {
		t.Errorf("firstNonEmpty() = %q", got)
	}
	if got := firstNonEmpty("claude", "codex"); got != "claude" {
		t.Errorf("firstNonEmpty() = %q", got)
	}
	if got := firstNonEmpty(); got != "" {
		t.Errorf("firstNonEmpty() = %q", got)
	}
}

func TestResolveTool(t *testing.T) {
	tests := []struct {
		name    string
		flagVal string
		cfg     *config.UserConfig
		want    string
		wantErr bool
	}{
		{name: "explicit claude", flagVal: "claude", cfg: &config.UserConfig{}, want: session.ToolClaude},
		{name: "case folded", flagVal: "CODEX", cfg: &config.UserConfig{}, want: session.ToolCodex},
		{name: "default all", flagVal: "", cfg: &config.UserConfig{}, want: session.ToolAll},
		{name: "config default", flagVal: "", cfg: &config.UserConfig{DefaultTool: "codex"}, want: session.ToolCodex},
		{name: "flag beats config", flagVal: "claude", cfg: &config.UserConfig{DefaultTool: "codex"}, want: session.ToolClaude},
		{name: "nil config", flagVal: "", cfg: nil, want: session.ToolAll},
		{name: "unknown tool", flagVal: "gemini", cfg: &config.UserConfig{}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveTool(tt.flagVal, tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("resolveTool() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("resolveTool() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestActiveParsers(t *testing.T) {
	parsers := session.DefaultParsers(t.TempDir(), t.TempDir())

	if got := activeParsers(parsers, session.ToolAll); len(got) != 2 {
		t.Errorf("all tools: got %d parsers", len(got))
	}
	got := activeParsers(parsers, session.ToolClaude)
	if len(got) != 1 || got[0].ToolKey() != session.ToolClaude {
		t.Errorf("claude scope: got %v", got)
	}
	got = activeParsers(parsers, session.ToolCodex)
	if len(got) != 1 || got[0].ToolKey() != session.ToolCodex {
		t.Errorf("codex scope: got %v", got)
	}
	if got := activeParsers(parsers, "gemini"); got != nil {
		t.Errorf("unknown scope: got %v", got)
	}
}

func TestResolveDBPath(t *testing.T) {
	t.Run("flag wins", func(t *testing.T) {
		got, err := resolveDBPath("/tmp/a.db", &config.UserConfig{DBPath: "/tmp/b.db"})
		if err != nil || got != "/tmp/a.db" {
			t.Errorf("got %q, %v", got, err)
		}
	})

	t.Run("config fallback", func(t *testing.T) {
		got, err := resolveDBPath("", &config.UserConfig{DBPath: "/tmp/b.db"})
		if err != nil || got != "/tmp/b.db" {
			t.Errorf("got %q, %v", got, err)
		}
	})

	t.Run("default under cache dir", func(t *testing.T) {
		got, err := resolveDBPath("", &config.UserConfig{})
		if err != nil {
			t.Fatalf("resolveDBPath() error: %v", err)
		}
		if !strings.HasSuffix(got, filepath.Join("ai-session-viewer", "index.db")) {
			t.Errorf("got %q", got)
		}
	})

	t.Run("tilde expansion", func(t *testing.T) {
		home, err := os.UserHomeDir()
		if err != nil {
			t.Skipf("no home directory: %v", err)
		}
		got, err := resolveDBPath("~/x.db", &config.UserConfig{})
		if err != nil || got != filepath.Join(home, "x.db") {
			t.Errorf("got %q, %v", got, err)
		}
	})
}
