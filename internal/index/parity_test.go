package index

import (
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"testing"

	"github.com/zbsdsb/ai-session-viewer/internal/session"
)

func writeCodexTranscript(t *testing.T, baseDir, day, name string, lines []string) string {
	t.Helper()
	dir := filepath.Join(baseDir, "sessions", filepath.FromSlash(day))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func sortedPaths(records []*session.Record) []string {
	out := make([]string, 0, len(records))
	for _, rec := range records {
		out = append(out, rec.FilePath)
	}
	sort.Strings(out)
	return out
}

// TestQueryMatchesStreamingScan pins the two read paths to each other:
// for a fixed file set, a filtered direct scan and an indexed query must
// return the same sessions.
func TestQueryMatchesStreamingScan(t *testing.T) {
	claudeBase := filepath.Join(t.TempDir(), "claude")
	codexBase := filepath.Join(t.TempDir(), "codex")
	parsers := session.DefaultParsers(claudeBase, codexBase)

	writeClaudeTranscript(t, claudeBase, "-home-bob-webapp", "a1.jsonl", []string{
		`{"type":"user","timestamp":"2026-01-15T10:00:00Z","message":{"role":"user","content":"deploy the staging cluster"}}`,
		`{"type":"assistant","timestamp":"2026-01-15T10:05:00Z","message":{"role":"assistant","model":"claude-sonnet-4-5","content":[{"type":"text","text":"rollout finished"}]}}`,
	})
	writeClaudeTranscript(t, claudeBase, "-home-bob-blog", "b1.jsonl", []string{
		`{"type":"user","timestamp":"2026-01-10T09:00:00Z","message":{"role":"user","content":"draft release notes"}}`,
		`{"type":"assistant","timestamp":"2026-01-10T09:01:00Z","message":{"role":"assistant","content":[{"type":"text","text":"done"}]}}`,
	})
	writeCodexTranscript(t, codexBase, "2026/01/16", "rollout-2026-01-16T08-00-00-cx1.jsonl", []string{
		`{"type":"session_meta","timestamp":"2026-01-16T08:00:00Z","payload":{"id":"cx1","cwd":"/home/bob/webapp"}}`,
		`{"type":"message","role":"user","content":"inspect the deploy logs","timestamp":"2026-01-16T08:01:00Z"}`,
		`{"type":"message","role":"assistant","model":"gpt-5-codex","content":[{"type":"text","text":"cluster is healthy"}]}`,
	})
	writeCodexTranscript(t, codexBase, "2026/01/01", "rollout-2026-01-01T07-00-00-dx1.jsonl", []string{
		`{"type":"session_meta","timestamp":"2026-01-01T07:00:00Z","payload":{"id":"dx1","cwd":"/tmp/scratch"}}`,
		`{"type":"message","role":"user","content":"hello there","timestamp":"2026-01-01T07:01:00Z"}`,
	})

	ix := newTestIndex(t)
	if _, err := ix.Reconcile(scanRecords(t, parsers), parsers, nil); err != nil {
		t.Fatalf("Reconcile: %v", err)
	}

	tests := []struct {
		name   string
		filter session.QueryFilter
		want   int
	}{
		{"unfiltered", session.QueryFilter{}, 4},
		{"tokens anded across messages", session.QueryFilter{Search: "deploy cluster"}, 2},
		{"project substring", session.QueryFilter{Project: "webapp"}, 2},
		{"since bound", session.QueryFilter{Since: ts(t, "2026-01-14T00:00:00Z")}, 2},
		{"combined", session.QueryFilter{
			Search:  "deploy",
			Project: "webapp",
			Since:   ts(t, "2026-01-14T00:00:00Z"),
		}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			streamed := session.FlattenRecords(parsers, session.ScanAll(parsers, &tt.filter, 0))
			indexed, err := ix.Query(&tt.filter, session.ToolAll, 0)
			if err != nil {
				t.Fatalf("Query: %v", err)
			}

			got := sortedPaths(streamed)
			if len(got) != tt.want {
				t.Fatalf("Scan returned %d sessions, want %d: %v", len(got), tt.want, got)
			}
			if want := sortedPaths(indexed); !reflect.DeepEqual(got, want) {
				t.Errorf("Scan and Query disagree:\n  scan:  %v\n  query: %v", got, want)
			}
		})
	}
}

func TestSearchHitAndMiss(t *testing.T) {
	ix := newTestIndex(t)
	parsers, claudeBase := testParsers(t)

	path := writeClaudeTranscript(t, claudeBase, "-work-demo", "greeting.jsonl", []string{
		`{"type":"user","timestamp":"2026-02-01T12:00:00Z","message":{"role":"user","content":"hello world"}}`,
		`{"type":"assistant","timestamp":"2026-02-01T12:01:00Z","message":{"role":"assistant","content":[{"type":"text","text":"world reply"}]}}`,
	})
	if _, err := ix.Reconcile(scanRecords(t, parsers), parsers, nil); err != nil {
		t.Fatalf("Reconcile: %v", err)
	}

	// The assistant's reply is searchable even though only the user line
	// feeds the first message.
	records, err := ix.Query(&session.QueryFilter{Search: "reply"}, session.ToolAll, 0)
	if err != nil {
		t.Fatalf("Query hit: %v", err)
	}
	if len(records) != 1 || records[0].FilePath != path {
		t.Fatalf("Search %q: %+v, want the greeting session", "reply", records)
	}

	records, err = ix.Query(&session.QueryFilter{Search: "missing"}, session.ToolAll, 0)
	if err != nil {
		t.Fatalf("Query miss: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("Search %q returned %d sessions, want none", "missing", len(records))
	}
}
