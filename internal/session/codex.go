package session

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/zbsdsb/ai-session-viewer/internal/logging"
)

// CodexParser reads Codex CLI rollout logs from the date-sharded
// sessions directory under ~/.codex.
type CodexParser struct {
	sessionsDir string
	log         *slog.Logger
}

func NewCodexParser(baseDir string) *CodexParser {
	if baseDir == "" {
		home, _ := os.UserHomeDir()
		baseDir = filepath.Join(home, ".codex")
	}
	return &CodexParser{
		sessionsDir: filepath.Join(baseDir, "sessions"),
		log:         logging.ForComponent(logging.CompParser),
	}
}

func (p *CodexParser) ToolKey() string  { return ToolCodex }
func (p *CodexParser) ToolName() string { return "Codex" }

func (p *CodexParser) ResumeCommand(sessionID string) string {
	return "codex --resume " + sessionID
}

// WatchRoot covers sessions/YYYY/MM/DD/*.jsonl, so three levels of
// date directories below the root.
func (p *CodexParser) WatchRoot() (string, int) {
	return p.sessionsDir, 3
}

// ListFiles walks the sessions/YYYY/MM/DD layout newest first, so
// callers that stop early still see recent sessions.
func (p *CodexParser) ListFiles() ([]string, error) {
	years, err := numericDirsDesc(p.sessionsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read sessions dir: %w", err)
	}

	var files []string
	for _, year := range years {
		months, _ := numericDirsDesc(year)
		for _, month := range months {
			days, _ := numericDirsDesc(month)
			for _, day := range days {
				entries, err := os.ReadDir(day)
				if err != nil {
					continue
				}
				for _, entry := range entries {
					name := entry.Name()
					if entry.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ".jsonl") {
						continue
					}
					files = append(files, filepath.Join(day, name))
				}
			}
		}
	}
	return files, nil
}

// numericDirsDesc lists all-digit subdirectories in descending name
// order, which for zero-padded dates is reverse chronological.
func numericDirsDesc(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() && isAllDigits(entry.Name()) {
			names = append(names, entry.Name())
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	paths := make([]string, len(names))
	for i, name := range names {
		paths[i] = filepath.Join(dir, name)
	}
	return paths, nil
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// codexLogLine is a single line in a rollout file. Session metadata and
// chat messages share the flat envelope.
type codexLogLine struct {
	Type      string          `json:"type"`
	Role      string          `json:"role"`
	Model     string          `json:"model"`
	Content   json.RawMessage `json:"content"`
	Timestamp string          `json:"timestamp"`
	Payload   struct {
		ID  string `json:"id"`
		CWD string `json:"cwd"`
	} `json:"payload"`
}

// ParseFile reads one rollout file. The session ID and project come
// from the session_meta line when present; otherwise the ID falls back
// to the trailing segment of the filename.
func (p *CodexParser) ParseFile(path string, filter *QueryFilter) (*Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open rollout: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat rollout: %w", err)
	}

	rec := &Record{
		Tool:      ToolCodex,
		FilePath:  path,
		FileSize:  info.Size(),
		FileMtime: info.ModTime().Unix(),
	}

	tokens := searchTokensFor(filter)
	matcher := NewTokenMatcher(tokens)

	scanner := bufio.NewScanner(f)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var entry codexLogLine
		if err := json.Unmarshal(line, &entry); err != nil {
			continue
		}

		switch {
		case entry.Type == "session_meta":
			rec.SessionID = entry.Payload.ID
			rec.ProjectPath = entry.Payload.CWD
			if t := parseRecordTimestamp(entry.Timestamp); t != nil {
				rec.StartTime = t
			}
		case entry.Type == "message" && entry.Role == "user":
			rec.MessageCount++
			if text := extractTextContent(entry.Content); text != "" {
				if rec.FirstMessage == "" {
					rec.FirstMessage = TruncateRunes(text, 100)
				}
				rec.UserMessages = append(rec.UserMessages, text)
				matcher.Update(text)
			}
			if t := parseRecordTimestamp(entry.Timestamp); t != nil {
				rec.LastTime = t
			}
		case entry.Type == "message" && entry.Role == "assistant":
			if rec.Model == "" && entry.Model != "" {
				rec.Model = entry.Model
			}
			if len(tokens) > 0 {
				if text := extractTextContent(entry.Content); text != "" {
					matcher.Update(text)
				}
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read rollout: %w", err)
	}

	if rec.SessionID == "" {
		rec.SessionID = codexSessionIDFromName(filepath.Base(path))
	}
	if rec.LastTime == nil {
		rec.LastTime = rec.StartTime
	}

	if rec.FirstMessage == "" {
		return nil, nil
	}
	if !passesFilter(rec, filter, tokens, matcher) {
		return nil, nil
	}
	return rec, nil
}

// Scan walks rollouts newest-directory first and stops as soon as the
// limit is reached, then orders what it collected by last activity.
func (p *CodexParser) Scan(filter *QueryFilter, limit int) ([]*Record, error) {
	files, err := p.ListFiles()
	if err != nil {
		return nil, err
	}
	var records []*Record
	for _, file := range files {
		rec, err := p.ParseFile(file, filter)
		if err != nil {
			p.log.Debug("skipping unreadable rollout", "file", file, "error", err)
			continue
		}
		if rec != nil {
			records = append(records, rec)
		}
		if limit > 0 && len(records) >= limit {
			break
		}
	}
	SortRecords(records)
	return ClampRecords(records, limit), nil
}

// SearchText joins all user and assistant message text, one message
// per line.
func (p *CodexParser) SearchText(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	var parts []string
	scanner := bufio.NewScanner(f)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var entry codexLogLine
		if err := json.Unmarshal(line, &entry); err != nil {
			continue
		}
		if entry.Type != "message" {
			continue
		}
		if entry.Role != "user" && entry.Role != "assistant" {
			continue
		}
		if text := extractTextContent(entry.Content); text != "" {
			parts = append(parts, text)
		}
	}
	if err := scanner.Err(); err != nil {
		p.log.Warn("search text truncated", "file", path, "error", err)
	}
	return strings.Join(parts, "\n")
}

// codexSessionIDFromName extracts the trailing segment of a rollout
// filename, which carries the last chunk of the session UUID.
func codexSessionIDFromName(name string) string {
	stem := strings.TrimSuffix(name, ".jsonl")
	if i := strings.LastIndex(stem, "-"); i >= 0 {
		return stem[i+1:]
	}
	return stem
}
