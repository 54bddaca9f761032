package session

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/zbsdsb/ai-session-viewer/internal/logging"
)

// claudeSystemPrefixes mark user-role messages that were injected by
// tooling rather than typed by a person.
var claudeSystemPrefixes = []string{
	"You are a Claude-Mem",
	"You are a specialized",
	"IMPORTANT:",
	"# Claude Code",
	"The user sent the following message",
	"PROGRESS SUMMARY CHECKPOINT",
	"## Progress Update",
	"SessionStart:",
	"UserPromptSubmit hook",
	"Caveat: The messages below",
}

var claudeSystemTags = []string{
	"<observed_from_primary_session>",
	"<what_happened>",
	"<local-command-caveat>",
	"<local-command-stdout>",
	"<local-command-",
	"<command-name>",
	"<system-reminder>",
}

// ClaudeParser reads Claude Code transcripts from the projects
// directory under the Claude config dir.
type ClaudeParser struct {
	projectsDir string
	log         *slog.Logger
}

// NewClaudeParser builds a parser rooted at baseDir, falling back to
// CLAUDE_CONFIG_DIR and then ~/.claude.
func NewClaudeParser(baseDir string) *ClaudeParser {
	if baseDir == "" {
		if env := os.Getenv("CLAUDE_CONFIG_DIR"); env != "" {
			baseDir = env
		} else {
			home, _ := os.UserHomeDir()
			baseDir = filepath.Join(home, ".claude")
		}
	}
	return &ClaudeParser{
		projectsDir: filepath.Join(baseDir, "projects"),
		log:         logging.ForComponent(logging.CompParser),
	}
}

func (p *ClaudeParser) ToolKey() string  { return ToolClaude }
func (p *ClaudeParser) ToolName() string { return "Claude Code" }

func (p *ClaudeParser) ResumeCommand(sessionID string) string {
	return "claude -r " + sessionID
}

// WatchRoot covers projects/<project>/*.jsonl, so one level of project
// directories below the root.
func (p *ClaudeParser) WatchRoot() (string, int) {
	return p.projectsDir, 1
}

// ListFiles returns every transcript under projects/<dir>/*.jsonl,
// skipping dotfiles. A missing projects directory yields no files.
func (p *ClaudeParser) ListFiles() ([]string, error) {
	projects, err := os.ReadDir(p.projectsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read projects dir: %w", err)
	}

	var files []string
	for _, project := range projects {
		if !project.IsDir() {
			continue
		}
		dir := filepath.Join(p.projectsDir, project.Name())
		entries, err := os.ReadDir(dir)
		if err != nil {
			p.log.Warn("skipping unreadable project dir", "dir", dir, "error", err)
			continue
		}
		for _, entry := range entries {
			name := entry.Name()
			if entry.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ".jsonl") {
				continue
			}
			files = append(files, filepath.Join(dir, name))
		}
	}
	return files, nil
}

// claudeLogLine is a single line in a Claude JSONL transcript.
type claudeLogLine struct {
	Type      string          `json:"type"`
	Timestamp string          `json:"timestamp"`
	Message   json.RawMessage `json:"message"`
}

type claudeMessage struct {
	Role    string          `json:"role"`
	Model   string          `json:"model"`
	Content json.RawMessage `json:"content"`
}

// ParseFile reads one transcript. The session ID is the file stem and
// the project path is decoded from the directory name. Malformed lines
// are skipped; the record is dropped when no manual input survives.
func (p *ClaudeParser) ParseFile(path string, filter *QueryFilter) (*Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open transcript: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat transcript: %w", err)
	}

	rec := &Record{
		Tool:      ToolClaude,
		SessionID: strings.TrimSuffix(filepath.Base(path), ".jsonl"),
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
		var entry claudeLogLine
		if err := json.Unmarshal(line, &entry); err != nil {
			continue
		}

		if t := parseRecordTimestamp(entry.Timestamp); t != nil {
			if rec.StartTime == nil {
				rec.StartTime = t
			}
			rec.LastTime = t
		}

		switch entry.Type {
		case "user":
			rec.MessageCount++
			var msg claudeMessage
			if err := json.Unmarshal(entry.Message, &msg); err != nil {
				continue
			}
			text := extractTextContent(msg.Content)
			if text == "" || !isManualInput(text) {
				continue
			}
			rec.UserMessages = append(rec.UserMessages, text)
			if rec.FirstMessage == "" {
				rec.FirstMessage = TruncateRunes(text, 100)
			} else if isShortTitle(rec.FirstMessage) && !isShortTitle(text) {
				// A terse opener like "hi" gives way to the first
				// substantial message.
				rec.FirstMessage = TruncateRunes(text, 100)
			}
			matcher.Update(text)
		case "assistant":
			var msg claudeMessage
			if err := json.Unmarshal(entry.Message, &msg); err != nil {
				continue
			}
			if rec.Model == "" && msg.Model != "" {
				rec.Model = msg.Model
			}
			if len(tokens) > 0 {
				if text := extractTextContent(msg.Content); text != "" {
					matcher.Update(text)
				}
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read transcript: %w", err)
	}

	rec.ProjectPath = claudeProjectPath(filepath.Base(filepath.Dir(path)))

	if rec.FirstMessage == "" {
		return nil, nil
	}
	if !passesFilter(rec, filter, tokens, matcher) {
		return nil, nil
	}
	return rec, nil
}

// Scan parses every transcript, sorts newest first, and applies the
// limit.
func (p *ClaudeParser) Scan(filter *QueryFilter, limit int) ([]*Record, error) {
	files, err := p.ListFiles()
	if err != nil {
		return nil, err
	}
	var records []*Record
	for _, file := range files {
		rec, err := p.ParseFile(file, filter)
		if err != nil {
			p.log.Debug("skipping unreadable transcript", "file", file, "error", err)
			continue
		}
		if rec != nil {
			records = append(records, rec)
		}
	}
	SortRecords(records)
	return ClampRecords(records, limit), nil
}

// SearchText joins the manual user messages and all assistant text,
// one message per line. Unreadable files yield the empty string.
func (p *ClaudeParser) SearchText(path string) string {
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
		var entry claudeLogLine
		if err := json.Unmarshal(line, &entry); err != nil {
			continue
		}
		var msg claudeMessage
		if err := json.Unmarshal(entry.Message, &msg); err != nil {
			continue
		}
		text := extractTextContent(msg.Content)
		if text == "" {
			continue
		}
		switch entry.Type {
		case "user":
			if isManualInput(text) {
				parts = append(parts, text)
			}
		case "assistant":
			parts = append(parts, text)
		}
	}
	if err := scanner.Err(); err != nil {
		p.log.Warn("search text truncated", "file", path, "error", err)
	}
	return strings.Join(parts, "\n")
}

// claudeProjectPath decodes a projects directory name back into a
// workspace path. Claude encodes path separators as hyphens, so the
// leading separator surfaces as a leading hyphen.
func claudeProjectPath(dirName string) string {
	path := strings.ReplaceAll(dirName, "-", "/")
	return strings.TrimPrefix(path, "/")
}

// isManualInput reports whether a user message was typed by a person
// rather than injected by hooks or wrapper tooling.
func isManualInput(text string) bool {
	stripped := strings.TrimSpace(text)
	if stripped == "" {
		return false
	}
	for _, prefix := range claudeSystemPrefixes {
		if strings.HasPrefix(stripped, prefix) {
			return false
		}
	}
	for _, tag := range claudeSystemTags {
		if strings.HasPrefix(stripped, tag) {
			return false
		}
	}
	if isSeparatorLine(stripped) || isPunctuationOnly(stripped) {
		return false
	}
	return true
}
