package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/zbsdsb/ai-session-viewer/internal/config"
	"github.com/zbsdsb/ai-session-viewer/internal/logging"
	"github.com/zbsdsb/ai-session-viewer/internal/session"
	"github.com/zbsdsb/ai-session-viewer/internal/summary"
)

// normalizeArgs moves every flag ahead of the positional arguments.
// Go's flag package stops at the first non-flag argument, so without
// this "show abc123 --json" would silently drop --json.
func normalizeArgs(fs *flag.FlagSet, args []string) []string {
	// Boolean flags stand alone; every other registered flag consumes the
	// following argument as its value.
	isBool := map[string]bool{}
	fs.VisitAll(func(f *flag.Flag) {
		b, ok := f.Value.(interface{ IsBoolFlag() bool })
		isBool[f.Name] = ok && b.IsBoolFlag()
	})

	var flags, rest []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--":
			// everything after the terminator stays positional
			rest = append(rest, args[i+1:]...)
			return append(flags, rest...)
		case len(arg) > 1 && arg[0] == '-':
			flags = append(flags, arg)
			name := strings.TrimLeft(arg, "-")
			if strings.Contains(name, "=") {
				break // --flag=value carries its value inline
			}
			if !isBool[name] && i+1 < len(args) {
				i++
				flags = append(flags, args[i])
			}
		default:
			rest = append(rest, arg)
		}
	}
	return append(flags, rest...)
}

// CLIOutput writes either human-readable text or JSON, chosen once per
// command from the --json flag.
type CLIOutput struct {
	jsonMode bool
}

// NewCLIOutput returns an output writer in the requested mode.
func NewCLIOutput(jsonMode bool) *CLIOutput {
	return &CLIOutput{jsonMode: jsonMode}
}

// Success reports a completed action.
func (c *CLIOutput) Success(message string, data interface{}) {
	if c.jsonMode {
		c.printJSON(data)
		return
	}
	fmt.Printf("%s %s\n", successSymbol, message)
}

// Error reports a failure, with a machine-readable code in JSON mode.
func (c *CLIOutput) Error(message string, code string) {
	if c.jsonMode {
		c.printJSON(map[string]interface{}{
			"success": false,
			"error":   message,
			"code":    code,
		})
		return
	}
	fmt.Fprintf(os.Stderr, "Error: %s\n", message)
}

// Print emits the mode-appropriate representation of a result.
func (c *CLIOutput) Print(humanOutput string, jsonData interface{}) {
	if c.jsonMode {
		c.printJSON(jsonData)
		return
	}
	fmt.Print(humanOutput)
}

func (c *CLIOutput) printJSON(data interface{}) {
	output, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to format JSON: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(output))
}

// Markers for human-readable output
const (
	successSymbol = "✓"
	errorSymbol   = "✕"
	bulletSymbol  = "•"
)

// Error codes
const (
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeAmbiguous        = "AMBIGUOUS"
	ErrCodeInvalidArgs      = "INVALID_ARGS"
	ErrCodeInvalidOperation = "INVALID_OPERATION"
	ErrCodeParse            = "PARSE_ERROR"
	ErrCodeStorage          = "STORAGE_ERROR"
	ErrCodeLLM              = "LLM_ERROR"
)

// resolveRecord finds a session by exact ID or unique ID prefix.
// Returns the matched record or nil with an error message and code.
func resolveRecord(records []*session.Record, identifier string) (*session.Record, string, string) {
	if identifier == "" {
		return nil, "session id is required", ErrCodeInvalidArgs
	}

	// Try exact match first
	for _, rec := range records {
		if rec.SessionID == identifier {
			return rec, "", ""
		}
	}

	// Try ID prefix match (minimum 6 chars to avoid too many matches)
	var matches []*session.Record
	if len(identifier) >= 6 {
		for _, rec := range records {
			if strings.HasPrefix(rec.SessionID, identifier) {
				matches = append(matches, rec)
			}
		}
	}

	if len(matches) == 1 {
		return matches[0], "", ""
	}

	if len(matches) > 1 {
		var names []string
		for _, m := range matches {
			names = append(names, fmt.Sprintf("%s (%s)", TruncateID(m.SessionID), m.Tool))
		}
		return nil, fmt.Sprintf("'%s' matches multiple sessions:\n  - %s\nUse the full session id.",
			identifier, strings.Join(names, "\n  - ")), ErrCodeAmbiguous
	}

	return nil, fmt.Sprintf("session '%s' not found", identifier), ErrCodeNotFound
}

// TruncateID shortens a session id to its first 12 characters.
func TruncateID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

// FormatPath abbreviates the home directory to ~ for display.
func FormatPath(path string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if strings.HasPrefix(path, home) {
		return "~" + path[len(home):]
	}
	return path
}

// firstNonEmpty picks the first value that isn't blank after trimming.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// loadConfig reads the user config, warning instead of failing on a bad
// file so commands keep working with defaults.
func loadConfig() *config.UserConfig {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
	return cfg
}

// resolveTool picks the tool scope: the CLI flag, then the configured
// default, then all tools.
func resolveTool(flagVal string, cfg *config.UserConfig) (string, error) {
	tool := strings.ToLower(strings.TrimSpace(flagVal))
	if tool == "" && cfg != nil {
		tool = strings.ToLower(strings.TrimSpace(cfg.DefaultTool))
	}
	if tool == "" {
		tool = session.ToolAll
	}
	switch tool {
	case session.ToolClaude, session.ToolCodex, session.ToolAll:
		return tool, nil
	}
	return "", fmt.Errorf("unknown tool %q (expected claude, codex, or all)", flagVal)
}

// activeParsers narrows the parser list to the tool scope.
func activeParsers(parsers []session.Parser, tool string) []session.Parser {
	if tool == session.ToolAll {
		return parsers
	}
	if p, ok := session.ParserFor(parsers, tool); ok {
		return []session.Parser{p}
	}
	return nil
}

// resolveDBPath picks the index location: the CLI flag, then config,
// then the default under the cache directory.
func resolveDBPath(flagVal string, cfg *config.UserConfig) (string, error) {
	if flagVal != "" {
		return config.ExpandTilde(flagVal), nil
	}
	if cfg != nil && cfg.DBPath != "" {
		return config.ExpandTilde(cfg.DBPath), nil
	}
	return config.DefaultIndexPath()
}

// newSummarizer merges LLM flags over the config file settings and
// builds the summarizer.
func newSummarizer(cfg *config.UserConfig, provider, model, apiKey, baseURL string) (*summary.LLM, error) {
	var settings config.SummarySettings
	if cfg != nil {
		settings = cfg.Summary
	}
	if provider != "" {
		settings.Provider = provider
	}
	if model != "" {
		settings.Model = model
	}
	if apiKey != "" {
		settings.APIKey = apiKey
	}
	if baseURL != "" {
		settings.BaseURL = baseURL
	}
	return summary.NewLLM(settings)
}

// summarizeRecord generates a summary for one record, falling back to
// the heuristic summarizer when the LLM call fails.
func summarizeRecord(llm *summary.LLM, rec *session.Record) string {
	text, err := llm.Summarize(context.Background(), rec.UserMessages)
	if err != nil {
		logging.ForComponent(logging.CompSummary).Warn("summarize failed",
			"session", rec.SessionID, "error", err)
		text, _ = summary.Bullets{}.Summarize(context.Background(), rec.UserMessages)
	}
	return text
}
