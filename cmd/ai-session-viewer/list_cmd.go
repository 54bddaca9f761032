package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/zbsdsb/ai-session-viewer/internal/config"
	"github.com/zbsdsb/ai-session-viewer/internal/index"
	"github.com/zbsdsb/ai-session-viewer/internal/session"
	"github.com/zbsdsb/ai-session-viewer/internal/summary"
)

// sessionJSON is one record in --json output, keyed the way external
// consumers read it.
type sessionJSON struct {
	SessionID     string  `json:"session_id"`
	ProjectPath   string  `json:"project_path"`
	StartTime     *string `json:"start_time"`
	LastTime      *string `json:"last_time"`
	MessageCount  int     `json:"message_count"`
	FirstMessage  string  `json:"first_message"`
	Summary       string  `json:"summary,omitempty"`
	FilePath      string  `json:"file_path"`
	FileSize      int64   `json:"file_size"`
	Model         string  `json:"model"`
	ResumeCommand string  `json:"resume_command"`
}

func handleList(args []string) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	toolLong := fs.String("tool", "", "Tool to list: claude, codex, or all")
	toolShort := fs.String("t", "", "Tool to list (shorthand)")
	limitLong := fs.Int("limit", -1, "Max sessions per tool (default 5 for all tools, 20 for one)")
	limitShort := fs.Int("l", -1, "Max sessions per tool (shorthand)")
	detailLong := fs.Bool("detail", false, "Show log file paths")
	detailShort := fs.Bool("d", false, "Show log file paths (shorthand)")
	summaryOnly := fs.Bool("summary", false, "Show the overview only")
	jsonOutput := fs.Bool("json", false, "Output as JSON")
	search := fs.String("search", "", "Keyword filter over message text (all words must match)")
	project := fs.String("project", "", "Project path substring filter")
	since := fs.String("since", "", "Sessions started on or after DATE (2026-01-02 or 2026-01-02 15:04)")
	until := fs.String("until", "", "Sessions started on or before DATE (inclusive)")
	useIndex := fs.Bool("use-index", false, "Query the SQLite index instead of scanning log files")
	dbPath := fs.String("db-path", "", "Index database path")
	aiSummary := fs.Bool("ai-summary", false, "Generate LLM summaries for listed sessions")
	provider := fs.String("provider", "", "LLM provider: openai, anthropic, or google")
	model := fs.String("model", "", "LLM model override")
	apiKey := fs.String("api-key", "", "LLM API key (environment variables are preferred)")
	baseURL := fs.String("base-url", "", "Custom endpoint for OpenAI-compatible APIs")
	fs.Usage = func() {
		fmt.Println("Usage: ai-session-viewer list [flags]")
		fmt.Println("\nList sessions across tools, newest first.")
		fmt.Println("\nOptions:")
		fs.PrintDefaults()
		fmt.Println("\nExamples:")
		fmt.Println("  ai-session-viewer list -t claude -l 10")
		fmt.Println("  ai-session-viewer list --search \"login bug\" --project webapp")
		fmt.Println("  ai-session-viewer list --since 2026-08-01 --until 2026-08-15")
		fmt.Println("  ai-session-viewer list --use-index --search deploy --json")
	}
	if err := fs.Parse(normalizeArgs(fs, args)); err != nil {
		os.Exit(1)
	}

	out := NewCLIOutput(*jsonOutput)
	cfg := loadConfig()

	tool, err := resolveTool(firstNonEmpty(*toolShort, *toolLong), cfg)
	if err != nil {
		out.Error(err.Error(), ErrCodeInvalidArgs)
		os.Exit(1)
	}

	filter, err := buildFilter(*search, *project, *since, *until)
	if err != nil {
		out.Error(err.Error(), ErrCodeInvalidArgs)
		os.Exit(1)
	}

	explicit := *limitLong
	if *limitShort >= 0 {
		explicit = *limitShort
	}
	limit := computeLimit(explicit, filter, tool)

	var llm *summary.LLM
	if *aiSummary {
		llm, err = newSummarizer(cfg, *provider, *model, *apiKey, *baseURL)
		if err != nil {
			out.Error(err.Error(), ErrCodeLLM)
			os.Exit(1)
		}
		if !*jsonOutput {
			fmt.Printf("🤖 LLM summaries enabled (provider: %s, model: %s)\n\n",
				llm.Provider(), llm.Model())
		}
	}

	parsers := session.DefaultParsers(config.ExpandTilde(cfg.ClaudeDir), config.ExpandTilde(cfg.CodexDir))
	active := activeParsers(parsers, tool)

	var byTool map[string][]*session.Record
	if *useIndex {
		byTool = queryIndex(out, cfg, *dbPath, active, tool, filter, limit)
	} else if tool == session.ToolAll {
		byTool = session.ScanAll(active, filter, limit)
	} else {
		recs, err := active[0].Scan(filter, limit)
		if err != nil {
			out.Error(fmt.Sprintf("scan %s sessions: %v", tool, err), ErrCodeParse)
			os.Exit(1)
		}
		byTool = map[string][]*session.Record{tool: recs}
	}

	if llm != nil {
		applySummaries(llm, byTool)
	}

	switch {
	case *jsonOutput:
		out.Print("", jsonListing(active, byTool))
	case *summaryOnly:
		fmt.Println(session.FormatOverview(active, byTool))
	default:
		fmt.Print(renderListing(active, byTool, *detailLong || *detailShort))
	}
}

// buildFilter assembles the query filter from raw flag values.
func buildFilter(search, project, since, until string) (*session.QueryFilter, error) {
	filter := &session.QueryFilter{Search: search, Project: project}
	if since != "" {
		t, err := session.ParseDateInput(since, false)
		if err != nil {
			return nil, fmt.Errorf("invalid --since value: %v", err)
		}
		filter.Since = &t
	}
	if until != "" {
		t, err := session.ParseDateInput(until, true)
		if err != nil {
			return nil, fmt.Errorf("invalid --until value: %v", err)
		}
		filter.Until = &t
	}
	return filter, nil
}

// computeLimit applies the default limit policy: an explicit flag wins,
// any active filter lifts the cap, otherwise 5 across all tools and 20
// for a single tool.
func computeLimit(explicit int, filter *session.QueryFilter, tool string) int {
	if explicit >= 0 {
		return explicit
	}
	if filter != nil && !filter.Empty() {
		return 0
	}
	if tool == session.ToolAll {
		return 5
	}
	return 20
}

// queryIndex reads the listing from the SQLite index. A missing index
// means empty results with a hint, not a database created as a side
// effect of a read.
func queryIndex(out *CLIOutput, cfg *config.UserConfig, dbFlag string, active []session.Parser, tool string, filter *session.QueryFilter, limit int) map[string][]*session.Record {
	path, err := resolveDBPath(dbFlag, cfg)
	if err != nil {
		out.Error(err.Error(), ErrCodeStorage)
		os.Exit(1)
	}
	if !index.Exists(path) {
		fmt.Fprintf(os.Stderr, "Warning: no index at %s, run 'ai-session-viewer index' first\n", FormatPath(path))
		return regroupByTool(active, nil)
	}

	ix, err := index.Open(path)
	if err != nil {
		out.Error(err.Error(), ErrCodeStorage)
		os.Exit(1)
	}
	defer ix.Close()

	results, err := ix.Query(filter, tool, limit)
	if err != nil {
		out.Error(err.Error(), ErrCodeStorage)
		os.Exit(1)
	}
	return regroupByTool(active, results)
}

// regroupByTool splits flat index results back into the per-tool map
// the renderers expect. Every active tool gets a key so empty tools
// still show up in the overview.
func regroupByTool(active []session.Parser, results []*session.Record) map[string][]*session.Record {
	byTool := make(map[string][]*session.Record, len(active))
	for _, p := range active {
		byTool[p.ToolKey()] = nil
	}
	for _, rec := range results {
		byTool[rec.Tool] = append(byTool[rec.Tool], rec)
	}
	return byTool
}

// applySummaries fills in missing summaries for the records about to be
// shown. Indexed records keep whatever summary the index stored.
func applySummaries(llm *summary.LLM, byTool map[string][]*session.Record) {
	for _, recs := range byTool {
		for _, rec := range recs {
			if rec.Summary != "" || len(rec.UserMessages) == 0 {
				continue
			}
			rec.Summary = summarizeRecord(llm, rec)
		}
	}
}

// renderListing produces the full text listing: the overview, per-tool
// sections with global numbering, and the resume examples footer.
func renderListing(active []session.Parser, byTool map[string][]*session.Record, showDetail bool) string {
	var b strings.Builder
	b.WriteString(session.FormatOverview(active, byTool))
	b.WriteString("\n")

	rule := strings.Repeat("─", 60)
	idx := 1
	for _, p := range active {
		fmt.Fprintf(&b, "\n%s\n🛠️  %s sessions\n%s\n", rule, p.ToolName(), rule)
		recs := byTool[p.ToolKey()]
		if len(recs) == 0 {
			b.WriteString("   (no sessions)\n")
			continue
		}
		for _, rec := range recs {
			b.WriteString("\n")
			b.WriteString(session.FormatRecord(rec, resumeCommandFor(active, rec), idx, showDetail))
			b.WriteString("\n")
			idx++
		}
	}

	b.WriteString(resumeExamples())
	return b.String()
}

func resumeExamples() string {
	rule := strings.Repeat("=", 60)
	return fmt.Sprintf(`
%s
🔄 resume command examples
%s

Claude Code:
  claude -r <session_id>           # resume a specific session
  claude --resume                  # resume the most recent session

Codex:
  codex --resume <session_id>      # resume a specific session
  codex --resume                   # resume the most recent session

💡 tip: 'ai-session-viewer browse' opens an interactive picker
`, rule, rule)
}

// resumeCommandFor builds the resume command through the record's
// parser. Unknown tools get an empty command rather than a guess.
func resumeCommandFor(parsers []session.Parser, rec *session.Record) string {
	if p, ok := session.ParserFor(parsers, rec.Tool); ok {
		return p.ResumeCommand(rec.SessionID)
	}
	return ""
}

// jsonListing converts the per-tool map into the JSON payload, keyed by
// display name the way the text listing labels tools.
func jsonListing(active []session.Parser, byTool map[string][]*session.Record) map[string][]sessionJSON {
	out := make(map[string][]sessionJSON, len(active))
	for _, p := range active {
		recs := byTool[p.ToolKey()]
		entries := make([]sessionJSON, 0, len(recs))
		for _, rec := range recs {
			entries = append(entries, recordJSON(rec, p.ResumeCommand(rec.SessionID)))
		}
		out[p.ToolName()] = entries
	}
	return out
}

// recordJSON flattens one record for JSON output.
func recordJSON(rec *session.Record, resumeCmd string) sessionJSON {
	return sessionJSON{
		SessionID:     rec.SessionID,
		ProjectPath:   rec.ProjectPath,
		StartTime:     jsonTime(rec.StartTime),
		LastTime:      jsonTime(rec.LastTime),
		MessageCount:  rec.MessageCount,
		FirstMessage:  rec.FirstMessage,
		Summary:       rec.Summary,
		FilePath:      rec.FilePath,
		FileSize:      rec.FileSize,
		Model:         rec.Model,
		ResumeCommand: resumeCmd,
	}
}

// jsonTime renders a timestamp as RFC 3339 UTC, or null when missing.
func jsonTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}
