package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/zbsdsb/ai-session-viewer/internal/config"
	"github.com/zbsdsb/ai-session-viewer/internal/index"
	"github.com/zbsdsb/ai-session-viewer/internal/session"
)

// sessionDetailJSON extends the listing shape with the fields only the
// detail view carries.
type sessionDetailJSON struct {
	Tool string `json:"tool"`
	sessionJSON
	UserMessages []string `json:"user_messages"`
}

func handleShow(args []string) {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	jsonOutput := fs.Bool("json", false, "Output as JSON")
	dbPath := fs.String("db-path", "", "Index database path")
	aiSummary := fs.Bool("ai-summary", false, "Generate an LLM summary for the session")
	provider := fs.String("provider", "", "LLM provider: openai, anthropic, or google")
	model := fs.String("model", "", "LLM model override")
	apiKey := fs.String("api-key", "", "LLM API key (environment variables are preferred)")
	baseURL := fs.String("base-url", "", "Custom endpoint for OpenAI-compatible APIs")
	fs.Usage = func() {
		fmt.Println("Usage: ai-session-viewer show <session-id> [flags]")
		fmt.Println("\nShow one session in full, including its user messages.")
		fmt.Println("A unique session id prefix (6+ characters) is enough.")
		fmt.Println("\nOptions:")
		fs.PrintDefaults()
		fmt.Println("\nExamples:")
		fmt.Println("  ai-session-viewer show 6f9a2c")
		fmt.Println("  ai-session-viewer show 6f9a2c1b-33d0-4e6f-9b2a-0c7d8e9f0a1b --json")
		fmt.Println("  ai-session-viewer show 6f9a2c --ai-summary")
	}
	if err := fs.Parse(normalizeArgs(fs, args)); err != nil {
		os.Exit(1)
	}

	out := NewCLIOutput(*jsonOutput)
	id := fs.Arg(0)
	if id == "" {
		out.Error("session id is required", ErrCodeInvalidArgs)
		os.Exit(1)
	}

	cfg := loadConfig()
	parsers := session.DefaultParsers(config.ExpandTilde(cfg.ClaudeDir), config.ExpandTilde(cfg.CodexDir))

	rec := findRecord(out, cfg, parsers, *dbPath, id)

	// Index rows don't carry user messages, so re-read the log file.
	if len(rec.UserMessages) == 0 {
		if p, ok := session.ParserFor(parsers, rec.Tool); ok {
			if full, err := p.ParseFile(rec.FilePath, nil); err == nil && full != nil {
				if full.Summary == "" {
					full.Summary = rec.Summary
				}
				rec = full
			}
		}
	}

	if *aiSummary {
		llm, err := newSummarizer(cfg, *provider, *model, *apiKey, *baseURL)
		if err != nil {
			out.Error(err.Error(), ErrCodeLLM)
			os.Exit(1)
		}
		if !*jsonOutput {
			fmt.Printf("🤖 LLM summaries enabled (provider: %s, model: %s)\n\n",
				llm.Provider(), llm.Model())
		}
		if text := summarizeRecord(llm, rec); text != "" {
			rec.Summary = text
		}
	}

	resumeCmd := resumeCommandFor(parsers, rec)
	if *jsonOutput {
		out.Print("", sessionDetailJSON{
			Tool:         rec.Tool,
			sessionJSON:  recordJSON(rec, resumeCmd),
			UserMessages: rec.UserMessages,
		})
		return
	}
	fmt.Println(session.FormatDetail(rec, resumeCmd))
}

// findRecord resolves a session id against the index when one exists,
// falling back to a full scan. The scan path also accepts id prefixes.
func findRecord(out *CLIOutput, cfg *config.UserConfig, parsers []session.Parser, dbFlag, id string) *session.Record {
	if path, err := resolveDBPath(dbFlag, cfg); err == nil && index.Exists(path) {
		if ix, err := index.Open(path); err == nil {
			rec, ferr := ix.Find(id)
			ix.Close()
			if ferr == nil && rec != nil {
				return rec
			}
		}
	}

	records := session.FlattenRecords(parsers, session.ScanAll(parsers, nil, 0))
	rec, msg, code := resolveRecord(records, id)
	if rec == nil {
		out.Error(msg, code)
		os.Exit(1)
	}
	return rec
}
