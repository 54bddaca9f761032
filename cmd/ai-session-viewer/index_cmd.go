package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/zbsdsb/ai-session-viewer/internal/config"
	"github.com/zbsdsb/ai-session-viewer/internal/index"
	"github.com/zbsdsb/ai-session-viewer/internal/session"
)

// handleIndex reconciles the SQLite index against a full scan of every
// tool's logs. It always scans everything: building from a filtered
// subset would evict the rows the filter excluded.
func handleIndex(args []string) {
	fs := flag.NewFlagSet("index", flag.ExitOnError)
	dbPath := fs.String("db-path", "", "Index database path")
	jsonOutput := fs.Bool("json", false, "Output stats as JSON")
	aiSummary := fs.Bool("ai-summary", false, "Store LLM summaries for new and changed sessions")
	provider := fs.String("provider", "", "LLM provider: openai, anthropic, or google")
	model := fs.String("model", "", "LLM model override")
	apiKey := fs.String("api-key", "", "LLM API key (environment variables are preferred)")
	baseURL := fs.String("base-url", "", "Custom endpoint for OpenAI-compatible APIs")
	fs.Usage = func() {
		fmt.Println("Usage: ai-session-viewer index [flags]")
		fmt.Println("\nBuild or refresh the session index. Unchanged files are skipped,")
		fmt.Println("so repeat runs only pay for what changed.")
		fmt.Println("\nOptions:")
		fs.PrintDefaults()
		fmt.Println("\nExamples:")
		fmt.Println("  ai-session-viewer index")
		fmt.Println("  ai-session-viewer index --ai-summary --provider anthropic")
		fmt.Println("  ai-session-viewer index --db-path /tmp/sessions.db --json")
	}
	if err := fs.Parse(normalizeArgs(fs, args)); err != nil {
		os.Exit(1)
	}

	out := NewCLIOutput(*jsonOutput)
	cfg := loadConfig()

	var summarize index.SummaryFunc
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
		summarize = func(rec *session.Record) string {
			return summarizeRecord(llm, rec)
		}
	}

	path, err := resolveDBPath(*dbPath, cfg)
	if err != nil {
		out.Error(err.Error(), ErrCodeStorage)
		os.Exit(1)
	}

	parsers := session.DefaultParsers(config.ExpandTilde(cfg.ClaudeDir), config.ExpandTilde(cfg.CodexDir))
	records := session.FlattenRecords(parsers, session.ScanAll(parsers, nil, 0))

	ix, err := index.Open(path)
	if err != nil {
		out.Error(err.Error(), ErrCodeStorage)
		os.Exit(1)
	}
	defer ix.Close()

	stats, err := ix.Reconcile(records, parsers, summarize)
	if err != nil {
		out.Error(err.Error(), ErrCodeStorage)
		os.Exit(1)
	}

	if *jsonOutput {
		out.Print("", stats)
		return
	}
	fmt.Println("🔧 index build complete")
	fmt.Printf("📦 scanned: %d\n", stats.Scanned)
	fmt.Printf("✅ indexed: %d\n", stats.Indexed)
	fmt.Printf("⏭️ skipped: %d\n", stats.Skipped)
	fmt.Printf("🧹 removed: %d\n", stats.Removed)
	fmt.Printf("⚠️ errors: %d\n", stats.Errors)
	fmt.Printf("📁 index path: %s\n", FormatPath(path))
}
