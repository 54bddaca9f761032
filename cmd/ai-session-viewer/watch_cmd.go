package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zbsdsb/ai-session-viewer/internal/config"
	"github.com/zbsdsb/ai-session-viewer/internal/index"
	"github.com/zbsdsb/ai-session-viewer/internal/platform"
	"github.com/zbsdsb/ai-session-viewer/internal/session"
	"github.com/zbsdsb/ai-session-viewer/internal/watch"
)

func handleWatch(args []string) {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	dbPath := fs.String("db-path", "", "Index database path")
	aiSummary := fs.Bool("ai-summary", false, "Store LLM summaries for new and changed sessions")
	provider := fs.String("provider", "", "LLM provider: openai, anthropic, or google")
	model := fs.String("model", "", "LLM model override")
	apiKey := fs.String("api-key", "", "LLM API key (environment variables are preferred)")
	baseURL := fs.String("base-url", "", "Custom endpoint for OpenAI-compatible APIs")
	fs.Usage = func() {
		fmt.Println("Usage: ai-session-viewer watch [flags]")
		fmt.Println("\nWatch the log directories and reindex as sessions change.")
		fmt.Println("Runs until interrupted.")
		fmt.Println("\nOptions:")
		fs.PrintDefaults()
		fmt.Println("\nExamples:")
		fmt.Println("  ai-session-viewer watch")
		fmt.Println("  ai-session-viewer watch --ai-summary")
	}
	if err := fs.Parse(normalizeArgs(fs, args)); err != nil {
		os.Exit(1)
	}

	out := NewCLIOutput(false)
	cfg := loadConfig()

	var summarize index.SummaryFunc
	if *aiSummary {
		llm, err := newSummarizer(cfg, *provider, *model, *apiKey, *baseURL)
		if err != nil {
			out.Error(err.Error(), ErrCodeLLM)
			os.Exit(1)
		}
		fmt.Printf("🤖 LLM summaries enabled (provider: %s, model: %s)\n\n",
			llm.Provider(), llm.Model())
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

	ix, err := index.Open(path)
	if err != nil {
		out.Error(err.Error(), ErrCodeStorage)
		os.Exit(1)
	}
	defer ix.Close()

	sync := func() error {
		records := session.FlattenRecords(parsers, session.ScanAll(parsers, nil, 0))
		stats, err := ix.Reconcile(records, parsers, summarize)
		if err != nil {
			return err
		}
		if stats.Indexed > 0 || stats.Removed > 0 || stats.Errors > 0 {
			fmt.Printf("%s %s indexed %d, removed %d, errors %d\n",
				time.Now().Format("15:04:05"), successSymbol,
				stats.Indexed, stats.Removed, stats.Errors)
		}
		return nil
	}

	fmt.Printf("📁 index path: %s\n", FormatPath(path))
	var roots []watch.Root
	for _, p := range parsers {
		dir, depth := p.WatchRoot()
		roots = append(roots, watch.Root{Path: dir, Depth: depth})
		fmt.Printf("%s watching %s\n", bulletSymbol, FormatPath(dir))
		if warn := platform.WatchWarning(dir); warn != "" {
			fmt.Printf("⚠️  %s\n", warn)
		}
	}

	// Initial pass so the index is fresh before the first event.
	if err := sync(); err != nil {
		out.Error(err.Error(), ErrCodeStorage)
		os.Exit(1)
	}

	debounce := time.Duration(cfg.Watch.DebounceMS) * time.Millisecond
	w, err := watch.New(roots, debounce, cfg.Watch.ReconcilesPerMinute, sync)
	if err != nil {
		out.Error(err.Error(), ErrCodeStorage)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		out.Error(err.Error(), ErrCodeStorage)
		os.Exit(1)
	}
	fmt.Println("\n👋 watch stopped")
}
