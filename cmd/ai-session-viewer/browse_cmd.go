package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/zbsdsb/ai-session-viewer/internal/config"
	"github.com/zbsdsb/ai-session-viewer/internal/session"
	"github.com/zbsdsb/ai-session-viewer/internal/ui"
)

func handleBrowse(args []string) {
	fs := flag.NewFlagSet("browse", flag.ExitOnError)
	toolLong := fs.String("tool", "", "Tool to browse: claude, codex, or all")
	toolShort := fs.String("t", "", "Tool to browse (shorthand)")
	fs.Usage = func() {
		fmt.Println("Usage: ai-session-viewer browse [flags]")
		fmt.Println("\nOpen the interactive browser: type to filter, enter for detail,")
		fmt.Println("ctrl+r to pick the selected session's resume command, ctrl+y to")
		fmt.Println("copy it to the clipboard.")
		fmt.Println("\nOptions:")
		fs.PrintDefaults()
		fmt.Println("\nExamples:")
		fmt.Println("  ai-session-viewer browse")
		fmt.Println("  ai-session-viewer browse -t codex")
	}
	if err := fs.Parse(normalizeArgs(fs, args)); err != nil {
		os.Exit(1)
	}

	out := NewCLIOutput(false)
	cfg := loadConfig()

	tool, err := resolveTool(firstNonEmpty(*toolShort, *toolLong), cfg)
	if err != nil {
		out.Error(err.Error(), ErrCodeInvalidArgs)
		os.Exit(1)
	}

	ui.InitTheme(ui.ResolveTheme(cfg.Theme))
	var themes *ui.ThemeWatcher
	if cfg.Theme == "system" {
		themes = ui.NewThemeWatcher(context.Background())
		if themes != nil {
			defer themes.Close()
		}
	}

	parsers := session.DefaultParsers(config.ExpandTilde(cfg.ClaudeDir), config.ExpandTilde(cfg.CodexDir))
	active := activeParsers(parsers, tool)

	records := session.FlattenRecords(active, session.ScanAll(active, nil, 0))
	session.SortRecords(records)

	p := tea.NewProgram(ui.NewBrowser(records, active, themes), tea.WithAltScreen())
	m, err := p.Run()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	// Print the chosen resume command after the alt screen closes so the
	// user can run or copy it.
	if b, ok := m.(*ui.Browser); ok && b.ResumeCommand() != "" {
		fmt.Println(b.ResumeCommand())
	}
}
