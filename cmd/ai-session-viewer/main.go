package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/zbsdsb/ai-session-viewer/internal/config"
	"github.com/zbsdsb/ai-session-viewer/internal/logging"
)

const Version = "0.3.0"

func init() {
	initColorProfile()
}

// initColorProfile picks the lipgloss color profile. AISV_COLOR forces one;
// otherwise the environment decides, preferring TrueColor since most modern
// emulators handle it even when TERM doesn't advertise it.
func initColorProfile() {
	lipgloss.SetColorProfile(detectColorProfile())
}

func detectColorProfile() termenv.Profile {
	switch strings.ToLower(os.Getenv("AISV_COLOR")) {
	case "truecolor", "true", "24bit":
		return termenv.TrueColor
	case "256", "ansi256":
		return termenv.ANSI256
	case "16", "ansi", "basic":
		return termenv.ANSI
	case "none", "off", "ascii":
		return termenv.Ascii
	}

	if ct := os.Getenv("COLORTERM"); ct == "truecolor" || ct == "24bit" {
		return termenv.TrueColor
	}

	term := os.Getenv("TERM")
	for _, t := range []string{
		"xterm-256color", "screen-256color", "tmux-256color",
		"xterm-direct", "alacritty", "kitty", "wezterm",
	} {
		if strings.Contains(term, t) {
			return termenv.TrueColor
		}
	}

	// Windows Terminal, iTerm2, JetBrains, Konsole
	for _, v := range []string{"WT_SESSION", "ITERM_SESSION_ID", "TERMINAL_EMULATOR", "KONSOLE_VERSION"} {
		if os.Getenv(v) != "" {
			return termenv.TrueColor
		}
	}

	// SSH sessions and older emulators still render 256 colors
	return termenv.ANSI256
}

// initLogging sets up structured logging (JSONL format with rotation).
// When AISV_DEBUG is set, logs go to ~/.ai-session-viewer/debug.log.
// When not set, logs are discarded so lists and the TUI stay clean.
func initLogging() {
	if os.Getenv("AISV_DEBUG") == "" {
		return
	}
	baseDir, err := config.BaseDir()
	if err != nil {
		return
	}

	logCfg := logging.Config{
		Debug:          true,
		LogDir:         baseDir,
		Level:          "debug",
		Format:         "json",
		MaxSizeMB:      10,
		MaxBackups:     5,
		MaxAgeDays:     10,
		Compress:       true,
		RingBufferSize: 1024 * 1024,
	}

	// The config file may tune the rotation and format defaults
	if userCfg, err := config.Load(); err == nil {
		ls := userCfg.Logs
		if ls.DebugLevel != "" {
			logCfg.Level = ls.DebugLevel
		}
		if ls.DebugFormat != "" {
			logCfg.Format = ls.DebugFormat
		}
		if ls.DebugMaxMB > 0 {
			logCfg.MaxSizeMB = ls.DebugMaxMB
		}
		if ls.DebugBackups > 0 {
			logCfg.MaxBackups = ls.DebugBackups
		}
		if ls.DebugRetentionDays > 0 {
			logCfg.MaxAgeDays = ls.DebugRetentionDays
		}
		if ls.DebugCompress {
			logCfg.Compress = ls.DebugCompress
		}
	}

	logging.Init(logCfg)

	logging.ForComponent(logging.CompCLI).Info("started",
		slog.Int("pid", os.Getpid()),
		slog.String("version", Version))

	// SIGUSR1 flushes the in-memory ring buffer to disk. The dump holds
	// the run's tail even after debug.log has rotated.
	usr1Chan := make(chan os.Signal, 1)
	signal.Notify(usr1Chan, syscall.SIGUSR1)
	go func() {
		for range usr1Chan {
			dumpPath := filepath.Join(baseDir, fmt.Sprintf("crash-dump-%d.jsonl", time.Now().Unix()))
			if err := logging.DumpRingBuffer(dumpPath); err != nil {
				logging.ForComponent(logging.CompCLI).Error("crash_dump_failed",
					slog.String("error", err.Error()))
			} else {
				logging.ForComponent(logging.CompCLI).Info("crash_dump_written",
					slog.String("path", dumpPath))
			}
		}
	}()
}

func main() {
	initLogging()
	defer logging.Shutdown()

	args := os.Args[1:]
	if len(args) == 0 {
		handleList(nil)
		return
	}

	switch args[0] {
	case "version", "--version", "-v":
		fmt.Printf("ai-session-viewer v%s\n", Version)
		return
	case "help", "--help", "-h":
		printHelp()
		return
	case "list", "ls":
		handleList(args[1:])
		return
	case "index":
		handleIndex(args[1:])
		return
	case "show":
		handleShow(args[1:])
		return
	case "resume":
		handleResume(args[1:])
		return
	case "browse":
		handleBrowse(args[1:])
		return
	case "watch":
		handleWatch(args[1:])
		return
	}

	// Bare flags list sessions, so "ai-session-viewer -t claude" works
	// without the list keyword.
	if strings.HasPrefix(args[0], "-") {
		handleList(args)
		return
	}

	fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", args[0])
	printHelp()
	os.Exit(1)
}

func printHelp() {
	fmt.Println(`ai-session-viewer - browse, search, and resume Claude Code and Codex sessions

Usage:
  ai-session-viewer [command] [flags]

Running without a command lists recent sessions.

Commands:
  list      List sessions across tools (the default)
  index     Build or refresh the SQLite search index
  show      Show one session in full
  resume    Print or run a session's resume command
  browse    Interactive session browser
  watch     Watch log directories and keep the index fresh
  version   Show version
  help      Show this help

Examples:
  ai-session-viewer                          # 5 most recent sessions per view
  ai-session-viewer -t claude -l 10          # 10 most recent Claude Code sessions
  ai-session-viewer --search "login bug"     # search message text across tools
  ai-session-viewer --since 2026-08-01       # sessions started this month
  ai-session-viewer index                    # build the search index
  ai-session-viewer list --use-index         # query the index instead of scanning
  ai-session-viewer show 6f9a2c1b            # full detail for one session
  ai-session-viewer resume 6f9a2c1b --run    # reopen a session in its tool
  ai-session-viewer browse                   # fuzzy-filter TUI
  ai-session-viewer watch                    # reindex as logs change

Environment Variables:
  AISV_DEBUG          Write debug logs to ~/.ai-session-viewer/debug.log
  AISV_COLOR          Color profile: truecolor, 256, 16, none
  CLAUDE_CONFIG_DIR   Claude Code home (default ~/.claude)
  OPENAI_API_KEY      Key for --ai-summary (also ANTHROPIC_API_KEY, GOOGLE_API_KEY)

Run 'ai-session-viewer <command> --help' for command-specific flags.`)
}
