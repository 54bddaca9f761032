package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/zbsdsb/ai-session-viewer/internal/config"
	"github.com/zbsdsb/ai-session-viewer/internal/session"
)

func handleResume(args []string) {
	fs := flag.NewFlagSet("resume", flag.ExitOnError)
	run := fs.Bool("run", false, "Execute the resume command instead of printing it")
	capture := fs.String("capture", "", "Run under a pty and record the terminal output to FILE")
	jsonOutput := fs.Bool("json", false, "Output as JSON")
	dbPath := fs.String("db-path", "", "Index database path")
	fs.Usage = func() {
		fmt.Println("Usage: ai-session-viewer resume <session-id> [flags]")
		fmt.Println("\nPrint the command that reopens a session in its tool, or run it")
		fmt.Println("directly. --capture implies running.")
		fmt.Println("\nOptions:")
		fs.PrintDefaults()
		fmt.Println("\nExamples:")
		fmt.Println("  ai-session-viewer resume 6f9a2c")
		fmt.Println("  ai-session-viewer resume 6f9a2c --run")
		fmt.Println("  ai-session-viewer resume 6f9a2c --capture transcript.log")
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
	cmd := resumeCommandFor(parsers, rec)
	if cmd == "" {
		out.Error(fmt.Sprintf("no resume command for tool %q", rec.Tool), ErrCodeInvalidOperation)
		os.Exit(1)
	}

	if !*run && *capture == "" {
		out.Print(cmd+"\n", map[string]interface{}{
			"session_id":     rec.SessionID,
			"tool":           rec.Tool,
			"resume_command": cmd,
		})
		return
	}

	// SIGTERM tears the child down cleanly. Ctrl+C stays with the child.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	if *capture != "" {
		if err := session.LaunchCapture(ctx, cmd, *capture); err != nil {
			out.Error(err.Error(), ErrCodeInvalidOperation)
			os.Exit(1)
		}
		fmt.Printf("\n📄 transcript saved to %s\n", FormatPath(*capture))
		return
	}

	if err := session.Launch(ctx, cmd); err != nil {
		out.Error(err.Error(), ErrCodeInvalidOperation)
		os.Exit(1)
	}
}
