package logging

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Component names attached to every log record.
const (
	CompCLI     = "cli"
	CompParser  = "parser"
	CompScan    = "scan"
	CompStore   = "store"
	CompIndex   = "index"
	CompQuery   = "query"
	CompSummary = "summary"
	CompWatch   = "watch"
	CompUI      = "ui"
)

// Config controls where debug logs go and how they rotate.
type Config struct {
	// LogDir receives debug.log and its rotated copies
	LogDir string

	// Level drops records below it: "debug", "info", "warn", "error"
	Level string

	// Format selects the handler, "json" (default) or "text"
	Format string

	// MaxSizeMB rotates the file past this size (default: 10)
	MaxSizeMB int

	// MaxBackups caps how many rotated files survive (default: 3)
	MaxBackups int

	// MaxAgeDays expires rotated files by age (default: 10)
	MaxAgeDays int

	// Compress gzips rotated files (default: true)
	Compress bool

	// RingBufferSize sizes the in-memory tail in bytes (default: 1MB)
	RingBufferSize int

	// Debug turns file logging on
	Debug bool
}

var (
	mu      sync.RWMutex
	root    *slog.Logger
	ring    *RingBuffer
	fileOut *lumberjack.Logger
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Init wires up the global logger. Without debug mode or an explicit log
// directory everything is discarded, which keeps stdout clean for the list
// output and the TUI.
func Init(cfg Config) {
	mu.Lock()
	defer mu.Unlock()

	if !cfg.Debug && cfg.LogDir == "" {
		root = discardLogger()
		ring = NewRingBuffer(1024)
		return
	}

	if cfg.MaxSizeMB <= 0 {
		cfg.MaxSizeMB = 10
	}
	if cfg.MaxBackups <= 0 {
		cfg.MaxBackups = 3
	}
	if cfg.MaxAgeDays <= 0 {
		cfg.MaxAgeDays = 10
	}
	if cfg.RingBufferSize <= 0 {
		cfg.RingBufferSize = 1024 * 1024
	}

	fileOut = &lumberjack.Logger{
		Filename:   filepath.Join(cfg.LogDir, "debug.log"),
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}

	// The ring buffer holds the newest records so a SIGUSR1 dump shows the
	// run's tail even after the file has rotated.
	ring = NewRingBuffer(cfg.RingBufferSize)

	sink := io.MultiWriter(fileOut, ring)
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}
	if cfg.Format == "text" {
		root = slog.New(slog.NewTextHandler(sink, opts))
	} else {
		root = slog.New(slog.NewJSONHandler(sink, opts))
	}
}

// Logger returns the global logger. Before Init it returns a discard logger.
func Logger() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	if root == nil {
		return discardLogger()
	}
	return root
}

// ForComponent returns a logger tagged with the component name. The returned
// logger resolves the active handler on every call, so package-level vars
// created before Init still reach the real sink.
func ForComponent(name string) *slog.Logger {
	return slog.New(&liveHandler{component: name})
}

// liveHandler defers handler lookup to log time. Binding the handler when the
// logger is created would freeze package-level component loggers onto the
// discard handler that precedes Init.
type liveHandler struct {
	component string
	attrs     []slog.Attr
	group     string
}

func (h *liveHandler) resolve() slog.Handler {
	out := Logger().Handler()
	out = out.WithAttrs([]slog.Attr{slog.String("component", h.component)})
	if len(h.attrs) > 0 {
		out = out.WithAttrs(h.attrs)
	}
	if h.group != "" {
		out = out.WithGroup(h.group)
	}
	return out
}

func (h *liveHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return Logger().Handler().Enabled(ctx, level)
}

func (h *liveHandler) Handle(ctx context.Context, r slog.Record) error {
	return h.resolve().Handle(ctx, r)
}

func (h *liveHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &liveHandler{component: h.component, attrs: merged, group: h.group}
}

func (h *liveHandler) WithGroup(name string) slog.Handler {
	return &liveHandler{component: h.component, attrs: h.attrs, group: name}
}

// DumpRingBuffer writes the buffered records to path.
func DumpRingBuffer(path string) error {
	mu.RLock()
	rb := ring
	mu.RUnlock()
	if rb == nil {
		return nil
	}
	return rb.DumpToFile(path)
}

// Shutdown closes the log writers and resets global state.
func Shutdown() {
	mu.Lock()
	defer mu.Unlock()

	if fileOut != nil {
		fileOut.Close()
		fileOut = nil
	}
	root = nil
	ring = nil
}
