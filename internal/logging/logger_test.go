package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

// setupLog resets the global state, initializes logging into a temp dir, and
// registers cleanup. Debug mode and LogDir are filled in.
func setupLog(t *testing.T, cfg Config) string {
	t.Helper()
	Shutdown()
	dir := t.TempDir()
	cfg.Debug = true
	cfg.LogDir = dir
	Init(cfg)
	t.Cleanup(Shutdown)
	return dir
}

func TestInitWritesJSONL(t *testing.T) {
	dir := setupLog(t, Config{})

	Logger().Info("test_message", "key", "value")

	record := firstRecord(t, filepath.Join(dir, "debug.log"))
	if record["msg"] != "test_message" {
		t.Errorf("msg = %v, want test_message", record["msg"])
	}
	if record["key"] != "value" {
		t.Errorf("key = %v, want value", record["key"])
	}
}

func TestInitNonDebugDiscards(t *testing.T) {
	Shutdown()
	Init(Config{Debug: false})
	t.Cleanup(Shutdown)

	l := Logger()
	if l == nil {
		t.Fatal("Logger() = nil after Init")
	}
	// Must not panic with no writer configured
	l.Info("this goes nowhere")
}

func TestForComponent(t *testing.T) {
	dir := setupLog(t, Config{})

	ForComponent(CompIndex).Info("reconcile_done", "indexed", 3)

	record := firstRecord(t, filepath.Join(dir, "debug.log"))
	if record["component"] != CompIndex {
		t.Errorf("component = %v, want %s", record["component"], CompIndex)
	}
}

func TestForComponentBeforeInit(t *testing.T) {
	Shutdown()

	// Component loggers built before Init must reach the real sink once
	// Init runs. liveHandler resolves the handler at log time to make
	// that work.
	cl := ForComponent(CompWatch)

	dir := setupLog(t, Config{})
	cl.Info("late_bound")

	record := firstRecord(t, filepath.Join(dir, "debug.log"))
	if record["msg"] != "late_bound" {
		t.Errorf("msg = %v, want late_bound", record["msg"])
	}
	if record["component"] != CompWatch {
		t.Errorf("component = %v, want %s", record["component"], CompWatch)
	}
}

func TestLevelFiltering(t *testing.T) {
	dir := setupLog(t, Config{Level: "warn"})

	Logger().Info("below_threshold")
	Logger().Warn("above_threshold")

	data, err := os.ReadFile(filepath.Join(dir, "debug.log"))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if containsMsg(data, "below_threshold") {
		t.Error("info record written despite warn level")
	}
	if !containsMsg(data, "above_threshold") {
		t.Error("warn record missing")
	}
}

func TestTextFormat(t *testing.T) {
	dir := setupLog(t, Config{Format: "text"})

	Logger().Info("text_format_test")

	data, err := os.ReadFile(filepath.Join(dir, "debug.log"))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}

	var record map[string]any
	if err := json.Unmarshal(data, &record); err == nil {
		t.Error("log line parsed as JSON, want text format")
	}
}

func TestDumpRingBuffer(t *testing.T) {
	dir := setupLog(t, Config{RingBufferSize: 1024})

	Logger().Info("ring_test_message")

	dumpPath := filepath.Join(dir, "crash-dump.jsonl")
	if err := DumpRingBuffer(dumpPath); err != nil {
		t.Fatalf("DumpRingBuffer: %v", err)
	}

	data, err := os.ReadFile(dumpPath)
	if err != nil {
		t.Fatalf("read dump file: %v", err)
	}
	if !containsMsg(data, "ring_test_message") {
		t.Error("crash dump missing the logged record")
	}
}

// firstRecord parses the first JSONL record from a log file.
func firstRecord(t *testing.T, path string) map[string]any {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	for i, b := range data {
		if b == '\n' {
			var record map[string]any
			if err := json.Unmarshal(data[:i], &record); err != nil {
				t.Fatalf("parse JSONL: %v (data: %s)", err, string(data[:i]))
			}
			return record
		}
	}
	t.Fatal("log file has no complete record")
	return nil
}

// containsMsg reports whether any JSONL record carries the given msg field.
func containsMsg(data []byte, msg string) bool {
	start := 0
	for i, b := range data {
		if b == '\n' {
			var record map[string]any
			if err := json.Unmarshal(data[start:i], &record); err == nil {
				if record["msg"] == msg {
					return true
				}
			}
			start = i + 1
		}
	}
	return false
}
