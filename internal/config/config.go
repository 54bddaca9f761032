package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
)

// FileName is the TOML config file for user preferences
const FileName = "config.toml"

// UserConfig is the TOML file a user edits at ~/.ai-session-viewer/config.toml.
type UserConfig struct {
	// DefaultTool scopes commands that take no -t flag: "claude", "codex", "all"
	DefaultTool string `toml:"default_tool"`

	// Theme sets the browser color scheme: "dark" (default), "light", or "system"
	Theme string `toml:"theme"`

	// DBPath overrides the index database location
	// Default: ~/.cache/ai-session-viewer/index.db
	DBPath string `toml:"db_path"`

	// ClaudeDir overrides the Claude Code home (default: ~/.claude)
	// CLAUDE_CONFIG_DIR takes precedence over this setting
	ClaudeDir string `toml:"claude_dir"`

	// CodexDir overrides the Codex home (default: ~/.codex)
	CodexDir string `toml:"codex_dir"`

	// Summary defines LLM summarizer settings
	Summary SummarySettings `toml:"summary"`

	// Watch defines watch-mode settings
	Watch WatchSettings `toml:"watch"`

	// Logs defines debug log settings
	Logs LogSettings `toml:"logs"`
}

// SummarySettings defines the LLM summarizer configuration
type SummarySettings struct {
	// Provider is "openai" (default), "anthropic", or "google"
	Provider string `toml:"provider"`

	// Model overrides the provider's default model
	Model string `toml:"model"`

	// APIKey is the provider key; prefer the provider's environment variable
	APIKey string `toml:"api_key"`

	// BaseURL points OpenAI-compatible requests at a custom endpoint
	BaseURL string `toml:"base_url"`

	// MaxTokens caps the summary length (default: 200)
	MaxTokens int `toml:"max_tokens"`

	// RequestsPerSecond limits summarizer API calls (default: 2)
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// WatchSettings defines watch-mode configuration
type WatchSettings struct {
	// DebounceMS is the quiet period after a file event before reindexing
	// Default: 300
	DebounceMS int `toml:"debounce_ms"`

	// ReconcilesPerMinute limits how often watch mode reindexes (default: 30)
	ReconcilesPerMinute float64 `toml:"reconciles_per_minute"`
}

// LogSettings defines debug log configuration
type LogSettings struct {
	// DebugLevel drops records below it: "debug", "info", "warn", "error"
	DebugLevel string `toml:"debug_level"`

	// DebugFormat selects "json" (default) or "text" log lines
	DebugFormat string `toml:"debug_format"`

	// DebugMaxMB rotates debug.log past this size
	DebugMaxMB int `toml:"debug_max_mb"`

	// DebugBackups is the number of rotated logs to keep
	DebugBackups int `toml:"debug_backups"`

	// DebugRetentionDays is how long to keep rotated logs
	DebugRetentionDays int `toml:"debug_retention_days"`

	// DebugCompress gzips rotated logs
	DebugCompress bool `toml:"debug_compress"`
}

var defaultUserConfig = UserConfig{}

// Cache for user config (loaded once per process)
var (
	cache   *UserConfig
	cacheMu sync.RWMutex
)

// BaseDir returns the application directory (~/.ai-session-viewer)
func BaseDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".ai-session-viewer"), nil
}

// CacheDir returns the cache directory (~/.cache/ai-session-viewer),
// holding the index database and summarizer cache
func CacheDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".cache", "ai-session-viewer"), nil
}

// DefaultIndexPath returns the default index database path
func DefaultIndexPath() (string, error) {
	dir, err := CacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "index.db"), nil
}

// Path returns the path to the user config file
func Path() (string, error) {
	dir, err := BaseDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, FileName), nil
}

// Load loads the user configuration from the TOML file.
// Returns cached config after first load.
func Load() (*UserConfig, error) {
	cacheMu.RLock()
	if cache != nil {
		defer cacheMu.RUnlock()
		return cache, nil
	}
	cacheMu.RUnlock()

	cacheMu.Lock()
	defer cacheMu.Unlock()

	// Re-check: another goroutine may have won the write lock first
	if cache != nil {
		return cache, nil
	}

	configPath, err := Path()
	if err != nil {
		cache = &defaultUserConfig
		return cache, nil
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cache = &defaultUserConfig
		return cache, nil
	}

	var cfg UserConfig
	if _, err := toml.DecodeFile(configPath, &cfg); err != nil {
		// Cache the default to prevent repeated parse attempts; the caller
		// still gets the error to display
		cache = &defaultUserConfig
		return cache, fmt.Errorf("config: parse %s: %w", FileName, err)
	}

	cache = &cfg
	return cache, nil
}

// Reload forces a fresh read of the config file
func Reload() (*UserConfig, error) {
	cacheMu.Lock()
	cache = nil
	cacheMu.Unlock()
	return Load()
}

// Save writes the config to config.toml using an atomic write
// (temp file, fsync, rename) and clears the cache.
func Save(cfg *UserConfig) error {
	configPath, err := Path()
	if err != nil {
		return fmt.Errorf("config: resolve path: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o700); err != nil {
		return fmt.Errorf("config: create directory: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString("# ai-session-viewer configuration\n\n")
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}

	tmpPath := configPath + ".tmp"
	if err := os.WriteFile(tmpPath, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("config: write temp file: %w", err)
	}
	if f, err := os.Open(tmpPath); err == nil {
		_ = f.Sync()
		_ = f.Close()
	}
	if err := os.Rename(tmpPath, configPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("config: finalize save: %w", err)
	}

	cacheMu.Lock()
	cache = nil
	cacheMu.Unlock()
	return nil
}

// ExpandTilde expands a leading ~/ to the user's home directory.
func ExpandTilde(path string) string {
	if path == "~" {
		if home, err := os.UserHomeDir(); err == nil {
			return home
		}
		return path
	}
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Clean(filepath.Join(home, path[2:]))
		}
	}
	return path
}
