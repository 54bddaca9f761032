package summary

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/zbsdsb/ai-session-viewer/internal/config"
	"github.com/zbsdsb/ai-session-viewer/internal/logging"
	"github.com/zbsdsb/ai-session-viewer/internal/session"
)

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGoogle    = "google"
)

var defaultModels = map[string]string{
	ProviderOpenAI:    "gpt-4o-mini",
	ProviderAnthropic: "claude-3-5-haiku-latest",
	ProviderGoogle:    "gemini-2.0-flash",
}

var envKeys = map[string]string{
	ProviderOpenAI:    "OPENAI_API_KEY",
	ProviderAnthropic: "ANTHROPIC_API_KEY",
	ProviderGoogle:    "GOOGLE_API_KEY",
}

const summaryPrompt = `Summarize the following AI assistant conversation concisely.
Requirements:
1. Capture the core task or discussion topic in 1-3 sentences
2. Note the key technical points or operations, if any
3. Keep the summary under 100 words

User messages:
%s

Output only the summary, with no preamble.`

// LLM summarizes sessions through a chat-completion API, with a disk
// cache keyed by message content so unchanged sessions are never
// re-summarized.
type LLM struct {
	provider  string
	model     string
	apiKey    string
	maxTokens int

	client   *http.Client
	limiter  *rate.Limiter
	cacheDir string
	log      *slog.Logger

	openaiBase   string
	anthropicURL string
	googleBase   string
}

// NewLLM builds a summarizer from the user config, resolving the API
// key from config or the provider's environment variable.
func NewLLM(cfg config.SummarySettings) (*LLM, error) {
	provider := strings.ToLower(cfg.Provider)
	if provider == "" {
		provider = ProviderOpenAI
	}
	model, ok := defaultModels[provider]
	if !ok {
		return nil, fmt.Errorf("summary: unsupported provider %q", cfg.Provider)
	}
	if cfg.Model != "" {
		model = cfg.Model
	}

	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv(envKeys[provider])
	}
	if apiKey == "" {
		return nil, fmt.Errorf("summary: no API key for %s (set %s)", provider, envKeys[provider])
	}

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 200
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 2
	}

	openaiBase := "https://api.openai.com/v1"
	if cfg.BaseURL != "" {
		openaiBase = strings.TrimRight(cfg.BaseURL, "/")
	}

	s := &LLM{
		provider:     provider,
		model:        model,
		apiKey:       apiKey,
		maxTokens:    maxTokens,
		client:       &http.Client{Timeout: 30 * time.Second},
		limiter:      rate.NewLimiter(rate.Limit(rps), 1),
		log:          logging.ForComponent(logging.CompSummary),
		openaiBase:   openaiBase,
		anthropicURL: "https://api.anthropic.com/v1/messages",
		googleBase:   "https://generativelanguage.googleapis.com/v1beta",
	}

	if dir, err := config.CacheDir(); err == nil {
		if err := os.MkdirAll(dir, 0o755); err == nil {
			s.cacheDir = dir
		} else {
			s.log.Warn("summary cache disabled", "dir", dir, "error", err)
		}
	}
	return s, nil
}

func (s *LLM) Provider() string { return s.provider }
func (s *LLM) Model() string    { return s.model }

// Summarize returns the cached summary when present, otherwise calls
// the provider and stores the result.
func (s *LLM) Summarize(ctx context.Context, messages []string) (string, error) {
	if len(messages) == 0 {
		return "(no user messages)", nil
	}

	key := cacheKey(messages)
	if cached, ok := s.cachedSummary(key); ok {
		return cached, nil
	}

	prompt := buildPrompt(messages)
	if err := s.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("summary: rate limit wait: %w", err)
	}

	var text string
	var err error
	switch s.provider {
	case ProviderOpenAI:
		text, err = s.callOpenAI(ctx, prompt)
	case ProviderAnthropic:
		text, err = s.callAnthropic(ctx, prompt)
	case ProviderGoogle:
		text, err = s.callGoogle(ctx, prompt)
	}
	if err != nil {
		return "", err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("summary: %s returned an empty summary", s.provider)
	}
	s.saveCache(key, text)
	return text, nil
}

// buildPrompt folds the first messages into the prompt template, each
// truncated so one pathological session cannot blow the request size.
func buildPrompt(messages []string) string {
	head := messages
	if len(head) > 10 {
		head = head[:10]
	}
	lines := make([]string, len(head))
	for i, msg := range head {
		lines[i] = "- " + session.TruncateRunes(msg, 200)
	}
	return fmt.Sprintf(summaryPrompt, strings.Join(lines, "\n"))
}

func cacheKey(messages []string) string {
	data, _ := json.Marshal(messages)
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}

func (s *LLM) cachedSummary(key string) (string, bool) {
	if s.cacheDir == "" {
		return "", false
	}
	data, err := os.ReadFile(filepath.Join(s.cacheDir, key+".txt"))
	if err != nil || len(data) == 0 {
		return "", false
	}
	return string(data), true
}

func (s *LLM) saveCache(key, text string) {
	if s.cacheDir == "" {
		return
	}
	if err := os.WriteFile(filepath.Join(s.cacheDir, key+".txt"), []byte(text), 0o644); err != nil {
		s.log.Warn("summary cache write failed", "key", key, "error", err)
	}
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (s *LLM) callOpenAI(ctx context.Context, prompt string) (string, error) {
	payload := map[string]any{
		"model":       s.model,
		"messages":    []map[string]string{{"role": "user", "content": prompt}},
		"max_tokens":  s.maxTokens,
		"temperature": 0.3,
	}
	headers := map[string]string{"Authorization": "Bearer " + s.apiKey}

	var resp openAIResponse
	if err := s.post(ctx, s.openaiBase+"/chat/completions", headers, payload, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("summary: openai returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

type anthropicResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
}

func (s *LLM) callAnthropic(ctx context.Context, prompt string) (string, error) {
	payload := map[string]any{
		"model":      s.model,
		"max_tokens": s.maxTokens,
		"messages":   []map[string]string{{"role": "user", "content": prompt}},
	}
	headers := map[string]string{
		"x-api-key":         s.apiKey,
		"anthropic-version": "2023-06-01",
	}

	var resp anthropicResponse
	if err := s.post(ctx, s.anthropicURL, headers, payload, &resp); err != nil {
		return "", err
	}
	if len(resp.Content) == 0 {
		return "", fmt.Errorf("summary: anthropic returned no content")
	}
	return resp.Content[0].Text, nil
}

type googleResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

func (s *LLM) callGoogle(ctx context.Context, prompt string) (string, error) {
	payload := map[string]any{
		"contents": []map[string]any{
			{"parts": []map[string]string{{"text": prompt}}},
		},
		"generationConfig": map[string]any{
			"maxOutputTokens": s.maxTokens,
			"temperature":     0.3,
		},
	}
	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		s.googleBase, s.model, url.QueryEscape(s.apiKey))

	var resp googleResponse
	if err := s.post(ctx, endpoint, nil, payload, &resp); err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("summary: google returned no candidates")
	}
	return resp.Candidates[0].Content.Parts[0].Text, nil
}

func (s *LLM) post(ctx context.Context, endpoint string, headers map[string]string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("summary: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("summary: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("summary: call %s: %w", s.provider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("summary: %s API returned status %d", s.provider, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("summary: parse %s response: %w", s.provider, err)
	}
	return nil
}
