package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	BackendWebhook = "webhook"
	BackendOpenAI  = "openai"
)

const (
	DefaultQueryURL   = "https://mailabs.app.n8n.cloud/webhook/query"
	DefaultSummaryURL = "https://mailabs.app.n8n.cloud/webhook/summary"
)

type Config struct {
	Backend        string
	QueryURL       string
	SummaryURL     string
	RequestTimeout time.Duration
	AccountLabel   string

	OpenAIKey           string
	Model               string
	AssistantPrompt     string
	MaxCompletionTokens int

	TelegramToken string

	LogLevel  string
	LogFormat string
	LogFile   string

	Transcript Transcript
}

// Transcript holds every fixed string that ends up in a conversation.
type Transcript struct {
	Welcome         string `yaml:"welcome"`
	QueryFallback   string `yaml:"query_fallback"`
	QueryFailure    string `yaml:"query_failure"`
	SummaryFallback string `yaml:"summary_fallback"`
	SummaryFailure  string `yaml:"summary_failure"`
	UploadMarker    string `yaml:"upload_marker"`
	Typing          string `yaml:"typing"`
}

func DefaultTranscript() Transcript {
	return Transcript{
		Welcome:         "Welcome to LawGPT! How can I assist you today?",
		QueryFallback:   "Sorry, I couldn't understand that.",
		QueryFailure:    "There was an error processing your request.",
		SummaryFallback: "File uploaded. Processing completed.",
		SummaryFailure:  "Error uploading file.",
		UploadMarker:    "📎 Uploaded: %s",
		Typing:          "LawGPT is typing...",
	}
}

// UploadNotice renders the user entry for an uploaded file.
func (t Transcript) UploadNotice(name string) string {
	return fmt.Sprintf(t.UploadMarker, name)
}

func Load(path string) (Config, error) {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("reading %s: %w", path, err)
	}

	cfg := Config{
		Backend:         strings.ToLower(getenvDefault("LAWGPT_BACKEND", BackendWebhook)),
		QueryURL:        getenvDefault("LAWGPT_QUERY_URL", DefaultQueryURL),
		SummaryURL:      getenvDefault("LAWGPT_SUMMARY_URL", DefaultSummaryURL),
		AccountLabel:    getenvDefault("LAWGPT_ACCOUNT_LABEL", "guest (Free Plan)"),
		OpenAIKey:       os.Getenv("OPENAI_API_KEY"),
		Model:           getenvDefault("OPENAI_MODEL", "gpt-5.1"),
		AssistantPrompt: getenvDefault("ASSISTANT_PROMPT", "You are LawGPT, a legal research assistant. Answer clearly and note when a lawyer should be consulted."),
		TelegramToken:   os.Getenv("TELEGRAM_BOT_TOKEN"),
		LogLevel:        getenvDefault("LOG_LEVEL", "info"),
		LogFormat:       getenvDefault("LOG_FORMAT", "text"),
		LogFile:         os.Getenv("LOG_FILE"),
		Transcript:      DefaultTranscript(),
	}

	var err error
	if cfg.MaxCompletionTokens, err = getenvInt("MAX_TOKENS", 4096); err != nil {
		return cfg, err
	}
	timeoutSeconds, err := getenvInt("LAWGPT_REQUEST_TIMEOUT_SECONDS", 0)
	if err != nil {
		return cfg, err
	}
	if timeoutSeconds < 0 {
		return cfg, fmt.Errorf("LAWGPT_REQUEST_TIMEOUT_SECONDS must not be negative, got %d", timeoutSeconds)
	}
	cfg.RequestTimeout = time.Duration(timeoutSeconds) * time.Second

	switch cfg.Backend {
	case BackendWebhook:
	case BackendOpenAI:
		if cfg.OpenAIKey == "" {
			return cfg, errors.New("OPENAI_API_KEY is required for the openai backend")
		}
	default:
		return cfg, fmt.Errorf("unknown LAWGPT_BACKEND %q", cfg.Backend)
	}

	if path := os.Getenv("LAWGPT_TRANSCRIPT_FILE"); path != "" {
		t, err := LoadTranscript(path, cfg.Transcript)
		if err != nil {
			return cfg, err
		}
		cfg.Transcript = t
	}

	return cfg, nil
}

// LoadTranscript overlays the strings found in a YAML file on base. Keys
// missing from the file keep their base value.
func LoadTranscript(path string, base Transcript) (Transcript, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("reading transcript file: %w", err)
	}

	var override Transcript
	if err := yaml.Unmarshal(data, &override); err != nil {
		return base, fmt.Errorf("parsing transcript file %s: %w", path, err)
	}

	merged := base
	overlay(&merged.Welcome, override.Welcome)
	overlay(&merged.QueryFallback, override.QueryFallback)
	overlay(&merged.QueryFailure, override.QueryFailure)
	overlay(&merged.SummaryFallback, override.SummaryFallback)
	overlay(&merged.SummaryFailure, override.SummaryFailure)
	overlay(&merged.UploadMarker, override.UploadMarker)
	overlay(&merged.Typing, override.Typing)

	if strings.Count(merged.UploadMarker, "%s") != 1 {
		return base, fmt.Errorf("upload_marker must contain exactly one %%s, got %q", merged.UploadMarker)
	}
	return merged, nil
}

func overlay(dst *string, v string) {
	if strings.TrimSpace(v) != "" {
		*dst = v
	}
}

func getenvDefault(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func getenvInt(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def, fmt.Errorf("invalid int for %s=%q: %w", key, v, err)
	}
	return n, nil
}
