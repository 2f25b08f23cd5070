// Package config reads bot configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/stupiduntilnot/recall/internal/gate"
	"github.com/stupiduntilnot/recall/internal/history"
)

const defaultSystemPrompt = "You are a helpful assistant with access to the " +
	"full conversation history of this chat. Use get_chat_history to look up " +
	"earlier messages when the user refers to them, and reply_to_user to answer."

// Config holds all settings for the bot process.
type Config struct {
	TelegramAPIBase string
	PollTimeout     int
	TypingIndicator bool

	OpenAIAPIKey      string
	OpenAIChatCompURL string
	OpenAIModel       string
	SystemPrompt      string

	DBPath        string
	SchemaVariant history.Variant
	HistoryWindow int
	TokenBudget   int

	AllowedChatIDs []int64

	MaxToolTurns       int
	MaxWallTimeSeconds int
	MaxRetries         int

	ToolMaxOutputLines int
	ToolMaxOutputBytes int

	ModelProvider  string
	Transport      string
	ScriptProvider string
	ScriptPoll     string
	ScriptSend     string

	LogLevel string
}

// Load reads configuration from environment variables. Tokens are only
// required for the backends that use them.
func Load() (Config, error) {
	modelProvider := envOrDefault("RECALL_MODEL_PROVIDER", "openai")
	transportKind := envOrDefault("RECALL_TRANSPORT", "telegram")

	telegramToken := os.Getenv("TELEGRAM_BOT_TOKEN")
	if transportKind == "telegram" && telegramToken == "" {
		return Config{}, fmt.Errorf("TELEGRAM_BOT_TOKEN is required in environment when RECALL_TRANSPORT=telegram")
	}
	openaiKey := os.Getenv("OPENAI_API_KEY")
	if modelProvider == "openai" && openaiKey == "" {
		return Config{}, fmt.Errorf("OPENAI_API_KEY is required in environment when RECALL_MODEL_PROVIDER=openai")
	}

	variant := history.Variant(envOrDefault("RECALL_SCHEMA", string(history.VariantTurns)))
	switch variant {
	case history.VariantTurns, history.VariantMessages:
	default:
		return Config{}, fmt.Errorf("RECALL_SCHEMA must be %q or %q, got %q",
			history.VariantTurns, history.VariantMessages, variant)
	}

	allowed, err := gate.ParseChatIDs(os.Getenv("ALLOWED_CHAT_IDS"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid ALLOWED_CHAT_IDS: %w", err)
	}

	return Config{
		TelegramAPIBase: fmt.Sprintf("https://api.telegram.org/bot%s", telegramToken),
		PollTimeout:     envIntOrDefault("TG_TIMEOUT", 30),
		TypingIndicator: envBoolOrDefault("RECALL_TYPING_INDICATOR", true),

		OpenAIAPIKey:      openaiKey,
		OpenAIChatCompURL: envOrDefault("OPENAI_CHAT_COMPLETIONS_URL", "https://api.openai.com/v1/chat/completions"),
		OpenAIModel:       envOrDefault("OPENAI_MODEL", "gpt-4o-mini"),
		SystemPrompt:      envOrDefault("RECALL_SYSTEM_PROMPT", defaultSystemPrompt),

		DBPath:        envOrDefault("RECALL_DB_PATH", "/state/recall.db"),
		SchemaVariant: variant,
		HistoryWindow: envIntOrDefault("RECALL_HISTORY_WINDOW", 12),
		TokenBudget:   envIntOrDefault("RECALL_TOKEN_BUDGET", 2048),

		AllowedChatIDs: allowed,

		MaxToolTurns:       envIntOrDefault("RECALL_MAX_TOOL_TURNS", 8),
		MaxWallTimeSeconds: envIntOrDefault("RECALL_MAX_WALL_TIME_SECONDS", 120),
		MaxRetries:         envIntOrDefault("RECALL_MAX_RETRIES", 3),

		ToolMaxOutputLines: envIntOrDefault("RECALL_TOOL_MAX_OUTPUT_LINES", 2000),
		ToolMaxOutputBytes: envIntOrDefault("RECALL_TOOL_MAX_OUTPUT_BYTES", 32768),

		ModelProvider:  modelProvider,
		Transport:      transportKind,
		ScriptProvider: envOrDefault("RECALL_SCRIPT_PROVIDER", "ok"),
		ScriptPoll:     envOrDefault("RECALL_SCRIPT_POLL", "ok"),
		ScriptSend:     envOrDefault("RECALL_SCRIPT_SEND", "ok"),

		LogLevel: envOrDefault("RECALL_LOG_LEVEL", "info"),
	}, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOrDefault(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envBoolOrDefault(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v == "1" || strings.EqualFold(v, "true")
}
