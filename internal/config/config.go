package config

import "strings"

// Bot response modes.
const (
	// ModeTrigger answers direct mentions and, with some probability,
	// messages containing a trigger keyword.
	ModeTrigger = "trigger"
	// ModeCommand answers direct mentions that start with the command
	// keyword and replies with a usage hint otherwise.
	ModeCommand = "command"
)

// Config is the root configuration for relaybot. It is read once from the
// environment at startup and never modified afterwards.
type Config struct {
	Discord DiscordConfig
	LLM     LLMConfig
	Bot     BotConfig
	Log     LogConfig
}

// DiscordConfig holds Discord channel settings.
type DiscordConfig struct {
	Token string `env:"DISCORD_TOKEN"`
	// GuildID restricts the bot to one guild when set.
	GuildID string `env:"DISCORD_GUILD_ID"`
}

// LLMConfig holds completion endpoint settings.
type LLMConfig struct {
	APIKey    string `env:"LLM_API_KEY" envDefault:"sk-no-key-required"`
	BaseURL   string `env:"LLM_BASE_URL"`
	Model     string `env:"LLM_MODEL"`
	MaxTokens int    `env:"LLM_MAX_TOKENS" envDefault:"2000"`
	// OpenRouter attribution headers.
	Referrer string `env:"LLM_REFERRER"`
	Title    string `env:"LLM_TITLE"`
}

// ExtraHeaders returns the optional HTTP headers sent with every completion.
func (c LLMConfig) ExtraHeaders() map[string]string {
	h := map[string]string{}
	if c.Referrer != "" {
		h["HTTP-Referer"] = c.Referrer
	}
	if c.Title != "" {
		h["X-Title"] = c.Title
	}
	return h
}

// BotConfig holds the bot's persona, prompts and reply policy.
type BotConfig struct {
	Identity       string   `env:"BOT_IDENTITY"`
	QuestionPrompt string   `env:"BOT_QUESTION_PROMPT"`
	TriggerPrompt  string   `env:"BOT_TRIGGER_PROMPT"`
	Triggers       []string `env:"BOT_TRIGGERS" envSeparator:","`
	TriggerLevel   float64  `env:"BOT_TRIGGER_LEVEL" envDefault:"0.25"`
	Temperature    float64  `env:"BOT_TEMPERATURE" envDefault:"0.7"`
	HistoryLines   int      `env:"BOT_HISTORY_LINES" envDefault:"5"`
	HistoryFormat  string   `env:"BOT_HISTORY_FORMAT" envDefault:"text"`
	Mode           string   `env:"BOT_MODE" envDefault:"trigger"`
	Command        string   `env:"BOT_COMMAND" envDefault:"summarize"`
	UsageHint      string   `env:"BOT_USAGE_HINT" envDefault:"Mention me with \"summarize\" followed by what you want summarized."`
	AllowFrom      []string `env:"BOT_ALLOW_FROM" envSeparator:","`
	// ErrorReply is posted when a reply could not be produced. Empty keeps
	// failures silent.
	ErrorReply string `env:"BOT_ERROR_REPLY"`
}

// TriggerWords returns the configured trigger keywords with surrounding
// whitespace trimmed and empty entries dropped.
func (b BotConfig) TriggerWords() []string {
	var out []string
	for _, w := range b.Triggers {
		if w = strings.TrimSpace(w); w != "" {
			out = append(out, w)
		}
	}
	return out
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `env:"LOG_LEVEL" envDefault:"info"`
	Color bool   `env:"LOG_COLOR" envDefault:"true"`
}
