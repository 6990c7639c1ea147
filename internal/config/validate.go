package config

import (
	"fmt"
	"strings"

	"github.com/joebot/relaybot/internal/history"
	"github.com/joebot/relaybot/internal/logging"
)

// maxHistoryLines keeps depth+1 within Discord's 100-message page.
const maxHistoryLines = 99

// Validate checks the configuration for invalid or missing values.
func (c *Config) Validate() error {
	if errs := c.validate(); len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// RequireDiscord reports whether the Discord channel can be started.
func (c *Config) RequireDiscord() error {
	if c.Discord.Token == "" {
		return fmt.Errorf("DISCORD_TOKEN is required")
	}
	return nil
}

func (c *Config) validate() []string {
	var errs []string

	// LLM_*
	if c.LLM.Model == "" {
		errs = append(errs, "LLM_MODEL is required")
	}
	if c.LLM.MaxTokens < 0 {
		errs = append(errs, "LLM_MAX_TOKENS must be non-negative")
	}

	// BOT_*
	b := c.Bot
	if b.Identity == "" {
		errs = append(errs, "BOT_IDENTITY is required")
	}
	if b.QuestionPrompt == "" {
		errs = append(errs, "BOT_QUESTION_PROMPT is required")
	}
	if b.TriggerLevel < 0 || b.TriggerLevel > 1 {
		errs = append(errs, "BOT_TRIGGER_LEVEL must be between 0 and 1")
	}
	if b.Temperature < 0 || b.Temperature > 2 {
		errs = append(errs, "BOT_TEMPERATURE must be between 0 and 2")
	}
	if b.HistoryLines < 0 || b.HistoryLines > maxHistoryLines {
		errs = append(errs, fmt.Sprintf("BOT_HISTORY_LINES must be between 0 and %d", maxHistoryLines))
	}
	if b.HistoryFormat != history.FormatText && b.HistoryFormat != history.FormatJSON {
		errs = append(errs, fmt.Sprintf("BOT_HISTORY_FORMAT must be %q or %q", history.FormatText, history.FormatJSON))
	}

	switch b.Mode {
	case ModeTrigger:
		if len(b.TriggerWords()) > 0 && b.TriggerPrompt == "" {
			errs = append(errs, "BOT_TRIGGER_PROMPT is required when BOT_TRIGGERS is set")
		}
	case ModeCommand:
		if strings.TrimSpace(b.Command) == "" {
			errs = append(errs, "BOT_COMMAND is required in command mode")
		}
	default:
		errs = append(errs, fmt.Sprintf("BOT_MODE must be %q or %q", ModeTrigger, ModeCommand))
	}

	// LOG_*
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, "LOG_LEVEL: "+err.Error())
	}

	return errs
}
