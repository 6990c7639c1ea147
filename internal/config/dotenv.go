package config

import (
	"fmt"
	"maps"

	"github.com/joho/godotenv"
)

// Template returns a starter set of environment values for a new install.
func Template() map[string]string {
	return map[string]string{
		"DISCORD_TOKEN":       "",
		"LLM_API_KEY":         "sk-no-key-required",
		"LLM_BASE_URL":        "http://localhost:8080/v1",
		"LLM_MODEL":           "local-model",
		"LLM_MAX_TOKENS":      "2000",
		"BOT_IDENTITY":        "You are relaybot, a witty regular of this Discord server. Keep answers short.",
		"BOT_QUESTION_PROMPT": "Recent chat:\n{history}\n\n{user} asks you: {question}",
		"BOT_TRIGGER_PROMPT":  "Recent chat:\n{history}\n\n{user} just said: {question}\nChime in briefly.",
		"BOT_TRIGGERS":        "",
		"BOT_TRIGGER_LEVEL":   "0.25",
		"BOT_TEMPERATURE":     "0.7",
		"BOT_HISTORY_LINES":   "5",
		"BOT_HISTORY_FORMAT":  "text",
		"BOT_MODE":            ModeTrigger,
		"LOG_LEVEL":           "info",
	}
}

// WriteDotEnv writes Template to path, replacing any existing file.
func WriteDotEnv(path string) error {
	if err := godotenv.Write(Template(), path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// UpgradeDotEnv adds Template keys missing from the dotenv file at path.
// Existing values are kept. It returns the number of keys added.
func UpgradeDotEnv(path string) (int, error) {
	local, err := godotenv.Read(path)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", path, err)
	}

	merged := Template()
	added := len(merged)
	for k := range local {
		if _, ok := merged[k]; ok {
			added--
		}
	}
	maps.Copy(merged, local)

	if err := godotenv.Write(merged, path); err != nil {
		return 0, fmt.Errorf("write %s: %w", path, err)
	}
	return added, nil
}
