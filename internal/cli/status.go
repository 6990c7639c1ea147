package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/joebot/relaybot/internal/config"
)

// RunStatus displays the current configuration status with styled output.
// validateErr is the error returned by config.Load, if any.
func RunStatus(cfg *config.Config, validateErr error) {
	fmt.Println()
	fmt.Println(Title("Status"))
	fmt.Println()

	fmt.Printf("  %-14s %s  %s\n", ".env", StatusBadge(fileExists(config.DotEnvPath)), DimStyle.Render(config.DotEnvPath))
	if cfg == nil {
		fmt.Println()
		fmt.Println("  " + ErrStyle.Render("Error: "+validateErr.Error()))
		fmt.Println()
		return
	}

	fmt.Println()
	fmt.Println("  " + BoldStyle.Render("Completion endpoint"))
	base := cfg.LLM.BaseURL
	if base == "" {
		base = "(library default)"
	}
	fmt.Printf("    %-12s %s\n", "Base URL", base)
	fmt.Printf("    %-12s %s\n", "Model", orDash(cfg.LLM.Model))
	fmt.Printf("    %-12s %s\n", "API key", StatusBadge(cfg.LLM.APIKey != "" && cfg.LLM.APIKey != "sk-no-key-required"))
	fmt.Println()

	b := cfg.Bot
	fmt.Println("  " + BoldStyle.Render("Bot"))
	fmt.Printf("    %-12s %s\n", "Mode", b.Mode)
	switch b.Mode {
	case config.ModeCommand:
		fmt.Printf("    %-12s %s\n", "Command", b.Command)
	default:
		fmt.Printf("    %-12s %s\n", "Triggers", orDash(strings.Join(b.TriggerWords(), ", ")))
		fmt.Printf("    %-12s %.0f%%\n", "Trigger odds", b.TriggerLevel*100)
	}
	fmt.Printf("    %-12s %d (%s)\n", "History", b.HistoryLines, b.HistoryFormat)
	fmt.Printf("    %-12s %.2f\n", "Temperature", b.Temperature)
	fmt.Printf("    %-12s %s\n", "Allow list", orDash(strings.Join(b.AllowFrom, ", ")))
	fmt.Println()

	fmt.Println("  " + BoldStyle.Render("Channels"))
	fmt.Printf("    %s  Discord\n", StatusBadge(cfg.RequireDiscord() == nil))
	fmt.Println()

	if validateErr != nil {
		for _, line := range strings.Split(validateErr.Error(), "\n") {
			fmt.Println("  " + ErrStyle.Render(line))
		}
		fmt.Println()
	}
}

func orDash(s string) string {
	if s == "" {
		return DimStyle.Render("-")
	}
	return s
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
