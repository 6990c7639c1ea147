package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"os/user"
	"path/filepath"
	"syscall"

	"github.com/joebot/relaybot/internal/channel"
	"github.com/joebot/relaybot/internal/cli"
	"github.com/joebot/relaybot/internal/config"
	"github.com/joebot/relaybot/internal/llm"
	"github.com/joebot/relaybot/internal/logging"
	"github.com/joebot/relaybot/internal/relay"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(0)
	}

	switch os.Args[1] {
	case "run":
		cmdRun()
	case "console":
		cmdConsole()
	case "status":
		cmdStatus()
	case "onboard":
		if err := cli.RunOnboard(); err != nil {
			fmt.Fprintln(os.Stderr, cli.ErrStyle.Render("  Error: "+err.Error()))
			os.Exit(1)
		}
	case "version", "--version", "-v":
		fmt.Println(cli.Title("v" + cli.Version))
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	dim := cli.DimStyle.Render
	fmt.Println()
	fmt.Println(cli.Title("") + dim(" — Discord ↔ LLM relay"))
	fmt.Println()
	fmt.Println("  " + cli.BoldStyle.Render("Usage"))
	fmt.Println()
	fmt.Printf("    relaybot %-14s %s\n", "run", dim("Connect to Discord and relay messages"))
	fmt.Printf("    relaybot %-14s %s\n", "console", dim("Talk to the bot in a local terminal chat"))
	fmt.Printf("    relaybot %-14s %s\n", "console -m \"…\"", dim("Single message"))
	fmt.Printf("    relaybot %-14s %s\n", "status", dim("Show configuration"))
	fmt.Printf("    relaybot %-14s %s\n", "onboard", dim("Write a starter .env"))
	fmt.Printf("    relaybot %-14s %s\n", "version", dim("Show version"))
	fmt.Println()
	fmt.Println(dim("  Configuration is read from the environment and ./.env"))
	fmt.Println()
}

// --- run command ---

func cmdRun() {
	cfg := mustLoadConfig()
	if err := cfg.RequireDiscord(); err != nil {
		fail(err)
	}
	if _, err := logging.Setup(os.Stderr, cfg.Log.Level, cfg.Log.Color); err != nil {
		fail(err)
	}

	discord, err := channel.NewDiscord(cfg.Discord)
	if err != nil {
		fail(err)
	}
	dispatcher := relay.New(relay.Config{
		Bot:      cfg.Bot,
		LLM:      cfg.LLM,
		Provider: makeProvider(cfg),
		Channel:  discord,
	})

	fmt.Println()
	fmt.Println(cli.Title("Gateway"))
	fmt.Println()
	fmt.Printf("  %-10s %s\n", "Model", cfg.LLM.Model)
	fmt.Printf("  %-10s %s\n", "Mode", cfg.Bot.Mode)
	fmt.Println()
	fmt.Println(cli.DimStyle.Render("  Press Ctrl+C to stop"))
	fmt.Println()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := discord.Start(ctx, dispatcher.Handle); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("Discord channel error", "err", err)
		os.Exit(1)
	}
	fmt.Println("\n  Shutting down...")
}

// --- console command ---

func cmdConsole() {
	cfg := mustLoadConfig()
	redirectLogs(cfg)

	name := "you"
	if u, err := user.Current(); err == nil && u.Username != "" {
		name = u.Username
	}

	console := channel.NewConsole(name, "relaybot")
	dispatcher := relay.New(relay.Config{
		Bot:      cfg.Bot,
		LLM:      cfg.LLM,
		Provider: makeProvider(cfg),
		Channel:  console,
	})
	ccfg := cli.ConsoleConfig{
		Console: console,
		Handler: dispatcher.Handle,
		User:    name,
		Model:   cfg.LLM.Model,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	message := ""
	for i := 2; i < len(os.Args); i++ {
		if (os.Args[i] == "-m" || os.Args[i] == "--message") && i+1 < len(os.Args) {
			message = os.Args[i+1]
			break
		}
	}

	if message != "" {
		if err := cli.RunSingleMessage(ctx, ccfg, message); err != nil {
			os.Exit(1)
		}
		return
	}
	if err := cli.RunConsole(ctx, ccfg); err != nil {
		fail(err)
	}
}

// --- status command ---

func cmdStatus() {
	cfg, err := config.Load()
	cli.RunStatus(cfg, err)
}

// --- helpers ---

// redirectLogs keeps log lines out of the TUI by writing them to a file.
func redirectLogs(cfg *config.Config) {
	logPath := filepath.Join(config.DataDir(), "console.log")
	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		slog.SetDefault(slog.New(logging.NewHandler(io.Discard, nil)))
		return
	}
	if _, err := logging.Setup(f, cfg.Log.Level, false); err != nil {
		slog.SetDefault(slog.New(logging.NewHandler(f, nil)))
	}
}

func mustLoadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		fail(err)
	}
	return cfg
}

func makeProvider(cfg *config.Config) llm.Provider {
	return llm.NewOpenAIProvider(cfg.LLM.APIKey, cfg.LLM.BaseURL, cfg.LLM.Model, cfg.LLM.ExtraHeaders())
}

func fail(err error) {
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, cli.ErrStyle.Render("  Error: "+err.Error()))
	fmt.Fprintln(os.Stderr, cli.DimStyle.Render("  Run `relaybot status` to inspect the configuration."))
	fmt.Fprintln(os.Stderr)
	os.Exit(1)
}
