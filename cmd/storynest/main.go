package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/user/storynest/internal/config"
	"github.com/user/storynest/internal/contextwindow"
	"github.com/user/storynest/internal/conversation"
	"github.com/user/storynest/internal/orchestrator"
	"github.com/user/storynest/pkg/storyapi"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "storynest",
	Short: "Bedtime story companion for the StoryNest backend",
	Long: "storynest talks to a StoryNest backend to chat about, generate, and\n" +
		"narrate personalized bedtime stories. Run it with no arguments for the\n" +
		"interactive terminal, or use serve to run the Telegram daemon.",
	RunE: runChat,
}

func main() {
	rootCmd.PersistentFlags().StringVar(&cfgPath,
		"config",
		filepath.Join(os.Getenv("HOME"), ".storynest", "config.json"),
		"config file path")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// loadConfig loads the config file, exiting on failure. Commands call this
// after flag parsing so --config is honored.
func loadConfig() *config.Config {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

// setupLogging installs the default slog handler at the configured level.
func setupLogging(cfg *config.Config) {
	var level slog.Level
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// newService builds the backend client from config.
func newService(cfg *config.Config) *storyapi.Client {
	return storyapi.New(&storyapi.Config{
		BaseURL: cfg.Backend.BaseURL,
		Timeout: time.Duration(cfg.Backend.TimeoutSeconds) * time.Second,
	})
}

// newController wires the chat pipeline: backend client, session store, and
// token-budgeted history window.
func newController(cfg *config.Config, service storyapi.Service) *orchestrator.Controller {
	window, err := contextwindow.New(cfg.History.Encoding, cfg.History.MaxContextTokens, cfg.History.OutputReserve)
	if err != nil {
		slog.Warn("context window disabled", "error", err)
		window = nil
	}
	return orchestrator.New(service, conversation.NewStore(), window, int64(cfg.MaxConcurrent))
}
