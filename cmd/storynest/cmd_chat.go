package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/user/storynest/internal/illustration"
	"github.com/user/storynest/internal/speech"
	"github.com/user/storynest/internal/state"
	"github.com/user/storynest/internal/tui"
)

func init() {
	rootCmd.AddCommand(chatCmd)
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Open the interactive story terminal",
	Args:  cobra.NoArgs,
	RunE:  runChat,
}

// runChat is also the root command's action: storynest with no arguments
// drops straight into the terminal.
func runChat(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	setupLogging(cfg)

	service := newService(cfg)
	controller := newController(cfg, service)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	controller.Start(ctx)
	defer controller.Stop()

	media := state.NewMediaStore(cfg.DataDir)
	speaker := speech.New(service, media, speech.Options{
		Lang:     cfg.TTS.Lang,
		Slow:     cfg.TTS.Slow,
		Player:   cfg.TTS.Player,
		Fallback: cfg.TTS.FallbackCommand,
	})

	var images *illustration.Fetcher
	if cfg.Illustration.Enabled && cfg.Illustration.BaseURL != "" {
		images = illustration.New(illustration.Config{
			BaseURL: cfg.Illustration.BaseURL,
			Width:   cfg.Illustration.Width,
			Height:  cfg.Illustration.Height,
		}, media)
	}

	if err := tui.Run(controller, speaker, images, "tui:default"); err != nil {
		return fmt.Errorf("terminal session: %w", err)
	}
	return nil
}
