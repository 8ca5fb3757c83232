package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/user/storynest/internal/delivery"
	"github.com/user/storynest/internal/illustration"
	"github.com/user/storynest/internal/scheduler"
	"github.com/user/storynest/internal/state"
	"github.com/user/storynest/internal/telegram"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Telegram storyteller daemon",
	RunE:  runServe,
}

func writePIDFile(dataDir string) (string, error) {
	pidPath := filepath.Join(dataDir, "storynest.pid")
	pid := os.Getpid()
	if err := os.WriteFile(pidPath, []byte(strconv.Itoa(pid)+"\n"), 0644); err != nil {
		return "", fmt.Errorf("write PID file: %w", err)
	}
	return pidPath, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	setupLogging(cfg)

	if cfg.Telegram.Token == "" {
		return fmt.Errorf("telegram token not configured; run storynest setup or set TELEGRAM_BOT_TOKEN")
	}

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	pidPath, err := writePIDFile(cfg.DataDir)
	if err != nil {
		return err
	}
	defer os.Remove(pidPath)

	service := newService(cfg)
	controller := newController(cfg, service)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	controller.Start(ctx)
	defer controller.Stop()

	// Stores
	media := state.NewMediaStore(cfg.DataDir)
	transcripts := state.NewTranscriptLog(cfg.DataDir)
	reminders := state.NewReminderStore(filepath.Join(cfg.DataDir, "reminders.json"))

	var images *illustration.Fetcher
	if cfg.Illustration.Enabled && cfg.Illustration.BaseURL != "" {
		images = illustration.New(illustration.Config{
			BaseURL: cfg.Illustration.BaseURL,
			Width:   cfg.Illustration.Width,
			Height:  cfg.Illustration.Height,
			Timeout: 30 * time.Second,
		}, media)
	}

	slog.Info("storynest started",
		"data_dir", cfg.DataDir,
		"log_level", cfg.LogLevel,
		"max_concurrent", cfg.MaxConcurrent,
		"backend_url", cfg.Backend.BaseURL,
		"pid_file", pidPath,
	)

	// Telegram adapter
	adapter, err := telegram.New(cfg.Telegram.Token, controller, transcripts, images)
	if err != nil {
		return fmt.Errorf("create telegram adapter: %w", err)
	}
	go adapter.Start(ctx)
	slog.Info("telegram adapter started")

	// Delivery registry routes reminder prompts to the owning frontend.
	deliveryReg := delivery.NewRegistry()
	deliveryReg.Register("telegram:", adapter.DeliverReminder)

	// Scheduler
	sched := scheduler.New(reminders, func(sessionKey, prompt string) {
		if err := deliveryReg.Deliver(sessionKey, prompt); err != nil {
			slog.Error("reminder delivery failed", "session_key", sessionKey, "error", err)
		}
	})
	if err := sched.Start(); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer sched.Stop()
	slog.Info("scheduler started")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	for {
		sig := <-sigChan
		if sig == syscall.SIGHUP {
			slog.Info("received SIGHUP, restarting")
			execPath, err := os.Executable()
			if err != nil {
				slog.Error("failed to get executable path", "error", err)
				continue
			}
			// Clean up PID file before re-exec
			os.Remove(pidPath)
			if err := syscall.Exec(execPath, os.Args, os.Environ()); err != nil {
				slog.Error("failed to re-exec", "error", err)
				if _, writeErr := writePIDFile(cfg.DataDir); writeErr != nil {
					slog.Error("failed to re-write PID file", "error", writeErr)
				}
				continue
			}
		}
		// SIGINT or SIGTERM
		slog.Info("shutting down", "signal", sig)
		return nil
	}
}
