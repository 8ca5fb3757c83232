package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/user/storynest/internal/config"
)

func init() {
	rootCmd.AddCommand(setupCmd)
}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive setup wizard",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		scanner := bufio.NewScanner(os.Stdin)

		fmt.Println("StoryNest Setup Wizard")
		fmt.Println("Press Enter to accept the default value shown in brackets.")
		fmt.Println()

		cfg.Backend.BaseURL = prompt(scanner, "Storyteller backend URL", cfg.Backend.BaseURL)

		timeoutStr := prompt(scanner, "Backend timeout in seconds", strconv.Itoa(cfg.Backend.TimeoutSeconds))
		if n, err := strconv.Atoi(timeoutStr); err == nil && n > 0 {
			cfg.Backend.TimeoutSeconds = n
		}

		cfg.TTS.Lang = prompt(scanner, "Narration language", cfg.TTS.Lang)

		cfg.TTS.Player = prompt(scanner, "Audio player command (optional, autodetected when empty)", cfg.TTS.Player)

		cfg.Telegram.Token = prompt(scanner, "Telegram bot token (optional)", cfg.Telegram.Token)

		enabledStr := prompt(scanner, "Fetch story illustrations (true/false)", strconv.FormatBool(cfg.Illustration.Enabled))
		if b, err := strconv.ParseBool(enabledStr); err == nil {
			cfg.Illustration.Enabled = b
		}

		if err := config.Save(cfgPath, cfg); err != nil {
			return fmt.Errorf("save config: %w", err)
		}

		fmt.Println()
		fmt.Println("Configuration saved to", cfgPath)
		return nil
	},
}

// prompt displays a labeled prompt with a default value and reads user input.
// If the user enters nothing, the default is returned.
func prompt(scanner *bufio.Scanner, label, defaultVal string) string {
	if defaultVal != "" {
		fmt.Printf("%s [%s]: ", label, defaultVal)
	} else {
		fmt.Printf("%s: ", label)
	}
	if scanner.Scan() {
		input := strings.TrimSpace(scanner.Text())
		if input != "" {
			return input
		}
	}
	return defaultVal
}
