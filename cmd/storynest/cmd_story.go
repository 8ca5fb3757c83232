package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/user/storynest/internal/speech"
	"github.com/user/storynest/internal/state"
)

func init() {
	rootCmd.AddCommand(storyCmd)
	storyCmd.AddCommand(storyListCmd, storyShowCmd, storyExportCmd, storySpeakCmd)

	storyListCmd.Flags().Int("limit", 20, "maximum number of stories to list")
	storyExportCmd.Flags().String("out", "", "output file path (defaults to <title>.md)")
}

var storyCmd = &cobra.Command{
	Use:   "story",
	Short: "Browse the story library",
}

var storyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved stories",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		cfg := loadConfig()
		service := newService(cfg)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		stories := service.ListStories(ctx, limit, "")
		if len(stories) == 0 {
			fmt.Println("No stories yet. Ask the storyteller for one.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTITLE\tSCORE\tAGES\tCREATED")
		for _, s := range stories {
			score := "-"
			if s.FinalScore != nil {
				score = fmt.Sprintf("%d/10", s.FinalScore.Score)
			}
			created := "-"
			if t := s.CreatedTime(); !t.IsZero() {
				created = t.Format("2006-01-02")
			}
			ages := s.AgeRange
			if ages == "" {
				ages = "-"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", s.ID, s.Title, score, ages, created)
		}
		return w.Flush()
	},
}

var storyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a story to the terminal",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		service := newService(cfg)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		story := service.GetStory(ctx, args[0])
		if story == nil {
			return fmt.Errorf("story not found: %s", args[0])
		}

		fmt.Println(story.Title)
		if story.FinalScore != nil {
			fmt.Printf("score %d/10 after %d drafts\n", story.FinalScore.Score, story.Iterations)
		}
		fmt.Println()
		fmt.Println(story.Content)
		return nil
	},
}

var storyExportCmd = &cobra.Command{
	Use:   "export <id>",
	Short: "Export a story to a Markdown file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		service := newService(cfg)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		story := service.GetStory(ctx, args[0])
		if story == nil {
			return fmt.Errorf("story not found: %s", args[0])
		}

		out, _ := cmd.Flags().GetString("out")
		if out == "" {
			out = state.SafeName(story.Title) + ".md"
		}

		var b strings.Builder
		b.WriteString("# " + story.Title + "\n\n")
		var meta []string
		if story.AgeRange != "" {
			meta = append(meta, "ages "+story.AgeRange)
		}
		if story.FinalScore != nil {
			meta = append(meta, fmt.Sprintf("score %d/10", story.FinalScore.Score))
		}
		if story.Prompt != "" {
			meta = append(meta, "prompt: "+story.Prompt)
		}
		if len(meta) > 0 {
			b.WriteString("_" + strings.Join(meta, " · ") + "_\n\n")
		}
		b.WriteString(story.Content + "\n")
		if err := os.WriteFile(out, []byte(b.String()), 0644); err != nil {
			return fmt.Errorf("write story file: %w", err)
		}
		fmt.Fprintf(os.Stdout, "Exported %q to %s\n", story.Title, out)
		return nil
	},
}

var storySpeakCmd = &cobra.Command{
	Use:   "speak <id>",
	Short: "Read a story aloud",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		setupLogging(cfg)
		service := newService(cfg)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		story := service.GetStory(ctx, args[0])
		if story == nil {
			return fmt.Errorf("story not found: %s", args[0])
		}

		media := state.NewMediaStore(cfg.DataDir)
		speaker := speech.New(service, media, speech.Options{
			Lang:     cfg.TTS.Lang,
			Slow:     cfg.TTS.Slow,
			Player:   cfg.TTS.Player,
			Fallback: cfg.TTS.FallbackCommand,
		})
		return speaker.Speak(ctx, story)
	},
}
