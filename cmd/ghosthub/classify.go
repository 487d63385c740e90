package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ghosthub/ghosthub/internal/classifier"
	"github.com/ghosthub/ghosthub/internal/genai"
	"github.com/ghosthub/ghosthub/internal/models"
	"github.com/spf13/cobra"
)

func newClassifyCmd() *cobra.Command {
	var (
		configPath string
		platform   string
	)

	cmd := &cobra.Command{
		Use:   "classify <text>...",
		Short: "Classify a message from the command line",
		Long:  "Runs the developer-intent classifier on the given text and prints the category. Useful for testing the model configuration.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClassify(cmd, configPath, platform, strings.Join(args, " "))
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "ghosthub.yaml", "path to GhostHub config file")
	cmd.Flags().StringVar(&platform, "platform", "cli", "platform label to attach to the message")
	return cmd
}

func runClassify(cmd *cobra.Command, configPath, platform, text string) error {
	cfg, st, err := openStore(configPath)
	if err != nil {
		return err
	}

	client, err := genai.NewClient(genai.ClientOpts{Config: cfg.Model})
	if err != nil {
		return err
	}
	defer client.Close()

	cls, err := classifier.New(classifier.Opts{Capability: client, Store: st})
	if err != nil {
		return err
	}

	ctx := context.Background()
	c, err := cls.Classify(ctx, models.Message{
		Text:      text,
		Author:    "cli",
		Platform:  platform,
		Timestamp: time.Now(),
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Category:   %s\n", c.Category)
	fmt.Fprintf(out, "Confidence: %s\n", c.Confidence)
	if c.Category.Actionable() {
		fmt.Fprintln(out, "Actionable: yes (would open a draft)")
	} else {
		fmt.Fprintln(out, "Actionable: no")
	}
	return nil
}
