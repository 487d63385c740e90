package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ghosthub/ghosthub/internal/monitor"
	"github.com/spf13/cobra"
)

func newWatchCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Start the chat monitor daemon",
		Long: `Connects to the configured chat platforms, groups incoming messages
into threads, and runs actionable threads through the issue pipeline.
Drafts are stored for review; use the dashboard or "drafts" commands
to approve, reject, or publish them.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "ghosthub.yaml", "path to GhostHub config file")
	return cmd
}

func runWatch(cmd *cobra.Command, configPath string) error {
	out := cmd.OutOrStdout()

	cfg, st, err := openStore(configPath)
	if err != nil {
		return err
	}

	adapters, err := buildAdapters(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	flow, client, err := buildWorkflow(ctx, cfg, st)
	if err != nil {
		return err
	}
	defer client.Close()

	if !flow.Available(ctx) {
		fmt.Fprintln(out, "WARNING: model capability unreachable; threads will fail until it recovers")
	}

	daemon, err := monitor.NewDaemon(monitor.DaemonOpts{
		Adapters: adapters,
		Workflow: flow,
		Store:    st,
		Config:   cfg.Monitor,
	})
	if err != nil {
		return err
	}

	platforms := make([]string, 0, len(adapters))
	for _, a := range adapters {
		platforms = append(platforms, a.Platform())
	}
	fmt.Fprintf(out, "Watching %s... (Ctrl+C to stop)\n", strings.Join(platforms, ", "))

	// Handle OS signals for graceful shutdown.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Fprintf(out, "\nReceived %s, shutting down...\n", sig)
		cancel()
	}()

	return daemon.Run(ctx)
}
