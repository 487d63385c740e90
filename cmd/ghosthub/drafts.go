package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/ghosthub/ghosthub/internal/models"
	"github.com/ghosthub/ghosthub/internal/store"
	"github.com/spf13/cobra"
)

func newDraftsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drafts",
		Short: "Issue draft review commands",
	}

	cmd.AddCommand(newDraftsListCmd())
	cmd.AddCommand(newDraftsShowCmd())
	cmd.AddCommand(newDraftsApproveCmd())
	cmd.AddCommand(newDraftsRejectCmd())
	cmd.AddCommand(newDraftsPublishCmd())
	return cmd
}

func newDraftsListCmd() *cobra.Command {
	var (
		configPath string
		status     string
		platform   string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List issue drafts",
		Long:  "Lists issue drafts with optional filters. Output is formatted as a table.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDraftsList(cmd, configPath, status, platform)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "ghosthub.yaml", "path to GhostHub config file")
	cmd.Flags().StringVar(&status, "status", "", "filter by status (draft, approved, rejected)")
	cmd.Flags().StringVar(&platform, "platform", "", "filter by platform (slack, discord, whatsapp)")
	return cmd
}

func runDraftsList(cmd *cobra.Command, configPath, status, platform string) error {
	_, st, err := openStore(configPath)
	if err != nil {
		return err
	}

	filter := store.Filter{}
	if status != "" {
		filter["status"] = status
	}
	if platform != "" {
		filter["platform"] = platform
	}

	drafts, err := st.QueryDrafts(filter)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(drafts) == 0 {
		fmt.Fprintln(out, "No drafts found.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tTYPE\tPLATFORM\tMSGS\tSTATUS")
	for _, d := range drafts {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%s\n",
			d.ID, truncate(d.Title, 50), d.Type, d.Platform, d.MessageCount, d.Status)
	}
	return w.Flush()
}

func newDraftsShowCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show an issue draft in full",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseDraftID(args[0])
			if err != nil {
				return err
			}
			return runDraftsShow(cmd, configPath, id)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "ghosthub.yaml", "path to GhostHub config file")
	return cmd
}

func runDraftsShow(cmd *cobra.Command, configPath string, id uint) error {
	_, st, err := openStore(configPath)
	if err != nil {
		return err
	}

	d, err := st.GetDraft(id)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Draft #%d [%s]\n", d.ID, d.Status)
	fmt.Fprintf(out, "Title:    %s\n", d.Title)
	fmt.Fprintf(out, "Type:     %s\n", d.Type)
	fmt.Fprintf(out, "Platform: %s (%d messages)\n", d.Platform, d.MessageCount)
	if labels, err := d.LabelSet(); err == nil && len(labels) > 0 {
		fmt.Fprintf(out, "Labels:   %s\n", strings.Join(labels, ", "))
	}
	if d.IssueURL != "" {
		fmt.Fprintf(out, "Issue:    %s\n", d.IssueURL)
	}
	fmt.Fprintf(out, "Created:  %s\n", d.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(out, "\n%s\n", d.Description)
	return nil
}

func newDraftsApproveCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "approve <id>",
		Short: "Approve a pending draft",
		Long:  "Marks a pending draft as approved without publishing it. Approval is terminal; the draft cannot change status again.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseDraftID(args[0])
			if err != nil {
				return err
			}
			return runDraftsTransition(cmd, configPath, id, models.StatusApproved)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "ghosthub.yaml", "path to GhostHub config file")
	return cmd
}

func newDraftsRejectCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "reject <id>",
		Short: "Reject a pending draft",
		Long:  "Marks a pending draft as rejected. Rejection is terminal; the draft cannot change status again.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseDraftID(args[0])
			if err != nil {
				return err
			}
			return runDraftsTransition(cmd, configPath, id, models.StatusRejected)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "ghosthub.yaml", "path to GhostHub config file")
	return cmd
}

func runDraftsTransition(cmd *cobra.Command, configPath string, id uint, status models.DraftStatus) error {
	_, st, err := openStore(configPath)
	if err != nil {
		return err
	}

	d, err := st.UpdateDraftStatus(id, status)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Draft #%d %s: %s\n", d.ID, d.Status, d.Title)
	return nil
}

func newDraftsPublishCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "publish <id>",
		Short: "Publish a pending draft to GitHub",
		Long:  "Creates a GitHub issue from a pending draft, then marks the draft approved and records the issue URL.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseDraftID(args[0])
			if err != nil {
				return err
			}
			return runDraftsPublish(cmd, configPath, id)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "ghosthub.yaml", "path to GhostHub config file")
	return cmd
}

func runDraftsPublish(cmd *cobra.Command, configPath string, id uint) error {
	cfg, st, err := openStore(configPath)
	if err != nil {
		return err
	}
	if cfg.GitHub.Owner == "" {
		return fmt.Errorf("github.owner is not configured in %s", configPath)
	}

	ctx := context.Background()
	flow, client, err := buildWorkflow(ctx, cfg, st)
	if err != nil {
		return err
	}
	defer client.Close()

	d, url, err := flow.ApproveAndPublish(ctx, id)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Draft #%d published: %s\n", d.ID, d.Title)
	fmt.Fprintf(out, "Issue: %s\n", url)
	return nil
}

func parseDraftID(arg string) (uint, error) {
	id, err := strconv.ParseUint(arg, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid draft id %q", arg)
	}
	return uint(id), nil
}
