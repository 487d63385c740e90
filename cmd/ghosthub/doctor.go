package main

import (
	"context"
	"fmt"
	"io"

	"github.com/ghosthub/ghosthub/internal/config"
	"github.com/ghosthub/ghosthub/internal/db"
	"github.com/ghosthub/ghosthub/internal/genai"
	"github.com/spf13/cobra"
)

func newDoctorCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check system prerequisites and configuration",
		Long:  "Runs diagnostic checks on GhostHub prerequisites: config, database, schema, model capability, platform credentials, and GitHub publishing.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctor(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "ghosthub.yaml", "path to GhostHub config file")
	return cmd
}

type checkResult struct {
	name   string
	status string // "PASS", "FAIL", "WARN"
	detail string
}

func runDoctor(cmd *cobra.Command, configPath string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "GhostHub Doctor")
	fmt.Fprintln(out, "===============")

	var results []checkResult

	// 1. Config
	cfg, cfgResult := checkConfig(configPath)
	results = append(results, cfgResult)

	if cfg != nil {
		// 2. Database + schema
		results = append(results, checkDatabase(cfg)...)

		// 3. Model capability
		results = append(results, checkCapability(cmd.Context(), cfg))

		// 4. Platforms
		results = append(results, checkPlatforms(cfg)...)

		// 5. GitHub publishing
		results = append(results, checkGitHub(cfg))
	}

	// Print results.
	passed, failed, warned := 0, 0, 0
	for _, r := range results {
		printCheckResult(out, r)
		switch r.status {
		case "PASS":
			passed++
		case "FAIL":
			failed++
		case "WARN":
			warned++
		}
	}

	fmt.Fprintf(out, "\n%d passed, %d failed, %d warning\n", passed, failed, warned)

	if failed > 0 {
		return fmt.Errorf("%d check(s) failed", failed)
	}
	return nil
}

func printCheckResult(out io.Writer, r checkResult) {
	fmt.Fprintf(out, "[%s] %s: %s\n", r.status, r.name, r.detail)
}

func checkConfig(path string) (*config.Config, checkResult) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, checkResult{"Config file", "FAIL", fmt.Sprintf("%s: %v", path, err)}
	}
	return cfg, checkResult{"Config file", "PASS", path}
}

func checkDatabase(cfg *config.Config) []checkResult {
	gormDB, err := db.Open(cfg.Database)
	if err != nil {
		return []checkResult{
			{"Database", "FAIL", err.Error()},
			{"Schema", "FAIL", "skipped (no database)"},
		}
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return []checkResult{
			{"Database", "FAIL", fmt.Sprintf("get sql.DB: %v", err)},
			{"Schema", "FAIL", "skipped (no database)"},
		}
	}
	if err := sqlDB.Ping(); err != nil {
		return []checkResult{
			{"Database", "FAIL", fmt.Sprintf("ping failed: %v", err)},
			{"Schema", "FAIL", "skipped (no database)"},
		}
	}

	results := []checkResult{{"Database", "PASS", fmt.Sprintf("%s reachable", cfg.Database.Driver)}}

	migrated := 0
	for _, m := range db.AllModels() {
		if gormDB.Migrator().HasTable(m) {
			migrated++
		}
	}
	expected := len(db.AllModels())
	if migrated == expected {
		results = append(results, checkResult{"Schema", "PASS", fmt.Sprintf("%d/%d tables migrated", migrated, expected)})
	} else {
		results = append(results, checkResult{"Schema", "WARN", fmt.Sprintf("%d/%d tables migrated — run \"ghosthub db migrate\"", migrated, expected)})
	}
	return results
}

func checkCapability(ctx context.Context, cfg *config.Config) checkResult {
	client, err := genai.NewClient(genai.ClientOpts{Config: cfg.Model})
	if err != nil {
		return checkResult{"Model capability", "FAIL", err.Error()}
	}
	defer client.Close()

	if !client.CheckAvailability(ctx) {
		return checkResult{"Model capability", "FAIL",
			fmt.Sprintf("%s (%s) unreachable", cfg.Model.Provider, cfg.Model.Model)}
	}
	return checkResult{"Model capability", "PASS",
		fmt.Sprintf("%s (%s) responding", cfg.Model.Provider, cfg.Model.Model)}
}

func checkPlatforms(cfg *config.Config) []checkResult {
	var results []checkResult

	if cfg.Slack.AppToken != "" {
		results = append(results, checkResult{"Slack", "PASS", "tokens configured"})
	} else {
		results = append(results, checkResult{"Slack", "WARN", "not configured (slack.app_token unset)"})
	}

	if cfg.Discord.BotToken != "" {
		results = append(results, checkResult{"Discord", "PASS", "token configured"})
	} else {
		results = append(results, checkResult{"Discord", "WARN", "not configured (discord.bot_token unset)"})
	}

	return results
}

func checkGitHub(cfg *config.Config) checkResult {
	if cfg.GitHub.Owner == "" {
		return checkResult{"GitHub publishing", "WARN", "not configured (drafts can be reviewed but not published)"}
	}

	token, err := cfg.GitHubToken()
	if err != nil {
		return checkResult{"GitHub publishing", "FAIL", err.Error()}
	}
	if token == "" {
		return checkResult{"GitHub publishing", "FAIL",
			fmt.Sprintf("%s/%s configured but no token (set github.token or github.token_file)", cfg.GitHub.Owner, cfg.GitHub.Repo)}
	}
	return checkResult{"GitHub publishing", "PASS", fmt.Sprintf("%s/%s", cfg.GitHub.Owner, cfg.GitHub.Repo)}
}
