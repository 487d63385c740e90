package main

import (
	"context"
	"fmt"

	"github.com/ghosthub/ghosthub/internal/analyzer"
	"github.com/ghosthub/ghosthub/internal/classifier"
	"github.com/ghosthub/ghosthub/internal/config"
	"github.com/ghosthub/ghosthub/internal/db"
	"github.com/ghosthub/ghosthub/internal/genai"
	"github.com/ghosthub/ghosthub/internal/monitor"
	discordadapter "github.com/ghosthub/ghosthub/internal/monitor/discord"
	slackadapter "github.com/ghosthub/ghosthub/internal/monitor/slack"
	"github.com/ghosthub/ghosthub/internal/publish"
	"github.com/ghosthub/ghosthub/internal/store"
	"github.com/ghosthub/ghosthub/internal/summarizer"
	"github.com/ghosthub/ghosthub/internal/vision"
	"github.com/ghosthub/ghosthub/internal/workflow"
)

// openStore loads the config and opens the backing database.
func openStore(configPath string) (*config.Config, *store.Store, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	gormDB, err := db.Open(cfg.Database)
	if err != nil {
		return nil, nil, err
	}

	st, err := store.New(gormDB)
	if err != nil {
		return nil, nil, err
	}
	return cfg, st, nil
}

// buildWorkflow wires the full pipeline: capability client, classifier,
// summarizer, vision analysis, and the GitHub publisher when one is
// configured. The returned client must be closed by the caller.
func buildWorkflow(ctx context.Context, cfg *config.Config, st *store.Store) (*workflow.Orchestrator, *genai.Client, error) {
	client, err := genai.NewClient(genai.ClientOpts{Config: cfg.Model})
	if err != nil {
		return nil, nil, err
	}

	cls, err := classifier.New(classifier.Opts{Capability: client, Store: st})
	if err != nil {
		client.Close()
		return nil, nil, err
	}
	sum, err := summarizer.New(summarizer.Opts{Capability: client, Store: st})
	if err != nil {
		client.Close()
		return nil, nil, err
	}

	vis, err := vision.New(vision.Opts{Capability: client})
	if err != nil {
		client.Close()
		return nil, nil, err
	}
	anz, err := analyzer.New(analyzer.Opts{Vision: vis})
	if err != nil {
		client.Close()
		return nil, nil, err
	}

	var pub workflow.Publisher
	if cfg.GitHub.Owner != "" {
		token, err := cfg.GitHubToken()
		if err != nil {
			client.Close()
			return nil, nil, err
		}
		gh, err := publish.NewGitHub(ctx, publish.GitHubOpts{
			Owner: cfg.GitHub.Owner,
			Repo:  cfg.GitHub.Repo,
			Token: token,
		})
		if err != nil {
			client.Close()
			return nil, nil, err
		}
		pub = gh
	}

	flow, err := workflow.New(workflow.Opts{
		Classifier: cls,
		Summarizer: sum,
		Analyzer:   anz,
		Store:      st,
		Publisher:  pub,
	})
	if err != nil {
		client.Close()
		return nil, nil, err
	}
	return flow, client, nil
}

// buildAdapters creates one platform adapter per configured platform.
func buildAdapters(cfg *config.Config) ([]monitor.Adapter, error) {
	var adapters []monitor.Adapter

	if cfg.Slack.AppToken != "" {
		a, err := slackadapter.New(slackadapter.AdapterOpts{
			AppToken:  cfg.Slack.AppToken,
			BotToken:  cfg.Slack.BotToken,
			ChannelID: cfg.Slack.ChannelID,
		})
		if err != nil {
			return nil, err
		}
		adapters = append(adapters, a)
	}

	if cfg.Discord.BotToken != "" {
		a, err := discordadapter.New(discordadapter.AdapterOpts{
			BotToken:  cfg.Discord.BotToken,
			ChannelID: cfg.Discord.ChannelID,
		})
		if err != nil {
			return nil, err
		}
		adapters = append(adapters, a)
	}

	if len(adapters) == 0 {
		return nil, fmt.Errorf("no platforms configured (set slack.app_token or discord.bot_token)")
	}
	return adapters, nil
}
