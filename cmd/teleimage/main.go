package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"teleimage/internal/config"
	"teleimage/internal/imagegen"
	"teleimage/internal/logging"
	"teleimage/internal/storage"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "teleimage",
		Short:        "Telegram image generation bot",
		SilenceUsage: true,
	}
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newWebhookCmd())
	cmd.AddCommand(newAnalyticsCmd())
	return cmd
}

// env is the configuration and logger shared by every subcommand.
type env struct {
	cfg *config.Config
	log zerolog.Logger
}

func loadEnv() (*env, error) {
	cfg, err := config.Load()
	if err != nil && !config.IsDotEnvWarning(err) {
		return nil, err
	}
	logger := logging.New(os.Stderr, cfg.IsDevelopment(), cfg.LogLevel)
	if err != nil {
		logger.Debug().Err(err).Msg("continuing with process environment")
	}
	return &env{cfg: cfg, log: logger}, nil
}

func (e *env) openJournal(ctx context.Context) (*storage.Journal, error) {
	rec, err := storage.Open(ctx, storage.Options{
		Backend:          e.cfg.LogStore,
		FilePath:         e.cfg.LogFilePath,
		RedisURL:         e.cfg.RedisURL,
		RedisKey:         e.cfg.RedisLogKey,
		SQLitePath:       e.cfg.SQLitePath,
		JSONBinURL:       e.cfg.JSONBinURL,
		JSONBinMasterKey: e.cfg.JSONBinMasterKey,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s log store: %w", e.cfg.LogStore, err)
	}
	return storage.NewJournal(rec), nil
}

func (e *env) imageClient() (*imagegen.Client, *imagegen.Registry, error) {
	models, err := imagegen.NewRegistryWithOverrides(e.cfg.ImageModels, e.cfg.DefaultModel)
	if err != nil {
		return nil, nil, err
	}
	if e.cfg.ImageAPIKey == "" {
		e.log.Warn().Msg("IMAGE_API_KEY is not set, generation requests will be rejected upstream")
	}
	client := imagegen.NewClient(imagegen.Options{
		APIKey:  e.cfg.ImageAPIKey,
		BaseURL: e.cfg.ImageAPIBaseURL,
		Size:    e.cfg.ImageSize,
	}, e.log)
	return client, models, nil
}
