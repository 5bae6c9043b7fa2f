package main

import (
	"context"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"teleimage/internal/config"
	"teleimage/internal/imagegen"
	"teleimage/internal/logging"
	"teleimage/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil && !config.IsDotEnvWarning(err) {
		// stdout carries the MCP transport, so everything else goes to stderr.
		l := logging.New(os.Stderr, false, "info")
		l.Fatal().Err(err).Msg("failed to load config")
	}
	logger := logging.New(os.Stderr, cfg.IsDevelopment(), cfg.LogLevel)

	ctx := context.Background()

	models, err := imagegen.NewRegistryWithOverrides(cfg.ImageModels, cfg.DefaultModel)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid model table")
	}
	images := imagegen.NewClient(imagegen.Options{
		APIKey:  cfg.ImageAPIKey,
		BaseURL: cfg.ImageAPIBaseURL,
		Size:    cfg.ImageSize,
	}, logger)

	rec, err := storage.Open(ctx, storage.Options{
		Backend:          cfg.LogStore,
		FilePath:         cfg.LogFilePath,
		RedisURL:         cfg.RedisURL,
		RedisKey:         cfg.RedisLogKey,
		SQLitePath:       cfg.SQLitePath,
		JSONBinURL:       cfg.JSONBinURL,
		JSONBinMasterKey: cfg.JSONBinMasterKey,
	})
	if err != nil {
		logger.Fatal().Err(err).Str("backend", cfg.LogStore).Msg("failed to open log store")
	}
	journal := storage.NewJournal(rec)
	defer journal.Close()

	t := &tools{images: images, models: models, logs: journal, log: logger}

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "teleimage-mcp",
		Version: "1.0.0",
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "generate_image",
		Description: "Generates an image from a text prompt with one of the bot's image models",
	}, t.GenerateImage)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "user_analytics",
		Description: "Returns per-user prompt counts from the bot's activity log, most active first",
	}, t.UserAnalytics)

	logger.Info().Strs("models", models.Aliases()).Msg("starting teleimage MCP server on stdin/stdout")
	if err := server.Run(ctx, mcp.NewStdioTransport()); err != nil {
		logger.Fatal().Err(err).Msg("MCP server failed")
	}
}
