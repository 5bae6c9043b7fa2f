package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"

	"teleimage/internal/analytics"
	"teleimage/internal/datauri"
	"teleimage/internal/imagegen"
	"teleimage/internal/storage"
)

const defaultTopUsers = 10

// GenerateImageParams are the arguments of generate_image.
type GenerateImageParams struct {
	Prompt string `json:"prompt" mcp:"text description of the image"`
	Model  string `json:"model,omitempty" mcp:"model alias, e.g. flux or imagen4; defaults to the bot's default model"`
}

// UserAnalyticsParams are the arguments of user_analytics.
type UserAnalyticsParams struct {
	Limit int    `json:"limit,omitempty" mcp:"maximum number of users to return (default 10)"`
	Day   string `json:"day,omitempty" mcp:"restrict to one UTC day, YYYY-MM-DD"`
}

type imageSource interface {
	Generate(ctx context.Context, prompt, modelID string) (imagegen.ImageRef, error)
	DataURI(ctx context.Context, ref imagegen.ImageRef) (string, error)
}

type logReader interface {
	LoadAll(ctx context.Context) ([]storage.Record, error)
}

type tools struct {
	images imageSource
	models *imagegen.Registry
	logs   logReader
	log    zerolog.Logger
}

func toolError(format string, args ...any) *mcp.CallToolResultFor[any] {
	return &mcp.CallToolResultFor[any]{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf(format, args...)}},
	}
}

func (t *tools) GenerateImage(ctx context.Context, _ *mcp.ServerSession, params *mcp.CallToolParamsFor[GenerateImageParams]) (*mcp.CallToolResultFor[any], error) {
	args := params.Arguments
	prompt := strings.TrimSpace(args.Prompt)
	if prompt == "" {
		return toolError("prompt is required"), nil
	}

	alias := t.models.DefaultAlias()
	if args.Model != "" {
		alias = args.Model
	}
	modelID, ok := t.models.Resolve(alias)
	if !ok {
		return toolError("unknown model %q, available: %s", alias, strings.Join(t.models.Aliases(), ", ")), nil
	}

	t.log.Info().Str("model", modelID).Str("prompt", prompt).Msg("MCP generate_image")
	ref, err := t.images.Generate(ctx, prompt, modelID)
	if err != nil {
		return toolError("image generation failed: %v", err), nil
	}
	uri, err := t.images.DataURI(ctx, ref)
	if err != nil {
		return toolError("failed to fetch generated image: %v", err), nil
	}
	data, mime, err := datauri.Decode(uri)
	if err != nil {
		return toolError("provider returned an unreadable image: %v", err), nil
	}

	return &mcp.CallToolResultFor[any]{
		Content: []mcp.Content{
			&mcp.ImageContent{Data: data, MIMEType: mime},
			&mcp.TextContent{Text: fmt.Sprintf("Generated with %s for: %q", modelID, prompt)},
		},
	}, nil
}

func (t *tools) UserAnalytics(ctx context.Context, _ *mcp.ServerSession, params *mcp.CallToolParamsFor[UserAnalyticsParams]) (*mcp.CallToolResultFor[any], error) {
	args := params.Arguments
	limit := args.Limit
	if limit <= 0 {
		limit = defaultTopUsers
	}

	records, err := t.logs.LoadAll(ctx)
	if err != nil {
		return toolError("failed to load activity log: %v", err), nil
	}

	var payload any
	if args.Day != "" {
		day, err := time.Parse("2006-01-02", args.Day)
		if err != nil {
			return toolError("invalid day %q, expected YYYY-MM-DD", args.Day), nil
		}
		stats := analytics.AnalyzeDailyLogs(records, day)
		stats.Users = truncateUsers(stats.Users, limit)
		payload = stats
	} else {
		overview := analytics.Summarize(records)
		overview.Users = truncateUsers(overview.Users, limit)
		payload = overview
	}

	out, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, err
	}
	return &mcp.CallToolResultFor[any]{
		Content: []mcp.Content{&mcp.TextContent{Text: string(out)}},
	}, nil
}

func truncateUsers(users []analytics.UserAnalytics, n int) []analytics.UserAnalytics {
	if len(users) > n {
		return users[:n]
	}
	return users
}
