// Package imagegen talks to an OpenAI-compatible image generation API and holds
// the table of models users can pick from.
package imagegen

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"

	"teleimage/internal/metrics"
)

const (
	DefaultBaseURL = "https://api.a4f.co/v1"
	DefaultSize    = openai.CreateImageSize1024x1024

	maxImageBytes = 20 << 20
)

// GenerationError is returned when the provider call fails or its response has no image.
type GenerationError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *GenerationError) Error() string {
	var b strings.Builder
	b.WriteString("image generation failed")
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	if e.Body != "" {
		b.WriteString(": ")
		b.WriteString(e.Body)
	}
	return b.String()
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Options configures a Client.
type Options struct {
	APIKey     string
	BaseURL    string
	Size       string
	HTTPClient *http.Client
}

// Client generates images with a single CreateImage call per prompt.
type Client struct {
	api  *openai.Client
	http *http.Client
	size string
	log  zerolog.Logger
}

func NewClient(opts Options, logger zerolog.Logger) *Client {
	config := openai.DefaultConfig(opts.APIKey)
	config.BaseURL = DefaultBaseURL
	if opts.BaseURL != "" {
		config.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 2 * time.Minute}
	}
	config.HTTPClient = httpClient

	size := opts.Size
	if size == "" {
		size = DefaultSize
	}
	return &Client{
		api:  openai.NewClientWithConfig(config),
		http: httpClient,
		size: size,
		log:  logger.With().Str("component", "imagegen").Logger(),
	}
}

// Generate asks the provider for one image of prompt using modelID.
func (c *Client) Generate(ctx context.Context, prompt, modelID string) (ImageRef, error) {
	start := time.Now()
	ref, err := c.generate(ctx, prompt, modelID)
	result := "ok"
	if err != nil {
		result = "error"
		c.log.Error().Err(err).Str("model", modelID).Msg("image generation failed")
	}
	metrics.Generations.WithLabelValues(modelID, result).Inc()
	metrics.GenerationDuration.WithLabelValues(modelID).Observe(time.Since(start).Seconds())
	return ref, err
}

func (c *Client) generate(ctx context.Context, prompt, modelID string) (ImageRef, error) {
	resp, err := c.api.CreateImage(ctx, openai.ImageRequest{
		Model:  modelID,
		Prompt: prompt,
		N:      1,
		Size:   c.size,
	})
	if err != nil {
		return nil, upstreamError(err)
	}
	if len(resp.Data) == 0 {
		return nil, &GenerationError{StatusCode: http.StatusOK, Err: errors.New("response has no image data")}
	}

	img := resp.Data[0]
	switch {
	case img.URL != "":
		return URLImage{URL: img.URL}, nil
	case img.B64JSON != "":
		data, err := base64.StdEncoding.DecodeString(img.B64JSON)
		if err != nil {
			return nil, &GenerationError{StatusCode: http.StatusOK, Err: fmt.Errorf("decode b64_json: %w", err)}
		}
		return InlineImage{Data: data, MIME: sniffMIME(data)}, nil
	default:
		return nil, &GenerationError{StatusCode: http.StatusOK, Err: errors.New("response has neither url nor b64_json")}
	}
}

func upstreamError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &GenerationError{StatusCode: apiErr.HTTPStatusCode, Body: apiErr.Message, Err: err}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &GenerationError{StatusCode: reqErr.HTTPStatusCode, Body: strings.TrimSpace(string(reqErr.Body)), Err: err}
	}
	return &GenerationError{Err: err}
}
