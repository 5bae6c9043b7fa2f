package telegram

import (
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// WebhookPath is where the HTTP server accepts updates.
const WebhookPath = "/api/telegram/webhook"

var ErrNoBaseURL = errors.New("webhook base URL is not configured")

// Webhooks manages the bot's webhook registration.
type Webhooks struct {
	api     webhookAPI
	baseURL string
}

// WebhookStatus is Telegram's webhook info plus the URL this deployment expects.
type WebhookStatus struct {
	tgbotapi.WebhookInfo
	ExpectedURL string `json:"expected_url"`
}

func NewWebhooks(api *tgbotapi.BotAPI, baseURL string) *Webhooks {
	return &Webhooks{api: api, baseURL: baseURL}
}

// ExpectedURL joins the base URL and WebhookPath.
func (w *Webhooks) ExpectedURL() string {
	if w.baseURL == "" {
		return ""
	}
	return strings.TrimRight(w.baseURL, "/") + WebhookPath
}

// Set registers ExpectedURL with Telegram.
func (w *Webhooks) Set() error {
	link := w.ExpectedURL()
	if link == "" {
		return ErrNoBaseURL
	}
	cfg, err := tgbotapi.NewWebhook(link)
	if err != nil {
		return fmt.Errorf("build webhook config: %w", err)
	}
	return w.request(cfg, "setWebhook")
}

// Delete removes the webhook registration.
func (w *Webhooks) Delete() error {
	return w.request(tgbotapi.DeleteWebhookConfig{}, "deleteWebhook")
}

func (w *Webhooks) Status() (WebhookStatus, error) {
	info, err := w.api.GetWebhookInfo()
	if err != nil {
		return WebhookStatus{}, fmt.Errorf("get webhook info: %w", err)
	}
	return WebhookStatus{WebhookInfo: info, ExpectedURL: w.ExpectedURL()}, nil
}

func (w *Webhooks) request(c tgbotapi.Chattable, method string) error {
	resp, err := w.api.Request(c)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	if resp != nil && !resp.Ok {
		return fmt.Errorf("%s: %s", method, resp.Description)
	}
	return nil
}
