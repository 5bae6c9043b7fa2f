package telegram

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"teleimage/internal/command"
	"teleimage/internal/datauri"
	"teleimage/internal/imagegen"
	"teleimage/internal/metrics"
	"teleimage/internal/storage"
)

const (
	ackText      = "🎨 Got it! Generating your masterpiece... this might take a moment."
	apologyText  = "😔 Sorry, I had trouble creating an image for that prompt. Please try a different one or try again later."
	captionFmt   = "Here is your image for: \"%s\""
	defaultLogTO = 10 * time.Second
)

// Outcome is the terminal state of one update.
type Outcome string

const (
	OutcomeIgnored        Outcome = "ignored"
	OutcomeHelp           Outcome = "help"
	OutcomePromptRequired Outcome = "prompt_required"
	OutcomeDelivered      Outcome = "delivered"
	OutcomeFailed         Outcome = "failed"
)

// ImageGenerator produces an image for a prompt and turns it into a data URI.
type ImageGenerator interface {
	Generate(ctx context.Context, prompt, modelID string) (imagegen.ImageRef, error)
	DataURI(ctx context.Context, ref imagegen.ImageRef) (string, error)
}

// ActivityLog persists inbound messages.
type ActivityLog interface {
	Append(ctx context.Context, rec storage.Record) (storage.Record, error)
}

// textMessenger is the part of Messenger the bot needs.
type textMessenger interface {
	SendText(chatID int64, text string) error
	SendPhoto(chatID int64, data []byte, mime, caption string) error
}

type Bot struct {
	messenger  textMessenger
	images     ImageGenerator
	models     *imagegen.Registry
	activity   ActivityLog
	logTimeout time.Duration
	log        zerolog.Logger

	pending sync.WaitGroup
}

// New wires the dispatcher. activity may be nil to disable the activity log.
func New(messenger *Messenger, images ImageGenerator, models *imagegen.Registry, activity ActivityLog, logTimeout time.Duration, logger zerolog.Logger) *Bot {
	if logTimeout <= 0 {
		logTimeout = defaultLogTO
	}
	return &Bot{
		messenger:  messenger,
		images:     images,
		models:     models,
		activity:   activity,
		logTimeout: logTimeout,
		log:        logger.With().Str("component", "bot").Logger(),
	}
}

// HandleUpdate runs the full pipeline for one update. It never fails: every
// error is reported to the chat (when there is one) and to the server log.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) (outcome Outcome) {
	defer func() { metrics.Updates.WithLabelValues(string(outcome)).Inc() }()

	msg := update.Message
	if msg == nil || msg.Chat == nil || msg.Chat.ID == 0 || msg.Text == "" {
		b.log.Debug().Int("update_id", update.UpdateID).Msg("ignoring update without chat or text")
		return OutcomeIgnored
	}
	chatID := msg.Chat.ID
	log := b.log.With().Int64("chat_id", chatID).Int("update_id", update.UpdateID).Logger()
	log.Info().Str("username", msg.Chat.UserName).Str("text", msg.Text).Msg("incoming message")

	b.recordAsync(ctx, newRecord(msg))

	if command.IsHelp(msg.Text) {
		_ = b.messenger.SendText(chatID, b.helpText())
		return OutcomeHelp
	}

	_ = b.messenger.SendText(chatID, ackText)

	parsed := command.Parse(msg.Text, b.models)
	if parsed.Empty() {
		_ = b.messenger.SendText(chatID, promptRequiredText(parsed.Alias))
		return OutcomePromptRequired
	}

	if err := b.generateAndSend(ctx, chatID, parsed); err != nil {
		log.Error().Err(err).Str("model", parsed.ModelID).Msg("error generating or sending image")
		_ = b.messenger.SendText(chatID, apologyText)
		return OutcomeFailed
	}
	log.Info().Str("model", parsed.ModelID).Msg("image delivered")
	return OutcomeDelivered
}

func (b *Bot) generateAndSend(ctx context.Context, chatID int64, p command.Parsed) error {
	prompt := strings.TrimSpace(p.Prompt)
	ref, err := b.images.Generate(ctx, prompt, p.ModelID)
	if err != nil {
		return err
	}
	uri, err := b.images.DataURI(ctx, ref)
	if err != nil {
		return err
	}
	data, mime, err := datauri.Decode(uri)
	if err != nil {
		return &imagegen.GenerationError{Err: err}
	}
	if err := b.messenger.SendPhoto(chatID, data, mime, fmt.Sprintf(captionFmt, prompt)); err != nil {
		return fmt.Errorf("send photo: %w", err)
	}
	return nil
}

// recordAsync appends rec in the background. The write outlives the request
// context but is bounded by logTimeout; failures only reach the server log.
func (b *Bot) recordAsync(ctx context.Context, rec storage.Record) {
	if b.activity == nil {
		return
	}
	b.pending.Add(1)
	go func() {
		defer b.pending.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), b.logTimeout)
		defer cancel()
		if _, err := b.activity.Append(ctx, rec); err != nil {
			b.log.Warn().Err(err).Int64("chat_id", rec.ChatID).Msg("failed to record interaction")
		}
	}()
}

// Wait blocks until background log writes have finished.
func (b *Bot) Wait() { b.pending.Wait() }

func newRecord(msg *tgbotapi.Message) storage.Record {
	rec := storage.Record{
		ChatID:    msg.Chat.ID,
		Username:  msg.Chat.UserName,
		FirstName: msg.Chat.FirstName,
		LastName:  msg.Chat.LastName,
		Text:      msg.Text,
	}
	// Group chats carry no personal names; fall back to the sender.
	if rec.Username == "" && rec.FirstName == "" && rec.LastName == "" && msg.From != nil {
		rec.Username = msg.From.UserName
		rec.FirstName = msg.From.FirstName
		rec.LastName = msg.From.LastName
	}
	return rec
}
