package telegram

import (
	"strings"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"teleimage/internal/metrics"
)

// Telegram rejects photo captions longer than this many characters.
const maxCaptionLen = 1024

// MessengerOptions configures outgoing messages.
type MessengerOptions struct {
	ParseMode     string
	CommunityLink string
	WebsiteLink   string
}

// Messenger sends texts and photos, appending the promotional footer to each.
type Messenger struct {
	s         sender
	parseMode string
	footer    string
	log       zerolog.Logger
}

func NewMessenger(api *tgbotapi.BotAPI, opts MessengerOptions, logger zerolog.Logger) *Messenger {
	return &Messenger{
		s:         botAPISender{api: api},
		parseMode: opts.ParseMode,
		footer:    buildFooter(opts.CommunityLink, opts.WebsiteLink),
		log:       logger.With().Str("component", "messenger").Logger(),
	}
}

func buildFooter(community, website string) string {
	var lines []string
	if community != "" {
		lines = append(lines, "Join our community: "+community)
	}
	if website != "" {
		lines = append(lines, website)
	}
	if len(lines) == 0 {
		return ""
	}
	return "\n\n" + strings.Join(lines, "\n")
}

// SendText sends text plus footer. Failures are logged and returned.
func (m *Messenger) SendText(chatID int64, text string) error {
	return m.sendText(chatID, text, m.parseMode)
}

// SendPlainText is SendText without a parse mode, for generated text that may
// contain markup characters such as underscores in usernames.
func (m *Messenger) SendPlainText(chatID int64, text string) error {
	return m.sendText(chatID, text, "")
}

func (m *Messenger) sendText(chatID int64, text, parseMode string) error {
	msg := tgbotapi.NewMessage(chatID, text+m.footer)
	msg.ParseMode = parseMode
	_, err := m.s.Send(msg)
	m.observe("sendMessage", chatID, err)
	return err
}

// SendPhoto uploads data as a multipart photo with caption plus footer.
func (m *Messenger) SendPhoto(chatID int64, data []byte, mime, caption string) error {
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: "image" + extensionFor(mime), Bytes: data})
	photo.Caption = m.caption(caption)
	_, err := m.s.Send(photo)
	m.observe("sendPhoto", chatID, err)
	return err
}

func (m *Messenger) caption(text string) string {
	budget := maxCaptionLen - utf8.RuneCountInString(m.footer)
	if budget <= 0 {
		return text
	}
	if utf8.RuneCountInString(text) > budget {
		runes := []rune(text)
		text = string(runes[:budget-1]) + "…"
	}
	return text + m.footer
}

func (m *Messenger) observe(method string, chatID int64, err error) {
	result := "ok"
	if err != nil {
		result = "error"
		m.log.Error().Err(err).Str("method", method).Int64("chat_id", chatID).Msg("telegram delivery failed")
	}
	metrics.TelegramSends.WithLabelValues(method, result).Inc()
}

func extensionFor(mime string) string {
	mime, _, _ = strings.Cut(mime, ";")
	switch strings.ToLower(strings.TrimSpace(mime)) {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ".png"
	}
}
