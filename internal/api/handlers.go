package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"runtime/debug"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"teleimage/internal/analytics"
	"teleimage/internal/storage"
	"teleimage/internal/telegram"
)

const maxUpdateBytes = 1 << 20

// Dispatcher handles one Telegram update.
type Dispatcher interface {
	HandleUpdate(ctx context.Context, update tgbotapi.Update) telegram.Outcome
}

// LogStore is the read side of the activity log.
type LogStore interface {
	LoadAll(ctx context.Context) ([]storage.Record, error)
	Ping(ctx context.Context) error
}

// WebhookManager registers and inspects the bot webhook.
type WebhookManager interface {
	Set() error
	Delete() error
	Status() (telegram.WebhookStatus, error)
}

// Handler contains shared dependencies for all HTTP handlers.
type Handler struct {
	bot           Dispatcher
	logs          LogStore
	webhooks      WebhookManager
	updateTimeout time.Duration
	log           zerolog.Logger
}

// JSON sends a JSON response with the given status code.
func (h *Handler) JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Warn().Err(err).Msg("failed to encode response")
	}
}

// Error sends a JSON error response with the given status code.
func (h *Handler) Error(w http.ResponseWriter, status int, message string) {
	h.JSON(w, status, map[string]interface{}{"ok": false, "error": message})
}

// TelegramWebhook always acknowledges with 200 so Telegram never redelivers.
// The update runs detached from the caller, bounded by updateTimeout.
func (h *Handler) TelegramWebhook(w http.ResponseWriter, r *http.Request) {
	var update tgbotapi.Update
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxUpdateBytes)).Decode(&update); err != nil {
		h.log.Warn().Err(err).Msg("ignoring undecodable webhook body")
		h.JSON(w, http.StatusOK, map[string]bool{"ok": true})
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), h.updateTimeout)
	defer cancel()
	h.dispatch(ctx, update)

	h.JSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// dispatch runs the update and contains panics, so the webhook is still
// acknowledged instead of reaching the router's Recoverer as a 500.
func (h *Handler) dispatch(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if rec := recover(); rec != nil {
			h.log.Error().
				Interface("panic", rec).
				Int("update_id", update.UpdateID).
				Str("stack", string(debug.Stack())).
				Msg("update handler panicked")
		}
	}()
	h.bot.HandleUpdate(ctx, update)
}

// Analytics returns every log record, most recent first.
func (h *Handler) Analytics(w http.ResponseWriter, r *http.Request) {
	records, ok := h.loadRecords(w, r)
	if !ok {
		return
	}
	h.JSON(w, http.StatusOK, analytics.MostRecentFirst(records))
}

// AnalyticsRaw streams the log as JSON lines in store order.
func (h *Handler) AnalyticsRaw(w http.ResponseWriter, r *http.Request) {
	records, err := h.logs.LoadAll(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("failed to load interaction log")
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("Failed to retrieve analytics data.\n"))
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	enc := json.NewEncoder(w)
	for _, rec := range records {
		if err := enc.Encode(rec); err != nil {
			h.log.Warn().Err(err).Msg("raw log write interrupted")
			return
		}
	}
}

// AnalyticsUsers returns the per-user aggregation.
func (h *Handler) AnalyticsUsers(w http.ResponseWriter, r *http.Request) {
	records, ok := h.loadRecords(w, r)
	if !ok {
		return
	}
	h.JSON(w, http.StatusOK, analytics.Summarize(records))
}

func (h *Handler) loadRecords(w http.ResponseWriter, r *http.Request) ([]storage.Record, bool) {
	records, err := h.logs.LoadAll(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("failed to load interaction log")
		h.Error(w, http.StatusInternalServerError, "Failed to retrieve analytics data.")
		return nil, false
	}
	if records == nil {
		records = []storage.Record{}
	}
	return records, true
}

// SetWebhook points Telegram at this deployment.
func (h *Handler) SetWebhook(w http.ResponseWriter, r *http.Request) {
	if !h.requireWebhooks(w) {
		return
	}
	if err := h.webhooks.Set(); err != nil {
		h.log.Error().Err(err).Msg("failed to set webhook")
		h.Error(w, http.StatusBadGateway, "Failed to set webhook: "+err.Error())
		return
	}
	h.JSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// DeleteWebhook removes the webhook registration.
func (h *Handler) DeleteWebhook(w http.ResponseWriter, r *http.Request) {
	if !h.requireWebhooks(w) {
		return
	}
	if err := h.webhooks.Delete(); err != nil {
		h.log.Error().Err(err).Msg("failed to delete webhook")
		h.Error(w, http.StatusBadGateway, "Failed to delete webhook: "+err.Error())
		return
	}
	h.JSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// WebhookStatus reports Telegram's view of the webhook next to the expected URL.
func (h *Handler) WebhookStatus(w http.ResponseWriter, r *http.Request) {
	if !h.requireWebhooks(w) {
		return
	}
	st, err := h.webhooks.Status()
	if err != nil {
		h.log.Error().Err(err).Msg("failed to get webhook info")
		h.Error(w, http.StatusBadGateway, "Failed to get webhook info from Telegram.")
		return
	}
	h.JSON(w, http.StatusOK, struct {
		OK bool `json:"ok"`
		telegram.WebhookStatus
	}{OK: true, WebhookStatus: st})
}

func (h *Handler) requireWebhooks(w http.ResponseWriter) bool {
	if h.webhooks == nil {
		h.Error(w, http.StatusServiceUnavailable, "Telegram is not configured.")
		return false
	}
	return true
}

// DatabaseStatus pings the log store.
func (h *Handler) DatabaseStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	start := time.Now()
	err := h.logs.Ping(ctx)
	switch {
	case errors.Is(err, storage.ErrPingUnsupported):
		h.JSON(w, http.StatusOK, map[string]interface{}{"ok": true, "message": "Log store does not report health."})
	case err != nil:
		h.log.Error().Err(err).Msg("log store ping failed")
		h.JSON(w, http.StatusInternalServerError, map[string]interface{}{
			"ok": false, "error": "Failed to connect to the log store.", "details": err.Error(),
		})
	default:
		h.JSON(w, http.StatusOK, map[string]interface{}{
			"ok": true, "message": "Connected to the log store.", "latency": time.Since(start).String(),
		})
	}
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.JSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
