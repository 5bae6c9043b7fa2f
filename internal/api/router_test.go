package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"teleimage/internal/analytics"
	"teleimage/internal/storage"
	"teleimage/internal/telegram"
)

type fakeDispatcher struct {
	mu      sync.Mutex
	updates []tgbotapi.Update
	ctxErr  error
}

func (f *fakeDispatcher) HandleUpdate(ctx context.Context, u tgbotapi.Update) telegram.Outcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, u)
	f.ctxErr = ctx.Err()
	return telegram.OutcomeIgnored
}

type fakeLogs struct {
	records []storage.Record
	loadErr error
	pingErr error
}

func (f *fakeLogs) LoadAll(context.Context) ([]storage.Record, error) { return f.records, f.loadErr }
func (f *fakeLogs) Ping(context.Context) error                        { return f.pingErr }

type fakeWebhooks struct {
	setErr error
	status telegram.WebhookStatus
}

func (f *fakeWebhooks) Set() error    { return f.setErr }
func (f *fakeWebhooks) Delete() error { return nil }
func (f *fakeWebhooks) Status() (telegram.WebhookStatus, error) {
	return f.status, nil
}

func sampleRecords() []storage.Record {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	return []storage.Record{
		{ID: "1", ChatID: 1, Username: "alice", FirstName: "Alice", Text: "a cat", Timestamp: base},
		{ID: "2", ChatID: 2, Username: "bob", Text: "a dog", Timestamp: base.Add(time.Minute)},
		{ID: "3", ChatID: 2, Username: "bobby", Text: "a fox", Timestamp: base.Add(2 * time.Minute)},
	}
}

func newTestRouter(d Deps) http.Handler {
	return NewRouter(zerolog.Nop(), d)
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestTelegramWebhook_AlwaysAcknowledges(t *testing.T) {
	bot := &fakeDispatcher{}
	h := newTestRouter(Deps{Bot: bot, Logs: &fakeLogs{}})

	for _, body := range []string{`{}`, `not json`, ``} {
		rec := do(t, h, http.MethodPost, telegram.WebhookPath, body)
		if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != `{"ok":true}` {
			t.Fatalf("body %q: got %d %s", body, rec.Code, rec.Body.String())
		}
	}
	if len(bot.updates) != 1 {
		t.Fatalf("only the decodable body should reach the dispatcher, got %d", len(bot.updates))
	}
}

type panickingDispatcher struct{}

func (panickingDispatcher) HandleUpdate(context.Context, tgbotapi.Update) telegram.Outcome {
	panic("nil map write")
}

func TestTelegramWebhook_AcknowledgesAfterPanic(t *testing.T) {
	h := newTestRouter(Deps{Bot: panickingDispatcher{}, Logs: &fakeLogs{}})
	rec := do(t, h, http.MethodPost, telegram.WebhookPath, `{"update_id":1,"message":{"chat":{"id":9},"text":"hi"}}`)
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != `{"ok":true}` {
		t.Fatalf("got %d %s", rec.Code, rec.Body.String())
	}
}

func TestTelegramWebhook_DetachesFromRequestContext(t *testing.T) {
	bot := &fakeDispatcher{}
	h := newTestRouter(Deps{Bot: bot, Logs: &fakeLogs{}, UpdateTimeout: time.Minute})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, telegram.WebhookPath,
		strings.NewReader(`{"update_id":5,"message":{"chat":{"id":9},"text":"hi"}}`)).WithContext(ctx)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if bot.ctxErr != nil {
		t.Fatalf("dispatcher saw cancelled context: %v", bot.ctxErr)
	}
	if bot.updates[0].Message.Chat.ID != 9 || bot.updates[0].Message.Text != "hi" {
		t.Fatalf("update not decoded: %+v", bot.updates[0])
	}
}

func TestAnalytics_MostRecentFirst(t *testing.T) {
	h := newTestRouter(Deps{Bot: &fakeDispatcher{}, Logs: &fakeLogs{records: sampleRecords()}})
	rec := do(t, h, http.MethodGet, "/api/analytics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var got []storage.Record
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 3 || got[0].ID != "3" || got[2].ID != "1" {
		t.Fatalf("unexpected order: %+v", got)
	}
}

func TestAnalytics_EmptyStoreIsEmptyArray(t *testing.T) {
	h := newTestRouter(Deps{Bot: &fakeDispatcher{}, Logs: &fakeLogs{}})
	rec := do(t, h, http.MethodGet, "/api/analytics", "")
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Fatalf("want [], got %s", rec.Body.String())
	}
}

func TestAnalytics_LoadFailure(t *testing.T) {
	h := newTestRouter(Deps{Bot: &fakeDispatcher{}, Logs: &fakeLogs{loadErr: errors.New("down")}})
	if rec := do(t, h, http.MethodGet, "/api/analytics/users", ""); rec.Code != http.StatusInternalServerError {
		t.Fatalf("status %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/api/analytics/raw", ""); rec.Code != http.StatusInternalServerError {
		t.Fatalf("raw status %d", rec.Code)
	}
}

func TestAnalyticsRaw_JSONLines(t *testing.T) {
	h := newTestRouter(Deps{Bot: &fakeDispatcher{}, Logs: &fakeLogs{records: sampleRecords()}})
	rec := do(t, h, http.MethodGet, "/api/analytics/raw", "")
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Fatalf("content type %q", ct)
	}
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("want 3 lines, got %d", len(lines))
	}
	var first storage.Record
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil || first.ID != "1" {
		t.Fatalf("first line %q: %v", lines[0], err)
	}
}

func TestAnalyticsUsers_Overview(t *testing.T) {
	h := newTestRouter(Deps{Bot: &fakeDispatcher{}, Logs: &fakeLogs{records: sampleRecords()}})
	rec := do(t, h, http.MethodGet, "/api/analytics/users", "")
	var ov analytics.Overview
	if err := json.Unmarshal(rec.Body.Bytes(), &ov); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ov.TotalPrompts != 3 || ov.TotalUsers != 2 {
		t.Fatalf("totals: %+v", ov)
	}
	if ov.Users[0].ChatID != 2 || ov.Users[0].Username != "bob" || ov.Users[0].Count != 2 {
		t.Fatalf("top user: %+v", ov.Users[0])
	}
}

func TestWebhookManagement(t *testing.T) {
	wh := &fakeWebhooks{status: telegram.WebhookStatus{
		WebhookInfo: tgbotapi.WebhookInfo{URL: "https://bot.example.com/api/telegram/webhook"},
		ExpectedURL: "https://bot.example.com/api/telegram/webhook",
	}}
	h := newTestRouter(Deps{Bot: &fakeDispatcher{}, Logs: &fakeLogs{}, Webhooks: wh})

	if rec := do(t, h, http.MethodPost, "/api/telegram/set-webhook", ""); rec.Code != http.StatusOK {
		t.Fatalf("set: %d %s", rec.Code, rec.Body.String())
	}
	rec := do(t, h, http.MethodGet, "/api/telegram/webhook-status", "")
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["ok"] != true || body["url"] != body["expected_url"] {
		t.Fatalf("unexpected status body: %v", body)
	}

	wh.setErr = errors.New("Unauthorized")
	if rec := do(t, h, http.MethodPost, "/api/telegram/set-webhook", ""); rec.Code != http.StatusBadGateway {
		t.Fatalf("set failure status %d", rec.Code)
	}
}

func TestWebhookManagement_NotConfigured(t *testing.T) {
	h := newTestRouter(Deps{Bot: &fakeDispatcher{}, Logs: &fakeLogs{}})
	if rec := do(t, h, http.MethodGet, "/api/telegram/webhook-status", ""); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status %d", rec.Code)
	}
}

func TestDatabaseStatus(t *testing.T) {
	cases := []struct {
		pingErr error
		want    int
	}{
		{nil, http.StatusOK},
		{storage.ErrPingUnsupported, http.StatusOK},
		{errors.New("connection refused"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		h := newTestRouter(Deps{Bot: &fakeDispatcher{}, Logs: &fakeLogs{pingErr: c.pingErr}})
		if rec := do(t, h, http.MethodGet, "/api/database-status", ""); rec.Code != c.want {
			t.Fatalf("ping %v: status %d, want %d", c.pingErr, rec.Code, c.want)
		}
	}
}

func TestHealthAndMetrics(t *testing.T) {
	h := newTestRouter(Deps{Bot: &fakeDispatcher{}, Logs: &fakeLogs{}})
	if rec := do(t, h, http.MethodGet, "/health", ""); rec.Code != http.StatusOK {
		t.Fatalf("health %d", rec.Code)
	}
	rec := do(t, h, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "teleimage_http_requests_total") {
		t.Fatalf("metrics endpoint missing request counter")
	}
}
