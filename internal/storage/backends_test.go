package storage

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func exerciseRecorder(t *testing.T, rec Recorder) {
	t.Helper()
	ctx := context.Background()

	empty, err := rec.LoadInteractions(ctx)
	if err != nil {
		t.Fatalf("load empty: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("want empty store, got %d", len(empty))
	}

	ts := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	in := []Record{
		{ID: "1", ChatID: 10, Username: "alice", FirstName: "Alice", Text: "a cat", Timestamp: ts},
		{ID: "2", ChatID: 20, LastName: "Smith", Text: "/imagen3 a dog", Timestamp: ts.Add(time.Second)},
	}
	for _, r := range in {
		if err := rec.AppendInteraction(ctx, r); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	out, err := rec.LoadInteractions(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("want 2, got %d", len(out))
	}
	for i := range in {
		if out[i].ID != in[i].ID || out[i].ChatID != in[i].ChatID || out[i].Text != in[i].Text ||
			out[i].Username != in[i].Username || out[i].LastName != in[i].LastName || !out[i].Timestamp.Equal(in[i].Timestamp) {
			t.Fatalf("record %d mismatch: got %+v want %+v", i, out[i], in[i])
		}
	}
	if p, ok := rec.(Pinger); ok {
		if err := p.Ping(ctx); err != nil {
			t.Fatalf("ping: %v", err)
		}
	}
}

func TestMemoryRecorder(t *testing.T) {
	exerciseRecorder(t, NewMemoryRecorder())
}

func TestRedisRecorder(t *testing.T) {
	mr := miniredis.RunT(t)
	rec, err := NewRedisRecorder(context.Background(), "redis://"+mr.Addr(), "")
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer rec.Close()
	exerciseRecorder(t, rec)

	if n, err := mr.List(DefaultRedisKey); err != nil || len(n) != 2 {
		t.Fatalf("list %v: %v", n, err)
	}
}

func TestRedisRecorder_BadURL(t *testing.T) {
	if _, err := NewRedisRecorder(context.Background(), "://nope", ""); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestSQLiteRecorder(t *testing.T) {
	rec, err := NewSQLiteRecorder(context.Background(), filepath.Join(t.TempDir(), "data", "log.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer rec.Close()
	exerciseRecorder(t, rec)
}

// fakeBin mimics the two JSONBin calls the recorder makes.
type fakeBin struct {
	mu      sync.Mutex
	doc     *jsonBinDocument
	keySeen string
}

func (b *fakeBin) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.keySeen = r.Header.Get("X-Master-Key")
	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/b/bin1/latest":
		if b.doc == nil {
			http.Error(w, `{"message":"Bin not found"}`, http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"record": b.doc})
	case r.Method == http.MethodPut && r.URL.Path == "/b/bin1":
		var doc jsonBinDocument
		if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		b.doc = &doc
		_ = json.NewEncoder(w).Encode(map[string]any{"record": doc})
	default:
		http.NotFound(w, r)
	}
}

func TestJSONBinRecorder(t *testing.T) {
	bin := &fakeBin{}
	srv := httptest.NewServer(bin)
	defer srv.Close()

	rec, err := NewJSONBinRecorder(srv.URL+"/b/bin1/", "secret", srv.Client())
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	exerciseRecorder(t, rec)
	if bin.keySeen != "secret" {
		t.Fatalf("master key not sent: %q", bin.keySeen)
	}
}

func TestJSONBinRecorder_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	rec, _ := NewJSONBinRecorder(srv.URL, "", srv.Client())
	if _, err := rec.LoadInteractions(context.Background()); err == nil {
		t.Fatalf("expected load error")
	}
	if err := rec.AppendInteraction(context.Background(), Record{ChatID: 1}); err == nil {
		t.Fatalf("expected append error")
	}
}
