package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// JSONBinRecorder keeps the whole log as {"logs": [...]} in a hosted JSON bin.
// Appends are read-modify-write; the mutex serialises writers in this process
// only, so concurrent instances can lose records.
type JSONBinRecorder struct {
	binURL    string
	masterKey string
	http      *http.Client
	mu        sync.Mutex
}

type jsonBinDocument struct {
	Logs []Record `json:"logs"`
}

func NewJSONBinRecorder(binURL, masterKey string, httpClient *http.Client) (*JSONBinRecorder, error) {
	binURL = strings.TrimRight(strings.TrimSpace(binURL), "/")
	if binURL == "" {
		return nil, fmt.Errorf("jsonbin url is required")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &JSONBinRecorder{binURL: binURL, masterKey: masterKey, http: httpClient}, nil
}

func (r *JSONBinRecorder) AppendInteraction(ctx context.Context, rec Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	logs, err := r.load(ctx)
	if err != nil {
		return err
	}
	body, err := json.Marshal(jsonBinDocument{Logs: append(logs, rec)})
	if err != nil {
		return fmt.Errorf("encode bin: %w", err)
	}
	resp, err := r.do(ctx, http.MethodPut, r.binURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("update bin: http %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	return nil
}

func (r *JSONBinRecorder) LoadInteractions(ctx context.Context) ([]Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load(ctx)
}

func (r *JSONBinRecorder) Ping(ctx context.Context) error {
	_, err := r.LoadInteractions(ctx)
	return err
}

func (r *JSONBinRecorder) load(ctx context.Context) ([]Record, error) {
	resp, err := r.do(ctx, http.MethodGet, r.binURL+"/latest", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	// An empty bin answers 404.
	if resp.StatusCode == http.StatusNotFound {
		return []Record{}, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("read bin: http %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var out struct {
		Record jsonBinDocument `json:"record"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode bin: %w", err)
	}
	if out.Record.Logs == nil {
		return []Record{}, nil
	}
	return out.Record.Logs, nil
}

func (r *JSONBinRecorder) do(ctx context.Context, method, url string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if r.masterKey != "" {
		req.Header.Set("X-Master-Key", r.masterKey)
	}
	resp, err := r.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("jsonbin %s: %w", method, err)
	}
	return resp, nil
}
