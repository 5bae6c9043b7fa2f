package storage

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"teleimage/internal/metrics"
)

// ErrPingUnsupported is returned by Journal.Ping when the backend cannot report its health.
var ErrPingUnsupported = errors.New("log store does not support ping")

// Journal stamps records before handing them to a Recorder.
// Timestamps never go backwards within one Journal, even if the wall clock does.
type Journal struct {
	rec Recorder
	now func() time.Time

	mu   sync.Mutex
	last time.Time
}

func NewJournal(rec Recorder) *Journal {
	return &Journal{rec: rec, now: func() time.Time { return time.Now().UTC() }}
}

// Append assigns an id and timestamp to rec and persists it.
func (j *Journal) Append(ctx context.Context, rec Record) (Record, error) {
	j.mu.Lock()
	ts := j.now()
	if ts.Before(j.last) {
		ts = j.last
	}
	j.last = ts
	rec.ID = uuid.NewString()
	rec.Timestamp = ts
	// Held across the write so store order matches timestamp order.
	err := j.rec.AppendInteraction(ctx, rec)
	j.mu.Unlock()

	result := "ok"
	if err != nil {
		result = "error"
	}
	metrics.LogWrites.WithLabelValues(result).Inc()
	return rec, err
}

func (j *Journal) LoadAll(ctx context.Context) ([]Record, error) {
	return j.rec.LoadInteractions(ctx)
}

func (j *Journal) Ping(ctx context.Context) error {
	p, ok := j.rec.(Pinger)
	if !ok {
		return ErrPingUnsupported
	}
	return p.Ping(ctx)
}

// Close releases the backend if it holds resources.
func (j *Journal) Close() error {
	if c, ok := j.rec.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
