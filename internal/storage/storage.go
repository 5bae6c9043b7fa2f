package storage

import (
	"context"
	"time"
)

// Record is one inbound message that reached the bot.
// Records are immutable once appended; nothing in this module deletes them.
type Record struct {
	ID        string    `json:"id,omitempty"`
	ChatID    int64     `json:"chatId"`
	Username  string    `json:"username,omitempty"`
	FirstName string    `json:"firstName,omitempty"`
	LastName  string    `json:"lastName,omitempty"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Recorder abstracts persistence of interaction records.
// LoadInteractions returns records in the backend's native (append) order.
// Implementations must be safe for concurrent use.
type Recorder interface {
	AppendInteraction(ctx context.Context, rec Record) error
	LoadInteractions(ctx context.Context) ([]Record, error)
}

// Pinger is implemented by backends that can report their connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}
