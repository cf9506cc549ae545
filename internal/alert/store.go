package alert

import (
	"context"
	"time"
)

// Record marks one delivered alert.
type Record struct {
	Key        string    `json:"key"`
	Instrument string    `json:"instrument"`
	Strategy   string    `json:"strategy"`
	Setup      string    `json:"setup,omitempty"`
	Entry      float64   `json:"entry"`
	Policy     Policy    `json:"policy"`
	SentAt     time.Time `json:"sent_at"`
}

// Store holds emission records. Implementations bound their own size or age;
// the window decision itself belongs to Deduplicator.
type Store interface {
	Get(ctx context.Context, key string) (Record, bool, error)
	Put(ctx context.Context, rec Record) error
	// List returns the most recent records first.
	List(ctx context.Context, limit int) ([]Record, error)
	Close() error
}
