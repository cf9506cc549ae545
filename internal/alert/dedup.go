// Package alert suppresses repeat notifications for the same setup.
package alert

import (
	"context"
	"fmt"
	"strings"
	"time"

	"roshi/internal/strategy"
)

type Policy string

const (
	// PolicyWindow suppresses a key for Window after each emission.
	PolicyWindow Policy = "window"
	// PolicyOnce suppresses a key forever. The key embeds the entry price so
	// a new price level is a new key.
	PolicyOnce Policy = "once"
)

const DefaultWindow = 30 * time.Minute

type Config struct {
	Policy Policy
	Window time.Duration
}

func (c Config) withDefaults() Config {
	if c.Policy == "" {
		c.Policy = PolicyWindow
	}
	if c.Window <= 0 {
		c.Window = DefaultWindow
	}
	return c
}

// Key identifies an alert. Which fields take part depends on the policy.
type Key struct {
	Instrument string
	Strategy   string
	Setup      string
	Entry      float64
	policy     Policy
}

func (k Key) String() string {
	base := strings.ToUpper(k.Instrument) + "|" + strings.ToUpper(k.Strategy)
	if k.policy == PolicyOnce {
		return base + "|" + fmt.Sprintf("%.2f", strategy.RoundPrice(k.Entry))
	}
	return base
}

type Deduplicator struct {
	store  Store
	policy Policy
	window time.Duration
}

func NewDeduplicator(store Store, cfg Config) (*Deduplicator, error) {
	if store == nil {
		return nil, fmt.Errorf("alert store is required")
	}
	cfg = cfg.withDefaults()
	switch cfg.Policy {
	case PolicyWindow, PolicyOnce:
	default:
		return nil, fmt.Errorf("unknown dedup policy %q", cfg.Policy)
	}
	return &Deduplicator{store: store, policy: cfg.Policy, window: cfg.Window}, nil
}

func (d *Deduplicator) Policy() Policy        { return d.policy }
func (d *Deduplicator) Window() time.Duration { return d.window }
func (d *Deduplicator) Store() Store          { return d.store }

func (d *Deduplicator) KeyFor(sig strategy.Signal) Key {
	return Key{
		Instrument: sig.Instrument.Name,
		Strategy:   sig.Strategy,
		Setup:      string(sig.Setup),
		Entry:      sig.Entry,
		policy:     d.policy,
	}
}

// ShouldEmit reports whether key may be sent at now. A store error is
// returned with false so callers never send blind.
func (d *Deduplicator) ShouldEmit(ctx context.Context, key Key, now time.Time) (bool, error) {
	key.policy = d.policy
	rec, ok, err := d.store.Get(ctx, key.String())
	if err != nil {
		return false, fmt.Errorf("alert lookup %s: %w", key, err)
	}
	if !ok {
		return true, nil
	}
	if d.policy == PolicyOnce {
		return false, nil
	}
	return now.Sub(rec.SentAt) >= d.window, nil
}

// RecordEmission stores or refreshes the record. Call it only after the
// notification went out.
func (d *Deduplicator) RecordEmission(ctx context.Context, key Key, now time.Time) error {
	key.policy = d.policy
	rec := Record{
		Key:        key.String(),
		Instrument: key.Instrument,
		Strategy:   key.Strategy,
		Setup:      key.Setup,
		Entry:      key.Entry,
		Policy:     d.policy,
		SentAt:     now.UTC(),
	}
	if err := d.store.Put(ctx, rec); err != nil {
		return fmt.Errorf("alert record %s: %w", rec.Key, err)
	}
	return nil
}
