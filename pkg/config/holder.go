package config

import "sync/atomic"

// Holder publishes the current Config snapshot to concurrent readers.
// Store replaces the snapshot wholesale; readers never observe a partial
// update.
type Holder struct {
	cur atomic.Pointer[Config]
}

// NewHolder returns a Holder seeded with cfg.
func NewHolder(cfg *Config) *Holder {
	h := &Holder{}
	h.cur.Store(cfg)
	return h
}

// Current returns the active snapshot.
func (h *Holder) Current() *Config {
	return h.cur.Load()
}

// Store swaps in a new snapshot.
func (h *Holder) Store(cfg *Config) {
	h.cur.Store(cfg)
}
