// Package cache memoizes module results between ticks. Each module gets one
// Entry holding its last Result and the earliest time it may be recomputed,
// which decouples a module's real cost from the line's refresh cadence.
//
// The cache is process-local and never persisted. Entries are created on a
// module's first evaluation and live until the Cache is dropped.
package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"gitlab.com/tinyland/lab/cc-statusline/pkg/modules"
)

// Entry is the cached state for one module.
type Entry struct {
	ModuleID     string
	Last         modules.Result
	NextEligible time.Time
}

// Stats holds runtime counters for a Cache.
type Stats struct {
	Hits        int64
	Misses      int64
	Evaluations int64
	Timeouts    int64
	LateCommits int64
	Entries     int
}

// flight is one in-progress evaluation shared by every caller that asks for
// the module while it runs.
type flight struct {
	done chan struct{}
	res  modules.Result
	// abandoned is set when the initiating caller gave up waiting. A late
	// failure is then discarded; a late success is still committed.
	abandoned bool
}

// slot guards one module's entry. Only the evaluation started from a slot
// writes to it, so modules never contend with each other.
type slot struct {
	mu     sync.Mutex
	entry  Entry
	filled bool
	flight *flight
}

// Cache maps module ids to their entries. The zero value is not usable; use
// New.
type Cache struct {
	mu    sync.Mutex
	slots map[string]*slot

	hits        atomic.Int64
	misses      atomic.Int64
	evaluations atomic.Int64
	timeouts    atomic.Int64
	lateCommits atomic.Int64
}

// New returns an empty cache.
func New() *Cache {
	return &Cache{slots: make(map[string]*slot)}
}

func (c *Cache) slot(id string) *slot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.slots[id]
	if !ok {
		s = &slot{entry: Entry{ModuleID: id}}
		c.slots[id] = s
	}
	return s
}

// GetOrCompute returns the module's cached Result while now is before the
// entry's next eligible time, regardless of whether that Result succeeded.
// Otherwise it evaluates the module, commits the outcome, and moves the next
// eligible time to now + max(MinInterval, opts.Interval()).
//
// If ctx ends first, or the module fails because ctx ended, a TimedOut
// Result is returned and the entry is left as it was. The evaluation keeps running; should it later succeed, its Result
// is committed then. Concurrent callers for the same module share one
// evaluation.
func (c *Cache) GetOrCompute(ctx context.Context, m modules.Module, opts modules.Options, now time.Time) modules.Result {
	desc := m.Descriptor()
	s := c.slot(desc.ID)

	s.mu.Lock()
	if s.filled && now.Before(s.entry.NextEligible) {
		res := s.entry.Last
		s.mu.Unlock()
		c.hits.Add(1)
		return res
	}
	c.misses.Add(1)

	f := s.flight
	initiator := f == nil
	if initiator {
		f = &flight{done: make(chan struct{})}
		s.flight = f
		c.evaluations.Add(1)
		interval := max(desc.MinInterval, opts.Interval())
		go c.evaluate(ctx, s, f, m, opts, now, interval)
	}
	s.mu.Unlock()

	select {
	case <-f.done:
		return c.flightResult(f)
	case <-ctx.Done():
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-f.done:
		// Finished while we were acquiring the lock.
		return c.flightResult(f)
	default:
	}
	if initiator {
		f.abandoned = true
	}
	c.timeouts.Add(1)
	return modules.TimedOut(desc.ID, ctx.Err(), now)
}

func (c *Cache) evaluate(ctx context.Context, s *slot, f *flight, m modules.Module, opts modules.Options, now time.Time, interval time.Duration) {
	res := modules.Run(ctx, m, opts, now)

	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case !res.OK && ctx.Err() != nil:
		// A module that gave up because the deadline passed reports the
		// deadline, not its data source. Never cache that.
		res = modules.TimedOut(res.ModuleID, ctx.Err(), now)
	case !f.abandoned:
		s.commitLocked(res, now, interval)
	case res.OK:
		s.commitLocked(res, now, interval)
		c.lateCommits.Add(1)
	}
	f.res = res
	s.flight = nil
	close(f.done)
}

// flightResult returns a finished flight's Result, counting a deadline
// failure as a timeout.
func (c *Cache) flightResult(f *flight) modules.Result {
	if f.res.TimedOut {
		c.timeouts.Add(1)
	}
	return f.res
}

// commitLocked records res. Timestamps never move backwards.
func (s *slot) commitLocked(res modules.Result, now time.Time, interval time.Duration) {
	if s.filled && res.Timestamp.Before(s.entry.Last.Timestamp) {
		res.Timestamp = s.entry.Last.Timestamp
	}
	next := now.Add(interval)
	if next.Before(s.entry.NextEligible) {
		next = s.entry.NextEligible
	}
	s.entry.Last = res
	s.entry.NextEligible = next
	s.filled = true
}

// Peek returns the entry for id without evaluating anything.
func (c *Cache) Peek(id string) (Entry, bool) {
	c.mu.Lock()
	s, ok := c.slots[id]
	c.mu.Unlock()
	if !ok {
		return Entry{}, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.filled {
		return Entry{}, false
	}
	return s.entry, true
}

// Stats returns a snapshot of the cache counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	n := 0
	for _, s := range c.slots {
		s.mu.Lock()
		if s.filled {
			n++
		}
		s.mu.Unlock()
	}
	c.mu.Unlock()

	return Stats{
		Hits:        c.hits.Load(),
		Misses:      c.misses.Load(),
		Evaluations: c.evaluations.Load(),
		Timeouts:    c.timeouts.Load(),
		LateCommits: c.lateCommits.Load(),
		Entries:     n,
	}
}
