package modules

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// MockModule implements Module for testing. All fields are configurable
// and it tracks how many times Evaluate has been called.
type MockModule struct {
	desc Descriptor

	mu        sync.RWMutex
	text      string
	err       error
	callCount atomic.Int64

	// EvaluateFunc, if set, overrides the default Evaluate behavior. It
	// lets tests block, panic, or return different values per call.
	EvaluateFunc func(ctx context.Context, opts Options) (string, error)
}

// MockOption configures a MockModule.
type MockOption func(*MockModule)

// WithText sets the text returned by Evaluate.
func WithText(text string) MockOption {
	return func(m *MockModule) { m.text = text }
}

// WithError sets the error returned by Evaluate.
func WithError(err error) MockOption {
	return func(m *MockModule) { m.err = err }
}

// WithMinInterval sets the descriptor's minimum refresh interval.
func WithMinInterval(d time.Duration) MockOption {
	return func(m *MockModule) { m.desc.MinInterval = d }
}

// WithDescriptor applies fn to the descriptor.
func WithDescriptor(fn func(d *Descriptor)) MockOption {
	return func(m *MockModule) { fn(&m.desc) }
}

// WithEvaluateFunc sets a custom function for Evaluate.
func WithEvaluateFunc(fn func(ctx context.Context, opts Options) (string, error)) MockOption {
	return func(m *MockModule) { m.EvaluateFunc = fn }
}

// NewMockModule creates a mock module with the given id and options.
func NewMockModule(id string, opts ...MockOption) *MockModule {
	m := &MockModule{
		desc: Descriptor{ID: id, Label: id, Capability: CapFast},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Descriptor returns the configured descriptor.
func (m *MockModule) Descriptor() Descriptor { return m.desc }

// SetText updates the returned text (thread-safe).
func (m *MockModule) SetText(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.text = text
}

// SetError updates the returned error (thread-safe).
func (m *MockModule) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Evaluate increments the call counter and returns the configured text and
// error, or delegates to EvaluateFunc if set.
func (m *MockModule) Evaluate(ctx context.Context, opts Options) (string, error) {
	m.callCount.Add(1)

	if m.EvaluateFunc != nil {
		return m.EvaluateFunc(ctx, opts)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.text, m.err
}

// CallCount returns how many times Evaluate has been called.
func (m *MockModule) CallCount() int64 {
	return m.callCount.Load()
}
