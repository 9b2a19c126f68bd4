// Package modules defines the contract every status-line module implements,
// the Registry that resolves a configuration's module list, and a mock for
// tests. Built-in modules live in sub-packages (e.g. pkg/modules/clock) and
// are wired together in pkg/modules/builtin.
package modules

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"gitlab.com/tinyland/lab/cc-statusline/pkg/session"
)

// Capability tells the scheduler how expensive a module's evaluation is.
type Capability string

const (
	// CapFast modules compute from in-process state.
	CapFast Capability = "fast"
	// CapMayBlock modules run subprocesses or touch the filesystem.
	CapMayBlock Capability = "may-block"
)

// DefaultFailureText is rendered for a failed module that declares no
// placeholder of its own.
const DefaultFailureText = "✗"

// ErrTimeout marks a Result whose evaluation did not finish within the tick.
var ErrTimeout = errors.New("module evaluation timed out")

// Descriptor is the static description of a module implementation.
type Descriptor struct {
	// ID is the unique identifier used in configuration.
	ID string
	// Label is the human-readable field name.
	Label string
	// Icon is an optional glyph shown before the value.
	Icon string
	// MinInterval is the minimum time between two evaluations.
	MinInterval time.Duration
	// Capability is a cost hint.
	Capability Capability
	// FailureText replaces the value when evaluation fails.
	FailureText string
	// OmitOnFailure drops the module from the line instead of rendering
	// FailureText.
	OmitOnFailure bool
}

// Placeholder returns the text rendered when the module fails.
func (d Descriptor) Placeholder() string {
	if d.FailureText == "" {
		return DefaultFailureText
	}
	return d.FailureText
}

// Module is the interface all status fields implement.
type Module interface {
	// Descriptor returns the module's static metadata.
	Descriptor() Descriptor

	// Evaluate computes the module's text. A non-nil error marks the result
	// as failed; the text is ignored in that case. Implementations should
	// honor ctx cancellation for anything that can block.
	Evaluate(ctx context.Context, opts Options) (string, error)
}

// Level is a severity a module attaches to its value. Themes may style each
// level differently.
type Level string

const (
	LevelNone  Level = ""
	LevelInfo  Level = "info"
	LevelOK    Level = "ok"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// LevelEvaluator is implemented by modules whose value carries a Level.
// Run prefers it over Evaluate.
type LevelEvaluator interface {
	EvaluateLevel(ctx context.Context, opts Options) (string, Level, error)
}

// Prober is implemented by modules that can verify their data source
// independently of producing a value, e.g. that a binary is on PATH.
type Prober interface {
	Probe(ctx context.Context) error
}

// Env is the per-run environment handed to built-in module constructors.
type Env struct {
	// Session is the document the host piped on stdin.
	Session session.Input
	// Started is when this process began.
	Started time.Time
	// Now overrides time.Now for testing.
	Now func() time.Time
	// Logger receives module diagnostics.
	Logger *slog.Logger
}

// Clock returns Now or time.Now.
func (e Env) Clock() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// Log returns Logger or a discarding logger.
func (e Env) Log() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.New(slog.DiscardHandler)
}

// Result is the outcome of one module evaluation.
type Result struct {
	ModuleID  string
	Text      string
	OK        bool
	Err       error
	Timestamp time.Time
	// TimedOut is set when the result was synthesized because the tick
	// deadline passed before the module returned.
	TimedOut bool
	// Level is the severity of a successful value.
	Level Level
}

// ErrorText returns the failure detail, or "".
func (r Result) ErrorText() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// Success builds a successful Result.
func Success(id, text string, at time.Time) Result {
	return Result{ModuleID: id, Text: text, OK: true, Timestamp: at}
}

// Failure builds a failed Result.
func Failure(id string, err error, at time.Time) Result {
	return Result{ModuleID: id, Err: err, Timestamp: at}
}

// TimedOut builds the Result for a module that missed the tick deadline.
func TimedOut(id string, cause error, at time.Time) Result {
	err := ErrTimeout
	if cause != nil {
		err = fmt.Errorf("%w: %v", ErrTimeout, cause)
	}
	return Result{ModuleID: id, Err: err, Timestamp: at, TimedOut: true}
}

// Run evaluates m once and converts the outcome, including a panic, into a
// Result stamped with at.
func Run(ctx context.Context, m Module, opts Options, at time.Time) (res Result) {
	id := m.Descriptor().ID
	defer func() {
		if p := recover(); p != nil {
			res = Failure(id, fmt.Errorf("module %s panicked: %v\n%s", id, p, debug.Stack()), at)
		}
	}()

	if le, ok := m.(LevelEvaluator); ok {
		text, level, err := le.EvaluateLevel(ctx, opts)
		if err != nil {
			return Failure(id, err, at)
		}
		res = Success(id, text, at)
		res.Level = level
		return res
	}
	text, err := m.Evaluate(ctx, opts)
	if err != nil {
		return Failure(id, err, at)
	}
	return Success(id, text, at)
}
