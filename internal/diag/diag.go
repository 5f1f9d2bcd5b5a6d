// Package diag carries operator-facing diagnostics out of the loading passes.
package diag

import (
	"fmt"
	"log/slog"
	"sync"
)

// Severity says what happened to the entity a diagnostic concerns.
type Severity int

const (
	// Warning marks a malformed fragment that was skipped; the pass continues.
	Warning Severity = iota
	// Unresolved marks a reference that matched nothing. The entity is kept
	// with no reference.
	Unresolved
	// Fatal marks a problem that aborted the pass that reported it.
	Fatal
)

func (s Severity) String() string {
	switch s {
	case Warning:
		return "warning"
	case Unresolved:
		return "unresolved"
	case Fatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Diagnostic is one reported problem. Kind names the entity kind or pass,
// Path the offending file and Entity the entity or reference concerned.
type Diagnostic struct {
	Severity Severity `json:"-"`
	Kind     string   `json:"kind"`
	Path     string   `json:"path,omitempty"`
	Entity   string   `json:"entity,omitempty"`
	Err      error    `json:"-"`
}

func (d Diagnostic) Error() string {
	msg := d.Kind
	if d.Entity != "" {
		msg += " " + d.Entity
	}
	if d.Path != "" {
		msg += fmt.Sprintf(" (%s)", d.Path)
	}
	if d.Err != nil {
		msg += ": " + d.Err.Error()
	}
	return msg
}

func (d Diagnostic) Unwrap() error { return d.Err }

// Reporter receives diagnostics. Implementations must be safe for concurrent use.
type Reporter interface {
	Report(d Diagnostic)
}

// Collector records diagnostics in report order and optionally logs them.
type Collector struct {
	mu     sync.Mutex
	items  []Diagnostic
	logger *slog.Logger
}

// NewCollector returns a collector that also logs to logger when it is non-nil.
func NewCollector(logger *slog.Logger) *Collector {
	return &Collector{logger: logger}
}

func (c *Collector) Report(d Diagnostic) {
	c.mu.Lock()
	c.items = append(c.items, d)
	c.mu.Unlock()

	if c.logger == nil {
		return
	}
	attrs := []any{"kind", d.Kind}
	if d.Path != "" {
		attrs = append(attrs, "path", d.Path)
	}
	if d.Entity != "" {
		attrs = append(attrs, "entity", d.Entity)
	}
	if d.Err != nil {
		attrs = append(attrs, "error", d.Err)
	}
	switch d.Severity {
	case Fatal:
		c.logger.Error("pass aborted", attrs...)
	case Unresolved:
		c.logger.Warn("reference unresolved", attrs...)
	default:
		c.logger.Warn("skipped", attrs...)
	}
}

// All returns a copy of the recorded diagnostics.
func (c *Collector) All() []Diagnostic {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Diagnostic, len(c.items))
	copy(out, c.items)
	return out
}

// Count returns how many diagnostics of the given severity were recorded.
func (c *Collector) Count(severity Severity) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, d := range c.items {
		if d.Severity == severity {
			n++
		}
	}
	return n
}

// Discard drops every diagnostic.
var Discard Reporter = discard{}

type discard struct{}

func (discard) Report(Diagnostic) {}
