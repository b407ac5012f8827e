// Package diag collects the non-fatal findings of a generation run.
//
// Dangling references and consistency problems never abort a run; they are
// streamed to the logger as they happen and kept so the CLI can summarize
// them once the run finishes. A [Collector] belongs to exactly one run.
package diag

import (
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
)

// Kind classifies a warning.
type Kind int

const (
	// Dangling marks a reference to an item or version that does not exist.
	// The offending edge is dropped.
	Dangling Kind = iota
	// Inconsistent marks a resolved result that disagrees with registry
	// metadata. Output is left untouched.
	Inconsistent
	// Skipped marks registry records left out of the model on purpose.
	Skipped
)

func (k Kind) String() string {
	switch k {
	case Dangling:
		return "dangling"
	case Inconsistent:
		return "inconsistent"
	case Skipped:
		return "skipped"
	}
	return "unknown"
}

// MarshalText encodes k by name so stored warnings stay readable.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a name written by [Kind.MarshalText].
func (k *Kind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "dangling":
		*k = Dangling
	case "inconsistent":
		*k = Inconsistent
	case "skipped":
		*k = Skipped
	default:
		return fmt.Errorf("unknown warning kind %q", text)
	}
	return nil
}

// Warning is a single non-fatal finding.
type Warning struct {
	Kind    Kind   `json:"kind" yaml:"kind"`
	Item    string `json:"item" yaml:"item"`                   // Item the warning is about
	Ref     string `json:"ref,omitempty" yaml:"ref,omitempty"` // Referenced name, if any
	Message string `json:"message" yaml:"message"`
}

func (w Warning) String() string {
	if w.Ref != "" {
		return fmt.Sprintf("%s: %s (%s -> %s)", w.Kind, w.Message, w.Item, w.Ref)
	}
	return fmt.Sprintf("%s: %s (%s)", w.Kind, w.Message, w.Item)
}

// Reporter receives warnings. [*Collector] is the production implementation.
type Reporter interface {
	Report(w Warning)
}

// Collector logs and records warnings. It is safe for concurrent use.
type Collector struct {
	logger   *log.Logger
	mu       sync.Mutex
	warnings []Warning
}

// NewCollector creates a collector that streams warnings to logger.
// A nil logger records silently.
func NewCollector(logger *log.Logger) *Collector {
	return &Collector{logger: logger}
}

// Report records w and logs it at warn level.
func (c *Collector) Report(w Warning) {
	c.mu.Lock()
	c.warnings = append(c.warnings, w)
	c.mu.Unlock()

	if c.logger == nil {
		return
	}
	kv := []any{"kind", w.Kind.String(), "item", w.Item}
	if w.Ref != "" {
		kv = append(kv, "ref", w.Ref)
	}
	if w.Kind == Skipped {
		c.logger.Debug(w.Message, kv...)
		return
	}
	c.logger.Warn(w.Message, kv...)
}

// Warnings returns a copy of everything reported so far, in report order.
func (c *Collector) Warnings() []Warning {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Warning, len(c.warnings))
	copy(out, c.warnings)
	return out
}

// Count returns how many warnings of kind k were reported.
func (c *Collector) Count(k Kind) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, w := range c.warnings {
		if w.Kind == k {
			n++
		}
	}
	return n
}

// Reported returns the warnings a user should act on, dropping Skipped
// ones. Order is kept.
func Reported(ws []Warning) []Warning {
	var out []Warning
	for _, w := range ws {
		if w.Kind != Skipped {
			out = append(out, w)
		}
	}
	return out
}

// Replay reports every warning in ws to rep, in order.
func Replay(rep Reporter, ws []Warning) {
	for _, w := range ws {
		rep.Report(w)
	}
}

// Discard is a Reporter that drops everything.
var Discard Reporter = discard{}

type discard struct{}

func (discard) Report(Warning) {}

var _ Reporter = (*Collector)(nil)
