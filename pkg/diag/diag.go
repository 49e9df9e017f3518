// Package diag carries verification findings from the engine to whatever
// consumes them: a console, a test collector, a report file.
//
// A diagnostic is a category plus location and free-form detail. Rendering
// is stable, so two runs over identical inputs print identical logs.
package diag

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// Category names the kind of finding. The value is the rendered prefix.
type Category string

const (
	// Claim tracking.
	DoubleClaimedNode  Category = "DOUBLE CLAIMED NODE"
	DoubleClaimedPip   Category = "DOUBLE CLAIMED PIP"
	DoubleClaimedSite  Category = "DOUBLE CLAIMED SITE"
	NodeMismatch       Category = "NODE MISMATCH"
	MissingWire        Category = "MISSING WIRE"
	MissingNodeWire    Category = "MISSING NODE WIRE"
	MissingVccNodeWire Category = "MISSING VCC NODE WIRE"
	MissingPipDestWire Category = "MISSING PIP DEST WIRE"
	MissingPipSrcWire  Category = "MISSING PIP SRC WIRE"
	MissingPip         Category = "MISSING PIP"
	MissingSite        Category = "MISSING SITE"
	MismatchedSiteKind Category = "MISMATCHED SITE KIND"
	PinDirMismatch     Category = "PIN DIR MISMATCH"
	PinWireMismatch    Category = "PIN WIRE MISMATCH"
	MissingPin         Category = "MISSING PIN"
	ExtraPin           Category = "EXTRA PIN"

	// Pinning and tile walking.
	IntNodeMismatch         Category = "INT NODE MISMATCH"
	IntNodeMissing          Category = "INT NODE MISSING"
	IntIntfNodeMismatch     Category = "INT INTF NODE MISMATCH"
	IntIntfNodeWasMissing   Category = "INT INTF NODE PRESENT BUT WAS MISSING PREVIOUSLY"
	IntIntfNodeWireNotFound Category = "INT INTF NODE PRESENT BUT WIRE NOT FOUND"
	IntIntfWireMissingTwice Category = "INT INTF WIRE MISSING TWICE"
	MissingIntTile          Category = "MISSING INT TILE"
	MissingBufPip           Category = "MISSING BUF PIP"
	MissingBelPinIntfWire   Category = "MISSING BEL PIN INTF WIRE"
	MissingBelPinIntWire    Category = "MISSING BEL PIN INT WIRE"
	MissingTermTile         Category = "MISSING TERM TILE"
	MissingPassTile         Category = "MISSING PASS TILE"
	MissingTermPip          Category = "MISSING TERM PIP"
	MissingSiteName         Category = "MISSING SITE NAME"

	// Residual scan.
	UnclaimedSite         Category = "UNCLAIMED SITE"
	UnclaimedPip          Category = "UNCLAIMED PIP"
	UnclaimedInternalWire Category = "UNCLAIMED INTERNAL WIRE"
	UnclaimedConnWire     Category = "UNCLAIMED CONN WIRE"
)

// Severity grades a category.
type Severity int

const (
	SeverityError Severity = iota
	SeverityInfo
)

func (s Severity) String() string {
	if s == SeverityInfo {
		return "info"
	}
	return "error"
}

// Severity returns the grade of the category. Only recoveries are
// informational.
func (c Category) Severity() Severity {
	if c == IntIntfNodeWasMissing {
		return SeverityInfo
	}
	return SeverityError
}

// Diagnostic is one finding.
type Diagnostic struct {
	Category Category `json:"category"`
	Part     string   `json:"part,omitempty"`
	Tile     string   `json:"tile,omitempty"`
	Detail   string   `json:"detail,omitempty"`
}

func (d Diagnostic) String() string {
	var sb strings.Builder
	sb.WriteString(string(d.Category))
	for _, f := range []string{d.Part, d.Tile, d.Detail} {
		if f != "" {
			sb.WriteByte(' ')
			sb.WriteString(f)
		}
	}
	return sb.String()
}

// Sink receives diagnostics in emission order.
type Sink interface {
	Emit(d Diagnostic)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(d Diagnostic)

func (f SinkFunc) Emit(d Diagnostic) { f(d) }

// ConsoleSink prints one line per diagnostic.
type ConsoleSink struct {
	mu sync.Mutex
	w  io.Writer
}

// NewConsoleSink writes to w.
func NewConsoleSink(w io.Writer) *ConsoleSink {
	return &ConsoleSink{w: w}
}

func (s *ConsoleSink) Emit(d Diagnostic) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintln(s.w, d.String())
}

// Collector keeps every diagnostic in memory.
type Collector struct {
	Diags []Diagnostic
}

func (c *Collector) Emit(d Diagnostic) {
	c.Diags = append(c.Diags, d)
}

// Count returns how many diagnostics of category cat were emitted.
func (c *Collector) Count(cat Category) int {
	n := 0
	for _, d := range c.Diags {
		if d.Category == cat {
			n++
		}
	}
	return n
}

// Lines renders every diagnostic.
func (c *Collector) Lines() []string {
	out := make([]string, len(c.Diags))
	for i, d := range c.Diags {
		out[i] = d.String()
	}
	return out
}

// Tee fans diagnostics out to several sinks.
type Tee []Sink

func (t Tee) Emit(d Diagnostic) {
	for _, s := range t {
		s.Emit(d)
	}
}
