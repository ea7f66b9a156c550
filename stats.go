package qtool

import (
	"fmt"
	"io"
	"math"
)

// StatsState holds the running counters the StatsCollector folds each
// QDuration into. It is owned solely by the collector goroutine; nothing
// else touches it concurrently.
type StatsState struct {
	NQ       int64
	NQOk     int64
	TotalMs  int64
	MinMs    int64
	MaxMs    int64
}

func newStatsState() *StatsState {
	return &StatsState{MinMs: math.MaxInt64}
}

func (s *StatsState) record(d QDuration) {
	s.NQ++
	if !d.OK {
		return
	}
	s.NQOk++
	s.TotalMs += d.DurationMs
	if d.DurationMs < s.MinMs {
		s.MinMs = d.DurationMs
	}
	if d.DurationMs > s.MaxMs {
		s.MaxMs = d.DurationMs
	}
}

// avgMs rounds toward zero, matching integer division semantics.
func (s *StatsState) avgMs() int64 {
	if s.NQOk == 0 {
		return 0
	}
	return s.TotalMs / s.NQOk
}

// StatsCollector is the single task consuming the shared output channel. It
// folds every QDuration into a StatsState and, on channel close, prints the
// exact summary lines required by spec.md §6.
type StatsCollector struct {
	in         <-chan QDuration
	out        io.Writer
	done       chan struct{}
	state      *StatsState
	onEach     func(QDuration) // optional metrics hook, fires before folding
	suppressed bool            // set by Suppress before the input channel closes
}

// NewStatsCollector builds a collector reading from in and writing its
// final summary to out.
func NewStatsCollector(in <-chan QDuration, out io.Writer) *StatsCollector {
	return &StatsCollector{
		in:    in,
		out:   out,
		done:  make(chan struct{}),
		state: newStatsState(),
	}
}

// OnEach registers a callback invoked for every QDuration as it arrives,
// ahead of being folded into the running state. Used to feed the optional
// Prometheus collector without coupling StatsState to metrics.
func (c *StatsCollector) OnEach(fn func(QDuration)) {
	c.onEach = fn
}

// Suppress marks the run as aborted: print becomes a no-op once Run drains
// in, matching the original's behavior of exiting on a mid-stream iterator
// error without printing a partial summary to standard output (spec.md §7:
// diagnostics go to standard error, the user-visible summary to standard
// output). Callers must call this before closing the channel Run is
// draining, so it happens-before the drain loop's exit.
func (c *StatsCollector) Suppress() {
	c.suppressed = true
}

// Run drains in until it is closed, then prints the summary and closes
// Done. It is meant to be run in its own goroutine.
func (c *StatsCollector) Run() {
	defer close(c.done)
	for d := range c.in {
		if c.onEach != nil {
			c.onEach(d)
		}
		c.state.record(d)
	}
	c.print()
}

// Done signals that Run has drained its input and printed the summary.
func (c *StatsCollector) Done() <-chan struct{} {
	return c.done
}

// State returns the final (or in-progress) counters. Safe to read only
// after Done() has fired.
func (c *StatsCollector) State() StatsState {
	return *c.state
}

func (c *StatsCollector) print() {
	if c.suppressed {
		return
	}
	s := c.state
	fmt.Fprintf(c.out, "The number of queries processed: %d\n", s.NQ)
	fmt.Fprintf(c.out, "The number of queries which returned some data: %d\n", s.NQOk)
	if s.NQOk == 0 {
		return
	}
	fmt.Fprintf(c.out, "The sum of the single query times: %d (ms)\n", s.TotalMs)
	fmt.Fprintf(c.out, "The minimum query time: %d (ms)\n", s.MinMs)
	fmt.Fprintf(c.out, "The maximum query time: %d (ms)\n", s.MaxMs)
	fmt.Fprintf(c.out, "The average query time: %d (ms)\n", s.avgMs())
}
