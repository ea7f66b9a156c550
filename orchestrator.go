package qtool

import (
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

const (
	// MinWorkers and MaxWorkers bound the valid worker-count range (§4.6).
	MinWorkers = 1
	MaxWorkers = 16
	// DefaultWorkers is used by the CLI when -w/--workers is not given.
	DefaultWorkers = 4
)

// ErrInvalidWorkerCount is returned by NewOrchestrator when n is outside
// the valid, non-clampable range (<= 0).
var ErrInvalidWorkerCount = fmt.Errorf("worker count must be greater than 0")

// Orchestrator wires the channels, spawns the worker pool and stats
// collector, drives the Dispatcher, and runs the shutdown sequence in the
// strict order required by spec.md §4.6.
type Orchestrator struct {
	n           int
	hasher      Hasher
	clock       Clock
	log         *logrus.Logger
	out         io.Writer
	metrics     *MetricsCollector
	connFactory connFactory
}

// NewOrchestrator validates n and returns an Orchestrator that will run
// that many workers. Values above MaxWorkers are clamped to MaxWorkers
// with a warning logged; values <= 0 are rejected outright.
func NewOrchestrator(n int, log *logrus.Logger, out io.Writer) (*Orchestrator, error) {
	if n <= 0 {
		return nil, ErrInvalidWorkerCount
	}
	if n > MaxWorkers {
		log.Warnf("worker count %d exceeds the maximum of %d; clamping", n, MaxWorkers)
		n = MaxWorkers
	}
	return &Orchestrator{
		n:           n,
		hasher:      NewHasher(),
		clock:       NewClock(),
		log:         log,
		out:         out,
		connFactory: sqliteConnFactory{},
	}, nil
}

// WithMetrics attaches an optional Prometheus collector; every QDuration
// the StatsCollector folds is also observed there.
func (o *Orchestrator) WithMetrics(m *MetricsCollector) {
	o.metrics = m
}

// preparedWorker is the result of eagerly acquiring one worker's resources
// during setup: a connection already open and a statement already
// prepared. Acquiring everything before any goroutine is spawned is what
// lets the caller abort the whole run synchronously instead of discovering
// a broken worker mid-pipeline (see DESIGN.md's resolution of the
// prepare-failure open question).
type preparedWorker struct {
	id   int
	conn conn
	stmt Stmt
}

// prepareWorkers opens one connection and prepares one statement per
// worker, in order. On any failure it closes everything already opened and
// returns the error — a structural failure, fatal before any task starts.
func (o *Orchestrator) prepareWorkers(ctx context.Context, dbPath string) ([]preparedWorker, error) {
	prepared := make([]preparedWorker, 0, o.n)

	cleanup := func() {
		for _, p := range prepared {
			p.stmt.Close()
			p.conn.Close()
		}
	}

	for i := 0; i < o.n; i++ {
		c, err := o.connFactory.Open(dbPath)
		if err != nil {
			cleanup()
			return nil, fmt.Errorf("worker %d: open connection: %w", i, err)
		}
		stmt, err := c.Prepare(ctx, QTemplate)
		if err != nil {
			c.Close()
			cleanup()
			return nil, fmt.Errorf("worker %d: prepare statement: %w", i, err)
		}
		prepared = append(prepared, preparedWorker{id: i, conn: c, stmt: stmt})
	}

	return prepared, nil
}

// Run executes one full benchmark pass: prepare the pool, spawn workers and
// the stats collector, drain reader through the dispatcher, and shut down
// in order. It prints "the overall query time" and the stats collector's
// summary to o.out.
func (o *Orchestrator) Run(ctx context.Context, dbPath string, reader RecordReader) error {
	prepared, err := o.prepareWorkers(ctx, dbPath)
	if err != nil {
		return err
	}

	outputs := make(chan QDuration)
	collector := NewStatsCollector(outputs, o.out)
	if o.metrics != nil {
		collector.OnEach(o.metrics.Observe)
	}
	go collector.Run()

	inputs := make([]chan Record, o.n)
	sendOnly := make([]chan<- Record, o.n)
	workerDone := make(chan struct{}, o.n)

	for _, p := range prepared {
		ch := make(chan Record)
		inputs[p.id] = ch
		sendOnly[p.id] = ch

		w := &worker{
			id:    p.id,
			db:    p.conn,
			stmt:  p.stmt,
			clock: o.clock,
			in:    ch,
			out:   outputs,
			log:   o.log.WithField("worker", p.id),
		}
		go func() {
			w.run(ctx)
			workerDone <- struct{}{}
		}()
	}

	pipelineStart := o.clock.NowMs()

	dispatcher := NewDispatcher(reader, o.hasher, sendOnly)
	dispatchErr := dispatcher.Run()

	// a. close every worker input, signalling end-of-stream, whether the
	// dispatcher finished cleanly or hit an iterator error.
	for _, ch := range inputs {
		close(ch)
	}
	// b. wait for all workers to exit.
	for i := 0; i < o.n; i++ {
		<-workerDone
	}

	if dispatchErr != nil {
		// Suppress the stdout summary: the original exits on a mid-stream
		// iterator error without printing partial stats, and a partial
		// "queries processed" line on a run that's about to return a
		// non-nil error would read as a completed result. The partial
		// counts are still worth keeping for a diagnostic, so they go to
		// the log (standard error), not standard output.
		collector.Suppress()
		close(outputs)
		<-collector.Done()
		o.log.WithError(dispatchErr).WithField("state", collector.State()).
			Warn("benchmark aborted mid-stream; discarding partial stats")
		return dispatchErr
	}

	// c. print overall time, between the worker wait and the output-channel
	// close, so it reflects dispatch + execution but not stats reporting.
	overall := o.clock.NowMs() - pipelineStart
	fmt.Fprintf(o.out, "The overall query time: %d (ms)\n", overall)
	// d. close the output channel, guaranteeing I2: every record sent
	// produced exactly one QDuration before this point.
	close(outputs)
	// e. wait for the stats collector to exit (it prints the summary).
	<-collector.Done()

	return nil
}
