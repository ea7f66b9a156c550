package qtool

import (
	"errors"
	"fmt"
	"io"
)

// IteratorError wraps a mid-stream RecordReader failure with the 1-based
// index of the record being read, per spec.md §7/§8 scenario 7.
type IteratorError struct {
	Index int
	Err   error
}

func (e *IteratorError) Error() string {
	return fmt.Sprintf("could not read the record: %d: %s", e.Index, e.Err)
}

func (e *IteratorError) Unwrap() error {
	return e.Err
}

// Dispatcher drains a RecordReader and routes each record to a worker's
// input channel by hash(record.Host) mod N (I1). Sends are rendezvous: the
// reader is not advanced again until the chosen worker has taken the
// record (I4), so worker inputs must be unbuffered, or buffered only to a
// small fixed bound that correctness never relies on.
type Dispatcher struct {
	reader  RecordReader
	hasher  Hasher
	workers []chan<- Record
}

// NewDispatcher builds a Dispatcher over reader, routing across the given
// per-worker input channels.
func NewDispatcher(reader RecordReader, hasher Hasher, workers []chan<- Record) *Dispatcher {
	return &Dispatcher{reader: reader, hasher: hasher, workers: workers}
}

// Run reads until the iterator is exhausted cleanly (io.EOF), returning nil,
// or returns an *IteratorError on any other failure.
func (d *Dispatcher) Run() error {
	index := 0
	for {
		rec, err := d.reader.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return &IteratorError{Index: index + 1, Err: err}
		}
		index++

		w := WorkerFor(d.hasher, rec.Host, len(d.workers))
		d.workers[w] <- rec.Clone()
	}
}
