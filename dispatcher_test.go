package qtool

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

// sliceReader replays a fixed slice of records, then io.EOF or a supplied
// error once exhausted.
type sliceReader struct {
	records []Record
	i       int
	failAt  int // 0 means never fail
	failErr error
}

func (r *sliceReader) Next() (Record, error) {
	r.i++
	if r.failAt > 0 && r.i == r.failAt {
		return Record{}, r.failErr
	}
	if r.i > len(r.records) {
		return Record{}, io.EOF
	}
	return r.records[r.i-1], nil
}

func rec(host string) Record {
	return Record{Host: []byte(host), StartTS: []byte("s"), EndTS: []byte("e")}
}

// TestDispatcherAffinity is P3/scenario 3: every record a worker receives
// satisfies hash(host) mod N == worker id, and P2: total received equals
// the number of input records.
func TestDispatcherAffinity(t *testing.T) {
	const n = 4
	reader := &sliceReader{records: []Record{
		rec("host_000008"), rec("host_000001"), rec("host_000008"),
		rec("host_000002"), rec("host_000003"), rec("host_000002"),
	}}

	hasher := NewHasher()
	chans := make([]chan Record, n)
	sendOnly := make([]chan<- Record, n)
	for i := range chans {
		chans[i] = make(chan Record, len(reader.records))
		sendOnly[i] = chans[i]
	}

	d := NewDispatcher(reader, hasher, sendOnly)
	err := d.Run()
	assert.NoError(t, err)

	total := 0
	for id, ch := range chans {
		close(ch)
		for got := range ch {
			assert.Equal(t, id, WorkerFor(hasher, got.Host, n))
			total++
		}
	}
	assert.Equal(t, len(reader.records), total)
}

// TestDispatcherIteratorError is scenario 7: an iterator error mid-stream
// surfaces as *IteratorError carrying the 1-based record index.
func TestDispatcherIteratorError(t *testing.T) {
	reader := &sliceReader{
		records: []Record{rec("a"), rec("b"), rec("c"), rec("d")},
		failAt:  3,
		failErr: errors.New("malformed record"),
	}

	chans := make([]chan Record, 1)
	chans[0] = make(chan Record, 4)
	sendOnly := []chan<- Record{chans[0]}

	d := NewDispatcher(reader, NewHasher(), sendOnly)
	err := d.Run()

	var iterErr *IteratorError
	assert.ErrorAs(t, err, &iterErr)
	assert.Equal(t, 3, iterErr.Index)
}

// TestDispatcherEmptyInput is scenario 1.
func TestDispatcherEmptyInput(t *testing.T) {
	reader := &sliceReader{}
	chans := make([]chan Record, 4)
	sendOnly := make([]chan<- Record, 4)
	for i := range chans {
		chans[i] = make(chan Record, 1)
		sendOnly[i] = chans[i]
	}

	d := NewDispatcher(reader, NewHasher(), sendOnly)
	assert.NoError(t, d.Run())

	for _, ch := range chans {
		assert.Len(t, ch, 0)
	}
}
