package qtool_test

import (
	"errors"
	"io"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"

	qtool "github.com/timescale/qtool"
	"github.com/timescale/qtool/test/mocks/mock_qtool"
)

// TestDispatcherWithMockReader exercises Dispatcher against a gomock-backed
// RecordReader, a stand-in for any RecordReader implementation the dispatch
// logic itself has no business knowing about.
func TestDispatcherWithMockReader(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	reader := mock_qtool.NewMockRecordReader(ctrl)
	gomock.InOrder(
		reader.EXPECT().Next().Return(qtool.Record{Host: []byte("host_000001")}, nil),
		reader.EXPECT().Next().Return(qtool.Record{Host: []byte("host_000002")}, nil),
		reader.EXPECT().Next().Return(qtool.Record{}, io.EOF),
	)

	const n = 2
	chans := make([]chan qtool.Record, n)
	sendOnly := make([]chan<- qtool.Record, n)
	for i := range chans {
		chans[i] = make(chan qtool.Record, 2)
		sendOnly[i] = chans[i]
	}

	hasher := qtool.NewHasher()
	d := qtool.NewDispatcher(reader, hasher, sendOnly)
	assert.NoError(t, d.Run())

	total := 0
	for _, ch := range chans {
		close(ch)
		for range ch {
			total++
		}
	}
	assert.Equal(t, 2, total)
}

// TestDispatcherWithMockReaderIteratorError confirms a mid-stream error from
// any RecordReader implementation surfaces as *IteratorError, not just the
// CSV-backed one.
func TestDispatcherWithMockReaderIteratorError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	reader := mock_qtool.NewMockRecordReader(ctrl)
	gomock.InOrder(
		reader.EXPECT().Next().Return(qtool.Record{Host: []byte("a")}, nil),
		reader.EXPECT().Next().Return(qtool.Record{}, errors.New("truncated record")),
	)

	chans := make([]chan qtool.Record, 1)
	chans[0] = make(chan qtool.Record, 1)
	sendOnly := []chan<- qtool.Record{chans[0]}

	d := qtool.NewDispatcher(reader, qtool.NewHasher(), sendOnly)
	err := d.Run()

	var iterErr *qtool.IteratorError
	assert.ErrorAs(t, err, &iterErr)
	assert.Equal(t, 2, iterErr.Index)
}
