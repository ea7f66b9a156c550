package qtool

import (
	"encoding/csv"
	"io"
)

// Record is one line of query parameters: host, start_ts, end_ts. Fields
// are owned by the caller and are only guaranteed valid until the next
// call to RecordReader.Next; the dispatcher therefore hands each worker a
// Clone, so a worker's bind and step never read a buffer the reader may
// reuse (I4).
type Record struct {
	Host    []byte
	StartTS []byte
	EndTS   []byte
}

// Clone returns a Record whose fields are independent copies, safe to hold
// onto past the next Next call. The Dispatcher uses it to hand a record
// across the channel boundary without racing its own next read.
func (r Record) Clone() Record {
	return Record{
		Host:    append([]byte(nil), r.Host...),
		StartTS: append([]byte(nil), r.StartTS...),
		EndTS:   append([]byte(nil), r.EndTS...),
	}
}

// RecordReader is the out-of-scope parser collaborator (spec.md §1/§6): an
// iterator over query-parameter records. Next returns io.EOF when the
// source is exhausted cleanly, and any other error is a fatal, mid-stream
// iterator error (spec.md §7).
type RecordReader interface {
	Next() (Record, error)
}

// csvRecordReader adapts a delimited text source (host,start_ts,end_ts per
// line, with a header row) to RecordReader. This mirrors the teacher's
// cpuTestGenerator, generalized from a *Query producer to a bare Record
// iterator since hashing and dispatch now live in the core, not the parser.
type csvRecordReader struct {
	reader     *csv.Reader
	headerRead bool
}

// NewCSVRecordReader builds a RecordReader over r, a CSV source whose first
// line is a header (hostname,start_time,end_time) to be skipped.
func NewCSVRecordReader(r io.Reader) RecordReader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 3
	return &csvRecordReader{reader: cr}
}

func (g *csvRecordReader) Next() (Record, error) {
	if !g.headerRead {
		if _, err := g.reader.Read(); err != nil {
			return Record{}, err
		}
		g.headerRead = true
	}

	fields, err := g.reader.Read()
	if err != nil {
		return Record{}, err
	}

	return Record{
		Host:    []byte(fields[0]),
		StartTS: []byte(fields[1]),
		EndTS:   []byte(fields[2]),
	}, nil
}
