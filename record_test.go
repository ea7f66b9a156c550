package qtool

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCSVRecordReader(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		input := `hostname,start_time,end_time
host_000008,2017-01-01 08:59:22,2017-01-01 09:59:22
host_000001,2017-01-02 13:02:02,2017-01-02 14:02:02`

		r := NewCSVRecordReader(strings.NewReader(input))

		rec, err := r.Next()
		assert.NoError(t, err)
		assert.Equal(t, "host_000008", string(rec.Host))
		assert.Equal(t, "2017-01-01 08:59:22", string(rec.StartTS))
		assert.Equal(t, "2017-01-01 09:59:22", string(rec.EndTS))

		rec, err = r.Next()
		assert.NoError(t, err)
		assert.Equal(t, "host_000001", string(rec.Host))

		_, err = r.Next()
		assert.Equal(t, io.EOF, err)
	})

	t.Run("malformed record errors", func(t *testing.T) {
		input := `hostname,start_time,end_time
host_000008,only_one_field`

		r := NewCSVRecordReader(strings.NewReader(input))
		_, err := r.Next()
		assert.Error(t, err)
	})

	t.Run("empty input is EOF after header read fails", func(t *testing.T) {
		r := NewCSVRecordReader(strings.NewReader(""))
		_, err := r.Next()
		assert.Equal(t, io.EOF, err)
	})
}

func TestRecordClone(t *testing.T) {
	r := Record{Host: []byte("h"), StartTS: []byte("s"), EndTS: []byte("e")}
	c := r.Clone()
	r.Host[0] = 'X'
	assert.Equal(t, "h", string(c.Host))
}
