package qtool

import "time"

// Clock is a source of monotonic millisecond timestamps. Required to be
// monotonic non-decreasing so that elapsed = end - start never goes negative,
// even across wall-clock adjustments.
type Clock interface {
	NowMs() int64
}

// systemClock anchors every reading to the monotonic clock embedded in
// start; time.Since(start) subtracts the monotonic readings of both
// operands, so the result can never go backwards even if the wall clock
// is stepped by NTP in between. Converting to a bare int64 of millis (as
// UnixMilli would) discards that guarantee, which is why every reading
// here is derived from one fixed, never-converted start time.Time.
type systemClock struct {
	start time.Time
}

// NewClock returns the default Clock backed by the runtime's monotonic timer.
func NewClock() Clock {
	return &systemClock{start: time.Now()}
}

func (c *systemClock) NowMs() int64 {
	return time.Since(c.start).Milliseconds()
}
