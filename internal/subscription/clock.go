package subscription

import "sync/atomic"

// Clock stamps dispatched events with a strictly increasing sequence
// number. Deliveries carry the stamp of their event, so a consumer reading
// several subscriptions can restore the global dispatch order.
type Clock struct {
	seq atomic.Int64
}

// NewClockAt creates a clock whose first Next returns start+1. A consumer
// resuming a feed passes the last sequence number it saw.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last sequence number handed out.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
