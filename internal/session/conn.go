package session

import "time"

// ConnState implements flap detection over the reconnect loop. Isolated
// transient errors are recoverable noise; a cluster of them inside
// ErrorSpan means the network is genuinely unstable and the session
// should stop retrying.
type ConnState struct {
	ErrorCount  int
	LastErrorAt time.Time
}

// Record notes a transient error at the given instant and reports
// whether the session should give up. An error more than ErrorSpan
// after the previous one restarts the count; errors inside the window
// accumulate until the count exceeds MaxErrors.
func (c *ConnState) Record(now time.Time) (giveUp bool) {
	if c.LastErrorAt.IsZero() || now.Sub(c.LastErrorAt) >= ErrorSpan {
		c.ErrorCount = 1
	} else {
		c.ErrorCount++
	}
	c.LastErrorAt = now
	return c.ErrorCount > MaxErrors
}

// Reset clears the state after an error-free reconnection.
func (c *ConnState) Reset() {
	c.ErrorCount = 0
	c.LastErrorAt = time.Time{}
}
