package hexstream

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// MonotonicClock wraps a clock so Now never reports the same millisecond
// twice. A Cipher on a MonotonicClock gives every Seal a distinct nonce even
// when calls land inside one millisecond; nonces may then run ahead of the
// wall clock by one millisecond per collision.
type MonotonicClock struct {
	clock.Clock

	mu   sync.Mutex
	last int64
}

func NewMonotonicClock(c clock.Clock) *MonotonicClock {
	if c == nil {
		c = clock.New()
	}
	return &MonotonicClock{Clock: c}
}

func (m *MonotonicClock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	ms := m.Clock.Now().UnixMilli()
	if ms <= m.last {
		ms = m.last + 1
	}
	m.last = ms
	return time.UnixMilli(ms)
}
