package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLimiterRefillsAndSweeps(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	l := NewLimiter(1, 1, time.Minute)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))
	assert.True(t, l.Allow("b"))

	now = now.Add(time.Second)
	assert.True(t, l.Allow("a"))

	now = now.Add(2 * time.Minute)
	assert.True(t, l.Allow("c"))
	l.mu.Lock()
	_, kept := l.clients["a"]
	l.mu.Unlock()
	assert.False(t, kept)
}
