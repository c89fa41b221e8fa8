package ratelimit

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestLimiter(rps float64, burst int) (*ClientLimiter, *time.Time) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewClientLimiter(&Config{RequestsPerSecond: rps, Burst: burst, IdleTTL: time.Minute})
	rl.now = func() time.Time { return now }
	return rl, &now
}

func TestClientLimiter_BurstThenRefill(t *testing.T) {
	rl, now := newTestLimiter(1, 2)
	defer rl.Close()

	ok, info := rl.Allow("a")
	assert.True(t, ok)
	assert.Equal(t, 1, info.Remaining)
	ok, _ = rl.Allow("a")
	assert.True(t, ok)

	ok, info = rl.Allow("a")
	assert.False(t, ok)
	assert.Equal(t, time.Second, info.RetryAfter)

	// a rejected request must not consume a token
	*now = now.Add(time.Second)
	ok, _ = rl.Allow("a")
	assert.True(t, ok)
}

func TestClientLimiter_ClientsAreIndependent(t *testing.T) {
	rl, _ := newTestLimiter(1, 1)
	defer rl.Close()

	ok, _ := rl.Allow("a")
	assert.True(t, ok)
	ok, _ = rl.Allow("a")
	assert.False(t, ok)
	ok, _ = rl.Allow("b")
	assert.True(t, ok)
}

func TestClientLimiter_CleanupDropsIdleClients(t *testing.T) {
	rl, now := newTestLimiter(1, 1)
	defer rl.Close()

	rl.Allow("a")
	*now = now.Add(30 * time.Second)
	rl.Allow("b")
	*now = now.Add(45 * time.Second)
	rl.cleanup()

	assert.Equal(t, 1, rl.Clients())
}

func TestGetClientIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "10.0.0.1:5555"
	assert.Equal(t, "10.0.0.1", GetClientIP(r))

	r.Header.Set("X-Real-IP", "10.0.0.2")
	assert.Equal(t, "10.0.0.2", GetClientIP(r))

	r.Header.Set("X-Forwarded-For", " 203.0.113.9 , 10.0.0.3")
	assert.Equal(t, "203.0.113.9", GetClientIP(r))
}
