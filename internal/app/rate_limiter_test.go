package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestChatRateLimiter_SlidingWindow(t *testing.T) {
	req := require.New(t)
	now := time.Unix(1000, 0)
	rl := NewChatRateLimiter(2, time.Second)
	rl.now = func() time.Time { return now }

	req.True(rl.Allow("p1"))
	req.True(rl.Allow("p1"))
	req.False(rl.Allow("p1"))
	// other participants have their own window
	req.True(rl.Allow("p2"))

	now = now.Add(1100 * time.Millisecond)
	req.True(rl.Allow("p1"))

	rl.Forget("p1")
	req.True(rl.Allow("p1"))
}

func TestChatRateLimiter_DisabledWhenNilOrZero(t *testing.T) {
	req := require.New(t)
	var rl *ChatRateLimiter
	req.True(rl.Allow("p1"))
	req.True(NewChatRateLimiter(0, time.Second).Allow("p1"))
}
