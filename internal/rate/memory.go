package rate

import (
	"context"
	"fmt"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryLimiter es el mismo fixed window sobre go-cache. Solo sirve con una
// réplica; con varias, cada proceso cuenta por separado.
type MemoryLimiter struct {
	mu     sync.Mutex
	c      *gocache.Cache
	max    int64
	window time.Duration
	now    func() time.Time
}

func NewMemoryLimiter(rule Rule) *MemoryLimiter {
	return &MemoryLimiter{
		c:      gocache.New(rule.Window, time.Minute),
		max:    int64(rule.Max),
		window: rule.Window,
		now:    time.Now,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (Result, error) {
	now := l.now().UTC()
	winStart := now.Truncate(l.window)
	k := fmt.Sprintf("%s:%d", key, winStart.Unix())
	ttl := winStart.Add(l.window).Sub(now)

	l.mu.Lock()
	var hits int64 = 1
	if err := l.c.Add(k, int64(1), ttl); err != nil {
		n, incErr := l.c.IncrementInt64(k, 1)
		if incErr != nil {
			// expiró entre Add e Increment
			l.c.Set(k, int64(1), ttl)
			n = 1
		}
		hits = n
	}
	l.mu.Unlock()

	return buildResult(hits, l.max, ttl, l.window), nil
}
