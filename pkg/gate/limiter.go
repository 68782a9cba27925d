package gate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// AttemptLimiter counts failed PIN checks per subject inside a window.
type AttemptLimiter interface {
	Blocked(ctx context.Context, subject string) (bool, error)
	RecordFailure(ctx context.Context, subject string) error
	Reset(ctx context.Context, subject string) error
}

var failureScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return current
`)

// RedisAttemptLimiter shares attempt counters between processes.
type RedisAttemptLimiter struct {
	client redis.UniversalClient
	prefix string
	max    int
	window time.Duration
}

var _ AttemptLimiter = (*RedisAttemptLimiter)(nil)

// NewRedisAttemptLimiter blocks a subject after max failures within window.
func NewRedisAttemptLimiter(client redis.UniversalClient, prefix string, maxAttempts int, window time.Duration) *RedisAttemptLimiter {
	prefix = strings.TrimSuffix(strings.TrimSpace(prefix), ":")
	if prefix == "" {
		prefix = "moneymovement:pin_attempts"
	}
	return &RedisAttemptLimiter{client: client, prefix: prefix, max: maxAttempts, window: window}
}

func (l *RedisAttemptLimiter) key(subject string) string {
	return fmt.Sprintf("%s:%s", l.prefix, subject)
}

func (l *RedisAttemptLimiter) Blocked(ctx context.Context, subject string) (bool, error) {
	if l.max <= 0 {
		return false, nil
	}
	n, err := l.client.Get(ctx, l.key(subject)).Int()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read pin attempts: %w", err)
	}
	return n >= l.max, nil
}

func (l *RedisAttemptLimiter) RecordFailure(ctx context.Context, subject string) error {
	windowMs := l.window.Milliseconds()
	if windowMs < 1000 {
		windowMs = 1000
	}
	if err := failureScript.Run(ctx, l.client, []string{l.key(subject)}, windowMs).Err(); err != nil {
		return fmt.Errorf("failed to record pin attempt: %w", err)
	}
	return nil
}

func (l *RedisAttemptLimiter) Reset(ctx context.Context, subject string) error {
	if err := l.client.Del(ctx, l.key(subject)).Err(); err != nil {
		return fmt.Errorf("failed to reset pin attempts: %w", err)
	}
	return nil
}

// MemoryAttemptLimiter is the single-process fallback when Redis is not
// configured.
type MemoryAttemptLimiter struct {
	max    int
	window time.Duration
	now    func() time.Time

	mu       sync.Mutex
	counters map[string]*attempts
}

type attempts struct {
	count   int
	expires time.Time
}

var _ AttemptLimiter = (*MemoryAttemptLimiter)(nil)

func NewMemoryAttemptLimiter(maxAttempts int, window time.Duration) *MemoryAttemptLimiter {
	return &MemoryAttemptLimiter{
		max:      maxAttempts,
		window:   window,
		now:      time.Now,
		counters: make(map[string]*attempts),
	}
}

func (l *MemoryAttemptLimiter) current(subject string) *attempts {
	a, ok := l.counters[subject]
	if ok && !l.now().Before(a.expires) {
		delete(l.counters, subject)
		return nil
	}
	return a
}

func (l *MemoryAttemptLimiter) Blocked(_ context.Context, subject string) (bool, error) {
	if l.max <= 0 {
		return false, nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	a := l.current(subject)
	return a != nil && a.count >= l.max, nil
}

func (l *MemoryAttemptLimiter) RecordFailure(_ context.Context, subject string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	a := l.current(subject)
	if a == nil {
		a = &attempts{expires: l.now().Add(l.window)}
		l.counters[subject] = a
	}
	a.count++
	return nil
}

func (l *MemoryAttemptLimiter) Reset(_ context.Context, subject string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.counters, subject)
	return nil
}
