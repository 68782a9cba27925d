package views

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/chris/money-movement/pkg/bus"
	"go.uber.org/zap"
)

var (
	// ErrClosed is returned by Refresh on a closed view.
	ErrClosed = errors.New("view is closed")
	// ErrSuperseded is returned by Refresh when a newer refresh started
	// while this one was in flight; its result was dropped.
	ErrSuperseded = errors.New("refresh superseded by a newer one")
)

// projection holds the last fetched value of one remote resource. Every
// refresh takes a new generation number and only the newest generation may
// store its result.
type projection[T any] struct {
	name   string
	fetch  func(ctx context.Context) (T, error)
	logger *zap.Logger
	now    func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	sub    *bus.Subscription
	wg     sync.WaitGroup

	mu        sync.Mutex
	gen       uint64
	closed    bool
	value     T
	loaded    bool
	updatedAt time.Time
}

func newProjection[T any](ctx context.Context, name string, fetch func(context.Context) (T, error), logger *zap.Logger) *projection[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &projection[T]{
		name:   name,
		fetch:  fetch,
		logger: logger.Named(name),
		now:    time.Now,
	}
	p.ctx, p.cancel = context.WithCancel(ctx)
	return p
}

func (p *projection[T]) subscribe(subscriber bus.Subscriber, topics []bus.Topic) error {
	sub, err := subscriber.Subscribe(p.onCue, topics...)
	if err != nil {
		return err
	}
	p.sub = sub
	return nil
}

// onCue runs inside bus dispatch, so the fetch is handed to a goroutine.
func (p *projection[T]) onCue(topic bus.Topic) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.wg.Add(1)
	p.mu.Unlock()

	go func() {
		defer p.wg.Done()
		if _, err := p.refresh(p.ctx); err != nil && !errors.Is(err, ErrSuperseded) && !errors.Is(err, ErrClosed) {
			p.logger.Warn("refresh after cue failed", zap.String("topic", string(topic)), zap.Error(err))
		}
	}()
}

func (p *projection[T]) refresh(ctx context.Context) (T, error) {
	var zero T
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return zero, ErrClosed
	}
	p.gen++
	gen := p.gen
	p.mu.Unlock()

	value, err := p.fetch(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()
	switch {
	case p.closed:
		p.logger.Debug("dropping response for closed view", zap.Uint64("generation", gen))
		return zero, ErrClosed
	case gen != p.gen:
		p.logger.Debug("dropping stale response", zap.Uint64("generation", gen), zap.Uint64("current", p.gen))
		return zero, ErrSuperseded
	case err != nil:
		return zero, err
	}
	p.value = value
	p.loaded = true
	p.updatedAt = p.now()
	return value, nil
}

func (p *projection[T]) snapshot() (T, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.value, p.loaded
}

func (p *projection[T]) generation() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.gen
}

func (p *projection[T]) close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	if p.sub != nil {
		p.sub.Unsubscribe()
	}
	p.cancel()
	p.wg.Wait()
}
