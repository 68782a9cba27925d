package swap

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chris/money-movement/pkg/api"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultPollInterval is how often the exchange rate is refreshed while a
// composer is open.
const DefaultPollInterval = 30 * time.Second

var (
	ErrPollerStarted = errors.New("rate poller already started")
	ErrPollerClosed  = errors.New("rate poller is closed")
)

// RateSource fetches the current USD per BTC rate.
type RateSource interface {
	GetExchangeRate(ctx context.Context) (*api.ExchangeRateResponse, error)
}

// Ticker is the part of time.Ticker the poller needs.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct{ *time.Ticker }

func (t timeTicker) C() <-chan time.Time { return t.Ticker.C }

func newTimeTicker(d time.Duration) Ticker { return timeTicker{time.NewTicker(d)} }

// Rate is an exchange-rate quote.
type Rate struct {
	Value     decimal.Decimal `json:"exchange_rate"`
	FetchedAt time.Time       `json:"fetched_at"`
}

// RatePoller fetches the rate once when started and then on every tick.
// Fetches run one at a time on a single goroutine, so they never overlap;
// a tick that arrives during a fetch is skipped. Results that come back
// after Close are dropped.
type RatePoller struct {
	source    RateSource
	interval  time.Duration
	logger    *zap.Logger
	newTicker func(time.Duration) Ticker
	now       func() time.Time

	mu      sync.Mutex
	latest  *Rate
	lastErr error
	started bool
	closed  bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewRatePoller creates a poller. A non-positive interval uses
// DefaultPollInterval.
func NewRatePoller(source RateSource, interval time.Duration, logger *zap.Logger) *RatePoller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RatePoller{
		source:    source,
		interval:  interval,
		logger:    logger.Named("rate_poller"),
		newTicker: newTimeTicker,
		now:       time.Now,
	}
}

// Start begins polling. The poller stops when ctx is done or Close is called.
func (p *RatePoller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch {
	case p.closed:
		return ErrPollerClosed
	case p.started:
		return ErrPollerStarted
	}
	p.started = true

	ctx, p.cancel = context.WithCancel(ctx)
	p.done = make(chan struct{})
	ticker := p.newTicker(p.interval)
	go p.run(ctx, ticker)
	return nil
}

func (p *RatePoller) run(ctx context.Context, ticker Ticker) {
	defer close(p.done)
	defer ticker.Stop()

	p.fetch(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			p.fetch(ctx)
		}
	}
}

func (p *RatePoller) fetch(ctx context.Context) {
	resp, err := p.source.GetExchangeRate(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		p.logger.Debug("dropping exchange rate received after close")
		return
	}
	if err != nil {
		p.lastErr = err
		p.logger.Warn("failed to fetch exchange rate", zap.Error(err))
		return
	}
	if !resp.ExchangeRate.IsPositive() {
		p.lastErr = fmt.Errorf("invalid exchange rate %s", resp.ExchangeRate)
		p.logger.Warn("ignoring non-positive exchange rate", zap.String("rate", resp.ExchangeRate.String()))
		return
	}
	p.lastErr = nil
	p.latest = &Rate{Value: resp.ExchangeRate, FetchedAt: p.now()}
}

// Latest returns the most recent rate, if any fetch has succeeded.
func (p *RatePoller) Latest() (Rate, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.latest == nil {
		return Rate{}, false
	}
	return *p.latest, true
}

// Err returns the error of the last fetch, or nil if it succeeded.
func (p *RatePoller) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastErr
}

// Close stops polling and waits for the polling goroutine to exit. It is
// safe to call more than once.
func (p *RatePoller) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	cancel, done := p.cancel, p.done
	p.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}
