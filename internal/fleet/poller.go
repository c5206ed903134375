package fleet

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	fderrors "github.com/rileyhilliard/fleetdash/internal/errors"
	"github.com/rileyhilliard/fleetdash/internal/logger"
	"github.com/rileyhilliard/fleetdash/internal/telemetry"
)

// Default timings, overridden from config.
const (
	DefaultPollInterval = 30 * time.Second
	DefaultTimeout      = 15 * time.Second
	DefaultStaleAfter   = 120 * time.Second
)

// ErrRefreshInFlight is returned by Refresh while another refresh is running.
// The call is dropped, not queued.
var ErrRefreshInFlight = errors.New("fleet refresh already in progress")

// Source fetches the current agent list from the Fleet API.
type Source interface {
	FetchAgents(ctx context.Context) ([]AgentSnapshot, error)
}

// Observer is called after each successful replacement of the fleet.
type Observer func(prev, next Fleet)

// Poller keeps the latest fleet snapshot. Each successful fetch replaces the
// previous fleet entirely; failed fetches leave it untouched.
type Poller struct {
	source   Source
	interval time.Duration
	timeout  time.Duration
	log      logger.Logger
	now      func() time.Time

	current  atomic.Pointer[Fleet]
	inFlight atomic.Bool

	mu        sync.Mutex
	lastErr   error
	observers []Observer
}

// PollerOption configures a Poller.
type PollerOption func(*Poller)

// WithInterval sets the time between refreshes in Run.
func WithInterval(d time.Duration) PollerOption {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithTimeout bounds each fetch.
func WithTimeout(d time.Duration) PollerOption {
	return func(p *Poller) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) PollerOption {
	return func(p *Poller) {
		p.log = logger.OrDefault(l)
	}
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) PollerOption {
	return func(p *Poller) {
		p.now = now
	}
}

// NewPoller creates a poller over source. The fleet starts empty.
func NewPoller(source Source, opts ...PollerOption) *Poller {
	p := &Poller{
		source:   source,
		interval: DefaultPollInterval,
		timeout:  DefaultTimeout,
		log:      logger.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.current.Store(&Fleet{})
	return p
}

// Interval returns the configured refresh interval.
func (p *Poller) Interval() time.Duration {
	return p.interval
}

// Fleet returns the most recent fleet. The Agents slice is a copy.
func (p *Poller) Fleet() Fleet {
	return p.current.Load().clone()
}

// LastError returns the error from the most recent refresh, or nil if it succeeded.
func (p *Poller) LastError() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastErr
}

// OnRefresh registers fn to run after every successful replacement.
// Observers run synchronously on the refreshing goroutine, in registration order.
func (p *Poller) OnRefresh(fn Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, fn)
}

// Refresh fetches the agent list once and replaces the fleet on success.
// On failure the previous fleet is kept and returned alongside the error.
func (p *Poller) Refresh(ctx context.Context) (Fleet, error) {
	if !p.inFlight.CompareAndSwap(false, true) {
		telemetry.ObservePollSkipped()
		return p.Fleet(), ErrRefreshInFlight
	}
	defer p.inFlight.Store(false)

	fetchCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	agents, err := p.source.FetchAgents(fetchCtx)
	telemetry.ObservePoll(err)
	if err != nil {
		wrapped := fderrors.OperationFailed("fetch fleet", err)
		p.mu.Lock()
		p.lastErr = wrapped
		p.mu.Unlock()
		p.log.Warn("fleet refresh failed, keeping %d agents: %v", p.current.Load().Len(), err)
		return p.Fleet(), wrapped
	}

	next := &Fleet{
		Agents:    append([]AgentSnapshot(nil), agents...),
		FetchedAt: p.now(),
	}
	prev := p.current.Swap(next)

	online, offline := next.Counts()
	telemetry.SetAgents(online, offline)

	p.mu.Lock()
	p.lastErr = nil
	observers := append([]Observer(nil), p.observers...)
	p.mu.Unlock()

	p.log.Debug("fleet refreshed: %d online, %d offline", online, offline)

	for _, fn := range observers {
		fn(prev.clone(), next.clone())
	}
	return next.clone(), nil
}

// Run refreshes immediately and then on every interval until ctx is cancelled.
// Ticks stay on the interval grid; a tick that fires while a refresh is still
// running is skipped, not queued. Run returns only after the loop has exited.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.refreshQuietly(ctx)
	skipMissedTick(ticker, p.log)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.refreshQuietly(ctx)
			skipMissedTick(ticker, p.log)
		}
	}
}

// skipMissedTick drops a tick that came due during the last refresh.
func skipMissedTick(ticker *time.Ticker, log logger.Logger) {
	select {
	case <-ticker.C:
		log.Debug("fleet tick skipped: refresh in flight")
	default:
	}
}

func (p *Poller) refreshQuietly(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if _, err := p.Refresh(ctx); errors.Is(err, ErrRefreshInFlight) {
		p.log.Debug("fleet tick skipped: refresh in flight")
	}
}
