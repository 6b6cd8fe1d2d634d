package poller

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/preston-bernstein/goalfeed-live/internal/logging"
	"github.com/preston-bernstein/goalfeed-live/internal/metrics"
)

const defaultInterval = 30 * time.Second

// Refresher re-fetches a snapshot and applies it.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Poller periodically refreshes the games snapshot as a backstop to the
// live stream. The first refresh happens one interval after Start.
type Poller struct {
	refresher Refresher
	logger    *slog.Logger
	metrics   *metrics.Recorder
	interval  time.Duration
	clock     clockwork.Clock

	done     chan struct{}
	stopped  chan struct{}
	stopOnce sync.Once
	startMu  sync.Mutex
	started  bool

	statusMu sync.RWMutex
	status   Status
}

// Status describes the recent health of the refresh loop.
type Status struct {
	ConsecutiveFailures int       `json:"consecutiveFailures"`
	LastError           string    `json:"lastError,omitempty"`
	LastAttempt         time.Time `json:"lastAttempt"`
	LastSuccess         time.Time `json:"lastSuccess"`
}

// IsReady reports whether the poller has had a recent success and is not failing repeatedly.
func (s Status) IsReady() bool {
	if s.LastSuccess.IsZero() {
		return false
	}
	return s.ConsecutiveFailures < 3
}

// New constructs a Poller with sane defaults.
func New(refresher Refresher, logger *slog.Logger, recorder *metrics.Recorder, interval time.Duration) *Poller {
	return newWithClock(refresher, logger, recorder, interval, clockwork.NewRealClock())
}

func newWithClock(refresher Refresher, logger *slog.Logger, recorder *metrics.Recorder, interval time.Duration, clock clockwork.Clock) *Poller {
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Poller{
		refresher: refresher,
		logger:    logger,
		metrics:   recorder,
		interval:  interval,
		clock:     clock,
		done:      make(chan struct{}),
		stopped:   make(chan struct{}),
	}
}

// Start begins refreshing until the context is cancelled or Stop is called.
func (p *Poller) Start(ctx context.Context) {
	p.startMu.Lock()
	if p.started {
		p.startMu.Unlock()
		return
	}
	p.started = true
	p.startMu.Unlock()

	ticker := p.clock.NewTicker(p.interval)

	go func() {
		defer close(p.stopped)
		defer ticker.Stop()
		logging.Info(p.logger, "poller started", slog.Int64(logging.FieldDurationMS, p.interval.Milliseconds()))

		for {
			select {
			case <-ctx.Done():
				logging.Info(p.logger, "poller stopped")
				return
			case <-p.done:
				logging.Info(p.logger, "poller stopped")
				return
			case <-ticker.Chan():
				p.refreshOnce(ctx)
			}
		}
	}()
}

// Stop halts the loop and waits for an in-flight refresh to finish or ctx to end.
func (p *Poller) Stop(ctx context.Context) error {
	p.stopOnce.Do(func() {
		close(p.done)
	})

	p.startMu.Lock()
	started := p.started
	p.startMu.Unlock()
	if !started {
		return nil
	}

	select {
	case <-p.stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Poller) refreshOnce(ctx context.Context) {
	start := p.clock.Now()
	p.recordAttempt(start)
	err := p.refresher.Refresh(ctx)
	elapsed := p.clock.Since(start)
	p.metrics.RecordRefreshCycle(elapsed, err)
	if err != nil {
		logging.Error(p.logger, "poller refresh failed", err, logging.FieldDurationMS, elapsed.Milliseconds())
		p.recordFailure(err, start)
		return
	}

	p.recordSuccess(start)
	logging.Debug(p.logger, "poller refreshed games", logging.FieldDurationMS, elapsed.Milliseconds())
}

func (p *Poller) recordAttempt(at time.Time) {
	p.statusMu.Lock()
	defer p.statusMu.Unlock()
	p.status.LastAttempt = at
}

func (p *Poller) recordSuccess(at time.Time) {
	p.statusMu.Lock()
	defer p.statusMu.Unlock()
	p.status.ConsecutiveFailures = 0
	p.status.LastError = ""
	p.status.LastSuccess = at
}

func (p *Poller) recordFailure(err error, at time.Time) {
	p.statusMu.Lock()
	defer p.statusMu.Unlock()
	p.status.ConsecutiveFailures++
	if err != nil {
		p.status.LastError = err.Error()
	}
	p.status.LastAttempt = at
}

// Status returns a snapshot of the poller's recent health.
func (p *Poller) Status() Status {
	p.statusMu.RLock()
	defer p.statusMu.RUnlock()
	return p.status
}
