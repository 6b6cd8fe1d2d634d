package stream

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"github.com/preston-bernstein/goalfeed-live/internal/logging"
	"github.com/preston-bernstein/goalfeed-live/internal/metrics"
)

const (
	closeGrace   = time.Second
	writeTimeout = 5 * time.Second
)

// ErrStopped is returned by Start when its context has already ended.
var ErrStopped = errors.New("stream: manager stopped")

// Dialer opens a websocket connection. *websocket.Dialer satisfies it.
type Dialer interface {
	DialContext(ctx context.Context, urlStr string, requestHeader http.Header) (*websocket.Conn, *http.Response, error)
}

// Config configures a Manager. URL is required; everything else has a default.
type Config struct {
	URL    string
	Policy Policy
	// PongWait bounds silence on an open connection. Pings, read deadlines
	// and the close handshake run on wall time because socket deadlines do.
	PongWait time.Duration
	Dialer   Dialer
	// Clock schedules reconnects and stamps ConnectedAt.
	Clock   clockwork.Clock
	Logger  *slog.Logger
	Metrics *metrics.Recorder
}

// Manager owns the single live connection to the backend stream. It decodes
// inbound frames, fans them out to subscribers and reconnects after abnormal
// closes within the retry budget of its Policy.
type Manager struct {
	url      string
	dialer   Dialer
	policy   Policy
	pongWait time.Duration
	clock    clockwork.Clock
	logger   *slog.Logger
	metrics  *metrics.Recorder

	bus bus

	mu          sync.Mutex
	state       State
	attempts    int
	exhausted   bool
	sessionID   string
	lastErr     string
	connectedAt time.Time
	backoff     backoff.BackOff
	timer       clockwork.Timer
	cancel      context.CancelFunc
	done        chan struct{}
}

// NewManager builds an idle Manager. Nothing is dialled until Start.
func NewManager(cfg Config) *Manager {
	if cfg.Dialer == nil {
		cfg.Dialer = websocket.DefaultDialer
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	policy := cfg.Policy.normalized()
	return &Manager{
		url:      cfg.URL,
		dialer:   cfg.Dialer,
		policy:   policy,
		pongWait: cfg.PongWait,
		clock:    cfg.Clock,
		logger:   cfg.Logger.With(slog.String(logging.FieldURL, cfg.URL)),
		metrics:  cfg.Metrics,
		state:    StateIdle,
		backoff:  policy.newBackOff(),
	}
}

// Subscribe registers fn for every decoded message. Messages are delivered
// synchronously, in arrival order. The returned func unsubscribes.
func (m *Manager) Subscribe(fn func(Message)) func() {
	return m.bus.subscribe(fn)
}

// OnState registers fn for lifecycle transitions.
func (m *Manager) OnState(fn func(State)) func() {
	return m.bus.onState(fn)
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Status returns a snapshot of the connection.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Status{
		State:       m.state,
		Attempts:    m.attempts,
		SessionID:   m.sessionID,
		LastError:   m.lastErr,
		ConnectedAt: m.connectedAt,
		Exhausted:   m.exhausted,
	}
}

// Start begins connecting in the background. It is a no-op while a
// connection is pending or open. Starting a closed manager begins a fresh
// cycle with a full retry budget. Cancelling ctx tears the connection down
// the same way Stop does.
func (m *Manager) Start(ctx context.Context) error {
	if m.url == "" {
		return errors.New("stream: no URL configured")
	}
	if ctx.Err() != nil {
		return ErrStopped
	}

	m.mu.Lock()
	if m.done != nil {
		m.mu.Unlock()
		return nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	m.cancel = cancel
	m.done = done
	m.attempts = 0
	m.exhausted = false
	m.lastErr = ""
	m.backoff.Reset()
	m.mu.Unlock()

	go m.run(runCtx, done)
	return nil
}

// Stop cancels any pending reconnect, closes the transport with a normal
// close and waits for the connection loop to exit or ctx to expire.
func (m *Manager) Stop(ctx context.Context) error {
	m.mu.Lock()
	cancel, done := m.cancel, m.done
	if done == nil {
		m.mu.Unlock()
		return nil
	}
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	m.mu.Unlock()

	if m.State() == StateOpen {
		m.setState(StateClosing)
	}
	cancel()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) run(ctx context.Context, done chan struct{}) {
	defer func() {
		m.setState(StateClosed)
		m.mu.Lock()
		if m.cancel != nil {
			m.cancel()
		}
		m.cancel = nil
		m.done = nil
		m.mu.Unlock()
		close(done)
	}()

	m.setState(StateConnecting)
	for {
		code, err := m.session(ctx)
		if ctx.Err() != nil {
			logging.Info(m.logger, "stream stopped")
			return
		}
		if err != nil {
			m.recordError(err)
		}
		if code == websocket.CloseNormalClosure {
			logging.Info(m.logger, "stream closed normally", logging.FieldCloseCode, code)
			return
		}

		delay, attempt, ok := m.nextDelay()
		if !ok {
			logging.Warn(m.logger, "stream reconnect budget exhausted",
				logging.FieldAttempt, attempt,
				logging.FieldCloseCode, code,
			)
			return
		}

		logging.Info(m.logger, "stream reconnect scheduled",
			logging.FieldAttempt, attempt,
			logging.FieldDelayMS, delay.Milliseconds(),
			logging.FieldCloseCode, code,
		)
		m.metrics.RecordReconnect(attempt, delay)
		m.setState(StateConnecting)

		if !m.wait(ctx, delay) {
			logging.Info(m.logger, "stream stopped")
			return
		}
	}
}

// session dials once and reads until the transport closes. It returns the
// close code: the peer's code for a clean close handshake, 1006 otherwise.
func (m *Manager) session(ctx context.Context) (int, error) {
	conn, _, err := m.dialer.DialContext(ctx, m.url, nil)
	if err != nil {
		return websocket.CloseAbnormalClosure, fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	sessionID := uuid.NewString()
	m.mu.Lock()
	m.attempts = 0
	m.exhausted = false
	m.sessionID = sessionID
	m.connectedAt = m.clock.Now()
	m.lastErr = ""
	m.backoff.Reset()
	m.mu.Unlock()

	log := m.logger.With(slog.String(logging.FieldSession, sessionID))
	logging.Info(log, "stream connected")
	m.setState(StateOpen)

	sessionDone := make(chan struct{})
	defer close(sessionDone)
	go m.closeOnCancel(ctx, conn, sessionDone)
	if m.pongWait > 0 {
		go m.keepAlive(conn, sessionDone)
	}

	return m.readLoop(conn, log)
}

func (m *Manager) readLoop(conn *websocket.Conn, log *slog.Logger) (int, error) {
	m.extendDeadline(conn)
	conn.SetPongHandler(func(string) error {
		m.extendDeadline(conn)
		return nil
	})

	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) {
				if closeErr.Code == websocket.CloseNormalClosure {
					return closeErr.Code, nil
				}
				return closeErr.Code, fmt.Errorf("read: %w", err)
			}
			return websocket.CloseAbnormalClosure, fmt.Errorf("read: %w", err)
		}
		m.extendDeadline(conn)

		msg, err := Decode(frame)
		if err != nil {
			m.metrics.RecordDecodeFailure()
			logging.Warn(log, "dropping undecodable frame", "err", err)
			continue
		}
		m.metrics.RecordFrame(frameLabel(msg.Type))
		logging.Debug(log, "stream message", logging.FieldKind, string(msg.Type))
		m.bus.publish(msg)
	}
}

func (m *Manager) extendDeadline(conn *websocket.Conn) {
	if m.pongWait <= 0 {
		return
	}
	_ = conn.SetReadDeadline(time.Now().Add(m.pongWait))
}

// keepAlive pings at 9/10 of the pong wait so an idle but healthy
// connection keeps extending its read deadline.
func (m *Manager) keepAlive(conn *websocket.Conn, sessionDone <-chan struct{}) {
	ticker := time.NewTicker(m.pongWait * 9 / 10)
	defer ticker.Stop()
	for {
		select {
		case <-sessionDone:
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				logging.Debug(m.logger, "stream ping failed", "err", err)
				return
			}
		}
	}
}

// closeOnCancel sends a normal close when ctx ends and forces the transport
// shut if the peer does not complete the handshake in time.
func (m *Manager) closeOnCancel(ctx context.Context, conn *websocket.Conn, sessionDone <-chan struct{}) {
	select {
	case <-sessionDone:
		return
	case <-ctx.Done():
	}

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "client closing")
	if err := conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeTimeout)); err != nil {
		_ = conn.Close()
		return
	}

	select {
	case <-sessionDone:
	case <-time.After(closeGrace):
		_ = conn.Close()
	}
}

func (m *Manager) nextDelay() (time.Duration, int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delay := m.backoff.NextBackOff()
	if delay == backoff.Stop {
		m.exhausted = true
		return 0, m.attempts, false
	}
	m.attempts++
	return delay, m.attempts, true
}

// wait blocks for delay on the manager clock. It returns false if ctx ends first.
func (m *Manager) wait(ctx context.Context, delay time.Duration) bool {
	m.mu.Lock()
	timer := m.clock.NewTimer(delay)
	m.timer = timer
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		if m.timer == timer {
			m.timer = nil
		}
		m.mu.Unlock()
		timer.Stop()
	}()

	select {
	case <-ctx.Done():
		return false
	case <-timer.Chan():
		return true
	}
}

func (m *Manager) recordError(err error) {
	m.mu.Lock()
	m.lastErr = err.Error()
	m.mu.Unlock()
	logging.Warn(m.logger, "stream connection lost", "err", err)
}

func (m *Manager) setState(state State) {
	m.mu.Lock()
	if m.state == state {
		m.mu.Unlock()
		return
	}
	m.state = state
	m.mu.Unlock()

	m.metrics.RecordStreamState(state.String())
	logging.Debug(m.logger, "stream state", logging.FieldState, state.String())
	m.bus.publishState(state)
}

// frameLabel keeps the frame metric's kind label bounded to known kinds.
func frameLabel(kind Kind) string {
	if !kind.Known() {
		return "unknown"
	}
	return string(kind.Canonical())
}
