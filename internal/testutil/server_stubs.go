package testutil

import (
	"context"
	"net/http"
	"sync"

	"github.com/preston-bernstein/goalfeed-live/internal/poller"
)

// StubPoller stands in for the snapshot refresher in server tests.
type StubPoller struct {
	StartCalls int
	StopCalls  int
	Err        error
	StatusVal  poller.Status
	StartCtx   context.Context
}

func (p *StubPoller) Start(ctx context.Context) {
	p.StartCtx = ctx
	p.StartCalls++
}

func (p *StubPoller) Stop(context.Context) error {
	p.StopCalls++
	return p.Err
}

func (p *StubPoller) Status() poller.Status { return p.StatusVal }

// StubHTTPServer replaces the view server's listener in lifecycle tests.
// ListenAndServe returns ListenErr immediately. When Unblock is set, Shutdown
// waits for it or for ctx, whichever comes first.
type StubHTTPServer struct {
	AddrVal     string
	HandlerVal  http.Handler
	ListenErr   error
	ShutdownErr error
	Unblock     chan struct{}

	mu            sync.Mutex
	ListenCalls   int
	ShutdownCalls int
}

// NewClosedHTTPServer returns a stub whose ListenAndServe reports a clean close.
func NewClosedHTTPServer() *StubHTTPServer {
	return &StubHTTPServer{ListenErr: http.ErrServerClosed}
}

func (s *StubHTTPServer) ListenAndServe() error {
	s.mu.Lock()
	s.ListenCalls++
	s.mu.Unlock()
	return s.ListenErr
}

func (s *StubHTTPServer) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.ShutdownCalls++
	s.mu.Unlock()
	if s.Unblock != nil {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.Unblock:
		}
	}
	return s.ShutdownErr
}

func (s *StubHTTPServer) Addr() string {
	if s.AddrVal == "" {
		return ":0"
	}
	return s.AddrVal
}

func (s *StubHTTPServer) Handler() http.Handler {
	if s.HandlerVal == nil {
		return http.NotFoundHandler()
	}
	return s.HandlerVal
}
