package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/preston-bernstein/goalfeed-live/internal/config"
	"github.com/preston-bernstein/goalfeed-live/internal/metrics"
	"github.com/preston-bernstein/goalfeed-live/internal/reconciler"
	"github.com/preston-bernstein/goalfeed-live/internal/stream"
	"github.com/preston-bernstein/goalfeed-live/internal/teststubs"
	"github.com/preston-bernstein/goalfeed-live/internal/testutil"
)

const waitTimeout = 2 * time.Second

func writeEnvelope(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "data": data})
}

// newFakeBackend serves the snapshot endpoints and a /ws stream that sends
// frames once, then waits for the client to close.
func newFakeBackend(t *testing.T, frames ...string) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/games", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, testutil.SampleGames("g1", "g2"))
	})
	mux.HandleFunc("/api/leagues", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, testutil.SampleLeagues())
	})
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		if err := testutil.WriteText(conn, frames...); err != nil {
			return
		}
		testutil.DrainUntilClose(conn)
	})
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func eventFrame(t *testing.T, id string) string {
	t.Helper()
	msg, err := stream.NewMessage(stream.KindEvent, testutil.SampleEvent(id))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	raw, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return string(raw)
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(waitTimeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestServerSyncsWithBackend(t *testing.T) {
	backend := newFakeBackend(t, eventFrame(t, "e1"))

	cfg := config.Config{
		BackendURL: backend.URL,
		Port:       "0",
		Stream: config.StreamConfig{
			Endpoint:    "/ws",
			MaxAttempts: 5,
			BaseDelay:   time.Second,
			MaxDelay:    10 * time.Second,
		},
		CORSOrigins: []string{"*"},
	}
	srv := newServerWithMetrics(cfg, nil, metrics.NewRecorder())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		srv.Run(ctx, cancel)
		close(done)
	}()

	state := srv.State()
	waitFor(t, "initial load", state.Ready)
	waitFor(t, "stream event", func() bool { return len(state.Events()) == 1 })
	waitFor(t, "connected flag", func() bool { return state.Status().Connected })

	if got := state.Games(); len(got) != 2 || got[0].GameCode != "g1" {
		t.Fatalf("unexpected games %+v", got)
	}
	if got := state.Leagues(); len(got) != 4 {
		t.Fatalf("expected 4 leagues, got %d", len(got))
	}

	rr := testutil.Serve(srv.Handler(), http.MethodGet, "/ready", nil)
	testutil.AssertStatus(t, rr, http.StatusOK)

	rr = testutil.Serve(srv.Handler(), http.MethodGet, "/state/status", nil)
	testutil.AssertStatus(t, rr, http.StatusOK)
	var status struct {
		Stream struct {
			State string `json:"state"`
		} `json:"stream"`
	}
	testutil.DecodeData(t, rr, &status)
	if status.Stream.State != "open" {
		t.Fatalf("expected open stream in status, got %q", status.Stream.State)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(waitTimeout):
		t.Fatal("run did not return after cancel")
	}
	if state.Status().Connected {
		t.Fatalf("expected disconnected after shutdown")
	}
	if len(state.Games()) != 2 {
		t.Fatalf("expected data retained after disconnect")
	}
}

func TestServerHandlerAppliesCORS(t *testing.T) {
	cfg := config.Config{BackendURL: "http://localhost:1", Port: "0", CORSOrigins: []string{"http://dash.test"}}
	srv := newServerWithMetrics(cfg, nil, metrics.NewRecorder())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://dash.test")
	rr := testutil.ServeRequest(srv.Handler(), req)

	testutil.AssertStatus(t, rr, http.StatusOK)
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "http://dash.test" {
		t.Fatalf("expected cors header, got %q", got)
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Fatalf("expected request id header from logging middleware")
	}
}

func TestNewConstructsServer(t *testing.T) {
	cfg := config.Config{
		Port:    "0",
		Metrics: config.MetricsConfig{Enabled: false},
	}
	srv := New(cfg, nil)
	if srv == nil || srv.Handler() == nil {
		t.Fatalf("expected server with handler")
	}
	if srv.poller != nil {
		t.Fatalf("expected periodic refresh disabled by default")
	}
}

func TestNewEnablesPollerWithInterval(t *testing.T) {
	cfg := config.Config{Port: "0", RefreshInterval: time.Minute}
	srv := newServerWithMetrics(cfg, nil, metrics.NewRecorder())
	if srv.poller == nil {
		t.Fatalf("expected poller when refresh interval set")
	}
}

func TestNewWithUnresolvableStreamURL(t *testing.T) {
	cfg := config.Config{BackendURL: "not a url", Port: "0"}
	srv := newServerWithMetrics(cfg, nil, metrics.NewRecorder())

	srv.startStream(context.Background())
	if st := srv.stream.Status(); st.State != stream.StateIdle {
		t.Fatalf("expected stream left idle, got %s", st.State)
	}
}

func TestBoundStreamFeedsState(t *testing.T) {
	state := reconciler.New(&teststubs.StubBackend{}, 0, nil)
	src := &stubStream{}
	srv := newServerWithDeps(config.Config{}, nil, state, src, &testutil.StubHTTPServer{}, nil)

	msg, err := stream.NewMessage(stream.KindGameUpdate, testutil.SampleGame("g1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	src.emit(msg)
	src.emitState(stream.StateOpen)

	if _, ok := state.Game("g1"); !ok {
		t.Fatalf("expected streamed game applied")
	}
	if !state.Status().Connected {
		t.Fatalf("expected connected after open")
	}

	srv.gracefulShutdown()

	msg, _ = stream.NewMessage(stream.KindGameUpdate, testutil.SampleGame("g2"))
	src.emit(msg)
	if _, ok := state.Game("g2"); ok {
		t.Fatalf("expected no updates after shutdown unbinds the stream")
	}
}

func TestGracefulShutdownCallsStopAndShutdown(t *testing.T) {
	p := &testutil.StubPoller{}
	src := &stubStream{}
	httpSrv := &testutil.StubHTTPServer{}

	srv := newServerWithDeps(config.Config{}, nil, nil, src, httpSrv, p)
	srv.gracefulShutdown()

	if p.StopCalls != 1 {
		t.Fatalf("expected poller Stop to be called once, got %d", p.StopCalls)
	}
	if _, stops := src.counts(); stops != 1 {
		t.Fatalf("expected stream Stop to be called once, got %d", stops)
	}
	if httpSrv.ShutdownCalls != 1 {
		t.Fatalf("expected server Shutdown to be called once, got %d", httpSrv.ShutdownCalls)
	}
}

func TestGracefulShutdownWithoutPoller(t *testing.T) {
	httpSrv := &testutil.StubHTTPServer{}
	srv := newServerWithDeps(config.Config{}, nil, nil, &stubStream{}, httpSrv, nil)
	srv.gracefulShutdown()

	if httpSrv.ShutdownCalls != 1 {
		t.Fatalf("expected server Shutdown to be called once, got %d", httpSrv.ShutdownCalls)
	}
}

func TestGracefulShutdownTimesOutLongRunningShutdown(t *testing.T) {
	p := &testutil.StubPoller{}

	blocking := &testutil.StubHTTPServer{Unblock: make(chan struct{})}

	original := shutdownTimeout
	shutdownTimeout = 5 * time.Millisecond
	defer func() { shutdownTimeout = original }()

	srv := newServerWithDeps(config.Config{}, nil, nil, &stubStream{}, blocking, p)

	start := time.Now()
	srv.gracefulShutdown()
	elapsed := time.Since(start)

	if blocking.ShutdownCalls != 1 {
		t.Fatalf("expected server Shutdown to be called once, got %d", blocking.ShutdownCalls)
	}
	if p.StopCalls != 1 {
		t.Fatalf("expected poller Stop to be called once, got %d", p.StopCalls)
	}
	if elapsed > 200*time.Millisecond {
		t.Fatalf("shutdown took too long: %s", elapsed)
	}
}

func TestGracefulShutdownContinuesWhenPollerStopErrors(t *testing.T) {
	p := &testutil.StubPoller{Err: errors.New("stop failure")}
	httpSrv := &testutil.StubHTTPServer{}

	srv := newServerWithDeps(config.Config{}, nil, nil, &stubStream{}, httpSrv, p)
	srv.gracefulShutdown()

	if p.StopCalls != 1 {
		t.Fatalf("expected poller Stop to be called once, got %d", p.StopCalls)
	}
	if httpSrv.ShutdownCalls != 1 {
		t.Fatalf("expected server Shutdown to be called once, got %d", httpSrv.ShutdownCalls)
	}
}

func TestServerStartHandlesListenErrorAndStops(t *testing.T) {
	httpSrv := &testutil.StubHTTPServer{ListenErr: errors.New("listen failure")}
	srv := newServerWithDeps(config.Config{}, nil, nil, nil, httpSrv, nil)

	var wg sync.WaitGroup
	wg.Add(1)
	stopCalled := make(chan struct{})
	stop := func() {
		close(stopCalled)
		wg.Done()
	}

	srv.startServer(stop)

	select {
	case <-stopCalled:
	case <-time.After(200 * time.Millisecond):
		t.Fatal("expected stop to be called on listen failure")
	}

	wg.Wait()
}

func TestRunCancelsAndStopsComponents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	backend := &teststubs.StubBackend{Games: testutil.SampleGames("g1")}
	state := reconciler.New(backend, 0, nil)
	plr := &testutil.StubPoller{}
	src := &stubStream{}
	httpSrv := testutil.NewClosedHTTPServer()

	srv := newServerWithDeps(config.Config{}, nil, state, src, httpSrv, plr)

	done := make(chan struct{})
	go func() {
		srv.Run(ctx, cancel)
		close(done)
	}()

	waitFor(t, "initial load", state.Ready)
	cancel()

	select {
	case <-done:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("run did not return after cancel")
	}

	if plr.StartCalls != 1 || plr.StopCalls != 1 {
		t.Fatalf("expected poller started and stopped once, got %d/%d", plr.StartCalls, plr.StopCalls)
	}
	if starts, stops := src.counts(); starts != 1 || stops != 1 {
		t.Fatalf("expected stream started and stopped once, got %d/%d", starts, stops)
	}
	if httpSrv.ShutdownCalls != 1 {
		t.Fatalf("expected server Shutdown called once, got %d", httpSrv.ShutdownCalls)
	}
	if backend.GameCalls.Load() != 1 {
		t.Fatalf("expected one initial games fetch, got %d", backend.GameCalls.Load())
	}
}

func TestRunWaitsForPendingLoadOnShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	backend := &teststubs.StubBackend{GamesGate: make(chan struct{})}
	state := reconciler.New(backend, 0, nil)
	srv := newServerWithDeps(config.Config{}, nil, state, &stubStream{}, testutil.NewClosedHTTPServer(), nil)

	done := make(chan struct{})
	go func() {
		srv.Run(ctx, cancel)
		close(done)
	}()

	waitFor(t, "games fetch", func() bool { return backend.GameCalls.Load() == 1 })
	cancel()

	select {
	case <-done:
	case <-time.After(waitTimeout):
		t.Fatal("run did not return after cancel")
	}
	st := state.Status()
	if st.Loading || st.LoadError == "" {
		t.Fatalf("expected cancelled load reported, got %+v", st)
	}
}

func TestRunLogsStreamStartFailure(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	logger, buf := testutil.NewBufferLogger()
	src := &stubStream{startErr: errors.New("no url")}
	srv := newServerWithDeps(config.Config{}, logger, nil, src, testutil.NewClosedHTTPServer(), nil)

	done := make(chan struct{})
	go func() {
		srv.Run(ctx, cancel)
		close(done)
	}()
	waitFor(t, "stream start", func() bool {
		starts, _ := src.counts()
		return starts == 1
	})
	cancel()
	<-done

	if !strings.Contains(buf.String(), "stream start failed") {
		t.Fatalf("expected stream start failure logged, got %s", buf.String())
	}
}
