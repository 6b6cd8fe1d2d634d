package testutil

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"github.com/preston-bernstein/goalfeed-live/internal/poller"
)

func TestClockHelpers(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	if got := NowAt(now)(); !got.Equal(now) {
		t.Fatalf("expected fixed time, got %v", got)
	}

	clock := clockwork.NewFakeClock()
	fired := make(chan struct{})
	go func() {
		<-clock.After(time.Second)
		close(fired)
	}()
	WaitForTimers(t, clock, 1)
	clock.Advance(time.Second)
	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatalf("expected timer to fire after advance")
	}
}

func TestFixturesHelper(t *testing.T) {
	g := SampleGame("code-1")
	if g.GameCode != "code-1" || g.CurrentState.Home.Team.TeamCode == "" {
		t.Fatalf("unexpected game fixture %+v", g)
	}
	list := SampleGames("a", "b")
	if len(list) != 2 || list[1].GameCode != "b" {
		t.Fatalf("unexpected games fixture %+v", list)
	}
	if e := SampleEvent("e1"); e.ID != "e1" || !e.IsScoring() {
		t.Fatalf("unexpected event fixture %+v", e)
	}
	if l := SampleLeagues(); len(l) != 4 || !l[3].Monitors("ANY") {
		t.Fatalf("unexpected leagues fixture %+v", l)
	}
	if team := SampleTeam("TOR"); team.Code != "TOR" || team.Name == "" {
		t.Fatalf("unexpected team fixture %+v", team)
	}
}

func TestServeHelpers(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	rr := Serve(handler, http.MethodPost, "/test", strings.NewReader("{}"))
	AssertStatus(t, rr, http.StatusCreated)
	var body map[string]bool
	DecodeJSON(t, rr, &body)
	if !body["ok"] {
		t.Fatalf("expected ok=true")
	}

	env := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"data":{"count":3}}`))
	})
	var data struct {
		Count int `json:"count"`
	}
	DecodeData(t, Serve(env, http.MethodGet, "/env", nil), &data)
	if data.Count != 3 {
		t.Fatalf("expected unwrapped data, got %+v", data)
	}

	req := httptest.NewRequest(http.MethodGet, "/req", nil)
	rr2 := ServeRequest(handler, req)
	AssertStatus(t, rr2, http.StatusCreated)
}

func TestStreamServerHelpers(t *testing.T) {
	srv := NewStreamServer(t, func(conn *websocket.Conn) {
		_ = WriteText(conn, `{"type":"event"}`)
		DrainUntilClose(conn)
	})
	if !strings.HasPrefix(srv.WSURL(), "ws://") {
		t.Fatalf("expected ws url, got %s", srv.WSURL())
	}

	conn, _, err := websocket.DefaultDialer.Dial(srv.WSURL(), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_, frame, err := conn.ReadMessage()
	if err != nil || string(frame) != `{"type":"event"}` {
		t.Fatalf("unexpected frame %q err %v", frame, err)
	}
	if srv.Accepted() != 1 {
		t.Fatalf("expected one accepted connection, got %d", srv.Accepted())
	}
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func TestServerStubs(t *testing.T) {
	p := &StubPoller{Err: errors.New("stop"), StatusVal: poller.Status{ConsecutiveFailures: 2}}
	p.Start(context.Background())
	if p.StartCtx == nil {
		t.Fatalf("expected start context captured")
	}
	if err := p.Stop(context.Background()); !errors.Is(err, p.Err) {
		t.Fatalf("expected stop error")
	}
	if p.StartCalls != 1 || p.StopCalls != 1 || p.Status().ConsecutiveFailures != 2 {
		t.Fatalf("unexpected poller stub state %+v", p)
	}

	sh := &StubHTTPServer{ListenErr: errors.New("boom"), ShutdownErr: errors.New("down")}
	if err := sh.ListenAndServe(); err == nil || err.Error() != "boom" {
		t.Fatalf("expected listen error, got %v", err)
	}
	if err := sh.Shutdown(context.Background()); err == nil || err.Error() != "down" {
		t.Fatalf("expected shutdown error, got %v", err)
	}
	if sh.Addr() != ":0" || sh.Handler() == nil {
		t.Fatalf("expected default addr and handler")
	}
	if sh.ListenCalls != 1 || sh.ShutdownCalls != 1 {
		t.Fatalf("expected listen/shutdown calls, got %d/%d", sh.ListenCalls, sh.ShutdownCalls)
	}

	if err := NewClosedHTTPServer().ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		t.Fatalf("expected ErrServerClosed, got %v", err)
	}
}

func TestStubHTTPServerShutdownWaitsForUnblock(t *testing.T) {
	b := &StubHTTPServer{Unblock: make(chan struct{})}
	done := make(chan error, 1)
	go func() { done <- b.Shutdown(context.Background()) }()
	close(b.Unblock)
	if err := <-done; err != nil {
		t.Fatalf("expected nil shutdown err, got %v", err)
	}

	b = &StubHTTPServer{Unblock: make(chan struct{})}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := b.Shutdown(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
}

func TestLoggerAndMetricsHelpers(t *testing.T) {
	logger, buf := NewBufferLogger()
	logger.Debug("hello", "k", "v")
	if !strings.Contains(buf.String(), "k=v") {
		t.Fatalf("expected debug output in buffer, got %s", buf.String())
	}
	rec, shutdown := NewRecorderWithShutdown()
	if rec == nil || shutdown == nil {
		t.Fatalf("expected recorder and shutdown")
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("expected nil shutdown error, got %v", err)
	}
}
