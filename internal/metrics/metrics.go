package metrics

import (
	"sync"
	"time"
)

type endpointStats struct {
	calls           int
	errors          int
	lastCallLatency time.Duration
}

type streamStats struct {
	frames             map[string]int
	decodeFailures     int
	reconnects         int
	lastReconnectDelay time.Duration
	states             map[string]int
}

// Recorder captures lightweight, in-memory metrics about snapshot fetches and the live stream,
// forwarding to OpenTelemetry instruments when configured.
type Recorder struct {
	mu     sync.Mutex
	stats  map[string]*endpointStats
	stream streamStats
	otel   *otelInstruments
}

func NewRecorder() *Recorder {
	return newRecorder(nil)
}

func newRecorder(otel *otelInstruments) *Recorder {
	return &Recorder{
		stats: make(map[string]*endpointStats),
		stream: streamStats{
			frames: make(map[string]int),
			states: make(map[string]int),
		},
		otel: otel,
	}
}

// RecordSnapshotFetch increments counters for a backend call and stores the last observed latency.
func (r *Recorder) RecordSnapshotFetch(endpoint string, duration time.Duration, err error) {
	if r == nil {
		return
	}

	r.mu.Lock()
	stats, ok := r.stats[endpoint]
	if !ok {
		stats = &endpointStats{}
		r.stats[endpoint] = stats
	}
	stats.calls++
	stats.lastCallLatency = duration
	if err != nil {
		stats.errors++
	}
	r.mu.Unlock()

	if r.otel != nil {
		r.otel.recordSnapshotFetch(endpoint, duration, err)
	}
}

// RecordFrame counts a decoded stream frame by message kind.
func (r *Recorder) RecordFrame(kind string) {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.stream.frames[kind]++
	r.mu.Unlock()
	if r.otel != nil {
		r.otel.recordFrame(kind)
	}
}

// RecordDecodeFailure counts a dropped, undecodable stream frame.
func (r *Recorder) RecordDecodeFailure() {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.stream.decodeFailures++
	r.mu.Unlock()
	if r.otel != nil {
		r.otel.recordDecodeFailure()
	}
}

// RecordReconnect tracks a scheduled reconnect and its delay.
func (r *Recorder) RecordReconnect(attempt int, delay time.Duration) {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.stream.reconnects++
	r.stream.lastReconnectDelay = delay
	r.mu.Unlock()
	if r.otel != nil {
		r.otel.recordReconnect(attempt, delay)
	}
}

// RecordStreamState counts a connection lifecycle transition.
func (r *Recorder) RecordStreamState(state string) {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.stream.states[state]++
	r.mu.Unlock()
	if r.otel != nil {
		r.otel.recordStreamState(state)
	}
}

// RecordHTTPRequest tracks basic HTTP metrics.
func (r *Recorder) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	if r == nil || r.otel == nil {
		return
	}
	r.otel.recordHTTPRequest(method, path, status, duration)
}

// RecordRefreshCycle tracks periodic snapshot refresh cycles and errors.
func (r *Recorder) RecordRefreshCycle(duration time.Duration, err error) {
	if r == nil || r.otel == nil {
		return
	}
	r.otel.recordRefresh(duration, err)
}

// Snapshot returns a copy of the current stats for an endpoint.
type Snapshot struct {
	Calls           int
	Errors          int
	LastCallLatency time.Duration
}

func (r *Recorder) Snapshot(endpoint string) Snapshot {
	if r == nil {
		return Snapshot{}
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	stats, ok := r.stats[endpoint]
	if !ok || stats == nil {
		return Snapshot{}
	}
	return Snapshot{
		Calls:           stats.calls,
		Errors:          stats.errors,
		LastCallLatency: stats.lastCallLatency,
	}
}

// EndpointCalls returns the total attempts recorded for an endpoint.
func (r *Recorder) EndpointCalls(endpoint string) int {
	return r.Snapshot(endpoint).Calls
}

// EndpointErrors returns the total failed attempts recorded for an endpoint.
func (r *Recorder) EndpointErrors(endpoint string) int {
	return r.Snapshot(endpoint).Errors
}

// StreamSnapshot is a copy of the live stream counters.
type StreamSnapshot struct {
	Frames             map[string]int
	DecodeFailures     int
	Reconnects         int
	LastReconnectDelay time.Duration
	States             map[string]int
}

// Stream returns a copy of the live stream counters.
func (r *Recorder) Stream() StreamSnapshot {
	if r == nil {
		return StreamSnapshot{}
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	out := StreamSnapshot{
		Frames:             make(map[string]int, len(r.stream.frames)),
		DecodeFailures:     r.stream.decodeFailures,
		Reconnects:         r.stream.reconnects,
		LastReconnectDelay: r.stream.lastReconnectDelay,
		States:             make(map[string]int, len(r.stream.states)),
	}
	for k, v := range r.stream.frames {
		out.Frames[k] = v
	}
	for k, v := range r.stream.states {
		out.States[k] = v
	}
	return out
}
