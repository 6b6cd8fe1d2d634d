package server

import (
	"context"

	"github.com/preston-bernstein/goalfeed-live/internal/poller"
	"github.com/preston-bernstein/goalfeed-live/internal/reconciler"
	"github.com/preston-bernstein/goalfeed-live/internal/stream"
)

// Poller defines the minimal poller behavior needed by the server.
type Poller interface {
	Start(ctx context.Context)
	Stop(ctx context.Context) error
	Status() poller.Status
}

// Stream is the live connection the reconciler binds to. *stream.Manager satisfies it.
type Stream interface {
	reconciler.Source
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Status() stream.Status
}
