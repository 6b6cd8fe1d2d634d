package server

import "time"

// HTTP surface limits. Handlers only read in-memory state, so responses are fast.
const (
	readHeaderTimeout = 5 * time.Second
	readTimeout       = 10 * time.Second
	writeTimeout      = 15 * time.Second
	idleTimeout       = 90 * time.Second
)

// shutdownTimeout bounds graceful shutdown of the HTTP and metrics servers.
// Tests shorten it.
var shutdownTimeout = 10 * time.Second
