package stream

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Path is the fixed stream path on the backend.
const Path = "/ws"

var errNoHost = errors.New("stream: origin has no host")

// ResolveURL derives the stream URL from the backend origin: same host,
// http→ws and https→wss, fixed Path. An endpoint that already names a
// websocket scheme (ws:// or wss://) is returned as is; any other endpoint,
// relative or absolute, is ignored.
func ResolveURL(origin, endpoint string) (string, error) {
	if hasWebSocketScheme(endpoint) {
		return endpoint, nil
	}

	u, err := url.Parse(strings.TrimSpace(origin))
	if err != nil {
		return "", fmt.Errorf("stream: parse origin: %w", err)
	}
	if u.Host == "" {
		return "", errNoHost
	}

	scheme := "ws"
	if strings.EqualFold(u.Scheme, "https") || strings.EqualFold(u.Scheme, "wss") {
		scheme = "wss"
	}
	return (&url.URL{Scheme: scheme, Host: u.Host, Path: Path}).String(), nil
}

func hasWebSocketScheme(endpoint string) bool {
	lower := strings.ToLower(endpoint)
	return strings.HasPrefix(lower, "ws://") || strings.HasPrefix(lower, "wss://")
}
