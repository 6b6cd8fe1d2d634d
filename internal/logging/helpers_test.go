package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestHelpersTolerateNilLogger(t *testing.T) {
	Debug(nil, "x")
	Info(nil, "x")
	Warn(nil, "x")
	Error(nil, "x", errors.New("boom"))
	if With(nil, "k", "v") != nil {
		t.Fatalf("expected nil logger from With(nil)")
	}
}

func TestErrorAppendsErrorField(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	Error(logger, "fetch failed", errors.New("boom"), FieldEndpoint, "/api/games")

	out := buf.String()
	if !strings.Contains(out, "error=boom") || !strings.Contains(out, "endpoint=/api/games") {
		t.Fatalf("unexpected log output %s", out)
	}
}
