package api

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidDate rejects a history date that is not YYYY-MM-DD.
var ErrInvalidDate = errors.New("date must be YYYY-MM-DD")

// ParseHistoryDate validates a history query date.
func ParseHistoryDate(raw string) (time.Time, error) {
	day, err := time.Parse(HistoryDateLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, raw)
	}
	return day, nil
}

// Error is a backend call that completed but was not successful: a non-2xx
// status or an envelope with success=false.
type Error struct {
	Endpoint   string
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "request failed"
	}
	return fmt.Sprintf("api %s: %s (status=%d)", e.Endpoint, msg, e.StatusCode)
}

// AsError attempts to unwrap err into an *Error.
func AsError(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
