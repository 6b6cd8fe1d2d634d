package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/preston-bernstein/goalfeed-live/internal/domain/events"
	"github.com/preston-bernstein/goalfeed-live/internal/domain/games"
	"github.com/preston-bernstein/goalfeed-live/internal/domain/leagues"
	"github.com/preston-bernstein/goalfeed-live/internal/domain/teams"
	"github.com/preston-bernstein/goalfeed-live/internal/logging"
	"github.com/preston-bernstein/goalfeed-live/internal/metrics"
)

// Config controls how the client reaches the goalfeed backend.
type Config struct {
	BaseURL    string
	HTTPClient *http.Client
	// Timeout applies only to the default HTTP client. Zero means no timeout.
	Timeout time.Duration
	Logger  *slog.Logger
	Metrics *metrics.Recorder
}

// Client speaks the backend's request/response contract.
type Client struct {
	baseURL    string
	httpClient httpDoer
	logger     *slog.Logger
	metrics    *metrics.Recorder
}

// NewClient constructs a backend client with the provided configuration.
func NewClient(cfg Config) *Client {
	return &Client{
		baseURL:    normalizeBaseURL(cfg.BaseURL),
		httpClient: resolveHTTPClient(cfg.HTTPClient, cfg.Timeout),
		logger:     cfg.Logger,
		metrics:    cfg.Metrics,
	}
}

// BaseURL returns the normalized backend origin.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// FetchGames returns the backend's current active games.
func (c *Client) FetchGames(ctx context.Context) ([]games.Game, error) {
	var out []games.Game
	if _, err := c.do(ctx, http.MethodGet, PathGames, nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FetchHistory returns the games played on date (YYYY-MM-DD).
func (c *Client) FetchHistory(ctx context.Context, date string) ([]games.Game, error) {
	day, err := ParseHistoryDate(date)
	if err != nil {
		return nil, fmt.Errorf("api %s: %w", PathHistory, err)
	}
	q := url.Values{}
	q.Set("date", day.Format(HistoryDateLayout))
	var out []games.Game
	if _, err := c.do(ctx, http.MethodGet, PathHistory, q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FetchUpcoming returns games scheduled within the backend's lookahead window.
func (c *Client) FetchUpcoming(ctx context.Context) ([]games.Game, error) {
	var out []games.Game
	if _, err := c.do(ctx, http.MethodGet, PathUpcoming, nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FetchLeagues returns the monitored-team configuration per league.
func (c *Client) FetchLeagues(ctx context.Context) ([]leagues.Config, error) {
	var out []leagues.Config
	if _, err := c.do(ctx, http.MethodGet, PathLeagues, nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateLeague replaces the monitored teams of one league.
func (c *Client) UpdateLeague(ctx context.Context, leagueID int, teamCodes []string) error {
	if teamCodes == nil {
		teamCodes = []string{}
	}
	body := leagues.UpdateRequest{LeagueID: leagueID, Teams: teamCodes}
	_, err := c.do(ctx, http.MethodPost, PathLeagues, nil, body, nil)
	return err
}

// FetchTeams lists every team the backend knows for a league.
func (c *Client) FetchTeams(ctx context.Context, leagueID int) ([]teams.Team, error) {
	q := url.Values{}
	q.Set("leagueId", strconv.Itoa(leagueID))
	var out []teams.Team
	if _, err := c.do(ctx, http.MethodGet, PathTeams, q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FetchEvents returns the backend's recent-events list.
func (c *Client) FetchEvents(ctx context.Context) ([]events.Event, error) {
	var out []events.Event
	if _, err := c.do(ctx, http.MethodGet, PathEvents, nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// TriggerRefresh asks the backend to re-poll its active games. The refresh
// runs asynchronously on the backend; results arrive over the stream.
func (c *Client) TriggerRefresh(ctx context.Context) (string, error) {
	env, err := c.do(ctx, http.MethodPost, PathRefresh, nil, nil, nil)
	if err != nil {
		return "", err
	}
	return env.Message, nil
}

// HomeAssistantConfig returns the Home Assistant integration settings as-is.
func (c *Client) HomeAssistantConfig(ctx context.Context) (json.RawMessage, error) {
	return c.raw(ctx, http.MethodGet, PathHAConfig, nil)
}

// HomeAssistantStatus returns the Home Assistant connection status as-is.
func (c *Client) HomeAssistantStatus(ctx context.Context) (json.RawMessage, error) {
	return c.raw(ctx, http.MethodGet, PathHAStatus, nil)
}

// UpdateHomeAssistant forwards a settings document to the backend.
func (c *Client) UpdateHomeAssistant(ctx context.Context, body json.RawMessage) (json.RawMessage, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, fmt.Errorf("api %s: empty body", PathHAConfig)
	}
	return c.raw(ctx, http.MethodPost, PathHAConfig, body)
}

func (c *Client) raw(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	env, err := c.do(ctx, method, path, nil, body, nil)
	if err != nil {
		return nil, err
	}
	if !env.hasData() {
		return nil, nil
	}
	return env.Data, nil
}

// do performs one round trip and unwraps the envelope into dst when dst is
// non-nil and the envelope carries data.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, dst any) (env Envelope, err error) {
	start := time.Now()
	defer func() {
		c.metrics.RecordSnapshotFetch(path, time.Since(start), err)
		if err != nil {
			logging.Warn(logging.FromContext(ctx, c.logger), "backend call failed",
				logging.FieldEndpoint, path,
				logging.FieldMethod, method,
				"err", err,
			)
		}
	}()

	req, err := c.buildRequest(ctx, method, path, query, body)
	if err != nil {
		return Envelope{}, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Envelope{}, fmt.Errorf("api %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Envelope{}, statusError(path, resp)
	}

	if decodeErr := json.NewDecoder(resp.Body).Decode(&env); decodeErr != nil {
		return Envelope{}, fmt.Errorf("api %s: decode envelope: %w", path, decodeErr)
	}
	if !env.Success {
		return Envelope{}, &Error{Endpoint: path, StatusCode: resp.StatusCode, Message: env.Message}
	}

	if dst != nil && env.hasData() {
		if decodeErr := json.Unmarshal(env.Data, dst); decodeErr != nil {
			return Envelope{}, fmt.Errorf("api %s: decode data: %w", path, decodeErr)
		}
	}
	return env, nil
}

func (c *Client) buildRequest(ctx context.Context, method, path string, query url.Values, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		var payload []byte
		switch b := body.(type) {
		case json.RawMessage:
			payload = b
		default:
			encoded, err := json.Marshal(b)
			if err != nil {
				return nil, fmt.Errorf("api %s: encode body: %w", path, err)
			}
			payload = encoded
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	if len(query) > 0 {
		req.URL.RawQuery = query.Encode()
	}
	req.Header.Set("Accept", contentTypeJSON)
	if body != nil {
		req.Header.Set(contentTypeHeader, contentTypeJSON)
	}
	return req, nil
}

// statusError prefers the envelope message; otherwise it keeps a bounded
// snippet of the body.
func statusError(path string, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	msg := strings.TrimSpace(string(raw))

	var env Envelope
	if json.Unmarshal(raw, &env) == nil && env.Message != "" {
		msg = env.Message
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return &Error{Endpoint: path, StatusCode: resp.StatusCode, Message: msg}
}
