package reconciler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/preston-bernstein/goalfeed-live/internal/domain/events"
	"github.com/preston-bernstein/goalfeed-live/internal/domain/games"
	"github.com/preston-bernstein/goalfeed-live/internal/domain/leagues"
	"github.com/preston-bernstein/goalfeed-live/internal/logging"
	"github.com/preston-bernstein/goalfeed-live/internal/store"
	"github.com/preston-bernstein/goalfeed-live/internal/stream"
)

// Backend is the snapshot side of the backend contract.
type Backend interface {
	FetchGames(ctx context.Context) ([]games.Game, error)
	FetchLeagues(ctx context.Context) ([]leagues.Config, error)
	UpdateLeague(ctx context.Context, leagueID int, teams []string) error
}

// Source delivers stream messages and connection state. *stream.Manager satisfies it.
type Source interface {
	Subscribe(fn func(stream.Message)) func()
	OnState(fn func(stream.State)) func()
}

// Reconciler merges stream messages and snapshot fetches into one
// authoritative view of games, events and league configuration.
// All mutation is serialized; readers always get copies.
type Reconciler struct {
	backend Backend
	logger  *slog.Logger
	now     func() time.Time

	games  *store.GameStore
	events *store.EventLog

	mu         sync.RWMutex
	leagues    []leagues.Config
	loading    bool
	loaded     bool
	loadErr    error
	connected  bool
	lastUpdate time.Time
}

// New constructs a Reconciler. eventCap <= 0 uses store.DefaultEventCap.
func New(backend Backend, eventCap int, logger *slog.Logger) *Reconciler {
	return &Reconciler{
		backend: backend,
		logger:  logger,
		now:     time.Now,
		games:   store.NewGameStore(),
		events:  store.NewEventLog(eventCap),
		loading: true,
	}
}

// Bind subscribes the reconciler to a stream source. The returned func
// removes both subscriptions.
func (r *Reconciler) Bind(src Source) func() {
	unsubMessages := src.Subscribe(r.Apply)
	unsubState := src.OnState(r.HandleState)
	return func() {
		unsubMessages()
		unsubState()
	}
}

// Apply folds one stream message into state. Unknown kinds are ignored and
// undecodable payloads are dropped.
func (r *Reconciler) Apply(msg stream.Message) {
	switch msg.Type.Canonical() {
	case stream.KindGameUpdate:
		var g games.Game
		if err := msg.DecodeData(&g); err != nil {
			logging.Warn(r.logger, "dropping game update", "err", err)
			return
		}
		if g.GameCode == "" {
			logging.Warn(r.logger, "dropping game update without game code")
			return
		}
		if st := g.CurrentState.Status; st != "" && !st.Valid() {
			logging.Debug(r.logger, "game update with unrecognised status",
				logging.FieldGameCode, g.GameCode,
				logging.FieldState, string(st),
			)
		}
		r.mu.Lock()
		inserted := r.games.Upsert(g)
		r.touch()
		r.mu.Unlock()
		logging.Debug(r.logger, "game updated",
			logging.FieldGameCode, g.GameCode,
			"inserted", inserted,
		)

	case stream.KindGamesList:
		list, err := decodeGamesList(msg.Data)
		if err != nil {
			logging.Warn(r.logger, "dropping games list", logging.FieldKind, string(msg.Type), "err", err)
			return
		}
		r.replaceGames(list)
		logging.Debug(r.logger, "games replaced from stream", logging.FieldCount, len(list))

	case stream.KindEvent:
		var e events.Event
		if err := msg.DecodeData(&e); err != nil {
			logging.Warn(r.logger, "dropping event", "err", err)
			return
		}
		r.mu.Lock()
		r.events.Prepend(e)
		r.touch()
		r.mu.Unlock()
		if e.IsScoring() {
			logging.Info(r.logger, "scoring event",
				logging.FieldGameCode, e.GameCode,
				logging.FieldKind, string(e.Type),
			)
		} else {
			logging.Debug(r.logger, "event recorded",
				logging.FieldGameCode, e.GameCode,
				logging.FieldKind, string(e.Type),
			)
		}

	default:
		logging.Debug(r.logger, "ignoring stream message", logging.FieldKind, string(msg.Type))
	}
}

// decodeGamesList treats a missing or null payload as an empty collection.
func decodeGamesList(data json.RawMessage) ([]games.Game, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var list []games.Game
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("decode games list: %w", err)
	}
	return list, nil
}

// HandleState tracks whether the stream is delivering. Held data is never
// invalidated by a disconnect.
func (r *Reconciler) HandleState(state stream.State) {
	r.mu.Lock()
	changed := r.connected != state.Connected()
	r.connected = state.Connected()
	r.mu.Unlock()
	if changed {
		logging.Info(r.logger, "stream connectivity changed", "connected", state.Connected())
	}
}

// Load fetches games and leagues concurrently. Each result is applied as
// soon as it arrives; a failure leaves that part of state untouched and is
// reported through Status. There is no automatic retry.
func (r *Reconciler) Load(ctx context.Context) error {
	r.mu.Lock()
	r.loading = true
	r.mu.Unlock()

	start := r.now()
	var g errgroup.Group
	g.Go(func() error {
		list, err := r.backend.FetchGames(ctx)
		if err != nil {
			return fmt.Errorf("fetch games: %w", err)
		}
		r.replaceGames(list)
		return nil
	})
	g.Go(func() error {
		cfgs, err := r.backend.FetchLeagues(ctx)
		if err != nil {
			return fmt.Errorf("fetch leagues: %w", err)
		}
		r.setLeagues(cfgs)
		return nil
	})
	err := g.Wait()

	r.mu.Lock()
	r.loading = false
	r.loaded = true
	r.loadErr = err
	r.mu.Unlock()

	if err != nil {
		logging.Error(r.logger, "initial load failed", err)
		return err
	}
	logging.Info(r.logger, "initial load complete",
		logging.FieldCount, r.games.Len(),
		logging.FieldDurationMS, r.now().Sub(start).Milliseconds(),
	)
	return nil
}

// Refresh re-fetches games and replaces the collection.
func (r *Reconciler) Refresh(ctx context.Context) error {
	list, err := r.backend.FetchGames(ctx)
	if err != nil {
		return fmt.Errorf("refresh games: %w", err)
	}
	r.replaceGames(list)
	logging.Debug(r.logger, "games refreshed", logging.FieldCount, len(list))
	return nil
}

// UpdateLeague writes a league's monitored teams to the backend. On success
// the cached config is updated and games are re-fetched; a refresh failure
// is only logged. On failure the cache is left untouched.
func (r *Reconciler) UpdateLeague(ctx context.Context, leagueID int, teamCodes []string) error {
	log := logging.With(r.logger, logging.FieldLeagueID, leagueID)
	if err := r.backend.UpdateLeague(ctx, leagueID, teamCodes); err != nil {
		logging.Error(log, "league update failed", err)
		return fmt.Errorf("update league %d: %w", leagueID, err)
	}

	r.mu.Lock()
	for i := range r.leagues {
		if r.leagues[i].LeagueID == leagueID {
			r.leagues[i].Teams = append([]string(nil), teamCodes...)
		}
	}
	r.touch()
	r.mu.Unlock()
	logging.Info(log, "league updated", logging.FieldCount, len(teamCodes))

	if err := r.Refresh(ctx); err != nil {
		logging.Warn(log, "refresh after league update failed", "err", err)
	}
	return nil
}

func (r *Reconciler) replaceGames(list []games.Game) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.games.Replace(list)
	r.touch()
}

func (r *Reconciler) setLeagues(cfgs []leagues.Config) {
	next := make([]leagues.Config, len(cfgs))
	for i, c := range cfgs {
		next[i] = c.Clone()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leagues = next
	r.touch()
}

// touch must be called with r.mu held.
func (r *Reconciler) touch() {
	r.lastUpdate = r.now()
}
