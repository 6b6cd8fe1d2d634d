package server

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/preston-bernstein/goalfeed-live/internal/api"
	"github.com/preston-bernstein/goalfeed-live/internal/config"
	httpserver "github.com/preston-bernstein/goalfeed-live/internal/http"
	"github.com/preston-bernstein/goalfeed-live/internal/http/handlers"
	"github.com/preston-bernstein/goalfeed-live/internal/http/middleware"
	"github.com/preston-bernstein/goalfeed-live/internal/logging"
	"github.com/preston-bernstein/goalfeed-live/internal/metrics"
	"github.com/preston-bernstein/goalfeed-live/internal/poller"
	"github.com/preston-bernstein/goalfeed-live/internal/reconciler"
	"github.com/preston-bernstein/goalfeed-live/internal/stream"
)

var metricsSetup = metrics.Setup

// Server owns the sync client: the live stream, the reconciled state fed by
// it, and the local HTTP surface that serves that state.
type Server struct {
	cfg           config.Config
	logger        *slog.Logger
	metrics       *metrics.Recorder
	state         *reconciler.Reconciler
	stream        Stream
	unbind        func()
	httpServer    httpServer
	metricsServer httpServer
	poller        Poller
	metricsStop   func(context.Context) error
	loads         sync.WaitGroup
}

// New constructs a server wired to the configured backend.
func New(cfg config.Config, logger *slog.Logger) *Server {
	return newServerWithMetrics(cfg, logger, nil)
}

func newServerWithMetrics(cfg config.Config, logger *slog.Logger, recorder *metrics.Recorder) *Server {
	if logger == nil {
		logger = logging.NewLogger(logging.Config{})
	}
	recorder, metricsSrv, metricsShutdown := buildMetrics(cfg, logger, recorder)

	client := api.NewClient(api.Config{
		BaseURL: cfg.BackendURL,
		Timeout: cfg.APITimeout,
		Logger:  logger,
		Metrics: recorder,
	})
	state := reconciler.New(client, cfg.EventLogCap, logger)
	mgr := buildStream(cfg, client.BaseURL(), logger, recorder)

	var plr Poller
	if cfg.RefreshInterval > 0 {
		plr = poller.New(state, logger, recorder, cfg.RefreshInterval)
	}
	httpSrv := buildHTTPServer(cfg, state, client, mgr, plr, logger, recorder)

	return &Server{
		cfg:           cfg,
		logger:        logger,
		metrics:       recorder,
		state:         state,
		stream:        mgr,
		unbind:        state.Bind(mgr),
		httpServer:    httpSrv,
		metricsServer: metricsSrv,
		poller:        plr,
		metricsStop:   metricsShutdown,
	}
}

// newServerWithDeps is used for testing to inject custom components.
func newServerWithDeps(cfg config.Config, logger *slog.Logger, state *reconciler.Reconciler, src Stream, httpSrv httpServer, plr Poller) *Server {
	s := &Server{
		cfg:        cfg,
		logger:     logger,
		state:      state,
		stream:     src,
		httpServer: httpSrv,
		poller:     plr,
	}
	if state != nil && src != nil {
		s.unbind = state.Bind(src)
	}
	return s
}

func buildStream(cfg config.Config, origin string, logger *slog.Logger, recorder *metrics.Recorder) *stream.Manager {
	wsURL, err := stream.ResolveURL(origin, cfg.Stream.Endpoint)
	if err != nil {
		logging.Error(logger, "cannot resolve stream url; live updates disabled", err,
			logging.FieldURL, origin,
		)
	}
	return stream.NewManager(stream.Config{
		URL: wsURL,
		Policy: stream.Policy{
			MaxAttempts: cfg.Stream.MaxAttempts,
			BaseDelay:   cfg.Stream.BaseDelay,
			MaxDelay:    cfg.Stream.MaxDelay,
		},
		PongWait: cfg.Stream.PongWait,
		Logger:   logger,
		Metrics:  recorder,
	})
}

func buildHTTPServer(cfg config.Config, state *reconciler.Reconciler, client *api.Client, src Stream, plr Poller, logger *slog.Logger, recorder *metrics.Recorder) httpServer {
	handler := handlers.NewHandler(state, client, logger).WithStreamStatus(src.Status)
	if plr != nil {
		handler.WithPollerStatus(plr.Status)
	}
	admin := handlers.NewAdminHandler(state, client, cfg.AdminToken, logger)
	router := httpserver.NewRouter(handler, admin)
	wrapped := middleware.LoggingMiddleware(logger, recorder, middleware.CORS(cfg.CORSOrigins, router))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           wrapped,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	return netHTTPServer{srv: srv}
}

// Run starts the HTTP surface, the live stream and the initial snapshot
// load, then waits for context cancellation to shut down gracefully.
func (s *Server) Run(ctx context.Context, stop context.CancelFunc) {
	s.startMetrics()
	s.startServer(stop)
	s.startStream(ctx)
	s.startLoad(ctx)
	if s.poller != nil {
		s.poller.Start(ctx)
	}

	<-ctx.Done()
	logging.Info(s.logger, "shutdown signal received")

	s.gracefulShutdown()
}

func (s *Server) startServer(stop context.CancelFunc) {
	logging.Info(s.logger, "http server starting", slog.String("addr", s.httpServer.Addr()))
	launchServer("http", s.httpServer, s.logger, func(err error) {
		if stop != nil {
			stop()
		}
	})
}

func (s *Server) startStream(ctx context.Context) {
	if s.stream == nil {
		return
	}
	if err := s.stream.Start(ctx); err != nil {
		logging.Error(s.logger, "stream start failed", err)
	}
}

// startLoad fetches the initial snapshot in the background so the HTTP
// surface can report loading state meanwhile.
func (s *Server) startLoad(ctx context.Context) {
	if s.state == nil {
		return
	}
	s.loads.Add(1)
	go func() {
		defer s.loads.Done()
		_ = s.state.Load(ctx)
	}()
}

func (s *Server) startMetrics() {
	if s.metricsServer == nil {
		return
	}
	logging.Info(s.logger, "metrics server starting", slog.String("addr", s.metricsServer.Addr()))
	launchServer("metrics", s.metricsServer, s.logger, nil)
}

func (s *Server) gracefulShutdown() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if s.metricsStop != nil {
		if err := s.metricsStop(shutdownCtx); err != nil {
			logging.Warn(s.logger, "metrics shutdown failed", "error", err)
		}
	}

	if s.metricsServer != nil {
		if err := s.metricsServer.Shutdown(shutdownCtx); err != nil {
			logging.Warn(s.logger, "metrics server shutdown failed", "error", err)
		}
	}

	if s.poller != nil {
		if err := s.poller.Stop(shutdownCtx); err != nil {
			logging.Error(s.logger, "failed to stop poller", err)
		}
	}

	if s.stream != nil {
		if err := s.stream.Stop(shutdownCtx); err != nil {
			logging.Error(s.logger, "failed to stop stream", err)
		}
	}
	if s.unbind != nil {
		s.unbind()
	}

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		logging.Error(s.logger, "graceful shutdown failed", err)
	}

	s.loads.Wait()
	logging.Info(s.logger, "shutdown complete")
}

func buildMetrics(cfg config.Config, logger *slog.Logger, recorder *metrics.Recorder) (*metrics.Recorder, httpServer, func(context.Context) error) {
	if recorder != nil {
		return recorder, nil, nil
	}

	recCfg := metrics.TelemetryConfig{
		Enabled:      cfg.Metrics.Enabled,
		Port:         cfg.Metrics.Port,
		ServiceName:  cfg.Metrics.ServiceName,
		OtlpEndpoint: cfg.Metrics.OtlpEndpoint,
		OtlpInsecure: cfg.Metrics.OtlpInsecure,
	}

	rec, handler, shutdown, err := metricsSetup(context.Background(), recCfg)
	if err != nil {
		logging.Warn(logger, "metrics setup failed, continuing without telemetry", "err", err)
		return metrics.NewRecorder(), nil, nil
	}

	var metricsSrv httpServer
	if handler != nil && recCfg.Enabled {
		metricsSrv = netHTTPServer{
			srv: &http.Server{
				Addr:    ":" + recCfg.Port,
				Handler: handler,
			},
		}
	}

	return rec, metricsSrv, shutdown
}

func launchServer(name string, srv httpServer, logger *slog.Logger, onError func(error)) {
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Warn(logger, name+" server failed", "error", err)
			if onError != nil {
				onError(err)
			}
		}
	}()
}

// Handler exposes the HTTP handler (useful for tests).
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler()
}

// State exposes the reconciled state.
func (s *Server) State() *reconciler.Reconciler {
	return s.state
}
