package config

import "time"

const (
	envBackendURL      = "GOALFEED_URL"
	envStreamEndpoint  = "GOALFEED_WS_ENDPOINT"
	envPort            = "PORT"
	envMaxAttempts     = "RECONNECT_MAX_ATTEMPTS"
	envBaseDelay       = "RECONNECT_BASE_DELAY"
	envMaxDelay        = "RECONNECT_MAX_DELAY"
	envPongWait        = "STREAM_PONG_WAIT"
	envEventLogCap     = "EVENT_LOG_CAP"
	envAPITimeout      = "API_TIMEOUT"
	envRefreshInterval = "SNAPSHOT_REFRESH_INTERVAL"
	envCORSOrigins     = "CORS_ALLOWED_ORIGINS"
	envAdminToken      = "ADMIN_TOKEN"
	envMetricsPort     = "METRICS_PORT"
	envMetricsOn       = "METRICS_ENABLED"
	envOtelEndpoint    = "OTEL_EXPORTER_OTLP_ENDPOINT"
	envOtelService     = "OTEL_SERVICE_NAME"
	envOtelInsecure    = "OTEL_EXPORTER_OTLP_INSECURE"
	envLogLevel        = "LOG_LEVEL"
	envLogFormat       = "LOG_FORMAT"

	defaultServiceName = "goalfeed-live"
	defaultBackendURL  = "http://localhost:8080"
	defaultStreamPath  = "/ws"
	defaultPort        = "4000"
	defaultMetricsPort = "9090"
	defaultMaxAttempts = 5
	defaultEventLogCap = 50
	defaultBaseDelay   = time.Second
	defaultMaxDelay    = 10 * time.Second
	defaultPongWait    = 60 * time.Second
	defaultCORSOrigins = "*"
	defaultLogFormat   = "text"
	defaultLogLevel    = "info"
)
