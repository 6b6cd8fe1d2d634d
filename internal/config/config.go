package config

import "github.com/joho/godotenv"

// Config holds runtime configuration for the sync client.
type Config struct {
	BackendURL  string
	Port        string
	Stream      StreamConfig
	EventLogCap int
	// APITimeout bounds snapshot requests; zero leaves them unbounded.
	APITimeout Duration
	// RefreshInterval enables periodic games snapshots; zero disables them.
	RefreshInterval Duration
	CORSOrigins     []string
	// AdminToken guards POST /refresh when set.
	AdminToken string
	LogLevel   string
	LogFormat  string
	Metrics    MetricsConfig
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	return Config{
		BackendURL:      envOrDefault(envBackendURL, defaultBackendURL),
		Port:            envOrDefault(envPort, defaultPort),
		Stream:          loadStream(),
		EventLogCap:     intEnvOrDefault(envEventLogCap, defaultEventLogCap),
		APITimeout:      optionalDurationEnv(envAPITimeout),
		RefreshInterval: optionalDurationEnv(envRefreshInterval),
		CORSOrigins:     listEnvOrDefault(envCORSOrigins, defaultCORSOrigins),
		AdminToken:      envOrDefault(envAdminToken, ""),
		LogLevel:        envOrDefault(envLogLevel, defaultLogLevel),
		LogFormat:       envOrDefault(envLogFormat, defaultLogFormat),
		Metrics:         loadMetrics(),
	}
}

// LoadDotenv merges variables from the given .env files (default ".env") into the
// process environment without overriding values that are already set.
// Missing files are not an error.
func LoadDotenv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	var present []string
	for _, f := range files {
		if fileExists(f) {
			present = append(present, f)
		}
	}
	if len(present) == 0 {
		return nil
	}
	return godotenv.Load(present...)
}
