package config

import "time"

// StreamConfig controls the live stream connection and its reconnect budget.
type StreamConfig struct {
	// Endpoint is used verbatim only when it carries a ws:// or wss:// scheme;
	// otherwise the stream URL is derived from the backend origin.
	Endpoint    string
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	PongWait    time.Duration
}

func loadStream() StreamConfig {
	return StreamConfig{
		Endpoint:    envOrDefault(envStreamEndpoint, defaultStreamPath),
		MaxAttempts: intEnvOrDefault(envMaxAttempts, defaultMaxAttempts),
		BaseDelay:   durationEnvOrDefault(envBaseDelay, defaultBaseDelay),
		MaxDelay:    durationEnvOrDefault(envMaxDelay, defaultMaxDelay),
		PongWait:    durationEnvOrDefault(envPongWait, defaultPongWait),
	}
}
