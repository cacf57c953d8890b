package config

import (
	"time"

	"github.com/wonkyeggs/eggtrack/eggtrack"
)

// WebAppConfig is the web-facing view over the service configuration.
type WebAppConfig struct {
	Config      *eggtrack.Config
	Debug       bool
	Environment string
}

// NewWebAppConfig creates a new web app configuration.
func NewWebAppConfig(cfg *eggtrack.Config, debug bool) *WebAppConfig {
	environment := "production"
	if debug {
		environment = "development"
	}

	return &WebAppConfig{
		Config:      cfg,
		Debug:       debug,
		Environment: environment,
	}
}

// GetAuthConfig returns the authentication configuration.
func (w *WebAppConfig) GetAuthConfig() eggtrack.AuthConfig {
	return w.Config.Auth
}

// CacheDuration is how long the leaderboard cache counts as fresh.
func (w *WebAppConfig) CacheDuration() time.Duration {
	return time.Duration(w.Config.Controller.CacheDurationMinutes) * time.Minute
}
