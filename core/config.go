package core

import (
	"fmt"
	"strings"
	"time"
)

type SyncWindowConfig struct {
	PastDays   int `koanf:"past_days" mapstructure:"past_days"`
	FutureDays int `koanf:"future_days" mapstructure:"future_days"`
}

type Config struct {
	ServiceName string `koanf:"service_name" mapstructure:"service_name"`
	// WebhookURL is the public callback address handed to the provider's
	// watch endpoint.
	WebhookURL string `koanf:"webhook_url" mapstructure:"webhook_url"`
	// RefreshLeadWindow is how close to expiry a stored access token may get
	// before a refresh is forced.
	RefreshLeadWindow time.Duration `koanf:"refresh_lead_window" mapstructure:"refresh_lead_window"`
	// RefreshFailureLimit is the consecutive refresh failure count that flips
	// the integration to the error status. A single transient failure never
	// does.
	RefreshFailureLimit int              `koanf:"refresh_failure_limit" mapstructure:"refresh_failure_limit"`
	SyncWindow          SyncWindowConfig `koanf:"sync_window" mapstructure:"sync_window"`
	LocalWindow         SyncWindowConfig `koanf:"local_window" mapstructure:"local_window"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName:         "calendar-sync",
		RefreshLeadWindow:   60 * time.Second,
		RefreshFailureLimit: 3,
		SyncWindow: SyncWindowConfig{
			PastDays:   90,
			FutureDays: 180,
		},
		LocalWindow: SyncWindowConfig{
			PastDays:   30,
			FutureDays: 60,
		},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	if c.RefreshLeadWindow < 0 {
		return fmt.Errorf("core: refresh_lead_window must not be negative")
	}
	if c.RefreshFailureLimit < 1 {
		return fmt.Errorf("core: refresh_failure_limit must be at least 1")
	}
	return nil
}
