package sqlstore

import (
	"time"

	"github.com/uptrace/bun"
)

type integrationRecord struct {
	bun.BaseModel `bun:"table:calendar_integrations,alias:ci"`

	ID                string     `bun:"id,pk"`
	UserID            string     `bun:"user_id,notnull"`
	WorkspaceID       string     `bun:"workspace_id,notnull"`
	Status            string     `bun:"status,notnull"`
	PrimaryCalendarID string     `bun:"primary_calendar_id"`
	RefreshFailures   int        `bun:"refresh_failures,notnull"`
	LastError         string     `bun:"last_error"`
	CreatedAt         time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt         time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
	DisabledAt        *time.Time `bun:"disabled_at,nullzero"`
}

type credentialRecord struct {
	bun.BaseModel `bun:"table:calendar_credentials,alias:cc"`

	ID            string     `bun:"id,pk"`
	IntegrationID string     `bun:"integration_id,notnull"`
	AccessToken   string     `bun:"access_token,notnull"`
	RefreshToken  string     `bun:"refresh_token"`
	ExpiresAt     *time.Time `bun:"expires_at,nullzero"`
	CreatedAt     time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt     time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

type syncStateRecord struct {
	bun.BaseModel `bun:"table:calendar_sync_state,alias:css"`

	ID               string     `bun:"id,pk"`
	IntegrationID    string     `bun:"integration_id,notnull"`
	CalendarID       string     `bun:"calendar_id,notnull"`
	SyncToken        string     `bun:"sync_token"`
	ChannelID        string     `bun:"channel_id"`
	ChannelToken     string     `bun:"channel_token"`
	ResourceID       string     `bun:"resource_id"`
	ChannelExpiresAt *time.Time `bun:"channel_expires_at,nullzero"`
	LastSyncedAt     *time.Time `bun:"last_synced_at,nullzero"`
	CreatedAt        time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt        time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

type calendarEventRecord struct {
	bun.BaseModel `bun:"table:calendar_events,alias:ce"`

	ID               string         `bun:"id,pk"`
	IntegrationID    string         `bun:"integration_id,notnull"`
	CalendarID       string         `bun:"calendar_id,notnull"`
	ProviderEventID  string         `bun:"provider_event_id,notnull"`
	RecurringEventID string         `bun:"recurring_event_id"`
	Title            string         `bun:"title,notnull"`
	Description      string         `bun:"description"`
	Location         string         `bun:"location"`
	Status           string         `bun:"status,notnull"`
	AllDay           bool           `bun:"all_day,notnull"`
	StartAt          *time.Time     `bun:"start_at,nullzero"`
	EndAt            *time.Time     `bun:"end_at,nullzero"`
	RemoteUpdatedAt  string         `bun:"remote_updated_at"`
	Payload          map[string]any `bun:"payload,type:jsonb,notnull"`
	CreatedAt        time.Time      `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt        time.Time      `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}
