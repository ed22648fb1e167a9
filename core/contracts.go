package core

import (
	"context"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

type Logger = glog.Logger

type FieldsLogger = glog.FieldsLogger

type LoggerProvider = glog.LoggerProvider

type CreateIntegrationInput struct {
	UserID      string
	WorkspaceID string
	Status      IntegrationStatus
}

// IntegrationStore persists integration rows. Implementations must treat
// Disable as a soft delete.
type IntegrationStore interface {
	Get(ctx context.Context, id string) (Integration, error)
	Create(ctx context.Context, in CreateIntegrationInput) (Integration, error)
	// SetPrimaryCalendar persists the resolved calendar id and flips the
	// integration to connected in the same write.
	SetPrimaryCalendar(ctx context.Context, id string, calendarID string) (Integration, error)
	SetStatus(ctx context.Context, id string, status IntegrationStatus, reason string) error
	// RecordRefreshFailure increments and returns the consecutive refresh
	// failure count for the integration.
	RecordRefreshFailure(ctx context.Context, id string, reason string) (int, error)
	ClearRefreshFailures(ctx context.Context, id string) error
	Disable(ctx context.Context, id string, reason string) error
}

type SaveCredentialInput struct {
	IntegrationID string
	AccessToken   string
	RefreshToken  string
	ExpiresAt     *time.Time
}

// CredentialStore persists the token triple. RotateAccessToken must replace
// the access token and expiry in the same row atomically.
type CredentialStore interface {
	GetByIntegration(ctx context.Context, integrationID string) (Credential, error)
	Save(ctx context.Context, in SaveCredentialInput) (Credential, error)
	RotateAccessToken(ctx context.Context, integrationID string, accessToken string, expiresAt time.Time) (Credential, error)
}

type UpsertCursorInput struct {
	IntegrationID string
	CalendarID    string
	SyncToken     string
	LastSyncedAt  *time.Time
}

type UpsertChannelInput struct {
	IntegrationID    string
	CalendarID       string
	ChannelID        string
	ChannelToken     string
	ResourceID       string
	ChannelExpiresAt *time.Time
}

// SyncStateStore persists per-pair sync state, upserted by the
// (integration id, calendar id) unique key.
type SyncStateStore interface {
	GetByPair(ctx context.Context, integrationID string, calendarID string) (SyncState, error)
	GetByChannel(ctx context.Context, channelID string) (SyncState, error)
	UpsertCursor(ctx context.Context, in UpsertCursorInput) (SyncState, error)
	UpsertChannel(ctx context.Context, in UpsertChannelInput) (SyncState, error)
	ClearCursor(ctx context.Context, integrationID string, calendarID string) error
}

type UpsertEventInput struct {
	IntegrationID    string
	CalendarID       string
	ProviderEventID  string
	RecurringEventID string
	Title            string
	Description      string
	Location         string
	Status           string
	AllDay           bool
	StartAt          *time.Time
	EndAt            *time.Time
	RemoteUpdatedAt  string
	Payload          map[string]any
}

type ListEventsQuery struct {
	IntegrationID    string
	From             time.Time
	To               time.Time
	IncludeCancelled bool
}

// EventStore persists the local event mirror. UpsertBatch must be idempotent
// on the (integration id, provider event id) key.
type EventStore interface {
	UpsertBatch(ctx context.Context, rows []UpsertEventInput) (int, error)
	ListWindow(ctx context.Context, q ListEventsQuery) ([]CalendarEvent, error)
	Get(ctx context.Context, integrationID string, providerEventID string) (CalendarEvent, error)
}

// TokenGrant is the provider token-refresh response.
type TokenGrant struct {
	AccessToken string
	ExpiresIn   int64
}

type CalendarListEntry struct {
	ID       string
	Summary  string
	TimeZone string
	Primary  bool
}

// EventTime is the provider's date-or-datetime union. Exactly one of Date
// (all-day) or DateTime is set when present.
type EventTime struct {
	Date     string
	DateTime string
	TimeZone string
}

func (t EventTime) IsZero() bool {
	return t.Date == "" && t.DateTime == ""
}

// ProviderEvent is the event shape consumed from the provider list endpoint.
// Raw keeps the full provider payload for forward compatibility.
type ProviderEvent struct {
	ID               string
	RecurringEventID string
	Summary          string
	Description      string
	Location         string
	Status           string
	Updated          string
	Start            EventTime
	End              EventTime
	Raw              map[string]any
}

type ListEventsOptions struct {
	SyncToken string
	TimeMin   *time.Time
	TimeMax   *time.Time
}

// EventPage is one delta-list response. NextSyncToken is empty mid
// pagination; that is expected, not an error.
type EventPage struct {
	Items         []ProviderEvent
	NextSyncToken string
}

type WatchRequest struct {
	ChannelID    string
	ChannelToken string
	Address      string
}

type WatchResult struct {
	ResourceID string
	ExpiresAt  *time.Time
}

type InsertEventInput struct {
	Summary     string
	Description string
	Location    string
	Start       EventTime
	End         EventTime
}

// CalendarProvider is the abstract contract against the external calendar
// API. Implementations must surface a cursor-invalid list failure as
// ErrCursorInvalid and a revoked refresh token as ErrInvalidGrant, both via
// errors.Is.
type CalendarProvider interface {
	RefreshToken(ctx context.Context, refreshToken string) (TokenGrant, error)
	ListCalendars(ctx context.Context, accessToken string) ([]CalendarListEntry, error)
	ListEvents(ctx context.Context, accessToken string, calendarID string, opts ListEventsOptions) (EventPage, error)
	Watch(ctx context.Context, accessToken string, calendarID string, req WatchRequest) (WatchResult, error)
	Stop(ctx context.Context, accessToken string, channelID string, resourceID string) error
	InsertEvent(ctx context.Context, accessToken string, calendarID string, in InsertEventInput) (ProviderEvent, error)
}

// StoreProvider bundles the persistence surface consumed by the engine.
type StoreProvider interface {
	IntegrationStore() IntegrationStore
	CredentialStore() CredentialStore
	SyncStateStore() SyncStateStore
	EventStore() EventStore
}
