package calendarsync

import "github.com/goliatone/go-calendar-sync/core"

type Config = core.Config

type SyncWindowConfig = core.SyncWindowConfig

type Option = core.Option

type Service = core.Service

type Integration = core.Integration
type Credential = core.Credential
type SyncState = core.SyncState
type CalendarEvent = core.CalendarEvent
type ChannelInfo = core.ChannelInfo
type Notification = core.Notification
type IntegrationStatusInfo = core.IntegrationStatusInfo

type CreateEventRequest = core.CreateEventRequest
type CreateIntegrationInput = core.CreateIntegrationInput

type CalendarProvider = core.CalendarProvider
type StoreProvider = core.StoreProvider
type IntegrationStore = core.IntegrationStore
type CredentialStore = core.CredentialStore
type SyncStateStore = core.SyncStateStore
type EventStore = core.EventStore

var (
	WithLogger           = core.WithLogger
	WithLoggerProvider   = core.WithLoggerProvider
	WithErrorMapper      = core.WithErrorMapper
	WithConfigProvider   = core.WithConfigProvider
	WithOptionsResolver  = core.WithOptionsResolver
	WithCalendarProvider = core.WithCalendarProvider
	WithIntegrationStore = core.WithIntegrationStore
	WithCredentialStore  = core.WithCredentialStore
	WithSyncStateStore   = core.WithSyncStateStore
	WithEventStore       = core.WithEventStore
	WithStoreProvider    = core.WithStoreProvider
	WithNow              = core.WithNow
)

func DefaultConfig() Config {
	return core.DefaultConfig()
}

func NewService(cfg Config, opts ...Option) (*Service, error) {
	return core.NewService(cfg, opts...)
}

func Setup(cfg Config, opts ...Option) (*Service, error) {
	return core.NewService(cfg, opts...)
}
