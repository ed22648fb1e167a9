package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidIntegrationStatusTransition = errors.New("core: invalid integration status transition")
	ErrIntegrationNotFound                = errors.New("core: integration not found")
	ErrSyncStateNotFound                  = errors.New("core: sync state not found")
	ErrEventNotFound                      = errors.New("core: calendar event not found")
)

type IntegrationStatus string

const (
	IntegrationStatusPending   IntegrationStatus = "pending"
	IntegrationStatusConnected IntegrationStatus = "connected"
	IntegrationStatusErrored   IntegrationStatus = "error"
	IntegrationStatusDisabled  IntegrationStatus = "disabled"
)

// Integration is one user's connection to the external calendar provider.
// Integrations are soft-disabled rather than deleted while the owning
// account exists.
type Integration struct {
	ID                string
	UserID            string
	WorkspaceID       string
	Status            IntegrationStatus
	PrimaryCalendarID string
	RefreshFailures   int
	LastError         string
	CreatedAt         time.Time
	UpdatedAt         time.Time
	DisabledAt        *time.Time
}

func (i *Integration) TransitionTo(status IntegrationStatus, reason string, now time.Time) error {
	if i == nil {
		return nil
	}
	if i.Status == status {
		i.UpdatedAt = now
		if strings.TrimSpace(reason) != "" {
			i.LastError = strings.TrimSpace(reason)
		}
		return nil
	}
	if !integrationTransitionAllowed(i.Status, status) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidIntegrationStatusTransition, i.Status, status)
	}
	i.Status = status
	i.UpdatedAt = now
	if strings.TrimSpace(reason) != "" {
		i.LastError = strings.TrimSpace(reason)
	}
	if status == IntegrationStatusConnected {
		i.LastError = ""
	}
	return nil
}

func integrationTransitionAllowed(current, next IntegrationStatus) bool {
	allowed := map[IntegrationStatus]map[IntegrationStatus]struct{}{
		IntegrationStatusPending: {
			IntegrationStatusConnected: {},
			IntegrationStatusErrored:   {},
			IntegrationStatusDisabled:  {},
		},
		IntegrationStatusConnected: {
			IntegrationStatusErrored:  {},
			IntegrationStatusDisabled: {},
		},
		IntegrationStatusErrored: {
			IntegrationStatusConnected: {},
			IntegrationStatusDisabled:  {},
		},
		IntegrationStatusDisabled: {
			IntegrationStatusPending:   {},
			IntegrationStatusConnected: {},
		},
	}
	_, ok := allowed[current][next]
	return ok
}

// Credential is the provider token triple for an integration. Exactly one
// credential row exists per integration; the access token and expiry are
// always replaced together.
type Credential struct {
	ID            string
	IntegrationID string
	AccessToken   string
	RefreshToken  string
	ExpiresAt     *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// SyncState carries the resumption cursor and push-channel identity for one
// (integration, calendar) pair, which is its unique key. An empty SyncToken
// means the next run must be a full sync.
type SyncState struct {
	ID               string
	IntegrationID    string
	CalendarID       string
	SyncToken        string
	ChannelID        string
	ChannelToken     string
	ResourceID       string
	ChannelExpiresAt *time.Time
	LastSyncedAt     *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// HasChannel reports whether a push channel identity has been provisioned.
func (s SyncState) HasChannel() bool {
	return strings.TrimSpace(s.ChannelID) != ""
}

const EventStatusCancelled = "cancelled"

// CalendarEvent is the local mirror of one provider event, keyed by
// (integration id, provider event id). Deletions arrive as events carrying a
// cancelled status, never as omissions.
type CalendarEvent struct {
	ID               string
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
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (e CalendarEvent) Cancelled() bool {
	return strings.EqualFold(strings.TrimSpace(e.Status), EventStatusCancelled)
}

// ChannelInfo is the provisioned push-channel identity returned to callers
// of EnsureChannel.
type ChannelInfo struct {
	ChannelID    string
	ChannelToken string
	ResourceID   string
	ExpiresAt    *time.Time
}

// Notification is the payload contract extracted from a provider push
// request. It carries no statement about which events changed beyond
// "something changed".
type Notification struct {
	ChannelID     string
	ResourceID    string
	ChannelToken  string
	ResourceState string
	MessageNumber string
}

// IntegrationStatusInfo is the read-side summary exposed to status callers.
type IntegrationStatusInfo struct {
	IntegrationID     string
	Status            IntegrationStatus
	PrimaryCalendarID string
	ChannelExpiresAt  *time.Time
	LastSyncedAt      *time.Time
}
