package command

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-calendar-sync/core"
)

const (
	TypeSyncCalendar      = "calsync.command.sync"
	TypeEnsureChannel     = "calsync.command.channel.ensure"
	TypeRouteNotification = "calsync.command.notification.route"
	TypeRefreshCredential = "calsync.command.credential.refresh"
	TypeCreateEvent       = "calsync.command.event.create"
	TypeDisconnect        = "calsync.command.disconnect"
)

type SyncCalendarMessage struct {
	IntegrationID string
	CalendarID    string
}

func (SyncCalendarMessage) Type() string { return TypeSyncCalendar }

func (m SyncCalendarMessage) Validate() error {
	if strings.TrimSpace(m.IntegrationID) == "" {
		return fmt.Errorf("command: integration id is required")
	}
	return nil
}

type EnsureChannelMessage struct {
	IntegrationID string
	CalendarID    string
}

func (EnsureChannelMessage) Type() string { return TypeEnsureChannel }

func (m EnsureChannelMessage) Validate() error {
	if strings.TrimSpace(m.IntegrationID) == "" {
		return fmt.Errorf("command: integration id is required")
	}
	if strings.TrimSpace(m.CalendarID) == "" {
		return fmt.Errorf("command: calendar id is required")
	}
	return nil
}

type RouteNotificationMessage struct {
	Notification core.Notification
}

func (RouteNotificationMessage) Type() string { return TypeRouteNotification }

func (m RouteNotificationMessage) Validate() error {
	if strings.TrimSpace(m.Notification.ChannelID) == "" {
		return fmt.Errorf("command: channel id is required")
	}
	if strings.TrimSpace(m.Notification.ResourceID) == "" {
		return fmt.Errorf("command: resource id is required")
	}
	return nil
}

type RefreshCredentialMessage struct {
	IntegrationID string
}

func (RefreshCredentialMessage) Type() string { return TypeRefreshCredential }

func (m RefreshCredentialMessage) Validate() error {
	if strings.TrimSpace(m.IntegrationID) == "" {
		return fmt.Errorf("command: integration id is required")
	}
	return nil
}

type CreateEventMessage struct {
	Request core.CreateEventRequest
}

func (CreateEventMessage) Type() string { return TypeCreateEvent }

func (m CreateEventMessage) Validate() error {
	if strings.TrimSpace(m.Request.IntegrationID) == "" {
		return commandValidationError("integration_id", "integration id is required")
	}
	if strings.TrimSpace(m.Request.Title) == "" {
		return commandValidationError("title", "event title is required")
	}
	return nil
}

type DisconnectMessage struct {
	IntegrationID string
}

func (DisconnectMessage) Type() string { return TypeDisconnect }

func (m DisconnectMessage) Validate() error {
	if strings.TrimSpace(m.IntegrationID) == "" {
		return fmt.Errorf("command: integration id is required")
	}
	return nil
}
