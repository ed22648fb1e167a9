package command

import (
	"context"

	"github.com/goliatone/go-calendar-sync/core"
	gocmd "github.com/goliatone/go-command"
)

// SyncService is the engine surface the command layer drives.
type SyncService interface {
	SyncOne(ctx context.Context, integrationID string, calendarID string) error
	ValidAccessToken(ctx context.Context, integrationID string) (string, error)
	EnsureChannel(ctx context.Context, integrationID string, calendarID string, accessToken string) (core.ChannelInfo, error)
	RouteNotification(ctx context.Context, n core.Notification) error
	CreateEvent(ctx context.Context, req core.CreateEventRequest) (core.CalendarEvent, error)
	Disconnect(ctx context.Context, integrationID string) error
}

type SyncCalendarCommand struct {
	service SyncService
}

func NewSyncCalendarCommand(service SyncService) *SyncCalendarCommand {
	return &SyncCalendarCommand{service: service}
}

func (c *SyncCalendarCommand) Execute(ctx context.Context, msg SyncCalendarMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: sync service is required")
	}
	return c.service.SyncOne(ctx, msg.IntegrationID, msg.CalendarID)
}

type EnsureChannelCommand struct {
	service SyncService
}

func NewEnsureChannelCommand(service SyncService) *EnsureChannelCommand {
	return &EnsureChannelCommand{service: service}
}

func (c *EnsureChannelCommand) Execute(ctx context.Context, msg EnsureChannelMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: channel service is required")
	}
	accessToken, err := c.service.ValidAccessToken(ctx, msg.IntegrationID)
	if err != nil {
		return err
	}
	out, err := c.service.EnsureChannel(ctx, msg.IntegrationID, msg.CalendarID, accessToken)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type RouteNotificationCommand struct {
	service SyncService
}

func NewRouteNotificationCommand(service SyncService) *RouteNotificationCommand {
	return &RouteNotificationCommand{service: service}
}

func (c *RouteNotificationCommand) Execute(ctx context.Context, msg RouteNotificationMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: notification service is required")
	}
	return c.service.RouteNotification(ctx, msg.Notification)
}

type RefreshCredentialCommand struct {
	service SyncService
}

func NewRefreshCredentialCommand(service SyncService) *RefreshCredentialCommand {
	return &RefreshCredentialCommand{service: service}
}

func (c *RefreshCredentialCommand) Execute(ctx context.Context, msg RefreshCredentialMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: credential service is required")
	}
	out, err := c.service.ValidAccessToken(ctx, msg.IntegrationID)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type CreateEventCommand struct {
	service SyncService
}

func NewCreateEventCommand(service SyncService) *CreateEventCommand {
	return &CreateEventCommand{service: service}
}

func (c *CreateEventCommand) Execute(ctx context.Context, msg CreateEventMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: event service is required")
	}
	out, err := c.service.CreateEvent(ctx, msg.Request)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type DisconnectCommand struct {
	service SyncService
}

func NewDisconnectCommand(service SyncService) *DisconnectCommand {
	return &DisconnectCommand{service: service}
}

func (c *DisconnectCommand) Execute(ctx context.Context, msg DisconnectMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: disconnect service is required")
	}
	return c.service.Disconnect(ctx, msg.IntegrationID)
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
