package command

import gocmd "github.com/goliatone/go-command"

var (
	_ gocmd.Commander[SyncCalendarMessage]      = (*SyncCalendarCommand)(nil)
	_ gocmd.Commander[EnsureChannelMessage]     = (*EnsureChannelCommand)(nil)
	_ gocmd.Commander[RouteNotificationMessage] = (*RouteNotificationCommand)(nil)
	_ gocmd.Commander[RefreshCredentialMessage] = (*RefreshCredentialCommand)(nil)
	_ gocmd.Commander[CreateEventMessage]       = (*CreateEventCommand)(nil)
	_ gocmd.Commander[DisconnectMessage]        = (*DisconnectCommand)(nil)
)
