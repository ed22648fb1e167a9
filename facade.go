package calendarsync

import (
	"fmt"

	calsynccommand "github.com/goliatone/go-calendar-sync/command"
)

// CommandService is the engine surface the facade hands to the command layer.
type CommandService = calsynccommand.SyncService

// Commands bundles the ready-to-dispatch command handlers for schedulers and
// webhook routers.
type Commands struct {
	Sync              *calsynccommand.SyncCalendarCommand
	EnsureChannel     *calsynccommand.EnsureChannelCommand
	RouteNotification *calsynccommand.RouteNotificationCommand
	RefreshCredential *calsynccommand.RefreshCredentialCommand
	CreateEvent       *calsynccommand.CreateEventCommand
	Disconnect        *calsynccommand.DisconnectCommand
}

type Facade struct {
	service  CommandService
	commands Commands
}

func NewFacade(service CommandService) (*Facade, error) {
	if service == nil {
		return nil, fmt.Errorf("calendarsync: command service is required")
	}

	facade := &Facade{service: service}
	facade.commands = Commands{
		Sync:              calsynccommand.NewSyncCalendarCommand(service),
		EnsureChannel:     calsynccommand.NewEnsureChannelCommand(service),
		RouteNotification: calsynccommand.NewRouteNotificationCommand(service),
		RefreshCredential: calsynccommand.NewRefreshCredentialCommand(service),
		CreateEvent:       calsynccommand.NewCreateEventCommand(service),
		Disconnect:        calsynccommand.NewDisconnectCommand(service),
	}
	return facade, nil
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

func (f *Facade) Service() CommandService {
	if f == nil {
		return nil
	}
	return f.service
}
