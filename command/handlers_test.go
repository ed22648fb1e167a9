package command

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-calendar-sync/core"
	gocmd "github.com/goliatone/go-command"
)

type stubSyncService struct {
	syncOneFn           func(ctx context.Context, integrationID string, calendarID string) error
	validAccessTokenFn  func(ctx context.Context, integrationID string) (string, error)
	ensureChannelFn     func(ctx context.Context, integrationID string, calendarID string, accessToken string) (core.ChannelInfo, error)
	routeNotificationFn func(ctx context.Context, n core.Notification) error
	createEventFn       func(ctx context.Context, req core.CreateEventRequest) (core.CalendarEvent, error)
	disconnectFn        func(ctx context.Context, integrationID string) error
}

func (s stubSyncService) SyncOne(ctx context.Context, integrationID string, calendarID string) error {
	if s.syncOneFn == nil {
		return nil
	}
	return s.syncOneFn(ctx, integrationID, calendarID)
}

func (s stubSyncService) ValidAccessToken(ctx context.Context, integrationID string) (string, error) {
	if s.validAccessTokenFn == nil {
		return "token", nil
	}
	return s.validAccessTokenFn(ctx, integrationID)
}

func (s stubSyncService) EnsureChannel(ctx context.Context, integrationID string, calendarID string, accessToken string) (core.ChannelInfo, error) {
	if s.ensureChannelFn == nil {
		return core.ChannelInfo{}, nil
	}
	return s.ensureChannelFn(ctx, integrationID, calendarID, accessToken)
}

func (s stubSyncService) RouteNotification(ctx context.Context, n core.Notification) error {
	if s.routeNotificationFn == nil {
		return nil
	}
	return s.routeNotificationFn(ctx, n)
}

func (s stubSyncService) CreateEvent(ctx context.Context, req core.CreateEventRequest) (core.CalendarEvent, error) {
	if s.createEventFn == nil {
		return core.CalendarEvent{}, nil
	}
	return s.createEventFn(ctx, req)
}

func (s stubSyncService) Disconnect(ctx context.Context, integrationID string) error {
	if s.disconnectFn == nil {
		return nil
	}
	return s.disconnectFn(ctx, integrationID)
}

func TestSyncCalendarCommand_Delegates(t *testing.T) {
	called := false
	svc := stubSyncService{
		syncOneFn: func(_ context.Context, integrationID string, calendarID string) error {
			called = true
			if integrationID != "int-1" || calendarID != "primary" {
				t.Fatalf("unexpected sync payload: %q %q", integrationID, calendarID)
			}
			return nil
		},
	}

	cmd := NewSyncCalendarCommand(svc)
	if err := cmd.Execute(context.Background(), SyncCalendarMessage{IntegrationID: "int-1", CalendarID: "primary"}); err != nil {
		t.Fatalf("execute sync: %v", err)
	}
	if !called {
		t.Fatalf("expected sync service invocation")
	}
}

func TestEnsureChannelCommand_ResolvesTokenAndStoresResult(t *testing.T) {
	expiresAt := time.Now().UTC().Add(24 * time.Hour)
	expected := core.ChannelInfo{ChannelID: "chan-1", ResourceID: "res-1", ExpiresAt: &expiresAt}

	svc := stubSyncService{
		validAccessTokenFn: func(_ context.Context, integrationID string) (string, error) {
			if integrationID != "int-1" {
				t.Fatalf("unexpected integration id %q", integrationID)
			}
			return "fresh-token", nil
		},
		ensureChannelFn: func(_ context.Context, _ string, _ string, accessToken string) (core.ChannelInfo, error) {
			if accessToken != "fresh-token" {
				t.Fatalf("expected resolved access token, got %q", accessToken)
			}
			return expected, nil
		},
	}

	cmd := NewEnsureChannelCommand(svc)
	collector := gocmd.NewResult[core.ChannelInfo]()
	ctx := gocmd.ContextWithResult(context.Background(), collector)

	if err := cmd.Execute(ctx, EnsureChannelMessage{IntegrationID: "int-1", CalendarID: "primary"}); err != nil {
		t.Fatalf("execute ensure channel: %v", err)
	}
	result, ok := collector.Load()
	if !ok {
		t.Fatalf("expected result to be stored")
	}
	if result.ChannelID != expected.ChannelID || result.ResourceID != expected.ResourceID {
		t.Fatalf("unexpected result: %#v", result)
	}
}

func TestEnsureChannelCommand_TokenFailureShortCircuits(t *testing.T) {
	tokenErr := errors.New("refresh failed")
	svc := stubSyncService{
		validAccessTokenFn: func(_ context.Context, _ string) (string, error) {
			return "", tokenErr
		},
		ensureChannelFn: func(_ context.Context, _ string, _ string, _ string) (core.ChannelInfo, error) {
			t.Fatal("channel provisioning must not run without a token")
			return core.ChannelInfo{}, nil
		},
	}

	cmd := NewEnsureChannelCommand(svc)
	if err := cmd.Execute(context.Background(), EnsureChannelMessage{IntegrationID: "int-1", CalendarID: "primary"}); !errors.Is(err, tokenErr) {
		t.Fatalf("expected token error, got %v", err)
	}
}

func TestRouteNotificationCommand_Delegates(t *testing.T) {
	called := false
	svc := stubSyncService{
		routeNotificationFn: func(_ context.Context, n core.Notification) error {
			called = true
			if n.ChannelID != "chan-1" || n.ResourceID != "res-1" {
				t.Fatalf("unexpected notification: %+v", n)
			}
			return nil
		},
	}

	cmd := NewRouteNotificationCommand(svc)
	err := cmd.Execute(context.Background(), RouteNotificationMessage{Notification: core.Notification{
		ChannelID:  "chan-1",
		ResourceID: "res-1",
	}})
	if err != nil {
		t.Fatalf("execute route notification: %v", err)
	}
	if !called {
		t.Fatalf("expected route invocation")
	}
}

func TestCreateEventCommand_StoresCreatedEvent(t *testing.T) {
	svc := stubSyncService{
		createEventFn: func(_ context.Context, req core.CreateEventRequest) (core.CalendarEvent, error) {
			return core.CalendarEvent{ProviderEventID: "gev-1", Title: req.Title}, nil
		},
	}

	cmd := NewCreateEventCommand(svc)
	collector := gocmd.NewResult[core.CalendarEvent]()
	ctx := gocmd.ContextWithResult(context.Background(), collector)

	err := cmd.Execute(ctx, CreateEventMessage{Request: core.CreateEventRequest{
		IntegrationID: "int-1",
		Title:         "Standup",
		StartAt:       time.Date(2026, 9, 2, 9, 0, 0, 0, time.UTC),
	}})
	if err != nil {
		t.Fatalf("execute create event: %v", err)
	}
	result, ok := collector.Load()
	if !ok {
		t.Fatalf("expected result to be stored")
	}
	if result.ProviderEventID != "gev-1" || result.Title != "Standup" {
		t.Fatalf("unexpected result: %#v", result)
	}
}

func TestDisconnectCommand_Delegates(t *testing.T) {
	called := false
	svc := stubSyncService{
		disconnectFn: func(_ context.Context, integrationID string) error {
			called = true
			if integrationID != "int-1" {
				t.Fatalf("unexpected integration id %q", integrationID)
			}
			return nil
		},
	}

	cmd := NewDisconnectCommand(svc)
	if err := cmd.Execute(context.Background(), DisconnectMessage{IntegrationID: "int-1"}); err != nil {
		t.Fatalf("execute disconnect: %v", err)
	}
	if !called {
		t.Fatalf("expected disconnect invocation")
	}
}

func TestMessageValidation(t *testing.T) {
	if err := (SyncCalendarMessage{}).Validate(); err == nil {
		t.Fatalf("expected sync message validation error")
	}
	if err := (SyncCalendarMessage{IntegrationID: "int-1"}).Validate(); err != nil {
		t.Fatalf("calendar id is optional for sync: %v", err)
	}
	if err := (EnsureChannelMessage{IntegrationID: "int-1"}).Validate(); err == nil {
		t.Fatalf("expected channel message to require calendar id")
	}
	if err := (RouteNotificationMessage{Notification: core.Notification{ChannelID: "chan-1"}}).Validate(); err == nil {
		t.Fatalf("expected notification message to require resource id")
	}
	if err := (RefreshCredentialMessage{}).Validate(); err == nil {
		t.Fatalf("expected refresh message validation error")
	}
	if err := (DisconnectMessage{}).Validate(); err == nil {
		t.Fatalf("expected disconnect message validation error")
	}
}
