package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

type CreateEventRequest struct {
	IntegrationID string
	Title         string
	Description   string
	Location      string
	StartAt       time.Time
	EndAt         time.Time
	AllDay        bool
	TimeZone      string
}

// CreateEvent pushes a locally authored event to the integration's primary
// calendar and mirrors the provider's resulting row locally. The provider
// remains authoritative: the mirror is whatever the provider echoed back.
func (s *Service) CreateEvent(ctx context.Context, req CreateEventRequest) (CalendarEvent, error) {
	if s == nil || s.integrationStore == nil || s.eventStore == nil {
		return CalendarEvent{}, s.mapError(fmt.Errorf("core: integration and event stores are required"))
	}
	if s.provider == nil {
		return CalendarEvent{}, s.mapError(fmt.Errorf("core: calendar provider is required"))
	}
	integrationID := strings.TrimSpace(req.IntegrationID)
	if integrationID == "" {
		return CalendarEvent{}, s.mapError(fmt.Errorf("core: integration id is required"))
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return CalendarEvent{}, s.mapError(fmt.Errorf("core: event title is required"))
	}
	if req.StartAt.IsZero() {
		return CalendarEvent{}, s.mapError(fmt.Errorf("core: event start time is required"))
	}

	integration, err := s.integrationStore.Get(ctx, integrationID)
	if err != nil {
		return CalendarEvent{}, s.mapError(err)
	}
	calendarID := strings.TrimSpace(integration.PrimaryCalendarID)
	if calendarID == "" {
		return CalendarEvent{}, s.mapError(fmt.Errorf("%w: integration %s", ErrNoPrimaryCalendar, integrationID))
	}

	start, end, err := resolveEventSpan(req)
	if err != nil {
		return CalendarEvent{}, s.mapError(err)
	}

	accessToken, err := s.ValidAccessToken(ctx, integrationID)
	if err != nil {
		return CalendarEvent{}, err
	}

	created, err := s.provider.InsertEvent(ctx, accessToken, calendarID, InsertEventInput{
		Summary:     title,
		Description: req.Description,
		Location:    req.Location,
		Start:       start,
		End:         end,
	})
	if err != nil {
		return CalendarEvent{}, s.mapError(err)
	}

	row, ok := MapProviderEvent(integrationID, calendarID, created)
	if !ok {
		return CalendarEvent{}, s.mapError(fmt.Errorf("core: provider returned created event without id"))
	}
	if _, err := s.eventStore.UpsertBatch(ctx, []UpsertEventInput{row}); err != nil {
		return CalendarEvent{}, s.mapError(err)
	}

	return s.eventStore.Get(ctx, integrationID, row.ProviderEventID)
}

// resolveEventSpan builds the provider date-or-datetime union for a new
// event. All-day events span one day from the start date; timed events must
// end after they start.
func resolveEventSpan(req CreateEventRequest) (EventTime, EventTime, error) {
	startAt := req.StartAt.UTC()
	if req.AllDay {
		endAt := startAt.Add(24 * time.Hour)
		return EventTime{Date: startAt.Format(allDayDateLayout)},
			EventTime{Date: endAt.Format(allDayDateLayout)},
			nil
	}

	endAt := req.EndAt.UTC()
	if req.EndAt.IsZero() {
		endAt = startAt
	}
	if !endAt.After(startAt) {
		return EventTime{}, EventTime{}, fmt.Errorf("core: event time range is invalid")
	}
	timeZone := strings.TrimSpace(req.TimeZone)
	return EventTime{DateTime: startAt.Format(time.RFC3339), TimeZone: timeZone},
		EventTime{DateTime: endAt.Format(time.RFC3339), TimeZone: timeZone},
		nil
}

// ListLocalEvents reads the local mirror for a bounded window, excluding
// cancelled rows, ordered by start. Zero bounds default to the configured
// local window around now.
func (s *Service) ListLocalEvents(ctx context.Context, integrationID string, from time.Time, to time.Time) ([]CalendarEvent, error) {
	if s == nil || s.eventStore == nil {
		return nil, s.mapError(fmt.Errorf("core: event store is required"))
	}
	integrationID = strings.TrimSpace(integrationID)
	if integrationID == "" {
		return nil, s.mapError(fmt.Errorf("core: integration id is required"))
	}

	now := s.now()
	if from.IsZero() {
		from = now.AddDate(0, 0, -s.localWindowPastDays())
	}
	if to.IsZero() {
		to = now.AddDate(0, 0, s.localWindowFutureDays())
	}

	events, err := s.eventStore.ListWindow(ctx, ListEventsQuery{
		IntegrationID: integrationID,
		From:          from.UTC(),
		To:            to.UTC(),
	})
	if err != nil {
		return nil, s.mapError(err)
	}
	return events, nil
}

// Disconnect stops the push channel (best effort; stop failures never block
// a disconnect) and soft-disables the integration.
func (s *Service) Disconnect(ctx context.Context, integrationID string) error {
	if s == nil || s.integrationStore == nil {
		return s.mapError(fmt.Errorf("core: integration store is required"))
	}
	integrationID = strings.TrimSpace(integrationID)
	if integrationID == "" {
		return s.mapError(fmt.Errorf("core: integration id is required"))
	}

	integration, err := s.integrationStore.Get(ctx, integrationID)
	if err != nil {
		if errors.Is(err, ErrIntegrationNotFound) {
			return nil
		}
		return s.mapError(err)
	}

	s.stopChannelBestEffort(ctx, integration)

	if err := s.integrationStore.Disable(ctx, integrationID, "disconnected"); err != nil {
		return s.mapError(err)
	}
	s.logInfo(ctx, "integration disconnected", map[string]any{
		"integration_id": integrationID,
	})
	return nil
}

func (s *Service) stopChannelBestEffort(ctx context.Context, integration Integration) {
	if s.syncStateStore == nil || s.provider == nil {
		return
	}
	calendarID := strings.TrimSpace(integration.PrimaryCalendarID)
	if calendarID == "" {
		return
	}
	state, err := s.syncStateStore.GetByPair(ctx, integration.ID, calendarID)
	if err != nil || !state.HasChannel() || strings.TrimSpace(state.ResourceID) == "" {
		return
	}
	accessToken, err := s.ValidAccessToken(ctx, integration.ID)
	if err != nil {
		return
	}
	if err := s.provider.Stop(ctx, accessToken, state.ChannelID, state.ResourceID); err != nil {
		s.logWarn(ctx, "stop watch channel", map[string]any{
			"integration_id": integration.ID,
			"channel_id":     state.ChannelID,
			"error":          err.Error(),
		})
	}
}

// Status reports the integration's connection state and last sync marker.
func (s *Service) Status(ctx context.Context, integrationID string) (IntegrationStatusInfo, error) {
	if s == nil || s.integrationStore == nil {
		return IntegrationStatusInfo{}, s.mapError(fmt.Errorf("core: integration store is required"))
	}
	integrationID = strings.TrimSpace(integrationID)
	if integrationID == "" {
		return IntegrationStatusInfo{}, s.mapError(fmt.Errorf("core: integration id is required"))
	}

	integration, err := s.integrationStore.Get(ctx, integrationID)
	if err != nil {
		return IntegrationStatusInfo{}, s.mapError(err)
	}

	info := IntegrationStatusInfo{
		IntegrationID:     integration.ID,
		Status:            integration.Status,
		PrimaryCalendarID: integration.PrimaryCalendarID,
	}
	if s.syncStateStore != nil && strings.TrimSpace(integration.PrimaryCalendarID) != "" {
		if state, stateErr := s.syncStateStore.GetByPair(ctx, integration.ID, integration.PrimaryCalendarID); stateErr == nil {
			info.ChannelExpiresAt = state.ChannelExpiresAt
			info.LastSyncedAt = state.LastSyncedAt
		}
	}
	return info, nil
}

func (s *Service) localWindowPastDays() int {
	if s != nil && s.config.LocalWindow.PastDays > 0 {
		return s.config.LocalWindow.PastDays
	}
	return 30
}

func (s *Service) localWindowFutureDays() int {
	if s != nil && s.config.LocalWindow.FutureDays > 0 {
		return s.config.LocalWindow.FutureDays
	}
	return 60
}
