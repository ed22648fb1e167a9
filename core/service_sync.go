package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// SyncOne runs the delta-sync protocol for one (integration, calendar) pair.
// A stored cursor selects an incremental fetch; its absence, or the
// provider's cursor-invalid condition, selects a bounded full fetch. Event
// rows are batch-upserted before the new cursor is written, so a failure or
// crash between the two steps only causes the next run to refetch the same
// page, which upserts harmlessly. Concurrent runs for the same pair converge
// for the same reason; the engine takes no locks.
func (s *Service) SyncOne(ctx context.Context, integrationID string, calendarID string) error {
	if s == nil || s.syncStateStore == nil || s.eventStore == nil {
		return s.mapError(fmt.Errorf("core: sync state and event stores are required"))
	}
	if s.provider == nil {
		return s.mapError(fmt.Errorf("core: calendar provider is required"))
	}
	integrationID = strings.TrimSpace(integrationID)
	if integrationID == "" {
		return s.mapError(fmt.Errorf("core: integration id is required"))
	}

	accessToken, err := s.ValidAccessToken(ctx, integrationID)
	if err != nil {
		return err
	}

	calendarID = strings.TrimSpace(calendarID)
	if calendarID == "" {
		calendarID, err = s.EnsurePrimaryCalendar(ctx, integrationID, accessToken)
		if err != nil {
			return err
		}
	}

	syncToken := ""
	state, err := s.syncStateStore.GetByPair(ctx, integrationID, calendarID)
	switch {
	case err == nil:
		syncToken = strings.TrimSpace(state.SyncToken)
	case errors.Is(err, ErrSyncStateNotFound):
		// first sync for the pair; state row is created lazily below
	default:
		return s.mapError(err)
	}

	now := s.now()
	timeMin, timeMax := s.fullSyncWindow(now)

	page, err := s.provider.ListEvents(ctx, accessToken, calendarID, ListEventsOptions{
		SyncToken: syncToken,
		TimeMin:   timeMin,
		TimeMax:   timeMax,
	})
	if err != nil && syncToken != "" && errors.Is(err, ErrCursorInvalid) {
		// the one automatic fallback: stale cursor forces a bounded resync
		if clearErr := s.syncStateStore.ClearCursor(ctx, integrationID, calendarID); clearErr != nil {
			return s.mapError(clearErr)
		}
		s.logInfo(ctx, "sync cursor expired, falling back to full sync", map[string]any{
			"integration_id": integrationID,
			"calendar_id":    calendarID,
		})
		page, err = s.provider.ListEvents(ctx, accessToken, calendarID, ListEventsOptions{
			TimeMin: timeMin,
			TimeMax: timeMax,
		})
	}
	if err != nil {
		return s.mapError(err)
	}

	rows := make([]UpsertEventInput, 0, len(page.Items))
	for _, item := range page.Items {
		row, ok := MapProviderEvent(integrationID, calendarID, item)
		if !ok {
			s.logWarn(ctx, "skipping provider event without id", map[string]any{
				"integration_id": integrationID,
				"calendar_id":    calendarID,
			})
			continue
		}
		rows = append(rows, row)
	}

	if len(rows) > 0 {
		if _, err := s.eventStore.UpsertBatch(ctx, rows); err != nil {
			return s.mapError(err)
		}
	}

	if nextToken := strings.TrimSpace(page.NextSyncToken); nextToken != "" {
		syncedAt := now
		if _, err := s.syncStateStore.UpsertCursor(ctx, UpsertCursorInput{
			IntegrationID: integrationID,
			CalendarID:    calendarID,
			SyncToken:     nextToken,
			LastSyncedAt:  &syncedAt,
		}); err != nil {
			return s.mapError(err)
		}
	}

	s.logInfo(ctx, "calendar synced", map[string]any{
		"integration_id": integrationID,
		"calendar_id":    calendarID,
		"events":         len(rows),
		"incremental":    syncToken != "",
	})
	return nil
}

// fullSyncWindow bounds a full fetch so accounts with years of history do
// not force an unbounded first sync. An inverted or empty window disables
// the bounds instead of failing the run.
func (s *Service) fullSyncWindow(now time.Time) (*time.Time, *time.Time) {
	past := s.config.SyncWindow.PastDays
	future := s.config.SyncWindow.FutureDays
	min := now.AddDate(0, 0, -past)
	max := now.AddDate(0, 0, future)
	if !max.After(min) {
		return nil, nil
	}
	return &min, &max
}
