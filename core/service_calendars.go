package core

import (
	"context"
	"fmt"
	"strings"
)

// EnsurePrimaryCalendar resolves the provider's primary calendar id for an
// integration. A previously resolved id is returned without a network call;
// otherwise the provider's calendar list is queried, the resolved id is
// persisted and the integration flips to connected in the same write.
func (s *Service) EnsurePrimaryCalendar(ctx context.Context, integrationID string, accessToken string) (string, error) {
	if s == nil || s.integrationStore == nil {
		return "", s.mapError(fmt.Errorf("core: integration store is required"))
	}
	if s.provider == nil {
		return "", s.mapError(fmt.Errorf("core: calendar provider is required"))
	}
	integrationID = strings.TrimSpace(integrationID)
	if integrationID == "" {
		return "", s.mapError(fmt.Errorf("core: integration id is required"))
	}

	integration, err := s.integrationStore.Get(ctx, integrationID)
	if err != nil {
		return "", s.mapError(err)
	}
	if calendarID := strings.TrimSpace(integration.PrimaryCalendarID); calendarID != "" {
		return calendarID, nil
	}

	entries, err := s.provider.ListCalendars(ctx, accessToken)
	if err != nil {
		return "", s.mapError(err)
	}

	primaryID := ""
	for _, entry := range entries {
		if entry.Primary && strings.TrimSpace(entry.ID) != "" {
			primaryID = strings.TrimSpace(entry.ID)
			break
		}
	}
	if primaryID == "" {
		return "", s.mapError(fmt.Errorf("%w: integration %s", ErrNoPrimaryCalendar, integrationID))
	}

	if _, err := s.integrationStore.SetPrimaryCalendar(ctx, integrationID, primaryID); err != nil {
		return "", s.mapError(err)
	}

	s.logInfo(ctx, "primary calendar resolved", map[string]any{
		"integration_id": integrationID,
		"calendar_id":    primaryID,
	})
	return primaryID, nil
}
