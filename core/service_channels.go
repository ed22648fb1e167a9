package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// EnsureChannel provisions or renews the provider push channel for a
// (integration, calendar) pair. A stored channel identity is reused so that
// a repeated watch call before expiry renews instead of duplicating; fresh
// opaque identifiers are minted otherwise.
func (s *Service) EnsureChannel(ctx context.Context, integrationID string, calendarID string, accessToken string) (ChannelInfo, error) {
	if s == nil || s.syncStateStore == nil {
		return ChannelInfo{}, s.mapError(fmt.Errorf("core: sync state store is required"))
	}
	if s.provider == nil {
		return ChannelInfo{}, s.mapError(fmt.Errorf("core: calendar provider is required"))
	}
	integrationID = strings.TrimSpace(integrationID)
	calendarID = strings.TrimSpace(calendarID)
	if integrationID == "" || calendarID == "" {
		return ChannelInfo{}, s.mapError(fmt.Errorf("core: integration id and calendar id are required"))
	}

	channelID := ""
	channelToken := ""
	state, err := s.syncStateStore.GetByPair(ctx, integrationID, calendarID)
	switch {
	case err == nil:
		channelID = strings.TrimSpace(state.ChannelID)
		channelToken = strings.TrimSpace(state.ChannelToken)
	case errors.Is(err, ErrSyncStateNotFound):
	default:
		return ChannelInfo{}, s.mapError(err)
	}
	if channelID == "" {
		channelID = uuid.NewString()
	}
	if channelToken == "" {
		channelToken = uuid.NewString()
	}

	watch, err := s.provider.Watch(ctx, accessToken, calendarID, WatchRequest{
		ChannelID:    channelID,
		ChannelToken: channelToken,
		Address:      s.config.WebhookURL,
	})
	if err != nil {
		return ChannelInfo{}, s.mapError(err)
	}

	if _, err := s.syncStateStore.UpsertChannel(ctx, UpsertChannelInput{
		IntegrationID:    integrationID,
		CalendarID:       calendarID,
		ChannelID:        channelID,
		ChannelToken:     channelToken,
		ResourceID:       strings.TrimSpace(watch.ResourceID),
		ChannelExpiresAt: watch.ExpiresAt,
	}); err != nil {
		return ChannelInfo{}, s.mapError(err)
	}

	s.logInfo(ctx, "watch channel ensured", map[string]any{
		"integration_id": integrationID,
		"calendar_id":    calendarID,
		"channel_id":     channelID,
	})
	return ChannelInfo{
		ChannelID:    channelID,
		ChannelToken: channelToken,
		ResourceID:   strings.TrimSpace(watch.ResourceID),
		ExpiresAt:    watch.ExpiresAt,
	}, nil
}

// RouteNotification maps an inbound provider notification onto a sync run.
// Unknown channels and identity mismatches are dropped silently: delivery is
// at-least-once from channels that may be stale, so an unroutable
// notification is not an error condition worth surfacing.
func (s *Service) RouteNotification(ctx context.Context, n Notification) error {
	if s == nil || s.syncStateStore == nil {
		return s.mapError(fmt.Errorf("core: sync state store is required"))
	}
	channelID := strings.TrimSpace(n.ChannelID)
	if channelID == "" {
		return s.mapError(fmt.Errorf("core: channel id is required"))
	}

	state, err := s.syncStateStore.GetByChannel(ctx, channelID)
	if err != nil {
		if errors.Is(err, ErrSyncStateNotFound) {
			s.logDebug(ctx, "dropping notification for unknown channel", map[string]any{
				"channel_id": channelID,
			})
			return nil
		}
		return s.mapError(err)
	}

	if resourceID := strings.TrimSpace(n.ResourceID); resourceID != "" && resourceID != state.ResourceID {
		s.logDebug(ctx, "dropping notification with mismatched resource id", map[string]any{
			"channel_id": channelID,
		})
		return nil
	}
	if token := strings.TrimSpace(n.ChannelToken); token != "" && token != state.ChannelToken {
		s.logDebug(ctx, "dropping notification with mismatched channel token", map[string]any{
			"channel_id": channelID,
		})
		return nil
	}

	return s.SyncOne(ctx, state.IntegrationID, state.CalendarID)
}
