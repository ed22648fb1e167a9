package sqlstore

import (
	"time"

	"github.com/goliatone/go-calendar-sync/core"
)

func newIntegrationRecord(in core.CreateIntegrationInput, now time.Time) *integrationRecord {
	status := in.Status
	if status == "" {
		status = core.IntegrationStatusPending
	}
	return &integrationRecord{
		UserID:      in.UserID,
		WorkspaceID: in.WorkspaceID,
		Status:      string(status),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (r *integrationRecord) toDomain() core.Integration {
	if r == nil {
		return core.Integration{}
	}
	integration := core.Integration{
		ID:                r.ID,
		UserID:            r.UserID,
		WorkspaceID:       r.WorkspaceID,
		Status:            core.IntegrationStatus(r.Status),
		PrimaryCalendarID: r.PrimaryCalendarID,
		RefreshFailures:   r.RefreshFailures,
		LastError:         r.LastError,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
	integration.DisabledAt = cloneTimePointer(r.DisabledAt)
	return integration
}

func newCredentialRecord(in core.SaveCredentialInput, now time.Time) *credentialRecord {
	record := &credentialRecord{
		IntegrationID: in.IntegrationID,
		AccessToken:   in.AccessToken,
		RefreshToken:  in.RefreshToken,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	record.ExpiresAt = cloneTimePointer(in.ExpiresAt)
	return record
}

func (r *credentialRecord) toDomain() core.Credential {
	if r == nil {
		return core.Credential{}
	}
	return core.Credential{
		ID:            r.ID,
		IntegrationID: r.IntegrationID,
		AccessToken:   r.AccessToken,
		RefreshToken:  r.RefreshToken,
		ExpiresAt:     cloneTimePointer(r.ExpiresAt),
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

func (r *syncStateRecord) toDomain() core.SyncState {
	if r == nil {
		return core.SyncState{}
	}
	return core.SyncState{
		ID:               r.ID,
		IntegrationID:    r.IntegrationID,
		CalendarID:       r.CalendarID,
		SyncToken:        r.SyncToken,
		ChannelID:        r.ChannelID,
		ChannelToken:     r.ChannelToken,
		ResourceID:       r.ResourceID,
		ChannelExpiresAt: cloneTimePointer(r.ChannelExpiresAt),
		LastSyncedAt:     cloneTimePointer(r.LastSyncedAt),
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}

func newCalendarEventRecord(in core.UpsertEventInput, now time.Time) *calendarEventRecord {
	return &calendarEventRecord{
		IntegrationID:    in.IntegrationID,
		CalendarID:       in.CalendarID,
		ProviderEventID:  in.ProviderEventID,
		RecurringEventID: in.RecurringEventID,
		Title:            in.Title,
		Description:      in.Description,
		Location:         in.Location,
		Status:           in.Status,
		AllDay:           in.AllDay,
		StartAt:          cloneTimePointer(in.StartAt),
		EndAt:            cloneTimePointer(in.EndAt),
		RemoteUpdatedAt:  in.RemoteUpdatedAt,
		Payload:          copyAnyMap(in.Payload),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

func (r *calendarEventRecord) applyUpsert(in core.UpsertEventInput, now time.Time) {
	if r == nil {
		return
	}
	r.CalendarID = in.CalendarID
	r.RecurringEventID = in.RecurringEventID
	r.Title = in.Title
	r.Description = in.Description
	r.Location = in.Location
	r.Status = in.Status
	r.AllDay = in.AllDay
	r.StartAt = cloneTimePointer(in.StartAt)
	r.EndAt = cloneTimePointer(in.EndAt)
	r.RemoteUpdatedAt = in.RemoteUpdatedAt
	r.Payload = copyAnyMap(in.Payload)
	r.UpdatedAt = now
}

func (r *calendarEventRecord) toDomain() core.CalendarEvent {
	if r == nil {
		return core.CalendarEvent{}
	}
	return core.CalendarEvent{
		ID:               r.ID,
		IntegrationID:    r.IntegrationID,
		CalendarID:       r.CalendarID,
		ProviderEventID:  r.ProviderEventID,
		RecurringEventID: r.RecurringEventID,
		Title:            r.Title,
		Description:      r.Description,
		Location:         r.Location,
		Status:           r.Status,
		AllDay:           r.AllDay,
		StartAt:          cloneTimePointer(r.StartAt),
		EndAt:            cloneTimePointer(r.EndAt),
		RemoteUpdatedAt:  r.RemoteUpdatedAt,
		Payload:          copyAnyMap(r.Payload),
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}

func copyAnyMap(in map[string]any) map[string]any {
	if len(in) == 0 {
		return map[string]any{}
	}
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}

func cloneTimePointer(input *time.Time) *time.Time {
	if input == nil {
		return nil
	}
	value := input.UTC()
	return &value
}
