package core

import (
	"strings"
	"time"
)

const allDayDateLayout = "2006-01-02"

// MapProviderEvent shapes a provider event into an idempotent upsert row.
// Events without a stable id cannot be upserted and are reported with
// ok=false; cancellation stubs keep their status and may lack both instants.
func MapProviderEvent(integrationID string, calendarID string, event ProviderEvent) (UpsertEventInput, bool) {
	eventID := strings.TrimSpace(event.ID)
	if eventID == "" {
		return UpsertEventInput{}, false
	}

	allDay := event.Start.Date != "" && event.Start.DateTime == ""
	title := strings.TrimSpace(event.Summary)
	if title == "" {
		title = "(untitled)"
	}

	return UpsertEventInput{
		IntegrationID:    strings.TrimSpace(integrationID),
		CalendarID:       strings.TrimSpace(calendarID),
		ProviderEventID:  eventID,
		RecurringEventID: strings.TrimSpace(event.RecurringEventID),
		Title:            title,
		Description:      event.Description,
		Location:         event.Location,
		Status:           strings.TrimSpace(event.Status),
		AllDay:           allDay,
		StartAt:          parseEventTime(event.Start),
		EndAt:            parseEventTime(event.End),
		RemoteUpdatedAt:  strings.TrimSpace(event.Updated),
		Payload:          event.Raw,
	}, true
}

// parseEventTime resolves the provider's date-or-datetime union into an
// instant, nil when absent or unparseable (e.g. a cancellation stub).
func parseEventTime(t EventTime) *time.Time {
	if value := strings.TrimSpace(t.DateTime); value != "" {
		if parsed, err := time.Parse(time.RFC3339, value); err == nil {
			utc := parsed.UTC()
			return &utc
		}
		return nil
	}
	if value := strings.TrimSpace(t.Date); value != "" {
		if parsed, err := time.Parse(allDayDateLayout, value); err == nil {
			utc := parsed.UTC()
			return &utc
		}
	}
	return nil
}
