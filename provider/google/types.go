package google

import "encoding/json"

// Wire shapes for the calendar API. Only the fields the engine consumes are
// declared; the full event payload is retained separately as a raw map.

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	Error       string `json:"error"`
	ErrorDesc   string `json:"error_description"`
}

type calendarListEntry struct {
	ID       string `json:"id"`
	Summary  string `json:"summary"`
	TimeZone string `json:"timeZone"`
	Primary  bool   `json:"primary"`
}

type calendarListResponse struct {
	Items []calendarListEntry `json:"items"`
}

type eventTime struct {
	Date     string `json:"date,omitempty"`
	DateTime string `json:"dateTime,omitempty"`
	TimeZone string `json:"timeZone,omitempty"`
}

type eventResource struct {
	ID               string     `json:"id"`
	RecurringEventID string     `json:"recurringEventId"`
	Status           string     `json:"status"`
	Summary          string     `json:"summary"`
	Description      string     `json:"description"`
	Location         string     `json:"location"`
	Updated          string     `json:"updated"`
	Start            *eventTime `json:"start"`
	End              *eventTime `json:"end"`
}

// Items stay raw so the full provider payload can be retained alongside the
// typed projection.
type eventsListResponse struct {
	Items         []json.RawMessage `json:"items"`
	NextPageToken string            `json:"nextPageToken"`
	NextSyncToken string            `json:"nextSyncToken"`
}

type watchRequestBody struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Address string `json:"address"`
	Token   string `json:"token,omitempty"`
}

type watchResponse struct {
	ID         string `json:"id"`
	ResourceID string `json:"resourceId"`
	Expiration string `json:"expiration"`
}

type stopRequestBody struct {
	ID         string `json:"id"`
	ResourceID string `json:"resourceId"`
}

type insertEventBody struct {
	Summary     string     `json:"summary"`
	Description string     `json:"description,omitempty"`
	Location    string     `json:"location,omitempty"`
	Start       *eventTime `json:"start"`
	End         *eventTime `json:"end"`
}
