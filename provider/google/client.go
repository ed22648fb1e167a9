package google

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-calendar-sync/core"
)

const (
	defaultTokenURL    = "https://oauth2.googleapis.com/token"
	defaultCalendarURL = "https://www.googleapis.com/calendar/v3"

	defaultRequestTimeout = 30 * time.Second
	maxResponseBodyBytes  = 4 << 20 // 4 MiB

	listPageSize = 2500
)

type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type Config struct {
	ClientID       string
	ClientSecret   string
	TokenURL       string
	CalendarURL    string
	RequestTimeout time.Duration
	HTTPClient     HTTPDoer
}

// Client implements core.CalendarProvider against the Google Calendar v3
// API.
type Client struct {
	cfg        Config
	httpClient HTTPDoer
}

func NewClient(cfg Config) (*Client, error) {
	cfg.ClientID = strings.TrimSpace(cfg.ClientID)
	cfg.ClientSecret = strings.TrimSpace(cfg.ClientSecret)
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("google: client id is required")
	}
	if cfg.ClientSecret == "" {
		return nil, fmt.Errorf("google: client secret is required")
	}
	cfg.TokenURL = strings.TrimSpace(cfg.TokenURL)
	if cfg.TokenURL == "" {
		cfg.TokenURL = defaultTokenURL
	}
	cfg.CalendarURL = strings.TrimRight(strings.TrimSpace(cfg.CalendarURL), "/")
	if cfg.CalendarURL == "" {
		cfg.CalendarURL = defaultCalendarURL
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.RequestTimeout}
	}
	return &Client{cfg: cfg, httpClient: httpClient}, nil
}

func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (core.TokenGrant, error) {
	if c == nil || c.httpClient == nil {
		return core.TokenGrant{}, fmt.Errorf("google: client is not configured")
	}
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return core.TokenGrant{}, fmt.Errorf("google: refresh token is required")
	}

	form := url.Values{}
	form.Set("client_id", c.cfg.ClientID)
	form.Set("client_secret", c.cfg.ClientSecret)
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)

	requestCtx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(
		requestCtx,
		http.MethodPost,
		c.cfg.TokenURL,
		strings.NewReader(form.Encode()),
	)
	if err != nil {
		return core.TokenGrant{}, err
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("Accept", "application/json")

	response, err := c.httpClient.Do(httpReq)
	if err != nil {
		return core.TokenGrant{}, fmt.Errorf("google: token request failed: %w", err)
	}
	defer response.Body.Close()

	body, err := readBoundedBody(response.Body)
	if err != nil {
		return core.TokenGrant{}, fmt.Errorf("google: read token response: %w", err)
	}

	payload := tokenResponse{}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &payload); err != nil && response.StatusCode < http.StatusMultipleChoices {
			return core.TokenGrant{}, fmt.Errorf("google: decode token response: %w", err)
		}
	}
	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices || payload.Error != "" {
		return core.TokenGrant{}, &tokenError{
			StatusCode:  response.StatusCode,
			Code:        payload.Error,
			Description: firstNonEmpty(payload.ErrorDesc, string(body)),
		}
	}
	if strings.TrimSpace(payload.AccessToken) == "" {
		return core.TokenGrant{}, fmt.Errorf("google: token response missing access token")
	}
	return core.TokenGrant{
		AccessToken: payload.AccessToken,
		ExpiresIn:   payload.ExpiresIn,
	}, nil
}

func (c *Client) ListCalendars(ctx context.Context, accessToken string) ([]core.CalendarListEntry, error) {
	body, err := c.doJSON(ctx, accessToken, http.MethodGet, "/users/me/calendarList", nil, nil)
	if err != nil {
		return nil, err
	}
	payload := calendarListResponse{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("google: decode calendar list: %w", err)
	}
	entries := make([]core.CalendarListEntry, 0, len(payload.Items))
	for _, item := range payload.Items {
		entries = append(entries, core.CalendarListEntry{
			ID:       item.ID,
			Summary:  item.Summary,
			TimeZone: item.TimeZone,
			Primary:  item.Primary,
		})
	}
	return entries, nil
}

// ListEvents fetches one logical delta page. It follows nextPageToken
// internally so the caller sees a single item set and, on the final page,
// the provider's next sync token.
func (c *Client) ListEvents(ctx context.Context, accessToken string, calendarID string, opts core.ListEventsOptions) (core.EventPage, error) {
	calendarID = strings.TrimSpace(calendarID)
	if calendarID == "" {
		return core.EventPage{}, fmt.Errorf("google: calendar id is required")
	}

	page := core.EventPage{}
	pageToken := ""
	for {
		query := url.Values{}
		query.Set("singleEvents", "true")
		query.Set("showDeleted", "true")
		query.Set("maxResults", strconv.Itoa(listPageSize))
		if syncToken := strings.TrimSpace(opts.SyncToken); syncToken != "" {
			query.Set("syncToken", syncToken)
		} else {
			if opts.TimeMin != nil {
				query.Set("timeMin", opts.TimeMin.UTC().Format(time.RFC3339))
			}
			if opts.TimeMax != nil {
				query.Set("timeMax", opts.TimeMax.UTC().Format(time.RFC3339))
			}
		}
		if pageToken != "" {
			query.Set("pageToken", pageToken)
		}

		path := "/calendars/" + url.PathEscape(calendarID) + "/events"
		body, err := c.doJSON(ctx, accessToken, http.MethodGet, path, query, nil)
		if err != nil {
			return core.EventPage{}, err
		}

		payload := eventsListResponse{}
		if err := json.Unmarshal(body, &payload); err != nil {
			return core.EventPage{}, fmt.Errorf("google: decode events list: %w", err)
		}
		for _, raw := range payload.Items {
			event, err := decodeEvent(raw)
			if err != nil {
				return core.EventPage{}, err
			}
			page.Items = append(page.Items, event)
		}
		if token := strings.TrimSpace(payload.NextSyncToken); token != "" {
			page.NextSyncToken = token
		}
		pageToken = strings.TrimSpace(payload.NextPageToken)
		if pageToken == "" {
			return page, nil
		}
	}
}

func (c *Client) Watch(ctx context.Context, accessToken string, calendarID string, req core.WatchRequest) (core.WatchResult, error) {
	calendarID = strings.TrimSpace(calendarID)
	if calendarID == "" {
		return core.WatchResult{}, fmt.Errorf("google: calendar id is required")
	}
	if strings.TrimSpace(req.ChannelID) == "" {
		return core.WatchResult{}, fmt.Errorf("google: channel id is required")
	}
	if strings.TrimSpace(req.Address) == "" {
		return core.WatchResult{}, fmt.Errorf("google: webhook address is required")
	}

	path := "/calendars/" + url.PathEscape(calendarID) + "/events/watch"
	body, err := c.doJSON(ctx, accessToken, http.MethodPost, path, nil, watchRequestBody{
		ID:      req.ChannelID,
		Type:    "web_hook",
		Address: req.Address,
		Token:   req.ChannelToken,
	})
	if err != nil {
		return core.WatchResult{}, err
	}

	payload := watchResponse{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return core.WatchResult{}, fmt.Errorf("google: decode watch response: %w", err)
	}
	result := core.WatchResult{ResourceID: strings.TrimSpace(payload.ResourceID)}
	// expiration arrives as epoch milliseconds in a string
	if raw := strings.TrimSpace(payload.Expiration); raw != "" {
		if millis, parseErr := strconv.ParseInt(raw, 10, 64); parseErr == nil {
			expiresAt := time.UnixMilli(millis).UTC()
			result.ExpiresAt = &expiresAt
		}
	}
	return result, nil
}

func (c *Client) Stop(ctx context.Context, accessToken string, channelID string, resourceID string) error {
	channelID = strings.TrimSpace(channelID)
	resourceID = strings.TrimSpace(resourceID)
	if channelID == "" || resourceID == "" {
		return fmt.Errorf("google: channel id and resource id are required")
	}
	_, err := c.doJSON(ctx, accessToken, http.MethodPost, "/channels/stop", nil, stopRequestBody{
		ID:         channelID,
		ResourceID: resourceID,
	})
	return err
}

func (c *Client) InsertEvent(ctx context.Context, accessToken string, calendarID string, in core.InsertEventInput) (core.ProviderEvent, error) {
	calendarID = strings.TrimSpace(calendarID)
	if calendarID == "" {
		return core.ProviderEvent{}, fmt.Errorf("google: calendar id is required")
	}

	path := "/calendars/" + url.PathEscape(calendarID) + "/events"
	body, err := c.doJSON(ctx, accessToken, http.MethodPost, path, nil, insertEventBody{
		Summary:     in.Summary,
		Description: in.Description,
		Location:    in.Location,
		Start:       toWireEventTime(in.Start),
		End:         toWireEventTime(in.End),
	})
	if err != nil {
		return core.ProviderEvent{}, err
	}
	return decodeEvent(body)
}

func (c *Client) doJSON(
	ctx context.Context,
	accessToken string,
	method string,
	path string,
	query url.Values,
	payload any,
) ([]byte, error) {
	if c == nil || c.httpClient == nil {
		return nil, fmt.Errorf("google: client is not configured")
	}
	accessToken = strings.TrimSpace(accessToken)
	if accessToken == "" {
		return nil, fmt.Errorf("google: access token is required")
	}

	endpoint := c.cfg.CalendarURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var requestBody io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("google: encode request body: %w", err)
		}
		requestBody = bytes.NewReader(encoded)
	}

	requestCtx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(requestCtx, method, endpoint, requestBody)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+accessToken)
	httpReq.Header.Set("Accept", "application/json")
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	response, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("google: request failed: %w", err)
	}
	defer response.Body.Close()

	body, err := readBoundedBody(response.Body)
	if err != nil {
		return nil, fmt.Errorf("google: read response: %w", err)
	}
	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		return nil, &APIError{StatusCode: response.StatusCode, Body: string(body)}
	}
	return body, nil
}

func decodeEvent(raw []byte) (core.ProviderEvent, error) {
	resource := eventResource{}
	if err := json.Unmarshal(raw, &resource); err != nil {
		return core.ProviderEvent{}, fmt.Errorf("google: decode event: %w", err)
	}
	payload := map[string]any{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return core.ProviderEvent{}, fmt.Errorf("google: decode event payload: %w", err)
	}

	event := core.ProviderEvent{
		ID:               resource.ID,
		RecurringEventID: resource.RecurringEventID,
		Summary:          resource.Summary,
		Description:      resource.Description,
		Location:         resource.Location,
		Status:           resource.Status,
		Updated:          resource.Updated,
		Raw:              payload,
	}
	if resource.Start != nil {
		event.Start = core.EventTime{
			Date:     resource.Start.Date,
			DateTime: resource.Start.DateTime,
			TimeZone: resource.Start.TimeZone,
		}
	}
	if resource.End != nil {
		event.End = core.EventTime{
			Date:     resource.End.Date,
			DateTime: resource.End.DateTime,
			TimeZone: resource.End.TimeZone,
		}
	}
	return event, nil
}

func toWireEventTime(t core.EventTime) *eventTime {
	if t.IsZero() {
		return nil
	}
	return &eventTime{
		Date:     t.Date,
		DateTime: t.DateTime,
		TimeZone: t.TimeZone,
	}
}

func readBoundedBody(r io.Reader) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r, maxResponseBodyBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > maxResponseBodyBytes {
		return nil, fmt.Errorf("google: response exceeds %d bytes", maxResponseBodyBytes)
	}
	return body, nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

var _ core.CalendarProvider = (*Client)(nil)
