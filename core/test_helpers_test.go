package core

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, fixture *testFixture, opts ...Option) *Service {
	t.Helper()
	base := []Option{
		WithCalendarProvider(fixture.provider),
		WithIntegrationStore(fixture.integrations),
		WithCredentialStore(fixture.credentials),
		WithSyncStateStore(fixture.syncStates),
		WithEventStore(fixture.events),
		WithNow(func() time.Time { return testNow }),
	}
	svc, err := NewService(DefaultConfig(), append(base, opts...)...)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

type testFixture struct {
	provider     *stubProvider
	integrations *memIntegrationStore
	credentials  *memCredentialStore
	syncStates   *memSyncStateStore
	events       *memEventStore
}

func newTestFixture() *testFixture {
	return &testFixture{
		provider:     &stubProvider{},
		integrations: newMemIntegrationStore(),
		credentials:  newMemCredentialStore(),
		syncStates:   newMemSyncStateStore(),
		events:       newMemEventStore(),
	}
}

// seedConnected wires an integration with a resolved calendar and a healthy
// credential, the baseline most sync flows start from.
func (f *testFixture) seedConnected(integrationID, calendarID string) {
	f.integrations.rows[integrationID] = &Integration{
		ID:                integrationID,
		UserID:            "user_1",
		Status:            IntegrationStatusConnected,
		PrimaryCalendarID: calendarID,
		CreatedAt:         testNow,
		UpdatedAt:         testNow,
	}
	expires := testNow.Add(time.Hour)
	f.credentials.rows[integrationID] = Credential{
		ID:            "cred_" + integrationID,
		IntegrationID: integrationID,
		AccessToken:   "access-token",
		RefreshToken:  "refresh-token",
		ExpiresAt:     &expires,
	}
}

type stubProvider struct {
	refreshFn       func(ctx context.Context, refreshToken string) (TokenGrant, error)
	listCalendarsFn func(ctx context.Context, accessToken string) ([]CalendarListEntry, error)
	listEventsFn    func(ctx context.Context, accessToken string, calendarID string, opts ListEventsOptions) (EventPage, error)
	watchFn         func(ctx context.Context, accessToken string, calendarID string, req WatchRequest) (WatchResult, error)
	stopFn          func(ctx context.Context, accessToken string, channelID string, resourceID string) error
	insertFn        func(ctx context.Context, accessToken string, calendarID string, in InsertEventInput) (ProviderEvent, error)

	refreshCalls    int
	listEventsCalls []ListEventsOptions
	stopCalls       int
}

func (p *stubProvider) RefreshToken(ctx context.Context, refreshToken string) (TokenGrant, error) {
	p.refreshCalls++
	if p.refreshFn == nil {
		return TokenGrant{}, fmt.Errorf("stub: refresh not configured")
	}
	return p.refreshFn(ctx, refreshToken)
}

func (p *stubProvider) ListCalendars(ctx context.Context, accessToken string) ([]CalendarListEntry, error) {
	if p.listCalendarsFn == nil {
		return nil, fmt.Errorf("stub: list calendars not configured")
	}
	return p.listCalendarsFn(ctx, accessToken)
}

func (p *stubProvider) ListEvents(ctx context.Context, accessToken string, calendarID string, opts ListEventsOptions) (EventPage, error) {
	p.listEventsCalls = append(p.listEventsCalls, opts)
	if p.listEventsFn == nil {
		return EventPage{}, fmt.Errorf("stub: list events not configured")
	}
	return p.listEventsFn(ctx, accessToken, calendarID, opts)
}

func (p *stubProvider) Watch(ctx context.Context, accessToken string, calendarID string, req WatchRequest) (WatchResult, error) {
	if p.watchFn == nil {
		return WatchResult{}, fmt.Errorf("stub: watch not configured")
	}
	return p.watchFn(ctx, accessToken, calendarID, req)
}

func (p *stubProvider) Stop(ctx context.Context, accessToken string, channelID string, resourceID string) error {
	p.stopCalls++
	if p.stopFn == nil {
		return nil
	}
	return p.stopFn(ctx, accessToken, channelID, resourceID)
}

func (p *stubProvider) InsertEvent(ctx context.Context, accessToken string, calendarID string, in InsertEventInput) (ProviderEvent, error) {
	if p.insertFn == nil {
		return ProviderEvent{}, fmt.Errorf("stub: insert event not configured")
	}
	return p.insertFn(ctx, accessToken, calendarID, in)
}

type memIntegrationStore struct {
	rows    map[string]*Integration
	nextID  int
	failErr error
}

func newMemIntegrationStore() *memIntegrationStore {
	return &memIntegrationStore{rows: map[string]*Integration{}}
}

func (s *memIntegrationStore) Get(_ context.Context, id string) (Integration, error) {
	if s.failErr != nil {
		return Integration{}, s.failErr
	}
	row, ok := s.rows[id]
	if !ok {
		return Integration{}, ErrIntegrationNotFound
	}
	return *row, nil
}

func (s *memIntegrationStore) Create(_ context.Context, in CreateIntegrationInput) (Integration, error) {
	s.nextID++
	status := in.Status
	if status == "" {
		status = IntegrationStatusPending
	}
	row := &Integration{
		ID:          fmt.Sprintf("int_%d", s.nextID),
		UserID:      in.UserID,
		WorkspaceID: in.WorkspaceID,
		Status:      status,
		CreatedAt:   testNow,
		UpdatedAt:   testNow,
	}
	s.rows[row.ID] = row
	return *row, nil
}

func (s *memIntegrationStore) SetPrimaryCalendar(_ context.Context, id string, calendarID string) (Integration, error) {
	row, ok := s.rows[id]
	if !ok {
		return Integration{}, ErrIntegrationNotFound
	}
	if row.Status != IntegrationStatusConnected {
		if err := row.TransitionTo(IntegrationStatusConnected, "", testNow); err != nil {
			return Integration{}, err
		}
	}
	row.PrimaryCalendarID = calendarID
	row.LastError = ""
	return *row, nil
}

func (s *memIntegrationStore) SetStatus(_ context.Context, id string, status IntegrationStatus, reason string) error {
	row, ok := s.rows[id]
	if !ok {
		return ErrIntegrationNotFound
	}
	return row.TransitionTo(status, reason, testNow)
}

func (s *memIntegrationStore) RecordRefreshFailure(_ context.Context, id string, reason string) (int, error) {
	row, ok := s.rows[id]
	if !ok {
		return 0, ErrIntegrationNotFound
	}
	row.RefreshFailures++
	row.LastError = reason
	return row.RefreshFailures, nil
}

func (s *memIntegrationStore) ClearRefreshFailures(_ context.Context, id string) error {
	row, ok := s.rows[id]
	if !ok {
		return ErrIntegrationNotFound
	}
	row.RefreshFailures = 0
	row.LastError = ""
	return nil
}

func (s *memIntegrationStore) Disable(_ context.Context, id string, reason string) error {
	row, ok := s.rows[id]
	if !ok {
		return ErrIntegrationNotFound
	}
	if err := row.TransitionTo(IntegrationStatusDisabled, reason, testNow); err != nil {
		return err
	}
	if row.DisabledAt == nil {
		disabledAt := testNow
		row.DisabledAt = &disabledAt
	}
	return nil
}

type memCredentialStore struct {
	rows      map[string]Credential
	rotateErr error
}

func newMemCredentialStore() *memCredentialStore {
	return &memCredentialStore{rows: map[string]Credential{}}
}

func (s *memCredentialStore) GetByIntegration(_ context.Context, integrationID string) (Credential, error) {
	row, ok := s.rows[integrationID]
	if !ok {
		return Credential{}, ErrCredentialsMissing
	}
	return row, nil
}

func (s *memCredentialStore) Save(_ context.Context, in SaveCredentialInput) (Credential, error) {
	row := Credential{
		ID:            "cred_" + in.IntegrationID,
		IntegrationID: in.IntegrationID,
		AccessToken:   in.AccessToken,
		RefreshToken:  in.RefreshToken,
		ExpiresAt:     in.ExpiresAt,
	}
	s.rows[in.IntegrationID] = row
	return row, nil
}

func (s *memCredentialStore) RotateAccessToken(_ context.Context, integrationID string, accessToken string, expiresAt time.Time) (Credential, error) {
	if s.rotateErr != nil {
		return Credential{}, s.rotateErr
	}
	row, ok := s.rows[integrationID]
	if !ok {
		return Credential{}, ErrCredentialsMissing
	}
	row.AccessToken = accessToken
	expiry := expiresAt.UTC()
	row.ExpiresAt = &expiry
	s.rows[integrationID] = row
	return row, nil
}

type memSyncStateStore struct {
	rows      []*SyncState
	clearErr  error
	clearCall int
}

func newMemSyncStateStore() *memSyncStateStore {
	return &memSyncStateStore{}
}

func (s *memSyncStateStore) findPair(integrationID, calendarID string) *SyncState {
	for _, row := range s.rows {
		if row.IntegrationID == integrationID && row.CalendarID == calendarID {
			return row
		}
	}
	return nil
}

func (s *memSyncStateStore) GetByPair(_ context.Context, integrationID string, calendarID string) (SyncState, error) {
	if row := s.findPair(integrationID, calendarID); row != nil {
		return *row, nil
	}
	return SyncState{}, ErrSyncStateNotFound
}

func (s *memSyncStateStore) GetByChannel(_ context.Context, channelID string) (SyncState, error) {
	for _, row := range s.rows {
		if row.ChannelID == channelID {
			return *row, nil
		}
	}
	return SyncState{}, ErrSyncStateNotFound
}

func (s *memSyncStateStore) UpsertCursor(_ context.Context, in UpsertCursorInput) (SyncState, error) {
	row := s.findPair(in.IntegrationID, in.CalendarID)
	if row == nil {
		row = &SyncState{
			ID:            fmt.Sprintf("ss_%d", len(s.rows)+1),
			IntegrationID: in.IntegrationID,
			CalendarID:    in.CalendarID,
		}
		s.rows = append(s.rows, row)
	}
	row.SyncToken = in.SyncToken
	row.LastSyncedAt = in.LastSyncedAt
	return *row, nil
}

func (s *memSyncStateStore) UpsertChannel(_ context.Context, in UpsertChannelInput) (SyncState, error) {
	row := s.findPair(in.IntegrationID, in.CalendarID)
	if row == nil {
		row = &SyncState{
			ID:            fmt.Sprintf("ss_%d", len(s.rows)+1),
			IntegrationID: in.IntegrationID,
			CalendarID:    in.CalendarID,
		}
		s.rows = append(s.rows, row)
	}
	row.ChannelID = in.ChannelID
	row.ChannelToken = in.ChannelToken
	row.ResourceID = in.ResourceID
	row.ChannelExpiresAt = in.ChannelExpiresAt
	return *row, nil
}

func (s *memSyncStateStore) ClearCursor(_ context.Context, integrationID string, calendarID string) error {
	s.clearCall++
	if s.clearErr != nil {
		return s.clearErr
	}
	if row := s.findPair(integrationID, calendarID); row != nil {
		row.SyncToken = ""
	}
	return nil
}

type memEventStore struct {
	rows        map[string]CalendarEvent
	upsertErr   error
	upsertCalls [][]UpsertEventInput
	lastQuery   ListEventsQuery
}

func newMemEventStore() *memEventStore {
	return &memEventStore{rows: map[string]CalendarEvent{}}
}

func eventKey(integrationID, providerEventID string) string {
	return integrationID + "::" + providerEventID
}

func (s *memEventStore) UpsertBatch(_ context.Context, rows []UpsertEventInput) (int, error) {
	s.upsertCalls = append(s.upsertCalls, rows)
	if s.upsertErr != nil {
		return 0, s.upsertErr
	}
	for _, in := range rows {
		key := eventKey(in.IntegrationID, in.ProviderEventID)
		existing, ok := s.rows[key]
		if !ok {
			existing = CalendarEvent{
				ID:        fmt.Sprintf("evt_%d", len(s.rows)+1),
				CreatedAt: testNow,
			}
		}
		existing.IntegrationID = in.IntegrationID
		existing.CalendarID = in.CalendarID
		existing.ProviderEventID = in.ProviderEventID
		existing.RecurringEventID = in.RecurringEventID
		existing.Title = in.Title
		existing.Description = in.Description
		existing.Location = in.Location
		existing.Status = in.Status
		existing.AllDay = in.AllDay
		existing.StartAt = in.StartAt
		existing.EndAt = in.EndAt
		existing.RemoteUpdatedAt = in.RemoteUpdatedAt
		existing.Payload = in.Payload
		existing.UpdatedAt = testNow
		s.rows[key] = existing
	}
	return len(rows), nil
}

func (s *memEventStore) ListWindow(_ context.Context, q ListEventsQuery) ([]CalendarEvent, error) {
	s.lastQuery = q
	out := []CalendarEvent{}
	for _, row := range s.rows {
		if row.IntegrationID != q.IntegrationID {
			continue
		}
		if row.Cancelled() && !q.IncludeCancelled {
			continue
		}
		if row.StartAt != nil {
			if !q.From.IsZero() && row.StartAt.Before(q.From) {
				continue
			}
			if !q.To.IsZero() && !row.StartAt.Before(q.To) {
				continue
			}
		}
		out = append(out, row)
	}
	return out, nil
}

func (s *memEventStore) Get(_ context.Context, integrationID string, providerEventID string) (CalendarEvent, error) {
	row, ok := s.rows[eventKey(integrationID, providerEventID)]
	if !ok {
		return CalendarEvent{}, ErrEventNotFound
	}
	return row, nil
}

func (s *memEventStore) get(t *testing.T, integrationID, providerEventID string) CalendarEvent {
	t.Helper()
	row, ok := s.rows[eventKey(integrationID, providerEventID)]
	if !ok {
		keys := make([]string, 0, len(s.rows))
		for key := range s.rows {
			keys = append(keys, key)
		}
		t.Fatalf("expected stored event %s, have %s", providerEventID, strings.Join(keys, ", "))
	}
	return row
}

func ptrTime(value time.Time) *time.Time {
	return &value
}

var (
	_ CalendarProvider = (*stubProvider)(nil)
	_ IntegrationStore = (*memIntegrationStore)(nil)
	_ CredentialStore  = (*memCredentialStore)(nil)
	_ SyncStateStore   = (*memSyncStateStore)(nil)
	_ EventStore       = (*memEventStore)(nil)
)
