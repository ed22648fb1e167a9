package sqlstore

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-calendar-sync/core"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
)

const eventWindowCacheKeyPrefix = "go-calendar-sync::event_window::v1"

// CachedEventStore serves window reads through a cache keyed by the query
// shape. Any write for an integration invalidates that integration's window
// entries on the next read via a per-integration generation counter folded
// into the key.
type CachedEventStore struct {
	base  core.EventStore
	cache repositorycache.CacheService
}

func NewCachedEventStore(base core.EventStore, cacheService repositorycache.CacheService) (*CachedEventStore, error) {
	if base == nil {
		return nil, fmt.Errorf("sqlstore: base event store is required")
	}
	if cacheService == nil {
		return nil, fmt.Errorf("sqlstore: event cache service is required")
	}
	return &CachedEventStore{base: base, cache: cacheService}, nil
}

// EventWindowCacheKey returns the deterministic cache key contract for
// window reads: go-calendar-sync::event_window::v1::<integration>::<from>::<to>::<cancelled>
// with the integration segment URL-path escaped.
func EventWindowCacheKey(q core.ListEventsQuery) (string, error) {
	integrationID := strings.TrimSpace(q.IntegrationID)
	if integrationID == "" {
		return "", fmt.Errorf("sqlstore: integration id is required")
	}
	segments := []string{
		url.PathEscape(integrationID),
		formatWindowBound(q.From),
		formatWindowBound(q.To),
		strconv.FormatBool(q.IncludeCancelled),
	}
	return strings.Join(append([]string{eventWindowCacheKeyPrefix}, segments...), "::"), nil
}

func (s *CachedEventStore) UpsertBatch(ctx context.Context, rows []core.UpsertEventInput) (int, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return 0, fmt.Errorf("sqlstore: cached event store is not configured")
	}
	written, err := s.base.UpsertBatch(ctx, rows)
	if err != nil {
		return written, err
	}

	seen := map[string]struct{}{}
	for _, row := range rows {
		integrationID := strings.TrimSpace(row.IntegrationID)
		if integrationID == "" {
			continue
		}
		if _, done := seen[integrationID]; done {
			continue
		}
		seen[integrationID] = struct{}{}
		if deleteErr := s.cache.Delete(ctx, eventGenerationKey(integrationID)); deleteErr != nil {
			return written, deleteErr
		}
	}
	return written, nil
}

func (s *CachedEventStore) ListWindow(ctx context.Context, q core.ListEventsQuery) ([]core.CalendarEvent, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return nil, fmt.Errorf("sqlstore: cached event store is not configured")
	}
	cacheKey, err := EventWindowCacheKey(q)
	if err != nil {
		return nil, err
	}
	generation, err := s.currentGeneration(ctx, strings.TrimSpace(q.IntegrationID))
	if err != nil {
		return nil, err
	}
	cacheKey = cacheKey + "::" + generation

	events, err := repositorycache.GetOrFetch(ctx, s.cache, cacheKey, func(ctx context.Context) ([]core.CalendarEvent, error) {
		fetched, fetchErr := s.base.ListWindow(ctx, q)
		if fetchErr != nil {
			return nil, fetchErr
		}
		return cloneCalendarEvents(fetched), nil
	})
	if err != nil {
		return nil, err
	}
	return cloneCalendarEvents(events), nil
}

func (s *CachedEventStore) Get(ctx context.Context, integrationID string, providerEventID string) (core.CalendarEvent, error) {
	if s == nil || s.base == nil {
		return core.CalendarEvent{}, fmt.Errorf("sqlstore: cached event store is not configured")
	}
	return s.base.Get(ctx, integrationID, providerEventID)
}

// currentGeneration resolves the integration's cache generation, minting a
// fresh one when writes have invalidated it.
func (s *CachedEventStore) currentGeneration(ctx context.Context, integrationID string) (string, error) {
	if integrationID == "" {
		return "", fmt.Errorf("sqlstore: integration id is required")
	}
	return repositorycache.GetOrFetch(ctx, s.cache, eventGenerationKey(integrationID), func(context.Context) (string, error) {
		return strconv.FormatInt(time.Now().UTC().UnixNano(), 36), nil
	})
}

func eventGenerationKey(integrationID string) string {
	return eventWindowCacheKeyPrefix + "::generation::" + url.PathEscape(integrationID)
}

func formatWindowBound(value time.Time) string {
	if value.IsZero() {
		return "-"
	}
	return strconv.FormatInt(value.UTC().Unix(), 10)
}

func cloneCalendarEvents(events []core.CalendarEvent) []core.CalendarEvent {
	if len(events) == 0 {
		return []core.CalendarEvent{}
	}
	cloned := make([]core.CalendarEvent, len(events))
	for i, event := range events {
		cloned[i] = event
		cloned[i].StartAt = cloneTimePointer(event.StartAt)
		cloned[i].EndAt = cloneTimePointer(event.EndAt)
		cloned[i].Payload = copyAnyMap(event.Payload)
	}
	return cloned
}

var _ core.EventStore = (*CachedEventStore)(nil)
