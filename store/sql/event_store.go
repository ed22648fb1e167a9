package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-calendar-sync/core"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type EventStore struct {
	db   *bun.DB
	repo repository.Repository[*calendarEventRecord]
}

func NewEventStore(db *bun.DB) (*EventStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*calendarEventRecord](db, calendarEventHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid calendar event repository wiring: %w", err)
		}
	}
	return &EventStore{
		db:   db,
		repo: repo,
	}, nil
}

// UpsertBatch writes one delta batch keyed by (integration_id,
// provider_event_id). Replaying the same batch is a no-op beyond refreshed
// timestamps. Returns the number of rows written.
func (s *EventStore) UpsertBatch(ctx context.Context, rows []core.UpsertEventInput) (int, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("sqlstore: event store is not configured")
	}
	if len(rows) == 0 {
		return 0, nil
	}
	now := time.Now().UTC()

	written := 0
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for _, in := range rows {
			in.IntegrationID = strings.TrimSpace(in.IntegrationID)
			in.CalendarID = strings.TrimSpace(in.CalendarID)
			in.ProviderEventID = strings.TrimSpace(in.ProviderEventID)
			if in.IntegrationID == "" || in.ProviderEventID == "" {
				return fmt.Errorf("sqlstore: integration id and provider event id are required")
			}

			record, err := findCalendarEventTx(ctx, tx, in.IntegrationID, in.ProviderEventID)
			if err != nil {
				return err
			}
			if record == nil {
				record = newCalendarEventRecord(in, now)
				record.ID = uuid.NewString()
				if _, insertErr := tx.NewInsert().Model(record).Exec(ctx); insertErr != nil {
					if !isUniqueViolation(insertErr) {
						return insertErr
					}
					record, err = findCalendarEventTx(ctx, tx, in.IntegrationID, in.ProviderEventID)
					if err != nil {
						return err
					}
					if record == nil {
						return insertErr
					}
					record.applyUpsert(in, now)
					if _, updateErr := tx.NewUpdate().Model(record).Where("id = ?", record.ID).Exec(ctx); updateErr != nil {
						return updateErr
					}
				}
				written++
				continue
			}

			record.applyUpsert(in, now)
			if _, updateErr := tx.NewUpdate().Model(record).Where("id = ?", record.ID).Exec(ctx); updateErr != nil {
				return updateErr
			}
			written++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return written, nil
}

func (s *EventStore) ListWindow(ctx context.Context, q core.ListEventsQuery) ([]core.CalendarEvent, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("sqlstore: event store is not configured")
	}
	q.IntegrationID = strings.TrimSpace(q.IntegrationID)
	if q.IntegrationID == "" {
		return nil, fmt.Errorf("sqlstore: integration id is required")
	}

	records := []*calendarEventRecord{}
	query := s.db.NewSelect().
		Model(&records).
		Where("?TableAlias.integration_id = ?", q.IntegrationID)
	if !q.From.IsZero() {
		query = query.Where("?TableAlias.start_at >= ?", q.From.UTC())
	}
	if !q.To.IsZero() {
		query = query.Where("?TableAlias.start_at < ?", q.To.UTC())
	}
	if !q.IncludeCancelled {
		query = query.Where("?TableAlias.status != ?", core.EventStatusCancelled)
	}
	if err := query.OrderExpr("?TableAlias.start_at ASC").Scan(ctx); err != nil {
		return nil, err
	}

	events := make([]core.CalendarEvent, 0, len(records))
	for _, record := range records {
		events = append(events, record.toDomain())
	}
	return events, nil
}

func (s *EventStore) Get(ctx context.Context, integrationID string, providerEventID string) (core.CalendarEvent, error) {
	if s == nil || s.db == nil {
		return core.CalendarEvent{}, fmt.Errorf("sqlstore: event store is not configured")
	}
	integrationID = strings.TrimSpace(integrationID)
	providerEventID = strings.TrimSpace(providerEventID)
	if integrationID == "" || providerEventID == "" {
		return core.CalendarEvent{}, fmt.Errorf("sqlstore: integration id and provider event id are required")
	}

	record := &calendarEventRecord{}
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.integration_id = ?", integrationID).
		Where("?TableAlias.provider_event_id = ?", providerEventID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return core.CalendarEvent{}, core.ErrEventNotFound
		}
		return core.CalendarEvent{}, err
	}
	return record.toDomain(), nil
}

func findCalendarEventTx(
	ctx context.Context,
	tx bun.Tx,
	integrationID string,
	providerEventID string,
) (*calendarEventRecord, error) {
	record := &calendarEventRecord{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.integration_id = ?", integrationID).
		Where("?TableAlias.provider_event_id = ?", providerEventID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return record, nil
}
