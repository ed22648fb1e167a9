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

type SyncStateStore struct {
	db   *bun.DB
	repo repository.Repository[*syncStateRecord]
}

func NewSyncStateStore(db *bun.DB) (*SyncStateStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*syncStateRecord](db, syncStateHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid sync state repository wiring: %w", err)
		}
	}
	return &SyncStateStore{
		db:   db,
		repo: repo,
	}, nil
}

func (s *SyncStateStore) GetByPair(ctx context.Context, integrationID string, calendarID string) (core.SyncState, error) {
	if s == nil || s.db == nil {
		return core.SyncState{}, fmt.Errorf("sqlstore: sync state store is not configured")
	}
	integrationID = strings.TrimSpace(integrationID)
	calendarID = strings.TrimSpace(calendarID)
	if integrationID == "" || calendarID == "" {
		return core.SyncState{}, fmt.Errorf("sqlstore: integration id and calendar id are required")
	}

	record := &syncStateRecord{}
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.integration_id = ?", integrationID).
		Where("?TableAlias.calendar_id = ?", calendarID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return core.SyncState{}, core.ErrSyncStateNotFound
		}
		return core.SyncState{}, err
	}
	return record.toDomain(), nil
}

func (s *SyncStateStore) GetByChannel(ctx context.Context, channelID string) (core.SyncState, error) {
	if s == nil || s.db == nil {
		return core.SyncState{}, fmt.Errorf("sqlstore: sync state store is not configured")
	}
	channelID = strings.TrimSpace(channelID)
	if channelID == "" {
		return core.SyncState{}, fmt.Errorf("sqlstore: channel id is required")
	}

	record := &syncStateRecord{}
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.channel_id = ?", channelID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return core.SyncState{}, core.ErrSyncStateNotFound
		}
		return core.SyncState{}, err
	}
	return record.toDomain(), nil
}

func (s *SyncStateStore) UpsertCursor(ctx context.Context, in core.UpsertCursorInput) (core.SyncState, error) {
	if s == nil || s.db == nil {
		return core.SyncState{}, fmt.Errorf("sqlstore: sync state store is not configured")
	}
	in.IntegrationID = strings.TrimSpace(in.IntegrationID)
	in.CalendarID = strings.TrimSpace(in.CalendarID)
	in.SyncToken = strings.TrimSpace(in.SyncToken)
	if in.IntegrationID == "" || in.CalendarID == "" {
		return core.SyncState{}, fmt.Errorf("sqlstore: integration id and calendar id are required")
	}
	now := time.Now().UTC()

	var out core.SyncState
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		record, err := upsertSyncStateTx(ctx, tx, in.IntegrationID, in.CalendarID, now)
		if err != nil {
			return err
		}
		record.SyncToken = in.SyncToken
		record.LastSyncedAt = cloneTimePointer(in.LastSyncedAt)
		record.UpdatedAt = now
		if _, updateErr := tx.NewUpdate().Model(record).Where("id = ?", record.ID).Exec(ctx); updateErr != nil {
			return updateErr
		}
		out = record.toDomain()
		return nil
	})
	if err != nil {
		return core.SyncState{}, err
	}
	return out, nil
}

func (s *SyncStateStore) UpsertChannel(ctx context.Context, in core.UpsertChannelInput) (core.SyncState, error) {
	if s == nil || s.db == nil {
		return core.SyncState{}, fmt.Errorf("sqlstore: sync state store is not configured")
	}
	in.IntegrationID = strings.TrimSpace(in.IntegrationID)
	in.CalendarID = strings.TrimSpace(in.CalendarID)
	in.ChannelID = strings.TrimSpace(in.ChannelID)
	in.ChannelToken = strings.TrimSpace(in.ChannelToken)
	in.ResourceID = strings.TrimSpace(in.ResourceID)
	if in.IntegrationID == "" || in.CalendarID == "" {
		return core.SyncState{}, fmt.Errorf("sqlstore: integration id and calendar id are required")
	}
	if in.ChannelID == "" {
		return core.SyncState{}, fmt.Errorf("sqlstore: channel id is required")
	}
	now := time.Now().UTC()

	var out core.SyncState
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		record, err := upsertSyncStateTx(ctx, tx, in.IntegrationID, in.CalendarID, now)
		if err != nil {
			return err
		}
		record.ChannelID = in.ChannelID
		record.ChannelToken = in.ChannelToken
		record.ResourceID = in.ResourceID
		record.ChannelExpiresAt = cloneTimePointer(in.ChannelExpiresAt)
		record.UpdatedAt = now
		if _, updateErr := tx.NewUpdate().Model(record).Where("id = ?", record.ID).Exec(ctx); updateErr != nil {
			return updateErr
		}
		out = record.toDomain()
		return nil
	})
	if err != nil {
		return core.SyncState{}, err
	}
	return out, nil
}

// ClearCursor blanks the resumption token so the next run performs a full
// window fetch. Channel identity on the row is preserved. A missing row is
// not an error.
func (s *SyncStateStore) ClearCursor(ctx context.Context, integrationID string, calendarID string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: sync state store is not configured")
	}
	integrationID = strings.TrimSpace(integrationID)
	calendarID = strings.TrimSpace(calendarID)
	if integrationID == "" || calendarID == "" {
		return fmt.Errorf("sqlstore: integration id and calendar id are required")
	}

	_, err := s.db.NewUpdate().
		Model((*syncStateRecord)(nil)).
		Set("sync_token = ?", "").
		Set("updated_at = ?", time.Now().UTC()).
		Where("?TableAlias.integration_id = ?", integrationID).
		Where("?TableAlias.calendar_id = ?", calendarID).
		Exec(ctx)
	return err
}

// upsertSyncStateTx returns the row for the pair key, inserting an empty one
// when absent. A concurrent insert loses the unique race and re-reads.
func upsertSyncStateTx(
	ctx context.Context,
	tx bun.Tx,
	integrationID string,
	calendarID string,
	now time.Time,
) (*syncStateRecord, error) {
	record, err := findSyncStateTx(ctx, tx, integrationID, calendarID)
	if err != nil {
		return nil, err
	}
	if record != nil {
		return record, nil
	}

	record = &syncStateRecord{
		ID:            uuid.NewString(),
		IntegrationID: integrationID,
		CalendarID:    calendarID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if _, insertErr := tx.NewInsert().Model(record).Exec(ctx); insertErr != nil {
		if !isUniqueViolation(insertErr) {
			return nil, insertErr
		}
		record, err = findSyncStateTx(ctx, tx, integrationID, calendarID)
		if err != nil {
			return nil, err
		}
		if record == nil {
			return nil, insertErr
		}
	}
	return record, nil
}

func findSyncStateTx(ctx context.Context, tx bun.Tx, integrationID string, calendarID string) (*syncStateRecord, error) {
	record := &syncStateRecord{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.integration_id = ?", strings.TrimSpace(integrationID)).
		Where("?TableAlias.calendar_id = ?", strings.TrimSpace(calendarID)).
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
