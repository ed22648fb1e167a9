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

type IntegrationStore struct {
	db   *bun.DB
	repo repository.Repository[*integrationRecord]
}

func NewIntegrationStore(db *bun.DB) (*IntegrationStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*integrationRecord](db, integrationHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid integration repository wiring: %w", err)
		}
	}
	return &IntegrationStore{
		db:   db,
		repo: repo,
	}, nil
}

func (s *IntegrationStore) Get(ctx context.Context, id string) (core.Integration, error) {
	if s == nil || s.db == nil {
		return core.Integration{}, fmt.Errorf("sqlstore: integration store is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return core.Integration{}, fmt.Errorf("sqlstore: integration id is required")
	}

	record := &integrationRecord{}
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return core.Integration{}, core.ErrIntegrationNotFound
		}
		return core.Integration{}, err
	}
	return record.toDomain(), nil
}

func (s *IntegrationStore) Create(ctx context.Context, in core.CreateIntegrationInput) (core.Integration, error) {
	if s == nil || s.db == nil {
		return core.Integration{}, fmt.Errorf("sqlstore: integration store is not configured")
	}
	in.UserID = strings.TrimSpace(in.UserID)
	in.WorkspaceID = strings.TrimSpace(in.WorkspaceID)
	if in.UserID == "" {
		return core.Integration{}, fmt.Errorf("sqlstore: user id is required")
	}

	record := newIntegrationRecord(in, time.Now().UTC())
	record.ID = uuid.NewString()
	if _, err := s.db.NewInsert().Model(record).Exec(ctx); err != nil {
		return core.Integration{}, err
	}
	return record.toDomain(), nil
}

func (s *IntegrationStore) SetPrimaryCalendar(ctx context.Context, id string, calendarID string) (core.Integration, error) {
	if s == nil || s.db == nil {
		return core.Integration{}, fmt.Errorf("sqlstore: integration store is not configured")
	}
	id = strings.TrimSpace(id)
	calendarID = strings.TrimSpace(calendarID)
	if id == "" || calendarID == "" {
		return core.Integration{}, fmt.Errorf("sqlstore: integration id and calendar id are required")
	}
	now := time.Now().UTC()

	var out core.Integration
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		record, err := findIntegrationTx(ctx, tx, id)
		if err != nil {
			return err
		}
		integration := record.toDomain()
		if integration.Status != core.IntegrationStatusConnected {
			if transitionErr := integration.TransitionTo(core.IntegrationStatusConnected, "", now); transitionErr != nil {
				return transitionErr
			}
		}
		record.PrimaryCalendarID = calendarID
		record.Status = string(integration.Status)
		record.LastError = ""
		record.UpdatedAt = now
		if _, updateErr := tx.NewUpdate().Model(record).Where("id = ?", record.ID).Exec(ctx); updateErr != nil {
			return updateErr
		}
		out = record.toDomain()
		return nil
	})
	if err != nil {
		return core.Integration{}, err
	}
	return out, nil
}

func (s *IntegrationStore) SetStatus(ctx context.Context, id string, status core.IntegrationStatus, reason string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: integration store is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("sqlstore: integration id is required")
	}
	now := time.Now().UTC()

	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		record, err := findIntegrationTx(ctx, tx, id)
		if err != nil {
			return err
		}
		integration := record.toDomain()
		if transitionErr := integration.TransitionTo(status, reason, now); transitionErr != nil {
			return transitionErr
		}
		record.Status = string(integration.Status)
		record.LastError = integration.LastError
		record.UpdatedAt = now
		_, updateErr := tx.NewUpdate().Model(record).Where("id = ?", record.ID).Exec(ctx)
		return updateErr
	})
}

func (s *IntegrationStore) RecordRefreshFailure(ctx context.Context, id string, reason string) (int, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("sqlstore: integration store is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return 0, fmt.Errorf("sqlstore: integration id is required")
	}
	now := time.Now().UTC()

	var count int
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		record, err := findIntegrationTx(ctx, tx, id)
		if err != nil {
			return err
		}
		record.RefreshFailures++
		record.LastError = strings.TrimSpace(reason)
		record.UpdatedAt = now
		if _, updateErr := tx.NewUpdate().Model(record).Where("id = ?", record.ID).Exec(ctx); updateErr != nil {
			return updateErr
		}
		count = record.RefreshFailures
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (s *IntegrationStore) ClearRefreshFailures(ctx context.Context, id string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: integration store is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("sqlstore: integration id is required")
	}

	_, err := s.db.NewUpdate().
		Model((*integrationRecord)(nil)).
		Set("refresh_failures = ?", 0).
		Set("last_error = ?", "").
		Set("updated_at = ?", time.Now().UTC()).
		Where("?TableAlias.id = ?", id).
		Exec(ctx)
	return err
}

func (s *IntegrationStore) Disable(ctx context.Context, id string, reason string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: integration store is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("sqlstore: integration id is required")
	}
	now := time.Now().UTC()

	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		record, err := findIntegrationTx(ctx, tx, id)
		if err != nil {
			return err
		}
		integration := record.toDomain()
		if integration.Status != core.IntegrationStatusDisabled {
			if transitionErr := integration.TransitionTo(core.IntegrationStatusDisabled, reason, now); transitionErr != nil {
				return transitionErr
			}
		}
		record.Status = string(core.IntegrationStatusDisabled)
		record.LastError = integration.LastError
		record.UpdatedAt = now
		if record.DisabledAt == nil {
			record.DisabledAt = &now
		}
		_, updateErr := tx.NewUpdate().Model(record).Where("id = ?", record.ID).Exec(ctx)
		return updateErr
	})
}

func findIntegrationTx(ctx context.Context, tx bun.Tx, id string) (*integrationRecord, error) {
	record := &integrationRecord{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", strings.TrimSpace(id)).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, core.ErrIntegrationNotFound
		}
		return nil, err
	}
	return record, nil
}
