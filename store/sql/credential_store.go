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

type CredentialStore struct {
	db   *bun.DB
	repo repository.Repository[*credentialRecord]
}

func NewCredentialStore(db *bun.DB) (*CredentialStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*credentialRecord](db, credentialHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid credential repository wiring: %w", err)
		}
	}
	return &CredentialStore{
		db:   db,
		repo: repo,
	}, nil
}

func (s *CredentialStore) GetByIntegration(ctx context.Context, integrationID string) (core.Credential, error) {
	if s == nil || s.db == nil {
		return core.Credential{}, fmt.Errorf("sqlstore: credential store is not configured")
	}
	integrationID = strings.TrimSpace(integrationID)
	if integrationID == "" {
		return core.Credential{}, fmt.Errorf("sqlstore: integration id is required")
	}

	record := &credentialRecord{}
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.integration_id = ?", integrationID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return core.Credential{}, core.ErrCredentialsMissing
		}
		return core.Credential{}, err
	}
	return record.toDomain(), nil
}

// Save upserts the single credential row for an integration. A second save
// replaces the token triple rather than adding a version.
func (s *CredentialStore) Save(ctx context.Context, in core.SaveCredentialInput) (core.Credential, error) {
	if s == nil || s.db == nil {
		return core.Credential{}, fmt.Errorf("sqlstore: credential store is not configured")
	}
	in.IntegrationID = strings.TrimSpace(in.IntegrationID)
	in.AccessToken = strings.TrimSpace(in.AccessToken)
	in.RefreshToken = strings.TrimSpace(in.RefreshToken)
	if in.IntegrationID == "" {
		return core.Credential{}, fmt.Errorf("sqlstore: integration id is required")
	}
	if in.AccessToken == "" {
		return core.Credential{}, fmt.Errorf("sqlstore: access token is required")
	}
	now := time.Now().UTC()

	var out core.Credential
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		record, err := findCredentialTx(ctx, tx, in.IntegrationID)
		if err != nil {
			return err
		}
		if record == nil {
			record = newCredentialRecord(in, now)
			record.ID = uuid.NewString()
			if _, insertErr := tx.NewInsert().Model(record).Exec(ctx); insertErr != nil {
				if isUniqueViolation(insertErr) {
					record, err = findCredentialTx(ctx, tx, in.IntegrationID)
					if err != nil {
						return err
					}
					if record == nil {
						return insertErr
					}
				} else {
					return insertErr
				}
			} else {
				out = record.toDomain()
				return nil
			}
		}

		record.AccessToken = in.AccessToken
		record.RefreshToken = in.RefreshToken
		record.ExpiresAt = cloneTimePointer(in.ExpiresAt)
		record.UpdatedAt = now
		if _, updateErr := tx.NewUpdate().Model(record).Where("id = ?", record.ID).Exec(ctx); updateErr != nil {
			return updateErr
		}
		out = record.toDomain()
		return nil
	})
	if err != nil {
		return core.Credential{}, err
	}
	return out, nil
}

// RotateAccessToken replaces the access token and its expiry in a single
// statement so readers never observe a new token with a stale expiry.
func (s *CredentialStore) RotateAccessToken(
	ctx context.Context,
	integrationID string,
	accessToken string,
	expiresAt time.Time,
) (core.Credential, error) {
	if s == nil || s.db == nil {
		return core.Credential{}, fmt.Errorf("sqlstore: credential store is not configured")
	}
	integrationID = strings.TrimSpace(integrationID)
	accessToken = strings.TrimSpace(accessToken)
	if integrationID == "" {
		return core.Credential{}, fmt.Errorf("sqlstore: integration id is required")
	}
	if accessToken == "" {
		return core.Credential{}, fmt.Errorf("sqlstore: access token is required")
	}

	result, err := s.db.NewUpdate().
		Model((*credentialRecord)(nil)).
		Set("access_token = ?", accessToken).
		Set("expires_at = ?", expiresAt.UTC()).
		Set("updated_at = ?", time.Now().UTC()).
		Where("?TableAlias.integration_id = ?", integrationID).
		Exec(ctx)
	if err != nil {
		return core.Credential{}, err
	}
	if affected, affErr := result.RowsAffected(); affErr == nil && affected == 0 {
		return core.Credential{}, core.ErrCredentialsMissing
	}
	return s.GetByIntegration(ctx, integrationID)
}

func findCredentialTx(ctx context.Context, tx bun.Tx, integrationID string) (*credentialRecord, error) {
	record := &credentialRecord{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.integration_id = ?", strings.TrimSpace(integrationID)).
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

func isUniqueViolation(err error) bool {
	message := strings.ToLower(strings.TrimSpace(err.Error()))
	return strings.Contains(message, "unique constraint failed") ||
		strings.Contains(message, "duplicate key value violates unique constraint")
}
