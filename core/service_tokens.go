package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ValidAccessToken returns an access token that is valid for at least the
// configured refresh lead window, refreshing against the provider when the
// stored one is too close to expiry. Rotated tokens are persisted before the
// call returns, so callers must not hold the result beyond one sync
// operation.
func (s *Service) ValidAccessToken(ctx context.Context, integrationID string) (string, error) {
	if s == nil || s.credentialStore == nil {
		return "", s.mapError(fmt.Errorf("core: credential store is required"))
	}
	if s.provider == nil {
		return "", s.mapError(fmt.Errorf("core: calendar provider is required"))
	}
	integrationID = strings.TrimSpace(integrationID)
	if integrationID == "" {
		return "", s.mapError(fmt.Errorf("core: integration id is required"))
	}

	credential, err := s.credentialStore.GetByIntegration(ctx, integrationID)
	if err != nil {
		if errors.Is(err, ErrCredentialsMissing) {
			return "", s.mapError(fmt.Errorf("%w: integration %s", ErrCredentialsMissing, integrationID))
		}
		return "", s.mapError(err)
	}
	if strings.TrimSpace(credential.AccessToken) == "" {
		return "", s.mapError(fmt.Errorf("%w: integration %s", ErrCredentialsMissing, integrationID))
	}

	now := s.now()
	if !tokenNeedsRefresh(now, credential.ExpiresAt, s.config.RefreshLeadWindow) {
		return credential.AccessToken, nil
	}

	if strings.TrimSpace(credential.RefreshToken) == "" {
		return "", s.mapError(fmt.Errorf("%w: integration %s", ErrRefreshTokenMissing, integrationID))
	}

	grant, err := s.provider.RefreshToken(ctx, credential.RefreshToken)
	if err != nil {
		s.recordRefreshFailure(ctx, integrationID, err)
		return "", s.mapError(fmt.Errorf("%w: %v", ErrRefreshFailed, err))
	}

	expiresAt := now.Add(time.Duration(grant.ExpiresIn) * time.Second)
	if _, err := s.credentialStore.RotateAccessToken(ctx, integrationID, grant.AccessToken, expiresAt); err != nil {
		return "", s.mapError(err)
	}
	s.clearRefreshFailures(ctx, integrationID)

	s.logDebug(ctx, "access token refreshed", map[string]any{
		"integration_id": integrationID,
		"expires_at":     expiresAt.Format(time.RFC3339),
	})
	return grant.AccessToken, nil
}

// tokenNeedsRefresh applies the lead-window rule: a token expiring within
// the window, or with no recorded expiry at all, forces a refresh.
func tokenNeedsRefresh(now time.Time, expiresAt *time.Time, lead time.Duration) bool {
	if expiresAt == nil {
		return true
	}
	if lead <= 0 {
		lead = 60 * time.Second
	}
	return expiresAt.UTC().Sub(now) < lead
}

func (s *Service) recordRefreshFailure(ctx context.Context, integrationID string, cause error) {
	if s == nil || s.integrationStore == nil {
		return
	}
	count, err := s.integrationStore.RecordRefreshFailure(ctx, integrationID, fmt.Sprint(cause))
	if err != nil {
		s.logWarn(ctx, "record refresh failure", map[string]any{
			"integration_id": integrationID,
			"error":          err.Error(),
		})
		return
	}
	if count < s.refreshFailureLimit() {
		return
	}
	if err := s.integrationStore.SetStatus(ctx, integrationID, IntegrationStatusErrored, fmt.Sprint(cause)); err != nil {
		s.logWarn(ctx, "flip integration to error status", map[string]any{
			"integration_id": integrationID,
			"error":          err.Error(),
		})
	}
}

func (s *Service) clearRefreshFailures(ctx context.Context, integrationID string) {
	if s == nil || s.integrationStore == nil {
		return
	}
	if err := s.integrationStore.ClearRefreshFailures(ctx, integrationID); err != nil {
		s.logWarn(ctx, "clear refresh failures", map[string]any{
			"integration_id": integrationID,
			"error":          err.Error(),
		})
	}
}

func (s *Service) refreshFailureLimit() int {
	if s != nil && s.config.RefreshFailureLimit > 0 {
		return s.config.RefreshFailureLimit
	}
	return 3
}
