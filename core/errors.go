package core

import (
	"errors"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

var (
	ErrCredentialsMissing  = errors.New("core: credentials missing")
	ErrRefreshTokenMissing = errors.New("core: refresh token missing")
	ErrRefreshFailed       = errors.New("core: token refresh failed")
	ErrInvalidGrant        = errors.New("core: refresh token revoked")
	ErrCursorInvalid       = errors.New("core: sync cursor invalid")
	ErrNoPrimaryCalendar   = errors.New("core: no primary calendar")
	ErrProviderUnavailable = errors.New("core: provider unavailable")
)

const (
	SyncErrorBadInput           = "CALSYNC_BAD_INPUT"
	SyncErrorNotFound           = "CALSYNC_NOT_FOUND"
	SyncErrorCredentialsMissing = "CALSYNC_CREDENTIALS_MISSING"
	SyncErrorRefreshFailed      = "CALSYNC_REFRESH_FAILED"
	SyncErrorNoPrimaryCalendar  = "CALSYNC_NO_PRIMARY_CALENDAR"
	SyncErrorProviderFailed     = "CALSYNC_PROVIDER_FAILED"
	SyncErrorInternal           = "CALSYNC_INTERNAL_ERROR"
)

type ErrorMapper func(err error) *goerrors.Error

func defaultErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureSyncErrorEnvelope(richErr)
	}

	switch {
	case errors.Is(err, ErrCredentialsMissing), errors.Is(err, ErrRefreshTokenMissing):
		return newSyncError(err, goerrors.CategoryAuth, SyncErrorCredentialsMissing)
	case errors.Is(err, ErrRefreshFailed), errors.Is(err, ErrInvalidGrant):
		return newSyncError(err, goerrors.CategoryAuth, SyncErrorRefreshFailed)
	case errors.Is(err, ErrNoPrimaryCalendar):
		return newSyncError(err, goerrors.CategoryNotFound, SyncErrorNoPrimaryCalendar)
	case errors.Is(err, ErrIntegrationNotFound), errors.Is(err, ErrSyncStateNotFound), errors.Is(err, ErrEventNotFound):
		return newSyncError(err, goerrors.CategoryNotFound, SyncErrorNotFound)
	case errors.Is(err, ErrProviderUnavailable):
		return newSyncError(err, goerrors.CategoryExternal, SyncErrorProviderFailed)
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "required"), strings.Contains(msg, "invalid"), strings.Contains(msg, "mismatch"):
		return newSyncError(err, goerrors.CategoryBadInput, SyncErrorBadInput)
	}

	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureSyncErrorEnvelope(mapped)
}

func newSyncError(err error, category goerrors.Category, textCode string) *goerrors.Error {
	return ensureSyncErrorEnvelope(
		goerrors.Wrap(err, category, err.Error()).
			WithTextCode(textCode),
	)
}

func ensureSyncErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = syncHTTPStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultSyncTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultSyncTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return SyncErrorBadInput
	case goerrors.CategoryNotFound:
		return SyncErrorNotFound
	case goerrors.CategoryAuth, goerrors.CategoryAuthz:
		return SyncErrorCredentialsMissing
	case goerrors.CategoryExternal, goerrors.CategoryOperation:
		return SyncErrorProviderFailed
	default:
		return SyncErrorInternal
	}
}

func syncHTTPStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryExternal, goerrors.CategoryOperation:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
