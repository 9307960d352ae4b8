package utils

import "errors"

// Common application errors used across services.
var (
	ErrInvalidRequest    = errors.New("INVALID_REQUEST")
	ErrUnauthorized      = errors.New("UNAUTHORIZED")
	ErrForbidden         = errors.New("FORBIDDEN")
	ErrRateLimited       = errors.New("RATE_LIMITED")
	ErrQuotaExceeded     = errors.New("QUOTA_EXCEEDED")
	ErrUpstream          = errors.New("UPSTREAM_ERROR")
	ErrPersistence       = errors.New("PERSISTENCE_ERROR")
	ErrAINotConfigured   = errors.New("AI_NOT_CONFIGURED")
	ErrForecastNotCached = errors.New("FORECAST_NOT_CACHED")
)
