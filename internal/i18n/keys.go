// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Applications
	KeyApplicationNotFound = "application.not_found"
	KeyApplicationInvalid  = "application.invalid_id"

	// Validation
	KeyValidationInvalid = "validation.invalid"
	KeyValidationBody    = "validation.malformed_body"

	// Generic
	KeyInternalError     = "error.internal"
	KeyRateLimitExceeded = "error.rate_limited"
	KeyServiceDegraded   = "health.degraded"
)
