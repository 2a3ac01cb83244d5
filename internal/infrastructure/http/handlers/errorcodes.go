package handlers

// API error codes returned in JSON { "error": "...", "code": "..." } for stable client handling.
const (
	ErrCodeAuthenticationFailed = "authentication_failed"
	ErrCodeUnauthorized         = "unauthorized"
	ErrCodeInvalidRequest       = "invalid_request"
	ErrCodeValidation           = "validation_failed"
	ErrCodeNotFound             = "not_found"
	ErrCodeConflict             = "conflict"
	ErrCodeRateLimited          = "rate_limited"
	ErrCodeInvalidToken         = "invalid_token"
	ErrCodeTokenExpired         = "token_expired"
	ErrCodeInternal             = "internal_error"
)
