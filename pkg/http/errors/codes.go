package errors

// Error codes for standardized error responses
const (
	// Authentication errors
	ErrCodeInvalidTicket = "invalid_ticket"
	ErrCodeTicketExpired = "ticket_expired"

	// Validation errors
	ErrCodeInvalidPayload = "invalid_payload"

	// Session errors
	ErrCodeInvalidState       = "invalid_state"
	ErrCodeUnknownID          = "unknown_id"
	ErrCodeUnknownMessageType = "unknown_message_type"
	ErrCodeSessionNotStarted  = "session_not_started"

	// Resource errors
	ErrCodeNotFound = "not_found"

	// Server errors
	ErrCodeInternalError      = "internal_error"
	ErrCodeServiceUnavailable = "service_unavailable"
	ErrCodeUpstreamError      = "upstream_error"
	ErrCodeMethodNotAllowed   = "method_not_allowed"

	// Top score errors
	ErrCodeTopScoreFetchFailed = "top_score_fetch_failed"
	ErrCodeTicketIssueFailed   = "ticket_issue_failed"
)
