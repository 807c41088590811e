package handlers

// Error codes returned in ErrorResponse.Code. Clients branch on these; the
// message is for display only.
const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeUnauthorized     = "unauthorized"
	ErrCodeForbidden        = "forbidden"
	ErrCodeNotFound         = "not_found"
	ErrCodeConflict         = "conflict"
	ErrCodeRateLimited      = "too_many_requests"
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeInternal         = "internal_error"

	// Bridge-specific:
	ErrCodeUnknownList         = "unknown_list"
	ErrCodeNotImplemented      = "not_implemented"
	ErrCodeUpstream            = "upstream_error"
	ErrCodeUpstreamUnreachable = "upstream_unreachable"
	ErrCodeUpstreamTimeout     = "upstream_timeout"
	ErrCodePayloadTooLarge     = "payload_too_large"
)
