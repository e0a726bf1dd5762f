// SPDX-License-Identifier: GPL-3.0-only

package commons

// Error codes carried in the response envelope.
const (
	CodeValidation      = "VALIDATION_ERROR"
	CodeNotFound        = "NOT_FOUND"
	CodeDuplicate       = "DUPLICATE"
	CodeRateLimited     = "RATE_LIMIT_EXCEEDED"
	CodeQuotaExceeded   = "QUOTA_EXCEEDED"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeForbidden       = "FORBIDDEN"
	CodePayloadTooLarge = "PAYLOAD_TOO_LARGE"
	CodeUpstream        = "UPSTREAM_ERROR"
	CodeInternal        = "INTERNAL_ERROR"
)

// ErrorBody is the error payload of the response envelope. Attaching it as
// an echo.HTTPError message overrides the default status-to-code mapping.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
