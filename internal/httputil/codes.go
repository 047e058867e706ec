package httputil

// Machine-readable error codes returned alongside error messages so API
// clients can branch without parsing human-readable text.
const (
	CodeInvalidRequestBody = "invalid_request_body"
	CodeMissingFields      = "missing_fields"
	CodeInvalidEmailFormat = "invalid_email_format"
	CodeUserAlreadyExists  = "user_already_exists"
	CodeInvalidCredentials = "invalid_credentials"
	CodeTooManyRequests    = "too_many_requests"
	CodeInvalidAuthHeader  = "invalid_auth_header"
	CodeMissingAuth        = "missing_auth"
	CodeTokenExpired       = "token_expired"
	CodeInvalidToken       = "invalid_token"
	CodeInvalidTokenUserID = "invalid_token_user_id"
	CodeStoreUnavailable   = "store_unavailable"
	CodeInternalError      = "internal_error"
)
