package domain

// APIError is the problem body returned for every failed request
type APIError struct {
	Type   string            `json:"type"`
	Title  string            `json:"title"`
	Status int               `json:"status"`
	Detail string            `json:"detail,omitempty"`
	Errors map[string]string `json:"errors,omitempty"`
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return e.Title
}

// LineValidationError is returned when one or more document lines fail
// business validation. Every violation found is listed in Errors.
type LineValidationError struct {
	Type    string   `json:"type"`
	Title   string   `json:"title"`
	Status  int      `json:"status"`
	Message string   `json:"message"`
	Errors  []string `json:"errors"`
}

// Problem types
const (
	ErrorTypeValidation   = "validation_error"
	ErrorTypeNotFound     = "not_found"
	ErrorTypeBadRequest   = "bad_request"
	ErrorTypeConflict     = "conflict"
	ErrorTypeUnauthorized = "unauthorized"
	ErrorTypeForbidden    = "forbidden"
	ErrorTypeRateLimited  = "rate_limited"
	ErrorTypeUnavailable  = "service_unavailable"
	ErrorTypeUpstream     = "upstream_error"
	ErrorTypeInternal     = "internal_error"
)

// fieldMessages covers parameterless validator tags
var fieldMessages = map[string]string{
	"required": "This field is required",
	"uuid":     "Must be a valid UUID",
	"dive":     "Contains an invalid entry",
}

// FieldMessage returns the client-facing message for a validator tag
func FieldMessage(tag string) string {
	if msg, ok := fieldMessages[tag]; ok {
		return msg
	}
	return "Validation failed: " + tag
}
