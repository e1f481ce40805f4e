package httpx

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

type ErrorCode string

const (
	ErrInvalidJSON      ErrorCode = "invalid_json"
	ErrInvalidParam     ErrorCode = "invalid_param"
	ErrUnsupportedMedia ErrorCode = "unsupported_media_type"
	ErrValidationFailed ErrorCode = "validation_failed"
	ErrNotFound         ErrorCode = "not_found"
	ErrUnavailable      ErrorCode = "unavailable"
	ErrTimeout          ErrorCode = "timeout"
	ErrInternal         ErrorCode = "internal_error"
)

type ErrorResponse[T any] struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details T         `json:"details,omitempty"`
}

// Violation is one failed field rule, reported under the field's wire name.
type Violation struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
	Limit string `json:"limit,omitempty"`
	Value any    `json:"value,omitempty"`
}

// Violations flattens a validator error into per-field entries. Any other
// error yields a single entry with an empty field.
func Violations(err error) []Violation {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []Violation{{Rule: "invalid", Limit: err.Error()}}
	}
	out := make([]Violation, len(verrs))
	for i, fe := range verrs {
		out[i] = Violation{Field: fe.Field(), Rule: fe.Tag(), Limit: fe.Param(), Value: fe.Value()}
	}
	return out
}
