package reading

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformedBody is returned when the payload is not a JSON object at all.
var ErrMalformedBody = errors.New("request body must be a JSON object")

const (
	msgRequired  = "field required"
	msgNotNumber = "value is not a valid number"
)

// FieldError describes why a single field was rejected.
type FieldError struct {
	Field   string   `json:"field"`
	Message string   `json:"message"`
	Min     float64  `json:"min"`
	Max     float64  `json:"max"`
	Value   *float64 `json:"value,omitempty"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError enumerates every field that failed validation, in field
// table order.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Error()
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Has reports whether the named field is among the violations.
func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

// Decode parses a request payload into a Reading. Every field must be present,
// numeric and within range; all violations are reported together. Unknown keys
// are ignored.
func Decode(body []byte) (Reading, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return Reading{}, fmt.Errorf("%w: %v", ErrMalformedBody, err)
	}
	if raw == nil {
		return Reading{}, ErrMalformedBody
	}

	var (
		r        Reading
		failures []FieldError
	)
	for _, f := range Fields {
		value, ok := raw[f.Name]
		if !ok {
			failures = append(failures, newFieldError(f, msgRequired, nil))
			continue
		}

		v, err := parseNumber(value)
		if err != nil {
			failures = append(failures, newFieldError(f, msgNotNumber, nil))
			continue
		}

		if !f.Contains(v) {
			failures = append(failures, rangeError(f, v))
			continue
		}

		r = r.with(f.Name, v)
	}

	if len(failures) > 0 {
		return Reading{}, &ValidationError{Fields: failures}
	}
	return r, nil
}

// Validate checks an already constructed Reading against the field ranges.
func Validate(r Reading) error {
	var failures []FieldError
	for _, f := range Fields {
		v, _ := r.Value(f.Name)
		if !f.Contains(v) {
			failures = append(failures, rangeError(f, v))
		}
	}
	if len(failures) > 0 {
		return &ValidationError{Fields: failures}
	}
	return nil
}

func parseNumber(raw json.RawMessage) (float64, error) {
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return 0, errors.New("null value")
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, err
	}
	return v, nil
}

func rangeError(f Field, v float64) FieldError {
	msg := fmt.Sprintf("must be between %s and %s", formatBound(f.Min), formatBound(f.Max))
	return newFieldError(f, msg, &v)
}

func newFieldError(f Field, msg string, value *float64) FieldError {
	return FieldError{
		Field:   f.Name,
		Message: msg,
		Min:     f.Min,
		Max:     f.Max,
		Value:   value,
	}
}

func formatBound(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
