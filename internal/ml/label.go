package ml

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Label is a class value exactly as the model artifact encodes it. The
// service does not interpret it; a string class stays a string and a numeric
// class stays a number on the wire.
type Label struct {
	raw json.RawMessage
}

// ParseLabel accepts any JSON scalar except null.
func ParseLabel(raw []byte) (Label, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || !json.Valid(trimmed) {
		return Label{}, fmt.Errorf("invalid label %q", raw)
	}
	switch trimmed[0] {
	case '{', '[':
		return Label{}, fmt.Errorf("label must be a JSON scalar, got %s", trimmed)
	case 'n':
		return Label{}, fmt.Errorf("label must not be null")
	}
	return Label{raw: append(json.RawMessage(nil), trimmed...)}, nil
}

// StringLabel builds a label from a plain string.
func StringLabel(s string) Label {
	b, _ := json.Marshal(s)
	return Label{raw: b}
}

// IsZero reports whether the label is unset.
func (l Label) IsZero() bool {
	return len(l.raw) == 0
}

// Equal reports whether both labels carry the same JSON token.
func (l Label) Equal(other Label) bool {
	return bytes.Equal(l.raw, other.raw)
}

// String returns the unquoted value for string labels and the raw JSON text
// otherwise.
func (l Label) String() string {
	var s string
	if err := json.Unmarshal(l.raw, &s); err == nil {
		return s
	}
	return string(l.raw)
}

func (l Label) MarshalJSON() ([]byte, error) {
	if l.IsZero() {
		return []byte("null"), nil
	}
	return l.raw, nil
}

func (l *Label) UnmarshalJSON(b []byte) error {
	parsed, err := ParseLabel(b)
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}
