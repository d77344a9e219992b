// Package model defines the record types shared by every repository,
// together with the codec types that bridge the two storage encodings:
// the local store keeps booleans as INTEGER 0/1, timestamps as RFC3339
// TEXT and structured fields as JSON text, while the remote store uses
// native booleans, timestamptz and jsonb. Both directions must
// round-trip losslessly.
package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Bool is a boolean stored as INTEGER 0/1 in the local store and as a
// native boolean remotely. It scans from either encoding.
type Bool bool

// Int returns the local-store integer encoding (0 or 1).
func (b Bool) Int() int {
	if b {
		return 1
	}
	return 0
}

// Value implements driver.Valuer using the local-store convention.
func (b Bool) Value() (driver.Value, error) {
	return int64(b.Int()), nil
}

// Scan implements sql.Scanner for both storage encodings.
func (b *Bool) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*b = false
	case bool:
		*b = Bool(v)
	case int64:
		*b = v != 0
	case int:
		*b = v != 0
	case []byte:
		return b.scanString(string(v))
	case string:
		return b.scanString(v)
	default:
		return fmt.Errorf("cannot scan %T into Bool", src)
	}
	return nil
}

func (b *Bool) scanString(s string) error {
	switch s {
	case "0", "false", "f":
		*b = false
	case "1", "true", "t":
		*b = true
	default:
		return fmt.Errorf("cannot scan %q into Bool", s)
	}
	return nil
}

// Timestamp is a point in time stored as RFC3339 TEXT locally and as
// timestamptz remotely. The zero value marshals as an empty string and
// is treated as NULL by the store adapters.
type Timestamp time.Time

// Now returns the current UTC time truncated to whole seconds, which is
// the resolution RFC3339 column text preserves.
func Now() Timestamp {
	return Timestamp(time.Now().UTC().Truncate(time.Second))
}

// Time returns the underlying time.Time.
func (t Timestamp) Time() time.Time { return time.Time(t) }

// IsZero reports whether the timestamp is unset.
func (t Timestamp) IsZero() bool { return time.Time(t).IsZero() }

// String returns the RFC3339 encoding.
func (t Timestamp) String() string {
	return time.Time(t).UTC().Format(time.RFC3339)
}

// Value implements driver.Valuer using the local-store convention.
func (t Timestamp) Value() (driver.Value, error) {
	if t.IsZero() {
		return nil, nil
	}
	return t.String(), nil
}

// Scan implements sql.Scanner for both storage encodings.
func (t *Timestamp) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*t = Timestamp{}
	case time.Time:
		*t = Timestamp(v.UTC())
	case []byte:
		return t.scanString(string(v))
	case string:
		return t.scanString(v)
	default:
		return fmt.Errorf("cannot scan %T into Timestamp", src)
	}
	return nil
}

func (t *Timestamp) scanString(s string) error {
	if s == "" {
		*t = Timestamp{}
		return nil
	}
	parsed, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return fmt.Errorf("cannot scan %q into Timestamp: %w", s, err)
	}
	*t = Timestamp(parsed.UTC())
	return nil
}

// MarshalJSON encodes the timestamp as an RFC3339 string, or null when
// unset, so queued payloads replay with the same value.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.String())
}

// UnmarshalJSON decodes an RFC3339 string or null.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*t = Timestamp{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	return t.scanString(s)
}

// StringList is a list of strings stored as a JSON array: text locally,
// jsonb remotely.
type StringList []string

// Value implements driver.Valuer.
func (l StringList) Value() (driver.Value, error) { return jsonValue(l) }

// Scan implements sql.Scanner.
func (l *StringList) Scan(src any) error {
	return jsonScan(src, l, func() { *l = StringList{} })
}

// JSONMap is an open key/value structure (metadata, platform info,
// device info) stored as a JSON object.
type JSONMap map[string]any

// Value implements driver.Valuer.
func (m JSONMap) Value() (driver.Value, error) { return jsonValue(m) }

// Scan implements sql.Scanner.
func (m *JSONMap) Scan(src any) error {
	return jsonScan(src, m, func() { *m = JSONMap{} })
}

// Question is a single question of a custom quiz.
type Question struct {
	ID          string   `json:"id"`
	Prompt      string   `json:"prompt"`
	Choices     []string `json:"choices"`
	Answer      int      `json:"answer"`
	Explanation string   `json:"explanation,omitempty"`
}

// QuestionList is the questions column of a custom quiz.
type QuestionList []Question

// Value implements driver.Valuer.
func (l QuestionList) Value() (driver.Value, error) { return jsonValue(l) }

// Scan implements sql.Scanner.
func (l *QuestionList) Scan(src any) error {
	return jsonScan(src, l, func() { *l = QuestionList{} })
}

// Answer records the outcome of one question within a quiz attempt.
type Answer struct {
	QuestionID string `json:"question_id"`
	Selected   int    `json:"selected"`
	Correct    bool   `json:"correct"`
}

// AnswerList is the answers column of a quiz attempt.
type AnswerList []Answer

// Value implements driver.Valuer.
func (l AnswerList) Value() (driver.Value, error) { return jsonValue(l) }

// Scan implements sql.Scanner.
func (l *AnswerList) Scan(src any) error {
	return jsonScan(src, l, func() { *l = AnswerList{} })
}

func jsonValue(v any) (driver.Value, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %T: %w", v, err)
	}
	return string(data), nil
}

func jsonScan(src any, dest any, reset func()) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		reset()
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into %T", src, dest)
	}
	if len(data) == 0 || string(data) == "null" {
		reset()
		return nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("failed to unmarshal %T: %w", dest, err)
	}
	return nil
}
