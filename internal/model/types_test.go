package model

import (
	"encoding/json"
	"testing"
	"time"
)

func TestBoolScan(t *testing.T) {
	cases := []struct {
		name string
		src  any
		want bool
	}{
		{"int64 one", int64(1), true},
		{"int64 zero", int64(0), false},
		{"native bool", true, true},
		{"text one", "1", true},
		{"text true", "true", true},
		{"nil", nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var b Bool
			if err := b.Scan(tc.src); err != nil {
				t.Fatalf("Scan(%v): %v", tc.src, err)
			}
			if bool(b) != tc.want {
				t.Errorf("Scan(%v) = %v, want %v", tc.src, b, tc.want)
			}
		})
	}
}

func TestTimestampRoundTrip(t *testing.T) {
	orig := Now()

	val, err := orig.Value()
	if err != nil {
		t.Fatalf("Value: %v", err)
	}

	var decoded Timestamp
	if err := decoded.Scan(val); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if !decoded.Time().Equal(orig.Time()) {
		t.Errorf("round trip changed value: %v != %v", decoded, orig)
	}
}

func TestTimestampZeroIsNull(t *testing.T) {
	var zero Timestamp

	val, err := zero.Value()
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	if val != nil {
		t.Errorf("zero timestamp Value = %v, want nil", val)
	}

	data, err := json.Marshal(zero)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(data) != "null" {
		t.Errorf("zero timestamp JSON = %s, want null", data)
	}
}

func TestTimestampScanNativeTime(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)

	var ts Timestamp
	if err := ts.Scan(now); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if !ts.Time().Equal(now) {
		t.Errorf("Scan(time.Time) = %v, want %v", ts, now)
	}
}

func TestQuestionListRoundTrip(t *testing.T) {
	orig := QuestionList{
		{
			ID:          "q1",
			Prompt:      "What is 2+2?",
			Choices:     []string{"3", "4", "5"},
			Answer:      1,
			Explanation: "Basic arithmetic.",
		},
	}

	val, err := orig.Value()
	if err != nil {
		t.Fatalf("Value: %v", err)
	}

	var decoded QuestionList
	if err := decoded.Scan(val); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(decoded) != 1 || decoded[0].Prompt != orig[0].Prompt || decoded[0].Answer != 1 {
		t.Errorf("round trip mismatch: %+v", decoded)
	}
	if len(decoded[0].Choices) != 3 {
		t.Errorf("choices lost: %+v", decoded[0].Choices)
	}
}

func TestStringListScanFromBytes(t *testing.T) {
	var tags StringList
	if err := tags.Scan([]byte(`["math","algebra"]`)); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(tags) != 2 || tags[0] != "math" {
		t.Errorf("Scan gave %v", tags)
	}
}

func TestJSONMapNilScan(t *testing.T) {
	var m JSONMap
	if err := m.Scan(nil); err != nil {
		t.Fatalf("Scan(nil): %v", err)
	}
	if len(m) != 0 {
		t.Errorf("Scan(nil) gave %v, want empty map", m)
	}
}

func TestUserValuesMatchesJSON(t *testing.T) {
	u := User{
		ID:       "u1",
		Username: "ana",
		IsAdmin:  true,
	}

	values := u.Values()
	data, err := json.Marshal(&u)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var fromJSON map[string]any
	if err := json.Unmarshal(data, &fromJSON); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	// Both maps must carry the same column set so queued payloads and
	// direct writes stay interchangeable.
	if len(values) != len(fromJSON) {
		t.Fatalf("Values has %d keys, JSON %d", len(values), len(fromJSON))
	}
	for k := range values {
		if _, ok := fromJSON[k]; !ok {
			t.Errorf("column %q missing from JSON form", k)
		}
	}
}
