package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ValueKind tags the variant held by a SurveyValue.
type ValueKind uint8

const (
	KindNull ValueKind = iota
	KindNumber
	KindText
	KindBool
)

func (k ValueKind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindText:
		return "text"
	case KindBool:
		return "bool"
	default:
		return "null"
	}
}

// SurveyValue is a single scalar from a survey payload.
// Nested JSON objects and arrays are kept as Text holding the raw JSON.
type SurveyValue struct {
	kind    ValueKind
	number  float64
	text    string
	boolean bool
}

// Number builds a numeric value.
func Number(v float64) SurveyValue { return SurveyValue{kind: KindNumber, number: v} }

// Text builds a text value.
func Text(v string) SurveyValue { return SurveyValue{kind: KindText, text: v} }

// Bool builds a boolean value.
func Bool(v bool) SurveyValue { return SurveyValue{kind: KindBool, boolean: v} }

// Null builds an explicit null.
func Null() SurveyValue { return SurveyValue{} }

// Kind returns the variant tag.
func (v SurveyValue) Kind() ValueKind { return v.kind }

// Number returns the numeric value and whether the value is numeric.
func (v SurveyValue) Number() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return v.number, true
}

// Text returns the text value and whether the value is text.
func (v SurveyValue) Text() (string, bool) {
	if v.kind != KindText {
		return "", false
	}
	return v.text, true
}

// Bool returns the boolean value and whether the value is a boolean.
func (v SurveyValue) Bool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.boolean, true
}

// NumberOrZero is the metric coercion rule: numbers pass through, everything else is 0.
// Numeric-looking text and booleans are not numbers. Booleans count as 0 on
// purpose, unlike the earlier dashboard which summed true as 1.
func (v SurveyValue) NumberOrZero() float64 {
	n, _ := v.Number()
	return n
}

func (v SurveyValue) String() string {
	switch v.kind {
	case KindNumber:
		return strconv.FormatFloat(v.number, 'f', -1, 64)
	case KindText:
		return v.text
	case KindBool:
		return strconv.FormatBool(v.boolean)
	default:
		return "null"
	}
}

// MarshalJSON implements json.Marshaler.
func (v SurveyValue) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNumber:
		return json.Marshal(v.number)
	case KindText:
		return json.Marshal(v.text)
	case KindBool:
		return json.Marshal(v.boolean)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *SurveyValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("survey value: empty input")
	}

	switch data[0] {
	case 'n':
		*v = Null()
		return nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return fmt.Errorf("survey value: %w", err)
		}
		*v = Bool(b)
		return nil
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("survey value: %w", err)
		}
		*v = Text(s)
		return nil
	case '{', '[':
		var compact bytes.Buffer
		if err := json.Compact(&compact, data); err != nil {
			return fmt.Errorf("survey value: %w", err)
		}
		*v = Text(compact.String())
		return nil
	default:
		var n float64
		if err := json.Unmarshal(data, &n); err != nil {
			// Valid JSON numbers outside float64 range are kept as text.
			if !json.Valid(data) {
				return fmt.Errorf("survey value: %w", err)
			}
			*v = Text(string(data))
			return nil
		}
		*v = Number(n)
		return nil
	}
}
