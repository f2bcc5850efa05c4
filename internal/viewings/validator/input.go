package validator

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	viewingserrors "roombook/internal/viewings/errors"
)

var jsonNull = []byte("null")

func isAbsent(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, jsonNull)
}

// ParseLength reads a raw JSON length. Absent input yields nil with no error
// so that presence is judged by Validate. Numbers, numeric strings and whole
// floats such as 2.0 are accepted; anything else is an invalid_length error.
// The sign is not checked here.
func ParseLength(raw json.RawMessage) (*int, *ValidationError) {
	if isAbsent(raw) {
		return nil, nil
	}

	var text string
	var number json.Number
	switch {
	case json.Unmarshal(raw, &number) == nil:
		text = number.String()
	case json.Unmarshal(raw, &text) == nil:
		text = strings.TrimSpace(text)
	default:
		return nil, lengthError("is not a number")
	}

	if n, err := strconv.Atoi(text); err == nil {
		return &n, nil
	}

	f, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, lengthError("is not a number")
	}
	if f != math.Trunc(f) || f > math.MaxInt32 || f < math.MinInt32 {
		return nil, lengthError("must be a whole number of hours")
	}
	n := int(f)
	return &n, nil
}

// ParseStartTime reads a raw JSON RFC3339 timestamp. Absent input yields nil
// with no error; an unreadable value is reported against start_time.
func ParseStartTime(raw json.RawMessage) (*time.Time, *ValidationError) {
	if isAbsent(raw) {
		return nil, nil
	}

	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return nil, startTimeError()
	}
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(text))
	if err != nil {
		return nil, startTimeError()
	}
	return &t, nil
}

func lengthError(message string) *ValidationError {
	return &ValidationError{
		Field:   "length",
		Code:    CodeInvalidLength,
		Message: message,
		Kind:    viewingserrors.ErrInvalidLength,
	}
}

func startTimeError() *ValidationError {
	return &ValidationError{
		Field:   "start_time",
		Code:    CodeMissingField,
		Message: "is not a valid time",
		Kind:    viewingserrors.ErrMissingField,
	}
}
