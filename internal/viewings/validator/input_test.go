package validator

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	viewingserrors "roombook/internal/viewings/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLength(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    *int
		wantErr string
	}{
		{name: "absent", raw: ``},
		{name: "null", raw: `null`},
		{name: "integer", raw: `2`, want: intPtr(2)},
		{name: "zero is left to Validate", raw: `0`, want: intPtr(0)},
		{name: "negative is left to Validate", raw: `-1`, want: intPtr(-1)},
		{name: "whole float", raw: `2.0`, want: intPtr(2)},
		{name: "exponent", raw: `1e1`, want: intPtr(10)},
		{name: "numeric string", raw: `"3"`, want: intPtr(3)},
		{name: "padded numeric string", raw: `" 3 "`, want: intPtr(3)},
		{name: "fraction", raw: `1.5`, wantErr: "must be a whole number of hours"},
		{name: "fractional string", raw: `"1.5"`, wantErr: "must be a whole number of hours"},
		{name: "word", raw: `"abc"`, wantErr: "is not a number"},
		{name: "empty string", raw: `""`, wantErr: "is not a number"},
		{name: "boolean", raw: `true`, wantErr: "is not a number"},
		{name: "object", raw: `{"hours":1}`, wantErr: "is not a number"},
		{name: "huge", raw: `1e300`, wantErr: "must be a whole number of hours"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLength(json.RawMessage(tt.raw))

			if tt.wantErr != "" {
				require.NotNil(t, err)
				assert.Nil(t, got)
				assert.Equal(t, "length", err.Field)
				assert.Equal(t, CodeInvalidLength, err.Code)
				assert.Equal(t, tt.wantErr, err.Message)
				assert.True(t, errors.Is(*err, viewingserrors.ErrInvalidLength))
				return
			}

			assert.Nil(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseStartTime(t *testing.T) {
	got, err := ParseStartTime(json.RawMessage(`"2030-01-01T15:00:00+01:00"`))
	require.Nil(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Equal(time.Date(2030, 1, 1, 14, 0, 0, 0, time.UTC)))

	got, err = ParseStartTime(json.RawMessage(`null`))
	assert.Nil(t, err)
	assert.Nil(t, got)

	for _, raw := range []string{`"tomorrow"`, `12`, `""`} {
		got, err = ParseStartTime(json.RawMessage(raw))
		require.NotNil(t, err, raw)
		assert.Nil(t, got)
		assert.Equal(t, "start_time", err.Field)
		assert.Equal(t, CodeMissingField, err.Code)
	}
}

func TestValidationErrors_Merge(t *testing.T) {
	v := newValidator()
	candidate := viewing("", "R", time.Time{}, 0)

	_, errs := v.Validate(candidate, nil, now)
	require.True(t, errs.Has(viewingserrors.ErrInvalidLength))

	_, bad := ParseLength(json.RawMessage(`"abc"`))
	merged := errs.Merge(ValidationErrors{*bad})

	var lengthErrs []ValidationError
	for _, e := range merged {
		if e.Field == "length" {
			lengthErrs = append(lengthErrs, e)
		}
	}
	require.Len(t, lengthErrs, 1, "the unreadable value replaces the blank-length report")
	assert.Equal(t, "is not a number", lengthErrs[0].Message)
	assert.True(t, merged.Has(viewingserrors.ErrMissingField), "start_time is still reported")

	assert.Equal(t, errs, errs.Merge(nil))
}

func intPtr(n int) *int {
	return &n
}
