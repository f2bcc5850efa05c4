package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"roombook/pkg/config"
	apperrors "roombook/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractLimitOffset(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantLimit  int
		wantOffset int64
		wantErr    bool
	}{
		{name: "defaults", query: "", wantLimit: 10, wantOffset: 0},
		{name: "explicit", query: "?limit=25&offset=50", wantLimit: 25, wantOffset: 50},
		{name: "clamped", query: "?limit=100000&offset=-3", wantLimit: config.DefaultPaginationLimit, wantOffset: 0},
		{name: "bad limit", query: "?limit=abc", wantErr: true},
		{name: "bad offset", query: "?offset=1.5", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/"+tt.query, nil)
			limit, offset, err := ExtractLimitOffset(r)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, http.StatusBadRequest, apperrors.AsAppError(err).StatusCode())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantLimit, limit)
			assert.Equal(t, tt.wantOffset, offset)
		})
	}
}

func TestExtractTimeRange(t *testing.T) {
	t.Run("absent", func(t *testing.T) {
		from, to, err := ExtractTimeRange(httptest.NewRequest(http.MethodGet, "/", nil))
		require.NoError(t, err)
		assert.Nil(t, from)
		assert.Nil(t, to)
	})

	t.Run("normalised to UTC", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/?from=2030-01-01T10:00:00%2B02:00&to=2030-01-02T00:00:00Z", nil)
		from, to, err := ExtractTimeRange(r)
		require.NoError(t, err)
		require.NotNil(t, from)
		require.NotNil(t, to)
		assert.Equal(t, time.Date(2030, 1, 1, 8, 0, 0, 0, time.UTC), *from)
		assert.Equal(t, time.UTC, to.Location())
	})

	t.Run("malformed", func(t *testing.T) {
		_, _, err := ExtractTimeRange(httptest.NewRequest(http.MethodGet, "/?from=yesterday", nil))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid from parameter")
	})

	t.Run("inverted", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/?from=2030-01-02T00:00:00Z&to=2030-01-01T00:00:00Z", nil)
		_, _, err := ExtractTimeRange(r)
		require.Error(t, err)
	})
}

func TestWriteError(t *testing.T) {
	t.Run("app error keeps status and details", func(t *testing.T) {
		w := httptest.NewRecorder()
		appErr := apperrors.Conflict("taken").WithDetails(map[string]any{"base": []string{"taken"}})

		require.NoError(t, WriteError(w, appErr))

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

		var body apperrors.ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, apperrors.CodeConflict, body.Code)
		assert.Equal(t, "taken", body.Message)
		assert.Contains(t, body.Details, "base")
	})

	t.Run("plain error is hidden behind a 500", func(t *testing.T) {
		w := httptest.NewRecorder()
		require.NoError(t, WriteError(w, errors.New("mongo exploded")))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "mongo exploded")
	})
}

func TestWritePaginated(t *testing.T) {
	w := httptest.NewRecorder()
	require.NoError(t, WritePaginated(w, []string{"a"}, 7, 10, 5))

	var body PaginatedResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, int64(7), body.TotalCount)
	assert.Equal(t, 10, body.Limit)
	assert.Equal(t, int64(5), body.Offset)
}
