package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"roombook/internal/viewings/validator"
	apperrors "roombook/pkg/errors"
	httputil "roombook/pkg/http"
	"roombook/pkg/logger"
	"roombook/pkg/middleware"
	"roombook/pkg/model"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockViewingService struct {
	createFunc        func(ctx context.Context, v *model.Viewing) (*model.Viewing, error)
	updateFunc        func(ctx context.Context, id string, u *model.ViewingUpdate) (*model.Viewing, error)
	cancelFunc        func(ctx context.Context, id string) error
	getByIDFunc       func(ctx context.Context, id string) (*model.Viewing, error)
	listByRoomFunc    func(ctx context.Context, roomID string, from, to *time.Time, limit int, offset int64) ([]*model.Viewing, int64, error)
	calendarEventFunc func(ctx context.Context, id string) (*model.CalendarEvent, error)
	roomCalendarFunc  func(ctx context.Context, roomID string, from, to *time.Time) ([]model.CalendarEvent, error)

	inputErrs []validator.ValidationError
}

func (m *mockViewingService) Create(ctx context.Context, v *model.Viewing, inputErrs ...validator.ValidationError) (*model.Viewing, error) {
	m.inputErrs = inputErrs
	return m.createFunc(ctx, v)
}

func (m *mockViewingService) Update(ctx context.Context, id string, u *model.ViewingUpdate, inputErrs ...validator.ValidationError) (*model.Viewing, error) {
	m.inputErrs = inputErrs
	return m.updateFunc(ctx, id, u)
}

func (m *mockViewingService) Cancel(ctx context.Context, id string) error {
	return m.cancelFunc(ctx, id)
}

func (m *mockViewingService) GetByID(ctx context.Context, id string) (*model.Viewing, error) {
	return m.getByIDFunc(ctx, id)
}

func (m *mockViewingService) ListByRoom(ctx context.Context, roomID string, from, to *time.Time, limit int, offset int64) ([]*model.Viewing, int64, error) {
	return m.listByRoomFunc(ctx, roomID, from, to, limit, offset)
}

func (m *mockViewingService) CalendarEvent(ctx context.Context, id string) (*model.CalendarEvent, error) {
	return m.calendarEventFunc(ctx, id)
}

func (m *mockViewingService) RoomCalendar(ctx context.Context, roomID string, from, to *time.Time) ([]model.CalendarEvent, error) {
	return m.roomCalendarFunc(ctx, roomID, from, to)
}

var start = time.Date(2030, 1, 1, 14, 0, 0, 0, time.UTC)

func newRouter(svc *mockViewingService) *httprouter.Router {
	router := httprouter.New()
	NewViewingHandler(svc, logger.Discard()).RegisterRoutes(router)
	return router
}

func serve(router http.Handler, method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, target, nil)
	} else {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		r.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)
	return w
}

func decodeData[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var body struct {
		Data T `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Data
}

func decodeErr(t *testing.T, w *httptest.ResponseRecorder) apperrors.ErrorResponse {
	t.Helper()
	var body apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestCreate(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		var received *model.Viewing
		router := newRouter(&mockViewingService{
			createFunc: func(_ context.Context, v *model.Viewing) (*model.Viewing, error) {
				received = v
				out := *v
				out.ID = "v1"
				out.EndTime = start.Add(59 * time.Minute)
				return &out, nil
			},
		})

		w := serve(router, http.MethodPost, "/api/v1/viewings",
			`{"room_id":"R","start_time":"2030-01-01T14:00:00Z","length":1}`,
			map[string]string{middleware.HeaderUserID: "u-header"})

		require.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, "u-header", received.UserID, "user id falls back to the header")

		got := decodeData[model.Viewing](t, w)
		assert.Equal(t, "v1", got.ID)
		assert.True(t, got.EndTime.Equal(start.Add(59*time.Minute)))
	})

	t.Run("body user wins over header", func(t *testing.T) {
		var received *model.Viewing
		router := newRouter(&mockViewingService{
			createFunc: func(_ context.Context, v *model.Viewing) (*model.Viewing, error) {
				received = v
				return v, nil
			},
		})

		serve(router, http.MethodPost, "/api/v1/viewings",
			`{"room_id":"R","user_id":"u-body","start_time":"2030-01-01T14:00:00Z","length":1}`,
			map[string]string{middleware.HeaderUserID: "u-header"})

		assert.Equal(t, "u-body", received.UserID)
	})

	t.Run("malformed body", func(t *testing.T) {
		router := newRouter(&mockViewingService{})

		w := serve(router, http.MethodPost, "/api/v1/viewings", `{"length":`, nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, apperrors.CodeInvalidInput, decodeErr(t, w).Code)
	})

	t.Run("unreadable length and start time reach the service as field errors", func(t *testing.T) {
		tests := []struct {
			name       string
			body       string
			wantFields []string
			wantLength int
		}{
			{name: "non-numeric length", body: `{"room_id":"R","user_id":"u","start_time":"2030-01-01T14:00:00Z","length":"abc"}`, wantFields: []string{"length"}},
			{name: "fractional length", body: `{"room_id":"R","user_id":"u","start_time":"2030-01-01T14:00:00Z","length":1.5}`, wantFields: []string{"length"}},
			{name: "boolean length", body: `{"room_id":"R","user_id":"u","start_time":"2030-01-01T14:00:00Z","length":true}`, wantFields: []string{"length"}},
			{name: "bad length and bad start time", body: `{"room_id":"R","user_id":"u","start_time":"soon","length":"abc"}`, wantFields: []string{"start_time", "length"}},
			{name: "numeric string length", body: `{"room_id":"R","user_id":"u","start_time":"2030-01-01T14:00:00Z","length":"2"}`, wantLength: 2},
			{name: "whole float length", body: `{"room_id":"R","user_id":"u","start_time":"2030-01-01T14:00:00Z","length":3.0}`, wantLength: 3},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				var received *model.Viewing
				svc := &mockViewingService{
					createFunc: func(_ context.Context, v *model.Viewing) (*model.Viewing, error) {
						received = v
						return nil, apperrors.Validation("Viewing validation failed", nil)
					},
				}

				w := serve(newRouter(svc), http.MethodPost, "/api/v1/viewings", tt.body, nil)

				require.NotNil(t, received, "the service must see the request")
				assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
				assert.Equal(t, "R", received.RoomID)

				var fields []string
				for _, e := range svc.inputErrs {
					fields = append(fields, e.Field)
				}
				assert.Equal(t, tt.wantFields, fields)
				if len(tt.wantFields) == 0 {
					assert.Equal(t, tt.wantLength, received.Length)
				}
				for _, e := range svc.inputErrs {
					if e.Field == "length" {
						assert.Equal(t, validator.CodeInvalidLength, e.Code)
						assert.Zero(t, received.Length)
					}
				}
			})
		}
	})

	t.Run("conflict", func(t *testing.T) {
		router := newRouter(&mockViewingService{
			createFunc: func(context.Context, *model.Viewing) (*model.Viewing, error) {
				return nil, apperrors.Conflict("Slot has already been booked for viewing").WithDetails(map[string]any{
					"errors": []validator.ValidationError{{Field: validator.FieldBase, Code: validator.CodeConflict, Message: "Slot has already been booked for viewing"}},
				})
			},
		})

		w := serve(router, http.MethodPost, "/api/v1/viewings",
			`{"room_id":"R","user_id":"u","start_time":"2030-01-01T14:30:00Z","length":1}`, nil)

		assert.Equal(t, http.StatusConflict, w.Code)
		resp := decodeErr(t, w)
		assert.Equal(t, apperrors.CodeConflict, resp.Code)
		assert.Contains(t, w.Body.String(), `"field":"base"`)
	})

	t.Run("validation", func(t *testing.T) {
		router := newRouter(&mockViewingService{
			createFunc: func(context.Context, *model.Viewing) (*model.Viewing, error) {
				return nil, apperrors.Validation("Viewing validation failed", nil)
			},
		})

		w := serve(router, http.MethodPost, "/api/v1/viewings", `{}`, nil)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("internal errors are masked", func(t *testing.T) {
		router := newRouter(&mockViewingService{
			createFunc: func(context.Context, *model.Viewing) (*model.Viewing, error) {
				return nil, errors.New("mongo: connection pool exhausted")
			},
		})

		w := serve(router, http.MethodPost, "/api/v1/viewings", `{}`, nil)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "pool exhausted")
	})
}

func TestGetUpdateCancel(t *testing.T) {
	stored := &model.Viewing{ID: "v1", RoomID: "R", UserID: "u", StartTime: start, Length: 1, EndTime: start.Add(59 * time.Minute)}

	router := newRouter(&mockViewingService{
		getByIDFunc: func(_ context.Context, id string) (*model.Viewing, error) {
			if id != "v1" {
				return nil, apperrors.NotFoundWithID("Viewing", id)
			}
			return stored, nil
		},
		updateFunc: func(_ context.Context, id string, u *model.ViewingUpdate) (*model.Viewing, error) {
			require.NotNil(t, u.Length)
			out := *stored
			out.Length = *u.Length
			return &out, nil
		},
		cancelFunc: func(_ context.Context, id string) error {
			if id != "v1" {
				return apperrors.NotFoundWithID("Viewing", id)
			}
			return nil
		},
		calendarEventFunc: func(context.Context, string) (*model.CalendarEvent, error) {
			return &model.CalendarEvent{Title: "Viewing", Start: start, End: start.Add(time.Hour)}, nil
		},
	})

	w := serve(router, http.MethodGet, "/api/v1/viewings/id/v1", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "R", decodeData[model.Viewing](t, w).RoomID)

	w = serve(router, http.MethodGet, "/api/v1/viewings/id/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = serve(router, http.MethodPatch, "/api/v1/viewings/id/v1", `{"length":3}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 3, decodeData[model.Viewing](t, w).Length)

	w = serve(router, http.MethodPatch, "/api/v1/viewings/id/v1", `{"length":"3"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 3, decodeData[model.Viewing](t, w).Length)

	w = serve(router, http.MethodPatch, "/api/v1/viewings/id/v1", `not json`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(router, http.MethodDelete, "/api/v1/viewings/id/v1", "", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())

	w = serve(router, http.MethodDelete, "/api/v1/viewings/id/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = serve(router, http.MethodGet, "/api/v1/viewings/id/v1/event", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"allDay":false`)
	assert.Contains(t, w.Body.String(), `"end":"2030-01-01T15:00:00Z"`)
}

func TestListByRoom(t *testing.T) {
	var gotRoom string
	var gotFrom, gotTo *time.Time
	var gotLimit int
	var gotOffset int64

	router := newRouter(&mockViewingService{
		listByRoomFunc: func(_ context.Context, roomID string, from, to *time.Time, limit int, offset int64) ([]*model.Viewing, int64, error) {
			gotRoom, gotFrom, gotTo, gotLimit, gotOffset = roomID, from, to, limit, offset
			return nil, 0, nil
		},
	})

	w := serve(router, http.MethodGet, "/api/v1/rooms/R/viewings?from=2030-01-01T00:00:00Z&to=2030-01-02T00:00:00Z&limit=5&offset=10", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, "R", gotRoom)
	require.NotNil(t, gotFrom)
	require.NotNil(t, gotTo)
	assert.Equal(t, 5, gotLimit)
	assert.Equal(t, int64(10), gotOffset)

	var page httputil.PaginatedResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Equal(t, []any{}, page.Data, "empty pages render as an empty list")

	w = serve(router, http.MethodGet, "/api/v1/rooms/R/viewings?limit=x", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(router, http.MethodGet, "/api/v1/rooms/R/viewings?from=tomorrow", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRoomCalendar(t *testing.T) {
	router := newRouter(&mockViewingService{
		roomCalendarFunc: func(_ context.Context, roomID string, _, _ *time.Time) ([]model.CalendarEvent, error) {
			return []model.CalendarEvent{{Title: "Viewing", Start: start, End: start.Add(time.Hour)}}, nil
		},
	})

	w := serve(router, http.MethodGet, "/api/v1/rooms/R/calendar", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var events []model.CalendarEvent
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &events))
	require.Len(t, events, 1)
	assert.Equal(t, "Viewing", events[0].Title)
}

func TestHealth(t *testing.T) {
	healthy := PingFunc(func(context.Context) error { return nil })
	broken := PingFunc(func(context.Context) error { return errors.New("no route to host") })

	t.Run("liveness ignores dependencies", func(t *testing.T) {
		router := httprouter.New()
		NewHealthHandler(map[string]Pinger{"mongo": broken}, logger.Discard()).RegisterRoutes(router)

		w := serve(router, http.MethodGet, "/health", "", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("ready when every dependency answers", func(t *testing.T) {
		router := httprouter.New()
		NewHealthHandler(map[string]Pinger{"mongo": healthy, "redis": healthy}, logger.Discard()).RegisterRoutes(router)

		w := serve(router, http.MethodGet, "/ready", "", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("unavailable when one fails", func(t *testing.T) {
		router := httprouter.New()
		NewHealthHandler(map[string]Pinger{"mongo": healthy, "redis": broken}, logger.Discard()).RegisterRoutes(router)

		w := serve(router, http.MethodGet, "/ready", "", nil)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)

		var resp HealthResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "error", resp.Dependencies["redis"])
		assert.Equal(t, "ok", resp.Dependencies["mongo"])
	})
}

func TestUpdate_UnreadableLength(t *testing.T) {
	svc := &mockViewingService{
		updateFunc: func(_ context.Context, _ string, u *model.ViewingUpdate) (*model.Viewing, error) {
			assert.Nil(t, u.Length)
			return nil, apperrors.Validation("Viewing validation failed", nil)
		},
	}

	w := serve(newRouter(svc), http.MethodPatch, "/api/v1/viewings/id/v1", `{"length":1.5}`, nil)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	require.Len(t, svc.inputErrs, 1)
	assert.Equal(t, "length", svc.inputErrs[0].Field)
	assert.Equal(t, validator.CodeInvalidLength, svc.inputErrs[0].Code)
}
