package handler

import (
	"encoding/json"
	"net/http"

	"roombook/internal/viewings/service"
	apperrors "roombook/pkg/errors"
	httputil "roombook/pkg/http"
	"roombook/pkg/logger"
	"roombook/pkg/middleware"
	"roombook/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type ViewingHandler struct {
	service service.ViewingService
	log     *logger.Logger
}

func NewViewingHandler(service service.ViewingService, log *logger.Logger) *ViewingHandler {
	return &ViewingHandler{
		service: service,
		log:     log,
	}
}

// Create books a viewing. The caller's X-User-ID stands in for a missing user_id.
func (h *ViewingHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req viewingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Create", apperrors.InvalidInput("Invalid request body"))
		return
	}
	viewing, inputErrs := req.toViewing()
	if viewing.UserID == "" {
		viewing.UserID = r.Header.Get(middleware.HeaderUserID)
	}

	created, err := h.service.Create(r.Context(), viewing, inputErrs...)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, created); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *ViewingHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	viewing, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	h.writeSuccess(w, "GetByID", viewing)
}

func (h *ViewingHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req viewingUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Update", apperrors.InvalidInput("Invalid request body"))
		return
	}
	updates, inputErrs := req.toUpdate()

	updated, err := h.service.Update(r.Context(), ps.ByName("id"), updates, inputErrs...)
	if err != nil {
		h.writeError(w, "Update", err)
		return
	}

	h.writeSuccess(w, "Update", updated)
}

func (h *ViewingHandler) Cancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.Cancel(r.Context(), ps.ByName("id")); err != nil {
		h.writeError(w, "Cancel", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *ViewingHandler) CalendarEvent(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	event, err := h.service.CalendarEvent(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "CalendarEvent", err)
		return
	}

	h.writeSuccess(w, "CalendarEvent", event)
}

func (h *ViewingHandler) ListByRoom(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "ListByRoom", err)
		return
	}
	from, to, err := httputil.ExtractTimeRange(r)
	if err != nil {
		h.writeError(w, "ListByRoom", err)
		return
	}

	viewings, total, err := h.service.ListByRoom(r.Context(), ps.ByName("room_id"), from, to, limit, offset)
	if err != nil {
		h.writeError(w, "ListByRoom", err)
		return
	}
	if viewings == nil {
		viewings = []*model.Viewing{}
	}

	if err := httputil.WritePaginated(w, viewings, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "ListByRoom", "operation", "WritePaginated", "error", err)
	}
}

// RoomCalendar returns a bare event array, the shape calendar widgets consume.
func (h *ViewingHandler) RoomCalendar(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	from, to, err := httputil.ExtractTimeRange(r)
	if err != nil {
		h.writeError(w, "RoomCalendar", err)
		return
	}

	events, err := h.service.RoomCalendar(r.Context(), ps.ByName("room_id"), from, to)
	if err != nil {
		h.writeError(w, "RoomCalendar", err)
		return
	}

	if err := httputil.WriteJSON(w, http.StatusOK, events); err != nil {
		h.log.Error("failed to write JSON response", "handler", "RoomCalendar", "operation", "WriteJSON", "error", err)
	}
}

func (h *ViewingHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/viewings", h.Create)
	router.GET("/api/v1/viewings/id/:id", h.GetByID)
	router.PATCH("/api/v1/viewings/id/:id", h.Update)
	router.DELETE("/api/v1/viewings/id/:id", h.Cancel)
	router.GET("/api/v1/viewings/id/:id/event", h.CalendarEvent)
	router.GET("/api/v1/rooms/:room_id/viewings", h.ListByRoom)
	router.GET("/api/v1/rooms/:room_id/calendar", h.RoomCalendar)
}

func (h *ViewingHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *ViewingHandler) writeSuccess(w http.ResponseWriter, handler string, data any) {
	if err := httputil.WriteSuccess(w, data); err != nil {
		h.log.Error("failed to write success response", "handler", handler, "operation", "WriteSuccess", "error", err)
	}
}
