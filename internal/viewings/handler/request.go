package handler

import (
	"encoding/json"
	"time"

	"roombook/internal/viewings/validator"
	"roombook/pkg/model"
)

// viewingRequest keeps start_time and length raw so that a malformed value is
// reported as a field error next to the others instead of failing the body.
type viewingRequest struct {
	RoomID    string          `json:"room_id"`
	UserID    string          `json:"user_id"`
	StartTime json.RawMessage `json:"start_time"`
	Length    json.RawMessage `json:"length"`
}

func (r viewingRequest) toViewing() (*model.Viewing, validator.ValidationErrors) {
	viewing := &model.Viewing{RoomID: r.RoomID, UserID: r.UserID}

	start, length, errs := parseSlot(r.StartTime, r.Length)
	if start != nil {
		viewing.StartTime = *start
	}
	if length != nil {
		viewing.Length = *length
	}
	return viewing, errs
}

type viewingUpdateRequest struct {
	RoomID    *string         `json:"room_id,omitempty"`
	StartTime json.RawMessage `json:"start_time,omitempty"`
	Length    json.RawMessage `json:"length,omitempty"`
}

func (r viewingUpdateRequest) toUpdate() (*model.ViewingUpdate, validator.ValidationErrors) {
	start, length, errs := parseSlot(r.StartTime, r.Length)
	return &model.ViewingUpdate{
		RoomID:    r.RoomID,
		StartTime: start,
		Length:    length,
	}, errs
}

func parseSlot(rawStart, rawLength json.RawMessage) (*time.Time, *int, validator.ValidationErrors) {
	var errs validator.ValidationErrors

	start, err := validator.ParseStartTime(rawStart)
	if err != nil {
		errs = append(errs, *err)
	}
	length, err := validator.ParseLength(rawLength)
	if err != nil {
		errs = append(errs, *err)
	}
	return start, length, errs
}
