package model

import (
	"time"
)

// Viewing is a time-boxed booking of one room by one user. EndTime is derived
// from StartTime and Length and excludes the final minute of the slot.
type Viewing struct {
	ID        string    `json:"id,omitempty" bson:"_id,omitempty"`
	RoomID    string    `json:"room_id" bson:"room_id" validate:"required"`
	UserID    string    `json:"user_id" bson:"user_id" validate:"required"`
	StartTime time.Time `json:"start_time" bson:"start_time" validate:"required"`
	Length    int       `json:"length" bson:"length" validate:"required,gt=0"`
	EndTime   time.Time `json:"end_time" bson:"end_time"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at,omitempty" bson:"updated_at,omitempty"`
}

type ViewingUpdate struct {
	RoomID    *string    `json:"room_id,omitempty"`
	StartTime *time.Time `json:"start_time,omitempty"`
	Length    *int       `json:"length,omitempty"`
}

// Apply returns a copy of v with the non-nil fields of u written over it.
func (u *ViewingUpdate) Apply(v Viewing) Viewing {
	if u == nil {
		return v
	}
	if u.RoomID != nil {
		v.RoomID = *u.RoomID
	}
	if u.StartTime != nil {
		v.StartTime = *u.StartTime
	}
	if u.Length != nil {
		v.Length = *u.Length
	}
	return v
}

func (u *ViewingUpdate) IsEmpty() bool {
	return u == nil || (u.RoomID == nil && u.StartTime == nil && u.Length == nil)
}
