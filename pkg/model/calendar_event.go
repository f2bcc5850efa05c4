package model

import "time"

// CalendarEvent is the read-only shape a calendar widget renders for a viewing.
type CalendarEvent struct {
	Title     string    `json:"title"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Recurring bool      `json:"recurring"`
	AllDay    bool      `json:"allDay"`
}
