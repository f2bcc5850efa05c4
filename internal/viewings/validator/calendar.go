package validator

import "roombook/pkg/model"

const calendarTitle = "Viewing"

// ToCalendarEvent projects a committed viewing for calendar display. The end
// is the nominal one, start + length hours.
func ToCalendarEvent(v *model.Viewing) model.CalendarEvent {
	return model.CalendarEvent{
		Title:     calendarTitle,
		Start:     v.StartTime,
		End:       NominalEnd(v.EndTime),
		Recurring: false,
		AllDay:    false,
	}
}

func ToCalendarEvents(viewings []*model.Viewing) []model.CalendarEvent {
	events := make([]model.CalendarEvent, 0, len(viewings))
	for _, v := range viewings {
		if v == nil {
			continue
		}
		events = append(events, ToCalendarEvent(v))
	}
	return events
}
