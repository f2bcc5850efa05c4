package validator

import (
	"time"
)

// endShrink keeps a slot's nominal end instant free for the next slot, so a
// viewing ending at 15:00 and one starting at 15:00 never overlap.
const endShrink = time.Minute

// Interval is the span a viewing occupies in its room. End is the shrunk end
// from CalculateEndTime, so two intervals sharing only a boundary instant do
// not overlap and the comparisons below are strict.
type Interval struct {
	Start time.Time
	End   time.Time
}

// CalculateEndTime derives end_time from start_time and a length in whole
// hours. It reports false when either input is absent.
func CalculateEndTime(start time.Time, lengthHours int) (time.Time, bool) {
	if start.IsZero() || lengthHours <= 0 {
		return time.Time{}, false
	}
	return start.Add(time.Duration(lengthHours)*time.Hour - endShrink), true
}

// NominalEnd undoes the one-minute shrink for display.
func NominalEnd(end time.Time) time.Time {
	return end.Add(endShrink)
}

// Conflicts is the collapsed overlap test. It is symmetric and covers the
// five named shapes below.
func (i Interval) Conflicts(other Interval) bool {
	if i.Identical(other) {
		return true
	}
	return i.Start.Before(other.End) && other.Start.Before(i.End)
}

// EndDuring: other ends strictly inside i.
func (i Interval) EndDuring(other Interval) bool {
	return i.Start.Before(other.End) && other.End.Before(i.End)
}

// StartDuring: other starts strictly inside i.
func (i Interval) StartDuring(other Interval) bool {
	return i.Start.Before(other.Start) && other.Start.Before(i.End)
}

// HappeningDuring: other lies strictly inside i.
func (i Interval) HappeningDuring(other Interval) bool {
	return i.Start.Before(other.Start) && other.End.Before(i.End)
}

// Enveloping: other strictly contains i.
func (i Interval) Enveloping(other Interval) bool {
	return other.Start.Before(i.Start) && other.End.After(i.End)
}

// Identical: other has exactly i's bounds.
func (i Interval) Identical(other Interval) bool {
	return i.Start.Equal(other.Start) && i.End.Equal(other.End)
}
