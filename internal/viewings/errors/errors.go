package errors

import "errors"

var (
	ErrNotFound = errors.New("viewing not found")

	ErrInvalidID = errors.New("invalid viewing ID format")

	ErrRoomLocked = errors.New("room is locked by another request")

	ErrMissingField = errors.New("required field is missing")

	ErrInvalidLength = errors.New("length must be a positive number of hours")

	ErrPastStartTime = errors.New("start time is too close to the present")

	ErrConflict = errors.New("slot has already been booked for viewing")
)
