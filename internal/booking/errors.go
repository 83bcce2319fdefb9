package booking

import "errors"

var (
	ErrNotFound     = errors.New("requested equipment does not exist")
	ErrInvalidRange = errors.New("start date after end date")
	ErrConflict     = errors.New("equipment unavailable for selected dates")
	ErrInvalidPage  = errors.New("skip and limit must be non-negative")
)
