package itinerary

import "errors"

var (
	// ErrTripNotFound indicates the trip doesn't exist.
	ErrTripNotFound = errors.New("trip not found")
	// ErrInvalidField rejects an unknown field name or an unparsable value.
	ErrInvalidField = errors.New("invalid activity field")
	// ErrInvalidDate rejects a day whose date is not YYYY-MM-DD.
	ErrInvalidDate = errors.New("invalid date, expected YYYY-MM-DD")
)
