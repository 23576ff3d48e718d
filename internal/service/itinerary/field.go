package itinerary

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/zhouzirui/churai/backend/internal/model/trip"
)

// Field is one edit applied to the working copy of an activity.
// Each editable attribute has its own variant.
type Field interface {
	apply(a *trip.Activity)
}

type (
	Title       string
	Location    string
	StartTime   string
	Duration    string
	Description string
	Category    trip.Category
	// Coordinates sets the map pin; nil removes it.
	Coordinates struct{ Value *trip.Coordinates }
)

func (f Title) apply(a *trip.Activity)       { a.Title = string(f) }
func (f Location) apply(a *trip.Activity)    { a.Location = string(f) }
func (f StartTime) apply(a *trip.Activity)   { a.StartTime = string(f) }
func (f Duration) apply(a *trip.Activity)    { a.Duration = string(f) }
func (f Description) apply(a *trip.Activity) { a.Description = string(f) }
func (f Category) apply(a *trip.Activity)    { a.Category = trip.Category(f) }

func (f Coordinates) apply(a *trip.Activity) {
	if f.Value == nil {
		a.Coordinates = nil
		return
	}
	c := *f.Value
	a.Coordinates = &c
}

// ParseField maps a wire-level field name and value onto a Field variant.
// Names follow the JSON names of trip.Activity.
func ParseField(name, value string) (Field, error) {
	switch strings.TrimSpace(name) {
	case "title":
		return Title(value), nil
	case "location":
		return Location(value), nil
	case "time":
		return StartTime(value), nil
	case "duration":
		return Duration(value), nil
	case "description":
		return Description(value), nil
	case "type":
		c := trip.Category(strings.ToLower(strings.TrimSpace(value)))
		if !c.Valid() {
			return nil, fmt.Errorf("%w: unknown activity type %q", ErrInvalidField, value)
		}
		return Category(c), nil
	case "coordinates":
		return parseCoordinates(value)
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidField, name)
	}
}

// parseCoordinates accepts "lat,lng"; an empty value clears the pin.
func parseCoordinates(value string) (Field, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return Coordinates{}, nil
	}

	parts := strings.Split(value, ",")
	if len(parts) != 2 {
		return nil, fmt.Errorf("%w: coordinates must be \"lat,lng\"", ErrInvalidField)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil || lat < -90 || lat > 90 {
		return nil, fmt.Errorf("%w: invalid latitude %q", ErrInvalidField, parts[0])
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil || lng < -180 || lng > 180 {
		return nil, fmt.Errorf("%w: invalid longitude %q", ErrInvalidField, parts[1])
	}
	return Coordinates{Value: &trip.Coordinates{Lat: lat, Lng: lng}}, nil
}
