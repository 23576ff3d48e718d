package trip

// Category classifies an activity for display.
type Category string

const (
	CategoryTransport  Category = "transport"
	CategoryAttraction Category = "attraction"
	CategoryRestaurant Category = "restaurant"
	CategoryHotel      Category = "hotel"
	CategoryActivity   Category = "activity"
)

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryTransport, CategoryAttraction, CategoryRestaurant, CategoryHotel, CategoryActivity:
		return true
	default:
		return false
	}
}

// Coordinates pins an activity on the map.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Activity is a single itinerary entry owned by exactly one day.
type Activity struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Location    string       `json:"location"`
	StartTime   string       `json:"time"`
	Duration    string       `json:"duration"`
	Category    Category     `json:"type"`
	Description string       `json:"description"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
}

// Clone returns a deep copy of the activity.
func (a Activity) Clone() Activity {
	if a.Coordinates != nil {
		c := *a.Coordinates
		a.Coordinates = &c
	}
	return a
}

// Day groups the activities planned for one date, in display order.
type Day struct {
	Date       string     `json:"date"`
	Location   string     `json:"location,omitempty"`
	Activities []Activity `json:"activities"`
}

// Trip is the itinerary aggregate.
type Trip struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Destination string `json:"destination"`
	Days        []Day  `json:"days"`
}

// Clone returns a deep copy so callers never share slices with the editor.
func (t Trip) Clone() Trip {
	days := make([]Day, len(t.Days))
	for i, day := range t.Days {
		acts := make([]Activity, len(day.Activities))
		for j, act := range day.Activities {
			acts[j] = act.Clone()
		}
		day.Activities = acts
		days[i] = day
	}
	t.Days = days
	return t
}

// View is what a rendering surface receives: the committed trip plus the
// activity currently open for editing, if any.
type View struct {
	Trip     Trip      `json:"trip"`
	Editing  *Activity `json:"editing,omitempty"`
	Language string    `json:"language"`
}
