package chat

import "time"

// Snapshot is the renderable state of a conversation session.
type Snapshot struct {
	SessionID   string    `json:"sessionId"`
	Messages    []Message `json:"messages"`
	Pending     bool      `json:"pending"`
	Suggestions []string  `json:"suggestions,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Location is a best-effort position reported by the client.
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}
