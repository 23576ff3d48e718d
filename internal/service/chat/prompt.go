package chat

import (
	"fmt"
	"strings"

	"github.com/zhouzirui/churai/backend/internal/model/chat"
)

const (
	// DefaultSystemPrompt is the fixed instruction sent ahead of every turn.
	DefaultSystemPrompt = "You are ChurAI, a helpful travel planner AI. Provide concise and useful travel advice."

	// DefaultGreeting opens every new session.
	DefaultGreeting = "Hey, I'm ChurAI your personal trip planner\n\nTell me what you want, and I'll handle the rest: flights, hotels, itineraries, in seconds."

	// FallbackReply replaces the assistant turn whenever the completion fails.
	FallbackReply = "Sorry, I ran into a problem answering that. Please try again in a moment."
)

// DefaultSuggestions are the quick prompts offered while a conversation is young.
var DefaultSuggestions = []string{
	"Find me a budget hotel in Bangkok",
	"What are the best restaurants in Rome?",
	"Create a 3-day itinerary for London",
	"Compare flight prices to Sydney",
}

// suggestionThreshold is the history length below which suggestions are shown.
const suggestionThreshold = 3

// buildSystemPrompt folds the optional location hint into the base instruction.
func buildSystemPrompt(base string, loc *chat.Location) string {
	if loc == nil {
		return base
	}

	var builder strings.Builder
	builder.WriteString(base)
	builder.WriteString(fmt.Sprintf("\nUser's current location: Latitude %.4f, Longitude %.4f.", loc.Lat, loc.Lng))
	builder.WriteString(" Use this information to provide more relevant suggestions, but do not directly expose the coordinates to the user.")
	return builder.String()
}

// boundHistory keeps the most recent limit messages; limit <= 0 keeps them all.
func boundHistory(messages []chat.Message, limit int) []chat.Message {
	start := 0
	if limit > 0 && len(messages) > limit {
		start = len(messages) - limit
	}
	out := make([]chat.Message, len(messages)-start)
	copy(out, messages[start:])
	return out
}
