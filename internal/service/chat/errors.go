package chat

import "errors"

var (
	// ErrSessionNotFound indicates the session doesn't exist or was closed.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionClosed is returned for intents sent to a disposed session.
	ErrSessionClosed = errors.New("session closed")
	// ErrRequestPending rejects a send while a completion is outstanding.
	ErrRequestPending = errors.New("a reply is still pending")
	// ErrEmptyMessage is reported by the blocking helpers for blank input.
	ErrEmptyMessage = errors.New("message text is empty")
	// ErrEmptyCompletion marks a reply with no usable content.
	ErrEmptyCompletion = errors.New("completion returned empty content")
)
