package chat

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zhouzirui/churai/backend/internal/model/chat"
)

// Completer produces the assistant reply for one conversational turn.
type Completer interface {
	Complete(ctx context.Context, req chat.CompletionRequest) (string, error)
}

// StreamCompleter is a Completer that can also report partial output.
type StreamCompleter interface {
	Completer
	CompleteStream(ctx context.Context, req chat.CompletionRequest, onDelta func(string)) (string, error)
}

// CompleterFunc adapts a plain function to Completer.
type CompleterFunc func(ctx context.Context, req chat.CompletionRequest) (string, error)

// Complete calls f.
func (f CompleterFunc) Complete(ctx context.Context, req chat.CompletionRequest) (string, error) {
	return f(ctx, req)
}

// Options tunes session behaviour. Zero values fall back to the package defaults.
type Options struct {
	SystemPrompt  string
	Greeting      string
	FallbackReply string
	Suggestions   []string
	Timeout       time.Duration
	HistoryLimit  int
}

func (o Options) withDefaults() Options {
	if strings.TrimSpace(o.SystemPrompt) == "" {
		o.SystemPrompt = DefaultSystemPrompt
	}
	if strings.TrimSpace(o.Greeting) == "" {
		o.Greeting = DefaultGreeting
	}
	if strings.TrimSpace(o.FallbackReply) == "" {
		o.FallbackReply = FallbackReply
	}
	if o.Suggestions == nil {
		o.Suggestions = DefaultSuggestions
	}
	if o.Timeout <= 0 {
		o.Timeout = 30 * time.Second
	}
	return o
}

const subscriberBuffer = 8

// Session is the conversation state machine: an append-only message log
// plus a pending flag that is set for exactly one outstanding completion.
type Session struct {
	id        string
	createdAt time.Time
	completer Completer
	opts      Options
	logger    *zap.Logger
	now       func() time.Time

	mu          sync.Mutex
	history     []chat.Message
	pending     bool
	closed      bool
	location    *chat.Location
	subscribers map[int]chan chat.Snapshot
	nextSub     int
}

// NewSession creates a session that starts with the greeting message.
func NewSession(completer Completer, opts Options, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Session{
		id:          uuid.NewString(),
		completer:   completer,
		opts:        opts.withDefaults(),
		now:         func() time.Time { return time.Now().UTC() },
		subscribers: make(map[int]chan chat.Snapshot),
	}
	s.logger = logger.With(zap.String("session_id", s.id))
	s.createdAt = s.now()
	s.history = []chat.Message{s.newMessage(chat.RoleAssistant, s.opts.Greeting)}
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// AppendUserMessage records the user's text and dispatches a completion.
// Blank text is ignored: the returned channel is already closed and nothing
// changes. Otherwise the channel yields the assistant message once the
// completion resolves; it is closed without a value if the session is
// closed in the meantime.
func (s *Session) AppendUserMessage(ctx context.Context, text string) (<-chan chat.Message, error) {
	return s.submit(ctx, text, nil)
}

// Send appends text and blocks until the assistant reply has been recorded.
func (s *Session) Send(ctx context.Context, text string) (chat.Message, error) {
	return s.await(ctx, text, nil)
}

// SendStream is Send with partial output forwarded to onDelta when the
// completer can stream. onDelta is never called after SendStream returns.
func (s *Session) SendStream(ctx context.Context, text string, onDelta func(string)) (chat.Message, error) {
	return s.await(ctx, text, onDelta)
}

func (s *Session) await(ctx context.Context, text string, onDelta func(string)) (chat.Message, error) {
	if strings.TrimSpace(text) == "" {
		return chat.Message{}, ErrEmptyMessage
	}

	var (
		deltaMu sync.Mutex
		active  = true
		guarded func(string)
	)
	if onDelta != nil {
		guarded = func(chunk string) {
			deltaMu.Lock()
			defer deltaMu.Unlock()
			if active {
				onDelta(chunk)
			}
		}
		defer func() {
			deltaMu.Lock()
			active = false
			deltaMu.Unlock()
		}()
	}

	done, err := s.submit(ctx, text, guarded)
	if err != nil {
		return chat.Message{}, err
	}

	select {
	case msg, ok := <-done:
		if !ok {
			return chat.Message{}, ErrSessionClosed
		}
		return msg, nil
	case <-ctx.Done():
		return chat.Message{}, ctx.Err()
	}
}

func (s *Session) submit(ctx context.Context, text string, onDelta func(string)) (<-chan chat.Message, error) {
	done := make(chan chat.Message, 1)
	if strings.TrimSpace(text) == "" {
		close(done)
		return done, nil
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrSessionClosed
	}
	if s.pending {
		s.mu.Unlock()
		return nil, ErrRequestPending
	}

	req := chat.CompletionRequest{
		System:  buildSystemPrompt(s.opts.SystemPrompt, s.location),
		History: boundHistory(s.history, s.opts.HistoryLimit),
		Query:   text,
	}
	s.history = append(s.history, s.newMessage(chat.RoleUser, text))
	s.pending = true
	s.publishLocked()
	s.mu.Unlock()

	// The reply outlives the caller: a disconnecting client must not leave
	// the session pending, so only the configured timeout bounds the call.
	go s.resolve(context.WithoutCancel(ctx), req, onDelta, done)
	return done, nil
}

func (s *Session) resolve(ctx context.Context, req chat.CompletionRequest, onDelta func(string), done chan<- chat.Message) {
	defer close(done)

	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	started := time.Now()
	reply, err := s.complete(ctx, req, onDelta)
	if err == nil && strings.TrimSpace(reply) == "" {
		err = ErrEmptyCompletion
	}
	if err != nil {
		s.logger.Warn("completion failed, replying with fallback",
			zap.Error(err),
			zap.Duration("elapsed", time.Since(started)),
		)
		reply = s.opts.FallbackReply
	} else {
		s.logger.Debug("completion resolved",
			zap.Int("length", len(reply)),
			zap.Duration("elapsed", time.Since(started)),
		)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		s.logger.Debug("discarding reply for closed session")
		return
	}

	msg := s.newMessage(chat.RoleAssistant, reply)
	s.history = append(s.history, msg)
	s.pending = false
	s.publishLocked()
	done <- msg
}

func (s *Session) complete(ctx context.Context, req chat.CompletionRequest, onDelta func(string)) (reply string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("completer panicked: %v", r)
		}
	}()

	if s.completer == nil {
		return "", fmt.Errorf("no completion service configured")
	}
	if streamer, ok := s.completer.(StreamCompleter); ok && onDelta != nil {
		return streamer.CompleteStream(ctx, req, onDelta)
	}
	return s.completer.Complete(ctx, req)
}

// SetLocation updates the advisory location hint; nil clears it.
func (s *Session) SetLocation(loc *chat.Location) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	if loc == nil {
		s.location = nil
		return nil
	}
	copied := *loc
	s.location = &copied
	return nil
}

// Reset truncates the history back to a fresh greeting.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	if s.pending {
		return ErrRequestPending
	}
	s.history = []chat.Message{s.newMessage(chat.RoleAssistant, s.opts.Greeting)}
	s.publishLocked()
	return nil
}

// Close disposes the session. An in-flight reply is discarded on arrival.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	for id, ch := range s.subscribers {
		close(ch)
		delete(s.subscribers, id)
	}
}

// Closed reports whether Close has been called.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Pending reports whether a completion is outstanding.
func (s *Session) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// Snapshot returns a copy of the renderable state.
func (s *Session) Snapshot() chat.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe streams a snapshot after every state change, starting with the
// current one. Slow readers only lose intermediate states, never the latest.
// The channel is closed by the returned cancel func or by Close.
func (s *Session) Subscribe() (<-chan chat.Snapshot, func()) {
	ch := make(chan chat.Snapshot, subscriberBuffer)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		close(ch)
		return ch, func() {}
	}

	id := s.nextSub
	s.nextSub++
	s.subscribers[id] = ch
	ch <- s.snapshotLocked()

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if c, ok := s.subscribers[id]; ok {
			delete(s.subscribers, id)
			close(c)
		}
	}
}

func (s *Session) publishLocked() {
	if len(s.subscribers) == 0 {
		return
	}
	snapshot := s.snapshotLocked()
	for _, ch := range s.subscribers {
		select {
		case ch <- snapshot:
		default:
			// drop the oldest queued state to make room for the newest
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snapshot:
			default:
			}
		}
	}
}

func (s *Session) snapshotLocked() chat.Snapshot {
	messages := make([]chat.Message, len(s.history))
	copy(messages, s.history)

	var suggestions []string
	if len(messages) < suggestionThreshold && len(s.opts.Suggestions) > 0 {
		suggestions = append([]string(nil), s.opts.Suggestions...)
	}

	return chat.Snapshot{
		SessionID:   s.id,
		Messages:    messages,
		Pending:     s.pending,
		Suggestions: suggestions,
		CreatedAt:   s.createdAt,
	}
}

func (s *Session) newMessage(role chat.Role, content string) chat.Message {
	return chat.Message{
		ID:        newMessageID(),
		Role:      role,
		Content:   content,
		CreatedAt: s.now(),
	}
}

// newMessageID returns a time-ordered UUIDv7 so ids sort in creation order.
func newMessageID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
