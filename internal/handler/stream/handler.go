package stream

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/zhouzirui/churai/backend/internal/model/chat"
	chatService "github.com/zhouzirui/churai/backend/internal/service/chat"
	"github.com/zhouzirui/churai/backend/pkg/utils"
)

// Handler manages streaming assistant replies via Server-Sent Events
type Handler struct {
	chatSvc *chatService.Service
	logger  *zap.Logger
}

// New creates a new stream handler
func New(chatSvc *chatService.Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		chatSvc: chatSvc,
		logger:  logger,
	}
}

// RegisterRoutes registers the SSE endpoint
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/chat/sessions/{sessionID}/stream", h.handleStream)
}

// StreamResponse represents a streaming response chunk
type StreamResponse struct {
	Event     string        `json:"event"`
	Content   string        `json:"content,omitempty"`
	SessionID string        `json:"sessionId,omitempty"`
	Message   *chat.Message `json:"message,omitempty"`
	Finished  bool          `json:"finished,omitempty"`
	Error     string        `json:"error,omitempty"`
}

func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	userMessage := r.URL.Query().Get("message")

	session, err := h.chatSvc.GetSession(r.Context(), sessionID)
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, err.Error())
		return
	}
	if strings.TrimSpace(userMessage) == "" {
		utils.RespondError(w, http.StatusBadRequest, "message query parameter is required")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	if err := h.HandleStreamRequest(r.Context(), w, flusher, session, userMessage); err != nil {
		h.logger.Warn("stream request failed", zap.String("session_id", sessionID), zap.Error(err))
	}
}

// HandleStreamRequest sends the user's message and relays the reply as it is produced.
// Once headers are written, failures are reported as an error event.
func (h *Handler) HandleStreamRequest(ctx context.Context, w http.ResponseWriter, flusher http.Flusher, session *chatService.Session, userMessage string) error {
	utils.SetupSSEHeaders(w)
	w.WriteHeader(http.StatusOK)

	sessionID := session.ID()
	h.send(w, flusher, StreamResponse{Event: "start", SessionID: sessionID})

	reply, err := session.SendStream(ctx, userMessage, func(delta string) {
		if delta == "" {
			return
		}
		h.send(w, flusher, StreamResponse{Event: "delta", SessionID: sessionID, Content: delta})
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			h.logger.Debug("stream client went away", zap.String("session_id", sessionID))
			return nil
		}
		h.send(w, flusher, StreamResponse{Event: "error", SessionID: sessionID, Error: err.Error()})
		return err
	}

	h.send(w, flusher, StreamResponse{
		Event:     "message",
		SessionID: sessionID,
		Content:   reply.Content,
		Message:   &reply,
	})
	h.send(w, flusher, StreamResponse{Event: "end", SessionID: sessionID, Finished: true})

	h.logger.Debug("stream completed", zap.String("session_id", sessionID), zap.Int("length", len(reply.Content)))
	return nil
}

func (h *Handler) send(w http.ResponseWriter, flusher http.Flusher, response StreamResponse) {
	if err := utils.SendSSEEvent(w, flusher, response.Event, response); err != nil {
		h.logger.Debug("failed to write sse event", zap.String("event", response.Event), zap.Error(err))
	}
}
