package chat

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

// Handler 聊天会话的HTTP处理器
type Handler struct {
	chatSvc *chatService.Service
	logger  *zap.Logger
}

// New 创建聊天处理器
func New(chatSvc *chatService.Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		chatSvc: chatSvc,
		logger:  logger,
	}
}

// RegisterRoutes 注册聊天相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat/sessions", h.handleCreateSession)
	r.Get("/chat/sessions/{sessionID}", h.handleGetSession)
	r.Delete("/chat/sessions/{sessionID}", h.handleCloseSession)
	r.Post("/chat/sessions/{sessionID}/messages", h.handleSendMessage)
	r.Post("/chat/sessions/{sessionID}/reset", h.handleReset)
	r.Put("/chat/sessions/{sessionID}/location", h.handleSetLocation)
	r.Delete("/chat/sessions/{sessionID}/location", h.handleClearLocation)
}

// SendMessageResponse 同步发送消息的返回体
type SendMessageResponse struct {
	Reply   *chat.Message `json:"reply,omitempty"`
	Session chat.Snapshot `json:"session"`
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	session := h.chatSvc.CreateSession(r.Context())
	utils.RespondJSON(w, http.StatusCreated, session.Snapshot())
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, ok := h.lookup(w, r)
	if !ok {
		return
	}
	utils.RespondJSON(w, http.StatusOK, session.Snapshot())
}

func (h *Handler) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	if err := h.chatSvc.CloseSession(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		h.respondSessionError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSendMessage 默认等待助手回复；async=true 时立即返回 202，
// 回复通过 GET 或 WebSocket 获取。
func (h *Handler) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	session, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var payload struct {
		Content string `json:"content"`
	}
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(payload.Content) == "" {
		h.respondSessionError(w, chatService.ErrEmptyMessage)
		return
	}

	if r.URL.Query().Get("async") == "true" {
		if _, err := session.AppendUserMessage(r.Context(), payload.Content); err != nil {
			h.respondSessionError(w, err)
			return
		}
		utils.RespondJSON(w, http.StatusAccepted, SendMessageResponse{Session: session.Snapshot()})
		return
	}

	reply, err := session.Send(r.Context(), payload.Content)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		h.respondSessionError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, SendMessageResponse{Reply: &reply, Session: session.Snapshot()})
}

func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	session, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if err := session.Reset(); err != nil {
		h.respondSessionError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, session.Snapshot())
}

func (h *Handler) handleSetLocation(w http.ResponseWriter, r *http.Request) {
	session, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var loc chat.Location
	if err := utils.DecodeJSON(r, &loc); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if loc.Lat < -90 || loc.Lat > 90 || loc.Lng < -180 || loc.Lng > 180 {
		utils.RespondError(w, http.StatusBadRequest, "coordinates out of range")
		return
	}
	if err := session.SetLocation(&loc); err != nil {
		h.respondSessionError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleClearLocation(w http.ResponseWriter, r *http.Request) {
	session, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if err := session.SetLocation(nil); err != nil {
		h.respondSessionError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) (*chatService.Session, bool) {
	session, err := h.chatSvc.GetSession(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.respondSessionError(w, err)
		return nil, false
	}
	return session, true
}

func (h *Handler) respondSessionError(w http.ResponseWriter, err error) {
	status := StatusForError(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("chat request failed", zap.Error(err))
	}
	utils.RespondError(w, status, err.Error())
}

// StatusForError 将会话错误映射为HTTP状态码
func StatusForError(err error) int {
	switch {
	case errors.Is(err, chatService.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, chatService.ErrSessionClosed):
		return http.StatusGone
	case errors.Is(err, chatService.ErrRequestPending):
		return http.StatusConflict
	case errors.Is(err, chatService.ErrEmptyMessage):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
