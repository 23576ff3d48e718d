// Package realtime 为聊天会话提供 WebSocket 实时通道：
// 客户端发送意图，服务端推送会话快照。
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/zhouzirui/churai/backend/internal/model/chat"
	chatservice "github.com/zhouzirui/churai/backend/internal/service/chat"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	outboxSize = 16
)

// 入站消息类型
const (
	TypeMessage  = "message"
	TypeLocation = "location"
	TypeReset    = "reset"
)

// 出站消息类型
const (
	TypeState = "state"
	TypeError = "error"
)

// InboundMessage 客户端发来的意图
type InboundMessage struct {
	Type     string         `json:"type"`
	Content  string         `json:"content,omitempty"`
	Location *chat.Location `json:"location,omitempty"`
}

// OutboundMessage 推送给客户端的消息
type OutboundMessage struct {
	Type      string         `json:"type"`
	Session   *chat.Snapshot `json:"session,omitempty"`
	Error     string         `json:"error,omitempty"`
	Timestamp int64          `json:"timestamp"`
}

// WebSocketHandler WebSocket会话处理器
type WebSocketHandler struct {
	chatSvc  *chatservice.Service
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

// NewWebSocketHandler 创建WebSocket处理器
func NewWebSocketHandler(chatSvc *chatservice.Service, logger *zap.Logger) *WebSocketHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebSocketHandler{
		chatSvc: chatSvc,
		logger:  logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes 注册WebSocket路由
func (h *WebSocketHandler) RegisterRoutes(r chi.Router) {
	r.Get("/chat/sessions/{sessionID}/ws", h.handleWebSocket)
}

// connection 串行化对单个 websocket 连接的写入
type connection struct {
	conn   *websocket.Conn
	outbox chan OutboundMessage
	logger *zap.Logger
}

func (c *connection) enqueue(ctx context.Context, msg OutboundMessage) {
	msg.Timestamp = time.Now().UnixMilli()
	select {
	case c.outbox <- msg:
	case <-ctx.Done():
	}
}

func (c *connection) sendError(ctx context.Context, err error) {
	c.enqueue(ctx, OutboundMessage{Type: TypeError, Error: err.Error()})
}

// writeLoop 是唯一的写入者：转发快照、错误消息和心跳。
func (c *connection) writeLoop(ctx context.Context, snapshots <-chan chat.Snapshot) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	write := func(v any) error {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		return c.conn.WriteJSON(v)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-snapshots:
			if !ok {
				_ = c.conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed"),
					time.Now().Add(writeWait))
				return
			}
			if err := write(OutboundMessage{Type: TypeState, Session: &snap, Timestamp: time.Now().UnixMilli()}); err != nil {
				c.logger.Debug("websocket write failed", zap.Error(err))
				return
			}
		case msg := <-c.outbox:
			if err := write(msg); err != nil {
				c.logger.Debug("websocket write failed", zap.Error(err))
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

// handleWebSocket 处理WebSocket连接
func (h *WebSocketHandler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	session, err := h.chatSvc.GetSession(r.Context(), sessionID)
	if err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.String("session_id", sessionID), zap.Error(err))
		return
	}
	defer conn.Close()

	logger := h.logger.With(zap.String("session_id", sessionID))
	logger.Info("websocket connected")

	ctx, cancel := context.WithCancel(r.Context())
	snapshots, unsubscribe := session.Subscribe()
	c := &connection{conn: conn, outbox: make(chan OutboundMessage, outboxSize), logger: logger}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.writeLoop(ctx, snapshots)
		cancel()
		// unblock the reader once nothing more can be written
		_ = conn.Close()
	}()
	defer func() {
		cancel()
		unsubscribe()
		wg.Wait()
		logger.Info("websocket disconnected")
	}()

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg InboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			var (
				syntaxErr *json.SyntaxError
				typeErr   *json.UnmarshalTypeError
			)
			if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
				c.sendError(ctx, errors.New("invalid message"))
				continue
			}
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("websocket read error", zap.Error(err))
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))

		if err := h.dispatch(ctx, session, msg); err != nil {
			c.sendError(ctx, err)
		}
	}
}

// dispatch 把入站意图交给会话状态机
func (h *WebSocketHandler) dispatch(ctx context.Context, session *chatservice.Session, msg InboundMessage) error {
	switch msg.Type {
	case TypeMessage:
		if strings.TrimSpace(msg.Content) == "" {
			return chatservice.ErrEmptyMessage
		}
		_, err := session.AppendUserMessage(ctx, msg.Content)
		return err
	case TypeLocation:
		return session.SetLocation(msg.Location)
	case TypeReset:
		return session.Reset()
	default:
		return errors.New("unknown message type: " + msg.Type)
	}
}
