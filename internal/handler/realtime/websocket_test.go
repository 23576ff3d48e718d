package realtime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/zhouzirui/churai/backend/internal/model/chat"
	chatservice "github.com/zhouzirui/churai/backend/internal/service/chat"
)

func newServer(t *testing.T, completer chatservice.Completer) (*httptest.Server, *chatservice.Service) {
	t.Helper()
	// connection goroutines outlive the test body, so zaptest can't be used here
	logger := zap.NewNop()
	chatSvc := chatservice.NewService(completer, chatservice.Options{Timeout: 2 * time.Second}, logger)

	r := chi.NewRouter()
	NewWebSocketHandler(chatSvc, logger).RegisterRoutes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(func() {
		chatSvc.Shutdown()
		srv.Close()
	})
	return srv, chatSvc
}

func dial(t *testing.T, srv *httptest.Server, sessionID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/chat/sessions/" + sessionID + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func read(t *testing.T, conn *websocket.Conn) OutboundMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	var msg OutboundMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

// readUntil skips intermediate states until match accepts one.
func readUntil(t *testing.T, conn *websocket.Conn, match func(OutboundMessage) bool) OutboundMessage {
	t.Helper()
	for i := 0; i < 20; i++ {
		msg := read(t, conn)
		if match(msg) {
			return msg
		}
	}
	t.Fatal("expected message never arrived")
	return OutboundMessage{}
}

func echo() chatservice.Completer {
	return chatservice.CompleterFunc(func(_ context.Context, req chat.CompletionRequest) (string, error) {
		return "echo: " + req.Query, nil
	})
}

func TestWebSocketConversation(t *testing.T) {
	srv, chatSvc := newServer(t, echo())
	session := chatSvc.CreateSession(context.Background())
	conn := dial(t, srv, session.ID())

	initial := read(t, conn)
	require.Equal(t, TypeState, initial.Type)
	require.NotNil(t, initial.Session)
	assert.Equal(t, session.ID(), initial.Session.SessionID)
	assert.Len(t, initial.Session.Messages, 1)

	require.NoError(t, conn.WriteJSON(InboundMessage{Type: TypeMessage, Content: "best onsen?"}))

	settled := readUntil(t, conn, func(m OutboundMessage) bool {
		return m.Type == TypeState && !m.Session.Pending && len(m.Session.Messages) == 3
	})
	assert.Equal(t, chat.RoleUser, settled.Session.Messages[1].Role)
	assert.Equal(t, "echo: best onsen?", settled.Session.Messages[2].Content)

	require.NoError(t, conn.WriteJSON(InboundMessage{Type: TypeReset}))
	reset := readUntil(t, conn, func(m OutboundMessage) bool { return m.Type == TypeState })
	assert.Len(t, reset.Session.Messages, 1)
}

func TestWebSocketReportsBadIntents(t *testing.T) {
	srv, chatSvc := newServer(t, echo())
	session := chatSvc.CreateSession(context.Background())
	conn := dial(t, srv, session.ID())
	read(t, conn)

	require.NoError(t, conn.WriteJSON(InboundMessage{Type: TypeMessage, Content: "  "}))
	msg := read(t, conn)
	assert.Equal(t, TypeError, msg.Type)
	assert.Equal(t, chatservice.ErrEmptyMessage.Error(), msg.Error)

	require.NoError(t, conn.WriteJSON(InboundMessage{Type: "dance"}))
	msg = read(t, conn)
	assert.Equal(t, TypeError, msg.Type)
	assert.Contains(t, msg.Error, "dance")

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	msg = read(t, conn)
	assert.Equal(t, TypeError, msg.Type)

	assert.Len(t, session.Snapshot().Messages, 1)
}

func TestWebSocketLocationHint(t *testing.T) {
	prompts := make(chan string, 1)
	srv, chatSvc := newServer(t, chatservice.CompleterFunc(func(_ context.Context, req chat.CompletionRequest) (string, error) {
		prompts <- req.System
		return "ok", nil
	}))
	session := chatSvc.CreateSession(context.Background())
	conn := dial(t, srv, session.ID())
	read(t, conn)

	require.NoError(t, conn.WriteJSON(InboundMessage{Type: TypeLocation, Location: &chat.Location{Lat: 35.6762, Lng: 139.6503}}))
	require.NoError(t, conn.WriteJSON(InboundMessage{Type: TypeMessage, Content: "what's near me?"}))

	select {
	case system := <-prompts:
		assert.Contains(t, system, "Latitude 35.6762, Longitude 139.6503")
	case <-time.After(3 * time.Second):
		t.Fatal("completion never requested")
	}
}

func TestWebSocketClosedBySession(t *testing.T) {
	srv, chatSvc := newServer(t, echo())
	session := chatSvc.CreateSession(context.Background())
	conn := dial(t, srv, session.ID())
	read(t, conn)

	require.NoError(t, chatSvc.CloseSession(context.Background(), session.ID()))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "unexpected error: %v", err)
}

func TestWebSocketUnknownSession(t *testing.T) {
	srv, _ := newServer(t, echo())
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/chat/sessions/missing/ws"

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
