package chat_test

import (
	"context"
	"testing"

	"go.uber.org/zap/zaptest"

	modelchat "github.com/zhouzirui/churai/backend/internal/model/chat"
	chat "github.com/zhouzirui/churai/backend/internal/service/chat"
)

func echoCompleter() chat.Completer {
	return chat.CompleterFunc(func(_ context.Context, req modelchat.CompletionRequest) (string, error) {
		return "echo: " + req.Query, nil
	})
}

func TestServiceGetSession(t *testing.T) {
	svc := chat.NewService(echoCompleter(), chat.Options{}, zaptest.NewLogger(t))
	ctx := context.Background()

	session := svc.CreateSession(ctx)

	got, err := svc.GetSession(ctx, session.ID())
	if err != nil {
		t.Fatalf("GetSession err: %v", err)
	}
	if got != session {
		t.Fatalf("unexpected session: got %s want %s", got.ID(), session.ID())
	}
}

func TestServiceGetSessionNotFound(t *testing.T) {
	svc := chat.NewService(echoCompleter(), chat.Options{}, zaptest.NewLogger(t))

	if _, err := svc.GetSession(context.Background(), "missing"); err != chat.ErrSessionNotFound {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestServiceCloseSession(t *testing.T) {
	svc := chat.NewService(echoCompleter(), chat.Options{}, zaptest.NewLogger(t))
	ctx := context.Background()

	session := svc.CreateSession(ctx)
	if err := svc.CloseSession(ctx, session.ID()); err != nil {
		t.Fatalf("CloseSession err: %v", err)
	}
	if !session.Closed() {
		t.Fatal("expected session to be closed")
	}
	if _, err := svc.GetSession(ctx, session.ID()); err == nil {
		t.Fatal("expected closed session to be gone")
	}
	if err := svc.CloseSession(ctx, session.ID()); err == nil {
		t.Fatal("expected error closing twice")
	}
}

func TestServiceSessionsAreIndependent(t *testing.T) {
	svc := chat.NewService(echoCompleter(), chat.Options{}, zaptest.NewLogger(t))
	ctx := context.Background()

	first := svc.CreateSession(ctx)
	second := svc.CreateSession(ctx)

	reply, err := first.Send(ctx, "Kyoto")
	if err != nil {
		t.Fatalf("Send err: %v", err)
	}
	if reply.Content != "echo: Kyoto" {
		t.Fatalf("unexpected reply %q", reply.Content)
	}

	if got := len(second.Snapshot().Messages); got != 1 {
		t.Fatalf("second session should only hold the greeting, got %d messages", got)
	}

	svc.Shutdown()
	if !first.Closed() || !second.Closed() {
		t.Fatal("expected Shutdown to close all sessions")
	}
}
