package ai

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"

	"github.com/zhouzirui/churai/backend/internal/model/chat"
)

// ErrUnavailable is returned when no chat model has been configured.
var ErrUnavailable = errors.New("completion service not configured")

// Service turns a completion request into a single assistant reply via an
// eino chain: system template + history placeholder + user query -> model.
type Service struct {
	chain     compose.Runnable[map[string]any, *schema.Message]
	streaming bool
	logger    *zap.Logger
}

// NewService compiles the chat chain around the given model.
func NewService(ctx context.Context, chatModel model.BaseChatModel, streaming bool, logger *zap.Logger) (*Service, error) {
	if chatModel == nil {
		return nil, ErrUnavailable
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	return &Service{
		chain:     runnable,
		streaming: streaming,
		logger:    logger,
	}, nil
}

// StreamingEnabled 指示是否开启流式输出。
func (s *Service) StreamingEnabled() bool {
	return s.streaming
}

// Complete runs the chain once and returns the reply content.
func (s *Service) Complete(ctx context.Context, req chat.CompletionRequest) (string, error) {
	response, err := s.chain.Invoke(ctx, buildChainInput(req))
	if err != nil {
		return "", fmt.Errorf("failed to run AI chain: %w", err)
	}
	if response == nil {
		return "", fmt.Errorf("AI chain returned no message")
	}

	s.logger.Debug("generated response", zap.Int("length", len(response.Content)))
	return response.Content, nil
}

// CompleteStream streams the reply, forwarding each non-empty chunk to
// onDelta, and returns the concatenated content. With streaming disabled it
// degrades to Complete and reports the whole reply as a single delta.
func (s *Service) CompleteStream(ctx context.Context, req chat.CompletionRequest, onDelta func(string)) (string, error) {
	if !s.streaming {
		content, err := s.Complete(ctx, req)
		if err == nil && content != "" {
			onDelta(content)
		}
		return content, err
	}

	stream, err := s.chain.Stream(ctx, buildChainInput(req))
	if err != nil {
		return "", fmt.Errorf("failed to stream AI chain output: %w", err)
	}
	defer stream.Close()

	chunks := make([]*schema.Message, 0, 8)
	for {
		chunk, recvErr := stream.Recv()
		if errors.Is(recvErr, io.EOF) {
			break
		}
		if recvErr != nil {
			return "", recvErr
		}
		if chunk == nil {
			continue
		}

		chunks = append(chunks, chunk)
		if chunk.Content != "" {
			onDelta(chunk.Content)
		}
	}

	if len(chunks) == 0 {
		return "", nil
	}
	response, err := schema.ConcatMessages(chunks)
	if err != nil {
		return "", err
	}
	return response.Content, nil
}

func buildChainInput(req chat.CompletionRequest) map[string]any {
	return map[string]any{
		"system":  req.System,
		"history": buildHistoryMessages(req.History),
		"query":   req.Query,
	}
}

func buildHistoryMessages(messages []chat.Message) []*schema.Message {
	if len(messages) == 0 {
		return nil
	}

	history := make([]*schema.Message, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case chat.RoleUser:
			history = append(history, schema.UserMessage(msg.Content))
		case chat.RoleAssistant:
			history = append(history, schema.AssistantMessage(msg.Content, nil))
		}
	}
	return history
}

// Unavailable stands in for the completion service when no model is
// configured; every call fails so sessions answer with their fallback.
func Unavailable() UnavailableCompleter {
	return UnavailableCompleter{}
}

// UnavailableCompleter always reports ErrUnavailable.
type UnavailableCompleter struct{}

// Complete implements the completer contract.
func (UnavailableCompleter) Complete(context.Context, chat.CompletionRequest) (string, error) {
	return "", ErrUnavailable
}
