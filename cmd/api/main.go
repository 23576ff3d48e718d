package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/zhouzirui/churai/backend/internal/config"
	"github.com/zhouzirui/churai/backend/internal/handler"
	"github.com/zhouzirui/churai/backend/internal/model/trip"
	"github.com/zhouzirui/churai/backend/internal/service/ai"
	"github.com/zhouzirui/churai/backend/internal/service/chat"
	"github.com/zhouzirui/churai/backend/internal/service/itinerary"
	applog "github.com/zhouzirui/churai/backend/pkg/log"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "churai: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logger, err := applog.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	if envErr != nil {
		logger.Info("no .env file loaded, using process environment", zap.Error(envErr))
	}

	completer, aiStatus := newCompleter(ctx, cfg, logger)

	chatService := chat.NewService(completer, chat.Options{
		SystemPrompt:  cfg.Chat.SystemPrompt,
		Greeting:      cfg.Chat.Greeting,
		FallbackReply: cfg.Chat.FallbackReply,
		Timeout:       cfg.Chat.Timeout,
		HistoryLimit:  cfg.Chat.HistoryLimit,
	}, logger.Named("chat"))
	defer chatService.Shutdown()

	tripService := itinerary.NewService(logger.Named("trips"))
	tripService.Load(ctx, trip.Seed())

	router := handler.NewRouter(handler.Dependencies{
		Chat:     chatService,
		Trips:    tripService,
		Logger:   logger,
		AIStatus: aiStatus,
	})

	return startServer(ctx, cfg.Server, router, logger)
}

// newCompleter builds the Ark-backed completion chain behind a circuit breaker.
// Without credentials every turn resolves to the fallback reply.
func newCompleter(ctx context.Context, cfg *config.Config, logger *zap.Logger) (chat.Completer, func() string) {
	if !cfg.AI.Enabled() {
		logger.Warn("Ark 凭证未配置，会话将使用兜底回复")
		return ai.Unavailable(), func() string { return "disabled" }
	}

	chatModel, err := cfg.AI.NewChatModel(ctx)
	if err != nil {
		logger.Warn("failed to create chat model, continuing without AI", zap.Error(err))
		return ai.Unavailable(), func() string { return "unavailable" }
	}

	aiService, err := ai.NewService(ctx, chatModel, cfg.AI.StreamResponse, logger.Named("ai"))
	if err != nil {
		logger.Warn("failed to initialize AI service, continuing without AI", zap.Error(err))
		return ai.Unavailable(), func() string { return "unavailable" }
	}

	breaker := ai.NewBreaker(aiService, ai.BreakerConfig{
		ConsecutiveFailures: cfg.Chat.BreakerFailures,
		Cooldown:            cfg.Chat.BreakerCooldown,
	}, logger.Named("breaker"))

	logger.Info("AI service initialized",
		zap.String("model", cfg.AI.Model),
		zap.Bool("stream", aiService.StreamingEnabled()),
	)
	return breaker, breaker.State
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler, logger *zap.Logger) error {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logger.Info("ChurAI backend listening", zap.String("addr", serverCfg.Addr))
	if err := runServer(ctx, srv); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
