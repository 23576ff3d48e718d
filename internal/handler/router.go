package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/zhouzirui/churai/backend/internal/handler/chat"
	"github.com/zhouzirui/churai/backend/internal/handler/itinerary"
	"github.com/zhouzirui/churai/backend/internal/handler/realtime"
	"github.com/zhouzirui/churai/backend/internal/handler/stream"
	middlewarePkg "github.com/zhouzirui/churai/backend/internal/middleware"
	chatService "github.com/zhouzirui/churai/backend/internal/service/chat"
	itineraryService "github.com/zhouzirui/churai/backend/internal/service/itinerary"
	"github.com/zhouzirui/churai/backend/pkg/utils"
)

// Dependencies collects what the router hands to the sub-handlers.
type Dependencies struct {
	Chat   *chatService.Service
	Trips  *itineraryService.Service
	Logger *zap.Logger
	// AIStatus reports the completion backend state for /healthz, e.g. the breaker state.
	AIStatus func() string
}

// NewRouter wires HTTP routes to core services.
func NewRouter(deps Dependencies) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.RequestLogger(logger.Named("http")))
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		aiStatus := "unknown"
		if deps.AIStatus != nil {
			aiStatus = deps.AIStatus()
		}
		utils.RespondJSON(w, http.StatusOK, map[string]string{
			"status": "ok",
			"ai":     aiStatus,
		})
	})

	r.Route("/api", func(api chi.Router) {
		chat.New(deps.Chat, logger.Named("chat")).RegisterRoutes(api)
		stream.New(deps.Chat, logger.Named("stream")).RegisterRoutes(api)
		realtime.NewWebSocketHandler(deps.Chat, logger.Named("ws")).RegisterRoutes(api)
		itinerary.New(deps.Trips, logger.Named("trips")).RegisterRoutes(api)
	})

	return r
}
