package api

import (
	"net/http"
	"time"

	chatapi "github.com/futig/vitos-assistant/internal/api/chat"
	conversationapi "github.com/futig/vitos-assistant/internal/api/conversation"
	"github.com/futig/vitos-assistant/internal/api/docs"
	"github.com/futig/vitos-assistant/internal/api/middleware"
	"github.com/futig/vitos-assistant/internal/entity"
	"github.com/futig/vitos-assistant/internal/pkg/response"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

const (
	// APIPrefix is the versioned mount point used by the web client.
	APIPrefix  = "/api/v1"
	apiVersion = "1.0.0"

	defaultRequestTimeout = 60 * time.Second
)

type welcomeResponse struct {
	Message string `json:"message"`
	Version string `json:"version"`
	Docs    string `json:"docs"`
}

// SetupRouter creates and configures the HTTP router. Every API route is served
// both at the root and under APIPrefix.
func SetupRouter(
	chatHandler *chatapi.Handler,
	conversationHandler *conversationapi.Handler,
	requestTimeout time.Duration,
	logger *zap.Logger,
) http.Handler {
	if requestTimeout <= 0 {
		requestTimeout = defaultRequestTimeout
	}

	r := chi.NewRouter()

	// Middleware stack
	r.Use(chimiddleware.Recoverer)               // Recover from panics
	r.Use(chimiddleware.RequestID)               // Add request ID
	r.Use(middleware.Logger(logger))             // Log requests
	r.Use(middleware.CORS)                       // Handle CORS
	r.Use(chimiddleware.Timeout(requestTimeout)) // Bound request time

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, http.StatusOK, welcomeResponse{
			Message: "Welcome to Vito's Pizza Cafe API",
			Version: apiVersion,
			Docs:    "/docs",
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, http.StatusOK, entity.HealthResponse{
			Status:  "healthy",
			Message: "Vito's Pizza Cafe API is running",
		})
	})

	// Swagger documentation endpoints
	docs.RegisterRoutes(r)

	routes := func(r chi.Router) {
		chatapi.RegisterRoutes(r, chatHandler)
		conversationapi.RegisterRoutes(r, conversationHandler)
	}
	routes(r)
	r.Route(APIPrefix, routes)

	return r
}
