package rest

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/2lar-b2/orchestrator/interfaces/http/health"
	"github.com/2lar-b2/orchestrator/interfaces/http/rest/handlers"
	"github.com/2lar-b2/orchestrator/interfaces/http/rest/middleware"
	"github.com/2lar-b2/orchestrator/pkg/common"
)

// Router creates and configures the HTTP router.
type Router struct {
	workflows *handlers.WorkflowHandler
	health    *health.Checker
	logger    *zap.Logger
	enableCORS bool
}

// NewRouter creates a new router instance.
func NewRouter(
	workflows *handlers.WorkflowHandler,
	healthChecker *health.Checker,
	enableCORS bool,
	logger *zap.Logger,
) *Router {
	return &Router{
		workflows:  workflows,
		health:     healthChecker,
		enableCORS: enableCORS,
		logger:     logger,
	}
}

// Setup configures all routes and middleware.
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))
	router.Use(versionMiddleware)
	router.Use(requestContextMiddleware)

	if rt.enableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"http://localhost:3000"},
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "X-Triggered-By"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	router.Get("/health", rt.health.Liveness)
	router.Get("/ready", rt.health.Readiness)

	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/workflows", func(r chi.Router) {
			r.Post("/", rt.workflows.Submit)
			r.Get("/", rt.workflows.List)
			r.Get("/{workflowID}", rt.workflows.Get)
			r.Post("/{workflowID}/cancel", rt.workflows.Cancel)
			r.Post("/{workflowID}/pause", rt.workflows.Pause)
			r.Post("/{workflowID}/resume", rt.workflows.Resume)
		})
	})

	return router
}

// versionMiddleware adds API version headers to all responses.
func versionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-API-Version", "v1")
		next.ServeHTTP(w, r)
	})
}

// requestContextMiddleware stamps the request's triggering actor and chi's
// request id into the shared pkg/common context keys, so downstream
// handlers read them via common.GetUserID/common.GetRequestID instead of
// re-parsing the headers themselves, and common.ExtractMetadata can surface
// them in a response's meta block.
func requestContextMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := common.WithRequestID(r.Context(), chimiddleware.GetReqID(r.Context()))
		if actor := r.Header.Get("X-Triggered-By"); actor != "" {
			ctx = common.WithUserID(ctx, actor)
		}
		ctx = common.WithStartTime(ctx, time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
