// ABOUTME: HTTP router for wpgate using chi
// ABOUTME: Mounts the auth gate per route group and the shared-state upgrade endpoint

package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/openlumi/wpgate/internal/auth"
)

// RouterOptions controls the construction of the wpgate HTTP router.
type RouterOptions struct {
	Gate *auth.Gate
	// Behavior applies to the content routes; the auth-data route always
	// runs with BehaviorNext since anonymous is a valid answer there.
	Behavior    Behavior
	Handlers    *Handlers
	UpgradeFunc http.HandlerFunc // shared-state websocket endpoint
	CORSOrigins []string
}

// Behavior aliases the gate behavior for configuration plumbing.
type Behavior = auth.Behavior

// NewRouter assembles the service router: recoverer and request logging on
// everything, CORS with credentials (the session cookie must survive
// cross-origin embeds), the gate mounted per group.
func NewRouter(opts RouterOptions) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(slog.Default().With("component", "http")))
	r.Use(cors.Handler(corsOptions(opts.CORSOrigins)))

	r.Get("/healthz", opts.Handlers.Health)

	// Optional-auth group: anonymous callers get a valid answer.
	r.Group(func(r chi.Router) {
		r.Use(opts.Gate.Middleware(auth.BehaviorNext))
		r.Get("/auth-data/{contentId}", opts.Handlers.AuthData)
	})

	// Authenticated group: behavior per configuration.
	r.Group(func(r chi.Router) {
		r.Use(opts.Gate.Middleware(opts.Behavior))
		r.Get("/content/{contentId}", opts.Handlers.Content)
	})

	// The upgrade endpoint authenticates inline, not via middleware: the
	// handshake must complete the pipeline before it is acknowledged.
	if opts.UpgradeFunc != nil {
		r.Get("/shared-state", opts.UpgradeFunc)
	}

	return r
}

func corsOptions(origins []string) cors.Options {
	if len(origins) == 0 {
		origins = []string{"https://*", "http://*"}
	}
	return cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
}

// requestLogger logs one line per request at debug level.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Debug("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
			)
		})
	}
}
