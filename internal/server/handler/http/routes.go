package http

import (
	"context"
	"net/http"
	"time"

	"github.com/atinyakov/storefront/internal/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/unrolled/secure"
	"go.uber.org/zap"
)

// Pinger reports datastore liveness.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// RouterConfig collects the handlers and settings NewRouter mounts.
type RouterConfig struct {
	Auth   *AuthHandler
	Items  *ItemHandler
	Cart   *CartHandler
	Orders *OrderHandler

	// Verifier resolves the session cookie on every request.
	Verifier middleware.TokenVerifier
	// DB backs /healthz; nil reports healthy without a ping.
	DB Pinger

	// FrontendURL is the single origin allowed to send credentialed requests.
	FrontendURL string
	// AuthRateLimit caps signin, signup and reset calls per IP per minute.
	AuthRateLimit int
	// RequestTimeout bounds each request.
	RequestTimeout time.Duration
	// Production enables HTTPS-only security headers.
	Production bool

	Logger *zap.Logger
}

// NewRouter constructs the storefront API.
//
// Routes:
//
//	POST   /api/signup                  → Auth.Signup (rate limited)
//	POST   /api/signin                  → Auth.Signin (rate limited)
//	POST   /api/signout                 → Auth.Signout
//	POST   /api/reset/request           → Auth.RequestReset (rate limited)
//	POST   /api/reset                   → Auth.ResetPassword (rate limited)
//	GET    /api/me                      → Auth.Me
//	GET    /api/users                   → Auth.Users
//	PUT    /api/users/{id}/permissions  → Auth.UpdatePermissions
//	GET    /api/items                   → Items.List
//	GET    /api/items/count             → Items.Count
//	POST   /api/items                   → Items.Create
//	GET    /api/items/{id}              → Items.Get
//	PATCH  /api/items/{id}              → Items.Update
//	DELETE /api/items/{id}              → Items.Delete
//	GET    /api/cart                    → Cart.Cart
//	POST   /api/cart/{itemID}           → Cart.Add
//	DELETE /api/cart/{id}               → Cart.Remove
//	GET    /api/orders                  → Orders.List
//	POST   /api/orders                  → Orders.Create
//	GET    /api/orders/{id}             → Orders.Get
//	GET    /healthz
//
// The session middleware never rejects a request; each operation decides
// whether it needs a signed-in user.
func NewRouter(cfg RouterConfig) http.Handler {
	if cfg.AuthRateLimit <= 0 {
		cfg.AuthRateLimit = 10
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}

	secureMiddleware := secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
		SSLProxyHeaders:    map[string]string{"X-Forwarded-Proto": "https"},
		STSSeconds:         31536000,
		IsDevelopment:      !cfg.Production,
	})

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.WithRequestLogging(cfg.Logger))
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(cfg.RequestTimeout))
	r.Use(secureMiddleware.Handler)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.FrontendURL},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", health(cfg.DB, cfg.Logger))

	r.Route("/api", func(r chi.Router) {
		// Only allow requests with Content-Type: application/json
		r.Use(chiMiddleware.AllowContentType("application/json"))
		r.Use(middleware.SessionAuth(cfg.Verifier, cfg.Logger))

		r.Group(func(r chi.Router) {
			r.Use(httprate.Limit(cfg.AuthRateLimit, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)))
			r.Post("/signup", cfg.Auth.Signup)
			r.Post("/signin", cfg.Auth.Signin)
			r.Post("/reset/request", cfg.Auth.RequestReset)
			r.Post("/reset", cfg.Auth.ResetPassword)
		})
		r.Post("/signout", cfg.Auth.Signout)
		r.Get("/me", cfg.Auth.Me)
		r.Get("/users", cfg.Auth.Users)
		r.Put("/users/{id}/permissions", cfg.Auth.UpdatePermissions)

		r.Route("/items", func(r chi.Router) {
			r.Get("/", cfg.Items.List)
			r.Post("/", cfg.Items.Create)
			r.Get("/count", cfg.Items.Count)
			r.Get("/{id}", cfg.Items.Get)
			r.Patch("/{id}", cfg.Items.Update)
			r.Delete("/{id}", cfg.Items.Delete)
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cfg.Cart.Cart)
			r.Post("/{itemID}", cfg.Cart.Add)
			r.Delete("/{id}", cfg.Cart.Remove)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", cfg.Orders.List)
			r.Post("/", cfg.Orders.Create)
			r.Get("/{id}", cfg.Orders.Get)
		})
	})

	return r
}

func health(db Pinger, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				log.Warn("health check failed", zap.Error(err))
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
