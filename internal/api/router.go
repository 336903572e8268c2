package api

import (
	"net/http"
	"time"

	"family_ledger/internal/api/handler"
	"family_ledger/internal/api/middleware"
	"family_ledger/internal/app/service"
	"family_ledger/internal/app/session"
	"family_ledger/internal/common/security"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(
	authService *service.AuthService,
	debtService *service.DebtService,
	userService *service.UserService,
	sessions session.Store,
	staticDir string,
) http.Handler {
	r := chi.NewRouter()

	// Base Middlewares
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(middleware.Metrics)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))
	r.Use(middleware.CORS)

	// JWT Auth Middleware Setup
	// Verifies a token found in "Authorization: Bearer T" and puts claims
	// in context; authentication itself happens in middleware.Authenticator.
	r.Use(jwtauth.Verifier(security.TokenAuth))

	// Public health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(apiRouter chi.Router) {
		authHandler := handler.NewAuthHandler(authService)
		apiRouter.Group(func(public chi.Router) {
			authHandler.RegisterPublicRoutes(public)
		})

		apiRouter.Group(func(protected chi.Router) {
			protected.Use(middleware.Authenticator(sessions))

			authHandler.RegisterProtectedRoutes(protected)

			debtHandler := handler.NewDebtHandler(debtService)
			protected.Route("/debts", debtHandler.RegisterRoutes)

			userHandler := handler.NewUserHandler(userService)
			protected.Route("/users", userHandler.RegisterRoutes)
		})
	})

	// Serve the browser shell when a static dir is configured.
	if staticDir != "" {
		fs := http.FileServer(http.Dir(staticDir))
		r.Handle("/*", fs)
	}

	return r
}
