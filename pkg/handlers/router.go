package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"millennium-sync/pkg/config"
	"millennium-sync/pkg/database"
	customMiddleware "millennium-sync/pkg/middleware"
)

// NewRouter assembles the full API surface on one Chi router: the auth
// service under /auth/v1 and the row endpoints under /rest/v1
func NewRouter(cfg *config.Config, db database.DatabaseInterface) *chi.Mux {
	router := chi.NewRouter()

	setupMiddleware(router, cfg)
	setupRoutes(router, cfg, db)

	return router
}

func setupMiddleware(router *chi.Mux, cfg *config.Config) {
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	// normalize the path and restore scheme/host before logging and routing
	router.Use(customMiddleware.Normalize())
	router.Use(customMiddleware.Logger(cfg))
	router.Use(customMiddleware.Recovery(cfg))

	router.Use(customMiddleware.CORS(cfg))

	router.Use(middleware.Timeout(25 * time.Second))
	router.Use(middleware.Compress(5))
	router.Use(customMiddleware.MaxBodySize(1 << 20))

	if cfg.IsDevelopment() {
		router.Use(middleware.Heartbeat("/ping"))
	}
}

func setupRoutes(router *chi.Mux, cfg *config.Config, db database.DatabaseInterface) {
	authHandler := NewAuthHandler(cfg, db)
	rowsHandler := NewRowsHandler(cfg, db)

	router.Get("/", authHandler.HealthCheck)
	router.Get("/health", authHandler.HealthCheck)

	// auth service
	router.Route("/auth/v1", func(r chi.Router) {
		r.Use(customMiddleware.ValidateAPIKey(cfg.StoreKey))

		r.Group(func(r chi.Router) {
			r.Use(customMiddleware.ContentTypeJSON)
			r.Post("/token", authHandler.Token)
			r.Post("/signup", authHandler.SignUp)
		})

		r.Group(func(r chi.Router) {
			r.Use(customMiddleware.AuthMiddleware(cfg))
			r.Get("/user", authHandler.GetUser)
			r.Post("/logout", authHandler.Logout)
		})
	})

	// row endpoints, always behind authentication
	router.Route("/rest/v1", func(r chi.Router) {
		r.Use(customMiddleware.ValidateAPIKey(cfg.StoreKey))
		r.Use(customMiddleware.AuthMiddleware(cfg))

		r.Get("/{table}", rowsHandler.List)
		r.Method(http.MethodHead, "/{table}", http.HandlerFunc(rowsHandler.Count))
		r.With(customMiddleware.ContentTypeJSON).Post("/{table}", rowsHandler.Insert)
		r.With(customMiddleware.ContentTypeJSON).Patch("/{table}", rowsHandler.Update)
		r.Delete("/{table}", rowsHandler.Delete)
	})
}
