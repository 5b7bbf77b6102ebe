package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"contentcraft/internal/handler"
	"contentcraft/internal/httputil"
	authmw "contentcraft/internal/transport/http/middleware"
)

// RouterConfig holds the dependencies needed to create routes
type RouterConfig struct {
	AuthHandler     *handler.AuthHandler
	GenerateHandler *handler.GenerateHandler
	PostHandler     *handler.PostHandler
	ProfileHandler  *handler.ProfileHandler
	UsageHandler    *handler.UsageHandler
	JWTSecret       string
}

// NewRouter creates and configures a new Chi router with all route groups
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	// Health check endpoint (useful for deployment/monitoring)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, 200, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		// Public routes - no authentication required
		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", cfg.AuthHandler.Signup)
			r.Post("/login", cfg.AuthHandler.Login)
			r.Post("/refresh", cfg.AuthHandler.Refresh)
			r.Get("/check-setup", cfg.AuthHandler.CheckSetup)
		})

		// Protected routes - require authentication
		r.Group(func(r chi.Router) {
			r.Use(authmw.AuthMiddleware(cfg.JWTSecret))

			r.Post("/auth/complete-setup", cfg.AuthHandler.CompleteSetup)
			r.Post("/auth/logout", cfg.AuthHandler.Logout)
			r.Post("/auth/logout-all", cfg.AuthHandler.LogoutAll)
			r.Get("/auth/me", cfg.AuthHandler.Me)

			// Content generation
			r.Post("/ai", cfg.GenerateHandler.Generate)

			// Saved posts
			r.Post("/posts", cfg.PostHandler.Create)
			r.Get("/posts", cfg.PostHandler.List)
			r.Delete("/posts", cfg.PostHandler.Delete)

			// Brand profile
			r.Get("/profile", cfg.ProfileHandler.Get)
			r.Put("/profile", cfg.ProfileHandler.Update)
			r.Put("/profile/avatar", cfg.ProfileHandler.UpdateAvatar)

			// Usage counters
			r.Get("/usage", cfg.UsageHandler.Today)
		})
	})

	return r
}
