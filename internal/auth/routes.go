package auth

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gotrocks/proportal/internal/config"
	"github.com/gotrocks/proportal/internal/middleware"
)

func SetupRoutes(cfg config.Config) http.Handler {
	r := chi.NewRouter()
	sessionFetcher := SessionInfo{}
	limiter := middleware.NewRateLimiter(cfg.LoginRatePerMin)

	r.With(limiter.Middleware).Post("/login", LoginHandler(cfg.SessionTTL))

	r.Group(func(r chi.Router) {
		r.Use(middleware.SessionMiddleware(sessionFetcher))

		r.Post("/logout", LogoutHandler)
		r.Get("/me", MeHandler)
		r.Post("/language", LanguageHandler)
		r.Post("/password", UpdatePasswordHandler)
		r.With(middleware.RoleMiddleware(RoleSupervisor)).Post("/availability", AvailabilityHandler)
	})

	return r
}
