package measurements

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gotrocks/proportal/internal/auth"
	"github.com/gotrocks/proportal/internal/middleware"
)

func SetupRoutes(svc *Service, sessions middleware.SessionFetcher) http.Handler {
	r := chi.NewRouter()
	h := Handler{Service: svc}

	r.Use(middleware.SessionMiddleware(sessions))
	r.Use(middleware.RoleMiddleware(auth.RoleForeman, auth.RoleSupervisor))
	r.Use(middleware.SiteMeasureMiddleware)

	r.Post("/estimate", h.Estimate)

	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Archive)

	return r
}
