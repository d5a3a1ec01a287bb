package catalog

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gotrocks/proportal/internal/auth"
	"github.com/gotrocks/proportal/internal/middleware"
)

func SetupRoutes(store *Store, sessions middleware.SessionFetcher) http.Handler {
	r := chi.NewRouter()
	h := Handler{Store: store}

	r.Use(middleware.SessionMiddleware(sessions))
	r.Use(middleware.RoleMiddleware(auth.RoleForeman, auth.RoleSupervisor))

	r.Get("/materials", h.ListMaterials)
	r.Get("/densities", h.ListDensities)

	return r
}
