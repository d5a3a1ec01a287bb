package projects

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gotrocks/proportal/internal/auth"
	"github.com/gotrocks/proportal/internal/middleware"
)

func SetupRoutes(store Lister, sessions middleware.SessionFetcher) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.SessionMiddleware(sessions))
	r.Use(middleware.RoleMiddleware(auth.RoleForeman, auth.RoleSupervisor))

	r.Get("/", ListProjects(store))

	return r
}
