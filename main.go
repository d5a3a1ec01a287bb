package main

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/gotrocks/proportal/internal/auth"
	"github.com/gotrocks/proportal/internal/catalog"
	"github.com/gotrocks/proportal/internal/config"
	"github.com/gotrocks/proportal/internal/db"
	"github.com/gotrocks/proportal/internal/measurements"
	"github.com/gotrocks/proportal/internal/metrics"
	"github.com/gotrocks/proportal/internal/middleware"
	"github.com/gotrocks/proportal/internal/projects"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func RootHandler(w http.ResponseWriter, r *http.Request) {
	response := "Server is up!"
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintln(w, response)
}

func main() {
	_ = godotenv.Load(".env.local")

	cfg := config.LoadFromEnv()
	if err := cfg.Validate(); err != nil {
		log.Fatal("Invalid configuration: ", err)
	}
	db.Connect(cfg)

	auth.Init()
	catalog.Init(cfg.CatalogFile)
	projects.Init()
	measurements.Init()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewCollector("proportal", reg)

	sessions := auth.SessionInfo{}
	catalogStore := catalog.NewStore(catalog.GormSource{DB: db.DB}, cfg.CatalogCacheTTL, m)
	projectStore := projects.Store{DB: db.DB}
	svc := &measurements.Service{
		Repo:     measurements.GormStore{DB: db.DB},
		Catalog:  catalogStore,
		Projects: projectStore,
		Metrics:  m,
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))
	r.Use(m.Middleware)

	r.Get("/", RootHandler)
	r.Method(http.MethodGet, "/metrics", m.Handler())

	r.Mount("/auth", auth.SetupRoutes(cfg))
	r.Mount("/catalog", catalog.SetupRoutes(catalogStore, sessions))
	r.Mount("/projects", projects.SetupRoutes(projectStore, sessions))
	r.Mount("/measurements", measurements.SetupRoutes(svc, sessions))

	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Printf("Server listening on port :%s...", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}
