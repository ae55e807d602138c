package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ignite/domain-manager/internal/pkg/httputil"
)

// Routes builds the router. Every /domains route requires a team context
// from the X-Team-ID header; authentication itself happens upstream at the
// gateway.
func (s *Server) Routes() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://app.ignitemail.io", "http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Team-ID"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		httputil.OK(w, map[string]string{"status": "ok"})
	})

	r.Route("/domains", func(r chi.Router) {
		r.Use(teamContext)

		r.Get("/", s.handleListDomains)
		r.Post("/", s.handleCreateDomain)
		r.Post("/search", s.handleSearchDomains)
		r.Post("/purchase", s.handlePurchaseDomain)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetDomain)
			r.Delete("/", s.handleDeleteDomain)
			r.Post("/verify", s.handleVerifyDomain)
			r.Get("/dns-records", s.handleGetDNSRecords)
			r.Get("/health", s.handleGetDomainHealth)
			r.Post("/sent", s.handleRecordSend)
		})
	})

	return r
}
