/*
server.go - HTTP router and middleware setup

PURPOSE:
  Wires the chi router: request logging, panic recovery, CORS, and the
  REST routes for businesses, ledger days, sales, and admin repairs.

SEE ALSO:
  - handlers.go: Route implementations
  - cmd/server/main.go: Server bootstrap and lifecycle
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterConfig carries the knobs the router needs from configuration.
type RouterConfig struct {
	// AllowedOrigins lists the CORS origins permitted to call the API.
	// An empty list allows any origin (development mode).
	AllowedOrigins []string
}

// NewRouter builds the HTTP router around a handler.
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Actor-ID", "X-Actor-Role"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/businesses", func(r chi.Router) {
			r.Get("/", h.ListBusinesses)
			r.Post("/", h.CreateBusiness)
			r.Get("/{id}", h.GetBusiness)
			r.Get("/{id}/days", h.ListDays)
			r.Post("/{id}/days", h.OpenDay)
			r.Get("/{id}/open-day", h.GetOpenDay)
		})

		r.Route("/days/{id}", func(r chi.Router) {
			r.Get("/", h.GetDay)
			r.Post("/sales", h.RecordSale)
			r.Post("/expenses", h.RecordExpense)
			r.Post("/payments", h.RecordDebtPayment)
			r.Post("/close", h.CloseDay)
		})

		r.Post("/sales/{id}/revert", h.RevertSale)

		r.Route("/admin", func(r chi.Router) {
			r.Post("/repair-bounds", h.RepairBounds)
			r.Post("/reconcile", h.Reconcile)
		})
	})

	return r
}
