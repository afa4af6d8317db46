package server

import (
	"net/http"

	"cafe-directory/internal/listings/cafes"
	"cafe-directory/internal/listings/recommendations"
	"cafe-directory/internal/listings/reviews"
	"cafe-directory/internal/listings/taxonomy"
)

type handlers struct {
	cafes           *cafes.Handler
	reviews         *reviews.Handler
	recommendations *recommendations.Handler
	facilities      *taxonomy.Handler
	terms           *taxonomy.Handler
}

// routes builds the mux. Reads are public under /api and token-gated under the
// external prefix; mutations need a session; the dashboard needs an admin.
func (s *Server) routes() http.Handler {
	h := handlers{
		cafes:           cafes.NewHandler(s.deps.Listings),
		reviews:         reviews.NewHandler(s.deps.Listings),
		recommendations: recommendations.NewHandler(s.deps.Listings),
		facilities:      taxonomy.NewHandler(s.deps.Listings, taxonomy.Facilities),
		terms:           taxonomy.NewHandler(s.deps.Listings, taxonomy.Terms),
	}

	mux := http.NewServeMux()

	s.registerReads(mux, "", func(next http.Handler) http.Handler { return next }, h)
	s.registerReads(mux, s.cfg.Auth.ExternalPrefix, s.deps.Auth.RequireAPIToken, h)

	session := s.deps.Auth.RequireSession
	mux.Handle("POST /api/reviews", session(http.HandlerFunc(h.reviews.Create)))
	mux.Handle("PUT /api/reviews", session(http.HandlerFunc(h.reviews.Update)))
	mux.Handle("DELETE /api/reviews/{id}", session(http.HandlerFunc(h.reviews.Delete)))
	mux.Handle("POST /api/cafe-recommendations", session(http.HandlerFunc(h.recommendations.Create)))
	mux.Handle("PUT /api/cafe-recommendations", session(http.HandlerFunc(h.recommendations.Update)))
	mux.Handle("DELETE /api/cafe-recommendations/{id}", session(http.HandlerFunc(h.recommendations.Delete)))

	admin := s.deps.Auth.RequireAdmin
	dashboard := s.cfg.Auth.DashboardPath
	mux.Handle("GET "+dashboard+"/api/reviews", admin(http.HandlerFunc(h.reviews.List)))
	mux.Handle("GET "+dashboard+"/api/cafe-recommendations", admin(http.HandlerFunc(h.recommendations.List)))

	mux.HandleFunc("GET /health", s.health)
	mux.HandleFunc("GET /ready", s.ready)
	mux.Handle("GET /metrics", s.metricsHandler)

	return s.instrument(s.cors().Handler(mux))
}

func (s *Server) registerReads(mux *http.ServeMux, prefix string, wrap func(http.Handler) http.Handler, h handlers) {
	reads := map[string]http.HandlerFunc{
		"/api/cafes":                     h.cafes.List,
		"/api/cafes/{slug}":              h.cafes.Get,
		"/api/reviews":                   h.reviews.List,
		"/api/reviews/{id}":              h.reviews.Get,
		"/api/cafe-recommendations":      h.recommendations.List,
		"/api/cafe-recommendations/{id}": h.recommendations.Get,
		"/api/facilities":                h.facilities.List,
		"/api/terms":                     h.terms.List,
	}
	for path, fn := range reads {
		mux.Handle("GET "+prefix+path, wrap(fn))
	}
}
