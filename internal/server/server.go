// Package server wires the listing handlers, auth gates, CORS and operational
// endpoints into one HTTP server.
package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"cafe-directory/internal/common/auth"
	"cafe-directory/internal/common/config"
	"cafe-directory/internal/common/logger"
	"cafe-directory/internal/listings"
)

// Pinger is a dependency /ready checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	Listings listings.Deps
	Auth     *auth.Middleware
	Postgres Pinger
	Redis    Pinger
	Logger   logger.Logger
}

type Server struct {
	cfg            *config.Config
	deps           Deps
	logger         logger.Logger
	metricsHandler http.Handler
	httpServer     *http.Server
}

func New(cfg *config.Config, deps Deps) *Server {
	s := &Server{
		cfg:            cfg,
		deps:           deps,
		logger:         deps.Logger.WithFields(map[string]interface{}{"component": "http"}),
		metricsHandler: promhttp.Handler(),
	}

	s.httpServer = &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      s.routes(),
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}
	return s
}

// Handler exposes the full middleware chain, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start blocks serving HTTP until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("HTTP server listening", map[string]interface{}{"address": s.cfg.Server.Address})
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) cors() *cors.Cors {
	return cors.New(cors.Options{
		AllowOriginFunc:  s.allowOrigin,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           s.cfg.CORS.MaxAge,
	})
}

// allowOrigin accepts local development, Vercel previews, the app itself and
// any configured extras.
func (s *Server) allowOrigin(origin string) bool {
	if origin == "" {
		return false
	}
	if strings.Contains(origin, "localhost") || strings.HasSuffix(origin, ".vercel.app") {
		return true
	}
	if s.cfg.CORS.AppURL != "" && origin == strings.TrimSuffix(s.cfg.CORS.AppURL, "/") {
		return true
	}
	for _, allowed := range s.cfg.CORS.AllowedOrigins {
		if origin == allowed {
			return true
		}
	}
	return false
}
