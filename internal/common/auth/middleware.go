// internal/common/auth/middleware.go
package auth

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"cafe-directory/internal/common/config"
	apperrors "cafe-directory/internal/common/errors"
	"cafe-directory/internal/common/logger"
	"cafe-directory/internal/models"
)

const bearerPrefix = "Bearer "

// Middleware guards routes with the session cookie, the server-to-server
// bearer token or the admin role.
type Middleware struct {
	store  SessionStore
	cfg    config.AuthConfig
	errors *apperrors.ErrorHandler
	logger logger.Logger
}

func NewMiddleware(store SessionStore, cfg config.AuthConfig, errs *apperrors.ErrorHandler, log logger.Logger) *Middleware {
	return &Middleware{
		store:  store,
		cfg:    cfg,
		errors: errs,
		logger: log,
	}
}

func (m *Middleware) session(r *http.Request) (*models.Session, error) {
	cookie, err := r.Cookie(m.cfg.SessionCookie)
	if err != nil || cookie.Value == "" {
		return nil, ErrSessionNotFound
	}
	return m.store.Lookup(r.Context(), cookie.Value)
}

// RequireSession rejects requests without a live session with 401 and
// attaches the session to the request context otherwise.
func (m *Middleware) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, err := m.session(r)
		if errors.Is(err, ErrSessionNotFound) {
			m.errors.HandleHTTPError(w, r, apperrors.NewUnauthorizedError("Unauthorized"))
			return
		}
		if err != nil {
			m.errors.HandleHTTPError(w, r, apperrors.NewSessionLookupFailedError(err))
			return
		}
		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
	})
}

// RequireAPIToken checks the Authorization header against the configured API token.
func (m *Middleware) RequireAPIToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.cfg.APIToken == "" {
			m.errors.HandleHTTPError(w, r, apperrors.NewServerMisconfiguredError("API token is not configured"))
			return
		}

		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, bearerPrefix) {
			m.errors.HandleHTTPError(w, r, apperrors.NewUnauthorizedError("Unauthorized"))
			return
		}

		token := strings.TrimPrefix(header, bearerPrefix)
		if subtle.ConstantTimeCompare([]byte(token), []byte(m.cfg.APIToken)) != 1 {
			m.errors.HandleHTTPError(w, r, apperrors.NewInvalidTokenError())
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RequireAdmin redirects anonymous visitors to the login page and signed-in
// non-admins to the home page.
func (m *Middleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, err := m.session(r)
		if err != nil {
			if !errors.Is(err, ErrSessionNotFound) {
				m.logger.Warn("Session lookup failed on admin route", map[string]interface{}{
					"path":  r.URL.Path,
					"error": err.Error(),
				})
			}
			http.Redirect(w, r, m.cfg.LoginPath, http.StatusFound)
			return
		}

		if !session.IsAdmin() {
			http.Redirect(w, r, "/", http.StatusFound)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
	})
}
