package httpserver

import (
	"errors"
	"net/http"

	domain "userauth/backend/internal/domain/auth"
	"userauth/backend/internal/validation"
)

func (s *Server) registerRoutes() {
	s.router.Handle("/health", http.HandlerFunc(s.handleHealth))
	s.router.Handle("/metrics", s.metrics.handler())
	s.router.Handle("/auth/login", s.withRateLimit("login", http.HandlerFunc(s.handleLogin)))
	s.router.Handle("/auth/refresh", s.withRateLimit("refresh", http.HandlerFunc(s.handleRefresh)))

	authenticated := s.authMiddleware
	s.router.Handle("/auth/profile", authenticated(http.HandlerFunc(s.handleProfile)))
	s.router.Handle("/users", http.HandlerFunc(s.handleUsers))
	s.router.Handle("/users/", authenticated(http.HandlerFunc(s.handleUserByID)))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w, http.MethodGet)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, http.MethodPost)
		return
	}

	var payload loginRequest
	if !decodeJSON(w, r, &payload) {
		return
	}

	var errs validation.Errors
	errs.Required("email", payload.Email)
	errs.Required("password", payload.Password)
	if len(errs) > 0 {
		writeValidationError(w, errs)
		return
	}

	pair, err := s.authService.Login(r.Context(), domain.Credentials{Email: payload.Email, Password: payload.Password})
	if err != nil {
		s.writeAuthError(w, r, "login", err)
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, http.MethodPost)
		return
	}

	var payload refreshRequest
	if !decodeJSON(w, r, &payload) {
		return
	}

	var errs validation.Errors
	if !errs.Required("refreshToken", payload.RefreshToken) {
		writeValidationError(w, errs)
		return
	}

	pair, err := s.authService.Refresh(r.Context(), payload.RefreshToken)
	if err != nil {
		s.writeAuthError(w, r, "refresh", err)
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w, http.MethodGet)
		return
	}

	principal, ok := principalFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, principal)
}

func (s *Server) writeAuthError(w http.ResponseWriter, r *http.Request, operation string, err error) {
	if errors.Is(err, domain.ErrUnauthorized) {
		s.metrics.authFailures.WithLabelValues(operation).Inc()
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	s.logger.ErrorContext(r.Context(), "auth request failed",
		"operation", operation,
		"error", err,
		"request_id", requestIDFromContext(r.Context()),
	)
	writeError(w, http.StatusInternalServerError, "internal server error")
}
