package httpserver

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	domain "userauth/backend/internal/domain/auth"
	userusecase "userauth/backend/internal/usecase/user"
	"userauth/backend/internal/validation"
)

type createUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type updateUserRequest struct {
	Email string `json:"email"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

// handleUsers serves the collection. Registration is public, listing is not.
func (s *Server) handleUsers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.authMiddleware(http.HandlerFunc(s.listUsers)).ServeHTTP(w, r)
	case http.MethodPost:
		s.createUser(w, r)
	default:
		writeMethodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.userService.List(r.Context())
	if err != nil {
		s.writeUserError(w, r, err)
		return
	}
	if users == nil {
		users = []*domain.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	var payload createUserRequest
	if !decodeJSON(w, r, &payload) {
		return
	}

	var errs validation.Errors
	errs.Email("email", payload.Email)
	errs.StrongPassword("password", payload.Password)
	if len(errs) > 0 {
		writeValidationError(w, errs)
		return
	}

	user, err := s.userService.Create(r.Context(), userusecase.CreateInput{
		Email:    payload.Email,
		Password: payload.Password,
	})
	if err != nil {
		s.writeUserError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (s *Server) handleUserByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/users/"), "/")
	parts := strings.Split(rest, "/")
	if len(parts) > 2 || (len(parts) == 2 && parts[1] != "password") {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "user id must be a positive integer")
		return
	}

	if len(parts) == 2 {
		if r.Method != http.MethodPut {
			writeMethodNotAllowed(w, http.MethodPut)
			return
		}
		s.changePassword(w, r, id)
		return
	}

	switch r.Method {
	case http.MethodGet:
		user, err := s.userService.Get(r.Context(), id)
		if err != nil {
			s.writeUserError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, user)
	case http.MethodPut:
		s.updateUser(w, r, id)
	case http.MethodDelete:
		user, err := s.userService.Delete(r.Context(), id)
		if err != nil {
			s.writeUserError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, user)
	default:
		writeMethodNotAllowed(w, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}

func (s *Server) updateUser(w http.ResponseWriter, r *http.Request, id int64) {
	var payload updateUserRequest
	if !decodeJSON(w, r, &payload) {
		return
	}

	var errs validation.Errors
	errs.Email("email", payload.Email)
	if len(errs) > 0 {
		writeValidationError(w, errs)
		return
	}

	user, err := s.userService.Update(r.Context(), id, userusecase.UpdateInput{Email: payload.Email})
	if err != nil {
		s.writeUserError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) changePassword(w http.ResponseWriter, r *http.Request, id int64) {
	principal, ok := principalFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if principal.UserID != id {
		writeError(w, http.StatusForbidden, "cannot change another user's password")
		return
	}

	var payload changePasswordRequest
	if !decodeJSON(w, r, &payload) {
		return
	}

	var errs validation.Errors
	errs.Required("oldPassword", payload.OldPassword)
	errs.StrongPassword("newPassword", payload.NewPassword)
	if len(errs) > 0 {
		writeValidationError(w, errs)
		return
	}

	err := s.userService.ChangePassword(r.Context(), id, userusecase.ChangePasswordInput{
		OldPassword: payload.OldPassword,
		NewPassword: payload.NewPassword,
	})
	if err != nil {
		s.writeUserError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) writeUserError(w http.ResponseWriter, r *http.Request, err error) {
	var verrs validation.Errors
	switch {
	case errors.As(err, &verrs):
		writeValidationError(w, verrs)
	case errors.Is(err, domain.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "user not found")
	case errors.Is(err, domain.ErrEmailExists):
		writeError(w, http.StatusConflict, "email already exists")
	case errors.Is(err, domain.ErrPasswordMismatch):
		writeError(w, http.StatusBadRequest, "current password is incorrect")
	case errors.Is(err, domain.ErrPasswordUnchanged):
		writeError(w, http.StatusBadRequest, "new password must differ from the current one")
	default:
		s.logger.ErrorContext(r.Context(), "user request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
			"request_id", requestIDFromContext(r.Context()),
		)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
