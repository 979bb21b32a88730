package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/nerrad567/kanban-core/internal/audit"
	"github.com/nerrad567/kanban-core/internal/auth"
	"github.com/nerrad567/kanban-core/internal/infrastructure/mqtt"
)

// registerRequest is the body of POST /api/usuarios. The English names
// are accepted as aliases.
type registerRequest struct {
	Nome     string `json:"nome"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Senha    string `json:"senha"`
	Password string `json:"password"`
}

func (r registerRequest) name() string {
	return firstNonEmpty(r.Nome, r.Name)
}

func (r registerRequest) password() string {
	return firstNonEmpty(r.Senha, r.Password)
}

// loginRequest is the body of POST /api/login.
type loginRequest struct {
	Email    string `json:"email"`
	Senha    string `json:"senha"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// meResponse is the body of GET /api/eu.
type meResponse struct {
	*auth.User
	Authorities []string `json:"authorities"`
}

// handleRegister creates an account. The password hash is never returned.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	user, err := s.auth.Register(r.Context(), req.name(), req.Email, req.password())
	switch {
	case err == nil:
	case auth.IsValidationError(err):
		writeValidationError(w, err.Error())
		return
	case errors.Is(err, auth.ErrEmailExists):
		writeConflict(w, "email already registered")
		return
	default:
		s.logger.Error("registering user failed",
			"error", err,
			"request_id", requestIDFromContext(r.Context()),
		)
		writeInternalError(w, "failed to register user")
		return
	}

	s.logger.Info("user registered", "user_id", user.ID)
	s.auditLog(audit.ActionRegister, audit.EntityUser, strconv.FormatInt(user.ID, 10), user.ID, nil)
	s.publishEvent(mqtt.Topics{}.UserRegistered(), newUserEvent(user))
	if s.metrics != nil {
		s.metrics.WriteAuthEvent("registered")
	}

	writeJSON(w, http.StatusCreated, user)
}

// handleLogin verifies credentials and returns a bearer token.
// Unknown email and wrong password produce the same 401.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	password := firstNonEmpty(req.Senha, req.Password)
	if strings.TrimSpace(req.Email) == "" || password == "" {
		writeValidationError(w, "email and senha are required")
		return
	}

	token, user, err := s.auth.Login(r.Context(), req.Email, password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		var userID int64
		if user != nil {
			userID = user.ID
		}
		s.logger.Warn("login failed",
			"user_id", userID,
			"remote_ip", clientIP(r),
			"request_id", requestIDFromContext(r.Context()),
		)
		s.auditLog(audit.ActionLoginFailed, audit.EntityUser, "", userID, map[string]any{"remote_ip": clientIP(r)})
		if s.metrics != nil {
			s.metrics.WriteAuthEvent("login_failed")
		}
		writeUnauthorized(w, "invalid credentials")
		return
	}
	if err != nil {
		// Token creation failures are a server misconfiguration.
		s.logger.Error("login failed with internal error",
			"error", err,
			"request_id", requestIDFromContext(r.Context()),
		)
		writeInternalError(w, "failed to log in")
		return
	}

	s.auditLog(audit.ActionLogin, audit.EntityUser, strconv.FormatInt(user.ID, 10), user.ID, nil)
	if s.metrics != nil {
		s.metrics.WriteAuthEvent("login_ok")
	}

	writeJSON(w, http.StatusOK, loginResponse{Token: token})
}

// handleMe returns the caller's own account.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	principal := principalFrom(r)
	writeJSON(w, http.StatusOK, meResponse{
		User:        principal.User,
		Authorities: principal.Authorities,
	})
}

// principalFrom returns the principal of a request that passed requirePrincipal.
func principalFrom(r *http.Request) *auth.Principal {
	p, _ := auth.PrincipalFromContext(r.Context()) //nolint:errcheck // guarded by requirePrincipal
	return p
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
