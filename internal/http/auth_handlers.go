package http

import (
	"errors"
	"net/http"
	"strings"

	"centime/internal/auth"
	"centime/internal/core"
	"centime/internal/log"
)

type userResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// requireSession is the auth gate: it decodes the session cookie and
// short-circuits with 401 before any data access. Every protected
// handler calls it first.
func (s *Server) requireSession(w http.ResponseWriter, r *http.Request) (auth.Session, bool) {
	cookie, err := r.Cookie(auth.SessionCookieName)
	if err != nil || cookie.Value == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return auth.Session{}, false
	}
	session, err := s.codec.Decode(cookie.Value)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return auth.Session{}, false
	}
	return session, true
}

func (s *Server) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.codec.TTL().Seconds()),
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func credentialsFrom(r *http.Request) (username, password string, err error) {
	body, err := parseBody(r)
	if err != nil {
		return "", "", err
	}
	return strings.TrimSpace(body.getString("username")), body.getString("password"), nil
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	username, password, err := credentialsFrom(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if username == "" || password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	user, err := s.repo.CreateUser(r.Context(), username, hash)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	log.FromContext(r.Context()).InfoContext(r.Context(), "User registered", "user_id", user.ID)
	writeJSON(w, http.StatusCreated, map[string]any{
		"user": userResponse{ID: user.ID, Username: user.Username},
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	username, password, err := credentialsFrom(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if username == "" || password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	user, err := s.repo.GetUserByUsername(r.Context(), username)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		writeServiceError(w, r, err)
		return
	}
	if !auth.CheckPassword(password, user.PasswordHash) {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := s.codec.Encode(auth.Session{UserID: user.ID, Username: user.Username})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.setSessionCookie(w, token)

	log.FromContext(r.Context()).InfoContext(r.Context(), "User logged in", "user_id", user.ID)
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "login successful",
		"user":    userResponse{ID: user.ID, Username: user.Username},
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.clearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]any{"message": "logged out"})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	session, ok := s.requireSession(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user": userResponse{ID: session.UserID, Username: session.Username},
	})
}
