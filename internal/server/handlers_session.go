package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/claude/pulseboard/internal/session"
)

// SessionCookie names the cookie carrying the session ID.
const SessionCookie = "pulseboard_session"

// currentSession returns the flags of the request's session, if it has a valid one.
func (s *Server) currentSession(r *http.Request) (session.Flags, bool) {
	if s.sessions == nil {
		return session.Flags{}, false
	}
	c, err := r.Cookie(SessionCookie)
	if err != nil || c.Value == "" {
		return session.Flags{}, false
	}
	f, err := s.sessions.Get(r.Context(), c.Value)
	if err != nil {
		if !errors.Is(err, session.ErrNotFound) {
			s.log.Warn("session lookup failed", "error", err)
		}
		return session.Flags{}, false
	}
	return f, true
}

// ensureSession returns the request's session ID, creating a session and setting
// its cookie when there is none.
func (s *Server) ensureSession(w http.ResponseWriter, r *http.Request) (string, error) {
	if f, ok := s.currentSession(r); ok {
		return f.ID, nil
	}
	f, err := s.sessions.Create(r.Context())
	if err != nil {
		return "", err
	}
	setSessionCookie(w, f.ID)
	return f.ID, nil
}

func setSessionCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) sessionsAvailable(w http.ResponseWriter) bool {
	if s.sessions == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "sessions are not enabled"})
		return false
	}
	return true
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	if !s.sessionsAvailable(w) {
		return
	}
	f, ok := s.currentSession(r)
	if !ok {
		writeJSON(w, http.StatusOK, session.Flags{})
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func (s *Server) handleNewSession(w http.ResponseWriter, r *http.Request) {
	if !s.sessionsAvailable(w) {
		return
	}
	f, err := s.sessions.Create(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	setSessionCookie(w, f.ID)
	writeJSON(w, http.StatusCreated, f)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !s.sessionsAvailable(w) {
		return
	}
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if req.Email == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "email is required"})
		return
	}

	id, err := s.ensureSession(w, r)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	f, err := s.sessions.Login(r.Context(), id, req.Email)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if !s.sessionsAvailable(w) {
		return
	}
	f, ok := s.currentSession(r)
	if !ok {
		writeJSON(w, http.StatusOK, session.Flags{})
		return
	}
	f, err := s.sessions.Logout(r.Context(), f.ID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, f)
}

// handleDemo turns demo mode on or off: {"enabled": true|false}.
func (s *Server) handleDemo(w http.ResponseWriter, r *http.Request) {
	if !s.sessionsAvailable(w) {
		return
	}
	var req struct {
		Enabled bool `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	id, err := s.ensureSession(w, r)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	var f session.Flags
	if req.Enabled {
		f, err = s.sessions.EnterDemo(r.Context(), id)
	} else {
		f, err = s.sessions.ExitDemo(r.Context(), id)
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, f)
}
