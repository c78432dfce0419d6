package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/claude/pulseboard/internal/models"
)

const maxProfileBody = 64 << 10

// requestEmail is the ?email= parameter, falling back to the session's user.
func (s *Server) requestEmail(r *http.Request) string {
	if email := r.URL.Query().Get("email"); email != "" {
		return email
	}
	if f, ok := s.currentSession(r); ok {
		return f.UserEmail
	}
	return ""
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	email := s.requestEmail(r)
	if email == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "email parameter required"})
		return
	}
	profile, err := s.store.GetProfile(r.Context(), email)
	s.writeProfile(w, profile, err)
}

// handleUpdateProfile applies the fields present in the body. The email comes
// from the body, then the query or session.
func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var u models.ProfileUpdate
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxProfileBody)).Decode(&u); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if u.Email == "" {
		u.Email = s.requestEmail(r)
	}
	u.Normalize()
	if err := u.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	var (
		profile *models.UserProfile
		err     error
	)
	if u.Empty() {
		profile, err = s.store.GetProfile(r.Context(), u.Email)
	} else {
		profile, err = s.store.UpdateProfile(r.Context(), u)
	}
	if err == nil {
		s.log.Info("profile updated", "email", u.Email)
	}
	s.writeProfile(w, profile, err)
}

func (s *Server) writeProfile(w http.ResponseWriter, profile *models.UserProfile, err error) {
	switch {
	case errors.Is(err, models.ErrUserNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "user not found"})
	case err != nil:
		s.log.Error("profile request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	default:
		writeJSON(w, http.StatusOK, profile)
	}
}
