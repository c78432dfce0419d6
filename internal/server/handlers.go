package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/claude/pulseboard/internal/dashboard"
	"github.com/go-chi/chi/v5"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	views, email := s.viewsFor(r)
	view, err := views.Cards(r.Context(), periodQuery(r, email))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	views, email := s.viewsFor(r)
	view, err := views.Chart(r.Context(), periodQuery(r, email), chi.URLParam(r, "metric"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start, end := q.Get("start_date"), q.Get("end_date")

	views, email := s.viewsFor(r)
	view, err := views.History(r.Context(), email, start, end)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleSleep(w http.ResponseWriter, r *http.Request) {
	views, email := s.viewsFor(r)
	view, err := views.Sleep(r.Context(), periodQuery(r, email))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleWeeklySleep(w http.ResponseWriter, r *http.Request) {
	views, email := s.viewsFor(r)
	view, err := views.WeeklySleep(r.Context(), email)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	days := 0
	if d := r.URL.Query().Get("days"); d != "" {
		n, err := strconv.Atoi(d)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "days must be a positive integer"})
			return
		}
		days = n
	}
	views, email := s.viewsFor(r)
	view, err := views.Activity(r.Context(), email, days)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleAnomaly(w http.ResponseWriter, r *http.Request) {
	views, email := s.viewsFor(r)
	view, err := views.Anomaly(r.Context(), email, r.URL.Query().Get("date"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func periodQuery(r *http.Request, email string) dashboard.Query {
	q := r.URL.Query()
	return dashboard.Query{
		Email:  email,
		Period: q.Get("period"),
		Date:   q.Get("date"),
	}
}

// writeError maps view errors to status codes. Unexpected errors are logged and
// reported as 500.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, dashboard.ErrInvalid):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, dashboard.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	default:
		s.log.Error("request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
