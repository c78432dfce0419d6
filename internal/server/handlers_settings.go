package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/claude/pulseboard/internal/ingest"
	"github.com/claude/pulseboard/internal/metrics"
	"github.com/claude/pulseboard/internal/models"
	"github.com/claude/pulseboard/internal/storage"
	"github.com/go-chi/chi/v5"
)

// storeUserID resolves the email of a request against the store. Demo mode does
// not apply to these endpoints.
func (s *Server) storeUserID(w http.ResponseWriter, r *http.Request) (int, bool) {
	email := s.requestEmail(r)
	if email == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "email parameter required"})
		return 0, false
	}
	uid, err := s.store.UserIDByEmail(r.Context(), email)
	if errors.Is(err, models.ErrUserNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "user not found"})
		return 0, false
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return 0, false
	}
	return uid, true
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.storeUserID(w, r)
	if !ok {
		return
	}
	stats, err := s.store.GetDataStats(r.Context(), uid)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleImportLogs(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.storeUserID(w, r)
	if !ok {
		return
	}
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	logs, err := s.store.QueryImportLogs(r.Context(), uid, limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

// handleLatestMetrics returns the most recent stored reading of each metric.
func (s *Server) handleLatestMetrics(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.storeUserID(w, r)
	if !ok {
		return
	}
	rows, err := s.store.GetLatestMetrics(r.Context(), uid)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if rows == nil {
		rows = []models.HealthMetricRow{}
	}
	writeJSON(w, http.StatusOK, rows)
}

// handleRawMetrics returns stored rows of one metric over a date range.
func (s *Server) handleRawMetrics(w http.ResponseWriter, r *http.Request) {
	kind, ok := metrics.ParseKind(chi.URLParam(r, "metric"))
	if !ok || kind == metrics.KindSleep {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown metric"})
		return
	}
	uid, ok := s.storeUserID(w, r)
	if !ok {
		return
	}
	start, end, err := parseDateRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	rows, err := s.store.QueryHealthMetrics(r.Context(), string(kind), start, end, uid)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if rows == nil {
		rows = []models.HealthMetricRow{}
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleSleepSummary(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.storeUserID(w, r)
	if !ok {
		return
	}
	start, end, err := parseDateRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	bucket := r.URL.Query().Get("bucket")
	periods, err := s.store.GetSleepSummary(r.Context(), start, end, bucket, uid, s.dash.Location())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, periods)
}

// parseDateRange reads start/end as YYYY-MM-DD; end is inclusive. Missing start
// means the last 30 days.
func parseDateRange(r *http.Request) (start, end time.Time, err error) {
	startStr := r.URL.Query().Get("start")
	endStr := r.URL.Query().Get("end")

	end = time.Now().UTC().Truncate(24*time.Hour).AddDate(0, 0, 1)
	if endStr != "" {
		end, err = time.Parse(time.DateOnly, endStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		end = end.AddDate(0, 0, 1)
	}

	if startStr == "" {
		return end.AddDate(0, 0, -30), end, nil
	}
	start, err = time.Parse(time.DateOnly, startStr)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

// logImport records an import operation's result to the import_logs table.
func (s *Server) logImport(uid int, source string, result *ingest.Result, importErr error, durationMs int) {
	status := "success"
	var errMsg *string
	if importErr != nil {
		status = "error"
		msg := importErr.Error()
		errMsg = &msg
	}
	if result == nil {
		result = &ingest.Result{}
	}

	log := storage.ImportLog{
		UserID:         uid,
		Source:         source,
		Status:         status,
		PointsReceived: result.PointsReceived,
		PointsInserted: result.PointsInserted,
		PointsDropped:  result.PointsDropped,
		SleepSessions:  int(result.SleepInserted),
		DurationMs:     &durationMs,
		ErrorMessage:   errMsg,
	}

	ctx, cancel := contextWithTimeout()
	defer cancel()

	if _, err := s.store.InsertImportLog(ctx, log); err != nil {
		s.log.Error("failed to log import", "source", source, "error", err)
	}
}

// contextWithTimeout returns a background context with a 5-second timeout for async logging.
func contextWithTimeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second) //nolint:mnd
}
