package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/claude/pulseboard/internal/ingest"
	"github.com/claude/pulseboard/internal/ingest/hae"
	"github.com/claude/pulseboard/internal/models"
	"github.com/klauspost/compress/gzip"
)

// maxIngestBody caps ingest request bodies after decompression.
const maxIngestBody = 64 << 20

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var payload models.IngestPayload
	if err := decodeBody(w, r, &payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if strings.TrimSpace(payload.UserEmail) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "user_email is required"})
		return
	}

	s.storePayload(w, r, &payload, "api", 0)
}

// handleHAEIngest accepts a Health Auto Export REST payload. The app cannot put
// the user in the body, so the email comes from ?email= or X-User-Email.
func (s *Server) handleHAEIngest(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		email = r.Header.Get("X-User-Email")
	}
	if strings.TrimSpace(email) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "email query parameter or X-User-Email header is required"})
		return
	}

	var export hae.Payload
	if err := decodeBody(w, r, &export); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	payload, skipped := hae.Convert(&export, email)
	s.storePayload(w, r, payload, "hae", skipped)
}

// storePayload ingests a metric payload for its user and logs the import.
// skipped is added to the points dropped before conversion.
func (s *Server) storePayload(w http.ResponseWriter, r *http.Request, payload *models.IngestPayload, source string, skipped int) {
	uid, err := s.store.GetOrCreateUser(r.Context(), payload.UserEmail)
	if err != nil {
		s.log.Error("user lookup failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	start := time.Now()
	result, err := s.ingest.Ingest(r.Context(), payload, uid)
	if result != nil {
		result.PointsDropped += skipped
	}
	s.logImport(uid, source, result, err, int(time.Since(start).Milliseconds()))
	if err != nil {
		s.log.Error("ingest error", "source", source, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleAnomalyIngest(w http.ResponseWriter, r *http.Request) {
	var payload models.AnomalyReportPayload
	if err := decodeBody(w, r, &payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if strings.TrimSpace(payload.UserEmail) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "user_email is required"})
		return
	}

	uid, err := s.store.GetOrCreateUser(r.Context(), payload.UserEmail)
	if err != nil {
		s.log.Error("user lookup failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	result, err := s.ingest.IngestAnomaly(r.Context(), &payload, uid)
	if errors.Is(err, ingest.ErrInvalidPayload) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err != nil {
		s.log.Error("anomaly ingest error", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// decodeBody reads a JSON body, inflating it first when sent with
// Content-Encoding: gzip.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	var body io.Reader = r.Body
	if strings.EqualFold(r.Header.Get("Content-Encoding"), "gzip") {
		zr, err := gzip.NewReader(r.Body)
		if err != nil {
			return fmt.Errorf("invalid gzip body: %w", err)
		}
		defer zr.Close()
		body = zr
	}
	body = http.MaxBytesReader(w, io.NopCloser(body), maxIngestBody)

	if err := json.NewDecoder(body).Decode(v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}
