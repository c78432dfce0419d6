package ingest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/claude/pulseboard/internal/ingest/hae"
	"github.com/claude/pulseboard/internal/models"
	"github.com/klauspost/compress/gzip"
)

// Export file kinds.
const (
	ExportMetrics = "metrics"
	ExportAnomaly = "anomaly"
)

// ExportFile is one decoded export file. Exactly one of Metrics and Anomaly is set.
type ExportFile struct {
	Kind    string
	Metrics *models.IngestPayload
	Anomaly *models.AnomalyReportPayload
	// Skipped counts Health Auto Export points that could not be converted.
	Skipped int
}

// IsExportFile reports whether the name looks like a payload export.
func IsExportFile(name string) bool {
	name = strings.ToLower(name)
	return strings.HasSuffix(name, ".json") || strings.HasSuffix(name, ".json.gz")
}

// ReadExportFile reads an export file, inflating it when the name ends in .gz.
func ReadExportFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(strings.ToLower(path), ".gz") {
		zr, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("gzip %s: %w", path, err)
		}
		defer zr.Close()
		r = zr
	}
	return io.ReadAll(r)
}

// DecodeExport tells the payload shapes apart: anomaly reports carry a "series"
// array, Health Auto Export files a "data" object, and anything else is read as a
// metric payload.
func DecodeExport(data []byte) (*ExportFile, error) {
	var head struct {
		Series json.RawMessage `json:"series"`
		Data   json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	if present(head.Data) {
		var p hae.Payload
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("invalid Health Auto Export file: %w", err)
		}
		payload, skipped := hae.Convert(&p, "")
		return &ExportFile{Kind: ExportMetrics, Metrics: payload, Skipped: skipped}, nil
	}

	if present(head.Series) {
		var p models.AnomalyReportPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("invalid anomaly report: %w", err)
		}
		return &ExportFile{Kind: ExportAnomaly, Anomaly: &p}, nil
	}

	var p models.IngestPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("invalid payload: %w", err)
	}
	return &ExportFile{Kind: ExportMetrics, Metrics: &p}, nil
}

func present(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && !bytes.Equal(raw, []byte("null"))
}
