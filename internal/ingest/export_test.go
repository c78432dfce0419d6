package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
)

const anomalyExport = `{"user_email": "ada@example.com", "date": "2024-01-10", "series": [
	{"timestamp": "2024-01-10T03:00:00Z", "is_anomaly": 0},
	{"timestamp": "2024-01-10T03:05:00Z", "is_anomaly": 1}
]}`

const metricsExport = `{"user_email": "ada@example.com", "metrics": {"heart_rate": [{"timestamp": "2024-01-10T03:30:00Z", "value": 70}]}}`

const haeExport = `{"data": {"metrics": [{"name": "step_count", "units": "count", "data": [
	{"date": "2024-01-10 09:00:00 +0530", "qty": 420},
	{"qty": 7}
]}]}}`

// TestIsExportFile verifies the accepted file name suffixes.
func TestIsExportFile(t *testing.T) {
	for name, want := range map[string]bool{
		"day.json":    true,
		"day.JSON":    true,
		"day.json.gz": true,
		"day.gz":      false,
		"day.txt":     false,
	} {
		if got := IsExportFile(name); got != want {
			t.Errorf("IsExportFile(%q) = %v, want %v", name, got, want)
		}
	}
}

// TestDecodeExportKinds verifies a series array marks an anomaly report and a data
// object marks a Health Auto Export file.
func TestDecodeExportKinds(t *testing.T) {
	f, err := DecodeExport([]byte(anomalyExport))
	if err != nil || f.Kind != ExportAnomaly || len(f.Anomaly.Series) != 2 {
		t.Fatalf("anomaly decode = %+v, %v", f, err)
	}
	f, err = DecodeExport([]byte(metricsExport))
	if err != nil || f.Kind != ExportMetrics || len(f.Metrics.Metrics["heart_rate"]) != 1 {
		t.Fatalf("metrics decode = %+v, %v", f, err)
	}
	f, err = DecodeExport([]byte(`{"user_email": "a@b.c", "series": null}`))
	if err != nil || f.Kind != ExportMetrics {
		t.Errorf("null series decode = %+v, %v", f, err)
	}
	f, err = DecodeExport([]byte(haeExport))
	if err != nil || f.Kind != ExportMetrics {
		t.Fatalf("hae decode = %+v, %v", f, err)
	}
	if len(f.Metrics.Metrics["steps"]) != 1 || f.Skipped != 1 {
		t.Errorf("hae decode: steps = %v, skipped = %d", f.Metrics.Metrics["steps"], f.Skipped)
	}
	if _, err := DecodeExport([]byte("[1,2]")); err == nil {
		t.Error("expected error for a JSON array")
	}
}

// TestReadExportFileGzip verifies .gz files are inflated and plain files read as-is.
func TestReadExportFileGzip(t *testing.T) {
	dir := t.TempDir()

	plain := filepath.Join(dir, "day.json")
	if err := os.WriteFile(plain, []byte(metricsExport), 0o644); err != nil {
		t.Fatal(err)
	}
	zipped := filepath.Join(dir, "day.json.gz")
	f, err := os.Create(zipped)
	if err != nil {
		t.Fatal(err)
	}
	zw := gzip.NewWriter(f)
	if _, err := zw.Write([]byte(metricsExport)); err != nil {
		t.Fatal(err)
	}
	zw.Close()
	f.Close()

	for _, path := range []string{plain, zipped} {
		data, err := ReadExportFile(path)
		if err != nil {
			t.Fatalf("%s: %v", path, err)
		}
		if string(data) != metricsExport {
			t.Errorf("%s: content = %q", path, data)
		}
	}

	if _, err := ReadExportFile(filepath.Join(dir, "missing.json.gz")); err == nil {
		t.Error("expected error for a missing file")
	}
}
