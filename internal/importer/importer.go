package importer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/claude/pulseboard/internal/ingest"
	"github.com/claude/pulseboard/internal/storage"
)

// Store is the persistence the importer writes to. *storage.DB implements it.
type Store interface {
	ingest.Store
	GetOrCreateUser(ctx context.Context, email string) (int, error)
	InsertImportLog(ctx context.Context, log storage.ImportLog) (int64, error)
	UpdateImportLog(ctx context.Context, id int64, log storage.ImportLog) error
}

// Stats tracks import progress.
type Stats struct {
	FilesProcessed int
	FilesSkipped   int
	FilesErrored   int

	PointsInserted   int64
	PointsDuplicated int64
	PointsDropped    int
	SleepInserted    int64
	AnomalyReports   int

	RejectedMetrics []string
}

// Options configure an Importer.
type Options struct {
	// Email is used for files that carry no user_email.
	Email    string
	Location *time.Location
	DryRun   bool
}

// Importer reads payload export files from a directory and stores them.
type Importer struct {
	store    Store
	provider *ingest.Provider
	opts     Options
	log      *slog.Logger
	stats    Stats
	rejected map[string]bool
}

// New creates a new Importer.
func New(store Store, opts Options, log *slog.Logger) *Importer {
	return &Importer{
		store:    store,
		provider: ingest.NewProvider(store, opts.Location, log),
		opts:     opts,
		log:      log,
		rejected: map[string]bool{},
	}
}

// Import processes every .json and .json.gz file under dir in name order. A file
// that cannot be read or decoded is counted and skipped; a storage failure stops
// the import.
func (imp *Importer) Import(ctx context.Context, dir string) (*Stats, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && ingest.IsExportFile(d.Name()) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return &imp.stats, fmt.Errorf("walking %s: %w", dir, err)
	}
	slices.Sort(files)

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return &imp.stats, err
		}
		if err := imp.importFile(ctx, path); err != nil {
			return &imp.stats, fmt.Errorf("importing %s: %w", filepath.Base(path), err)
		}
	}
	return &imp.stats, nil
}

func (imp *Importer) importFile(ctx context.Context, path string) error {
	data, err := ingest.ReadExportFile(path)
	if err != nil {
		imp.log.Warn("read failed", "file", path, "error", err)
		imp.stats.FilesErrored++
		return nil
	}
	file, err := ingest.DecodeExport(data)
	if err != nil {
		imp.log.Warn("parse failed", "file", path, "error", err)
		imp.stats.FilesErrored++
		return nil
	}
	imp.stats.PointsDropped += file.Skipped

	switch file.Kind {
	case ingest.ExportAnomaly:
		return imp.importAnomaly(ctx, path, file)
	default:
		return imp.importMetrics(ctx, path, file)
	}
}

func (imp *Importer) userID(ctx context.Context, email string) (int, bool, error) {
	if strings.TrimSpace(email) == "" {
		email = imp.opts.Email
	}
	if strings.TrimSpace(email) == "" {
		return 0, false, nil
	}
	if imp.opts.DryRun {
		return 0, true, nil
	}
	id, err := imp.store.GetOrCreateUser(ctx, email)
	if err != nil {
		return 0, false, fmt.Errorf("resolving user: %w", err)
	}
	return id, true, nil
}

func (imp *Importer) importMetrics(ctx context.Context, path string, file *ingest.ExportFile) error {
	payload := file.Metrics
	uid, ok, err := imp.userID(ctx, payload.UserEmail)
	if err != nil {
		return err
	}
	if !ok {
		imp.log.Warn("skipping file without user_email", "file", path)
		imp.stats.FilesSkipped++
		return nil
	}

	if imp.opts.DryRun {
		batch, result := ingest.ConvertPayload(payload, uid, imp.opts.Location)
		imp.stats.FilesProcessed++
		imp.stats.PointsInserted += int64(len(batch.Metrics))
		imp.stats.SleepInserted += int64(len(batch.Sleep))
		imp.stats.PointsDropped += result.PointsDropped
		imp.reject(result.RejectedNames)
		return nil
	}

	start := time.Now()
	logID := imp.startImportLog(uid)
	result, err := imp.provider.Ingest(ctx, payload, uid)
	imp.finishImportLog(logID, uid, result, err, start)
	if err != nil {
		return err
	}

	imp.stats.FilesProcessed++
	imp.stats.PointsInserted += result.PointsInserted
	imp.stats.PointsDuplicated += result.PointsSkipped
	imp.stats.PointsDropped += result.PointsDropped
	imp.stats.SleepInserted += result.SleepInserted
	imp.reject(result.RejectedNames)
	return nil
}

func (imp *Importer) importAnomaly(ctx context.Context, path string, file *ingest.ExportFile) error {
	payload := file.Anomaly
	uid, ok, err := imp.userID(ctx, payload.UserEmail)
	if err != nil {
		return err
	}
	if !ok {
		imp.log.Warn("skipping file without user_email", "file", path)
		imp.stats.FilesSkipped++
		return nil
	}

	if imp.opts.DryRun {
		if _, _, err := ingest.ConvertAnomalyReport(payload, uid, imp.opts.Location); err != nil {
			imp.log.Warn("invalid anomaly report", "file", path, "error", err)
			imp.stats.FilesErrored++
			return nil
		}
		imp.stats.FilesProcessed++
		imp.stats.AnomalyReports++
		return nil
	}

	res, err := imp.provider.IngestAnomaly(ctx, payload, uid)
	if errors.Is(err, ingest.ErrInvalidPayload) {
		imp.log.Warn("invalid anomaly report", "file", path, "error", err)
		imp.stats.FilesErrored++
		return nil
	}
	if err != nil {
		return err
	}
	imp.log.Info("anomaly report stored", "file", path, "date", res.Date, "windows", res.SeriesStored)
	imp.stats.FilesProcessed++
	imp.stats.AnomalyReports++
	return nil
}

func (imp *Importer) reject(names []string) {
	for _, name := range names {
		if !imp.rejected[name] {
			imp.rejected[name] = true
			imp.stats.RejectedMetrics = append(imp.stats.RejectedMetrics, name)
		}
	}
}

// startImportLog records a running import and returns its log ID, or 0 when the
// entry could not be written.
func (imp *Importer) startImportLog(uid int) int64 {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	id, err := imp.store.InsertImportLog(ctx, storage.ImportLog{UserID: uid, Source: "file", Status: "running"})
	if err != nil {
		imp.log.Error("failed to log import", "error", err)
		return 0
	}
	return id
}

// finishImportLog moves the log entry from "running" to its final status.
func (imp *Importer) finishImportLog(id int64, uid int, result *ingest.Result, importErr error, start time.Time) {
	if id == 0 {
		return
	}
	if result == nil {
		result = &ingest.Result{}
	}
	durationMs := int(time.Since(start).Milliseconds())
	entry := storage.ImportLog{
		UserID:         uid,
		Source:         "file",
		Status:         "success",
		PointsReceived: result.PointsReceived,
		PointsInserted: result.PointsInserted,
		PointsDropped:  result.PointsDropped,
		SleepSessions:  int(result.SleepInserted),
		DurationMs:     &durationMs,
	}
	if importErr != nil {
		entry.Status = "error"
		msg := importErr.Error()
		entry.ErrorMessage = &msg
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := imp.store.UpdateImportLog(ctx, id, entry); err != nil {
		imp.log.Error("failed to update import log", "id", id, "error", err)
	}
}
