package upload

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/claude/pulseboard/internal/ingest"
	"github.com/claude/pulseboard/internal/models"
)

// Stats tracks upload progress.
type Stats struct {
	FilesTotal    int
	FilesUploaded int
	FilesSkipped  int
	FilesErrored  int

	Requests        int
	PointsSent      int
	PointsInserted  int64
	SleepSent       int
	AnomalyReports  int
	RejectedMetrics []string
}

// Options configure an Uploader.
type Options struct {
	// Email fills payloads that carry no user_email.
	Email string
	// BatchSize caps the metric points per request. Zero sends each file whole.
	BatchSize int
	DryRun    bool
}

// Sender delivers payloads to the server. *Client implements it.
type Sender interface {
	SendMetrics(ctx context.Context, payload []byte) (*ingest.Result, error)
	SendAnomaly(ctx context.Context, payload []byte) (*ingest.AnomalyResult, error)
}

// Uploader walks a directory of export files and sends the new ones to the server.
type Uploader struct {
	sender   Sender
	state    *StateDB
	dir      string
	opts     Options
	log      *slog.Logger
	stats    Stats
	rejected map[string]bool
}

// New creates a new Uploader. sender may be nil in dry-run mode.
func New(sender Sender, state *StateDB, dir string, opts Options, log *slog.Logger) *Uploader {
	return &Uploader{
		sender:   sender,
		state:    state,
		dir:      dir,
		opts:     opts,
		log:      log,
		rejected: map[string]bool{},
	}
}

// Run uploads every export file not yet accepted by the server. Per-file failures
// are counted and logged; the run continues with the next file.
func (u *Uploader) Run(ctx context.Context) (*Stats, error) {
	var files []string
	err := filepath.WalkDir(u.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && ingest.IsExportFile(d.Name()) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return &u.stats, fmt.Errorf("walking %s: %w", u.dir, err)
	}
	slices.Sort(files)

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return &u.stats, err
		}
		u.stats.FilesTotal++
		if err := u.processFile(ctx, f); err != nil {
			u.log.Warn("upload failed", "file", f, "error", err)
			u.stats.FilesErrored++
		}
	}
	return &u.stats, nil
}

// fileInfo tracks a file's metadata for state DB operations.
type fileInfo struct {
	relPath string
	size    int64
	hash    string
}

func (u *Uploader) processFile(ctx context.Context, path string) error {
	relPath, err := filepath.Rel(u.dir, path)
	if err != nil {
		relPath = path
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat: %w", err)
	}
	hash, err := HashFile(path)
	if err != nil {
		return fmt.Errorf("hash: %w", err)
	}
	fi := fileInfo{relPath: relPath, size: info.Size(), hash: hash}

	uploaded, err := u.state.IsUploaded(ctx, fi.relPath, fi.size, fi.hash)
	if err != nil {
		return fmt.Errorf("state check: %w", err)
	}
	if uploaded {
		u.stats.FilesSkipped++
		return nil
	}

	data, err := ingest.ReadExportFile(path)
	if err != nil {
		return err
	}
	file, err := ingest.DecodeExport(data)
	if err != nil {
		return err
	}

	switch file.Kind {
	case ingest.ExportAnomaly:
		err = u.sendAnomaly(ctx, file.Anomaly)
	default:
		err = u.sendMetrics(ctx, file.Metrics)
	}
	if err != nil {
		return err
	}

	u.stats.FilesUploaded++
	if u.opts.DryRun {
		return nil
	}
	return u.state.MarkUploaded(ctx, fi.relPath, file.Kind, fi.size, fi.hash)
}

func (u *Uploader) sendMetrics(ctx context.Context, payload *models.IngestPayload) error {
	if strings.TrimSpace(payload.UserEmail) == "" {
		if u.opts.Email == "" {
			return fmt.Errorf("payload has no user_email and no default email is set")
		}
		payload.UserEmail = u.opts.Email
	}

	for _, part := range SplitPayload(payload, u.opts.BatchSize) {
		points := 0
		for _, pts := range part.Metrics {
			points += len(pts)
		}
		u.stats.PointsSent += points
		u.stats.SleepSent += len(part.SleepSessions)
		if u.opts.DryRun {
			continue
		}

		body, err := json.Marshal(part)
		if err != nil {
			return fmt.Errorf("marshaling payload: %w", err)
		}
		u.stats.Requests++
		res, err := u.sender.SendMetrics(ctx, body)
		if err != nil {
			return err
		}
		u.stats.PointsInserted += res.PointsInserted
		for _, name := range res.RejectedNames {
			if !u.rejected[name] {
				u.rejected[name] = true
				u.stats.RejectedMetrics = append(u.stats.RejectedMetrics, name)
			}
		}
	}
	return nil
}

func (u *Uploader) sendAnomaly(ctx context.Context, payload *models.AnomalyReportPayload) error {
	if strings.TrimSpace(payload.UserEmail) == "" {
		if u.opts.Email == "" {
			return fmt.Errorf("anomaly report has no user_email and no default email is set")
		}
		payload.UserEmail = u.opts.Email
	}
	u.stats.AnomalyReports++
	if u.opts.DryRun {
		return nil
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling anomaly report: %w", err)
	}
	u.stats.Requests++
	res, err := u.sender.SendAnomaly(ctx, body)
	if err != nil {
		return err
	}
	u.log.Info("anomaly report accepted", "date", res.Date, "windows", res.SeriesStored)
	return nil
}

// SplitPayload breaks a payload into parts of at most batchSize metric points,
// walking metrics in name order. Sleep sessions travel with the first part.
// batchSize <= 0 returns the payload unchanged.
func SplitPayload(p *models.IngestPayload, batchSize int) []*models.IngestPayload {
	if batchSize <= 0 {
		return []*models.IngestPayload{p}
	}

	names := make([]string, 0, len(p.Metrics))
	for name := range p.Metrics {
		names = append(names, name)
	}
	slices.Sort(names)

	newPart := func() *models.IngestPayload {
		return &models.IngestPayload{
			UserEmail:    p.UserEmail,
			ActivityType: p.ActivityType,
			Metrics:      map[string][]models.RawPoint{},
		}
	}

	parts := []*models.IngestPayload{newPart()}
	parts[0].SleepSessions = p.SleepSessions
	room := batchSize
	for _, name := range names {
		points := p.Metrics[name]
		for len(points) > 0 {
			if room == 0 {
				parts = append(parts, newPart())
				room = batchSize
			}
			n := min(room, len(points))
			cur := parts[len(parts)-1]
			cur.Metrics[name] = append(cur.Metrics[name], points[:n]...)
			points = points[n:]
			room -= n
		}
	}
	return parts
}
