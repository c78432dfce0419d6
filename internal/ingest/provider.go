package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/claude/pulseboard/internal/models"
	"github.com/google/uuid"
)

// Result holds the outcome of an ingest operation.
type Result struct {
	PointsReceived int      `json:"points_received"`
	PointsInserted int64    `json:"points_inserted"`
	PointsSkipped  int64    `json:"points_skipped"`
	PointsDropped  int      `json:"points_dropped"`
	RejectedNames  []string `json:"rejected_names,omitempty"`

	SleepReceived int   `json:"sleep_sessions_received"`
	SleepInserted int64 `json:"sleep_sessions_inserted"`
	SleepDropped  int   `json:"sleep_sessions_dropped"`

	Message string `json:"message,omitempty"`
}

// AnomalyResult holds the outcome of storing an anomaly report.
type AnomalyResult struct {
	ReportID      uuid.UUID `json:"report_id"`
	Date          string    `json:"date"`
	SeriesStored  int       `json:"series_stored"`
	SeriesDropped int       `json:"series_dropped"`
}

// Store is the persistence the provider writes to.
type Store interface {
	InsertHealthMetrics(ctx context.Context, rows []models.HealthMetricRow) (int64, error)
	InsertSleepSessions(ctx context.Context, rows []models.SleepSessionRow) (int64, error)
	SaveAnomalyReport(ctx context.Context, report models.AnomalyReportRow) (uuid.UUID, error)
}

// Provider converts ingest payloads and stores the accepted data.
type Provider struct {
	store Store
	loc   *time.Location
	log   *slog.Logger
}

// NewProvider creates a new ingest provider. loc decides the calendar day of sleep
// sessions and anomaly reports that arrive without one.
func NewProvider(store Store, loc *time.Location, log *slog.Logger) *Provider {
	if loc == nil {
		loc = time.UTC
	}
	return &Provider{store: store, loc: loc, log: log}
}

// Ingest processes a payload for one user and stores accepted data.
func (p *Provider) Ingest(ctx context.Context, payload *models.IngestPayload, userID int) (*Result, error) {
	batch, result := ConvertPayload(payload, userID, p.loc)

	if result.PointsDropped > 0 {
		p.log.Warn("dropped unparseable points", "user_id", userID, "count", result.PointsDropped)
	}

	if len(batch.Metrics) > 0 {
		inserted, err := p.store.InsertHealthMetrics(ctx, batch.Metrics)
		if err != nil {
			return result, fmt.Errorf("inserting health metrics: %w", err)
		}
		result.PointsInserted = inserted
		result.PointsSkipped = int64(len(batch.Metrics)) - inserted
	}

	if len(batch.Sleep) > 0 {
		inserted, err := p.store.InsertSleepSessions(ctx, batch.Sleep)
		if err != nil {
			return result, fmt.Errorf("inserting sleep sessions: %w", err)
		}
		result.SleepInserted = inserted
	}

	if len(result.RejectedNames) > 0 {
		result.Message = fmt.Sprintf(
			"Some metrics were rejected because they are not dashboard metrics: %v. "+
				"Accepted metrics are stored.", result.RejectedNames)
	}

	return result, nil
}

// IngestAnomaly stores a daily anomaly report, replacing any earlier one for the day.
func (p *Provider) IngestAnomaly(ctx context.Context, payload *models.AnomalyReportPayload, userID int) (*AnomalyResult, error) {
	row, dropped, err := ConvertAnomalyReport(payload, userID, p.loc)
	if err != nil {
		return nil, err
	}
	id, err := p.store.SaveAnomalyReport(ctx, row)
	if err != nil {
		return nil, fmt.Errorf("saving anomaly report: %w", err)
	}
	if dropped > 0 {
		p.log.Warn("dropped anomaly windows", "user_id", userID, "count", dropped)
	}
	return &AnomalyResult{
		ReportID:      id,
		Date:          row.Date.Format(time.DateOnly),
		SeriesStored:  len(row.Series),
		SeriesDropped: dropped,
	}, nil
}
