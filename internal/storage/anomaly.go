package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/claude/pulseboard/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// SaveAnomalyReport stores a daily anomaly report and its series, replacing any
// report already stored for the same user and date.
func (db *DB) SaveAnomalyReport(ctx context.Context, report models.AnomalyReportRow) (uuid.UUID, error) {
	if report.ID == uuid.Nil {
		report.ID = uuid.New()
	}

	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return uuid.Nil, fmt.Errorf("beginning anomaly tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx,
		`DELETE FROM anomaly_reports WHERE user_id = $1 AND date = $2`,
		report.UserID, report.Date); err != nil {
		return uuid.Nil, fmt.Errorf("deleting previous anomaly report: %w", err)
	}

	contributors := report.TopContributors
	if contributors == nil {
		contributors = []string{}
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO anomaly_reports (id, user_id, date, status, total_records, anomalies,
		 percent_anomalies, data_confidence, top_contributors, note)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		report.ID, report.UserID, report.Date, report.Status, report.TotalRecords, report.Anomalies,
		report.PercentAnomalies, report.DataConfidence, contributors, report.Note); err != nil {
		return uuid.Nil, fmt.Errorf("inserting anomaly report: %w", err)
	}

	if len(report.Series) > 0 {
		_, err := tx.CopyFrom(ctx,
			pgx.Identifier{"anomaly_points"},
			[]string{"report_id", "time", "is_anomaly", "heart_rate", "spo2", "systolic_bp", "diastolic_bp"},
			pgx.CopyFromSlice(len(report.Series), func(i int) ([]any, error) {
				p := report.Series[i]
				return []any{report.ID, p.Time, p.IsAnomaly, p.HeartRate, p.SpO2, p.SystolicBP, p.DiastolicBP}, nil
			}),
		)
		if err != nil {
			return uuid.Nil, fmt.Errorf("copying anomaly points: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return uuid.Nil, fmt.Errorf("committing anomaly report: %w", err)
	}
	return report.ID, nil
}

// GetAnomalyReport returns the report stored for a user and calendar date, or nil
// when there is none.
func (db *DB) GetAnomalyReport(ctx context.Context, userID int, date time.Time) (*models.AnomalyReportRow, error) {
	var r models.AnomalyReportRow
	err := db.Pool.QueryRow(ctx,
		`SELECT id, user_id, date, status, total_records, anomalies, percent_anomalies,
		 data_confidence, top_contributors, note, created_at
		 FROM anomaly_reports
		 WHERE user_id = $1 AND date = $2`,
		userID, date).Scan(&r.ID, &r.UserID, &r.Date, &r.Status, &r.TotalRecords, &r.Anomalies,
		&r.PercentAnomalies, &r.DataConfidence, &r.TopContributors, &r.Note, &r.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying anomaly report: %w", err)
	}

	rows, err := db.Pool.Query(ctx,
		`SELECT time, is_anomaly, heart_rate, spo2, systolic_bp, diastolic_bp
		 FROM anomaly_points
		 WHERE report_id = $1
		 ORDER BY time ASC`, r.ID)
	if err != nil {
		return nil, fmt.Errorf("querying anomaly points: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p models.AnomalyPointRow
		if err := rows.Scan(&p.Time, &p.IsAnomaly, &p.HeartRate, &p.SpO2, &p.SystolicBP, &p.DiastolicBP); err != nil {
			return nil, fmt.Errorf("scanning anomaly point: %w", err)
		}
		r.Series = append(r.Series, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &r, nil
}
