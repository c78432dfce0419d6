package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/claude/pulseboard/internal/models"
	"github.com/jackc/pgx/v5"
)

// maxRowsPerInsert keeps each statement under the 65535 bind parameter limit.
const maxRowsPerInsert = 5000

// InsertHealthMetrics batch-inserts health metric rows. Returns the number actually inserted
// (skipped duplicates via ON CONFLICT DO NOTHING).
func (db *DB) InsertHealthMetrics(ctx context.Context, rows []models.HealthMetricRow) (int64, error) {
	var total int64
	for start := 0; start < len(rows); start += maxRowsPerInsert {
		end := min(start+maxRowsPerInsert, len(rows))
		n, err := db.insertHealthMetricsBatch(ctx, rows[start:end])
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

func (db *DB) insertHealthMetricsBatch(ctx context.Context, rows []models.HealthMetricRow) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	query := `INSERT INTO health_metrics (time, user_id, metric_name, value, systolic, diastolic, activity_type)
VALUES `
	args := make([]any, 0, len(rows)*7)
	valueStrings := make([]string, 0, len(rows))

	for i, r := range rows {
		base := i * 7
		valueStrings = append(valueStrings, fmt.Sprintf(
			"($%d,$%d,$%d,$%d,$%d,$%d,$%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7,
		))
		args = append(args, r.Time, r.UserID, r.MetricName, r.Value, r.Systolic, r.Diastolic, r.ActivityType)
	}

	query += strings.Join(valueStrings, ",") + " ON CONFLICT DO NOTHING"

	tag, err := db.Pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("inserting health metrics: %w", err)
	}
	return tag.RowsAffected(), nil
}

// QueryHealthMetrics retrieves one metric's readings in [start, end).
func (db *DB) QueryHealthMetrics(ctx context.Context, metricName string, start, end time.Time, userID int) ([]models.HealthMetricRow, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT time, user_id, metric_name, value, systolic, diastolic, activity_type
		 FROM health_metrics
		 WHERE metric_name = $1 AND time >= $2 AND time < $3 AND user_id = $4
		 ORDER BY time ASC`,
		metricName, start, end, userID)
	if err != nil {
		return nil, fmt.Errorf("querying health metrics: %w", err)
	}
	defer rows.Close()

	return scanHealthMetricRows(rows)
}

// QueryMetricsRange retrieves every metric's readings in [start, end).
func (db *DB) QueryMetricsRange(ctx context.Context, start, end time.Time, userID int) ([]models.HealthMetricRow, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT time, user_id, metric_name, value, systolic, diastolic, activity_type
		 FROM health_metrics
		 WHERE time >= $1 AND time < $2 AND user_id = $3
		 ORDER BY metric_name, time ASC`,
		start, end, userID)
	if err != nil {
		return nil, fmt.Errorf("querying metrics range: %w", err)
	}
	defer rows.Close()

	return scanHealthMetricRows(rows)
}

// QueryActivity retrieves readings in [start, end) that carry an activity tag.
func (db *DB) QueryActivity(ctx context.Context, start, end time.Time, userID int) ([]models.HealthMetricRow, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT time, user_id, metric_name, value, systolic, diastolic, activity_type
		 FROM health_metrics
		 WHERE activity_type <> '' AND time >= $1 AND time < $2 AND user_id = $3
		 ORDER BY time ASC`,
		start, end, userID)
	if err != nil {
		return nil, fmt.Errorf("querying activity: %w", err)
	}
	defer rows.Close()

	return scanHealthMetricRows(rows)
}

// GetLatestMetrics returns the most recent data point for each metric.
func (db *DB) GetLatestMetrics(ctx context.Context, userID int) ([]models.HealthMetricRow, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT DISTINCT ON (metric_name) time, user_id, metric_name, value, systolic, diastolic, activity_type
		 FROM health_metrics
		 WHERE user_id = $1
		 ORDER BY metric_name, time DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("querying latest metrics: %w", err)
	}
	defer rows.Close()

	return scanHealthMetricRows(rows)
}

func scanHealthMetricRows(rows pgx.Rows) ([]models.HealthMetricRow, error) {
	var result []models.HealthMetricRow
	for rows.Next() {
		var r models.HealthMetricRow
		if err := rows.Scan(&r.Time, &r.UserID, &r.MetricName,
			&r.Value, &r.Systolic, &r.Diastolic, &r.ActivityType); err != nil {
			return nil, fmt.Errorf("scanning health metric row: %w", err)
		}
		result = append(result, r)
	}
	return result, rows.Err()
}
