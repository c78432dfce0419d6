package storage

import (
	"context"
	"fmt"
	"time"
)

// DataStats holds aggregate statistics about a user's stored data.
type DataStats struct {
	TotalMetricRows  int64        `json:"total_metric_rows"`
	TotalSleepNights int64        `json:"total_sleep_sessions"`
	TotalAnomalyDays int64        `json:"total_anomaly_reports"`
	EarliestData     *time.Time   `json:"earliest_data"`
	LatestData       *time.Time   `json:"latest_data"`
	MetricsByName    []MetricStat `json:"metrics_by_name"`
}

// MetricStat holds the row count for a single metric.
type MetricStat struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// GetDataStats returns aggregate statistics for a user's stored data.
func (db *DB) GetDataStats(ctx context.Context, userID int) (*DataStats, error) {
	stats := &DataStats{}

	err := db.Pool.QueryRow(ctx,
		`SELECT COUNT(*), MIN(time), MAX(time) FROM health_metrics WHERE user_id = $1`, userID,
	).Scan(&stats.TotalMetricRows, &stats.EarliestData, &stats.LatestData)
	if err != nil {
		return nil, fmt.Errorf("counting metrics: %w", err)
	}

	err = db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM sleep_sessions WHERE user_id = $1`, userID,
	).Scan(&stats.TotalSleepNights)
	if err != nil {
		return nil, fmt.Errorf("counting sleep sessions: %w", err)
	}

	err = db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM anomaly_reports WHERE user_id = $1`, userID,
	).Scan(&stats.TotalAnomalyDays)
	if err != nil {
		return nil, fmt.Errorf("counting anomaly reports: %w", err)
	}

	rows, err := db.Pool.Query(ctx,
		`SELECT metric_name, COUNT(*)
		 FROM health_metrics
		 WHERE user_id = $1
		 GROUP BY metric_name
		 ORDER BY metric_name`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying metrics by name: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var s MetricStat
		if err := rows.Scan(&s.Name, &s.Count); err != nil {
			return nil, fmt.Errorf("scanning metric stat: %w", err)
		}
		stats.MetricsByName = append(stats.MetricsByName, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return stats, nil
}
