package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// HealthMetricRow is a row of the health_metrics table.
type HealthMetricRow struct {
	Time         time.Time `json:"time"`
	UserID       int       `json:"user_id"`
	MetricName   string    `json:"metric_name"`
	Value        *float64  `json:"value,omitempty"`
	Systolic     *float64  `json:"systolic,omitempty"`
	Diastolic    *float64  `json:"diastolic,omitempty"`
	ActivityType string    `json:"activity_type,omitempty"`
}

// SleepSessionRow is a row of the sleep_sessions table.
type SleepSessionRow struct {
	UserID        int
	Date          time.Time
	StartTime     time.Time
	EndTime       time.Time
	DurationHours float64
}

// AnomalyReportRow is a row of the anomaly_reports table plus its series.
type AnomalyReportRow struct {
	ID               uuid.UUID
	UserID           int
	Date             time.Time
	Status           string
	TotalRecords     int
	Anomalies        int
	PercentAnomalies float64
	DataConfidence   string
	TopContributors  []string
	Note             string
	CreatedAt        time.Time
	Series           []AnomalyPointRow
}

// AnomalyPointRow is a row of the anomaly_points table.
type AnomalyPointRow struct {
	Time        time.Time
	IsAnomaly   bool
	HeartRate   *float64
	SpO2        *float64
	SystolicBP  *float64
	DiastolicBP *float64
}

// ErrUserNotFound is returned when no user matches an email.
var ErrUserNotFound = errors.New("user not found")
