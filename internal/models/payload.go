package models

// RawPoint is a single reading as delivered by the API or an ingest client.
// The timestamp may sit under either "timestamp" or "time"; scalar metrics carry
// "value", blood pressure carries "systolic"/"diastolic".
type RawPoint struct {
	Timestamp Stamp  `json:"timestamp"`
	Time      Stamp  `json:"time"`
	Value     Number `json:"value"`
	Systolic  Number `json:"systolic"`
	Diastolic Number `json:"diastolic"`
}

// When returns the point's timestamp, preferring "timestamp" over "time".
func (p RawPoint) When() (Stamp, bool) {
	if p.Timestamp.Present {
		return p.Timestamp, true
	}
	if p.Time.Present {
		return p.Time, true
	}
	return Stamp{}, false
}

// SleepSessionPayload is a sleep session as produced by the device sync.
type SleepSessionPayload struct {
	Date          string `json:"date"`
	StartTime     Stamp  `json:"start_time"`
	EndTime       Stamp  `json:"end_time"`
	DurationHours Number `json:"duration_hours"`
}

// AnomalyPointPayload is one window of the personalized anomaly series.
type AnomalyPointPayload struct {
	Timestamp   Stamp  `json:"timestamp"`
	IsAnomaly   Number `json:"is_anomaly"`
	HeartRate   Number `json:"heart_rate"`
	SpO2        Number `json:"spo2"`
	SystolicBP  Number `json:"systolic_bp"`
	DiastolicBP Number `json:"diastolic_bp"`
}

// AnomalyReportPayload is the anomaly detector's output for one user and day.
type AnomalyReportPayload struct {
	UserEmail        string                `json:"user_email"`
	Date             string                `json:"date"`
	Status           string                `json:"status"`
	TotalRecords     int                   `json:"total_records"`
	Anomalies        int                   `json:"anomalies"`
	PercentAnomalies Number                `json:"percent_anomalies"`
	DataConfidence   string                `json:"data_confidence,omitempty"`
	TopContributors  []string              `json:"top_contributors,omitempty"`
	Note             string                `json:"note,omitempty"`
	Series           []AnomalyPointPayload `json:"series"`
}

// IngestPayload is the body accepted by the ingest endpoint and the bulk importer.
type IngestPayload struct {
	UserEmail     string                `json:"user_email"`
	Metrics       map[string][]RawPoint `json:"metrics"`
	SleepSessions []SleepSessionPayload `json:"sleep_sessions"`
	ActivityType  string                `json:"activity_type,omitempty"`
}
