package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/claude/pulseboard/internal/metrics"
)

// CardsView is the metric card grid for one local day.
type CardsView struct {
	Email  string            `json:"email"`
	Period metrics.Period    `json:"period"`
	Cards  []metrics.Summary `json:"cards"`
}

// Cards summarizes every dashboard metric over the selected day.
func (s *Service) Cards(ctx context.Context, q Query) (*CardsView, error) {
	userID, period, err := s.resolve(ctx, q)
	if err != nil {
		return nil, err
	}
	series, err := s.loadSeries(ctx, userID, period.Start, period.End)
	if err != nil {
		return nil, err
	}
	sessions, err := s.loadSleep(ctx, userID, period.Start, period.End)
	if err != nil {
		return nil, err
	}
	series[metrics.KindSleep] = metrics.SleepPoints(sessions)

	view := &CardsView{Email: q.Email, Period: period, Cards: make([]metrics.Summary, 0, len(metrics.Kinds))}
	for _, kind := range metrics.Kinds {
		view.Cards = append(view.Cards, metrics.Summarize(series[kind], kind, period.Label))
	}
	return view, nil
}

// ChartView is one metric's chart-ready series for a local day.
type ChartView struct {
	Metric metrics.Kind   `json:"metric"`
	Title  string         `json:"title"`
	Unit   string         `json:"unit"`
	Period metrics.Period `json:"period"`
	metrics.Normalized
	Summary metrics.Summary `json:"summary"`
}

// Chart normalizes one metric's readings for plotting.
func (s *Service) Chart(ctx context.Context, q Query, metric string) (*ChartView, error) {
	kind, ok := metrics.ParseKind(metric)
	if !ok {
		return nil, fmt.Errorf("%w: unknown metric %q", ErrInvalid, metric)
	}
	userID, period, err := s.resolve(ctx, q)
	if err != nil {
		return nil, err
	}

	var points []metrics.Point
	if kind == metrics.KindSleep {
		sessions, err := s.loadSleep(ctx, userID, period.Start, period.End)
		if err != nil {
			return nil, err
		}
		points = metrics.SleepPoints(sessions)
	} else {
		series, err := s.loadSeries(ctx, userID, period.Start, period.End)
		if err != nil {
			return nil, err
		}
		points = series[kind]
	}

	return &ChartView{
		Metric: kind,
		Title:  kind.Title(),
		Unit:   kind.Unit(),
		Period: period,
		Normalized: metrics.Normalize(rawPoints(points),
			metrics.WithGapThreshold(s.gap), metrics.WithMaxTicks(s.maxTicks)),
		Summary: metrics.Summarize(points, kind, period.Label),
	}, nil
}

// HistoryView is every metric's readings over a date range with range-level rollups.
type HistoryView struct {
	Email          string                           `json:"email"`
	StartDate      string                           `json:"start_date"`
	EndDate        string                           `json:"end_date"`
	Metrics        map[metrics.Kind][]metrics.Point `json:"metrics"`
	SleepSessions  []metrics.SleepSession           `json:"sleep_sessions"`
	AverageMetrics metrics.AverageMetrics           `json:"averageMetrics"`
}

// HistoryDays is the length of the default history window.
const HistoryDays = 7

// History returns readings between two local dates, both inclusive. An empty
// endDate means today; an empty startDate means HistoryDays days ending at endDate.
func (s *Service) History(ctx context.Context, email, startDate, endDate string) (*HistoryView, error) {
	if endDate == "" {
		endDate = s.now().In(s.loc).Format(time.DateOnly)
	}
	last, err := s.parseDay(endDate)
	if err != nil {
		return nil, err
	}
	if startDate == "" {
		startDate = last.AddDate(0, 0, -(HistoryDays - 1)).Format(time.DateOnly)
	}
	start, err := s.parseDay(startDate)
	if err != nil {
		return nil, err
	}
	if last.Before(start) {
		return nil, fmt.Errorf("%w: end_date is before start_date", ErrInvalid)
	}
	userID, err := s.user(ctx, email)
	if err != nil {
		return nil, err
	}
	end := last.AddDate(0, 0, 1)

	series, err := s.loadSeries(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}
	sessions, err := s.loadSleep(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}

	view := &HistoryView{
		Email:          email,
		StartDate:      startDate,
		EndDate:        endDate,
		Metrics:        make(map[metrics.Kind][]metrics.Point),
		SleepSessions:  sessions,
		AverageMetrics: metrics.Rollup(series),
	}
	for _, kind := range metrics.Kinds {
		if kind == metrics.KindSleep {
			continue
		}
		pts, _ := metrics.ParsePoints(rawPoints(series[kind]))
		view.Metrics[kind] = pts
	}
	return view, nil
}

// SleepView is the sleep detail for one local day.
type SleepView struct {
	Period     metrics.Period         `json:"period"`
	Sessions   []metrics.SleepSession `json:"sessions"`
	TotalHours float64                `json:"total_hours"`
	Summary    metrics.Summary        `json:"summary"`
	Timing     *metrics.SleepTiming   `json:"timing,omitempty"`
}

// Sleep lists the sessions overlapping the selected day.
func (s *Service) Sleep(ctx context.Context, q Query) (*SleepView, error) {
	userID, period, err := s.resolve(ctx, q)
	if err != nil {
		return nil, err
	}
	sessions, err := s.loadSleep(ctx, userID, period.Start, period.End)
	if err != nil {
		return nil, err
	}
	points := metrics.SleepPoints(sessions)

	view := &SleepView{
		Period:   period,
		Sessions: sessions,
		Summary:  metrics.Summarize(points, metrics.KindSleep, period.Label),
	}
	if view.Sessions == nil {
		view.Sessions = []metrics.SleepSession{}
	}
	if st, ok := metrics.Describe(points); ok {
		view.TotalHours = st.Sum
	}
	if timing, ok := metrics.Timing(sessions, s.loc); ok {
		view.Timing = &timing
	}
	return view, nil
}

// WeekDays is the length of the weekly sleep view.
const WeekDays = 7

// WeeklySleepView is the per-day sleep totals for the last week.
type WeeklySleepView struct {
	Email  string               `json:"email"`
	Days   []metrics.DailySleep `json:"days"`
	Timing *metrics.SleepTiming `json:"timing,omitempty"`
}

// WeeklySleep totals sleep for each of the last seven local days, oldest first.
func (s *Service) WeeklySleep(ctx context.Context, email string) (*WeeklySleepView, error) {
	userID, err := s.user(ctx, email)
	if err != nil {
		return nil, err
	}
	now := s.now()
	end := metrics.DayStart(now, s.loc).AddDate(0, 0, 1)
	start := end.AddDate(0, 0, -WeekDays)

	sessions, err := s.loadSleep(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}
	view := &WeeklySleepView{
		Email: email,
		Days:  metrics.WeeklySleep(sessions, now, WeekDays, s.loc),
	}
	if timing, ok := metrics.Timing(sessions, s.loc); ok {
		view.Timing = &timing
	}
	return view, nil
}

// ActivityDays is the default length of the activity view.
const ActivityDays = 7

// MaxActivityDays bounds the activity window.
const MaxActivityDays = 90

// ActivityView is the tagged activity of the last few local days.
type ActivityView struct {
	Email     string                  `json:"email"`
	Days      int                     `json:"days"`
	StartDate string                  `json:"start_date"`
	EndDate   string                  `json:"end_date"`
	Logs      []metrics.ActivityLog   `json:"logs"`
	Totals    []metrics.ActivityTotal `json:"totals"`
}

// Activity groups activity-tagged readings from the last days local days, today
// included, into logs. days <= 0 means ActivityDays.
func (s *Service) Activity(ctx context.Context, email string, days int) (*ActivityView, error) {
	if days <= 0 {
		days = ActivityDays
	}
	if days > MaxActivityDays {
		return nil, fmt.Errorf("%w: days must be at most %d", ErrInvalid, MaxActivityDays)
	}
	userID, err := s.user(ctx, email)
	if err != nil {
		return nil, err
	}
	end := metrics.DayStart(s.now(), s.loc).AddDate(0, 0, 1)
	start := end.AddDate(0, 0, -days)

	rows, err := s.src.QueryActivity(ctx, start, end, userID)
	if err != nil {
		return nil, fmt.Errorf("loading activity: %w", err)
	}
	samples := make([]metrics.ActivitySample, 0, len(rows))
	for _, r := range rows {
		samples = append(samples, metrics.ActivitySample{Time: r.Time, Type: r.ActivityType})
	}
	logs := metrics.GroupActivity(samples, s.gap)

	return &ActivityView{
		Email:     email,
		Days:      days,
		StartDate: start.Format(time.DateOnly),
		EndDate:   end.AddDate(0, 0, -1).Format(time.DateOnly),
		Logs:      logs,
		Totals:    metrics.ActivityTotals(logs),
	}, nil
}

// Anomaly view statuses beyond metrics.StatusAlert and metrics.StatusOK.
const (
	StatusNoData       = "no_data"
	StatusInsufficient = "insufficient"
)

// MinAnomalyWindows is the fewest windows a day needs before it is scored.
const MinAnomalyWindows = 3

// AnomalyView is the personalized anomaly overlay for one local day.
type AnomalyView struct {
	Date            string                 `json:"date"`
	Status          string                 `json:"status"`
	Message         string                 `json:"message,omitempty"`
	TotalRecords    int                    `json:"total_records"`
	Anomalies       int                    `json:"anomalies"`
	Percent         float64                `json:"percent_anomalies"`
	DataConfidence  string                 `json:"data_confidence,omitempty"`
	TopContributors []string               `json:"top_contributors,omitempty"`
	Note            string                 `json:"note,omitempty"`
	Donut           []metrics.Slice        `json:"donut"`
	Series          []metrics.AnomalyPoint `json:"series"`
	Runs            []metrics.Run          `json:"runs"`
}

// Anomaly returns the stored report for a day with its series and anomalous runs.
// An empty date means today.
func (s *Service) Anomaly(ctx context.Context, email, date string) (*AnomalyView, error) {
	userID, period, err := s.resolve(ctx, Query{Email: email, Date: date})
	if err != nil {
		return nil, err
	}
	day := time.Date(period.Start.Year(), period.Start.Month(), period.Start.Day(), 0, 0, 0, 0, time.UTC)

	view := &AnomalyView{
		Date:   period.Date,
		Donut:  metrics.DonutSlices(0),
		Series: []metrics.AnomalyPoint{},
		Runs:   []metrics.Run{},
	}

	report, err := s.src.GetAnomalyReport(ctx, userID, day)
	if err != nil {
		return nil, fmt.Errorf("loading anomaly report: %w", err)
	}
	if report == nil {
		view.Status = StatusNoData
		view.Message = "No resting health data for this day"
		return view, nil
	}

	for _, p := range report.Series {
		view.Series = append(view.Series, metrics.AnomalyPoint{
			Epoch:       p.Time.UnixMilli(),
			IsAnomaly:   p.IsAnomaly,
			HeartRate:   p.HeartRate,
			SpO2:        p.SpO2,
			SystolicBP:  p.SystolicBP,
			DiastolicBP: p.DiastolicBP,
		})
	}
	view.DataConfidence = report.DataConfidence
	view.TopContributors = report.TopContributors
	view.Note = report.Note

	if len(view.Series) < MinAnomalyWindows && report.TotalRecords < MinAnomalyWindows {
		view.Status = StatusInsufficient
		view.Message = "Not enough aggregated data windows"
		return view, nil
	}

	view.Runs = metrics.DetectRuns(view.Series)
	if len(view.Series) > 0 {
		digest := metrics.DigestAnomalies(view.Series)
		view.TotalRecords = digest.Total
		view.Anomalies = digest.Anomalies
		view.Percent = digest.Percent
		view.Status = digest.Status
		view.Donut = digest.Donut
		return view, nil
	}

	view.TotalRecords = report.TotalRecords
	view.Anomalies = report.Anomalies
	view.Percent = report.PercentAnomalies
	view.Status = report.Status
	if view.Status == "" {
		view.Status = metrics.StatusOK
		if view.Percent > metrics.AlertPercent {
			view.Status = metrics.StatusAlert
		}
	}
	view.Donut = metrics.DonutSlices(view.Percent)
	return view, nil
}
