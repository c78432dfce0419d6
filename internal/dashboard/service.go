// Package dashboard assembles the dashboard views (metric cards, charts, history,
// sleep, activity and anomaly overlays) from a data source and the metrics core.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/claude/pulseboard/internal/metrics"
	"github.com/claude/pulseboard/internal/models"
)

var (
	// ErrNotFound is returned when the requested user does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalid is returned for malformed queries: a missing email, an unknown
	// period or metric, or a bad date.
	ErrInvalid = errors.New("invalid request")
)

// DataSource is what the views read from. *storage.DB and the demo fixture
// implement it.
type DataSource interface {
	UserIDByEmail(ctx context.Context, email string) (int, error)
	QueryMetricsRange(ctx context.Context, start, end time.Time, userID int) ([]models.HealthMetricRow, error)
	QuerySleepSessions(ctx context.Context, start, end time.Time, userID int) ([]models.SleepSessionRow, error)
	GetAnomalyReport(ctx context.Context, userID int, date time.Time) (*models.AnomalyReportRow, error)
	QueryActivity(ctx context.Context, start, end time.Time, userID int) ([]models.HealthMetricRow, error)
}

// Options configure a Service. Zero values take the defaults.
type Options struct {
	Location     *time.Location
	GapThreshold time.Duration
	MaxTicks     int
	Now          func() time.Time
}

// Service builds dashboard views.
type Service struct {
	src      DataSource
	loc      *time.Location
	gap      time.Duration
	maxTicks int
	now      func() time.Time
	log      *slog.Logger
}

// New creates a Service reading from src.
func New(src DataSource, opts Options, log *slog.Logger) *Service {
	s := &Service{
		src:      src,
		loc:      opts.Location,
		gap:      opts.GapThreshold,
		maxTicks: opts.MaxTicks,
		now:      opts.Now,
		log:      log,
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.gap <= 0 {
		s.gap = metrics.DefaultGapThreshold
	}
	if s.maxTicks <= 0 {
		s.maxTicks = metrics.DefaultMaxTicks
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Location returns the zone local days are computed in.
func (s *Service) Location() *time.Location { return s.loc }

// Query selects a user and a local day.
type Query struct {
	Email  string
	Period string
	Date   string
}

func (s *Service) resolve(ctx context.Context, q Query) (int, metrics.Period, error) {
	period, err := metrics.ResolvePeriod(q.Period, q.Date, s.now(), s.loc)
	if err != nil {
		return 0, metrics.Period{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	userID, err := s.user(ctx, q.Email)
	if err != nil {
		return 0, metrics.Period{}, err
	}
	return userID, period, nil
}

func (s *Service) user(ctx context.Context, email string) (int, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return 0, fmt.Errorf("%w: email is required", ErrInvalid)
	}
	id, err := s.src.UserIDByEmail(ctx, email)
	if errors.Is(err, models.ErrUserNotFound) {
		return 0, fmt.Errorf("%w: user %s", ErrNotFound, email)
	}
	if err != nil {
		return 0, fmt.Errorf("looking up user: %w", err)
	}
	return id, nil
}

// parseDay parses a YYYY-MM-DD date as local midnight.
func (s *Service) parseDay(date string) (time.Time, error) {
	d, err := time.ParseInLocation(time.DateOnly, date, s.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q must be YYYY-MM-DD", ErrInvalid, date)
	}
	return d, nil
}

func (s *Service) loadSeries(ctx context.Context, userID int, start, end time.Time) (map[metrics.Kind][]metrics.Point, error) {
	rows, err := s.src.QueryMetricsRange(ctx, start, end, userID)
	if err != nil {
		return nil, fmt.Errorf("loading metrics: %w", err)
	}
	return groupRows(rows), nil
}

func (s *Service) loadSleep(ctx context.Context, userID int, start, end time.Time) ([]metrics.SleepSession, error) {
	rows, err := s.src.QuerySleepSessions(ctx, start, end, userID)
	if err != nil {
		return nil, fmt.Errorf("loading sleep sessions: %w", err)
	}
	sessions := make([]metrics.SleepSession, 0, len(rows))
	for _, r := range rows {
		sessions = append(sessions, metrics.SleepSession{
			Date:          r.Date.Format(time.DateOnly),
			StartTime:     r.StartTime,
			EndTime:       r.EndTime,
			DurationHours: r.DurationHours,
		})
	}
	return metrics.SessionsBetween(sessions, start, end), nil
}

// groupRows splits stored rows by metric, dropping names the dashboard does not show.
func groupRows(rows []models.HealthMetricRow) map[metrics.Kind][]metrics.Point {
	out := make(map[metrics.Kind][]metrics.Point)
	for _, r := range rows {
		kind, ok := metrics.ParseKind(r.MetricName)
		if !ok {
			continue
		}
		out[kind] = append(out[kind], metrics.Point{
			Epoch:     r.Time.UnixMilli(),
			Value:     r.Value,
			Systolic:  r.Systolic,
			Diastolic: r.Diastolic,
		})
	}
	return out
}

func rawPoints(points []metrics.Point) []models.RawPoint {
	raw := make([]models.RawPoint, 0, len(points))
	for _, p := range points {
		raw = append(raw, p.Raw())
	}
	return raw
}
