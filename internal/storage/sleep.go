package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/claude/pulseboard/internal/models"
)

// InsertSleepSessions batch-inserts sleep sessions, skipping ones already stored
// for the same start time. Returns the number inserted.
func (db *DB) InsertSleepSessions(ctx context.Context, rows []models.SleepSessionRow) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	query := `INSERT INTO sleep_sessions (user_id, date, start_time, end_time, duration_hours) VALUES `
	args := make([]any, 0, len(rows)*5)
	valueStrings := make([]string, 0, len(rows))

	for i, r := range rows {
		base := i * 5
		valueStrings = append(valueStrings, fmt.Sprintf(
			"($%d,$%d,$%d,$%d,$%d)",
			base+1, base+2, base+3, base+4, base+5,
		))
		args = append(args, r.UserID, r.Date, r.StartTime, r.EndTime, r.DurationHours)
	}

	query += strings.Join(valueStrings, ",") + " ON CONFLICT DO NOTHING"

	tag, err := db.Pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("inserting sleep sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}

// QuerySleepSessions retrieves sessions whose interval overlaps [start, end).
func (db *DB) QuerySleepSessions(ctx context.Context, start, end time.Time, userID int) ([]models.SleepSessionRow, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT user_id, date, start_time, end_time, duration_hours
		 FROM sleep_sessions
		 WHERE user_id = $1 AND start_time < $3 AND end_time > $2
		 ORDER BY start_time ASC`,
		userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("querying sleep sessions: %w", err)
	}
	defer rows.Close()

	var result []models.SleepSessionRow
	for rows.Next() {
		var r models.SleepSessionRow
		if err := rows.Scan(&r.UserID, &r.Date, &r.StartTime, &r.EndTime, &r.DurationHours); err != nil {
			return nil, fmt.Errorf("scanning sleep session: %w", err)
		}
		result = append(result, r)
	}
	return result, rows.Err()
}
