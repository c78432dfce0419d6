package mcp

import (
	"context"

	"github.com/claude/pulseboard/internal/dashboard"
)

// Backend answers dashboard queries for MCP tools. *dashboard.Service (local)
// and HTTPClient (remote via REST API) satisfy this interface.
type Backend interface {
	Cards(ctx context.Context, q dashboard.Query) (*dashboard.CardsView, error)
	Chart(ctx context.Context, q dashboard.Query, metric string) (*dashboard.ChartView, error)
	History(ctx context.Context, email, startDate, endDate string) (*dashboard.HistoryView, error)
	Sleep(ctx context.Context, q dashboard.Query) (*dashboard.SleepView, error)
	WeeklySleep(ctx context.Context, email string) (*dashboard.WeeklySleepView, error)
	Anomaly(ctx context.Context, email, date string) (*dashboard.AnomalyView, error)
	Activity(ctx context.Context, email string, days int) (*dashboard.ActivityView, error)
}

// Compile-time check: *dashboard.Service satisfies Backend.
var _ Backend = (*dashboard.Service)(nil)
