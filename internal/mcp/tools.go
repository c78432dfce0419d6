package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/claude/pulseboard/internal/dashboard"
	"github.com/claude/pulseboard/internal/metrics"
	"github.com/mark3labs/mcp-go/mcp"
)

// dayQuery reads the shared email/period/date arguments.
func (h *handlers) dayQuery(ctx context.Context, req mcp.CallToolRequest) dashboard.Query {
	return dashboard.Query{
		Email:  h.email(ctx, req),
		Period: req.GetString("period", ""),
		Date:   req.GetString("date", ""),
	}
}

// --- Tool definitions ---

var (
	emailArg  = mcp.WithString("email", mcp.Description("User email. Defaults to the session's user."))
	periodArg = mcp.WithString("period", mcp.Description("Day to show. Defaults to Today, or Custom when date is set."), mcp.Enum("Today", "Yesterday", "Custom"))
	dateArg   = mcp.WithString("date", mcp.Description("Local day (YYYY-MM-DD) for the Custom period."))
)

var toolGetDashboard = mcp.NewTool("get_dashboard",
	mcp.WithDescription("Metric cards for one local day: median heart rate, minimum SpO2 (mean in the subtitle), mean stress, latest blood pressure (period average in the subtitle), totals for steps, calories, distance and sleep."),
	emailArg, periodArg, dateArg,
)

var toolGetChart = mcp.NewTool("get_chart",
	mcp.WithDescription("Chart-ready series for one metric and day. Long gaps between readings are broken with null points and axis ticks are included."),
	mcp.WithString("metric", mcp.Required(), mcp.Description("Metric name"), mcp.Enum("heart_rate", "spo2", "blood_pressure", "sleep", "stress", "steps", "calories", "distance")),
	emailArg, periodArg, dateArg,
)

var toolGetHistory = mcp.NewTool("get_history",
	mcp.WithDescription("Raw readings per metric over a range of days plus per-metric averages (totals for steps, calories and distance)."),
	emailArg,
	mcp.WithString("start_date", mcp.Description("First day (YYYY-MM-DD). Defaults to 6 days before end_date.")),
	mcp.WithString("end_date", mcp.Description("Last day, inclusive (YYYY-MM-DD). Defaults to today in the dashboard's timezone.")),
)

var toolGetSleep = mcp.NewTool("get_sleep",
	mcp.WithDescription("Sleep sessions overlapping one local day (midnight to midnight) with total hours and bedtime/waketime timing."),
	emailArg, periodArg, dateArg,
)

var toolGetWeeklySleep = mcp.NewTool("get_weekly_sleep",
	mcp.WithDescription("Hours slept on each of the last 7 local days."),
	emailArg,
)

var toolGetAnomalyReport = mcp.NewTool("get_anomaly_report",
	mcp.WithDescription("The day's resting anomaly report: status, anomaly percentage, contributing signals and the time ranges flagged as anomalous."),
	emailArg,
	mcp.WithString("date", mcp.Description("Local day (YYYY-MM-DD). Defaults to today.")),
)

var toolGetActivity = mcp.NewTool("get_activity",
	mcp.WithDescription("Activity logs (type, start, end and minutes) from activity-tagged readings over the last few local days, newest first, with minutes per activity."),
	emailArg,
	mcp.WithNumber("days", mcp.Description("Local days to cover, today included. Defaults to 7."), mcp.Min(1), mcp.Max(90)),
)

var toolCompareDays = mcp.NewTool("compare_days",
	mcp.WithDescription("Compare one metric's summary between two local days (e.g. today vs a week ago)."),
	mcp.WithString("metric", mcp.Required(), mcp.Description("Metric name")),
	mcp.WithString("date_a", mcp.Required(), mcp.Description("First day (YYYY-MM-DD)")),
	mcp.WithString("date_b", mcp.Required(), mcp.Description("Second day (YYYY-MM-DD)")),
	emailArg,
)

// --- Tool handlers ---

// failed turns a backend error into a tool error, logging only unexpected ones.
func (h *handlers) failed(tool string, err error) *mcp.CallToolResult {
	if !errors.Is(err, dashboard.ErrInvalid) && !errors.Is(err, dashboard.ErrNotFound) {
		h.log.Error("mcp "+tool, "error", err)
	}
	return mcp.NewToolResultError("query failed: " + err.Error())
}

func jsonResult(v any) *mcp.CallToolResult {
	result, err := mcp.NewToolResultJSON(v)
	if err != nil {
		return mcp.NewToolResultError("serialization failed")
	}
	return result
}

func (h *handlers) getDashboard(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	view, err := h.b.Cards(ctx, h.dayQuery(ctx, req))
	if err != nil {
		return h.failed("get_dashboard", err), nil
	}
	return jsonResult(view), nil
}

func (h *handlers) getChart(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	metric, err := req.RequireString("metric")
	if err != nil {
		return mcp.NewToolResultError("metric parameter is required"), nil
	}

	view, err := h.b.Chart(ctx, h.dayQuery(ctx, req), metric)
	if err != nil {
		return h.failed("get_chart", err), nil
	}
	return jsonResult(view), nil
}

func (h *handlers) getHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	view, err := h.b.History(ctx, h.email(ctx, req), req.GetString("start_date", ""), req.GetString("end_date", ""))
	if err != nil {
		return h.failed("get_history", err), nil
	}
	return jsonResult(view), nil
}

func (h *handlers) getSleep(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	view, err := h.b.Sleep(ctx, h.dayQuery(ctx, req))
	if err != nil {
		return h.failed("get_sleep", err), nil
	}
	return jsonResult(view), nil
}

func (h *handlers) getWeeklySleep(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	view, err := h.b.WeeklySleep(ctx, h.email(ctx, req))
	if err != nil {
		return h.failed("get_weekly_sleep", err), nil
	}
	return jsonResult(view), nil
}

func (h *handlers) getAnomalyReport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	view, err := h.b.Anomaly(ctx, h.email(ctx, req), req.GetString("date", ""))
	if err != nil {
		return h.failed("get_anomaly_report", err), nil
	}
	return jsonResult(view), nil
}

func (h *handlers) getActivity(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	view, err := h.b.Activity(ctx, h.email(ctx, req), req.GetInt("days", 0))
	if err != nil {
		return h.failed("get_activity", err), nil
	}
	return jsonResult(view), nil
}

// dayComparison is the compare_days result.
type dayComparison struct {
	Metric metrics.Kind    `json:"metric"`
	A      metrics.Summary `json:"a"`
	B      metrics.Summary `json:"b"`
	// Change is b minus a when both days have a value.
	Change *float64 `json:"change,omitempty"`
}

func (h *handlers) compareDays(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	metric, err := req.RequireString("metric")
	if err != nil {
		return mcp.NewToolResultError("metric parameter is required"), nil
	}
	dateA, err := req.RequireString("date_a")
	if err != nil {
		return mcp.NewToolResultError("date_a parameter is required"), nil
	}
	dateB, err := req.RequireString("date_b")
	if err != nil {
		return mcp.NewToolResultError("date_b parameter is required"), nil
	}

	email := h.email(ctx, req)
	a, err := h.b.Chart(ctx, dashboard.Query{Email: email, Date: dateA}, metric)
	if err != nil {
		return h.failed("compare_days", fmt.Errorf("date_a: %w", err)), nil
	}
	b, err := h.b.Chart(ctx, dashboard.Query{Email: email, Date: dateB}, metric)
	if err != nil {
		return h.failed("compare_days", fmt.Errorf("date_b: %w", err)), nil
	}

	cmp := dayComparison{Metric: a.Metric, A: a.Summary, B: b.Summary}
	if a.Summary.Value != nil && b.Summary.Value != nil {
		d := *b.Summary.Value - *a.Summary.Value
		cmp.Change = &d
	}
	return jsonResult(cmp), nil
}
