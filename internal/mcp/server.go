package mcp

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// EmailHeader carries the user an HTTP MCP session acts for.
const EmailHeader = "X-User-Email"

type contextKey int

const emailKey contextKey = iota

// EmailFromContext extracts the user email injected by the transport layer.
func EmailFromContext(ctx context.Context) string {
	email, _ := ctx.Value(emailKey).(string)
	return email
}

// WithEmail returns a context acting for the given user.
func WithEmail(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, emailKey, email)
}

// Options configure the MCP server.
type Options struct {
	Version string
	// DefaultEmail is used when neither the tool call nor the transport names a user.
	DefaultEmail string
}

// New creates an MCP server with all tools and resources registered.
func New(b Backend, opts Options, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("Pulseboard", opts.Version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("Pulseboard health dashboard server. Read daily metric cards, chart series, history averages, sleep, activity and anomaly reports. Dates are local calendar days in YYYY-MM-DD."),
	)

	h := &handlers{b: b, defaultEmail: opts.DefaultEmail, log: log}

	// Tools
	s.AddTools(
		server.ServerTool{Tool: toolGetDashboard, Handler: h.getDashboard},
		server.ServerTool{Tool: toolGetChart, Handler: h.getChart},
		server.ServerTool{Tool: toolGetHistory, Handler: h.getHistory},
		server.ServerTool{Tool: toolGetSleep, Handler: h.getSleep},
		server.ServerTool{Tool: toolGetWeeklySleep, Handler: h.getWeeklySleep},
		server.ServerTool{Tool: toolGetAnomalyReport, Handler: h.getAnomalyReport},
		server.ServerTool{Tool: toolGetActivity, Handler: h.getActivity},
		server.ServerTool{Tool: toolCompareDays, Handler: h.compareDays},
	)

	// Resources
	s.AddResources(
		server.ServerResource{Resource: resToday, Handler: h.today},
		server.ServerResource{Resource: resMetricCatalog, Handler: h.metricCatalog},
	)

	return s
}

// ServeStdio runs the server over stdin/stdout until the input closes.
func ServeStdio(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

// NewHTTPHandler serves the MCP server over streamable HTTP. The EmailHeader of
// each request selects the user.
func NewHTTPHandler(s *server.MCPServer) http.Handler {
	return server.NewStreamableHTTPServer(s,
		server.WithHTTPContextFunc(func(ctx context.Context, r *http.Request) context.Context {
			if email := strings.TrimSpace(r.Header.Get(EmailHeader)); email != "" {
				return WithEmail(ctx, email)
			}
			return ctx
		}),
	)
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	b            Backend
	defaultEmail string
	log          *slog.Logger
}

// email picks the user for a call: the explicit argument, then the transport's
// identity, then the configured default.
func (h *handlers) email(ctx context.Context, req mcp.CallToolRequest) string {
	if e := req.GetString("email", ""); e != "" {
		return e
	}
	if e := EmailFromContext(ctx); e != "" {
		return e
	}
	return h.defaultEmail
}

// --- Resource definitions ---

var resToday = mcp.NewResource(
	"pulseboard://today",
	"Today",
	mcp.WithResourceDescription("Today's metric cards for the current user"),
	mcp.WithMIMEType("application/json"),
)

var resMetricCatalog = mcp.NewResource(
	"pulseboard://metric_catalog",
	"Metric Catalog",
	mcp.WithResourceDescription("Every dashboard metric with its title and unit"),
	mcp.WithMIMEType("application/json"),
)
