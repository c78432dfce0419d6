package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/claude/pulseboard/internal/dashboard"
	"github.com/claude/pulseboard/internal/demo"
	"github.com/claude/pulseboard/internal/ingest"
	"github.com/claude/pulseboard/internal/models"
	"github.com/claude/pulseboard/internal/session"
	"github.com/claude/pulseboard/internal/storage"
	"github.com/go-chi/chi/v5"
)

// Store is the persistence the HTTP handlers need. *storage.DB implements it.
type Store interface {
	dashboard.DataSource
	ingest.Store
	GetOrCreateUser(ctx context.Context, email string) (int, error)
	InsertImportLog(ctx context.Context, log storage.ImportLog) (int64, error)
	QueryImportLogs(ctx context.Context, userID, limit int) ([]storage.ImportLog, error)
	GetDataStats(ctx context.Context, userID int) (*storage.DataStats, error)
	GetLatestMetrics(ctx context.Context, userID int) ([]models.HealthMetricRow, error)
	QueryHealthMetrics(ctx context.Context, metricName string, start, end time.Time, userID int) ([]models.HealthMetricRow, error)
	GetSleepSummary(ctx context.Context, start, end time.Time, bucket string, userID int, loc *time.Location) ([]storage.SleepSummaryPeriod, error)
	GetProfile(ctx context.Context, email string) (*models.UserProfile, error)
	UpdateProfile(ctx context.Context, u models.ProfileUpdate) (*models.UserProfile, error)
}

// Options configure a Server.
type Options struct {
	APIKey         string
	AllowedOrigins []string
	Dashboard      dashboard.Options
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store    Store
	dash     *dashboard.Service
	ingest   *ingest.Provider
	sessions *session.Store
	dashOpts dashboard.Options
	log      *slog.Logger
	apiKey   string
	origins  []string
	router   chi.Router
}

// New creates a new Server with all routes configured. sessions may be nil, in
// which case the session endpoints report 503 and views need an explicit email.
func New(store Store, sessions *session.Store, opts Options, log *slog.Logger) *Server {
	if opts.Dashboard.Now == nil {
		opts.Dashboard.Now = time.Now
	}
	dash := dashboard.New(store, opts.Dashboard, log)
	s := &Server{
		store:    store,
		dash:     dash,
		ingest:   ingest.NewProvider(store, dash.Location(), log),
		sessions: sessions,
		dashOpts: opts.Dashboard,
		log:      log,
		apiKey:   opts.APIKey,
		origins:  opts.AllowedOrigins,
		router:   chi.NewRouter(),
	}
	s.routes()
	return s
}

// Dashboard returns the service answering dashboard queries from the store.
func (s *Server) Dashboard() *dashboard.Service { return s.dash }

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS(s.origins))

	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Ingest endpoints (API key required)
	s.router.Route("/api/v1/ingest", func(r chi.Router) {
		r.Use(APIKeyAuth(s.apiKey))
		r.Post("/", s.handleIngest)
		r.Post("/anomaly", s.handleAnomalyIngest)
		r.Post("/hae", s.handleHAEIngest)
	})

	// Dashboard views
	s.router.Get("/api/v1/dashboard", s.handleDashboard)
	s.router.Get("/api/v1/charts/{metric}", s.handleChart)
	s.router.Get("/api/v1/history", s.handleHistory)
	s.router.Get("/api/v1/sleep", s.handleSleep)
	s.router.Get("/api/v1/sleep/week", s.handleWeeklySleep)
	s.router.Get("/api/v1/sleep/summary", s.handleSleepSummary)
	s.router.Get("/api/v1/anomaly", s.handleAnomaly)
	s.router.Get("/api/v1/activity", s.handleActivity)
	s.router.Get("/api/v1/stats", s.handleStats)
	s.router.Get("/api/v1/imports", s.handleImportLogs)
	s.router.Get("/api/v1/metrics/latest", s.handleLatestMetrics)
	s.router.Get("/api/v1/metrics/{metric}", s.handleRawMetrics)
	s.router.Get("/api/v1/profile", s.handleGetProfile)
	s.router.Put("/api/v1/profile", s.handleUpdateProfile)

	// Session flags
	s.router.Route("/api/v1/session", func(r chi.Router) {
		r.Get("/", s.handleGetSession)
		r.Post("/", s.handleNewSession)
		r.Post("/login", s.handleLogin)
		r.Post("/logout", s.handleLogout)
		r.Post("/demo", s.handleDemo)
	})
}

// SetMCP mounts an MCP handler at /mcp.
func (s *Server) SetMCP(h http.Handler) {
	s.router.Mount("/mcp", h)
}

// viewsFor picks the service that answers a request and the email to query with.
// Demo mode comes from ?demo=1 or the session flag; the email falls back to the
// session's signed-in user.
func (s *Server) viewsFor(r *http.Request) (*dashboard.Service, string) {
	q := r.URL.Query()
	email := q.Get("email")
	demoMode := isTrue(q.Get("demo"))

	if f, ok := s.currentSession(r); ok {
		if email == "" {
			email = f.UserEmail
		}
		demoMode = demoMode || f.DemoMode
	}

	if !demoMode {
		return s.dash, email
	}
	if email == "" {
		email = demo.Email
	}
	src := demo.New(s.dashOpts.Now(), s.dash.Location())
	return dashboard.New(src, s.dashOpts, s.log), email
}

func isTrue(v string) bool {
	switch v {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
