package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/claude/pulseboard/internal/dashboard"
	"github.com/claude/pulseboard/internal/models"
	"github.com/claude/pulseboard/internal/session"
	"github.com/claude/pulseboard/internal/storage"
	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"
)

const testKey = "test-key"

var ist = time.FixedZone("IST", 5*3600+30*60)

var fixedNow = time.Date(2024, 1, 10, 18, 30, 0, 0, ist)

type fakeStore struct {
	users    map[string]int
	profiles map[string]*models.UserProfile
	metrics  []models.HealthMetricRow
	sleep    []models.SleepSessionRow
	reports  []models.AnomalyReportRow
	logs     []storage.ImportLog
}

func newFakeStore() *fakeStore {
	return &fakeStore{users: map[string]int{}}
}

func (f *fakeStore) GetOrCreateUser(_ context.Context, email string) (int, error) {
	if id, ok := f.users[email]; ok {
		return id, nil
	}
	id := len(f.users) + 1
	f.users[email] = id
	return id, nil
}

func (f *fakeStore) UserIDByEmail(_ context.Context, email string) (int, error) {
	id, ok := f.users[email]
	if !ok {
		return 0, models.ErrUserNotFound
	}
	return id, nil
}

func (f *fakeStore) InsertHealthMetrics(_ context.Context, rows []models.HealthMetricRow) (int64, error) {
	f.metrics = append(f.metrics, rows...)
	return int64(len(rows)), nil
}

func (f *fakeStore) InsertSleepSessions(_ context.Context, rows []models.SleepSessionRow) (int64, error) {
	f.sleep = append(f.sleep, rows...)
	return int64(len(rows)), nil
}

func (f *fakeStore) SaveAnomalyReport(_ context.Context, r models.AnomalyReportRow) (uuid.UUID, error) {
	f.reports = append(f.reports, r)
	return uuid.New(), nil
}

func (f *fakeStore) QueryMetricsRange(_ context.Context, start, end time.Time, userID int) ([]models.HealthMetricRow, error) {
	var out []models.HealthMetricRow
	for _, r := range f.metrics {
		if r.UserID == userID && !r.Time.Before(start) && r.Time.Before(end) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) QuerySleepSessions(_ context.Context, start, end time.Time, userID int) ([]models.SleepSessionRow, error) {
	var out []models.SleepSessionRow
	for _, r := range f.sleep {
		if r.UserID == userID && r.StartTime.Before(end) && r.EndTime.After(start) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) GetAnomalyReport(_ context.Context, userID int, date time.Time) (*models.AnomalyReportRow, error) {
	for _, r := range f.reports {
		if r.UserID == userID && r.Date.Equal(date) {
			return &r, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) InsertImportLog(_ context.Context, l storage.ImportLog) (int64, error) {
	f.logs = append(f.logs, l)
	return int64(len(f.logs)), nil
}

func (f *fakeStore) QueryImportLogs(_ context.Context, userID, limit int) ([]storage.ImportLog, error) {
	return f.logs, nil
}

func (f *fakeStore) GetDataStats(_ context.Context, userID int) (*storage.DataStats, error) {
	return &storage.DataStats{TotalMetricRows: int64(len(f.metrics))}, nil
}

func (f *fakeStore) GetLatestMetrics(_ context.Context, userID int) ([]models.HealthMetricRow, error) {
	latest := map[string]models.HealthMetricRow{}
	for _, r := range f.metrics {
		if cur, ok := latest[r.MetricName]; r.UserID == userID && (!ok || r.Time.After(cur.Time)) {
			latest[r.MetricName] = r
		}
	}
	var out []models.HealthMetricRow
	for _, r := range latest {
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeStore) QueryHealthMetrics(_ context.Context, name string, start, end time.Time, userID int) ([]models.HealthMetricRow, error) {
	var out []models.HealthMetricRow
	for _, r := range f.metrics {
		if r.UserID == userID && r.MetricName == name && !r.Time.Before(start) && r.Time.Before(end) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) QueryActivity(_ context.Context, start, end time.Time, userID int) ([]models.HealthMetricRow, error) {
	var out []models.HealthMetricRow
	for _, r := range f.metrics {
		if r.UserID == userID && r.ActivityType != "" && !r.Time.Before(start) && r.Time.Before(end) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) GetProfile(_ context.Context, email string) (*models.UserProfile, error) {
	if _, ok := f.users[email]; !ok {
		return nil, models.ErrUserNotFound
	}
	if f.profiles == nil {
		f.profiles = map[string]*models.UserProfile{}
	}
	p, ok := f.profiles[email]
	if !ok {
		p = &models.UserProfile{Email: email, Role: models.DefaultUserRole}
		f.profiles[email] = p
	}
	out := *p
	return &out, nil
}

func (f *fakeStore) UpdateProfile(ctx context.Context, u models.ProfileUpdate) (*models.UserProfile, error) {
	if _, err := f.GetProfile(ctx, u.Email); err != nil {
		return nil, err
	}
	p := f.profiles[u.Email]
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Age != nil {
		p.Age = u.Age
	}
	if u.Gender != nil {
		p.Gender = *u.Gender
	}
	if u.Phone != nil {
		p.Phone = *u.Phone
	}
	if u.Country != nil {
		p.Country = *u.Country
	}
	if u.Role != nil {
		p.Role = *u.Role
	}
	out := *p
	return &out, nil
}

func (f *fakeStore) GetSleepSummary(_ context.Context, _, _ time.Time, _ string, _ int, _ *time.Location) ([]storage.SleepSummaryPeriod, error) {
	return []storage.SleepSummaryPeriod{}, nil
}

func newTestServer(t *testing.T, store *fakeStore) *Server {
	t.Helper()
	sessions, err := session.Open(t.TempDir())
	if err != nil {
		t.Fatalf("opening session store: %v", err)
	}
	t.Cleanup(func() { sessions.Close() })

	return New(store, sessions, Options{
		APIKey: testKey,
		Dashboard: dashboard.Options{
			Location: ist,
			Now:      func() time.Time { return fixedNow },
		},
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func do(t *testing.T, s *Server, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decoding response %q: %v", rec.Body.String(), err)
	}
	return v
}

const ingestBody = `{
	"user_email": "ada@example.com",
	"metrics": {
		"heart_rate": [
			{"timestamp": "2024-01-10T03:30:00Z", "value": 70},
			{"timestamp": "2024-01-10T04:00:00Z", "value": 80},
			{"timestamp": "nope", "value": 99}
		]
	}
}`

func ingestRequest(body io.Reader) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/ingest", body)
	req.Header.Set("X-API-Key", testKey)
	return req
}

// TestIngestRequiresAPIKey verifies missing and wrong keys are refused before the body is read.
func TestIngestRequiresAPIKey(t *testing.T) {
	s := newTestServer(t, newFakeStore())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/ingest", strings.NewReader(ingestBody))
	if rec := do(t, s, req); rec.Code != http.StatusUnauthorized {
		t.Errorf("no key: status = %d, want 401", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/ingest", strings.NewReader(ingestBody))
	req.Header.Set("X-API-Key", "wrong")
	if rec := do(t, s, req); rec.Code != http.StatusForbidden {
		t.Errorf("wrong key: status = %d, want 403", rec.Code)
	}
}

// TestIngestStoresAndLogs verifies accepted points are stored, the bad one is
// counted as dropped, and the import is logged.
func TestIngestStoresAndLogs(t *testing.T) {
	store := newFakeStore()
	s := newTestServer(t, store)

	rec := do(t, s, ingestRequest(strings.NewReader(ingestBody)))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	res := decode[map[string]any](t, rec)
	if res["points_inserted"] != float64(2) || res["points_dropped"] != float64(1) {
		t.Errorf("result = %v", res)
	}
	if len(store.metrics) != 2 {
		t.Errorf("stored = %d, want 2", len(store.metrics))
	}
	if len(store.logs) != 1 || store.logs[0].Status != "success" || store.logs[0].PointsDropped != 1 {
		t.Errorf("import logs = %+v", store.logs)
	}
}

// TestIngestGzip verifies gzip-encoded bodies are inflated.
func TestIngestGzip(t *testing.T) {
	store := newFakeStore()
	s := newTestServer(t, store)

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	zw.Write([]byte(ingestBody))
	zw.Close()

	req := ingestRequest(&buf)
	req.Header.Set("Content-Encoding", "gzip")
	if rec := do(t, s, req); rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	if len(store.metrics) != 2 {
		t.Errorf("stored = %d, want 2", len(store.metrics))
	}
}

// TestIngestRejectsBadBodies verifies malformed JSON and a missing email are 400s.
func TestIngestRejectsBadBodies(t *testing.T) {
	s := newTestServer(t, newFakeStore())
	for name, body := range map[string]string{
		"malformed":     `{"user_email":`,
		"missing email": `{"metrics": {}}`,
	} {
		if rec := do(t, s, ingestRequest(strings.NewReader(body))); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", name, rec.Code)
		}
	}
}

// TestAnomalyIngestAndView verifies a stored report is served back with its runs.
func TestAnomalyIngestAndView(t *testing.T) {
	store := newFakeStore()
	s := newTestServer(t, store)

	body := `{"user_email": "ada@example.com", "date": "2024-01-10", "series": [
		{"timestamp": "2024-01-10T03:00:00Z", "is_anomaly": 0},
		{"timestamp": "2024-01-10T03:05:00Z", "is_anomaly": 1},
		{"timestamp": "2024-01-10T03:10:00Z", "is_anomaly": 1},
		{"timestamp": "2024-01-10T03:15:00Z", "is_anomaly": 0}
	]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/ingest/anomaly", strings.NewReader(body))
	req.Header.Set("X-API-Key", testKey)
	if rec := do(t, s, req); rec.Code != http.StatusOK {
		t.Fatalf("ingest status = %d, body %s", rec.Code, rec.Body)
	}

	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/api/v1/anomaly?email=ada@example.com&date=2024-01-10", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("view status = %d, body %s", rec.Code, rec.Body)
	}
	view := decode[dashboard.AnomalyView](t, rec)
	if view.Status != "alert" || view.Percent != 50 {
		t.Errorf("status/percent = %s/%v, want alert/50", view.Status, view.Percent)
	}
	if len(view.Runs) != 1 {
		t.Fatalf("runs = %v, want one", view.Runs)
	}
	wantStart := time.Date(2024, 1, 10, 3, 5, 0, 0, time.UTC).UnixMilli()
	if view.Runs[0].Start != wantStart || view.Runs[0].End != wantStart+5*60*1000 {
		t.Errorf("run = %+v", view.Runs[0])
	}

	bad := httptest.NewRequest(http.MethodPost, "/api/v1/ingest/anomaly", strings.NewReader(`{"user_email": "ada@example.com"}`))
	bad.Header.Set("X-API-Key", testKey)
	if rec := do(t, s, bad); rec.Code != http.StatusBadRequest {
		t.Errorf("report without date or series: status = %d, want 400", rec.Code)
	}
}

// TestDashboardStatusCodes verifies view errors map to 400 and 404.
func TestDashboardStatusCodes(t *testing.T) {
	store := newFakeStore()
	store.users["ada@example.com"] = 1
	s := newTestServer(t, store)

	tests := []struct {
		path string
		want int
	}{
		{"/api/v1/dashboard", http.StatusBadRequest},
		{"/api/v1/dashboard?email=nobody@example.com", http.StatusNotFound},
		{"/api/v1/dashboard?email=ada@example.com&period=Someday", http.StatusBadRequest},
		{"/api/v1/dashboard?email=ada@example.com", http.StatusOK},
		{"/api/v1/charts/mood?email=ada@example.com", http.StatusBadRequest},
		{"/api/v1/charts/heart_rate?email=ada@example.com", http.StatusOK},
		{"/api/v1/history?email=ada@example.com", http.StatusOK},
		{"/api/v1/history?email=ada@example.com&end_date=01/10/2024", http.StatusBadRequest},
		{"/api/v1/history?email=ada@example.com&start_date=2024-01-01&end_date=2024-01-10", http.StatusOK},
		{"/api/v1/sleep/week?email=ada@example.com", http.StatusOK},
		{"/api/v1/stats", http.StatusBadRequest},
		{"/api/v1/stats?email=ada@example.com", http.StatusOK},
	}
	for _, tt := range tests {
		rec := do(t, s, httptest.NewRequest(http.MethodGet, tt.path, nil))
		if rec.Code != tt.want {
			t.Errorf("GET %s = %d, want %d (body %s)", tt.path, rec.Code, tt.want, rec.Body)
		}
	}
}

// TestChartAfterIngest verifies ingested readings come back as a chart for their local day.
func TestChartAfterIngest(t *testing.T) {
	s := newTestServer(t, newFakeStore())
	if rec := do(t, s, ingestRequest(strings.NewReader(ingestBody))); rec.Code != http.StatusOK {
		t.Fatalf("ingest status = %d", rec.Code)
	}

	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/api/v1/charts/heart_rate?email=ada@example.com&period=Today", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	view := decode[dashboard.ChartView](t, rec)
	if len(view.Series) != 2 || view.IsBP {
		t.Errorf("series = %+v", view.Series)
	}
	if view.Summary.Primary != "75" {
		t.Errorf("primary = %q, want 75 (median)", view.Summary.Primary)
	}
}

// TestDemoQueryParam verifies ?demo=1 serves the fixture without a known user.
func TestDemoQueryParam(t *testing.T) {
	s := newTestServer(t, newFakeStore())
	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/api/v1/dashboard?demo=1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	view := decode[dashboard.CardsView](t, rec)
	if view.Cards[0].Primary != "75" {
		t.Errorf("demo heart rate = %q, want 75", view.Cards[0].Primary)
	}
}

// TestSessionFlow verifies login and demo flags drive the views through the cookie.
func TestSessionFlow(t *testing.T) {
	store := newFakeStore()
	store.users["ada@example.com"] = 1
	s := newTestServer(t, store)

	rec := do(t, s, httptest.NewRequest(http.MethodPost, "/api/v1/session/login", strings.NewReader(`{"email": "ada@example.com"}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, body %s", rec.Code, rec.Body)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != SessionCookie {
		t.Fatalf("cookies = %v", cookies)
	}
	withCookie := func(method, path, body string) *http.Request {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.AddCookie(cookies[0])
		return req
	}

	// Signed in: no email parameter needed, real (empty) data.
	rec = do(t, s, withCookie(http.MethodGet, "/api/v1/dashboard", ""))
	if rec.Code != http.StatusOK {
		t.Fatalf("dashboard status = %d, body %s", rec.Code, rec.Body)
	}
	if view := decode[dashboard.CardsView](t, rec); view.Cards[0].Primary != "--" {
		t.Errorf("real heart rate = %q, want --", view.Cards[0].Primary)
	}

	rec = do(t, s, withCookie(http.MethodPost, "/api/v1/session/demo", `{"enabled": true}`))
	flags := decode[session.Flags](t, rec)
	if !flags.DemoMode {
		t.Fatalf("demo flags = %+v", flags)
	}
	rec = do(t, s, withCookie(http.MethodGet, "/api/v1/dashboard", ""))
	if view := decode[dashboard.CardsView](t, rec); view.Cards[0].Primary != "75" {
		t.Errorf("demo heart rate = %q, want 75", view.Cards[0].Primary)
	}

	rec = do(t, s, withCookie(http.MethodPost, "/api/v1/session/demo", `{"enabled": false}`))
	if flags := decode[session.Flags](t, rec); flags.DemoMode || flags.UserEmail != "" {
		t.Errorf("after demo exit = %+v, want cleared", flags)
	}
	rec = do(t, s, withCookie(http.MethodGet, "/api/v1/dashboard", ""))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("dashboard after demo exit = %d, want 400 (no email)", rec.Code)
	}

	rec = do(t, s, withCookie(http.MethodGet, "/api/v1/session", ""))
	if flags := decode[session.Flags](t, rec); flags.ID != cookies[0].Value {
		t.Errorf("session id = %q, want %q", flags.ID, cookies[0].Value)
	}
}

// TestStoredMetricEndpoints verifies the latest and raw metric endpoints read stored rows.
func TestStoredMetricEndpoints(t *testing.T) {
	s := newTestServer(t, newFakeStore())
	if rec := do(t, s, ingestRequest(strings.NewReader(ingestBody))); rec.Code != http.StatusOK {
		t.Fatalf("ingest status = %d", rec.Code)
	}

	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/api/v1/metrics/latest?email=ada@example.com", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("latest status = %d, body %s", rec.Code, rec.Body)
	}
	latest := decode[[]models.HealthMetricRow](t, rec)
	if len(latest) != 1 || latest[0].Value == nil || *latest[0].Value != 80 {
		t.Errorf("latest = %+v", latest)
	}

	rec = do(t, s, httptest.NewRequest(http.MethodGet, "/api/v1/metrics/heart_rate?email=ada@example.com&start=2024-01-10&end=2024-01-10", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("raw status = %d, body %s", rec.Code, rec.Body)
	}
	if rows := decode[[]models.HealthMetricRow](t, rec); len(rows) != 2 {
		t.Errorf("raw rows = %d, want 2", len(rows))
	}

	rec = do(t, s, httptest.NewRequest(http.MethodGet, "/api/v1/metrics/mood?email=ada@example.com", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown metric status = %d, want 400", rec.Code)
	}
}

const haeBody = `{"data": {"metrics": [
	{"name": "heart_rate", "units": "count/min", "data": [
		{"date": "2024-01-10 09:00:00 +0530", "Min": 60, "Avg": 72, "Max": 90}
	]},
	{"name": "step_count", "units": "count", "data": [
		{"date": "2024-01-10 09:00:00 +0530", "qty": 500},
		{"qty": 12}
	]},
	{"name": "vo2_max", "units": "ml/(kg·min)", "data": [
		{"date": "2024-01-10 09:00:00 +0530", "qty": 41}
	]}
]}}`

// TestHAEIngest verifies Health Auto Export payloads are converted, stored for the
// user named in the query, and logged with source "hae".
func TestHAEIngest(t *testing.T) {
	store := newFakeStore()
	s := newTestServer(t, store)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/ingest/hae", strings.NewReader(haeBody))
	req.Header.Set("X-API-Key", testKey)
	if rec := do(t, s, req); rec.Code != http.StatusBadRequest {
		t.Errorf("missing email status = %d, want 400", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/ingest/hae?email=ada@example.com", strings.NewReader(haeBody))
	req.Header.Set("X-API-Key", testKey)
	rec := do(t, s, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	res := decode[map[string]any](t, rec)
	if res["points_inserted"] != float64(2) {
		t.Errorf("points_inserted = %v, want 2", res["points_inserted"])
	}
	if res["points_dropped"] != float64(1) {
		t.Errorf("points_dropped = %v, want 1", res["points_dropped"])
	}

	names := map[string]bool{}
	for _, r := range store.metrics {
		names[r.MetricName] = true
	}
	if !names["heart_rate"] || !names["steps"] || names["vo2_max"] {
		t.Errorf("stored metrics = %v", names)
	}
	if len(store.logs) != 1 || store.logs[0].Source != "hae" {
		t.Errorf("import logs = %+v", store.logs)
	}
}

// TestActivityEndpoint verifies tagged readings come back as logs and a bad days
// value is rejected.
func TestActivityEndpoint(t *testing.T) {
	store := newFakeStore()
	store.users["ada@example.com"] = 1
	steps := 300.0
	for _, m := range []int{0, 10, 25} {
		store.metrics = append(store.metrics, models.HealthMetricRow{
			Time:         time.Date(2024, 1, 10, 3, m, 0, 0, time.UTC),
			UserID:       1,
			MetricName:   "steps",
			Value:        &steps,
			ActivityType: "running",
		})
	}
	s := newTestServer(t, store)

	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/api/v1/activity?email=ada@example.com", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	view := decode[dashboard.ActivityView](t, rec)
	if len(view.Logs) != 1 || view.Logs[0].ActivityType != "running" || view.Logs[0].DurationMinutes != 25 {
		t.Errorf("logs = %+v", view.Logs)
	}

	for _, path := range []string{
		"/api/v1/activity?email=ada@example.com&days=abc",
		"/api/v1/activity?email=ada@example.com&days=0",
		"/api/v1/activity?email=ada@example.com&days=91",
		"/api/v1/activity",
	} {
		if rec := do(t, s, httptest.NewRequest(http.MethodGet, path, nil)); rec.Code != http.StatusBadRequest {
			t.Errorf("%s status = %d, want 400", path, rec.Code)
		}
	}
}

// TestProfileEndpoints verifies a partial update keeps unset fields and invalid
// values are rejected.
func TestProfileEndpoints(t *testing.T) {
	store := newFakeStore()
	store.users["ada@example.com"] = 1
	s := newTestServer(t, store)

	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/api/v1/profile?email=ada@example.com", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
	if p := decode[models.UserProfile](t, rec); p.Role != "Patient" || p.Age != nil {
		t.Errorf("initial profile = %+v", p)
	}

	put := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPut, "/api/v1/profile", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		return do(t, s, req)
	}

	rec = put(`{"email":"ada@example.com","age":36,"country":" UK ","role":"Doctor"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("put status = %d, body = %s", rec.Code, rec.Body.String())
	}
	rec = put(`{"email":"ada@example.com","phone":"+44 20 7946 0000"}`)
	p := decode[models.UserProfile](t, rec)
	if p.Age == nil || *p.Age != 36 || p.Country != "UK" || p.Role != "Doctor" || p.Phone != "+44 20 7946 0000" {
		t.Errorf("profile after updates = %+v", p)
	}

	tests := []struct {
		body string
		want int
	}{
		{`{"email":"ada@example.com","role":"Nurse"}`, http.StatusBadRequest},
		{`{"email":"ada@example.com","age":-3}`, http.StatusBadRequest},
		{`{"age":30}`, http.StatusBadRequest},
		{`not json`, http.StatusBadRequest},
		{`{"email":"nobody@example.com","age":30}`, http.StatusNotFound},
		{`{"email":"ada@example.com"}`, http.StatusOK},
	}
	for _, tt := range tests {
		if rec := put(tt.body); rec.Code != tt.want {
			t.Errorf("PUT %s status = %d, want %d", tt.body, rec.Code, tt.want)
		}
	}

	if rec := do(t, s, httptest.NewRequest(http.MethodGet, "/api/v1/profile", nil)); rec.Code != http.StatusBadRequest {
		t.Errorf("get without email status = %d, want 400", rec.Code)
	}
}
