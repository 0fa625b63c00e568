package server_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"

	"github.com/raysh454/sitecheck/internal/app"
	"github.com/raysh454/sitecheck/internal/events"
	"github.com/raysh454/sitecheck/internal/model"
	"github.com/raysh454/sitecheck/internal/runner"
	"github.com/raysh454/sitecheck/internal/server"
	"github.com/raysh454/sitecheck/internal/store"
	"github.com/raysh454/sitecheck/internal/testutil"
)

const secret = "test-secret"

type harness struct {
	srv  *server.Server
	hub  *events.Hub
	perf *testutil.FakeRunner
}

func newHarness(t *testing.T, jwtSecret string) *harness {
	t.Helper()

	perf := &testutil.FakeRunner{Raw: &runner.PerformanceRaw{Report: testutil.PerformanceReport(0.91)}}
	sec := &testutil.FakeRunner{Err: &runner.Error{Runner: model.TestSecurity, Message: "observatory returned status 503"}}
	hub := events.NewHub(events.DefaultBuffer)
	t.Cleanup(hub.Close)

	orch := app.NewOrchestrator(store.NewMemoryStore(), runner.NewRegistry(map[model.TestType]runner.Runner{
		model.TestPerformance: perf,
		model.TestSecurity:    sec,
	}), &testutil.DummyLogger{}, app.WithEvents(hub), app.WithClock((&testutil.StepClock{}).Now))

	srv := server.NewServer(server.Config{
		ServerConfig: app.ServerConfig{Addr: ":0", JWTSecret: jwtSecret, AllowedOrigin: "*", Swagger: true},
		Orchestrator: orch,
		Events:       hub,
		Logger:       &testutil.DummyLogger{},
	})
	return &harness{srv: srv, hub: hub, perf: perf}
}

func token(t *testing.T, c model.Caller) string {
	t.Helper()
	tok, err := server.IssueToken(secret, c, time.Hour)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	return tok
}

func doJSON(t *testing.T, s http.Handler, method, path, body, bearer string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode JSON response: %v (body: %s)", err, rec.Body.String())
	}
}

func createTest(t *testing.T, s http.Handler, testType, bearer string) model.TestRecord {
	t.Helper()
	rec := doJSON(t, s, "POST", "/api/tests", fmt.Sprintf(`{"url":"https://example.com","testType":%q}`, testType), bearer)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var out model.TestRecord
	decodeJSON(t, rec, &out)
	return out
}

// ─── Basics ────────────────────────────────────────────────────────────

func TestServer_CORS_HeaderPresent(t *testing.T) {
	t.Parallel()
	h := newHarness(t, "")

	rec := doJSON(t, h.srv, "GET", "/api/tests", "", "")

	if origin := rec.Header().Get("Access-Control-Allow-Origin"); origin != "*" {
		t.Errorf("expected CORS origin *, got %q", origin)
	}
}

func TestServer_Preflight(t *testing.T) {
	t.Parallel()
	h := newHarness(t, secret)

	rec := doJSON(t, h.srv, "OPTIONS", "/api/tests", "", "")

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Methods"); !strings.Contains(got, "POST") {
		t.Errorf("expected POST in allowed methods, got %q", got)
	}
}

func TestServer_Health(t *testing.T) {
	t.Parallel()
	h := newHarness(t, secret)

	rec := doJSON(t, h.srv, "GET", "/api/health", "", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body server.HealthResponse
	decodeJSON(t, rec, &body)
	if body.Status != "ok" {
		t.Errorf("expected status ok, got %q", body.Status)
	}
}

func TestServer_SwaggerDoc(t *testing.T) {
	t.Parallel()
	h := newHarness(t, "")

	rec := doJSON(t, h.srv, "GET", "/swagger/doc.json", "", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "/api/tests/{id}/run") {
		t.Errorf("swagger doc is missing the run route")
	}
}

// ─── Create / Get ──────────────────────────────────────────────────────

func TestServer_CreateAndGet(t *testing.T) {
	t.Parallel()
	h := newHarness(t, "")

	created := createTest(t, h.srv, "performance", "")
	if created.Status != model.StatusPending {
		t.Errorf("expected pending, got %s", created.Status)
	}
	if created.URL != "https://example.com/" {
		t.Errorf("expected canonical url, got %q", created.URL)
	}
	if created.Owner != server.DevCaller.ID {
		t.Errorf("expected dev owner, got %q", created.Owner)
	}

	rec := doJSON(t, h.srv, "GET", "/api/tests/"+created.ID, "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var got model.TestRecord
	decodeJSON(t, rec, &got)
	if got.ID != created.ID || got.Results != nil || got.ErrorMessage != "" {
		t.Errorf("unexpected record: %+v", got)
	}
}

func TestServer_CreateTest_InvalidJSON(t *testing.T) {
	t.Parallel()
	h := newHarness(t, "")

	rec := doJSON(t, h.srv, "POST", "/api/tests", `{invalid}`, "")

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestServer_CreateTest_ValidationErrors(t *testing.T) {
	t.Parallel()
	h := newHarness(t, "")

	for _, body := range []string{
		`{"url":"not a url","testType":"seo"}`,
		`{"url":"https://example.com","testType":"speed"}`,
		`{"url":"https://example.com"}`,
		`{"url":"https://example.com","testType":"security","parameters":{"scanType":"deep"}}`,
	} {
		rec := doJSON(t, h.srv, "POST", "/api/tests", body, "")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", body, rec.Code)
		}
	}
}

func TestServer_GetTest_NotFound(t *testing.T) {
	t.Parallel()
	h := newHarness(t, "")

	rec := doJSON(t, h.srv, "GET", "/api/tests/missing", "", "")

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

// ─── Run ───────────────────────────────────────────────────────────────

func TestServer_RunTest_Completed(t *testing.T) {
	t.Parallel()
	h := newHarness(t, "")
	created := createTest(t, h.srv, "performance", "")

	rec := doJSON(t, h.srv, "PUT", "/api/tests/"+created.ID+"/run", "", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var got model.TestRecord
	decodeJSON(t, rec, &got)
	if got.Status != model.StatusCompleted {
		t.Errorf("expected completed, got %s", got.Status)
	}
	if got.Score == nil || *got.Score != 91 {
		t.Errorf("expected score 91, got %v", got.Score)
	}
	if got.Results == nil || got.Results.Performance == nil {
		t.Fatalf("expected performance results")
	}
}

func TestServer_RunTest_RunnerFailureCarriesRecord(t *testing.T) {
	t.Parallel()
	h := newHarness(t, "")
	created := createTest(t, h.srv, "security", "")

	rec := doJSON(t, h.srv, "PUT", "/api/tests/"+created.ID+"/run", "", "")

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	var body server.RunFailedResponse
	decodeJSON(t, rec, &body)
	if body.Test == nil || body.Test.Status != model.StatusFailed {
		t.Fatalf("expected failed record in body, got %+v", body)
	}
	if !strings.Contains(body.Error, "503") {
		t.Errorf("expected engine message in error, got %q", body.Error)
	}
}

func TestServer_RunTest_NotSupported(t *testing.T) {
	t.Parallel()
	h := newHarness(t, "")
	created := createTest(t, h.srv, "browser", "")

	rec := doJSON(t, h.srv, "PUT", "/api/tests/"+created.ID+"/run", "", "")

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	if len(h.perf.Calls()) != 0 {
		t.Errorf("no engine should have run")
	}
}

// ─── Auth ──────────────────────────────────────────────────────────────

func TestServer_Auth_MissingAndBadToken(t *testing.T) {
	t.Parallel()
	h := newHarness(t, secret)

	if rec := doJSON(t, h.srv, "GET", "/api/tests", "", ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("no token: expected 401, got %d", rec.Code)
	}
	if rec := doJSON(t, h.srv, "GET", "/api/tests", "", "garbage"); rec.Code != http.StatusUnauthorized {
		t.Errorf("garbage token: expected 401, got %d", rec.Code)
	}
	forged, err := server.IssueToken("other-secret", model.Caller{ID: "alice", Role: model.RoleAdmin}, time.Hour)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	if rec := doJSON(t, h.srv, "GET", "/api/tests", "", forged); rec.Code != http.StatusUnauthorized {
		t.Errorf("forged token: expected 401, got %d", rec.Code)
	}
	noExpiry, err := server.IssueToken(secret, model.Caller{ID: "alice"}, 0)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	if rec := doJSON(t, h.srv, "GET", "/api/tests", "", noExpiry); rec.Code != http.StatusOK {
		t.Errorf("no-expiry token: expected 200, got %d", rec.Code)
	}

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "alice",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	}).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if rec := doJSON(t, h.srv, "GET", "/api/tests", "", expired); rec.Code != http.StatusUnauthorized {
		t.Errorf("expired token: expected 401, got %d", rec.Code)
	}

	noneAlg, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "alice", "role": "admin"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}
	if rec := doJSON(t, h.srv, "GET", "/api/tests", "", noneAlg); rec.Code != http.StatusUnauthorized {
		t.Errorf("alg none token: expected 401, got %d", rec.Code)
	}
}

func TestServer_Auth_OwnershipEnforced(t *testing.T) {
	t.Parallel()
	h := newHarness(t, secret)
	alice := token(t, model.Caller{ID: "alice", Role: model.RoleUser})
	bob := token(t, model.Caller{ID: "bob", Role: model.RoleUser})
	root := token(t, model.Caller{ID: "root", Role: model.RoleAdmin})

	created := createTest(t, h.srv, "performance", alice)
	if created.Owner != "alice" {
		t.Fatalf("expected owner alice, got %q", created.Owner)
	}

	for _, c := range []struct{ method, path string }{
		{"GET", "/api/tests/" + created.ID},
		{"PUT", "/api/tests/" + created.ID + "/run"},
		{"DELETE", "/api/tests/" + created.ID},
		{"GET", "/api/tests/" + created.ID + "/history"},
	} {
		if rec := doJSON(t, h.srv, c.method, c.path, "", bob); rec.Code != http.StatusForbidden {
			t.Errorf("%s %s as bob: expected 403, got %d", c.method, c.path, rec.Code)
		}
	}
	if len(h.perf.Calls()) != 0 {
		t.Errorf("forbidden run reached the engine")
	}

	if rec := doJSON(t, h.srv, "GET", "/api/tests/"+created.ID, "", root); rec.Code != http.StatusOK {
		t.Errorf("admin: expected 200, got %d", rec.Code)
	}

	var list []model.TestRecord
	rec := doJSON(t, h.srv, "GET", "/api/tests", "", bob)
	decodeJSON(t, rec, &list)
	if len(list) != 0 {
		t.Errorf("bob should see no tests, got %d", len(list))
	}
}

// ─── Delete / List / Stats ─────────────────────────────────────────────

func TestServer_DeleteTwice(t *testing.T) {
	t.Parallel()
	h := newHarness(t, "")
	created := createTest(t, h.srv, "seo", "")

	if rec := doJSON(t, h.srv, "DELETE", "/api/tests/"+created.ID, "", ""); rec.Code != http.StatusNoContent {
		t.Fatalf("first delete: expected 204, got %d", rec.Code)
	}
	if rec := doJSON(t, h.srv, "DELETE", "/api/tests/"+created.ID, "", ""); rec.Code != http.StatusNotFound {
		t.Errorf("second delete: expected 404, got %d", rec.Code)
	}
}

func TestServer_ListPaginated(t *testing.T) {
	t.Parallel()
	h := newHarness(t, "")
	for i := 0; i < 25; i++ {
		createTest(t, h.srv, "performance", "")
	}

	rec := doJSON(t, h.srv, "GET", "/api/tests/paginated?page=2&pageSize=10", "", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var page server.TestPage
	decodeJSON(t, rec, &page)
	if len(page.Items) != 10 || page.TotalPages != 3 || page.TotalCount != 25 || page.Page != 2 {
		t.Errorf("unexpected page: items=%d totalPages=%d totalCount=%d page=%d",
			len(page.Items), page.TotalPages, page.TotalCount, page.Page)
	}

	if rec := doJSON(t, h.srv, "GET", "/api/tests/paginated?page=two", "", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for non-numeric page, got %d", rec.Code)
	}
}

func TestServer_ListFilterByType(t *testing.T) {
	t.Parallel()
	h := newHarness(t, "")
	createTest(t, h.srv, "performance", "")
	createTest(t, h.srv, "seo", "")

	var list []model.TestRecord
	rec := doJSON(t, h.srv, "GET", "/api/tests?type=seo", "", "")
	decodeJSON(t, rec, &list)
	if len(list) != 1 || list[0].TestType != model.TestSEO {
		t.Errorf("expected one seo test, got %+v", list)
	}

	if rec := doJSON(t, h.srv, "GET", "/api/tests?type=speed", "", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown type, got %d", rec.Code)
	}
}

func TestServer_Stats(t *testing.T) {
	t.Parallel()
	h := newHarness(t, "")
	perf := createTest(t, h.srv, "performance", "")
	sec := createTest(t, h.srv, "security", "")
	createTest(t, h.srv, "seo", "")
	doJSON(t, h.srv, "PUT", "/api/tests/"+perf.ID+"/run", "", "")
	doJSON(t, h.srv, "PUT", "/api/tests/"+sec.ID+"/run", "", "")

	var stats model.Stats
	decodeJSON(t, doJSON(t, h.srv, "GET", "/api/tests/stats", "", ""), &stats)

	want := model.Stats{TotalTests: 3, PendingTests: 1, CompletedTests: 1, FailedTests: 1, AvgPerformance: 91}
	if stats != want {
		t.Errorf("expected %+v, got %+v", want, stats)
	}
}

// ─── Demo / History ────────────────────────────────────────────────────

func TestServer_Demo(t *testing.T) {
	t.Parallel()
	h := newHarness(t, "")

	rec := doJSON(t, h.srv, "POST", "/api/tests/demo", `{"testType":"seo"}`, "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var demo app.DemoResult
	decodeJSON(t, rec, &demo)
	if demo.Results == nil || !demo.Results.Synthetic || demo.Score != 88 {
		t.Errorf("unexpected demo: %+v", demo)
	}

	var list []model.TestRecord
	decodeJSON(t, doJSON(t, h.srv, "GET", "/api/tests", "", ""), &list)
	if len(list) != 0 {
		t.Errorf("demo must not persist, found %d tests", len(list))
	}

	if rec := doJSON(t, h.srv, "POST", "/api/tests/demo", `{"testType":"speed"}`, ""); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown type, got %d", rec.Code)
	}
}

func TestServer_HistoryAndCompare(t *testing.T) {
	t.Parallel()
	h := newHarness(t, "")
	created := createTest(t, h.srv, "performance", "")
	doJSON(t, h.srv, "PUT", "/api/tests/"+created.ID+"/run", "", "")
	h.perf.Raw = &runner.PerformanceRaw{Report: testutil.PerformanceReport(0.81)}
	doJSON(t, h.srv, "PUT", "/api/tests/"+created.ID+"/run", "", "")

	var runs []model.RunEntry
	decodeJSON(t, doJSON(t, h.srv, "GET", "/api/tests/"+created.ID+"/history?limit=5", "", ""), &runs)
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}

	var cmp app.Comparison
	decodeJSON(t, doJSON(t, h.srv, "GET", "/api/tests/"+created.ID+"/compare", "", ""), &cmp)
	if cmp.ScoreDelta == nil || *cmp.ScoreDelta != -10 {
		t.Errorf("expected delta -10, got %v", cmp.ScoreDelta)
	}
	if cmp.Patch == "" {
		t.Errorf("expected a results patch")
	}
}

// ─── WebSocket ─────────────────────────────────────────────────────────

func TestServer_WebSocketStreamsTransitions(t *testing.T) {
	t.Parallel()
	h := newHarness(t, secret)
	alice := token(t, model.Caller{ID: "alice"})
	created := createTest(t, h.srv, "performance", alice)

	ts := httptest.NewServer(h.srv)
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/tests/" + created.ID + "?token=" + alice
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var snapshot events.Event
	if err := conn.ReadJSON(&snapshot); err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	if snapshot.Status != model.StatusPending {
		t.Errorf("expected pending snapshot, got %s", snapshot.Status)
	}

	if rec := doJSON(t, h.srv, "PUT", "/api/tests/"+created.ID+"/run", "", alice); rec.Code != http.StatusOK {
		t.Fatalf("run: expected 200, got %d", rec.Code)
	}

	var running, done events.Event
	if err := conn.ReadJSON(&running); err != nil {
		t.Fatalf("read running: %v", err)
	}
	if err := conn.ReadJSON(&done); err != nil {
		t.Fatalf("read result: %v", err)
	}
	if running.Status != model.StatusRunning {
		t.Errorf("expected running, got %s", running.Status)
	}
	if done.Type != events.TypeResult || done.Status != model.StatusCompleted || done.Score == nil || *done.Score != 91 {
		t.Errorf("unexpected result event: %+v", done)
	}
}

func TestServer_WebSocketForbiddenBeforeUpgrade(t *testing.T) {
	t.Parallel()
	h := newHarness(t, secret)
	created := createTest(t, h.srv, "performance", token(t, model.Caller{ID: "alice"}))

	rec := doJSON(t, h.srv, "GET", "/ws/tests/"+created.ID+"?token="+token(t, model.Caller{ID: "bob"}), "", "")

	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", rec.Code)
	}
}

// transitionOnSubscribe finishes a run at the moment the stream subscribes,
// before the hub sees the subscription.
type transitionOnSubscribe struct {
	hub  *events.Hub
	once sync.Once
	fn   func()
}

func (s *transitionOnSubscribe) Subscribe(testID string) (<-chan events.Event, func()) {
	s.once.Do(s.fn)
	return s.hub.Subscribe(testID)
}

func TestServer_WebSocketSnapshotFollowsSubscription(t *testing.T) {
	t.Parallel()
	hub := events.NewHub(events.DefaultBuffer)
	t.Cleanup(hub.Close)
	perf := &testutil.FakeRunner{Raw: &runner.PerformanceRaw{Report: testutil.PerformanceReport(0.91)}}
	orch := app.NewOrchestrator(store.NewMemoryStore(), runner.NewRegistry(map[model.TestType]runner.Runner{
		model.TestPerformance: perf,
	}), &testutil.DummyLogger{}, app.WithEvents(hub))

	alice := model.Caller{ID: "alice", Role: model.RoleUser}
	created, err := orch.Create(context.Background(), alice, model.TestRequest{URL: "https://example.com", TestType: model.TestPerformance})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	sub := &transitionOnSubscribe{hub: hub, fn: func() {
		if _, err := orch.Run(context.Background(), alice, created.ID); err != nil {
			t.Errorf("Run: %v", err)
		}
	}}
	srv := server.NewServer(server.Config{
		ServerConfig: app.ServerConfig{Addr: ":0", JWTSecret: secret, AllowedOrigin: "*"},
		Orchestrator: orch,
		Events:       sub,
		Logger:       &testutil.DummyLogger{},
	})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/tests/" + created.ID + "?token=" + token(t, alice)
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var snapshot events.Event
	if err := conn.ReadJSON(&snapshot); err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	if snapshot.Status != model.StatusCompleted || snapshot.Score == nil || *snapshot.Score != 91 {
		t.Errorf("snapshot should reflect the run finished during subscription, got %+v", snapshot)
	}
}
