package app_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/raysh454/sitecheck/internal/app"
	"github.com/raysh454/sitecheck/internal/browser"
	"github.com/raysh454/sitecheck/internal/events"
	"github.com/raysh454/sitecheck/internal/model"
	"github.com/raysh454/sitecheck/internal/runner"
	"github.com/raysh454/sitecheck/internal/store"
	"github.com/raysh454/sitecheck/internal/testutil"
)

var (
	alice = model.Caller{ID: "alice", Role: model.RoleUser}
	bob   = model.Caller{ID: "bob", Role: model.RoleUser}
	admin = model.Caller{ID: "root", Role: model.RoleAdmin}
)

type fixture struct {
	orch   *app.Orchestrator
	store  *store.MemoryStore
	hub    *events.Hub
	logger *testutil.DummyLogger
	clock  *testutil.StepClock
}

func newFixture(t *testing.T, runners map[model.TestType]runner.Runner) *fixture {
	t.Helper()
	f := &fixture{
		store:  store.NewMemoryStore(),
		hub:    events.NewHub(32),
		logger: &testutil.DummyLogger{},
		clock:  &testutil.StepClock{},
	}
	f.orch = app.NewOrchestrator(f.store, runner.NewRegistry(runners), f.logger,
		app.WithClock(f.clock.Now),
		app.WithEvents(f.hub),
	)
	t.Cleanup(f.hub.Close)
	return f
}

func (f *fixture) create(t *testing.T, caller model.Caller, typ model.TestType) *model.TestRecord {
	t.Helper()
	rec, err := f.orch.Create(context.Background(), caller, model.TestRequest{URL: "https://example.com", TestType: typ})
	if err != nil {
		t.Fatalf("Create(%s): %v", typ, err)
	}
	return rec
}

func (f *fixture) run(t *testing.T, caller model.Caller, id string) *model.TestRecord {
	t.Helper()
	rec, err := f.orch.Run(context.Background(), caller, id)
	if err != nil {
		t.Fatalf("Run(%s): %v", id, err)
	}
	return rec
}

func perfRunner(score float64) *testutil.FakeRunner {
	return &testutil.FakeRunner{Raw: &runner.PerformanceRaw{Report: testutil.PerformanceReport(score)}}
}

func wantKind(t *testing.T, err, kind error) {
	t.Helper()
	if !errors.Is(err, kind) {
		t.Fatalf("expected %v, got %v", kind, err)
	}
}

// ─── Create / Get ──────────────────────────────────────────────────────

func TestCreate_ThenGetIsPending(t *testing.T) {
	f := newFixture(t, nil)
	rec, err := f.orch.Create(context.Background(), alice, model.TestRequest{
		URL: "Example.com", TestType: model.TestSEO,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := f.orch.Get(context.Background(), alice, rec.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != model.StatusPending {
		t.Errorf("expected pending, got %s", got.Status)
	}
	if got.Results != nil || got.Score != nil || got.ErrorMessage != "" {
		t.Errorf("pending record carries outcome: %+v", got)
	}
	if got.Owner != "alice" {
		t.Errorf("expected owner alice, got %q", got.Owner)
	}
	if got.URL != "https://example.com/" {
		t.Errorf("expected canonical url, got %q", got.URL)
	}
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture(t, nil)
	cases := map[string]model.TestRequest{
		"empty url":       {URL: "", TestType: model.TestSEO},
		"not a url":       {URL: "not a url", TestType: model.TestSEO},
		"ftp scheme":      {URL: "ftp://example.com", TestType: model.TestSEO},
		"missing type":    {URL: "https://example.com"},
		"unknown type":    {URL: "https://example.com", TestType: "speed"},
		"bad scan type":   {URL: "https://example.com", TestType: model.TestSecurity, Parameters: map[string]any{"scanType": "deep"}},
		"browsers string": {URL: "https://example.com", TestType: model.TestBrowser, Parameters: map[string]any{"browsers": "firefox"}},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.orch.Create(context.Background(), alice, req)
			wantKind(t, err, app.ErrValidation)
		})
	}

	n, err := f.store.Count(context.Background(), "", model.Filter{})
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 0 {
		t.Errorf("rejected requests must not be persisted, found %d", n)
	}
}

func TestCreate_LocalURLsNeedOptIn(t *testing.T) {
	f := newFixture(t, nil)
	req := model.TestRequest{URL: "http://localhost:8081/perf", TestType: model.TestPerformance}

	_, err := f.orch.Create(context.Background(), alice, req)
	wantKind(t, err, app.ErrValidation)

	local := app.NewOrchestrator(f.store, runner.NewRegistry(nil), nil, app.WithLocalURLs(true))
	rec, err := local.Create(context.Background(), alice, req)
	if err != nil {
		t.Fatalf("Create with local urls: %v", err)
	}
	if rec.URL != "http://localhost:8081/perf" {
		t.Errorf("unexpected url %q", rec.URL)
	}
}

func TestCreate_AdminMayCreateForOthers(t *testing.T) {
	f := newFixture(t, nil)
	rec, err := f.orch.Create(context.Background(), admin, model.TestRequest{Owner: "alice", URL: "example.com", TestType: model.TestSEO})
	if err != nil {
		t.Fatalf("admin Create: %v", err)
	}
	if rec.Owner != "alice" {
		t.Errorf("admin should create for alice, got owner %q", rec.Owner)
	}

	rec, err = f.orch.Create(context.Background(), bob, model.TestRequest{Owner: "alice", URL: "example.com", TestType: model.TestSEO})
	if err != nil {
		t.Fatalf("user Create: %v", err)
	}
	if rec.Owner != "bob" {
		t.Errorf("non-admin owner override must be ignored, got %q", rec.Owner)
	}
}

// ─── Run ───────────────────────────────────────────────────────────────

func TestRun_CompletesWithScore(t *testing.T) {
	perf := perfRunner(0.87)
	f := newFixture(t, map[model.TestType]runner.Runner{model.TestPerformance: perf})
	rec := f.create(t, alice, model.TestPerformance)
	evs, unsubscribe := f.hub.Subscribe(rec.ID)
	defer unsubscribe()

	got := f.run(t, alice, rec.ID)
	if got.Status != model.StatusCompleted {
		t.Fatalf("expected completed, got %s", got.Status)
	}
	if got.Results == nil || got.Results.Performance == nil {
		t.Fatal("expected performance results")
	}
	if got.Results.Synthetic {
		t.Error("real run must not be synthetic")
	}
	if got.Score == nil || *got.Score != 87 {
		t.Errorf("expected score 87, got %v", got.Score)
	}
	if got.ErrorMessage != "" {
		t.Errorf("unexpected error message %q", got.ErrorMessage)
	}
	if calls := perf.Calls(); len(calls) != 1 || calls[0] != "https://example.com/" {
		t.Errorf("unexpected runner calls %v", calls)
	}

	stored, err := f.store.Find(context.Background(), rec.ID)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if stored.Status != model.StatusCompleted {
		t.Errorf("stored status %s", stored.Status)
	}
	if !stored.UpdatedAt.After(stored.CreatedAt) {
		t.Error("UpdatedAt should advance past CreatedAt")
	}

	if ev := <-evs; ev.Status != model.StatusRunning {
		t.Errorf("first event status %s, want running", ev.Status)
	}
	final := <-evs
	if final.Type != events.TypeResult || final.Status != model.StatusCompleted {
		t.Errorf("final event %+v", final)
	}
}

func TestRun_RunnerFailureIsPersisted(t *testing.T) {
	boom := &runner.Error{Runner: model.TestSecurity, Message: "observatory returned status 503"}
	f := newFixture(t, map[model.TestType]runner.Runner{model.TestSecurity: &testutil.FakeRunner{Err: boom}})
	rec := f.create(t, alice, model.TestSecurity)

	got, err := f.orch.Run(context.Background(), alice, rec.ID)
	wantKind(t, err, app.ErrRunner)
	var re *runner.Error
	if !errors.As(err, &re) || re.Runner != model.TestSecurity {
		t.Fatalf("expected wrapped security runner.Error, got %v", err)
	}

	if got == nil {
		t.Fatal("the failed record is returned with the error")
	}
	if got.Status != model.StatusFailed || got.Results != nil || got.Score != nil {
		t.Errorf("unexpected failed record %+v", got)
	}
	if !strings.Contains(got.ErrorMessage, "503") {
		t.Errorf("error message %q should mention 503", got.ErrorMessage)
	}

	stored, _ := f.store.Find(context.Background(), rec.ID)
	if stored.Status != model.StatusFailed {
		t.Errorf("stored status %s, want failed", stored.Status)
	}
}

func TestRun_NavigationFailureClosesSession(t *testing.T) {
	sessions := &testutil.FakeSessionFactory{NavigateErr: errors.New("net::ERR_NAME_NOT_RESOLVED")}
	axe := runner.NewAxeEngineFromSource("/* axe */", []string{"wcag2a"})
	f := newFixture(t, map[model.TestType]runner.Runner{
		model.TestAccessibility: runner.NewAccessibilityRunner(sessions, axe, time.Minute),
	})
	rec := f.create(t, alice, model.TestAccessibility)

	got, err := f.orch.Run(context.Background(), alice, rec.ID)
	var navErr *browser.NavigationError
	if !errors.As(err, &navErr) {
		t.Fatalf("expected NavigationError, got %v", err)
	}
	if got.Status != model.StatusFailed {
		t.Errorf("expected failed, got %s", got.Status)
	}
	if sessions.Acquired() != 1 || sessions.Closed() != 1 {
		t.Errorf("acquired=%d closed=%d, want 1/1", sessions.Acquired(), sessions.Closed())
	}
}

func TestRun_NotSupportedBeforeAnySideEffect(t *testing.T) {
	sessions := &testutil.FakeSessionFactory{}
	f := newFixture(t, map[model.TestType]runner.Runner{
		model.TestPerformance: runner.NewPerformanceRunner(sessions, &testutil.FakeAuditor{}, time.Minute),
	})
	rec := f.create(t, alice, model.TestBrowser)

	got, err := f.orch.Run(context.Background(), alice, rec.ID)
	if got != nil {
		t.Errorf("expected no record, got %+v", got)
	}
	wantKind(t, err, app.ErrNotSupported)
	wantKind(t, err, runner.ErrNotSupported)
	if sessions.Acquired() != 0 {
		t.Errorf("no session may be acquired, got %d", sessions.Acquired())
	}

	stored, _ := f.store.Find(context.Background(), rec.ID)
	if stored.Status != model.StatusPending || !stored.UpdatedAt.Equal(rec.UpdatedAt) {
		t.Errorf("record was touched: %+v", stored)
	}
}

func TestRun_UnknownID(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.orch.Run(context.Background(), alice, "missing")
	wantKind(t, err, app.ErrNotFound)
}

func TestRun_RerunClearsPreviousOutcome(t *testing.T) {
	flaky := perfRunner(0.9)
	f := newFixture(t, map[model.TestType]runner.Runner{model.TestPerformance: flaky})
	rec := f.create(t, alice, model.TestPerformance)

	if first := f.run(t, alice, rec.ID); first.Results == nil {
		t.Fatal("first run should have results")
	}

	var seen *model.TestRecord
	flaky.Hook = func(ctx context.Context, _ string, _ runner.Params) error {
		seen, _ = f.store.Find(ctx, rec.ID)
		return &runner.Error{Runner: model.TestPerformance, Message: "lighthouse exited with status 1"}
	}
	second, err := f.orch.Run(context.Background(), alice, rec.ID)
	if err == nil {
		t.Fatal("expected second run to fail")
	}

	if seen == nil {
		t.Fatal("hook never observed the running record")
	}
	if seen.Status != model.StatusRunning || seen.Results != nil || seen.Score != nil {
		t.Errorf("running state carries stale outcome: %+v", seen)
	}
	if second.Status != model.StatusFailed || second.Results != nil || second.Score != nil || second.ErrorMessage == "" {
		t.Errorf("unexpected failed record %+v", second)
	}

	flaky.Hook = nil
	third := f.run(t, alice, rec.ID)
	if third.Status != model.StatusCompleted || third.ErrorMessage != "" {
		t.Errorf("rerun should clear the error: %+v", third)
	}
}

func TestRun_MismatchedOutputFails(t *testing.T) {
	wrong := &testutil.FakeRunner{Raw: &runner.AccessibilityRaw{Axe: testutil.AxeResults(0, 1)}}
	f := newFixture(t, map[model.TestType]runner.Runner{model.TestSEO: wrong})
	rec := f.create(t, alice, model.TestSEO)

	got, err := f.orch.Run(context.Background(), alice, rec.ID)
	wantKind(t, err, app.ErrRunner)
	if got.Status != model.StatusFailed {
		t.Errorf("expected failed, got %s", got.Status)
	}
}

func TestRun_CanceledCallerStillPersistsTerminalState(t *testing.T) {
	slow := &testutil.FakeRunner{Hook: func(ctx context.Context, _ string, _ runner.Params) error {
		<-ctx.Done()
		return &runner.Error{Runner: model.TestPerformance, Message: "audit did not complete in time", Err: ctx.Err()}
	}}
	f := newFixture(t, map[model.TestType]runner.Runner{model.TestPerformance: slow})
	rec := f.create(t, alice, model.TestPerformance)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	got, err := f.orch.Run(ctx, alice, rec.ID)
	wantKind(t, err, context.DeadlineExceeded)
	if got.Status != model.StatusFailed {
		t.Errorf("expected failed, got %s", got.Status)
	}

	stored, _ := f.store.Find(context.Background(), rec.ID)
	if stored.Status != model.StatusFailed {
		t.Errorf("stored status %s, want failed", stored.Status)
	}
}

// ─── Ownership / Delete ────────────────────────────────────────────────

func TestOwnership_NonOwnerIsForbidden(t *testing.T) {
	perf := perfRunner(0.5)
	f := newFixture(t, map[model.TestType]runner.Runner{model.TestPerformance: perf})
	ctx := context.Background()

	pending := f.create(t, alice, model.TestPerformance)
	done := f.create(t, alice, model.TestPerformance)
	f.run(t, alice, done.ID)

	for _, rec := range []*model.TestRecord{pending, done} {
		_, err := f.orch.Get(ctx, bob, rec.ID)
		wantKind(t, err, app.ErrForbidden)
		_, err = f.orch.Run(ctx, bob, rec.ID)
		wantKind(t, err, app.ErrForbidden)
		wantKind(t, f.orch.Delete(ctx, bob, rec.ID), app.ErrForbidden)
		_, err = f.orch.History(ctx, bob, rec.ID, 0)
		wantKind(t, err, app.ErrForbidden)
	}
	if n := len(perf.Calls()); n != 1 {
		t.Errorf("forbidden runs never reach the engine, got %d calls", n)
	}

	got, err := f.orch.Get(ctx, admin, pending.ID)
	if err != nil {
		t.Fatalf("admin Get: %v", err)
	}
	if got.ID != pending.ID {
		t.Errorf("admin got %s, want %s", got.ID, pending.ID)
	}
}

func TestAnonymousCaller_ListsNothing(t *testing.T) {
	f := newFixture(t, nil)
	f.create(t, alice, model.TestSEO)
	f.create(t, bob, model.TestPerformance)
	ctx := context.Background()
	anonymous := model.Caller{}

	recs, err := f.orch.List(ctx, anonymous, model.Filter{})
	wantKind(t, err, app.ErrForbidden)
	if recs != nil {
		t.Errorf("List leaked %d records", len(recs))
	}

	page, err := f.orch.ListPaginated(ctx, anonymous, 1, 10, model.Filter{})
	wantKind(t, err, app.ErrForbidden)
	if page != nil {
		t.Errorf("ListPaginated leaked a page with total %d", page.TotalCount)
	}

	if stats := f.orch.Stats(ctx, anonymous); stats != (model.Stats{}) {
		t.Errorf("Stats leaked %+v", stats)
	}

	// An admin role without an id is still anonymous for listings.
	_, err = f.orch.List(ctx, model.Caller{Role: model.RoleAdmin}, model.Filter{})
	wantKind(t, err, app.ErrForbidden)
}

func TestWithAuthorizer_Overrides(t *testing.T) {
	st := store.NewMemoryStore()
	denyAll := app.AuthorizerFunc(func(model.Caller, *model.TestRecord) bool { return false })
	orch := app.NewOrchestrator(st, runner.NewRegistry(nil), nil, app.WithAuthorizer(denyAll))

	rec, err := orch.Create(context.Background(), alice, model.TestRequest{URL: "example.com", TestType: model.TestSEO})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	_, err = orch.Get(context.Background(), alice, rec.ID)
	wantKind(t, err, app.ErrForbidden)
}

func TestDelete_Twice(t *testing.T) {
	f := newFixture(t, nil)
	rec := f.create(t, alice, model.TestSEO)

	if err := f.orch.Delete(context.Background(), alice, rec.ID); err != nil {
		t.Fatalf("first Delete: %v", err)
	}
	wantKind(t, f.orch.Delete(context.Background(), alice, rec.ID), app.ErrNotFound)
	wantKind(t, f.orch.Delete(context.Background(), alice, "never-existed"), app.ErrNotFound)
}

// ─── Listing ───────────────────────────────────────────────────────────

func TestListPaginated_SecondPage(t *testing.T) {
	f := newFixture(t, nil)
	var ids []string
	for i := 0; i < 25; i++ {
		ids = append(ids, f.create(t, alice, model.TestPerformance).ID)
	}
	f.create(t, bob, model.TestPerformance)

	page, err := f.orch.ListPaginated(context.Background(), alice, 2, 10, model.Filter{})
	if err != nil {
		t.Fatalf("ListPaginated: %v", err)
	}
	if len(page.Items) != 10 || page.TotalCount != 25 || page.TotalPages != 3 || page.Page != 2 {
		t.Fatalf("unexpected page: items=%d total=%d pages=%d page=%d",
			len(page.Items), page.TotalCount, page.TotalPages, page.Page)
	}
	// Newest first: page 2 starts at the 11th most recent record.
	if page.Items[0].ID != ids[14] || page.Items[9].ID != ids[5] {
		t.Errorf("page 2 spans %s..%s, want %s..%s", page.Items[0].ID, page.Items[9].ID, ids[14], ids[5])
	}
}

func TestListPaginated_Clamps(t *testing.T) {
	f := newFixture(t, nil)
	for i := 0; i < 3; i++ {
		f.create(t, alice, model.TestSEO)
	}
	ctx := context.Background()

	page, err := f.orch.ListPaginated(ctx, alice, 0, -5, model.Filter{})
	if err != nil {
		t.Fatalf("ListPaginated: %v", err)
	}
	if page.Page != 1 || page.PageSize != 1 || len(page.Items) != 1 || page.TotalPages != 3 {
		t.Errorf("low values not clamped: %+v", page)
	}

	page, err = f.orch.ListPaginated(ctx, alice, 1, 1000, model.Filter{})
	if err != nil {
		t.Fatalf("ListPaginated: %v", err)
	}
	if page.PageSize != app.MaxPageSize || len(page.Items) != 3 {
		t.Errorf("page size not capped: size=%d items=%d", page.PageSize, len(page.Items))
	}

	page, err = f.orch.ListPaginated(ctx, alice, 9, 10, model.Filter{})
	if err != nil {
		t.Fatalf("ListPaginated: %v", err)
	}
	if len(page.Items) != 0 || page.TotalPages != 1 {
		t.Errorf("past-the-end page: items=%d pages=%d", len(page.Items), page.TotalPages)
	}
}

func TestList_FiltersByType(t *testing.T) {
	f := newFixture(t, nil)
	f.create(t, alice, model.TestSEO)
	f.create(t, alice, model.TestPerformance)
	f.create(t, bob, model.TestSEO)

	recs, err := f.orch.List(context.Background(), alice, model.Filter{TestType: model.TestSEO})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(recs) != 1 || recs[0].TestType != model.TestSEO {
		t.Fatalf("expected one seo record, got %d", len(recs))
	}

	_, err = f.orch.List(context.Background(), alice, model.Filter{TestType: "speed"})
	wantKind(t, err, app.ErrValidation)
}

// ─── Stats ─────────────────────────────────────────────────────────────

func TestStats_Scenario(t *testing.T) {
	ctx := context.Background()
	runners := map[model.TestType]runner.Runner{
		model.TestPerformance: perfRunner(0.6),
		model.TestAll: &testutil.FakeRunner{Raw: &runner.CompositeRaw{Parts: map[model.TestType]runner.RawResult{
			model.TestPerformance: &runner.PerformanceRaw{Report: testutil.PerformanceReport(0.8)},
		}}},
		model.TestSEO: &testutil.FakeRunner{Err: &runner.Error{Runner: model.TestSEO, Message: "lighthouse failed"}},
	}
	f := newFixture(t, runners)

	perf := f.create(t, alice, model.TestPerformance)
	all := f.create(t, alice, model.TestAll)
	seo := f.create(t, alice, model.TestSEO)
	f.create(t, alice, model.TestSecurity)
	f.create(t, bob, model.TestPerformance)

	f.run(t, alice, perf.ID)
	f.run(t, alice, all.ID)
	if _, err := f.orch.Run(ctx, alice, seo.ID); err == nil {
		t.Fatal("expected seo run to fail")
	}

	want := model.Stats{
		TotalTests:     4,
		PendingTests:   1,
		CompletedTests: 2,
		FailedTests:    1,
		AvgPerformance: 70,
	}
	if got := f.orch.Stats(ctx, alice); got != want {
		t.Errorf("Stats = %+v, want %+v", got, want)
	}
}

func TestStats_EmptyOwner(t *testing.T) {
	f := newFixture(t, nil)
	if got := f.orch.Stats(context.Background(), alice); got != (model.Stats{}) {
		t.Errorf("expected zero stats, got %+v", got)
	}
}

type failingListStore struct {
	*store.MemoryStore
}

func (failingListStore) List(context.Context, string, model.Filter, int, int) ([]*model.TestRecord, error) {
	return nil, errors.New("disk I/O error")
}

func TestStats_StoreErrorDegradesToZero(t *testing.T) {
	logger := &testutil.DummyLogger{}
	orch := app.NewOrchestrator(failingListStore{store.NewMemoryStore()}, runner.NewRegistry(nil), logger)

	if got := orch.Stats(context.Background(), alice); got != (model.Stats{}) {
		t.Errorf("expected zero stats, got %+v", got)
	}
	if logger.ErrorCount() != 1 {
		t.Errorf("expected one logged error, got %d", logger.ErrorCount())
	}
}

// ─── Demo / history ────────────────────────────────────────────────────

func TestRunDemo_IsSyntheticAndNotPersisted(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	demo, err := f.orch.RunDemo(ctx, model.TestAll)
	if err != nil {
		t.Fatalf("RunDemo(all): %v", err)
	}
	if !demo.Results.Synthetic || demo.Results.Performance == nil || demo.Results.Security == nil {
		t.Errorf("unexpected demo results %+v", demo.Results)
	}
	if demo.Score != 85 {
		t.Errorf("demo score %d, want 85", demo.Score)
	}

	browserDemo, err := f.orch.RunDemo(ctx, model.TestBrowser)
	if err != nil {
		t.Fatalf("RunDemo(browser): %v", err)
	}
	if !browserDemo.Results.Browser.ScoreDerived || browserDemo.Score != 95 {
		t.Errorf("browser demo derived=%v score=%d", browserDemo.Results.Browser.ScoreDerived, browserDemo.Score)
	}

	_, err = f.orch.RunDemo(ctx, "speed")
	wantKind(t, err, app.ErrValidation)

	if n, _ := f.store.Count(ctx, "", model.Filter{}); n != 0 {
		t.Errorf("demo results were persisted: %d records", n)
	}
}

func TestHistoryAndCompare(t *testing.T) {
	perf := perfRunner(0.6)
	f := newFixture(t, map[model.TestType]runner.Runner{model.TestPerformance: perf})
	rec := f.create(t, alice, model.TestPerformance)
	ctx := context.Background()

	cmp, err := f.orch.CompareRuns(ctx, alice, rec.ID)
	if err != nil {
		t.Fatalf("CompareRuns before runs: %v", err)
	}
	if cmp.Current != nil {
		t.Error("no run yet, Current should be nil")
	}

	f.run(t, alice, rec.ID)
	perf.Raw = &runner.PerformanceRaw{Report: testutil.PerformanceReport(0.75)}
	f.run(t, alice, rec.ID)

	runs, err := f.orch.History(ctx, alice, rec.ID, 0)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if *runs[0].Score != 75 {
		t.Errorf("newest run score %d, want 75", *runs[0].Score)
	}
	if !runs[0].FinishedAt.After(runs[0].StartedAt) {
		t.Error("FinishedAt should be after StartedAt")
	}

	cmp, err = f.orch.CompareRuns(ctx, alice, rec.ID)
	if err != nil {
		t.Fatalf("CompareRuns: %v", err)
	}
	if cmp.ScoreDelta == nil || *cmp.ScoreDelta != 15 {
		t.Errorf("expected delta 15, got %v", cmp.ScoreDelta)
	}
	if !strings.Contains(cmp.Patch, "0.75") || !strings.Contains(cmp.Patch, "@@") {
		t.Errorf("unexpected patch:\n%s", cmp.Patch)
	}
}

func TestCompareRuns_IdenticalResultsHaveNoPatch(t *testing.T) {
	f := newFixture(t, map[model.TestType]runner.Runner{model.TestPerformance: perfRunner(0.5)})
	rec := f.create(t, alice, model.TestPerformance)
	f.run(t, alice, rec.ID)
	f.run(t, alice, rec.ID)

	cmp, err := f.orch.CompareRuns(context.Background(), alice, rec.ID)
	if err != nil {
		t.Fatalf("CompareRuns: %v", err)
	}
	if cmp.ScoreDelta == nil || *cmp.ScoreDelta != 0 {
		t.Errorf("expected zero delta, got %v", cmp.ScoreDelta)
	}
	if cmp.Patch != "" {
		t.Errorf("expected no patch, got:\n%s", cmp.Patch)
	}
}
