package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/raysh454/sitecheck/internal/events"
	"github.com/raysh454/sitecheck/internal/logging"
	"github.com/raysh454/sitecheck/internal/model"
	"github.com/raysh454/sitecheck/internal/normalize"
	"github.com/raysh454/sitecheck/internal/runner"
	"github.com/raysh454/sitecheck/internal/store"
	"github.com/raysh454/sitecheck/internal/utils"
)

// Orchestrator owns the test lifecycle: validation, ownership checks,
// dispatch to engine runners, normalization and persistence.
//
// Runs are synchronous. Two concurrent Run calls on the same id both
// execute and the later terminal write wins.
type Orchestrator struct {
	store   store.RecordStore
	runners *runner.Registry
	logger  logging.Logger

	auth       Authorizer
	events     events.Publisher
	now        func() time.Time
	newID      func() string
	allowLocal bool
	urlOpts    utils.CanonicalizeOptions
}

type Option func(*Orchestrator)

// WithClock sets the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

func WithAuthorizer(a Authorizer) Option {
	return func(o *Orchestrator) { o.auth = a }
}

// WithEvents publishes every status transition to p.
func WithEvents(p events.Publisher) Option {
	return func(o *Orchestrator) { o.events = p }
}

// WithLocalURLs also accepts localhost, explicit ports and query strings
// on Create.
func WithLocalURLs(allow bool) Option {
	return func(o *Orchestrator) { o.allowLocal = allow }
}

func WithIDs(newID func() string) Option {
	return func(o *Orchestrator) { o.newID = newID }
}

func NewOrchestrator(st store.RecordStore, runners *runner.Registry, logger logging.Logger, opts ...Option) *Orchestrator {
	if logger == nil {
		logger = logging.NewNop()
	}
	o := &Orchestrator{
		store:   st,
		runners: runners,
		logger:  logger.With(logging.Component("orchestrator")),
		auth:    OwnerOrAdmin,
		now:     func() time.Time { return time.Now().UTC() },
		newID:   uuid.NewString,
		urlOpts: utils.CanonicalizeOptions{DefaultScheme: "https"},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Create validates req and persists a pending record owned by the caller.
// Admins may create on behalf of req.Owner.
func (o *Orchestrator) Create(ctx context.Context, caller model.Caller, req model.TestRequest) (*model.TestRecord, error) {
	if err := utils.ValidateSiteURL(req.URL, o.allowLocal); err != nil {
		return nil, newErr(KindValidation, "invalid url", err)
	}
	if req.TestType == "" {
		return nil, newErr(KindValidation, "testType is required", nil)
	}
	if !req.TestType.Valid() {
		return nil, newErr(KindValidation, fmt.Sprintf("unknown testType %q", req.TestType), nil)
	}
	if err := runner.ValidateParams(req.TestType, req.Parameters); err != nil {
		return nil, newErr(KindValidation, "invalid parameters", err)
	}
	target, err := utils.Canonicalize(req.URL, o.urlOpts)
	if err != nil {
		return nil, newErr(KindValidation, "invalid url", err)
	}

	owner := caller.ID
	if req.Owner != "" && caller.IsAdmin() {
		owner = req.Owner
	}
	if owner == "" {
		return nil, newErr(KindValidation, "owner is required", nil)
	}

	now := o.now()
	rec := &model.TestRecord{
		ID:         o.newID(),
		Owner:      owner,
		URL:        target,
		TestType:   req.TestType,
		Parameters: req.Parameters,
		Status:     model.StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := o.store.Save(ctx, rec); err != nil {
		o.logger.Error("saving new test", logging.Err(err))
		return nil, newErr(KindInternal, "save test", err)
	}
	o.logger.Info("created test",
		logging.Field{Key: "test_id", Value: rec.ID},
		logging.Field{Key: "type", Value: string(rec.TestType)},
		logging.Field{Key: "url", Value: rec.URL})
	o.publish(rec, events.TypeStatus)
	return rec, nil
}

// load finds id and checks the caller may access it.
func (o *Orchestrator) load(ctx context.Context, caller model.Caller, id string) (*model.TestRecord, error) {
	rec, err := o.store.Find(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, newErr(KindNotFound, fmt.Sprintf("test %s not found", id), err)
	}
	if err != nil {
		o.logger.Error("loading test", logging.Field{Key: "test_id", Value: id}, logging.Err(err))
		return nil, newErr(KindInternal, "load test", err)
	}
	if !o.auth.CanAccess(caller, rec) {
		return nil, newErr(KindForbidden, fmt.Sprintf("not authorized for test %s", id), nil)
	}
	return rec, nil
}

func (o *Orchestrator) Get(ctx context.Context, caller model.Caller, id string) (*model.TestRecord, error) {
	return o.load(ctx, caller, id)
}

// Delete removes the record. A second Delete of the same id fails with
// NotFound.
func (o *Orchestrator) Delete(ctx context.Context, caller model.Caller, id string) error {
	if _, err := o.load(ctx, caller, id); err != nil {
		return err
	}
	err := o.store.Delete(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return newErr(KindNotFound, fmt.Sprintf("test %s not found", id), err)
	}
	if err != nil {
		o.logger.Error("deleting test", logging.Field{Key: "test_id", Value: id}, logging.Err(err))
		return newErr(KindInternal, "delete test", err)
	}
	o.logger.Info("deleted test", logging.Field{Key: "test_id", Value: id})
	return nil
}

// Run executes the record's engine and stores the terminal state.
//
// NotFound, Forbidden and NotSupported are reported before anything is
// written. When the engine fails the record is persisted as failed and
// returned together with a KindRunner error.
func (o *Orchestrator) Run(ctx context.Context, caller model.Caller, id string) (*model.TestRecord, error) {
	rec, err := o.load(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	run, err := o.runners.Lookup(rec.TestType)
	if err != nil {
		return nil, newErr(KindNotSupported, fmt.Sprintf("no runner for %q", rec.TestType), err)
	}

	startedAt := o.now()
	rec.Status = model.StatusRunning
	rec.Results = nil
	rec.Score = nil
	rec.ErrorMessage = ""
	rec.UpdatedAt = startedAt
	if err := o.store.Save(ctx, rec); err != nil {
		o.logger.Error("marking test running", logging.Field{Key: "test_id", Value: id}, logging.Err(err))
		return nil, newErr(KindInternal, "save test", err)
	}
	o.publish(rec, events.TypeStatus)

	log := o.logger.With(logging.Field{Key: "test_id", Value: id}, logging.Field{Key: "type", Value: string(rec.TestType)})
	log.Info("running test", logging.Field{Key: "url", Value: rec.URL})

	results, score, runErr := o.execute(ctx, run, rec)

	// The terminal state is written even when the caller has gone away.
	persistCtx := context.WithoutCancel(ctx)
	rec.UpdatedAt = o.now()
	if runErr != nil {
		rec.Status = model.StatusFailed
		rec.ErrorMessage = runErr.Error()
		log.Warn("test failed", logging.Err(runErr))
	} else {
		rec.Status = model.StatusCompleted
		rec.Results = results
		rec.Score = &score
		log.Info("test completed", logging.Field{Key: "score", Value: score})
	}
	if err := o.store.Save(persistCtx, rec); err != nil {
		log.Error("saving terminal state", logging.Err(err))
		return nil, newErr(KindInternal, "save test", err)
	}
	o.recordRun(persistCtx, rec, startedAt, log)
	o.publish(rec, events.TypeResult)

	if runErr != nil {
		return rec, newErr(KindRunner, "", runErr)
	}
	return rec, nil
}

func (o *Orchestrator) execute(ctx context.Context, run runner.Runner, rec *model.TestRecord) (*model.Results, int, error) {
	raw, err := run.Run(ctx, rec.URL, runner.Params(rec.Parameters))
	if err != nil {
		return nil, 0, err
	}
	results, err := normalize.Normalize(rec.TestType, raw)
	if err != nil {
		return nil, 0, &runner.Error{Runner: rec.TestType, Message: "unusable engine output", Err: err}
	}
	score, ok := normalize.DisplayedScore(rec.TestType, results)
	if !ok {
		return nil, 0, &runner.Error{Runner: rec.TestType, Message: "engine reported no score"}
	}
	return results, score, nil
}

func (o *Orchestrator) recordRun(ctx context.Context, rec *model.TestRecord, startedAt time.Time, log logging.Logger) {
	entry := &model.RunEntry{
		ID:           o.newID(),
		TestID:       rec.ID,
		Status:       rec.Status,
		Score:        rec.Score,
		Results:      rec.Results,
		ErrorMessage: rec.ErrorMessage,
		StartedAt:    startedAt,
		FinishedAt:   rec.UpdatedAt,
	}
	if err := o.store.AppendRun(ctx, entry); err != nil {
		log.Warn("recording run history", logging.Err(err))
	}
}

func (o *Orchestrator) publish(rec *model.TestRecord, typ events.Type) {
	if o.events == nil {
		return
	}
	o.events.Publish(events.Event{
		TestID: rec.ID,
		Type:   typ,
		Status: rec.Status,
		Score:  rec.Score,
		Error:  rec.ErrorMessage,
		At:     rec.UpdatedAt,
	})
}

// scopeOf returns the owner a listing is restricted to. The store treats an
// empty owner as every record, so an anonymous caller is refused.
func scopeOf(caller model.Caller) (string, error) {
	if caller.ID == "" {
		return "", newErr(KindForbidden, "caller has no identity", nil)
	}
	return caller.ID, nil
}

func (o *Orchestrator) checkFilter(f model.Filter) error {
	if f.TestType != "" && !f.TestType.Valid() {
		return newErr(KindValidation, fmt.Sprintf("unknown testType %q", f.TestType), nil)
	}
	return nil
}

// List returns every record the caller owns, most recent first.
func (o *Orchestrator) List(ctx context.Context, caller model.Caller, f model.Filter) ([]*model.TestRecord, error) {
	owner, err := scopeOf(caller)
	if err != nil {
		return nil, err
	}
	if err := o.checkFilter(f); err != nil {
		return nil, err
	}
	recs, err := o.store.List(ctx, owner, f, 0, 0)
	if err != nil {
		o.logger.Error("listing tests", logging.Err(err))
		return nil, newErr(KindInternal, "list tests", err)
	}
	return recs, nil
}

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// ListPaginated returns one page of the caller's records. page and
// pageSize below 1 are raised to 1; pageSize is capped at MaxPageSize.
func (o *Orchestrator) ListPaginated(ctx context.Context, caller model.Caller, page, pageSize int, f model.Filter) (*model.Page[*model.TestRecord], error) {
	owner, err := scopeOf(caller)
	if err != nil {
		return nil, err
	}
	if err := o.checkFilter(f); err != nil {
		return nil, err
	}
	page = max(page, 1)
	pageSize = min(max(pageSize, 1), MaxPageSize)

	total, err := o.store.Count(ctx, owner, f)
	if err != nil {
		o.logger.Error("counting tests", logging.Err(err))
		return nil, newErr(KindInternal, "count tests", err)
	}
	items, err := o.store.List(ctx, owner, f, (page-1)*pageSize, pageSize)
	if err != nil {
		o.logger.Error("listing tests", logging.Err(err))
		return nil, newErr(KindInternal, "list tests", err)
	}
	return &model.Page[*model.TestRecord]{
		Items:      items,
		Page:       page,
		PageSize:   pageSize,
		TotalCount: total,
		TotalPages: (total + pageSize - 1) / pageSize,
	}, nil
}
