package app

import (
	"context"

	jsoniter "github.com/json-iterator/go"
	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/raysh454/sitecheck/internal/logging"
	"github.com/raysh454/sitecheck/internal/model"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// History returns the record's terminal runs, newest first. limit <= 0
// returns all of them.
func (o *Orchestrator) History(ctx context.Context, caller model.Caller, id string, limit int) ([]*model.RunEntry, error) {
	if _, err := o.load(ctx, caller, id); err != nil {
		return nil, err
	}
	runs, err := o.store.ListRuns(ctx, id, limit)
	if err != nil {
		o.logger.Error("listing runs", logging.Field{Key: "test_id", Value: id}, logging.Err(err))
		return nil, newErr(KindInternal, "list runs", err)
	}
	return runs, nil
}

// Comparison sets the latest run against the one before it.
type Comparison struct {
	TestID   string          `json:"testId"`
	Current  *model.RunEntry `json:"current,omitempty"`
	Previous *model.RunEntry `json:"previous,omitempty"`
	// ScoreDelta is current minus previous, when both runs have a score.
	ScoreDelta *int `json:"scoreDelta,omitempty"`
	// Patch is a unified-style text patch from the previous results JSON to
	// the current one. Empty when the results are identical or there is no
	// previous run.
	Patch string `json:"patch,omitempty"`
}

// CompareRuns compares the two most recent runs of id.
func (o *Orchestrator) CompareRuns(ctx context.Context, caller model.Caller, id string) (*Comparison, error) {
	runs, err := o.History(ctx, caller, id, 2)
	if err != nil {
		return nil, err
	}
	cmp := &Comparison{TestID: id}
	if len(runs) == 0 {
		return cmp, nil
	}
	cmp.Current = runs[0]
	if len(runs) == 1 {
		return cmp, nil
	}
	cmp.Previous = runs[1]

	if cmp.Current.Score != nil && cmp.Previous.Score != nil {
		d := *cmp.Current.Score - *cmp.Previous.Score
		cmp.ScoreDelta = &d
	}

	before, err := resultsText(cmp.Previous)
	if err != nil {
		return nil, newErr(KindInternal, "encode results", err)
	}
	after, err := resultsText(cmp.Current)
	if err != nil {
		return nil, newErr(KindInternal, "encode results", err)
	}
	cmp.Patch = textPatch(before, after)
	return cmp, nil
}

func resultsText(run *model.RunEntry) (string, error) {
	if run.Results == nil {
		return "", nil
	}
	b, err := json.MarshalIndent(run.Results, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b) + "\n", nil
}

func textPatch(before, after string) string {
	if before == after {
		return ""
	}
	dmp := diffmatchpatch.New()

	// Line mode keeps the patch readable for indented JSON.
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, lines)
	diffs = dmp.DiffCleanupSemantic(diffs)

	return dmp.PatchToText(dmp.PatchMake(before, diffs))
}
