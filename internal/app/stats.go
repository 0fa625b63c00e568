package app

import (
	"context"
	"math"

	"github.com/raysh454/sitecheck/internal/logging"
	"github.com/raysh454/sitecheck/internal/model"
	"github.com/raysh454/sitecheck/internal/normalize"
)

// Stats aggregates the caller's records. It never fails: a store error is
// logged and zeroed stats are returned. A caller without an id gets zeroed
// stats.
func (o *Orchestrator) Stats(ctx context.Context, caller model.Caller) model.Stats {
	owner, err := scopeOf(caller)
	if err != nil {
		o.logger.Warn("stats requested without caller identity")
		return model.Stats{}
	}
	recs, err := o.store.List(ctx, owner, model.Filter{}, 0, 0)
	if err != nil {
		o.logger.Error("reading tests for stats", logging.Field{Key: "owner", Value: caller.ID}, logging.Err(err))
		return model.Stats{}
	}
	return computeStats(recs)
}

func computeStats(recs []*model.TestRecord) model.Stats {
	var (
		s        model.Stats
		perfSum  int
		perfSeen int
	)
	s.TotalTests = len(recs)
	for _, rec := range recs {
		switch rec.Status {
		case model.StatusPending:
			s.PendingTests++
		case model.StatusRunning:
			s.RunningTests++
		case model.StatusCompleted:
			s.CompletedTests++
		case model.StatusFailed:
			s.FailedTests++
		}
		if rec.Status != model.StatusCompleted {
			continue
		}
		if rec.TestType != model.TestPerformance && rec.TestType != model.TestAll {
			continue
		}
		score, ok := recordScore(rec)
		if !ok {
			continue
		}
		perfSum += score
		perfSeen++
	}
	if perfSeen > 0 {
		s.AvgPerformance = int(math.Round(float64(perfSum) / float64(perfSeen)))
	}
	return s
}

// recordScore prefers the persisted score and falls back to deriving it
// from the stored results.
func recordScore(rec *model.TestRecord) (int, bool) {
	if rec.Score != nil {
		return *rec.Score, true
	}
	return normalize.DisplayedScore(rec.TestType, rec.Results)
}
