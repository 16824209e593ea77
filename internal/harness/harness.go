// Package harness replays labeled corpora through the engine, the
// extractor, or both, and scores each phase separately so end-to-end
// errors can be attributed to the rule set or to the classifier
// instead of guessed at.
package harness

import (
	"context"
	"sync"
	"time"

	"github.com/jeanpaul/shelver/internal/criteria"
	"github.com/jeanpaul/shelver/internal/engine"
	"github.com/jeanpaul/shelver/internal/extractor"
)

// Harness runs validation phases over a worker pool. Cases are
// independent: each worker writes only its own case results, and all
// tallying happens in a single merge step after the pool drains.
type Harness struct {
	workers         int
	consistencyRuns int
}

// New creates a harness. workers <= 0 defaults to 4 and
// consistencyRuns <= 0 defaults to 3.
func New(workers, consistencyRuns int) *Harness {
	if workers <= 0 {
		workers = 4
	}
	if consistencyRuns <= 0 {
		consistencyRuns = 3
	}
	return &Harness{workers: workers, consistencyRuns: consistencyRuns}
}

// runCases fans case indexes out to the pool. Each index is handled by
// exactly one worker, so results[i] has a single writer.
func (h *Harness) runCases(ctx context.Context, n int, runCase func(int) CaseResult) []CaseResult {
	results := make([]CaseResult, n)
	jobs := make(chan int)

	var wg sync.WaitGroup
	workers := h.workers
	if workers > n {
		workers = n
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = runCase(i)
			}
		}()
	}

	for i := 0; i < n; i++ {
		select {
		case jobs <- i:
		case <-ctx.Done():
			// Mark undispatched cases instead of aborting the run.
			results[i] = CaseResult{Outcome: OutcomeHardFailure, Err: ctx.Err().Error()}
		}
	}
	close(jobs)
	wg.Wait()

	return results
}

// RunEngine feeds hand-labeled criteria directly into the engine.
// A SchemaError or IntegrityError on one case is recorded as a hard
// failure and the remaining cases still run.
func (h *Harness) RunEngine(ctx context.Context, cases []EngineCase, eng *engine.Engine) *Report {
	startedAt := time.Now()

	results := h.runCases(ctx, len(cases), func(i int) CaseResult {
		cse := cases[i]
		res := CaseResult{
			Name:       cse.Name,
			Category:   cse.Category,
			Expected:   targetsKey(cse.Expect),
			Consistent: true,
		}

		var firstRule int
		for run := 0; run < h.consistencyRuns; run++ {
			t0 := time.Now()
			decision, err := eng.Evaluate(cse.Criteria)
			elapsed := time.Since(t0)
			if err != nil {
				res.Outcome = OutcomeHardFailure
				res.Err = err.Error()
				return res
			}
			key := targetsKey(decision.StorageTargets)
			if run == 0 {
				res.Latency = elapsed
				res.Predicted = key
				firstRule = decision.MatchedRule
				continue
			}
			if key != res.Predicted || decision.MatchedRule != firstRule {
				res.Consistent = false
			}
		}

		if res.Predicted == res.Expected {
			res.Outcome = OutcomePass
		} else {
			res.Outcome = OutcomeMiss
		}
		return res
	})

	report := aggregate(PhaseEngine, startedAt, results)
	report.RuleSetVersion = eng.RuleSet().Version
	return report
}

// RunExtractor scores the extractor's field-level accuracy against
// hand-labeled criteria. A case passes only when every field matches;
// per-field tallies show which fields drag accuracy down. ParseErrors
// are hard failures, not misses.
func (h *Harness) RunExtractor(ctx context.Context, cases []ExtractorCase, ex extractor.Extractor) *Report {
	startedAt := time.Now()

	results := h.runCases(ctx, len(cases), func(i int) CaseResult {
		cse := cases[i]
		res := CaseResult{
			Name:       cse.Name,
			Category:   cse.Category,
			Expected:   cse.Expect.String(),
			Consistent: true,
		}

		var first criteria.Criteria
		for run := 0; run < h.consistencyRuns; run++ {
			t0 := time.Now()
			got, err := ex.Extract(ctx, cse.Text)
			elapsed := time.Since(t0)
			if err != nil {
				res.Outcome = OutcomeHardFailure
				res.Err = err.Error()
				return res
			}
			if run == 0 {
				res.Latency = elapsed
				res.Predicted = got.String()
				first = got
				continue
			}
			if got != first {
				res.Consistent = false
			}
		}

		res.FieldsCorrect = map[string]bool{}
		allCorrect := true
		for _, field := range criteria.Fields() {
			want, _ := cse.Expect.FieldValue(field)
			got, _ := first.FieldValue(field)
			correct := want == got
			res.FieldsCorrect[field] = correct
			if !correct {
				allCorrect = false
			}
		}
		if allCorrect {
			res.Outcome = OutcomePass
		} else {
			res.Outcome = OutcomeMiss
		}
		return res
	})

	return aggregate(PhaseExtractor, startedAt, results)
}

// RunPipeline chains extractor then engine, measuring the composed
// path. Parse, schema, and integrity errors all land in the hard
// failure bucket.
func (h *Harness) RunPipeline(ctx context.Context, cases []PipelineCase, ex extractor.Extractor, eng *engine.Engine) *Report {
	startedAt := time.Now()

	results := h.runCases(ctx, len(cases), func(i int) CaseResult {
		cse := cases[i]
		res := CaseResult{
			Name:       cse.Name,
			Category:   cse.Category,
			Expected:   targetsKey(cse.Expect),
			Consistent: true,
		}

		for run := 0; run < h.consistencyRuns; run++ {
			t0 := time.Now()
			c, err := ex.Extract(ctx, cse.Text)
			if err != nil {
				res.Outcome = OutcomeHardFailure
				res.Err = err.Error()
				return res
			}
			decision, err := eng.Evaluate(c)
			elapsed := time.Since(t0)
			if err != nil {
				res.Outcome = OutcomeHardFailure
				res.Err = err.Error()
				return res
			}
			key := targetsKey(decision.StorageTargets)
			if run == 0 {
				res.Latency = elapsed
				res.Predicted = key
				continue
			}
			if key != res.Predicted {
				res.Consistent = false
			}
		}

		if res.Predicted == res.Expected {
			res.Outcome = OutcomePass
		} else {
			res.Outcome = OutcomeMiss
		}
		return res
	})

	report := aggregate(PhasePipeline, startedAt, results)
	report.RuleSetVersion = eng.RuleSet().Version
	return report
}
