package harness

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/jeanpaul/shelver/internal/rules"
)

// CaseOutcome classifies how a single case ended. Hard failures
// (schema/integrity/parse errors) are a separate bucket from accuracy
// misses so the two failure modes are never conflated.
type CaseOutcome string

const (
	OutcomePass        CaseOutcome = "pass"
	OutcomeMiss        CaseOutcome = "miss"
	OutcomeHardFailure CaseOutcome = "hard_failure"
)

// CaseResult records one case's run for the machine-readable report.
type CaseResult struct {
	Name          string          `json:"name"`
	Category      string          `json:"category"`
	Outcome       CaseOutcome     `json:"outcome"`
	Predicted     string          `json:"predicted,omitempty"`
	Expected      string          `json:"expected,omitempty"`
	Err           string          `json:"error,omitempty"`
	Latency       time.Duration   `json:"latency_ns"`
	Consistent    bool            `json:"consistent"`
	FieldsCorrect map[string]bool `json:"fields_correct,omitempty"`
}

// CategoryStats aggregates accuracy for one case category.
type CategoryStats struct {
	Total    int     `json:"total"`
	Passed   int     `json:"passed"`
	Accuracy float64 `json:"accuracy"`
}

// FieldStats aggregates extractor accuracy for one criteria field.
type FieldStats struct {
	Total    int     `json:"total"`
	Correct  int     `json:"correct"`
	Accuracy float64 `json:"accuracy"`
}

// LatencySummary holds latency percentiles across evaluated cases.
type LatencySummary struct {
	P50 time.Duration `json:"p50_ns"`
	P95 time.Duration `json:"p95_ns"`
	P99 time.Duration `json:"p99_ns"`
	Max time.Duration `json:"max_ns"`
}

// Report is the aggregated result of one harness run. It is produced
// per run and not retained here; persistence belongs to the caller.
type Report struct {
	Phase          Phase                    `json:"phase"`
	RuleSetVersion string                   `json:"rule_set_version,omitempty"`
	StartedAt      time.Time                `json:"started_at"`
	Duration       time.Duration            `json:"duration_ns"`
	Total          int                      `json:"total"`
	Passed         int                      `json:"passed"`
	Misses         int                      `json:"misses"`
	HardFailures   int                      `json:"hard_failures"`
	Accuracy       float64                  `json:"accuracy"`
	Consistency    float64                  `json:"consistency"`
	PerCategory    map[string]CategoryStats `json:"per_category"`
	PerField       map[string]FieldStats    `json:"per_field,omitempty"`
	Latency        LatencySummary           `json:"latency"`
	Cases          []CaseResult             `json:"cases"`
}

// Meets reports whether aggregate accuracy reaches the gate threshold.
func (r *Report) Meets(threshold float64) bool {
	return r.Accuracy >= threshold
}

// WriteJSON writes the machine-readable report for CI consumption.
func (r *Report) WriteJSON(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// aggregate folds per-case results into a report. It runs strictly
// after every worker has finished, so it is the single merge point for
// all tallies.
func aggregate(phase Phase, startedAt time.Time, results []CaseResult) *Report {
	r := &Report{
		Phase:       phase,
		StartedAt:   startedAt,
		Duration:    time.Since(startedAt),
		Total:       len(results),
		PerCategory: map[string]CategoryStats{},
		Cases:       results,
	}

	consistent, evaluated := 0, 0
	var latencies []time.Duration
	fieldTotals := map[string]FieldStats{}

	for _, cr := range results {
		cat := r.PerCategory[cr.Category]
		cat.Total++

		switch cr.Outcome {
		case OutcomePass:
			r.Passed++
			cat.Passed++
		case OutcomeMiss:
			r.Misses++
		case OutcomeHardFailure:
			r.HardFailures++
		}
		r.PerCategory[cr.Category] = cat

		if cr.Outcome != OutcomeHardFailure {
			evaluated++
			if cr.Consistent {
				consistent++
			}
			latencies = append(latencies, cr.Latency)
		}

		for field, ok := range cr.FieldsCorrect {
			fs := fieldTotals[field]
			fs.Total++
			if ok {
				fs.Correct++
			}
			fieldTotals[field] = fs
		}
	}

	if r.Total > 0 {
		r.Accuracy = float64(r.Passed) / float64(r.Total)
	}
	if evaluated > 0 {
		r.Consistency = float64(consistent) / float64(evaluated)
	}
	for cat, stats := range r.PerCategory {
		if stats.Total > 0 {
			stats.Accuracy = float64(stats.Passed) / float64(stats.Total)
		}
		r.PerCategory[cat] = stats
	}
	if len(fieldTotals) > 0 {
		r.PerField = map[string]FieldStats{}
		for field, fs := range fieldTotals {
			if fs.Total > 0 {
				fs.Accuracy = float64(fs.Correct) / float64(fs.Total)
			}
			r.PerField[field] = fs
		}
	}

	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
	r.Latency = LatencySummary{
		P50: percentile(latencies, 50),
		P95: percentile(latencies, 95),
		P99: percentile(latencies, 99),
	}
	if len(latencies) > 0 {
		r.Latency.Max = latencies[len(latencies)-1]
	}

	return r
}

// percentile returns the nearest-rank percentile of a sorted slice.
func percentile(sorted []time.Duration, p int) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	rank := (p*len(sorted) + 99) / 100 // ceil(p/100 * n)
	if rank < 1 {
		rank = 1
	}
	if rank > len(sorted) {
		rank = len(sorted)
	}
	return sorted[rank-1]
}

// targetsKey canonicalizes a backend set for comparison: sorted and
// comma-joined, so order in the artifact or corpus never matters.
func targetsKey(targets []rules.Backend) string {
	names := make([]string, len(targets))
	for i, t := range targets {
		names[i] = string(t)
	}
	sort.Strings(names)
	return strings.Join(names, ",")
}

// String renders a one-line report digest for logs.
func (r *Report) String() string {
	return fmt.Sprintf("%s phase: %d/%d passed (%.1f%%), %d hard failures, consistency %.1f%%",
		r.Phase, r.Passed, r.Total, r.Accuracy*100, r.HardFailures, r.Consistency*100)
}
