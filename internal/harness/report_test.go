package harness

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeanpaul/shelver/internal/rules"
)

func TestAggregate(t *testing.T) {
	results := []CaseResult{
		{Name: "a", Category: "memory", Outcome: OutcomePass, Consistent: true, Latency: 10 * time.Microsecond},
		{Name: "b", Category: "memory", Outcome: OutcomeMiss, Consistent: true, Latency: 20 * time.Microsecond},
		{Name: "c", Category: "vector", Outcome: OutcomePass, Consistent: false, Latency: 30 * time.Microsecond},
		{Name: "d", Category: "vector", Outcome: OutcomeHardFailure, Err: "boom"},
	}

	r := aggregate(PhaseEngine, time.Now(), results)

	assert.Equal(t, 4, r.Total)
	assert.Equal(t, 2, r.Passed)
	assert.Equal(t, 1, r.Misses)
	assert.Equal(t, 1, r.HardFailures)
	assert.InDelta(t, 0.5, r.Accuracy, 1e-9)

	// Consistency counts only evaluated cases: 2 of 3 were stable.
	assert.InDelta(t, 2.0/3.0, r.Consistency, 1e-9)

	require.Contains(t, r.PerCategory, "memory")
	assert.Equal(t, CategoryStats{Total: 2, Passed: 1, Accuracy: 0.5}, r.PerCategory["memory"])
	assert.Equal(t, CategoryStats{Total: 2, Passed: 1, Accuracy: 0.5}, r.PerCategory["vector"])

	// Hard failures contribute no latency sample.
	assert.Equal(t, 30*time.Microsecond, r.Latency.Max)
}

func TestAggregatePerField(t *testing.T) {
	results := []CaseResult{
		{Name: "a", Outcome: OutcomePass, Consistent: true,
			FieldsCorrect: map[string]bool{"storage_intent": true, "data_type": true}},
		{Name: "b", Outcome: OutcomeMiss, Consistent: true,
			FieldsCorrect: map[string]bool{"storage_intent": true, "data_type": false}},
	}

	r := aggregate(PhaseExtractor, time.Now(), results)
	require.NotNil(t, r.PerField)
	assert.Equal(t, FieldStats{Total: 2, Correct: 2, Accuracy: 1}, r.PerField["storage_intent"])
	assert.Equal(t, FieldStats{Total: 2, Correct: 1, Accuracy: 0.5}, r.PerField["data_type"])
}

func TestAggregateEmpty(t *testing.T) {
	r := aggregate(PhaseEngine, time.Now(), nil)
	assert.Equal(t, 0, r.Total)
	assert.Equal(t, 0.0, r.Accuracy)
	assert.Equal(t, 0.0, r.Consistency)
	assert.Equal(t, time.Duration(0), r.Latency.P50)
}

func TestMeets(t *testing.T) {
	r := &Report{Accuracy: 0.98}
	assert.True(t, r.Meets(0.98))
	assert.True(t, r.Meets(0.9))
	assert.False(t, r.Meets(0.99))
}

func TestPercentileNearestRank(t *testing.T) {
	sorted := []time.Duration{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	assert.Equal(t, time.Duration(5), percentile(sorted, 50))
	assert.Equal(t, time.Duration(10), percentile(sorted, 95))
	assert.Equal(t, time.Duration(10), percentile(sorted, 99))
	assert.Equal(t, time.Duration(1), percentile(sorted, 1))

	single := []time.Duration{7}
	assert.Equal(t, time.Duration(7), percentile(single, 50))
	assert.Equal(t, time.Duration(0), percentile(nil, 50))
}

func TestTargetsKeyCanonical(t *testing.T) {
	a := targetsKey([]rules.Backend{rules.BackendVector, rules.BackendAnalytical})
	b := targetsKey([]rules.Backend{rules.BackendAnalytical, rules.BackendVector})
	assert.Equal(t, a, b)
	assert.Equal(t, "analytical_store,vector_store", a)
	assert.Equal(t, "", targetsKey(nil))
}

func TestWriteJSON(t *testing.T) {
	r := aggregate(PhaseEngine, time.Now(), []CaseResult{
		{Name: "a", Category: "memory", Outcome: OutcomePass, Consistent: true},
	})
	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, r.WriteJSON(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded Report
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, PhaseEngine, decoded.Phase)
	assert.Equal(t, 1, decoded.Passed)
}

func TestReportString(t *testing.T) {
	r := &Report{Phase: PhaseEngine, Passed: 49, Total: 50, Accuracy: 0.98, HardFailures: 1, Consistency: 1}
	s := r.String()
	assert.Contains(t, s, "engine phase")
	assert.Contains(t, s, "49/50")
	assert.Contains(t, s, "98.0%")
	assert.Contains(t, s, "1 hard failures")
}

func TestRenderSummary(t *testing.T) {
	r := aggregate(PhaseEngine, time.Now(), []CaseResult{
		{Name: "good", Category: "memory", Outcome: OutcomePass, Consistent: true},
		{Name: "wrong", Category: "memory", Outcome: OutcomeMiss, Consistent: true,
			Predicted: "memory", Expected: "file_store"},
		{Name: "broken", Category: "vector", Outcome: OutcomeHardFailure, Err: "schema error"},
	})

	out := RenderSummary(r)
	assert.Contains(t, out, "Validation Report: engine phase")
	assert.Contains(t, out, "hard fails   1")
	assert.Contains(t, out, "by category")
	assert.Contains(t, out, "wrong")
	assert.Contains(t, out, "broken")
	assert.Contains(t, out, "schema error")
}

func TestRenderCriteriaDiff(t *testing.T) {
	expected := "storage_intent=memory access_pattern=crud"
	predicted := "storage_intent=file access_pattern=crud"
	diff := renderCriteriaDiff(expected, predicted)
	assert.Contains(t, diff, "-storage_intent=memory")
	assert.Contains(t, diff, "+storage_intent=file")
	assert.NotContains(t, diff, "-access_pattern=crud")
}
