package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeanpaul/shelver/internal/criteria"
	"github.com/jeanpaul/shelver/internal/rules"
)

const engineCorpusDoc = `
phase: engine
cases:
  - name: memory-note
    category: memory
    criteria:
      storage_intent: memory
      access_pattern: crud
      analytic_intent: false
      data_type: text
      search_intensity: none
    expect: [memory]
  - name: fanout
    category: multi
    criteria:
      storage_intent: database
      access_pattern: crud
      analytic_intent: true
      data_type: structured
      search_intensity: none
    expect: [relational_store, analytical_store]
`

func writeCorpus(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadCorpusEngine(t *testing.T) {
	path := writeCorpus(t, t.TempDir(), "engine.yaml", engineCorpusDoc)

	corpus, err := LoadCorpus(path)
	require.NoError(t, err)
	assert.Equal(t, PhaseEngine, corpus.Phase)
	require.Len(t, corpus.Engine, 2)
	assert.Equal(t, 2, corpus.Len())

	first := corpus.Engine[0]
	assert.Equal(t, "memory-note", first.Name)
	assert.Equal(t, criteria.IntentMemory, first.Criteria.StorageIntent)
	assert.False(t, first.Criteria.AnalyticIntent)
	assert.Equal(t, []rules.Backend{rules.BackendMemory}, first.Expect)

	second := corpus.Engine[1]
	assert.True(t, second.Criteria.AnalyticIntent)
	assert.Equal(t, []rules.Backend{rules.BackendRelational, rules.BackendAnalytical}, second.Expect)
}

func TestLoadCorpusExtractor(t *testing.T) {
	doc := `
phase: extractor
cases:
  - name: note
    category: memory
    text: "remember this note"
    expect:
      storage_intent: memory
      access_pattern: crud
      analytic_intent: false
      data_type: text
      search_intensity: none
`
	path := writeCorpus(t, t.TempDir(), "extractor.yaml", doc)

	corpus, err := LoadCorpus(path)
	require.NoError(t, err)
	assert.Equal(t, PhaseExtractor, corpus.Phase)
	require.Len(t, corpus.Extractor, 1)
	assert.Equal(t, "remember this note", corpus.Extractor[0].Text)
	assert.Equal(t, criteria.IntentMemory, corpus.Extractor[0].Expect.StorageIntent)
}

func TestLoadCorpusRejectsUnknownPhase(t *testing.T) {
	doc := `
phase: smoke
cases:
  - name: x
    category: y
    expect: [memory]
`
	path := writeCorpus(t, t.TempDir(), "bad.yaml", doc)
	_, err := LoadCorpus(path)
	assert.Error(t, err)
}

func TestLoadCorpusRejectsMissingCaseName(t *testing.T) {
	doc := `
phase: engine
cases:
  - category: memory
    expect: [memory]
`
	path := writeCorpus(t, t.TempDir(), "bad.yaml", doc)
	_, err := LoadCorpus(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name")
}

func TestLoadCorpusRejectsEmptyCases(t *testing.T) {
	doc := `
phase: engine
cases: []
`
	path := writeCorpus(t, t.TempDir(), "empty.yaml", doc)
	_, err := LoadCorpus(path)
	assert.Error(t, err)
}

func TestLoadCorpusRejectsUnknownCaseKey(t *testing.T) {
	doc := `
phase: engine
cases:
  - name: x
    category: y
    weight: 2
    expect: [memory]
`
	path := writeCorpus(t, t.TempDir(), "bad.yaml", doc)
	_, err := LoadCorpus(path)
	assert.Error(t, err)
}

func TestLoadCorpusMissingFile(t *testing.T) {
	_, err := LoadCorpus(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read corpus")
}

func TestDiscoverCorpora(t *testing.T) {
	dir := t.TempDir()
	writeCorpus(t, dir, "engine.yaml", engineCorpusDoc)
	writeCorpus(t, dir, filepath.Join("nested", "more.yml"), `
phase: engine
cases:
  - name: vector-search
    category: vector
    criteria:
      storage_intent: vector
      access_pattern: search
      analytic_intent: false
      data_type: text
      search_intensity: high
    expect: [vector_store]
`)
	// A corpus for another phase is skipped, not an error.
	writeCorpus(t, dir, "pipeline.yaml", `
phase: pipeline
cases:
  - name: p1
    category: memory
    text: "remember this"
    expect: [memory]
`)

	corpus, err := DiscoverCorpora(dir, PhaseEngine)
	require.NoError(t, err)
	assert.Equal(t, PhaseEngine, corpus.Phase)
	assert.Len(t, corpus.Engine, 3)
	assert.Empty(t, corpus.Pipeline)
}

func TestDiscoverCorporaNoneFound(t *testing.T) {
	_, err := DiscoverCorpora(t.TempDir(), PhaseEngine)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no engine cases")
}

func TestDiscoverCorporaPropagatesLoadErrors(t *testing.T) {
	dir := t.TempDir()
	writeCorpus(t, dir, "broken.yaml", "phase: [")
	_, err := DiscoverCorpora(dir, PhaseEngine)
	assert.Error(t, err)
}
