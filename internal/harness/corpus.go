package harness

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/jeanpaul/shelver/internal/criteria"
	"github.com/jeanpaul/shelver/internal/rules"
	"github.com/jeanpaul/shelver/internal/schema"
)

// Phase names which component a corpus exercises.
type Phase string

const (
	// PhaseEngine feeds hand-labeled criteria straight into the engine,
	// isolating rule-set correctness from extraction correctness.
	PhaseEngine Phase = "engine"
	// PhaseExtractor scores the extractor's field-level accuracy
	// against hand-labeled criteria, independent of the engine.
	PhaseExtractor Phase = "extractor"
	// PhasePipeline chains extractor then engine.
	PhasePipeline Phase = "pipeline"
)

// ValidPhases are the accepted phase names.
var ValidPhases = map[Phase]bool{
	PhaseEngine:    true,
	PhaseExtractor: true,
	PhasePipeline:  true,
}

// EngineCase is one hand-labeled criteria -> expected targets pair.
type EngineCase struct {
	Name     string            `yaml:"name"`
	Category string            `yaml:"category"`
	Criteria criteria.Criteria `yaml:"criteria"`
	Expect   []rules.Backend   `yaml:"expect"`
	Notes    string            `yaml:"notes,omitempty"`
}

// ExtractorCase is one raw text -> expected criteria pair.
type ExtractorCase struct {
	Name     string            `yaml:"name"`
	Category string            `yaml:"category"`
	Text     string            `yaml:"text"`
	Expect   criteria.Criteria `yaml:"expect"`
	Notes    string            `yaml:"notes,omitempty"`
}

// PipelineCase is one raw text -> expected targets pair.
type PipelineCase struct {
	Name     string          `yaml:"name"`
	Category string          `yaml:"category"`
	Text     string          `yaml:"text"`
	Expect   []rules.Backend `yaml:"expect"`
	Notes    string          `yaml:"notes,omitempty"`
}

// Corpus is one loaded set of labeled cases for a single phase.
type Corpus struct {
	Phase     Phase
	Engine    []EngineCase
	Extractor []ExtractorCase
	Pipeline  []PipelineCase
}

// Len returns the number of cases in the corpus.
func (c *Corpus) Len() int {
	return len(c.Engine) + len(c.Extractor) + len(c.Pipeline)
}

const corpusSchema = `{
  "type": "object",
  "required": ["phase", "cases"],
  "additionalProperties": false,
  "properties": {
    "phase": {"enum": ["engine", "extractor", "pipeline"]},
    "cases": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["name", "category", "expect"],
        "additionalProperties": false,
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "category": {"type": "string", "minLength": 1},
          "notes": {"type": "string"},
          "text": {"type": "string"},
          "criteria": {"type": "object"},
          "expect": {}
        }
      }
    }
  }
}`

var corpusValidator = schema.NewValidator()

type corpusDoc struct {
	Phase Phase     `yaml:"phase"`
	Cases yaml.Node `yaml:"cases"`
}

// LoadCorpus reads one corpus file, checks it against the corpus
// schema, and decodes its cases for the declared phase.
func LoadCorpus(path string) (*Corpus, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read corpus: %w", err)
	}

	var generic any
	if err := yaml.Unmarshal(data, &generic); err != nil {
		return nil, fmt.Errorf("corpus %s is not valid YAML: %w", path, err)
	}
	if err := corpusValidator.ValidateDocument(corpusSchema, generic); err != nil {
		return nil, fmt.Errorf("corpus %s: %w", path, err)
	}

	var doc corpusDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("corpus %s does not decode: %w", path, err)
	}

	corpus := &Corpus{Phase: doc.Phase}
	switch doc.Phase {
	case PhaseEngine:
		err = doc.Cases.Decode(&corpus.Engine)
	case PhaseExtractor:
		err = doc.Cases.Decode(&corpus.Extractor)
	case PhasePipeline:
		err = doc.Cases.Decode(&corpus.Pipeline)
	default:
		err = fmt.Errorf("unknown phase %q", doc.Phase)
	}
	if err != nil {
		return nil, fmt.Errorf("corpus %s: %w", path, err)
	}
	return corpus, nil
}

// DiscoverCorpora loads every corpus under dir (recursively, *.yaml and
// *.yml) that declares the given phase, merged into one corpus. File
// order is path-sorted so runs are reproducible.
func DiscoverCorpora(dir string, phase Phase) (*Corpus, error) {
	pattern := filepath.Join(dir, "**", "*.{yaml,yml}")
	paths, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return nil, fmt.Errorf("glob corpora: %w", err)
	}
	sort.Strings(paths)

	merged := &Corpus{Phase: phase}
	for _, path := range paths {
		corpus, err := LoadCorpus(path)
		if err != nil {
			return nil, err
		}
		if corpus.Phase != phase {
			continue
		}
		merged.Engine = append(merged.Engine, corpus.Engine...)
		merged.Extractor = append(merged.Extractor, corpus.Extractor...)
		merged.Pipeline = append(merged.Pipeline, corpus.Pipeline...)
	}
	if merged.Len() == 0 {
		return nil, fmt.Errorf("no %s cases found under %s", phase, dir)
	}
	return merged, nil
}
