package rules

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/jeanpaul/shelver/internal/criteria"
	"github.com/jeanpaul/shelver/internal/schema"
)

// artifactSchema is the contract between rule-set authors and the
// engine: the shape every rule-set artifact must satisfy before any
// semantic validation runs.
const artifactSchema = `{
  "type": "object",
  "required": ["rules"],
  "additionalProperties": false,
  "properties": {
    "version": {"type": "string"},
    "created_at": {"type": "string"},
    "rules": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["condition", "outcome"],
        "additionalProperties": false,
        "properties": {
          "name": {"type": "string"},
          "condition": {
            "type": "object",
            "additionalProperties": {"type": "string"}
          },
          "outcome": {
            "type": "object",
            "required": ["storage_targets"],
            "additionalProperties": false,
            "properties": {
              "storage_targets": {
                "type": "array",
                "minItems": 1,
                "items": {"type": "string"}
              },
              "operation_hints": {
                "type": "array",
                "items": {"type": "string"}
              },
              "rationale_template": {"type": "string"}
            }
          }
        }
      }
    }
  }
}`

var artifactValidator = schema.NewValidator()

// Options control rule-set loading.
type Options struct {
	// Strict promotes shadow warnings to load errors.
	Strict bool
}

// artifactDoc mirrors the YAML artifact shape.
type artifactDoc struct {
	Version   string `yaml:"version"`
	CreatedAt string `yaml:"created_at"`
	Rules     []Rule `yaml:"rules"`
}

// Load reads and validates a rule-set artifact from disk.
func Load(path string, opts Options) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rule set: %w", err)
	}
	rs, err := Parse(data, opts)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return rs, nil
}

// Parse validates a rule-set artifact and builds an immutable RuleSet.
// Validation order: document schema, condition/outcome vocabulary,
// default-rule placement, then shadow analysis. Structural defects are
// *IntegrityError; shadowed rules are warnings on the returned set
// unless opts.Strict promotes them.
func Parse(data []byte, opts Options) (*RuleSet, error) {
	// Schema check runs on the generically decoded document so authors
	// get shape errors before any semantic ones.
	var generic any
	if err := yaml.Unmarshal(data, &generic); err != nil {
		return nil, &IntegrityError{RuleIndex: -1, Reason: "artifact is not valid YAML: " + err.Error()}
	}
	if err := artifactValidator.ValidateDocument(artifactSchema, generic); err != nil {
		return nil, &IntegrityError{RuleIndex: -1, Reason: err.Error()}
	}

	var doc artifactDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &IntegrityError{RuleIndex: -1, Reason: "artifact does not decode: " + err.Error()}
	}

	for i, rule := range doc.Rules {
		if err := checkRule(i, rule); err != nil {
			return nil, err
		}
		doc.Rules[i].Outcome.StorageTargets = dedupBackends(rule.Outcome.StorageTargets)
	}

	if err := checkDefaultRule(doc.Rules); err != nil {
		return nil, err
	}

	warnings := AnalyzeShadows(doc.Rules)
	if opts.Strict && len(warnings) > 0 {
		return nil, &IntegrityError{RuleIndex: warnings[0].RuleIndex, Reason: warnings[0].String()}
	}

	rs := &RuleSet{
		Version:   doc.Version,
		CreatedAt: time.Now().UTC(),
		Rules:     doc.Rules,
		Warnings:  warnings,
	}
	if rs.Version == "" {
		rs.Version = uuid.NewString()
	}
	if doc.CreatedAt != "" {
		ts, err := time.Parse(time.RFC3339, doc.CreatedAt)
		if err != nil {
			return nil, &IntegrityError{RuleIndex: -1, Reason: "created_at is not RFC 3339: " + err.Error()}
		}
		rs.CreatedAt = ts
	}
	return rs, nil
}

// checkRule validates one rule's condition and outcome vocabulary.
func checkRule(index int, rule Rule) error {
	for field, value := range rule.Condition {
		allowed, known := criteria.Vocabulary[field]
		if !known {
			return &IntegrityError{RuleIndex: index, Reason: fmt.Sprintf("condition names unknown field %q", field)}
		}
		if value == Wildcard {
			continue
		}
		if !criteria.ValueAllowed(field, value) {
			return &IntegrityError{
				RuleIndex: index,
				Reason:    fmt.Sprintf("condition value %q is not a declared literal for %q (allowed: %v or %q)", value, field, allowed, Wildcard),
			}
		}
	}
	if len(rule.Outcome.StorageTargets) == 0 {
		return &IntegrityError{RuleIndex: index, Reason: "outcome has no storage targets"}
	}
	for _, target := range rule.Outcome.StorageTargets {
		if !ValidBackends[target] {
			return &IntegrityError{RuleIndex: index, Reason: fmt.Sprintf("unknown storage target %q", target)}
		}
	}
	return nil
}

// checkDefaultRule enforces totality: exactly one all-wildcard rule,
// and it must be the last.
func checkDefaultRule(ruleList []Rule) error {
	defaults := []int{}
	for i, rule := range ruleList {
		if rule.Condition.IsDefault() {
			defaults = append(defaults, i)
		}
	}
	switch {
	case len(defaults) == 0:
		return &IntegrityError{RuleIndex: -1, Reason: "no default rule: the last rule must have an all-wildcard condition"}
	case len(defaults) > 1:
		return &IntegrityError{RuleIndex: defaults[0], Reason: fmt.Sprintf("%d all-wildcard rules found; exactly one default rule is allowed", len(defaults))}
	case defaults[0] != len(ruleList)-1:
		return &IntegrityError{RuleIndex: defaults[0], Reason: "default rule must be last"}
	}
	return nil
}

func dedupBackends(targets []Backend) []Backend {
	seen := make(map[Backend]bool, len(targets))
	out := make([]Backend, 0, len(targets))
	for _, t := range targets {
		if seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
