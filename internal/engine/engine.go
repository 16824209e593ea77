// Package engine evaluates criteria against an immutable rule-set
// snapshot. Evaluation is pure and synchronous: no I/O, no locks, safe
// for concurrent use. Hot reloads publish a whole new snapshot; an
// in-flight evaluation keeps the snapshot it started with.
package engine

import (
	"strings"
	"sync/atomic"

	"github.com/jeanpaul/shelver/internal/criteria"
	"github.com/jeanpaul/shelver/internal/rules"
)

// HitPolicy controls how multiple matching rules combine.
type HitPolicy string

const (
	// HitFirst returns the first matching rule's outcome. This is the
	// production policy: one matched rule, one citable rationale.
	HitFirst HitPolicy = "first"

	// HitCollectAll unions the storage targets of every matching rule.
	// For rule-set authors exploring candidate combination rules only;
	// it sacrifices the single-rule rationale.
	HitCollectAll HitPolicy = "collect-all"
)

// ValidHitPolicies are the accepted policy names.
var ValidHitPolicies = map[HitPolicy]bool{
	HitFirst:      true,
	HitCollectAll: true,
}

// Decision is the result of one evaluation. It is ephemeral: created
// per call and never retained by the engine.
type Decision struct {
	StorageTargets []rules.Backend `json:"storage_targets"`
	OperationHints []string        `json:"operation_hints,omitempty"`
	Rationale      string          `json:"rationale"`
	MatchedRule    int             `json:"matched_rule"`
	RuleSetVersion string          `json:"rule_set_version"`
}

// Engine routes criteria through a rule-set snapshot.
type Engine struct {
	snapshot atomic.Pointer[rules.RuleSet]
	policy   HitPolicy
}

// Option configures an Engine.
type Option func(*Engine)

// WithHitPolicy selects the hit policy. Production evaluation uses
// HitFirst; see HitCollectAll for the authoring mode.
func WithHitPolicy(p HitPolicy) Option {
	return func(e *Engine) { e.policy = p }
}

// New creates an Engine over a loaded rule set.
func New(rs *rules.RuleSet, opts ...Option) *Engine {
	e := &Engine{policy: HitFirst}
	e.snapshot.Store(rs)
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Swap atomically publishes a new rule-set snapshot. Callers must pass
// a set that already passed Load validation.
func (e *Engine) Swap(rs *rules.RuleSet) {
	e.snapshot.Store(rs)
}

// RuleSet returns the current snapshot.
func (e *Engine) RuleSet() *rules.RuleSet {
	return e.snapshot.Load()
}

// Evaluate routes one criteria through the decision table.
// It returns *criteria.SchemaError for malformed input and
// *rules.IntegrityError if evaluation falls through every rule, which
// is only possible on a set that bypassed Load validation.
func (e *Engine) Evaluate(c criteria.Criteria) (*Decision, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	rs := e.snapshot.Load()
	if e.policy == HitCollectAll {
		return e.collectAll(rs, c)
	}

	for i, rule := range rs.Rules {
		if rule.Condition.Matches(c) {
			return newDecision(rs, i, c), nil
		}
	}
	return nil, &rules.IntegrityError{RuleIndex: -1, Reason: "no rule matched; the loaded set is missing its default rule"}
}

// collectAll evaluates every rule and unions the matches.
// Targets and hints keep rule order, first occurrence wins; the
// rationale cites every matched rule.
func (e *Engine) collectAll(rs *rules.RuleSet, c criteria.Criteria) (*Decision, error) {
	var (
		targets    []rules.Backend
		hints      []string
		rationales []string
		first      = -1
	)
	seenTarget := map[rules.Backend]bool{}
	seenHint := map[string]bool{}

	for i, rule := range rs.Rules {
		if !rule.Condition.Matches(c) {
			continue
		}
		if first < 0 {
			first = i
		}
		for _, t := range rule.Outcome.StorageTargets {
			if !seenTarget[t] {
				seenTarget[t] = true
				targets = append(targets, t)
			}
		}
		for _, h := range rule.Outcome.OperationHints {
			if !seenHint[h] {
				seenHint[h] = true
				hints = append(hints, h)
			}
		}
		if r := renderRationale(rule.Outcome.RationaleTemplate, c); r != "" {
			rationales = append(rationales, r)
		}
	}
	if first < 0 {
		return nil, &rules.IntegrityError{RuleIndex: -1, Reason: "no rule matched; the loaded set is missing its default rule"}
	}
	return &Decision{
		StorageTargets: targets,
		OperationHints: hints,
		Rationale:      strings.Join(rationales, "; "),
		MatchedRule:    first,
		RuleSetVersion: rs.Version,
	}, nil
}

// newDecision copies the matched rule's outcome so callers can never
// reach back into the snapshot.
func newDecision(rs *rules.RuleSet, index int, c criteria.Criteria) *Decision {
	outcome := rs.Rules[index].Outcome
	targets := make([]rules.Backend, len(outcome.StorageTargets))
	copy(targets, outcome.StorageTargets)
	var hints []string
	if len(outcome.OperationHints) > 0 {
		hints = make([]string, len(outcome.OperationHints))
		copy(hints, outcome.OperationHints)
	}
	return &Decision{
		StorageTargets: targets,
		OperationHints: hints,
		Rationale:      renderRationale(outcome.RationaleTemplate, c),
		MatchedRule:    index,
		RuleSetVersion: rs.Version,
	}
}

// renderRationale expands {field_name} placeholders with the criteria
// values that drove the match.
func renderRationale(template string, c criteria.Criteria) string {
	if template == "" {
		return ""
	}
	pairs := make([]string, 0, 2*len(criteria.Fields()))
	for _, field := range criteria.Fields() {
		value, _ := c.FieldValue(field)
		pairs = append(pairs, "{"+field+"}", value)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}
