// Package rules models the decision table: an ordered, versioned list of
// condition->outcome rules with a mandatory trailing default rule.
// A RuleSet is immutable once built; reloading produces a new instance.
package rules

import (
	"time"

	"github.com/jeanpaul/shelver/internal/criteria"
)

// Wildcard in a condition matches any value of its field.
const Wildcard = "*"

// Backend identifies one of the storage systems a request can route to.
type Backend string

const (
	BackendMemory     Backend = "memory"
	BackendRelational Backend = "relational_store"
	BackendAnalytical Backend = "analytical_store"
	BackendVector     Backend = "vector_store"
	BackendFile       Backend = "file_store"
)

// ValidBackends are the allowed storage target identifiers.
var ValidBackends = map[Backend]bool{
	BackendMemory:     true,
	BackendRelational: true,
	BackendAnalytical: true,
	BackendVector:     true,
	BackendFile:       true,
}

// Condition maps criteria fields to a literal value or Wildcard.
// A field absent from the map is treated as wildcard.
type Condition map[string]string

// Matches reports whether the condition accepts the given criteria.
func (c Condition) Matches(cr criteria.Criteria) bool {
	for field, want := range c {
		if want == Wildcard {
			continue
		}
		got, ok := cr.FieldValue(field)
		if !ok || got != want {
			return false
		}
	}
	return true
}

// IsDefault reports whether the condition matches every criteria,
// i.e. it names no concrete value.
func (c Condition) IsDefault() bool {
	for _, want := range c {
		if want != Wildcard {
			return false
		}
	}
	return true
}

// Subsumes reports whether every criteria matching other also matches c.
// That holds exactly when each literal in c appears as the same literal
// in other; a wildcard in other is strictly broader and breaks subsumption.
func (c Condition) Subsumes(other Condition) bool {
	for field, want := range c {
		if want == Wildcard {
			continue
		}
		got, ok := other[field]
		if !ok || got == Wildcard || got != want {
			return false
		}
	}
	return true
}

// Outcome is the routing decision a rule produces.
type Outcome struct {
	StorageTargets    []Backend `json:"storage_targets" yaml:"storage_targets"`
	OperationHints    []string  `json:"operation_hints,omitempty" yaml:"operation_hints,omitempty"`
	RationaleTemplate string    `json:"rationale_template" yaml:"rationale_template"`
}

// Rule is one row of the decision table. Its priority is its index in
// the rule set: lower index is evaluated first.
type Rule struct {
	Name      string    `json:"name,omitempty" yaml:"name,omitempty"`
	Condition Condition `json:"condition" yaml:"condition"`
	Outcome   Outcome   `json:"outcome" yaml:"outcome"`
}

// RuleSet is an ordered, versioned decision table. Treat it as
// immutable after Load/Parse: hot reloads build a new RuleSet and swap
// it in, never edit one in place.
type RuleSet struct {
	Version   string
	CreatedAt time.Time
	Rules     []Rule
	Warnings  []ShadowWarning
}

// Len returns the number of rules, the default rule included.
func (rs *RuleSet) Len() int { return len(rs.Rules) }
