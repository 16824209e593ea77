package rules

import "fmt"

// IntegrityError reports a structurally defective rule set: a missing or
// misplaced default rule, an undeclared condition value, an unknown
// backend, or an evaluation that fell through every rule. It is fatal at
// load time and a defect to fix in the artifact, never retried.
type IntegrityError struct {
	RuleIndex int // -1 when the defect is set-wide
	Reason    string
}

func (e *IntegrityError) Error() string {
	if e.RuleIndex < 0 {
		return "rule set: " + e.Reason
	}
	return fmt.Sprintf("rule set: rule %d: %s", e.RuleIndex, e.Reason)
}

// ShadowWarning reports a rule that can never match because an earlier
// rule's condition fully subsumes it. Non-fatal unless loading in strict
// mode; authors should reorder or delete the dead rule.
type ShadowWarning struct {
	RuleIndex      int
	RuleName       string
	ShadowedBy     int
	ShadowedByName string
}

func (w ShadowWarning) String() string {
	return fmt.Sprintf("rule %d (%s) is unreachable: shadowed by rule %d (%s)",
		w.RuleIndex, nameOrAnon(w.RuleName), w.ShadowedBy, nameOrAnon(w.ShadowedByName))
}

func nameOrAnon(name string) string {
	if name == "" {
		return "unnamed"
	}
	return name
}
