package rules

// AnalyzeShadows finds rules that are unreachable because an earlier
// rule subsumes them. Only full subsumption is detected; partial
// overlap between two specific rules is not flagged here.
//
// Each shadowed rule is reported once, against the earliest rule that
// subsumes it.
func AnalyzeShadows(ruleList []Rule) []ShadowWarning {
	var warnings []ShadowWarning
	for later := 1; later < len(ruleList); later++ {
		for earlier := 0; earlier < later; earlier++ {
			if ruleList[earlier].Condition.Subsumes(ruleList[later].Condition) {
				warnings = append(warnings, ShadowWarning{
					RuleIndex:      later,
					RuleName:       ruleList[later].Name,
					ShadowedBy:     earlier,
					ShadowedByName: ruleList[earlier].Name,
				})
				break
			}
		}
	}
	return warnings
}
