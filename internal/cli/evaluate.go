package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeanpaul/shelver/internal/criteria"
	"github.com/jeanpaul/shelver/internal/engine"
	"github.com/jeanpaul/shelver/internal/rules"
)

var (
	evalCriteria string
	evalPolicy   string
	evalText     bool
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate <ruleset>",
	Short: "Route one classified request through a rule set",
	Long: "Evaluates a single criteria tuple against the rule set and prints the\n" +
		"decision. Criteria are given as field=value pairs, e.g.\n" +
		"  --criteria storage_intent=memory,access_pattern=crud,analytic_intent=false,data_type=text,search_intensity=none",
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()

		c, err := parseCriteriaFlag(evalCriteria)
		if err != nil {
			exitErr("parse criteria", err)
		}

		policy := engine.HitPolicy(evalPolicy)
		if evalPolicy == "" {
			policy = engine.HitPolicy(cfg.HitPolicy)
		}
		if !engine.ValidHitPolicies[policy] {
			exitErr("parse flags", fmt.Errorf("unknown hit policy %q", policy))
		}

		rs, err := rules.Load(args[0], rules.Options{Strict: cfg.Strict})
		if err != nil {
			exitErr("load rule set", err)
		}

		decision, err := engine.New(rs, engine.WithHitPolicy(policy)).Evaluate(c)
		if err != nil {
			exitErr("evaluate", err)
		}

		if evalText {
			printDecisionText(decision)
			return
		}
		out, err := json.MarshalIndent(decision, "", "  ")
		if err != nil {
			exitErr("encode decision", err)
		}
		fmt.Println(string(out))
	},
}

func parseCriteriaFlag(raw string) (criteria.Criteria, error) {
	if strings.TrimSpace(raw) == "" {
		return criteria.Criteria{}, fmt.Errorf("--criteria is required")
	}
	values := map[string]string{}
	for _, pair := range strings.Split(raw, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(pair), "=")
		if !found {
			return criteria.Criteria{}, fmt.Errorf("malformed pair %q (want field=value)", pair)
		}
		values[key] = value
	}
	return criteria.FromMap(values)
}

func printDecisionText(d *engine.Decision) {
	targets := make([]string, len(d.StorageTargets))
	for i, t := range d.StorageTargets {
		targets[i] = string(t)
	}
	fmt.Fprintf(os.Stdout, "targets:   %s\n", strings.Join(targets, ", "))
	if len(d.OperationHints) > 0 {
		fmt.Fprintf(os.Stdout, "hints:     %s\n", strings.Join(d.OperationHints, ", "))
	}
	fmt.Fprintf(os.Stdout, "rationale: %s\n", d.Rationale)
	fmt.Fprintf(os.Stdout, "rule:      %d (ruleset %s)\n", d.MatchedRule, d.RuleSetVersion)
}

func init() {
	evaluateCmd.Flags().StringVarP(&evalCriteria, "criteria", "c", "", "Comma-separated field=value pairs")
	evaluateCmd.Flags().StringVar(&evalPolicy, "policy", "", "Hit policy: first or collect-all (authoring only)")
	evaluateCmd.Flags().BoolVar(&evalText, "text", false, "Print a plain-text decision instead of JSON")
	RootCmd.AddCommand(evaluateCmd)
}
