package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jeanpaul/shelver/internal/config"
	"github.com/jeanpaul/shelver/internal/engine"
	"github.com/jeanpaul/shelver/internal/extractor"
	"github.com/jeanpaul/shelver/internal/harness"
	"github.com/jeanpaul/shelver/internal/history"
	"github.com/jeanpaul/shelver/internal/rules"
)

var (
	checkPhase     string
	checkCorpus    string
	checkRuleSet   string
	checkThreshold float64
	checkWorkers   int
	checkRuns      int
	checkOut       string
	checkNoHistory bool
)

// checkCmd is the regression gate: it replays a corpus through the
// chosen phase and exits non-zero when aggregate accuracy falls below
// the threshold, which is what CI hooks into.
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run a validation phase against a corpus and gate on accuracy",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		applyCheckDefaults(cmd, cfg)

		phase := harness.Phase(checkPhase)
		if !harness.ValidPhases[phase] {
			exitErr("parse flags", fmt.Errorf("unknown phase %q (must be engine, extractor, or pipeline)", checkPhase))
		}

		corpus := loadCheckCorpus(phase)

		var eng *engine.Engine
		if phase == harness.PhaseEngine || phase == harness.PhasePipeline {
			rs, err := rules.Load(checkRuleSet, rules.Options{Strict: cfg.Strict})
			if err != nil {
				exitErr("load rule set", err)
			}
			eng = engine.New(rs)
		}

		var ex extractor.Extractor
		if phase == harness.PhaseExtractor || phase == harness.PhasePipeline {
			ex = buildExtractor(cfg)
		}

		h := harness.New(checkWorkers, checkRuns)
		ctx := context.Background()

		var report *harness.Report
		switch phase {
		case harness.PhaseEngine:
			report = h.RunEngine(ctx, corpus.Engine, eng)
		case harness.PhaseExtractor:
			report = h.RunExtractor(ctx, corpus.Extractor, ex)
		case harness.PhasePipeline:
			report = h.RunPipeline(ctx, corpus.Pipeline, ex, eng)
		}

		fmt.Println(harness.RenderSummary(report))

		if checkOut != "" {
			if err := report.WriteJSON(checkOut); err != nil {
				exitErr("write report", err)
			}
		}

		gatePassed := report.Meets(checkThreshold)
		if !checkNoHistory {
			recordRun(cfg, report, gatePassed)
		}

		if !gatePassed {
			fmt.Fprintf(os.Stderr, "gate failed: accuracy %.3f below threshold %.3f\n", report.Accuracy, checkThreshold)
			os.Exit(1)
		}
		fmt.Printf("gate passed: accuracy %.3f >= threshold %.3f\n", report.Accuracy, checkThreshold)
	},
}

// applyCheckDefaults fills unset flags from the loaded config.
func applyCheckDefaults(cmd *cobra.Command, cfg *config.Config) {
	if !cmd.Flags().Changed("ruleset") {
		checkRuleSet = cfg.RuleSet
	}
	if !cmd.Flags().Changed("corpus") {
		checkCorpus = cfg.CorpusDir
	}
	if !cmd.Flags().Changed("threshold") {
		checkThreshold = cfg.Threshold
	}
	if !cmd.Flags().Changed("workers") {
		checkWorkers = cfg.Workers
	}
	if !cmd.Flags().Changed("runs") {
		checkRuns = cfg.ConsistencyRuns
	}
}

func loadCheckCorpus(phase harness.Phase) *harness.Corpus {
	info, err := os.Stat(checkCorpus)
	if err != nil {
		exitErr("load corpus", err)
	}
	if info.IsDir() {
		corpus, err := harness.DiscoverCorpora(checkCorpus, phase)
		if err != nil {
			exitErr("load corpus", err)
		}
		return corpus
	}
	corpus, err := harness.LoadCorpus(checkCorpus)
	if err != nil {
		exitErr("load corpus", err)
	}
	if corpus.Phase != phase {
		exitErr("load corpus", fmt.Errorf("%s declares phase %q, want %q", checkCorpus, corpus.Phase, phase))
	}
	return corpus
}

func buildExtractor(cfg *config.Config) extractor.Extractor {
	switch cfg.Extractor.Type {
	case "openai":
		client := extractor.NewOpenAIClient(cfg.Extractor.BaseURL, cfg.Extractor.APIKey, cfg.Extractor.Model)
		return extractor.NewLLM(client, cfg.Extractor.MaxRetries)
	default:
		return extractor.NewKeyword()
	}
}

func recordRun(cfg *config.Config, report *harness.Report, gatePassed bool) {
	store, err := history.Open(cfg.HistoryDB)
	if err != nil {
		// History is a convenience; a broken local DB must not mask the
		// gate result.
		fmt.Fprintf(os.Stderr, "warning: history unavailable: %v\n", err)
		return
	}
	defer store.Close()

	_, err = store.Record(context.Background(), history.Run{
		StartedAt:      report.StartedAt,
		Phase:          string(report.Phase),
		Corpus:         checkCorpus,
		RuleSetVersion: report.RuleSetVersion,
		Total:          report.Total,
		Passed:         report.Passed,
		HardFailures:   report.HardFailures,
		Accuracy:       report.Accuracy,
		Consistency:    report.Consistency,
		Threshold:      checkThreshold,
		GatePassed:     gatePassed,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: record run: %v\n", err)
	}
}

func init() {
	checkCmd.Flags().StringVar(&checkPhase, "phase", "engine", "Phase to run: engine, extractor, or pipeline")
	checkCmd.Flags().StringVar(&checkCorpus, "corpus", "", "Corpus file or directory")
	checkCmd.Flags().StringVar(&checkRuleSet, "ruleset", "", "Rule-set artifact path")
	checkCmd.Flags().Float64Var(&checkThreshold, "threshold", 0.98, "Minimum aggregate accuracy")
	checkCmd.Flags().IntVar(&checkWorkers, "workers", 4, "Worker pool size")
	checkCmd.Flags().IntVar(&checkRuns, "runs", 3, "Consistency re-runs per case")
	checkCmd.Flags().StringVar(&checkOut, "out", "", "Write the machine-readable report to this path")
	checkCmd.Flags().BoolVar(&checkNoHistory, "no-history", false, "Skip recording the run in the history DB")
	RootCmd.AddCommand(checkCmd)
}
