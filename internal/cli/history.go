package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeanpaul/shelver/internal/history"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent validation gate runs",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()

		store, err := history.Open(cfg.HistoryDB)
		if err != nil {
			exitErr("open history", err)
		}
		defer store.Close()

		runs, err := store.Recent(context.Background(), historyLimit)
		if err != nil {
			exitErr("read history", err)
		}
		if len(runs) == 0 {
			fmt.Println("no recorded runs")
			return
		}

		fmt.Printf("%-20s %-10s %-9s %-8s %-8s %-5s %s\n",
			"when", "phase", "accuracy", "consist", "hard", "gate", "ruleset")
		for _, run := range runs {
			gate := "pass"
			if !run.GatePassed {
				gate = "FAIL"
			}
			fmt.Printf("%-20s %-10s %8.1f%% %7.1f%% %8d %-5s %s\n",
				run.StartedAt.Local().Format(time.DateTime), run.Phase,
				run.Accuracy*100, run.Consistency*100, run.HardFailures, gate, run.RuleSetVersion)
		}
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum runs to show")
	RootCmd.AddCommand(historyCmd)
}
