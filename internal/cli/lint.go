package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jeanpaul/shelver/internal/rules"
)

var lintStrict bool

var lintCmd = &cobra.Command{
	Use:   "lint <ruleset>",
	Short: "Validate a rule-set artifact and report shadowed rules",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		strict := cfg.Strict || lintStrict

		rs, err := rules.Load(args[0], rules.Options{Strict: strict})
		if err != nil {
			exitErr("lint", err)
		}

		fmt.Printf("ok: %s (version %s, %d rules)\n", args[0], rs.Version, rs.Len())
		for _, w := range rs.Warnings {
			fmt.Printf("warning: %s\n", w)
		}
	},
}

func init() {
	lintCmd.Flags().BoolVar(&lintStrict, "strict", false, "Treat shadowed rules as errors")
	RootCmd.AddCommand(lintCmd)
}
