package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/douhashi/steward/internal/config"
	"github.com/douhashi/steward/internal/workflow"
)

func newPathCmd() *cobra.Command {
	var targets []string

	cmd := &cobra.Command{
		Use:   "path FROM",
		Short: "設定のワークフローでの遷移経路を表示",
		Long:  `transitions の設定から、FROM のステータスから --to のいずれかへの最短の遷移経路を表示します。`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load(cmd.Context(), configSource())
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			from := args[0]
			path := loaded.Workflow().Path(from, targets)
			if len(path) == 1 && !contains(targets, from) {
				return fmt.Errorf("no transition path from %q to any of [%s]", from, strings.Join(targets, ", "))
			}

			for _, hop := range workflow.Hops(path) {
				appLog.Debug("Transition hop", "from", hop.From, "to", hop.To)
			}
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(path, " -> "))
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&targets, "to", nil, "目的のステータス（複数指定可）")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}

func contains(values []string, s string) bool {
	for _, v := range values {
		if v == s {
			return true
		}
	}
	return false
}
