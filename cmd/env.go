package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/douhashi/steward/internal/config"
)

func newEnvCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "env",
		Short: "設定に使える環境変数の一覧を表示",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprint(cmd.OutOrStdout(), config.EnvUsage())
			return nil
		},
	}
}
