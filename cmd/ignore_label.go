package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/douhashi/steward/internal/config"
	"github.com/douhashi/steward/internal/ignore"
)

// DefaultIgnoreLabelLength は発行するラベルのサフィックスの既定の長さ
const DefaultIgnoreLabelLength = 16

func newIgnoreLabelCmd() *cobra.Command {
	var (
		priorityOnly bool
		length       int
	)

	cmd := &cobra.Command{
		Use:   "ignore-label KEY",
		Short: "課題を自動処理の対象外にするラベルを発行",
		Long: `設定の ignore_secret を使い、課題キーに対応する抑止ラベルを発行します。
--priority を指定すると優先度の変更だけを抑止するラベルになります。`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load(cmd.Context(), configSource())
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			prefix := ignore.PrefixComplete
			if priorityOnly {
				prefix = ignore.PrefixPriority
			}
			label, err := ignore.NewEvaluator(loaded.IgnoreSecret).Mint(prefix, args[0], length)
			if err != nil {
				return err
			}
			appLog.Debug("Minted ignore label", "issue_key", args[0], "prefix", prefix, "length", length)
			fmt.Fprintln(cmd.OutOrStdout(), label)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&priorityOnly, "priority", "p", false, "優先度の変更だけを抑止する")
	cmd.Flags().IntVarP(&length, "length", "n", DefaultIgnoreLabelLength, "サフィックスの長さ（8〜64）")

	return cmd
}
