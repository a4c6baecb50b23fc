package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/douhashi/steward/internal/config"
	"github.com/douhashi/steward/internal/logger"
	"github.com/douhashi/steward/internal/paths"
	"github.com/douhashi/steward/internal/version"
)

var (
	cfgFile string
	verbose bool
	rootCmd *cobra.Command
	appLog  logger.Logger
)

func init() {
	rootCmd = NewRootCmd()
}

// NewRootCmd creates a new root command with all subcommands
func NewRootCmd() *cobra.Command {
	cmd := newRootCmd()
	cmd.AddCommand(newSyncCmd())
	cmd.AddCommand(newIgnoreLabelCmd())
	cmd.AddCommand(newPathCmd())
	cmd.AddCommand(newEnvCmd())
	return cmd
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "steward",
		Short: "セキュリティ検出結果と課題トラッカーの同期ツール",
		Long: `stewardは、スキャナの検出結果をトラッカーの課題として登録・更新し、
解消済みの課題を自動でクローズ、再発した課題を再オープンするCLIツールです。`,
		Version:       version.Get().String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			appLog, err = newAppLogger(nil)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "設定ファイルのパスまたはURL（未指定時は"+config.EnvConfigSource+"）")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "詳細出力")

	return cmd
}

// Execute はルートコマンドを実行し、終了コードを付けてプロセスを終了する
func Execute() {
	os.Exit(run(rootCmd, os.Args[1:]))
}

func run(cmd *cobra.Command, args []string) int {
	cmd.SetArgs(args)
	err := cmd.Execute()
	if err == nil {
		return 0
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		if exitErr.Err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), exitErr.Err)
		}
		return exitErr.Code
	}
	fmt.Fprintln(cmd.ErrOrStderr(), err)
	return 1
}

// ExitError carries the process exit code chosen from the configured
// exit_codes. Err is printed when set.
type ExitError struct {
	Code   int
	Reason string
	Err    error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("exit %d (%s): %v", e.Code, e.Reason, e.Err)
	}
	return fmt.Sprintf("exit %d (%s)", e.Code, e.Reason)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// configSource decides where the configuration is read from: --config, then
// STEWARD_CONFIG, then the first steward config file found on disk. An empty
// result means environment variables only.
func configSource() string {
	if cfgFile != "" {
		return cfgFile
	}
	if source := strings.TrimSpace(os.Getenv(config.EnvConfigSource)); source != "" {
		return source
	}
	wd, _ := os.Getwd()
	if file, ok := paths.NewPathManager(wd).ConfigFile(); ok {
		return file
	}
	return ""
}

// newAppLogger builds the CLI logger. Environment variables set the base
// level and format, a loaded config overrides them and --verbose forces debug.
func newAppLogger(cfg *config.Config) (logger.Logger, error) {
	lc := logger.ConfigFromEnv()
	if cfg != nil {
		if cfg.Log.Level != "" {
			lc.Level = cfg.Log.Level
		}
		if cfg.Log.Format != "" {
			lc.Format = cfg.Log.Format
		}
	}
	if verbose {
		lc.Level = "debug"
	}
	return logger.New(logger.WithLevel(lc.Level), logger.WithFormat(lc.Format))
}
