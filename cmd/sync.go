package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/douhashi/steward/internal/config"
	"github.com/douhashi/steward/internal/finding"
	"github.com/douhashi/steward/internal/github"
	"github.com/douhashi/steward/internal/logger"
	"github.com/douhashi/steward/internal/steward"
	"github.com/douhashi/steward/internal/telemetry"
	"github.com/douhashi/steward/internal/tracker"
	_ "github.com/douhashi/steward/internal/tracker/memory"
	"github.com/douhashi/steward/internal/version"
)

type syncOptions struct {
	findings    string
	dryRun      bool
	trackerName string
	timeout     time.Duration
}

// テスト用に差し替え可能なトラッカー生成関数
var newTrackerFunc = newTracker

func newSyncCmd() *cobra.Command {
	opts := &syncOptions{}

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "検出結果をトラッカーの課題に同期",
		Long: `検出結果ファイルを読み込み、課題の作成・更新・自動クローズ・再オープンを行います。
終了コードは設定の exit_codes に従います。`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.findings, "findings", "f", "", "検出結果ファイル（YAMLまたはJSON）")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "トラッカーへの書き込みを行わずにログだけ出力")
	cmd.Flags().StringVarP(&opts.trackerName, "tracker", "t", "", "使用するトラッカー（設定のtracker.nameを上書き）")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "同期全体のタイムアウト（0は無制限）")
	_ = cmd.MarkFlagRequired("findings")

	return cmd
}

func runSync(cmd *cobra.Command, opts *syncOptions) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if opts.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, opts.timeout)
		defer cancel()
	}

	loaded, err := config.Load(ctx, configSource())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg := loaded.Clone()
	if opts.dryRun {
		cfg.DryRun = true
	}
	if opts.trackerName != "" {
		cfg.Tracker.Name = opts.trackerName
	}

	log, err := newAppLogger(cfg)
	if err != nil {
		return configFailure(cfg, fmt.Errorf("%w: %v", config.ErrInvalid, err))
	}

	if err := telemetry.Init(ctx, telemetry.Options{
		Enabled:     cfg.Telemetry.Enabled,
		ServiceName: cfg.Telemetry.ServiceName,
		Version:     version.Get().Version,
	}); err != nil {
		log.Warn("Failed to initialize telemetry", "error", err)
	}
	defer func() {
		// ctxはタイムアウトやシグナルで終了している場合がある
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			log.Warn("Failed to shut down telemetry", "error", err)
		}
	}()

	if err := cfg.Validate(); err != nil {
		return configFailure(cfg, err)
	}

	data, err := finding.Load(opts.findings)
	if err != nil {
		return configFailure(cfg, err)
	}

	base, err := newTrackerFunc(cfg, log)
	if err != nil {
		return configFailure(cfg, fmt.Errorf("failed to create tracker %q: %w", cfg.Tracker.Name, err))
	}

	engineOpts := []steward.Option{steward.WithLogger(log)}
	if m, err := telemetry.NewRunMetrics(telemetry.Meter("")); err != nil {
		log.Warn("Failed to create run metrics", "error", err)
	} else {
		engineOpts = append(engineOpts, steward.WithMetrics(m))
	}

	summary, err := steward.Process(ctx, data, cfg, base, engineOpts...)
	if summary != nil {
		fmt.Fprintln(cmd.OutOrStdout(), summary.String())
	}
	if err != nil {
		return configFailure(cfg, err)
	}

	code, reason, ok := steward.ExitCode(summary, cfg.ExitCodes)
	if ok && code != 0 {
		log.Info("Exiting with configured code", "code", code, "reason", string(reason))
		return &ExitError{Code: code, Reason: string(reason)}
	}
	return nil
}

// configFailure は実行全体の失敗を返す。exit_codes.on_failure が設定されていればその終了コードを使う
func configFailure(cfg *config.Config, err error) error {
	if cfg != nil && cfg.ExitCodes.OnFailure != nil {
		return &ExitError{Code: *cfg.ExitCodes.OnFailure, Reason: string(steward.ExitFailure), Err: err}
	}
	return err
}

// newTracker creates the base tracker named in the config. The GitHub adapter
// is built directly so that its HTTP traffic goes to the CLI logger.
func newTracker(cfg *config.Config, log logger.Logger) (tracker.Tracker, error) {
	priorities, err := cfg.PriorityNames()
	if err != nil {
		return nil, err
	}
	if cfg.Tracker.Name == github.Name {
		t, err := github.New(cfg.Connection(), priorities, github.WithLogger(log))
		if err != nil {
			return nil, err
		}
		return t, nil
	}
	return tracker.New(cfg.Tracker.Name, cfg.Connection(), priorities)
}
