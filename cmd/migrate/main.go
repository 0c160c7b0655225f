// Package main はマイグレーションCLIのエントリポイント。
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"schema-migrator/config"
	"schema-migrator/internal/domain"
	"schema-migrator/internal/infra"
	"schema-migrator/internal/prompt"
	"schema-migrator/internal/repository"
	"schema-migrator/internal/usecase"
)

const version = "1.0.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run はコマンドを実行し、終了コードを返す。
func run(ctx context.Context, args []string, stdin, stdout *os.File, stderr io.Writer) int {
	rootCmd := newRootCmd(stdin, stdout, stderr)
	// nilだとcobraがos.Argsを読むため空スライスにする
	rootCmd.SetArgs(append([]string{}, args...))
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd(stdin, stdout *os.File, stderr io.Writer) *cobra.Command {
	var markDone bool

	rootCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending SQL migrations",
		Long: "Apply pending SQL migrations from the migrations directory.\n\n" +
			"Without MIGRATE_DATABASE_URL or DATABASE_URL the SQL is printed for manual application.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			mode := domain.ModeApply
			if markDone {
				mode = domain.ModeMarkDone
			}
			return runMigrate(cmd.Context(), mode, stdin, stdout, stderr)
		},
	}

	rootCmd.Flags().BoolVar(&markDone, "mark-done", false, "Record selected migrations as applied without executing them")

	rootCmd.AddCommand(statusCmd(stdout, stderr))
	rootCmd.AddCommand(versionCmd())

	return rootCmd
}

// versionCmd はバージョン情報を表示する。
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "migrate version %s\n", version)
		},
	}
}

// bootstrap は設定、ロガー、トレーサーを初期化する。戻り値の関数で後始末する。
func bootstrap(ctx context.Context, stderr io.Writer) (*config.Config, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	// トレーサー初期化（ロガー設定の前に実行）
	tp, err := infra.InitTracer(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to init tracer: %w", err)
	}
	infra.SetupLogger(stderr, cfg)

	cleanup := func() {
		if tp == nil {
			return
		}
		// 中断後もスパンを送れるようにキャンセルされないコンテキストを使う
		if err := tp.Shutdown(context.WithoutCancel(ctx)); err != nil {
			slog.Error("failed to shutdown tracer", "error", err)
		}
	}
	return cfg, cleanup, nil
}

func openDB(cfg *config.Config) usecase.OpenFunc {
	return func(ctx context.Context, url string) (*gorm.DB, domain.Dialect, error) {
		return infra.NewDB(ctx, url, cfg)
	}
}

func runMigrate(ctx context.Context, mode domain.Mode, stdin, stdout *os.File, stderr io.Writer) error {
	cfg, cleanup, err := bootstrap(ctx, stderr)
	if err != nil {
		return err
	}
	defer cleanup()

	target, err := usecase.NewConnectionResolver(cfg, openDB(cfg)).Resolve(ctx)
	if err != nil {
		return err
	}

	source := repository.NewScriptSource(afero.NewOsFs(), cfg.MigrationsDir)

	switch t := target.(type) {
	case usecase.ManualTarget:
		if mode == domain.ModeMarkDone {
			slog.WarnContext(ctx, "--mark-done has no effect without a database URL")
		}
		scripts, err := source.List(ctx)
		if err != nil {
			return err
		}
		usecase.NewManualReporter(stdout).Report(scripts)
		return nil

	case usecase.LiveTarget:
		defer func() {
			if err := infra.CloseDB(t.DB); err != nil {
				slog.Error("failed to close database", "error", err)
			}
		}()

		svc := usecase.NewMigrationService(
			source,
			repository.NewLedgerRepository(t.DB),
			repository.NewScriptApplier(t.DB),
			prompt.NewTerminal(stdin, stdout),
			stdout,
		)
		_, err := svc.Run(ctx, mode)
		return err
	}

	return fmt.Errorf("unexpected target %T", target)
}
