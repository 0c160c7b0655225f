package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"schema-migrator/config"
	"schema-migrator/internal/infra"
	"schema-migrator/internal/repository"
	"schema-migrator/internal/usecase"
)

// statusCmd は適用済み・未適用の一覧を表示する。台帳テーブルが無ければ作成する以外は読み取りのみ。
func statusCmd(stdout *os.File, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		Long:  "Show the status of all migrations (applied/pending)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, cleanup, err := bootstrap(ctx, stderr)
			if err != nil {
				return err
			}
			defer cleanup()

			if !cfg.HasDatabaseURL() {
				return fmt.Errorf("status requires a database URL (set %s)", config.DatabaseURLEnvVars[0])
			}

			db, _, err := infra.NewDB(ctx, cfg.DatabaseURL, cfg)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer func() {
				if err := infra.CloseDB(db); err != nil {
					slog.Error("failed to close database", "error", err)
				}
			}()

			// 状態表示ではプロンプトを出さないのでOperatorは不要
			svc := usecase.NewMigrationService(
				repository.NewScriptSource(afero.NewOsFs(), cfg.MigrationsDir),
				repository.NewLedgerRepository(db),
				repository.NewScriptApplier(db),
				nil,
				stdout,
			)

			statuses, err := svc.GetMigrationStatus(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}
			if len(statuses) == 0 {
				fmt.Fprintln(stdout, "No migration files found.")
				return nil
			}

			return usecase.WriteStatusTable(stdout, statuses, time.Now())
		},
	}
}
