package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"schema-migrator/internal/domain"
)

// ScriptSource はマイグレーションファイルを列挙するインターフェース。
type ScriptSource interface {
	List(ctx context.Context) ([]domain.MigrationScript, error)
}

// LedgerStore は適用済みマイグレーションの台帳を管理するインターフェース。
type LedgerStore interface {
	EnsureSchema(ctx context.Context) error
	AppliedNames(ctx context.Context) (map[string]struct{}, error)
	Entries(ctx context.Context) ([]domain.LedgerEntry, error)
	Record(ctx context.Context, name string) error
}

// ScriptApplier はスクリプトの実行と台帳への記録を1トランザクションで行う。
type ScriptApplier interface {
	Apply(ctx context.Context, script domain.MigrationScript) error
}

// MigrationService はマイグレーション実行のビジネスロジックを提供する。
type MigrationService struct {
	source   ScriptSource
	ledger   LedgerStore
	executor *Executor
	operator Operator
	out      io.Writer
}

// NewMigrationService は新しいMigrationServiceを生成する。
func NewMigrationService(source ScriptSource, ledger LedgerStore, applier ScriptApplier, operator Operator, out io.Writer) *MigrationService {
	return &MigrationService{
		source:   source,
		ledger:   ledger,
		executor: NewExecutor(ledger, applier, operator, out),
		operator: operator,
		out:      out,
	}
}

// PendingFrom は台帳に無いスクリプトを元の順序のまま返す。
func PendingFrom(scripts []domain.MigrationScript, applied map[string]struct{}) []domain.MigrationScript {
	var pending []domain.MigrationScript
	for _, s := range scripts {
		if _, ok := applied[s.Name]; !ok {
			pending = append(pending, s)
		}
	}
	return pending
}

// Run は未適用のマイグレーションを提示し、選ばれたものをmodeに従って処理する。
// 何もすることが無い場合は空のRunReportを返す。
func (s *MigrationService) Run(ctx context.Context, mode domain.Mode) (*domain.RunReport, error) {
	report := &domain.RunReport{Mode: mode}

	scripts, err := s.source.List(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list migration files",
			"operation", "run",
			"error", err,
		)
		return nil, err
	}
	if len(scripts) == 0 {
		fmt.Fprintln(s.out, "No migration files found.")
		return report, nil
	}

	if err := s.ledger.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	applied, err := s.ledger.AppliedNames(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to fetch applied migrations",
			"operation", "run",
			"error", err,
		)
		return nil, err
	}

	writeAvailable(s.out, scripts, applied)

	pending := PendingFrom(scripts, applied)
	if len(pending) == 0 {
		fmt.Fprintln(s.out, "All migrations are up to date.")
		return report, nil
	}

	selected, err := Select(ctx, s.operator, pending, mode)
	if err != nil {
		return nil, err
	}
	if len(selected) == 0 {
		fmt.Fprintln(s.out, "No migrations selected. Exiting.")
		return report, nil
	}

	if skipped := SkippedBefore(pending, selected); len(skipped) > 0 {
		names := make([]string, 0, len(skipped))
		for _, sk := range skipped {
			names = append(names, sk.Name)
		}
		slog.WarnContext(ctx, "running migrations out of order", "skipped", names)
		fmt.Fprintf(s.out, "Warning: skipping earlier pending migrations: %s\n", strings.Join(names, ", "))
	}

	fmt.Fprintf(s.out, "\n%s %d migration(s)...\n\n", mode.Verb(), len(selected))

	report, err = s.executor.Run(ctx, selected, mode)
	writeSummary(s.out, report)
	return report, err
}

// GetMigrationStatus は現在のマイグレーション状況を取得する。
func (s *MigrationService) GetMigrationStatus(ctx context.Context) ([]domain.ScriptStatus, error) {
	scripts, err := s.source.List(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.ledger.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	entries, err := s.ledger.Entries(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to fetch applied migrations",
			"operation", "get_migration_status",
			"error", err,
		)
		return nil, err
	}

	appliedAt := make(map[string]time.Time, len(entries))
	for _, e := range entries {
		appliedAt[e.Name] = e.AppliedAt
	}

	statuses := make([]domain.ScriptStatus, 0, len(scripts))
	for _, script := range scripts {
		st := domain.ScriptStatus{Script: script, Status: domain.MigrationStatusPending}
		if at, ok := appliedAt[script.Name]; ok {
			st.Status = domain.MigrationStatusApplied
			st.AppliedAt = &at
		}
		statuses = append(statuses, st)
	}

	return statuses, nil
}

// WriteStatusTable はステータス一覧を表形式で出力する。適用日時はnowからの相対表記。
func WriteStatusTable(w io.Writer, statuses []domain.ScriptStatus, now time.Time) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSTATUS\tAPPLIED")
	for _, st := range statuses {
		applied := "-"
		if st.AppliedAt != nil {
			applied = humanize.RelTime(*st.AppliedAt, now, "ago", "from now")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", st.Script.Name, st.Status, applied)
	}
	return tw.Flush()
}

func writeAvailable(w io.Writer, scripts []domain.MigrationScript, applied map[string]struct{}) {
	fmt.Fprintln(w, "Available migrations:")
	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for i, s := range scripts {
		status := "Pending"
		if _, ok := applied[s.Name]; ok {
			status = "Applied"
		}
		fmt.Fprintf(tw, "  %d.\t%s\t%s\n", i+1, s.Name, status)
	}
	_ = tw.Flush()
	fmt.Fprintln(w)
}

func writeSummary(w io.Writer, report *domain.RunReport) {
	if report == nil {
		return
	}
	done := len(report.Committed())
	failed := len(report.RolledBack())
	if report.Mode == domain.ModeMarkDone {
		fmt.Fprintf(w, "Done: %d marked as applied, %d failed.\n", done, failed)
		return
	}
	fmt.Fprintf(w, "Done: %d applied, %d failed.\n", done, failed)
}
