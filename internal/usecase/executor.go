package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"schema-migrator/internal/audit"
	"schema-migrator/internal/domain"
)

const tracerName = "schema-migrator/usecase"

// Executor は選択されたマイグレーションを1件ずつ順番に適用する。
type Executor struct {
	ledger   LedgerStore
	applier  ScriptApplier
	operator Operator
	out      io.Writer
	tracer   trace.Tracer
}

// NewExecutor は新しいExecutorを生成する。
func NewExecutor(ledger LedgerStore, applier ScriptApplier, operator Operator, out io.Writer) *Executor {
	return &Executor{
		ledger:   ledger,
		applier:  applier,
		operator: operator,
		out:      out,
		tracer:   otel.Tracer(tracerName),
	}
}

// Run はchosenを順に処理する。並行実行はしない。
// 失敗したらオペレーターに続行可否を尋ね、中止ならdomain.ErrAbortedを返す。
// 失敗したスクリプトは台帳に残らないので、次回も未適用として扱われる。
func (e *Executor) Run(ctx context.Context, chosen []domain.MigrationScript, mode domain.Mode) (*domain.RunReport, error) {
	report := &domain.RunReport{Mode: mode}

	for _, script := range chosen {
		res := e.runOne(ctx, script, mode)
		report.Results = append(report.Results, res)

		if res.State == domain.ScriptStateCommitted {
			continue
		}
		if err := ctx.Err(); err != nil {
			return report, err
		}

		cont, err := e.operator.ConfirmContinue(ctx, script, res.Err)
		if err != nil {
			return report, fmt.Errorf("%w: %v", domain.ErrAborted, err)
		}
		if !cont {
			return report, fmt.Errorf("%w after %s failed", domain.ErrAborted, script.Name)
		}
		slog.InfoContext(ctx, "operator chose to continue after failure", "name", script.Name)
	}

	return report, nil
}

func (e *Executor) runOne(ctx context.Context, script domain.MigrationScript, mode domain.Mode) domain.ScriptResult {
	ctx, span := e.tracer.Start(ctx, "migration."+mode.String(), trace.WithAttributes(
		attribute.String("migration.name", script.Name),
		attribute.String("migration.mode", mode.String()),
	))
	defer span.End()

	slog.DebugContext(ctx, "migration state changed", "name", script.Name, "state", domain.ScriptStateApplying)
	fmt.Fprintf(e.out, "%s %s...\n", mode.Verb(), script.Name)

	var err error
	switch mode {
	case domain.ModeMarkDone:
		// SQLは実行しない。外部で適用済みのものを台帳に合わせるだけ
		if err = e.ledger.Record(ctx, script.Name); err != nil {
			err = &domain.ScriptError{Name: script.Name, Err: err}
		}
	default:
		err = e.applier.Apply(ctx, script)
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "rolled back")
		fmt.Fprintf(e.out, "Failed to %s %s:\n   %v\n\n", failVerb(mode), script.Name, unwrapScript(err))
		audit.WriteAuditLog(ctx, mode.String(), script.Name, audit.ResultRolledBack, err)
		return domain.ScriptResult{Script: script, State: domain.ScriptStateRolledBack, Err: err}
	}

	if mode == domain.ModeMarkDone {
		fmt.Fprintf(e.out, "Marked %s as applied\n\n", script.Name)
	} else {
		fmt.Fprintf(e.out, "Applied %s\n\n", script.Name)
	}
	audit.WriteAuditLog(ctx, mode.String(), script.Name, audit.ResultCommitted, nil)
	return domain.ScriptResult{Script: script, State: domain.ScriptStateCommitted}
}

func failVerb(mode domain.Mode) string {
	if mode == domain.ModeMarkDone {
		return "mark"
	}
	return "apply"
}

// unwrapScript は表示用にScriptErrorの名前部分を取り除く。
func unwrapScript(err error) error {
	var se *domain.ScriptError
	if errors.As(err, &se) {
		return se.Err
	}
	return err
}
