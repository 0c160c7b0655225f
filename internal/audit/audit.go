// Package audit は台帳に影響する操作の監査ログを提供する。
package audit

import (
	"context"
	"log/slog"
	"time"
)

// Result は監査ログに記録する結果。
type Result string

const (
	ResultCommitted  Result = "committed"
	ResultRolledBack Result = "rolled_back"
)

// WriteAuditLog は監査ログを出力する。失敗はWARNで出す。
func WriteAuditLog(ctx context.Context, operation string, name string, result Result, err error) {
	attrs := []any{
		"operation", operation,
		"name", name,
		"result", string(result),
		"timestamp", time.Now().UTC().Format(time.RFC3339),
	}
	if err != nil {
		slog.WarnContext(ctx, "migration operation failed", append(attrs, "error", err)...)
		return
	}
	slog.InfoContext(ctx, "migration operation completed", attrs...)
}
