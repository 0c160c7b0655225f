package repository

import (
	"context"
	"log/slog"

	"gorm.io/gorm"

	"schema-migrator/internal/domain"
)

// ScriptApplier は対象データベースにマイグレーションを適用する。
type ScriptApplier struct {
	db *gorm.DB
}

// NewScriptApplier は新しいScriptApplierを生成する。
func NewScriptApplier(db *gorm.DB) *ScriptApplier {
	return &ScriptApplier{db: db}
}

// Apply はスクリプト全体の実行と台帳への記録を1つのトランザクションで行う。
// どちらかが失敗した場合はロールバックされ、台帳には何も残らない。
func (a *ScriptApplier) Apply(ctx context.Context, script domain.MigrationScript) error {
	err := a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(script.Content).Error; err != nil {
			return err
		}
		// 同じtxで記録する
		_, err := record(tx, script.Name)
		return err
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to apply migration",
			"operation", "apply",
			"name", script.Name,
			"error", err,
		)
		return &domain.ScriptError{Name: script.Name, Err: err}
	}
	return nil
}
