// Package repository はデータアクセス層の実装を提供する。
package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"schema-migrator/internal/domain"
)

// LedgerTable は台帳テーブル名。アプリケーションのテーブルと衝突しないよう_で始める。
const LedgerTable = "_migrations"

// LedgerEntryModel は_migrationsテーブルのモデル。
type LedgerEntryModel struct {
	ID        uint      `gorm:"column:id;primaryKey;autoIncrement"`
	Name      string    `gorm:"column:name;type:varchar(255);not null;uniqueIndex:uk_migrations_name"`
	AppliedAt time.Time `gorm:"column:applied_at;not null;autoCreateTime"`
}

// TableName はテーブル名を指定。
func (LedgerEntryModel) TableName() string {
	return LedgerTable
}

// LedgerRepository はマイグレーション台帳を管理するリポジトリ。
// 台帳は追記のみで、更新・削除は行わない。
type LedgerRepository struct {
	db *gorm.DB
}

// NewLedgerRepository は新しいLedgerRepositoryを生成する。
func NewLedgerRepository(db *gorm.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// EnsureSchema は台帳テーブルが無ければ作成する。既存のテーブルには触れない。
func (r *LedgerRepository) EnsureSchema(ctx context.Context) error {
	m := r.db.WithContext(ctx).Migrator()
	if m.HasTable(&LedgerEntryModel{}) {
		return nil
	}
	if err := m.CreateTable(&LedgerEntryModel{}); err != nil {
		slog.ErrorContext(ctx, "failed to create ledger table",
			"operation", "ensure_schema",
			"table", LedgerTable,
			"error", err,
		)
		return fmt.Errorf("%w: creating %s: %v", domain.ErrLedgerRead, LedgerTable, err)
	}
	slog.InfoContext(ctx, "created ledger table", "table", LedgerTable)
	return nil
}

// AppliedNames は台帳に記録済みの名前の集合を返す。
func (r *LedgerRepository) AppliedNames(ctx context.Context) (map[string]struct{}, error) {
	var names []string
	if err := r.db.WithContext(ctx).Model(&LedgerEntryModel{}).Pluck("name", &names).Error; err != nil {
		slog.ErrorContext(ctx, "failed to read applied migrations",
			"operation", "applied_names",
			"error", err,
		)
		return nil, fmt.Errorf("%w: %v", domain.ErrLedgerRead, err)
	}

	applied := make(map[string]struct{}, len(names))
	for _, name := range names {
		applied[name] = struct{}{}
	}
	return applied, nil
}

// Entries は台帳の全エントリを名前順に返す。
func (r *LedgerRepository) Entries(ctx context.Context) ([]domain.LedgerEntry, error) {
	var models []LedgerEntryModel
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&models).Error; err != nil {
		slog.ErrorContext(ctx, "failed to find ledger entries",
			"operation", "entries",
			"error", err,
		)
		return nil, fmt.Errorf("%w: %v", domain.ErrLedgerRead, err)
	}

	entries := make([]domain.LedgerEntry, len(models))
	for i, m := range models {
		entries[i] = domain.LedgerEntry{Name: m.Name, AppliedAt: m.AppliedAt}
	}
	return entries, nil
}

// Record はマイグレーション適用履歴を記録する。
// 同名が既にある場合は何もしない（エラーにもしない）。
func (r *LedgerRepository) Record(ctx context.Context, name string) error {
	inserted, err := record(r.db.WithContext(ctx), name)
	if err != nil {
		slog.ErrorContext(ctx, "failed to record migration",
			"operation", "record",
			"name", name,
			"error", err,
		)
		return err
	}
	if !inserted {
		slog.DebugContext(ctx, "migration already recorded", "name", name)
	}
	return nil
}

// record はdb（トランザクションでもよい）に台帳行を1件挿入する。
// 衝突した場合はfalseを返す。
func record(db *gorm.DB, name string) (bool, error) {
	model := &LedgerEntryModel{Name: name}
	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(model)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
