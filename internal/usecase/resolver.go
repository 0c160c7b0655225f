package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"schema-migrator/config"
	"schema-migrator/internal/domain"
)

// Target は接続解決の結果。LiveTarget か ManualTarget のどちらか。
type Target interface {
	isTarget()
}

// LiveTarget はDBに接続できた場合の結果。
type LiveTarget struct {
	DB      *gorm.DB
	Dialect domain.Dialect
}

// ManualTarget は接続文字列が設定されていない場合の結果。
type ManualTarget struct{}

func (LiveTarget) isTarget()   {}
func (ManualTarget) isTarget() {}

// OpenFunc は接続文字列からDBを開く。
type OpenFunc func(ctx context.Context, url string) (*gorm.DB, domain.Dialect, error)

// ConnectionResolver はライブモードか手動モードかを一度だけ決める。
type ConnectionResolver struct {
	cfg  *config.Config
	open OpenFunc
}

// NewConnectionResolver は新しいConnectionResolverを生成する。
func NewConnectionResolver(cfg *config.Config, open OpenFunc) *ConnectionResolver {
	return &ConnectionResolver{cfg: cfg, open: open}
}

// Resolve は接続先を決める。接続文字列が無いのは正常系でありエラーにしない。
func (r *ConnectionResolver) Resolve(ctx context.Context) (Target, error) {
	if !r.cfg.HasDatabaseURL() {
		slog.InfoContext(ctx, "no database URL configured, using manual mode")
		return ManualTarget{}, nil
	}

	db, dialect, err := r.open(ctx, r.cfg.DatabaseURL)
	if err != nil {
		slog.ErrorContext(ctx, "failed to connect to database",
			"operation", "resolve",
			"error", err,
		)
		if errors.Is(err, domain.ErrUnsupportedDSN) {
			return nil, fmt.Errorf("%w: %w", domain.ErrConnection, err)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrConnection, err)
	}

	if !dialect.TransactionalDDL() {
		slog.WarnContext(ctx, "database does not support transactional DDL; a failed script may leave partial schema changes",
			"dialect", string(dialect),
		)
	}
	slog.InfoContext(ctx, "connected to database", "dialect", string(dialect))

	return LiveTarget{DB: db, Dialect: dialect}, nil
}
