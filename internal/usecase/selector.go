package usecase

import (
	"context"
	"fmt"

	"schema-migrator/internal/domain"
)

// Operator はオペレーターとの対話を抽象化する。
// 端末のプロンプトでも、テスト用の固定応答でもよい。
type Operator interface {
	// SelectScripts は未適用のスクリプトを全て選択済みの状態で提示し、選ばれた名前を返す。
	SelectScripts(ctx context.Context, pending []domain.MigrationScript, mode domain.Mode) ([]string, error)
	// ConfirmContinue は失敗後に残りを続行するかを尋ねる。既定は中止。
	ConfirmContinue(ctx context.Context, failed domain.MigrationScript, cause error) (bool, error)
}

// Select はオペレーターに選ばせ、選択されたスクリプトを元の順序のまま返す。
// 何も選ばれなかった場合は空のスライスを返す（エラーではない）。
func Select(ctx context.Context, op Operator, pending []domain.MigrationScript, mode domain.Mode) ([]domain.MigrationScript, error) {
	if len(pending) == 0 {
		return nil, nil
	}

	names, err := op.SelectScripts(ctx, pending, mode)
	if err != nil {
		return nil, err
	}

	known := make(map[string]struct{}, len(pending))
	for _, s := range pending {
		known[s.Name] = struct{}{}
	}
	chosen := make(map[string]struct{}, len(names))
	for _, name := range names {
		if _, ok := known[name]; !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrUnknownSelection, name)
		}
		chosen[name] = struct{}{}
	}

	var selected []domain.MigrationScript
	for _, s := range pending {
		if _, ok := chosen[s.Name]; ok {
			selected = append(selected, s)
		}
	}

	return selected, nil
}

// SkippedBefore は選択から外されたのに、後ろのスクリプトが選択されているものを返す。
// 順序の飛ばしは許可するが、呼び出し側で警告を出すために使う。
func SkippedBefore(pending, selected []domain.MigrationScript) []domain.MigrationScript {
	if len(selected) == 0 {
		return nil
	}
	last := selected[len(selected)-1].Name

	chosen := make(map[string]struct{}, len(selected))
	for _, s := range selected {
		chosen[s.Name] = struct{}{}
	}

	var skipped []domain.MigrationScript
	for _, s := range pending {
		if s.Name >= last {
			break
		}
		if _, ok := chosen[s.Name]; !ok {
			skipped = append(skipped, s)
		}
	}
	return skipped
}
