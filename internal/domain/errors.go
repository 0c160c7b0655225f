package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrDiscovery はmigrationsディレクトリが存在しない場合のエラー。
	ErrDiscovery = errors.New("migrations directory not found")

	// ErrConnection は接続文字列が設定されているのにDBへ接続できない場合のエラー。
	ErrConnection = errors.New("database connection failed")

	// ErrUnsupportedDSN は接続文字列の形式を判別できない場合のエラー。
	ErrUnsupportedDSN = errors.New("unsupported database URL")

	// ErrLedgerRead は台帳テーブルを読めない場合のエラー。
	ErrLedgerRead = errors.New("failed to read migration ledger")

	// ErrScriptExecution はマイグレーションSQLの実行に失敗した場合のエラー。
	ErrScriptExecution = errors.New("migration failed")

	// ErrAborted は失敗後にオペレーターが続行を拒否した場合のエラー。
	ErrAborted = errors.New("migration process stopped")

	// ErrUnknownSelection は未適用一覧にない名前が選択された場合のエラー。
	ErrUnknownSelection = errors.New("selected migration is not pending")
)

// ScriptError は特定のスクリプトの失敗を表す。
type ScriptError struct {
	Name string
	Err  error
}

func (e *ScriptError) Error() string {
	return fmt.Sprintf("%s: %v", e.Name, e.Err)
}

func (e *ScriptError) Unwrap() error {
	return e.Err
}

// Is はScriptErrorをErrScriptExecutionとして扱えるようにする。
func (e *ScriptError) Is(target error) bool {
	return target == ErrScriptExecution
}
