// Package domain はドメインモデルとビジネスルールを定義する。
package domain

import "time"

// MigrationScript はmigrationsディレクトリ内の1つのSQLファイルを表す。
// Nameはファイル名そのもので、辞書順が適用順になる。
type MigrationScript struct {
	Name    string // 例: "001_create_users.sql"
	Content string // 生のSQL（読み込み後は変更しない）
	Path    string
}

// LedgerEntry は適用済みとして台帳に記録されたマイグレーションを表す。
type LedgerEntry struct {
	Name      string
	AppliedAt time.Time
}

// MigrationStatus はマイグレーションの適用状態を表す
type MigrationStatus string

const (
	MigrationStatusPending MigrationStatus = "pending"
	MigrationStatusApplied MigrationStatus = "applied"
)

// ScriptStatus はステータス表示用にスクリプトと台帳の状態を組み合わせたもの。
type ScriptStatus struct {
	Script    MigrationScript
	Status    MigrationStatus
	AppliedAt *time.Time // 未適用の場合はnil
}

// Mode は実行モード。
type Mode int

const (
	// ModeApply はSQLを実行し、成功したら台帳に記録する。
	ModeApply Mode = iota
	// ModeMarkDone はSQLを実行せずに台帳へ記録だけ行う。
	ModeMarkDone
)

func (m Mode) String() string {
	if m == ModeMarkDone {
		return "mark_done"
	}
	return "apply"
}

// Verb は進捗表示に使う動詞を返す。
func (m Mode) Verb() string {
	if m == ModeMarkDone {
		return "Marking"
	}
	return "Applying"
}

// Dialect は接続先データベースの種類。
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectMySQL    Dialect = "mysql"
	DialectSQLite   Dialect = "sqlite"
)

// TransactionalDDL はDDLをトランザクション内でロールバックできるかを返す。
// MySQLはDDLで暗黙コミットされる。
func (d Dialect) TransactionalDDL() bool {
	return d != DialectMySQL
}
