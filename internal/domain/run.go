package domain

// ScriptState は1スクリプトの実行状態。
// pending → applying → {committed, rolled_back} の順にのみ遷移する。
type ScriptState string

const (
	ScriptStatePending    ScriptState = "pending"
	ScriptStateApplying   ScriptState = "applying"
	ScriptStateCommitted  ScriptState = "committed"
	ScriptStateRolledBack ScriptState = "rolled_back"
)

// ScriptResult は1スクリプトの実行結果。
type ScriptResult struct {
	Script MigrationScript
	State  ScriptState
	Err    error
}

// RunReport はバッチ全体の実行結果。
type RunReport struct {
	Mode    Mode
	Results []ScriptResult
}

// Committed はcommittedになったスクリプト名を順に返す。
func (r *RunReport) Committed() []string {
	return r.namesIn(ScriptStateCommitted)
}

// RolledBack はrolled_backになったスクリプト名を順に返す。
func (r *RunReport) RolledBack() []string {
	return r.namesIn(ScriptStateRolledBack)
}

func (r *RunReport) namesIn(state ScriptState) []string {
	var names []string
	for _, res := range r.Results {
		if res.State == state {
			names = append(names, res.Script.Name)
		}
	}
	return names
}
