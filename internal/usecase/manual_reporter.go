package usecase

import (
	"fmt"
	"io"
	"strings"

	"schema-migrator/config"
	"schema-migrator/internal/domain"
)

const ruleWidth = 60

// ManualReporter は接続が無い場合に、手動で適用するための手順とSQLを出力する。
// 台帳を読めないため、適用済みかどうかに関係なく全件を出力する。
type ManualReporter struct {
	out io.Writer
}

// NewManualReporter は新しいManualReporterを生成する。
func NewManualReporter(out io.Writer) *ManualReporter {
	return &ManualReporter{out: out}
}

// Report は全スクリプトの手順とSQLを出力する。DBには一切アクセスしない。
func (r *ManualReporter) Report(scripts []domain.MigrationScript) {
	w := r.out
	envs := strings.Join(config.DatabaseURLEnvVars, " or ")

	fmt.Fprintf(w, "No database URL configured (%s).\n", envs)
	fmt.Fprintln(w, "Showing manual migration instructions...")
	fmt.Fprintln(w)

	if len(scripts) == 0 {
		fmt.Fprintln(w, "No migration files found.")
		return
	}

	fmt.Fprintf(w, "Found %d migration file(s):\n\n", len(scripts))
	for i, s := range scripts {
		fmt.Fprintf(w, "  %d. %s\n", i+1, s.Name)
	}

	fmt.Fprintf(w, "\n%s\n\n", rule())
	fmt.Fprintln(w, "To apply these migrations:")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  1. Open the SQL console of your database (e.g. Supabase Dashboard > SQL Editor)")
	fmt.Fprintln(w, "  2. Copy and paste the SQL of each migration below, in the order shown")
	fmt.Fprintln(w, "  3. Run it")
	fmt.Fprintln(w, "  4. Skip migrations that were already applied; without a connection this tool")
	fmt.Fprintln(w, "     cannot tell which ones have been")
	fmt.Fprintf(w, "\n%s\n\n", rule())

	for _, s := range scripts {
		writeBox(w, s.Name)
		fmt.Fprintln(w, strings.TrimRight(s.Content, "\n"))
		fmt.Fprintln(w)
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "%s\n\n", rule())
	fmt.Fprintf(w, "To apply automatically, set %s (for example in .env.local).\n", envs)
	fmt.Fprintln(w, "Then run with --mark-done to record migrations you applied by hand.")
}

func rule() string {
	return strings.Repeat("━", ruleWidth)
}

func writeBox(w io.Writer, name string) {
	label := fmt.Sprintf(" Migration: %-43s ", name)
	width := len([]rune(label))
	fmt.Fprintf(w, "-- ┌%s┐\n", strings.Repeat("─", width))
	fmt.Fprintf(w, "-- │%s│\n", label)
	fmt.Fprintf(w, "-- └%s┘\n\n", strings.Repeat("─", width))
}
