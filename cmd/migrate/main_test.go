package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// testEnv は一時ディレクトリをカレントにし、migrationsを作成する。
type testEnv struct {
	dir string
}

func newTestEnv(t *testing.T, files map[string]string) *testEnv {
	t.Helper()

	dir := t.TempDir()
	chdirForTest(t, dir)
	for _, k := range []string{"MIGRATE_DATABASE_URL", "DATABASE_URL", "MIGRATIONS_DIR", "LOG_LEVEL", "LOG_FORMAT", "OTEL_ENABLED"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	if files != nil {
		if err := os.Mkdir(filepath.Join(dir, "migrations"), 0755); err != nil {
			t.Fatalf("failed to create migrations dir: %v", err)
		}
		for name, content := range files {
			if err := os.WriteFile(filepath.Join(dir, "migrations", name), []byte(content), 0644); err != nil {
				t.Fatalf("failed to write %s: %v", name, err)
			}
		}
	}

	return &testEnv{dir: dir}
}

// exec はコマンドを実行し、終了コードと標準出力・標準エラーの内容を返す。
// 入力は端末ではないファイルなので、プロンプトは既定値で応答する。
func (e *testEnv) exec(t *testing.T, args ...string) (int, string, string) {
	t.Helper()

	open := func(name string) *os.File {
		f, err := os.Create(filepath.Join(t.TempDir(), name))
		if err != nil {
			t.Fatalf("failed to create %s: %v", name, err)
		}
		t.Cleanup(func() { f.Close() })
		return f
	}
	stdin, stdout, stderr := open("stdin"), open("stdout"), open("stderr")

	code := run(context.Background(), args, stdin, stdout, stderr)

	read := func(f *os.File) string {
		b, err := os.ReadFile(f.Name())
		if err != nil {
			t.Fatalf("failed to read %s: %v", f.Name(), err)
		}
		return string(b)
	}
	return code, read(stdout), read(stderr)
}

func (e *testEnv) useSQLite(t *testing.T) {
	t.Helper()
	t.Setenv("MIGRATE_DATABASE_URL", "sqlite://"+filepath.Join(e.dir, "app.db"))
}

func TestRun_ManualModeWithoutDatabaseURL(t *testing.T) {
	env := newTestEnv(t, map[string]string{
		"001_users.sql": "CREATE TABLE users (id INTEGER PRIMARY KEY);",
	})

	code, stdout, stderr := env.exec(t)
	if code != 0 {
		t.Fatalf("expected exit 0, got %d (stderr: %s)", code, stderr)
	}
	for _, want := range []string{"Found 1 migration file(s)", "CREATE TABLE users", "--mark-done"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("expected stdout to contain %q, got:\n%s", want, stdout)
		}
	}
}

func TestRun_LiveApplyIsIdempotent(t *testing.T) {
	env := newTestEnv(t, map[string]string{
		"001_users.sql": "CREATE TABLE users (id INTEGER PRIMARY KEY);",
		"002_posts.sql": "CREATE TABLE posts (id INTEGER PRIMARY KEY);\nCREATE INDEX idx_posts_id ON posts(id);",
	})
	env.useSQLite(t)

	code, stdout, stderr := env.exec(t)
	if code != 0 {
		t.Fatalf("expected exit 0, got %d (stderr: %s)", code, stderr)
	}
	for _, want := range []string{"Applied 001_users.sql", "Applied 002_posts.sql", "Done: 2 applied, 0 failed."} {
		if !strings.Contains(stdout, want) {
			t.Errorf("expected stdout to contain %q, got:\n%s", want, stdout)
		}
	}

	code, stdout, stderr = env.exec(t)
	if code != 0 {
		t.Fatalf("expected exit 0 on second run, got %d (stderr: %s)", code, stderr)
	}
	if !strings.Contains(stdout, "All migrations are up to date.") {
		t.Errorf("unexpected second run output:\n%s", stdout)
	}

	code, stdout, stderr = env.exec(t, "status")
	if code != 0 {
		t.Fatalf("expected status exit 0, got %d (stderr: %s)", code, stderr)
	}
	if strings.Count(stdout, "applied") != 2 {
		t.Errorf("expected 2 applied rows, got:\n%s", stdout)
	}
}

func TestRun_FailureAbortsWithoutTerminal(t *testing.T) {
	env := newTestEnv(t, map[string]string{
		"001_broken.sql": "CREAT TABLE oops (id INTEGER);",
		"002_users.sql":  "CREATE TABLE users (id INTEGER PRIMARY KEY);",
	})
	env.useSQLite(t)

	code, stdout, stderr := env.exec(t)
	if code == 0 {
		t.Fatal("expected non-zero exit after abort")
	}
	if !strings.Contains(stdout, "Failed to apply 001_broken.sql") {
		t.Errorf("expected failure line, got:\n%s", stdout)
	}
	if strings.Contains(stdout, "Applying 002_users.sql") {
		t.Error("expected the batch to stop after the failure")
	}
	if !strings.Contains(stderr, "migration process stopped") {
		t.Errorf("expected abort message on stderr, got:\n%s", stderr)
	}
}

func TestRun_MarkDone(t *testing.T) {
	env := newTestEnv(t, map[string]string{
		"001_users.sql": "CREATE TABLE users (id INTEGER PRIMARY KEY);",
	})
	env.useSQLite(t)

	code, stdout, stderr := env.exec(t, "--mark-done")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d (stderr: %s)", code, stderr)
	}
	if !strings.Contains(stdout, "Marked 001_users.sql as applied") {
		t.Errorf("unexpected output:\n%s", stdout)
	}

	code, stdout, _ = env.exec(t)
	if code != 0 || !strings.Contains(stdout, "All migrations are up to date.") {
		t.Errorf("expected nothing pending after mark-done, got exit %d:\n%s", code, stdout)
	}
}

func TestRun_Errors(t *testing.T) {
	t.Run("missing migrations directory", func(t *testing.T) {
		env := newTestEnv(t, nil)
		env.useSQLite(t)

		code, _, stderr := env.exec(t)
		if code == 0 {
			t.Fatal("expected non-zero exit")
		}
		if !strings.Contains(stderr, "migrations directory") {
			t.Errorf("unexpected stderr:\n%s", stderr)
		}
	})

	t.Run("unsupported database URL", func(t *testing.T) {
		env := newTestEnv(t, map[string]string{"001_a.sql": "SELECT 1;"})
		t.Setenv("MIGRATE_DATABASE_URL", "oracle://scott:tiger@db/orcl")

		code, _, stderr := env.exec(t)
		if code == 0 {
			t.Fatal("expected non-zero exit")
		}
		if strings.Contains(stderr, "tiger") {
			t.Errorf("password leaked to stderr:\n%s", stderr)
		}
	})

	t.Run("status without database URL", func(t *testing.T) {
		env := newTestEnv(t, map[string]string{"001_a.sql": "SELECT 1;"})

		if code, _, _ := env.exec(t, "status"); code == 0 {
			t.Fatal("expected non-zero exit")
		}
	})
}

func TestRun_Version(t *testing.T) {
	env := newTestEnv(t, nil)

	code, stdout, _ := env.exec(t, "version")
	if code != 0 || !strings.Contains(stdout, "migrate version "+version) {
		t.Errorf("unexpected version output (exit %d): %q", code, stdout)
	}
}

// chdirForTest はテスト中だけカレントディレクトリを変更し、終了時に元へ戻す
// (Go 1.24 の t.Chdir 相当。ローカルツールチェーンは Go 1.21)。
func chdirForTest(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir %s: %v", dir, err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatalf("restore cwd %s: %v", prev, err)
		}
	})
}
