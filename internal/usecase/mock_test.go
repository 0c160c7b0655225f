package usecase

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"schema-migrator/internal/domain"
)

// mockScriptSource はテスト用のモック。
type mockScriptSource struct {
	scripts []domain.MigrationScript
	err     error
}

func (m *mockScriptSource) List(ctx context.Context) ([]domain.MigrationScript, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.scripts, nil
}

// mockLedger はテスト用のモック。
type mockLedger struct {
	mu        sync.Mutex
	applied   map[string]time.Time
	readErr   error
	recordErr error
	records   int
}

func newMockLedger(names ...string) *mockLedger {
	m := &mockLedger{applied: make(map[string]time.Time)}
	for _, n := range names {
		m.applied[n] = time.Now()
	}
	return m
}

func (m *mockLedger) EnsureSchema(ctx context.Context) error {
	return nil
}

func (m *mockLedger) AppliedNames(ctx context.Context) (map[string]struct{}, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return nil, m.readErr
	}
	names := make(map[string]struct{}, len(m.applied))
	for n := range m.applied {
		names[n] = struct{}{}
	}
	return names, nil
}

func (m *mockLedger) Entries(ctx context.Context) ([]domain.LedgerEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return nil, m.readErr
	}
	var entries []domain.LedgerEntry
	for n, at := range m.applied {
		entries = append(entries, domain.LedgerEntry{Name: n, AppliedAt: at})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

func (m *mockLedger) Record(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.recordErr != nil {
		return m.recordErr
	}
	m.records++
	if _, ok := m.applied[name]; !ok {
		m.applied[name] = time.Now()
	}
	return nil
}

// mockApplier はテスト用のモック。failに含まれる名前は失敗させる。
type mockApplier struct {
	ledger   *mockLedger
	fail     map[string]error
	executed []string
}

func (m *mockApplier) Apply(ctx context.Context, script domain.MigrationScript) error {
	m.executed = append(m.executed, script.Name)
	if err, ok := m.fail[script.Name]; ok {
		return &domain.ScriptError{Name: script.Name, Err: err}
	}
	return m.ledger.Record(ctx, script.Name)
}

// fakeOperator は固定の応答を返すOperator。
type fakeOperator struct {
	// selectNames がnilなら提示されたものを全て選ぶ
	selectNames []string
	selectErr   error
	// continueAnswers は失敗ごとに順に返す応答。尽きたらfalse
	continueAnswers []bool
	confirmErr      error

	offered   []string
	confirmed []string
}

func (f *fakeOperator) SelectScripts(ctx context.Context, pending []domain.MigrationScript, mode domain.Mode) ([]string, error) {
	names := make([]string, 0, len(pending))
	for _, s := range pending {
		names = append(names, s.Name)
	}
	f.offered = append(f.offered, names...)
	if f.selectErr != nil {
		return nil, f.selectErr
	}
	if f.selectNames != nil {
		return f.selectNames, nil
	}
	return names, nil
}

func (f *fakeOperator) ConfirmContinue(ctx context.Context, failed domain.MigrationScript, cause error) (bool, error) {
	f.confirmed = append(f.confirmed, failed.Name)
	if f.confirmErr != nil {
		return false, f.confirmErr
	}
	if len(f.continueAnswers) == 0 {
		return false, nil
	}
	ans := f.continueAnswers[0]
	f.continueAnswers = f.continueAnswers[1:]
	return ans, nil
}

func scripts(names ...string) []domain.MigrationScript {
	out := make([]domain.MigrationScript, 0, len(names))
	for _, n := range names {
		out = append(out, domain.MigrationScript{Name: n, Content: "-- " + n})
	}
	return out
}

var errBoom = errors.New("syntax error near \"CREAT\"")
