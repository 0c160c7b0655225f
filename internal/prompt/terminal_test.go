package prompt

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/AlecAivazis/survey/v2/terminal"

	"schema-migrator/internal/domain"
)

// regularFile は端末ではないファイルを返す。
func regularFile(t *testing.T) *os.File {
	t.Helper()
	f, err := os.Create(filepath.Join(t.TempDir(), "stdio"))
	if err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func TestTerminal_NonInteractiveSelectsAll(t *testing.T) {
	f := regularFile(t)
	term := NewTerminal(f, f)

	pending := []domain.MigrationScript{{Name: "001_a.sql"}, {Name: "002_b.sql"}}
	got, err := term.SelectScripts(context.Background(), pending, domain.ModeApply)
	if err != nil {
		t.Fatalf("SelectScripts failed: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"001_a.sql", "002_b.sql"}) {
		t.Errorf("expected all pending selected, got %v", got)
	}
}

func TestTerminal_NonInteractiveAbortsOnFailure(t *testing.T) {
	f := regularFile(t)
	term := NewTerminal(f, f)

	cont, err := term.ConfirmContinue(context.Background(), domain.MigrationScript{Name: "001_a.sql"}, errors.New("boom"))
	if err != nil {
		t.Fatalf("ConfirmContinue failed: %v", err)
	}
	if cont {
		t.Error("expected abort by default")
	}
}

func TestWrapPromptErr(t *testing.T) {
	if err := wrapPromptErr(terminal.InterruptErr); !errors.Is(err, domain.ErrAborted) {
		t.Errorf("expected interrupt to abort, got %v", err)
	}

	other := errors.New("EOF")
	err := wrapPromptErr(other)
	if errors.Is(err, domain.ErrAborted) || !errors.Is(err, other) {
		t.Errorf("unexpected wrapping: %v", err)
	}
}
