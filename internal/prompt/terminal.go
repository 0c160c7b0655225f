// Package prompt は端末上でのオペレーターとの対話を提供する。
package prompt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/mattn/go-isatty"

	"schema-migrator/internal/domain"
)

const pageSize = 15

// Terminal はsurveyによる対話型のOperator。
// 入出力が端末でない場合はプロンプトを出さず既定値を返す。
type Terminal struct {
	in          terminal.FileReader
	out         terminal.FileWriter
	interactive bool
}

// NewTerminal は新しいTerminalを生成する。
func NewTerminal(in terminal.FileReader, out terminal.FileWriter) *Terminal {
	return &Terminal{
		in:          in,
		out:         out,
		interactive: isTTY(in.Fd()) && isTTY(out.Fd()),
	}
}

func isTTY(fd uintptr) bool {
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// SelectScripts は未適用のスクリプトを全て選択した状態で複数選択を表示する。
func (t *Terminal) SelectScripts(ctx context.Context, pending []domain.MigrationScript, mode domain.Mode) ([]string, error) {
	names := make([]string, 0, len(pending))
	for _, s := range pending {
		names = append(names, s.Name)
	}

	if !t.interactive {
		slog.InfoContext(ctx, "not a terminal, selecting all pending migrations", "count", len(names))
		return names, nil
	}

	q := &survey.MultiSelect{
		Message:  selectMessage(mode),
		Options:  names,
		Default:  names,
		PageSize: pageSize,
	}
	var chosen []string
	if err := survey.AskOne(q, &chosen, survey.WithStdio(t.in, t.out, t.out)); err != nil {
		return nil, wrapPromptErr(err)
	}
	return chosen, nil
}

// ConfirmContinue は失敗後に残りを続行するかを尋ねる。既定は中止。
func (t *Terminal) ConfirmContinue(ctx context.Context, failed domain.MigrationScript, cause error) (bool, error) {
	if !t.interactive {
		slog.WarnContext(ctx, "not a terminal, stopping after failure", "name", failed.Name)
		return false, nil
	}

	q := &survey.Confirm{
		Message: "Continue with remaining migrations?",
		Default: false,
	}
	var cont bool
	if err := survey.AskOne(q, &cont, survey.WithStdio(t.in, t.out, t.out)); err != nil {
		return false, wrapPromptErr(err)
	}
	return cont, nil
}

func selectMessage(mode domain.Mode) string {
	if mode == domain.ModeMarkDone {
		return "Select migrations to mark as applied (space to toggle, enter to confirm):"
	}
	return "Select migrations to apply (space to toggle, enter to confirm):"
}

// wrapPromptErr はCtrl+Cによる中断を中止として扱う。
func wrapPromptErr(err error) error {
	if errors.Is(err, terminal.InterruptErr) {
		return fmt.Errorf("%w: interrupted", domain.ErrAborted)
	}
	return fmt.Errorf("prompt failed: %w", err)
}
