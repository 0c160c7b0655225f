package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"schema-migrator/internal/domain"
)

// ScriptSource はmigrationsディレクトリから.sqlファイルを読み込む。
type ScriptSource struct {
	fs  afero.Fs
	dir string
}

// NewScriptSource は新しいScriptSourceを生成する。
func NewScriptSource(fsys afero.Fs, dir string) *ScriptSource {
	return &ScriptSource{fs: fsys, dir: dir}
}

// Dir は読み込み対象のディレクトリを返す。
func (s *ScriptSource) Dir() string {
	return s.dir
}

// List はディレクトリ内の全.sqlファイルを名前の昇順で返す。
func (s *ScriptSource) List(ctx context.Context) ([]domain.MigrationScript, error) {
	info, err := s.fs.Stat(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrDiscovery, s.dir)
		}
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrDiscovery, s.dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", domain.ErrDiscovery, s.dir)
	}

	entries, err := afero.ReadDir(s.fs, s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var scripts []domain.MigrationScript
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		path := filepath.Join(s.dir, entry.Name())
		content, err := afero.ReadFile(s.fs, path)
		if err != nil {
			slog.ErrorContext(ctx, "failed to read migration file",
				"operation", "list",
				"file_path", path,
				"error", err,
			)
			return nil, fmt.Errorf("failed to read migration file %s: %w", entry.Name(), err)
		}

		scripts = append(scripts, domain.MigrationScript{
			Name:    entry.Name(),
			Content: string(content),
			Path:    path,
		})
	}

	sort.Slice(scripts, func(i, j int) bool {
		return scripts[i].Name < scripts[j].Name
	})

	return scripts, nil
}
