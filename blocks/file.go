package blocks

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/BaSui01/blockflow/types"
)

// =============================================================================
// file_read
// =============================================================================

type fileReadBlock struct {
	path string
}

func newFileRead(cfg FileReadConfig) (types.Block, error) {
	return &fileReadBlock{path: cfg.Path}, nil
}

// Execute reads the configured path, or the path carried by the input, and
// emits the contents as a String.
func (b *fileReadBlock) Execute(_ context.Context, in types.BlockInput) (types.ExecutionResult, error) {
	if err := types.ErrorFromInput(in); err != nil {
		return types.ExecutionResult{}, err
	}
	path := b.path
	if path == "" {
		p, ok := pathFrom(in, "path")
		if !ok {
			return types.ExecutionResult{}, types.NewError(types.ErrInputMissing, "file_read: no path in config or input")
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return types.ExecutionResult{}, fileError("read", path, err)
	}
	return types.Once(types.StringOutput(string(data))), nil
}

// =============================================================================
// file_write
// =============================================================================

type fileWriteBlock struct {
	path   string
	append bool
}

func newFileWrite(cfg FileWriteConfig) (types.Block, error) {
	if cfg.Path == "" {
		return nil, types.NewError(types.ErrBuild, "file_write requires a path")
	}
	return &fileWriteBlock{path: cfg.Path, append: cfg.Append}, nil
}

// Execute writes the input text, creating parent directories, and emits the
// written path.
func (b *fileWriteBlock) Execute(_ context.Context, in types.BlockInput) (types.ExecutionResult, error) {
	if err := types.ErrorFromInput(in); err != nil {
		return types.ExecutionResult{}, err
	}
	var content string
	switch in.Kind {
	case types.KindString, types.KindText, types.KindJSON:
		content = in.Text()
	default:
		return types.ExecutionResult{}, types.InputTypeMismatch(TypeFileWrite, "string, text or json", in.Kind)
	}

	if err := os.MkdirAll(filepath.Dir(b.path), 0o755); err != nil {
		return types.ExecutionResult{}, fileError("create directory for", b.path, err)
	}
	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if b.append {
		flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}
	f, err := os.OpenFile(b.path, flags, 0o644)
	if err != nil {
		return types.ExecutionResult{}, fileError("open", b.path, err)
	}
	if _, err := f.WriteString(content); err != nil {
		_ = f.Close()
		return types.ExecutionResult{}, fileError("write", b.path, err)
	}
	if err := f.Close(); err != nil {
		return types.ExecutionResult{}, fileError("close", b.path, err)
	}
	return types.Once(types.StringOutput(b.path)), nil
}

// =============================================================================
// list_directory
// =============================================================================

type listDirectoryBlock struct {
	path    string
	pattern string
}

func newListDirectory(cfg ListDirectoryConfig) (types.Block, error) {
	if cfg.Pattern != "" {
		if _, err := filepath.Match(cfg.Pattern, ""); err != nil {
			return nil, types.Errorf(types.ErrBuild, "list_directory: bad pattern %q", cfg.Pattern).WithCause(err)
		}
	}
	return &listDirectoryBlock{path: cfg.Path, pattern: cfg.Pattern}, nil
}

// Execute emits the sorted paths of the directory's entries.
func (b *listDirectoryBlock) Execute(_ context.Context, in types.BlockInput) (types.ExecutionResult, error) {
	if err := types.ErrorFromInput(in); err != nil {
		return types.ExecutionResult{}, err
	}
	dir := b.path
	if dir == "" {
		p, ok := pathFrom(in, "path")
		if !ok {
			return types.ExecutionResult{}, types.NewError(types.ErrInputMissing, "list_directory: no path in config or input")
		}
		dir = p
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return types.ExecutionResult{}, fileError("list", dir, err)
	}
	paths := make([]string, 0, len(entries))
	for _, e := range entries {
		if b.pattern != "" {
			if ok, _ := filepath.Match(b.pattern, e.Name()); !ok {
				continue
			}
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return types.Once(types.ListOutput(paths)), nil
}

func fileError(op, path string, err error) *types.Error {
	if errors.Is(err, fs.ErrNotExist) {
		return types.Errorf(types.ErrFileNotFound, "%s %s: file not found", op, path).WithCause(err)
	}
	return types.Errorf(types.ErrIO, "%s %s", op, path).WithCause(err)
}
