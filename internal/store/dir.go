package store

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// Dir reads from a local directory, normally the build output.
type Dir struct {
	root string
}

func NewDir(root string) *Dir {
	return &Dir{root: root}
}

func (d *Dir) Fetch(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, &FetchError{Name: name, Err: err}
	}
	clean, ok := cleanName(name)
	if !ok {
		return nil, ErrNotFound
	}
	file := filepath.Join(d.root, filepath.FromSlash(clean))
	info, err := os.Stat(file)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, &FetchError{Name: name, Err: err}
	}
	if info.IsDir() {
		return nil, ErrNotFound
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, &FetchError{Name: name, Err: err}
	}
	return data, nil
}
