package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"recipebook"
)

// FileBridge stores each key as a JSON file under a directory.
type FileBridge struct {
	dir string
}

// NewFileBridge stores each key as a JSON file under dir.
func NewFileBridge(dir string) *FileBridge {
	return &FileBridge{dir: dir}
}

// Path returns the file the blob for key is stored in.
func (b *FileBridge) Path(key string) string {
	return filepath.Join(b.dir, fileName(key))
}

func (b *FileBridge) Load(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(b.Path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, recipebook.ErrBlobNotFound
		}
		return nil, fmt.Errorf("load blob %q: %w", key, err)
	}
	return data, nil
}

// Save replaces the blob atomically: it writes a temp file in the same
// directory and renames it over the old one.
func (b *FileBridge) Save(ctx context.Context, key string, blob []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(b.dir, 0o700); err != nil {
		return fmt.Errorf("save blob %q: %w", key, err)
	}

	path := b.Path(key)
	tmp, err := os.CreateTemp(b.dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("save blob %q: %w", key, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(blob); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("save blob %q: %w", key, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("save blob %q: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("save blob %q: %w", key, err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("save blob %q: %w", key, err)
	}
	return nil
}

func (b *FileBridge) Close() error { return nil }

// fileName maps a key onto a safe file name.
func fileName(key string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_' || r == '.' || r == '@':
			return r
		}
		return '_'
	}, key)
	if name == "" || strings.Trim(name, ".") == "" {
		name = "_" + name
	}
	return name + ".json"
}
