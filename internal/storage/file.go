package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// FileStore keeps the whole account map in a single JSON document, rewritten
// on every save. It matches the layout existing deployments already have on
// disk, so the file remains readable by older tooling.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Init creates an empty store file on first run. Existing files are left
// untouched.
func (f *FileStore) Init() error {
	if _, err := os.Stat(f.path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat store file: %w", err)
	}

	if dir := filepath.Dir(f.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create store dir: %w", err)
		}
	}

	if err := os.WriteFile(f.path, []byte("{}"), 0o644); err != nil {
		return fmt.Errorf("initialize store file: %w", err)
	}

	return nil
}

func (f *FileStore) Load(ctx context.Context) (Accounts, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("read store file: %w", err)
	}

	accounts := make(Accounts)
	if err := json.Unmarshal(data, &accounts); err != nil {
		return nil, fmt.Errorf("decode store file: %w", err)
	}

	return accounts, nil
}

// Save rewrites the file through a temp-then-rename so a crash mid-write
// never leaves a truncated store behind.
func (f *FileStore) Save(ctx context.Context, accounts Accounts) error {
	data, err := json.MarshalIndent(accounts, "", "  ")
	if err != nil {
		return fmt.Errorf("encode store file: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), filepath.Base(f.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp store file: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write temp store file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp store file: %w", err)
	}

	if err := os.Rename(tmp.Name(), f.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace store file: %w", err)
	}

	return nil
}
