package storefront

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// CartStore persists the cart between runs.
type CartStore interface {
	Load() (map[string]int, error)
	Save(items map[string]int) error
	Remove() error
}

// FileCartStore keeps the cart as a JSON object of item id to quantity.
type FileCartStore struct {
	Path string
}

func NewFileCartStore(path string) *FileCartStore {
	return &FileCartStore{Path: path}
}

// Load returns an empty cart when the file does not exist.
func (f *FileCartStore) Load() (map[string]int, error) {
	data, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]int{}, nil
	}
	if err != nil {
		return nil, err
	}

	items := map[string]int{}
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("parse cart file %s: %w", f.Path, err)
	}
	return items, nil
}

// Save writes through a temp file so a crash never leaves half a cart.
func (f *FileCartStore) Save(items map[string]int) error {
	data, err := json.Marshal(items)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(f.Path), 0755); err != nil {
		return err
	}
	tmp := f.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, f.Path)
}

func (f *FileCartStore) Remove() error {
	err := os.Remove(f.Path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
