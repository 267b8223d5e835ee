// Package storage keeps uploaded images on local disk.
package storage

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

var (
	ErrNotImage = errors.New("only image files (JPG, PNG, GIF, WebP) are allowed")
	ErrTooLarge = errors.New("file size too large")
	ErrBadName  = errors.New("invalid file name")
)

// ImageStore saves uploads and removes them again. Names returned by Save
// are bare file names relative to the store.
type ImageStore interface {
	Save(fh *multipart.FileHeader) (string, error)
	Remove(name string) error
}

type DiskStore struct {
	Dir      string
	Prefix   string
	MaxBytes int64
}

func NewDiskStore(dir, prefix string, maxBytes int64) *DiskStore {
	return &DiskStore{Dir: dir, Prefix: prefix, MaxBytes: maxBytes}
}

func (s *DiskStore) Save(fh *multipart.FileHeader) (string, error) {
	if s.MaxBytes > 0 && fh.Size > s.MaxBytes {
		return "", fmt.Errorf("%w: maximum size is %dMB", ErrTooLarge, s.MaxBytes>>20)
	}

	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	mtype, err := mimetype.DetectReader(src)
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(mtype.String(), "image/") {
		return "", ErrNotImage
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return "", err
	}

	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return "", fmt.Errorf("create upload directory: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if ext == "" {
		ext = mtype.Extension()
	}
	name := s.Prefix + uuid.NewString() + ext

	dst, err := os.Create(filepath.Join(s.Dir, name))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(filepath.Join(s.Dir, name))
		return "", err
	}
	if err := dst.Close(); err != nil {
		os.Remove(filepath.Join(s.Dir, name))
		return "", err
	}

	return name, nil
}

// Remove deletes a stored file. Missing files are not an error; names that
// are not plain file names (remote avatar URLs, paths) are refused.
func (s *DiskStore) Remove(name string) error {
	if name == "" || filepath.Base(name) != name || strings.Contains(name, "://") {
		return ErrBadName
	}
	err := os.Remove(filepath.Join(s.Dir, name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
