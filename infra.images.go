package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrImageNotFound is returned when no stored image matches a name.
var ErrImageNotFound = errors.New("image not found")

// ImageStore keeps uploaded cover images and gives them back by name.
type ImageStore interface {
	Save(ctx context.Context, name string, content io.Reader) error
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	Remove(ctx context.Context, name string) error
}

// ImageUpload is a single file received along a book write request.
type ImageUpload struct {
	Filename string
	Content  io.Reader
}

// NewImageName builds a stored file name from the upload time and a random
// suffix, keeping the lowercased extension of the original file name.
func NewImageName(t time.Time, original string) string {
	suffix := make([]byte, 4)
	if _, err := rand.Read(suffix); err != nil {
		return fmt.Sprintf("%d%s", t.UnixMilli(), strings.ToLower(filepath.Ext(original)))
	}
	return fmt.Sprintf("%d-%s%s", t.UnixMilli(), hex.EncodeToString(suffix), strings.ToLower(filepath.Ext(original)))
}

// IsSafeImageName reports whether a name designates a plain file
// directly under the images folder.
func IsSafeImageName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	if strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return false
	}
	return filepath.Base(name) == name
}

var _ ImageStore = (*diskImageStore)(nil)

// diskImageStore saves uploaded images into a flat local folder.
type diskImageStore struct {
	folder string
}

// NewDiskImageStore creates the folder if missing and provides a disk-based image store.
func NewDiskImageStore(folder string) (ImageStore, error) {
	if strings.TrimSpace(folder) == "" {
		return nil, errors.New("images folder is required")
	}
	if err := os.MkdirAll(folder, 0o755); err != nil {
		return nil, fmt.Errorf("create images folder: %w", err)
	}
	return &diskImageStore{folder: folder}, nil
}

// Save writes the image content under the given name. It never overwrites
// an existing file.
func (ds *diskImageStore) Save(_ context.Context, name string, content io.Reader) error {
	if !IsSafeImageName(name) {
		return fmt.Errorf("invalid image name %q", name)
	}
	target := filepath.Join(ds.folder, name)
	out, err := os.OpenFile(target, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	if _, err = io.Copy(out, content); err != nil {
		out.Close()
		os.Remove(target)
		return fmt.Errorf("write file: %w", err)
	}
	if err = out.Close(); err != nil {
		os.Remove(target)
		return fmt.Errorf("close file: %w", err)
	}
	return nil
}

// Open provides the stored image. The caller must close it.
func (ds *diskImageStore) Open(_ context.Context, name string) (io.ReadCloser, error) {
	if !IsSafeImageName(name) {
		return nil, ErrImageNotFound
	}
	f, err := os.Open(filepath.Join(ds.folder, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrImageNotFound
	}
	if err != nil {
		return nil, err
	}
	if fi, err := f.Stat(); err != nil || fi.IsDir() {
		f.Close()
		return nil, ErrImageNotFound
	}
	return f, nil
}

// Remove deletes the stored image. A missing file is not an error.
func (ds *diskImageStore) Remove(_ context.Context, name string) error {
	if !IsSafeImageName(name) {
		return fmt.Errorf("invalid image name %q", name)
	}
	err := os.Remove(filepath.Join(ds.folder, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
