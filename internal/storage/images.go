package storage

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// URLPrefix is the public path under which stored images are served.
const URLPrefix = "/api/uploads/"

var allowedExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
}

// ImageStore keeps uploaded images on local disk under a single directory,
// named by random UUID so client filenames never reach the filesystem.
type ImageStore struct {
	dir string
}

// NewImageStore creates the upload directory if needed.
func NewImageStore(dir string) (*ImageStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &ImageStore{dir: dir}, nil
}

// Save writes the uploaded content and returns its public URL.
func (s *ImageStore) Save(r io.Reader, originalName string) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	if !allowedExtensions[ext] {
		return "", fmt.Errorf("unsupported image extension %q", ext)
	}

	name := uuid.New().String() + ext
	f, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", fmt.Errorf("create image file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("write image file: %w", err)
	}

	return URLPrefix + name, nil
}

// Open returns the on-disk path for a stored image filename, rejecting
// anything that escapes the upload directory.
func (s *ImageStore) Open(filename string) (string, error) {
	if filename != path.Base(filename) || filename == "." || filename == "/" {
		return "", fmt.Errorf("invalid image filename %q", filename)
	}
	p := filepath.Join(s.dir, filename)
	if _, err := os.Stat(p); err != nil {
		return "", err
	}
	return p, nil
}

// Remove deletes the image behind a public URL. URLs outside the store's
// prefix (external images) are ignored.
func (s *ImageStore) Remove(imageURL string) error {
	if !strings.HasPrefix(imageURL, URLPrefix) {
		return nil
	}
	name := path.Base(strings.TrimPrefix(imageURL, URLPrefix))
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
