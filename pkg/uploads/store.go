package uploads

import (
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/shoplane/backend/pkg/config"
	pkgerrors "github.com/shoplane/backend/pkg/errors"
)

// PublicPrefix is the URL path prefix the router serves stored files under.
const PublicPrefix = "/uploads"

var allowedImageTypes = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// Store writes uploaded images to a local directory and hands back the
// public path they are served from.
type Store struct {
	dir     string
	maxSize int64
}

// NewStore ensures the upload directory exists and returns a Store.
func NewStore(cfg config.UploadsConfig) (*Store, error) {
	dir := strings.TrimSpace(cfg.Dir)
	if dir == "" {
		return nil, fmt.Errorf("uploads dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %q: %w", dir, err)
	}
	return &Store{dir: dir, maxSize: cfg.MaxFileSizeBytes()}, nil
}

// Dir returns the on-disk directory backing the store.
func (s *Store) Dir() string {
	return s.dir
}

// MaxFileSize returns the per-file byte cap.
func (s *Store) MaxFileSize() int64 {
	return s.maxSize
}

// SaveImage validates the declared content type and size, then persists
// the payload under a random filename. Returns the public URL path.
func (s *Store) SaveImage(contentType string, size int64, r io.Reader) (string, error) {
	ext, err := imageExtension(contentType)
	if err != nil {
		return "", err
	}
	if size > s.maxSize {
		return "", pkgerrors.Newf(pkgerrors.CodeValidation, "file exceeds %d byte limit", s.maxSize)
	}

	name := uuid.NewString() + ext
	fullpath := filepath.Join(s.dir, name)

	f, err := os.OpenFile(fullpath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	defer f.Close()

	// LimitReader guards against clients lying about Content-Length.
	written, err := io.Copy(f, io.LimitReader(r, s.maxSize+1))
	if err != nil {
		_ = os.Remove(fullpath)
		return "", fmt.Errorf("write upload file: %w", err)
	}
	if written > s.maxSize {
		_ = os.Remove(fullpath)
		return "", pkgerrors.Newf(pkgerrors.CodeValidation, "file exceeds %d byte limit", s.maxSize)
	}

	return PublicPrefix + "/" + name, nil
}

// Remove deletes a stored file given its public path. Unknown paths are
// ignored.
func (s *Store) Remove(publicPath string) error {
	name := strings.TrimPrefix(publicPath, PublicPrefix+"/")
	if name == "" || strings.Contains(name, "/") || strings.Contains(name, "..") {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func imageExtension(contentType string) (string, error) {
	clean := strings.TrimSpace(contentType)
	if clean == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "content type required")
	}
	mediaType, _, err := mime.ParseMediaType(clean)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "content type invalid")
	}
	mediaType = strings.ToLower(mediaType)
	if !strings.HasPrefix(mediaType, "image/") {
		return "", pkgerrors.Newf(pkgerrors.CodeValidation, "only image uploads are allowed, got %q", mediaType)
	}
	if ext, ok := allowedImageTypes[mediaType]; ok {
		return ext, nil
	}
	return "", pkgerrors.Newf(pkgerrors.CodeValidation, "unsupported image type %q", mediaType)
}
