package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/employee-directory/internal/config"
)

var (
	ErrInvalidFileType = errors.New("images only")
	ErrFileTooLarge    = errors.New("file too large")
	ErrInvalidName     = errors.New("invalid stored file name")
)

// allowedImageTypes applies to both the file extension and the declared MIME subtype.
var allowedImageTypes = map[string]struct{}{
	"jpeg": {},
	"jpg":  {},
	"png":  {},
	"gif":  {},
}

// Store validates profile pictures and writes them under a single directory.
type Store struct {
	dir      string
	maxBytes int64
	now      func() time.Time
	newID    func() string
}

// NewStore creates the upload directory if needed.
func NewStore(cfg config.UploadConfig) (*Store, error) {
	if cfg.Dir == "" {
		return nil, errors.New("upload dir is required")
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	maxBytes := cfg.MaxBytes
	if maxBytes <= 0 {
		maxBytes = config.DefaultUploadMaxBytes
	}
	return &Store{
		dir:      cfg.Dir,
		maxBytes: maxBytes,
		now:      time.Now,
		newID:    uuid.NewString,
	}, nil
}

// Dir returns the directory files are written to.
func (s *Store) Dir() string {
	return s.dir
}

// Validate checks extension, declared content type and size.
func (s *Store) Validate(file *multipart.FileHeader) error {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(file.Filename), "."))
	if _, ok := allowedImageTypes[ext]; !ok {
		return ErrInvalidFileType
	}
	if !allowedContentType(file.Header.Get("Content-Type")) {
		return ErrInvalidFileType
	}
	if file.Size > s.maxBytes {
		return ErrFileTooLarge
	}
	return nil
}

// Save validates and stores file, returning the generated filename. A nil
// file is not an error and yields an empty name.
func (s *Store) Save(ctx context.Context, file *multipart.FileHeader) (string, error) {
	if file == nil {
		return "", nil
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := s.Validate(file); err != nil {
		return "", err
	}

	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	name := s.generateName(file.Filename)
	path := filepath.Join(s.dir, name)
	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create upload: %w", err)
	}

	written, copyErr := io.Copy(dst, io.LimitReader(src, s.maxBytes+1))
	closeErr := dst.Close()
	switch {
	case copyErr != nil:
		_ = os.Remove(path)
		return "", fmt.Errorf("write upload: %w", copyErr)
	case closeErr != nil:
		_ = os.Remove(path)
		return "", fmt.Errorf("close upload: %w", closeErr)
	case written > s.maxBytes:
		_ = os.Remove(path)
		return "", ErrFileTooLarge
	}
	return name, nil
}

// Remove deletes a stored file. Empty names and missing files are ignored.
func (s *Store) Remove(name string) error {
	if name == "" {
		return nil
	}
	if name != filepath.Base(name) || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return ErrInvalidName
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// generateName keeps the original extension and prefixes a millisecond
// timestamp plus a random UUID.
func (s *Store) generateName(original string) string {
	return strconv.FormatInt(s.now().UnixMilli(), 10) + "-" + s.newID() + filepath.Ext(original)
}

func allowedContentType(value string) bool {
	mediaType, _, err := mime.ParseMediaType(strings.TrimSpace(value))
	if err != nil {
		return false
	}
	kind, subtype, ok := strings.Cut(strings.ToLower(mediaType), "/")
	if !ok || kind != "image" {
		return false
	}
	_, allowed := allowedImageTypes[subtype]
	return allowed
}
