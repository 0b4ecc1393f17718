package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// StampLayout is the timestamp prefix of stored attachment names.
const StampLayout = "20060102_150405"

var tracer = otel.Tracer("notka/internal/storage")

// FileStore names, places and removes attachment files on a backend.
// Paths it returns are relative to the upload root.
type FileStore struct {
	backend Storage
	dirName string
	log     *zap.Logger
	now     func() time.Time
}

// NewFileStore wraps backend. uploadDir is only used to recognise legacy
// "../uploads/x" and "uploads/x" references.
func NewFileStore(backend Storage, uploadDir string, log *zap.Logger) *FileStore {
	return &FileStore{
		backend: backend,
		dirName: filepath.Base(filepath.Clean(uploadDir)),
		log:     log.With(zap.String("component", "filestore")),
		now:     time.Now,
	}
}

// StoredName builds "<YYYYMMDD_HHMMSS>_<base name>" for an uploaded file.
func StoredName(originalName string, at time.Time) string {
	base := path.Base(strings.ReplaceAll(originalName, "\\", "/"))
	if base == "." || base == "/" || base == "" {
		base = "file"
	}
	return at.Format(StampLayout) + "_" + base
}

// Store writes r under a timestamped name and returns its relative path.
func (s *FileStore) Store(ctx context.Context, originalName string, r io.Reader, size int64, contentType string) (string, error) {
	ctx, span := tracer.Start(ctx, "FileStore.Store")
	defer span.End()

	key := StoredName(originalName, s.now())
	span.SetAttributes(attribute.String("file.key", key), attribute.Int64("file.size", size))

	_, err := s.backend.Put(ctx, key, r, PutObjectOptions{
		Size:        size,
		ContentType: contentType,
		Metadata:    map[string]string{"original-filename": originalName},
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "put failed")
		return "", fmt.Errorf("store %s: %w", key, err)
	}
	return key, nil
}

// CleanKey maps a client or legacy reference onto a backend key.
// It fails with ErrPathEscapes when the result would leave the upload root.
func (s *FileStore) CleanKey(p string) (string, error) {
	p = strings.ReplaceAll(p, "\\", "/")
	for _, prefix := range []string{"../" + s.dirName + "/", s.dirName + "/"} {
		if strings.HasPrefix(p, prefix) {
			p = strings.TrimPrefix(p, prefix)
			break
		}
	}
	if path.IsAbs(p) {
		return "", ErrPathEscapes
	}
	c := path.Clean(p)
	if c == ".." || strings.HasPrefix(c, "../") {
		return "", ErrPathEscapes
	}
	if c == "." {
		return "", ErrObjectNotFound
	}
	return c, nil
}

// Remove deletes the file behind p. A missing file is logged and reported as false.
func (s *FileStore) Remove(ctx context.Context, p string) (bool, error) {
	key, err := s.CleanKey(p)
	if err != nil {
		return false, err
	}
	if err := s.backend.Delete(ctx, key); err != nil {
		if errors.Is(err, ErrObjectNotFound) {
			s.log.Warn("file already absent", zap.String("path", p))
			return false, nil
		}
		return false, fmt.Errorf("remove %s: %w", key, err)
	}
	s.log.Info("file removed", zap.String("path", key))
	return true, nil
}

// Exists reports whether p names a stored file.
func (s *FileStore) Exists(ctx context.Context, p string) bool {
	key, err := s.CleanKey(p)
	if err != nil {
		return false
	}
	_, err = s.backend.Stat(ctx, key)
	return err == nil
}

// Size returns the byte size of the file behind p.
func (s *FileStore) Size(ctx context.Context, p string) (int64, error) {
	key, err := s.CleanKey(p)
	if err != nil {
		return 0, err
	}
	info, err := s.backend.Stat(ctx, key)
	if err != nil {
		return 0, err
	}
	return info.Size, nil
}

// Open returns a seekable reader over the file behind p. The caller closes it.
func (s *FileStore) Open(ctx context.Context, p string) (io.ReadSeekCloser, ObjectInfo, error) {
	ctx, span := tracer.Start(ctx, "FileStore.Open")
	defer span.End()

	key, err := s.CleanKey(p)
	if err != nil {
		return nil, ObjectInfo{}, err
	}
	span.SetAttributes(attribute.String("file.key", key))
	return s.backend.Get(ctx, key)
}

// List returns every stored file.
func (s *FileStore) List(ctx context.Context) ([]ObjectInfo, error) {
	return s.backend.List(ctx)
}
