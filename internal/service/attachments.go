package service

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"notka/internal/model"
	"notka/internal/repository"
	"notka/internal/storage"
)

var tracer = otel.Tracer("notka/internal/service")

// Upload is a file received from a client. Open is called at most once, after validation.
type Upload struct {
	Filename    string
	Size        int64
	ContentType string
	Open        func() (io.ReadCloser, error)
}

// AttachmentOptions configures upload acceptance.
type AttachmentOptions struct {
	// AllowedExtensions are lowercase and dot-prefixed.
	AllowedExtensions []string
	// MaxSize is in bytes; zero disables the check.
	MaxSize int64
}

// AttachmentManager keeps note file lists and stored files in step.
type AttachmentManager struct {
	repo    repository.NoteRepository
	files   *storage.FileStore
	allowed map[string]struct{}
	maxSize int64
	log     *zap.Logger
	now     func() time.Time
}

// NewAttachmentManager constructs an AttachmentManager.
func NewAttachmentManager(repo repository.NoteRepository, files *storage.FileStore, opts AttachmentOptions, log *zap.Logger) *AttachmentManager {
	allowed := make(map[string]struct{}, len(opts.AllowedExtensions))
	for _, ext := range opts.AllowedExtensions {
		allowed[strings.ToLower(ext)] = struct{}{}
	}
	return &AttachmentManager{
		repo:    repo,
		files:   files,
		allowed: allowed,
		maxSize: opts.MaxSize,
		log:     log.With(zap.String("component", "attachments")),
		now:     time.Now,
	}
}

// Validate checks presence, extension and size of an upload without reading it.
func (m *AttachmentManager) Validate(u *Upload) error {
	if u == nil || u.Filename == "" || u.Open == nil {
		return ErrFileRequired
	}
	ext := strings.ToLower(filepath.Ext(u.Filename))
	if _, ok := m.allowed[ext]; !ok {
		return fmt.Errorf("%w: %q", ErrExtensionNotAllowed, ext)
	}
	if m.maxSize > 0 && u.Size > m.maxSize {
		return fmt.Errorf("%w: %d bytes exceeds %d", ErrFileTooLarge, u.Size, m.maxSize)
	}
	return nil
}

// CreateWithOptionalFile validates the note, stores the upload if any, then inserts
// the note with its file list already set.
func (m *AttachmentManager) CreateWithOptionalFile(ctx context.Context, in model.NoteInput, u *Upload) (*model.Note, error) {
	ctx, span := tracer.Start(ctx, "AttachmentManager.CreateWithOptionalFile")
	defer span.End()

	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidNote, err)
	}

	files := []string{}
	if u != nil {
		if err := m.Validate(u); err != nil {
			return nil, err
		}
		p, err := m.store(ctx, u)
		if err != nil {
			return nil, fail(span, err)
		}
		files = append(files, p)
	}

	note := &model.Note{
		ID:         uuid.NewString(),
		Title:      in.Title,
		Content:    in.Content,
		PageNumber: in.PageNumber,
		Files:      files,
		CreatedAt:  m.now().UTC().Truncate(time.Millisecond),
	}
	created, err := m.repo.Create(ctx, note)
	if err != nil {
		for _, p := range files {
			m.rollback(ctx, p)
		}
		return nil, fail(span, fmt.Errorf("save note: %w", err))
	}
	span.SetAttributes(attribute.String("note.id", created.ID))
	return created, nil
}

// Attach stores the upload and appends it to the note's files.
func (m *AttachmentManager) Attach(ctx context.Context, id string, u *Upload) (*model.Note, error) {
	ctx, span := tracer.Start(ctx, "AttachmentManager.Attach", trace.WithAttributes(attribute.String("note.id", id)))
	defer span.End()

	if err := m.Validate(u); err != nil {
		return nil, err
	}
	note, err := m.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err)
	}

	p, err := m.store(ctx, u)
	if err != nil {
		return nil, fail(span, err)
	}

	files := append(slices.Clone(note.Files), p)
	updated, err := m.repo.SetFiles(ctx, id, files)
	if err != nil {
		m.rollback(ctx, p)
		return nil, fail(span, mapRepoErr(err))
	}
	return updated, nil
}

// Detach removes one occurrence of path from the note, then deletes the file
// unless the note still lists it. Failure to delete the file is only logged.
func (m *AttachmentManager) Detach(ctx context.Context, id, path string) (*model.Note, error) {
	ctx, span := tracer.Start(ctx, "AttachmentManager.Detach", trace.WithAttributes(attribute.String("note.id", id)))
	defer span.End()

	if strings.TrimSpace(path) == "" {
		return nil, ErrFileRequired
	}
	note, err := m.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err)
	}

	idx := m.indexOf(note.Files, path)
	if idx < 0 {
		return nil, ErrAttachmentNotFound
	}
	removed := note.Files[idx]
	rest := slices.Delete(slices.Clone(note.Files), idx, idx+1)

	updated, err := m.repo.SetFiles(ctx, id, rest)
	if err != nil {
		return nil, fail(span, mapRepoErr(err))
	}

	if m.indexOf(rest, removed) < 0 {
		m.removeFile(ctx, id, removed)
	}
	return updated, nil
}

// DeleteAllFor deletes every file of the note, best effort, then the note itself.
func (m *AttachmentManager) DeleteAllFor(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "AttachmentManager.DeleteAllFor", trace.WithAttributes(attribute.String("note.id", id)))
	defer span.End()

	note, err := m.repo.FindByID(ctx, id)
	if err != nil {
		return mapRepoErr(err)
	}

	seen := make(map[string]struct{}, len(note.Files))
	for _, p := range note.Files {
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		m.removeFile(ctx, id, p)
	}

	if err := m.repo.Delete(ctx, id); err != nil {
		return fail(span, mapRepoErr(err))
	}
	return nil
}

// indexOf finds path in files by exact match first, then by normalized key.
func (m *AttachmentManager) indexOf(files []string, path string) int {
	if i := slices.Index(files, path); i >= 0 {
		return i
	}
	key, err := m.files.CleanKey(path)
	if err != nil {
		return -1
	}
	return slices.IndexFunc(files, func(f string) bool {
		k, err := m.files.CleanKey(f)
		return err == nil && k == key
	})
}

func (m *AttachmentManager) store(ctx context.Context, u *Upload) (string, error) {
	rc, err := u.Open()
	if err != nil {
		return "", fmt.Errorf("%w: open upload: %v", ErrStorage, err)
	}
	defer rc.Close()

	p, err := m.files.Store(ctx, u.Filename, rc, u.Size, u.ContentType)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrStorage, err)
	}
	m.log.Info("file stored", zap.String("path", p), zap.Int64("size", u.Size))
	return p, nil
}

func (m *AttachmentManager) rollback(ctx context.Context, path string) {
	if _, err := m.files.Remove(context.WithoutCancel(ctx), path); err != nil {
		m.log.Error("rollback of stored file failed", zap.String("path", path), zap.Error(err))
	}
}

func (m *AttachmentManager) removeFile(ctx context.Context, id, path string) {
	if _, err := m.files.Remove(ctx, path); err != nil {
		m.log.Warn("failed to delete attachment file",
			zap.String("note_id", id),
			zap.String("path", path),
			zap.Error(err),
		)
	}
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
