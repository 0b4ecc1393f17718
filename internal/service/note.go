package service

import (
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"notka/internal/model"
	"notka/internal/repository"
	"notka/internal/storage"
)

// File is an opened attachment ready to stream. The caller closes Body.
type File struct {
	Name    string
	Size    int64
	ModTime time.Time
	Body    io.ReadSeekCloser
}

// NoteService defines the use cases for notes and their attachments.
type NoteService interface {
	// List returns all notes, newest first.
	List(ctx context.Context) ([]model.Note, error)

	// Get returns a single note by its ID.
	Get(ctx context.Context, id string) (*model.Note, error)

	// Create validates and inserts a note, storing file first when one is given.
	Create(ctx context.Context, in model.NoteInput, file *Upload) (*model.Note, error)

	// Update applies a partial update. Absent fields are left untouched.
	Update(ctx context.Context, id string, patch model.NotePatch) (*model.Note, error)

	// Delete removes a note and its files.
	Delete(ctx context.Context, id string) error

	// Attach stores file and appends it to the note.
	Attach(ctx context.Context, id string, file *Upload) (*model.Note, error)

	// Detach removes path from the note and deletes the stored file.
	Detach(ctx context.Context, id, path string) (*model.Note, error)

	// OpenFile opens a stored file for streaming.
	OpenFile(ctx context.Context, path string) (*File, error)

	// OpenNoteFile opens the most recently attached file of a note.
	OpenNoteFile(ctx context.Context, id string) (*File, error)
}

// noteService is a concrete implementation of NoteService.
type noteService struct {
	repo        repository.NoteRepository
	attachments *AttachmentManager
	files       *storage.FileStore
	log         *zap.Logger
}

// NewNoteService constructs a new NoteService.
func NewNoteService(repo repository.NoteRepository, attachments *AttachmentManager, files *storage.FileStore, log *zap.Logger) NoteService {
	return &noteService{
		repo:        repo,
		attachments: attachments,
		files:       files,
		log:         log.With(zap.String("component", "notes")),
	}
}

// checkID rejects keys the store cannot hold. UUIDs are always accepted.
func (s *noteService) checkID(id string) error {
	if _, err := uuid.Parse(id); err == nil {
		return nil
	}
	if v, ok := s.repo.(repository.IDValidator); ok && v.ValidID(id) {
		return nil
	}
	return ErrInvalidID
}

func (s *noteService) List(ctx context.Context) ([]model.Note, error) {
	return s.repo.List(ctx)
}

func (s *noteService) Get(ctx context.Context, id string) (*model.Note, error) {
	if err := s.checkID(id); err != nil {
		return nil, err
	}
	n, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	return n, nil
}

func (s *noteService) Create(ctx context.Context, in model.NoteInput, file *Upload) (*model.Note, error) {
	n, err := s.attachments.CreateWithOptionalFile(ctx, in, file)
	if err != nil {
		return nil, err
	}
	s.log.Info("note created", zap.String("note_id", n.ID), zap.Int("files", len(n.Files)))
	return n, nil
}

func (s *noteService) Update(ctx context.Context, id string, patch model.NotePatch) (*model.Note, error) {
	if err := s.checkID(id); err != nil {
		return nil, err
	}
	if err := patch.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidNote, err)
	}
	n, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	return n, nil
}

func (s *noteService) Delete(ctx context.Context, id string) error {
	if err := s.checkID(id); err != nil {
		return err
	}
	if err := s.attachments.DeleteAllFor(ctx, id); err != nil {
		return err
	}
	s.log.Info("note deleted", zap.String("note_id", id))
	return nil
}

func (s *noteService) Attach(ctx context.Context, id string, file *Upload) (*model.Note, error) {
	if err := s.checkID(id); err != nil {
		return nil, err
	}
	return s.attachments.Attach(ctx, id, file)
}

func (s *noteService) Detach(ctx context.Context, id, p string) (*model.Note, error) {
	if err := s.checkID(id); err != nil {
		return nil, err
	}
	return s.attachments.Detach(ctx, id, p)
}

func (s *noteService) OpenFile(ctx context.Context, p string) (*File, error) {
	body, info, err := s.files.Open(ctx, p)
	if err != nil {
		return nil, mapStorageErr(err)
	}
	name := info.Key
	if name == "" {
		name = p
	}
	return &File{
		Name:    path.Base(name),
		Size:    info.Size,
		ModTime: info.LastModified,
		Body:    body,
	}, nil
}

func (s *noteService) OpenNoteFile(ctx context.Context, id string) (*File, error) {
	n, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	p := n.LegacyFilePath()
	if p == nil {
		return nil, ErrFileNotFound
	}
	return s.OpenFile(ctx, *p)
}
