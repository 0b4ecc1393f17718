// Package repository contains data access layer abstractions.
// Implementations live in subpackages (postgres, mongo) inside this directory.
package repository

import (
	"context"
	"errors"

	"notka/internal/model"
)

// ErrNotFound is returned when no note exists for the given key.
var ErrNotFound = errors.New("note not found")

// NoteRepository defines data access for notes: find, insert, update and delete by key.
// Implementations hold no business logic, only persistence.
type NoteRepository interface {
	// Create inserts a new note record and returns the stored note.
	// The caller provides ID and CreatedAt.
	Create(ctx context.Context, note *model.Note) (*model.Note, error)

	// FindByID returns a note by its ID, or ErrNotFound.
	FindByID(ctx context.Context, id string) (*model.Note, error)

	// List returns every note, newest first by creation time.
	List(ctx context.Context) ([]model.Note, error)

	// Update applies the non-nil fields of patch and returns the updated note, or ErrNotFound.
	Update(ctx context.Context, id string, patch model.NotePatch) (*model.Note, error)

	// SetFiles replaces the attachment list and returns the updated note, or ErrNotFound.
	SetFiles(ctx context.Context, id string, files []string) (*model.Note, error)

	// Delete removes a note by ID, or returns ErrNotFound when nothing was deleted.
	Delete(ctx context.Context, id string) error
}

// IDValidator is implemented by stores that accept keys other than UUIDs.
// Stores that do not implement it take UUIDs only.
type IDValidator interface {
	ValidID(id string) bool
}
