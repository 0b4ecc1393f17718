package model

import (
	"errors"
	"time"
	"unicode/utf8"
)

// MaxTitleLength is the longest accepted title, in characters.
const MaxTitleLength = 200

var (
	ErrTitleRequired     = errors.New("title is required")
	ErrTitleTooLong      = errors.New("title must be at most 200 characters")
	ErrInvalidPageNumber = errors.New("page_number must be a positive integer")
)

// Note is a text record with an optional page reference and attached files.
// This is a pure domain model with no database-specific dependencies or tags.
//
// Files holds attachment paths in attachment order. The single-path view older
// clients expect is derived from it (see LegacyFilePath) and never stored separately.
type Note struct {
	ID         string
	Title      string
	Content    string
	PageNumber *int
	Files      []string
	CreatedAt  time.Time
}

// LegacyFilePath returns the most recently attached file, or nil when there is none.
func (n Note) LegacyFilePath() *string {
	if len(n.Files) == 0 {
		return nil
	}
	p := n.Files[len(n.Files)-1]
	return &p
}

// NoteInput carries the fields a client supplies when creating a note.
type NoteInput struct {
	Title      string
	Content    string
	PageNumber *int
}

// Validate checks title length and page number.
func (in NoteInput) Validate() error {
	if err := validateTitle(in.Title); err != nil {
		return err
	}
	return validatePageNumber(in.PageNumber)
}

// NotePatch is a partial update. A nil field is left untouched; there is no way
// to clear a field through a patch.
type NotePatch struct {
	Title      *string `json:"title"`
	Content    *string `json:"content"`
	PageNumber *int    `json:"page_number"`
}

// IsEmpty reports whether the patch changes nothing.
func (p NotePatch) IsEmpty() bool {
	return p.Title == nil && p.Content == nil && p.PageNumber == nil
}

// Validate checks the fields that are present.
func (p NotePatch) Validate() error {
	if p.Title != nil {
		if err := validateTitle(*p.Title); err != nil {
			return err
		}
	}
	return validatePageNumber(p.PageNumber)
}

func validateTitle(title string) error {
	if title == "" {
		return ErrTitleRequired
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return ErrTitleTooLong
	}
	return nil
}

func validatePageNumber(page *int) error {
	if page != nil && *page < 1 {
		return ErrInvalidPageNumber
	}
	return nil
}
