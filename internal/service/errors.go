package service

import (
	"errors"
	"fmt"

	"notka/internal/repository"
	"notka/internal/storage"
)

var (
	ErrInvalidID           = errors.New("invalid note id")
	ErrInvalidNote         = errors.New("invalid note")
	ErrExtensionNotAllowed = errors.New("file extension not allowed")
	ErrFileRequired        = errors.New("file is required")
	ErrFileTooLarge        = errors.New("file too large")
	ErrNotFound            = errors.New("note not found")
	ErrAttachmentNotFound  = errors.New("file is not attached to this note")
	ErrFileNotFound        = errors.New("file not found")
	ErrForbiddenPath       = errors.New("path is outside the upload directory")
	ErrStorage             = errors.New("storage failure")
)

func mapRepoErr(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

func mapStorageErr(err error) error {
	switch {
	case errors.Is(err, storage.ErrPathEscapes):
		return ErrForbiddenPath
	case errors.Is(err, storage.ErrObjectNotFound):
		return ErrFileNotFound
	default:
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
}
