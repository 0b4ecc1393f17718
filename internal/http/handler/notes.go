package handler

import (
	"io"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"notka/internal/model"
	"notka/internal/service"
)

// ListNotes returns every note, newest first.
//
// @Summary List notes
// @Tags notes
// @Produce json
// @Success 200 {array} NoteResponse
// @Failure 500 {object} errorPayload
// @Router /notes [get]
func ListNotes(svc service.NoteService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		notes, err := svc.List(c.UserContext())
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(toNoteResponses(notes))
	}
}

// GetNote returns a single note.
//
// @Summary Get a note
// @Tags notes
// @Produce json
// @Param id path string true "Note ID"
// @Success 200 {object} NoteResponse
// @Failure 400 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Router /notes/{id} [get]
func GetNote(svc service.NoteService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		n, err := svc.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(toNoteResponse(n))
	}
}

// CreateNote creates a note from a multipart form with an optional file.
//
// @Summary Create a note
// @Tags notes
// @Accept multipart/form-data
// @Produce json
// @Param title formData string true "Title, 1 to 200 characters"
// @Param content formData string false "Content"
// @Param page_number formData int false "Page number, at least 1"
// @Param file formData file false "Attachment"
// @Success 201 {object} NoteResponse
// @Failure 400 {object} errorPayload
// @Failure 413 {object} errorPayload
// @Failure 422 {object} errorPayload
// @Router /notes [post]
func CreateNote(svc service.NoteService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		in := model.NoteInput{
			Title:   c.FormValue("title"),
			Content: c.FormValue("content"),
		}
		if raw := strings.TrimSpace(c.FormValue("page_number")); raw != "" {
			page, err := strconv.Atoi(raw)
			if err != nil {
				return writeError(c, fiber.StatusUnprocessableEntity, "VALIDATION_ERROR", model.ErrInvalidPageNumber.Error())
			}
			in.PageNumber = &page
		}

		var upload *service.Upload
		if fh, err := c.FormFile("file"); err == nil {
			upload = uploadFrom(fh)
		}

		n, err := svc.Create(c.UserContext(), in, upload)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(toNoteResponse(n))
	}
}

// UpdateNote applies a partial JSON update.
//
// @Summary Update a note
// @Tags notes
// @Accept json
// @Produce json
// @Param id path string true "Note ID"
// @Param body body UpdateNoteRequest true "Fields to change"
// @Success 200 {object} NoteResponse
// @Failure 400 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Failure 422 {object} errorPayload
// @Router /notes/{id} [put]
func UpdateNote(svc service.NoteService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req UpdateNoteRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		n, err := svc.Update(c.UserContext(), c.Params("id"), req.patch())
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(toNoteResponse(n))
	}
}

// DeleteNote removes a note and its files.
//
// @Summary Delete a note
// @Tags notes
// @Param id path string true "Note ID"
// @Success 204
// @Failure 400 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Router /notes/{id} [delete]
func DeleteNote(svc service.NoteService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := svc.Delete(c.UserContext(), c.Params("id")); err != nil {
			return writeServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// AttachFile adds an uploaded file to a note.
//
// @Summary Attach a file
// @Tags files
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Note ID"
// @Param file formData file true "Attachment"
// @Success 200 {object} NoteResponse
// @Failure 400 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Failure 413 {object} errorPayload
// @Router /notes/{id}/file [post]
func AttachFile(svc service.NoteService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}
		n, err := svc.Attach(c.UserContext(), c.Params("id"), uploadFrom(fh))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(toNoteResponse(n))
	}
}

// DetachFile removes one file from a note and deletes it from storage.
//
// @Summary Detach a file
// @Tags files
// @Accept json
// @Produce json
// @Param id path string true "Note ID"
// @Param body body DetachFileRequest true "File to remove"
// @Success 200 {object} NoteResponse
// @Failure 400 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Router /notes/{id}/file [delete]
func DetachFile(svc service.NoteService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req DetachFileRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		if strings.TrimSpace(req.FilePath) == "" {
			return writeError(c, fiber.StatusBadRequest, "FILE_PATH_REQUIRED", "file_path is required")
		}
		n, err := svc.Detach(c.UserContext(), c.Params("id"), req.FilePath)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(toNoteResponse(n))
	}
}

func uploadFrom(fh *multipart.FileHeader) *service.Upload {
	ct := fh.Header.Get(fiber.HeaderContentType)
	if ct == "" {
		ct = fiber.MIMEOctetStream
	}
	return &service.Upload{
		Filename:    fh.Filename,
		Size:        fh.Size,
		ContentType: ct,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}
