package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gofiber/fiber/v2"

	"notka/internal/fileserve"
	"notka/internal/http/middleware"
	"notka/internal/service"
)

// ServeFile streams a stored file, honouring a single byte Range.
//
// @Summary Download a file
// @Description Supports "Range: bytes=start-end" for seeking in media.
// @Tags files
// @Produce octet-stream
// @Param path path string true "Stored file path"
// @Param Range header string false "bytes=start-end"
// @Success 200 {file} file
// @Success 206 {file} file
// @Failure 400 {object} errorPayload
// @Failure 403 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Failure 416 {object} errorPayload
// @Router /notes/serve/{path} [get]
func ServeFile(svc service.NoteService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := url.PathUnescape(c.Params("*"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "BAD_REQUEST", "invalid file path")
		}

		f, err := svc.OpenFile(c.UserContext(), p)
		if err != nil {
			return writeServiceError(c, err)
		}

		return streamFile(c, f)
	}
}

// ServeNoteFile streams the most recently attached file of a note.
//
// @Summary Download a note's file
// @Description Serves the last entry of files. Supports "Range: bytes=start-end".
// @Tags files
// @Produce octet-stream
// @Param id path string true "Note ID"
// @Param Range header string false "bytes=start-end"
// @Success 200 {file} file
// @Success 206 {file} file
// @Failure 400 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Failure 416 {object} errorPayload
// @Router /notes/{id}/file [get]
func ServeNoteFile(svc service.NoteService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		f, err := svc.OpenNoteFile(c.UserContext(), c.Params("id"))
		if err != nil {
			return writeServiceError(c, err)
		}
		return streamFile(c, f)
	}
}

// streamFile answers with f, honouring the request's Range header. It owns f.Body.
func streamFile(c *fiber.Ctx, f *service.File) error {
	res, err := fileserve.Prepare(f.Body, f.Size, f.Name, c.Get(fiber.HeaderRange))
	switch {
	case errors.Is(err, fileserve.ErrRangeNotSatisfiable):
		c.Set(fiber.HeaderContentRange, fileserve.UnsatisfiableContentRange(f.Size))
		return writeError(c, fiber.StatusRequestedRangeNotSatisfiable, "RANGE_NOT_SATISFIABLE", "range not satisfiable")
	case errors.Is(err, fileserve.ErrMalformedRange):
		return writeError(c, fiber.StatusBadRequest, "MALFORMED_RANGE", "malformed range header")
	case err != nil:
		c.Locals(middleware.ErrorLocalKey, err.Error())
		return writeError(c, fiber.StatusInternalServerError, "STORAGE_ERROR", "storage error")
	}

	for k, v := range res.Header() {
		// SendStream sets the length from the stream size
		if k == fiber.HeaderContentLength {
			continue
		}
		c.Set(k, v)
	}
	if !f.ModTime.IsZero() {
		c.Set(fiber.HeaderLastModified, f.ModTime.UTC().Format(http.TimeFormat))
	}
	c.Status(res.Status)
	return c.SendStream(res.Body, int(res.ContentLength))
}
