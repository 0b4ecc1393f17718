package handler

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"notka/internal/http/middleware"
	"notka/internal/service"
)

// errorPayload defines the standardized error response body.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// requestIDFromCtx extracts request_id previously stored by middleware.RequestID.
func requestIDFromCtx(c *fiber.Ctx) string {
	if v := c.Locals(middleware.RequestIDLocalKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// writeError writes a standardized JSON error response without leaking internal errors.
//
// Parameters:
// - status: HTTP status code to return
// - code: machine-readable short error code (e.g., "INVALID_ID", "NOT_FOUND", "INTERNAL_ERROR")
// - message: human-readable safe message (no internal details)
func writeError(c *fiber.Ctx, status int, code, message string) error {
	res := errorPayload{
		RequestID: requestIDFromCtx(c),
		Error: errorEnvelope{
			Code:    code,
			Message: message,
		},
	}
	return c.Status(status).JSON(res)
}

// writeServiceError translates a service error into the matching status and code.
// The raw error is kept in locals for the access log; 5xx bodies never include it.
func writeServiceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidID):
		return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
	case errors.Is(err, service.ErrExtensionNotAllowed):
		return writeError(c, fiber.StatusBadRequest, "EXTENSION_NOT_ALLOWED", err.Error())
	case errors.Is(err, service.ErrFileRequired):
		return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
	case errors.Is(err, service.ErrInvalidNote):
		return writeError(c, fiber.StatusUnprocessableEntity, "VALIDATION_ERROR",
			strings.TrimPrefix(err.Error(), service.ErrInvalidNote.Error()+": "))
	case errors.Is(err, service.ErrFileTooLarge):
		return writeError(c, fiber.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "file too large")
	case errors.Is(err, service.ErrNotFound):
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "note not found")
	case errors.Is(err, service.ErrAttachmentNotFound):
		return writeError(c, fiber.StatusNotFound, "ATTACHMENT_NOT_FOUND", "file is not attached to this note")
	case errors.Is(err, service.ErrFileNotFound):
		return writeError(c, fiber.StatusNotFound, "FILE_NOT_FOUND", "file not found")
	case errors.Is(err, service.ErrForbiddenPath):
		return writeError(c, fiber.StatusForbidden, "FORBIDDEN_PATH", "access denied")
	}

	c.Locals(middleware.ErrorLocalKey, err.Error())
	if errors.Is(err, service.ErrStorage) {
		return writeError(c, fiber.StatusInternalServerError, "STORAGE_ERROR", "storage error")
	}
	return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		var e *fiber.Error
		if errors.As(err, &e) {
			status = e.Code
		} else {
			c.Locals(middleware.ErrorLocalKey, err.Error())
		}

		switch status {
		case fiber.StatusBadRequest:
			return writeError(c, status, "BAD_REQUEST", "bad request")
		case fiber.StatusForbidden:
			return writeError(c, status, "FORBIDDEN", "forbidden")
		case fiber.StatusNotFound:
			return writeError(c, status, "NOT_FOUND", "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, "METHOD_NOT_ALLOWED", "method not allowed")
		case fiber.StatusRequestEntityTooLarge:
			return writeError(c, status, "PAYLOAD_TOO_LARGE", "request body too large")
		case fiber.StatusRequestedRangeNotSatisfiable:
			return writeError(c, status, "RANGE_NOT_SATISFIABLE", "range not satisfiable")
		case fiber.StatusUnprocessableEntity:
			return writeError(c, status, "VALIDATION_ERROR", "unprocessable entity")
		default:
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
	}
}
