package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/FOX2920/sf-api/internal/http/middleware"
	"github.com/FOX2920/sf-api/internal/localstore"
	"github.com/FOX2920/sf-api/internal/render"
	"github.com/FOX2920/sf-api/internal/service"
	"github.com/FOX2920/sf-api/internal/storage"
)

// errorPayload defines the standardized error response body.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	ContentID string `json:"content_id,omitempty"`
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

// writeError writes a standardized JSON error response without leaking
// internal details.
func writeError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(errorPayload{
		RequestID: requestIDFromCtx(c),
		Error:     errorEnvelope{Code: code, Message: message},
	})
}

// writeGenerateError maps generation failures onto the error envelope.
// A template problem is a deployment defect (500); a missing shipment field
// is the caller's data (422); a remote sync failure is an upstream fault
// (502), and an orphaned upload additionally reports the content id so
// operators can clean it up.
func writeGenerateError(c *fiber.Ctx, err error) error {
	var upErr *storage.UploadError
	switch {
	case errors.Is(err, service.ErrShipmentNotFound):
		return writeError(c, fiber.StatusNotFound, "SHIPMENT_NOT_FOUND", "shipment not found")
	case errors.Is(err, render.ErrTemplateNotFound):
		return writeError(c, fiber.StatusInternalServerError, "TEMPLATE_NOT_FOUND", "document template missing")
	case errors.Is(err, render.ErrTemplateMarker):
		return writeError(c, fiber.StatusInternalServerError, "TEMPLATE_INVALID", "document template is malformed")
	case errors.Is(err, render.ErrMissingField):
		return writeError(c, fiber.StatusUnprocessableEntity, "MISSING_FIELD", "shipment is missing a required field")
	case errors.As(err, &upErr):
		if upErr.Orphaned() {
			return c.Status(fiber.StatusBadGateway).JSON(errorPayload{
				RequestID: requestIDFromCtx(c),
				Error: errorEnvelope{
					Code:      "REMOTE_LINK_FAILED",
					Message:   "document uploaded but could not be attached to the shipment",
					ContentID: upErr.ContentID,
				},
			})
		}
		return writeError(c, fiber.StatusBadGateway, "REMOTE_UPLOAD_FAILED", "document could not be uploaded to the CRM")
	default:
		return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}

// writeDownloadError maps retrieval failures.
func writeDownloadError(c *fiber.Ctx, err error) error {
	if errors.Is(err, localstore.ErrNotFound) {
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "file not found")
	}
	return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
}

// ErrorHandler returns a Fiber global error handler that standardizes error
// responses for errors that escape the route handlers.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		if e, ok := err.(*fiber.Error); ok {
			status = e.Code
		}

		switch status {
		case fiber.StatusBadRequest:
			return writeError(c, status, "BAD_REQUEST", "bad request")
		case fiber.StatusNotFound:
			return writeError(c, status, "NOT_FOUND", "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, "METHOD_NOT_ALLOWED", "method not allowed")
		default:
			return writeError(c, status, "INTERNAL_ERROR", "internal server error")
		}
	}
}
