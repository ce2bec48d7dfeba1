package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"docfiling/internal/apperr"
	"docfiling/internal/http/middleware"
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

// writeError writes a standardized JSON error response. message must be safe
// to show to callers.
func writeError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(errorPayload{
		RequestID: middleware.RequestIDFrom(c),
		Error: errorEnvelope{
			Code:    code,
			Message: message,
		},
	})
}

// kindStatus maps each error kind to its HTTP status and code. Internal and
// AllocationFailed hide their message.
var kindStatus = map[apperr.Kind]struct {
	status int
	code   string
}{
	apperr.KindNotFound:           {fiber.StatusNotFound, "NOT_FOUND"},
	apperr.KindConflict:           {fiber.StatusConflict, "CONFLICT"},
	apperr.KindForbidden:          {fiber.StatusForbidden, "FORBIDDEN"},
	apperr.KindInvalidInput:       {fiber.StatusBadRequest, "INVALID_INPUT"},
	apperr.KindAllocationFailed:   {fiber.StatusInternalServerError, "ALLOCATION_FAILED"},
	apperr.KindStorageUnavailable: {fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE"},
	apperr.KindInternal:           {fiber.StatusInternalServerError, "INTERNAL_ERROR"},
}

// ErrorHandler returns the Fiber error handler. Domain errors are rendered by
// kind, Fiber errors by their status, anything else as a 500 that is logged
// but not echoed.
func ErrorHandler(log logrus.FieldLogger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return writeFiberError(c, fe)
		}

		kind := apperr.KindOf(err)
		m := kindStatus[kind]
		msg := apperr.MessageOf(err)
		switch {
		case kind == apperr.KindInternal:
			msg = "internal server error"
		case kind == apperr.KindAllocationFailed:
			msg = "reference number could not be allocated"
		case kind == apperr.KindStorageUnavailable:
			msg = "dependency unavailable"
		}
		if m.status >= fiber.StatusInternalServerError {
			log.WithError(err).WithFields(logrus.Fields{
				"request_id": middleware.RequestIDFrom(c),
				"path":       c.Path(),
				"kind":       kind.String(),
			}).Error("request_failed")
		}
		return writeError(c, m.status, m.code, msg)
	}
}

func writeFiberError(c *fiber.Ctx, fe *fiber.Error) error {
	switch fe.Code {
	case fiber.StatusBadRequest:
		return writeError(c, fe.Code, "BAD_REQUEST", fe.Message)
	case fiber.StatusUnauthorized:
		return writeError(c, fe.Code, "UNAUTHORIZED", fe.Message)
	case fiber.StatusForbidden:
		return writeError(c, fe.Code, "FORBIDDEN", fe.Message)
	case fiber.StatusNotFound:
		return writeError(c, fe.Code, "NOT_FOUND", "resource not found")
	case fiber.StatusMethodNotAllowed:
		return writeError(c, fe.Code, "METHOD_NOT_ALLOWED", "method not allowed")
	case fiber.StatusRequestEntityTooLarge:
		return writeError(c, fe.Code, "PAYLOAD_TOO_LARGE", "request body too large")
	default:
		if fe.Code < fiber.StatusInternalServerError {
			return writeError(c, fe.Code, "REQUEST_ERROR", fe.Message)
		}
		return writeError(c, fe.Code, "INTERNAL_ERROR", "internal server error")
	}
}
