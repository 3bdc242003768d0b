package handler

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"docvault/internal/apperror"
	"docvault/internal/http/middleware"
	"docvault/internal/logger"
)

// errorPayload defines the standardized error response body.
type errorPayload struct {
	Success   bool          `json:"success"`
	Error     errorEnvelope `json:"error"`
	RequestID string        `json:"request_id,omitempty"`
}

type errorEnvelope struct {
	Message string `json:"message"`
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}

// writeError writes a standardized JSON error response without leaking internal errors.
func writeError(c *fiber.Ctx, status int, code, message string, details any) error {
	return c.Status(status).JSON(errorPayload{
		RequestID: middleware.RequestIDFrom(c),
		Error: errorEnvelope{
			Message: message,
			Code:    code,
			Details: details,
		},
	})
}

// ErrorHandler returns a Fiber global error handler that standardizes error
// responses. Classified errors keep their code and message; anything else is
// logged and reported as a generic internal error. Bodies over the server
// limit are reported like any other oversize upload, quoting maxFileSize.
func ErrorHandler(log *zap.Logger, maxFileSize int64) fiber.ErrorHandler {
	log = logger.OrNop(log)
	tooLarge := fmt.Sprintf("File too large. Maximum size is %dMB", maxFileSize>>20)

	return func(c *fiber.Ctx, err error) error {
		if e, ok := err.(*fiber.Error); ok {
			if e.Code == fiber.StatusRequestEntityTooLarge {
				return writeError(c, fiber.StatusBadRequest, "BAD_REQUEST", tooLarge, nil)
			}
			return writeFiberError(c, e)
		}

		appErr, ok := apperror.As(err)
		if !ok {
			appErr = apperror.Internal(err)
		}
		if appErr.Kind == apperror.KindInternal {
			log.Error("request_failed",
				zap.String("request_id", middleware.RequestIDFrom(c)),
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Error(err),
			)
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		}
		return writeError(c, appErr.Kind.HTTPStatus(), appErr.Code, appErr.Message, appErr.Details)
	}
}

func writeFiberError(c *fiber.Ctx, e *fiber.Error) error {
	switch e.Code {
	case fiber.StatusBadRequest:
		return writeError(c, e.Code, "BAD_REQUEST", "Bad request", nil)
	case fiber.StatusUnauthorized:
		return writeError(c, e.Code, "UNAUTHENTICATED", "Authentication required", nil)
	case fiber.StatusNotFound:
		return writeError(c, e.Code, "NOT_FOUND", "Resource not found", nil)
	case fiber.StatusMethodNotAllowed:
		return writeError(c, e.Code, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
	case fiber.StatusUpgradeRequired:
		return writeError(c, e.Code, "UPGRADE_REQUIRED", "WebSocket upgrade required", nil)
	default:
		return writeError(c, e.Code, "INTERNAL_ERROR", "Internal server error", nil)
	}
}
