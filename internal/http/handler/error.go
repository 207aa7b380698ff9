package handler

import (
	"github.com/gofiber/fiber/v2"

	"routecore/internal/http/middleware"
)

// errorPayload is the standardized error response body:
// {"request_id": "...", "error": {"code": "...", "message": "..."}}
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// statusCodes maps the fiber-level statuses the global handler can see to
// machine-readable codes. Handlers that know more (validation, eligibility,
// chain exhaustion) call writeError directly with a specific code instead.
var statusCodes = map[int]struct{ code, message string }{
	fiber.StatusBadRequest:       {"BAD_REQUEST", "bad request"},
	fiber.StatusNotFound:         {"NOT_FOUND", "resource not found"},
	fiber.StatusMethodNotAllowed: {"METHOD_NOT_ALLOWED", "method not allowed"},
}

// requestIDFromCtx extracts request_id previously stored by middleware.RequestID.
func requestIDFromCtx(c *fiber.Ctx) string {
	if s, ok := c.Locals(middleware.RequestIDLocalKey).(string); ok {
		return s
	}
	return ""
}

// writeError writes a standardized JSON error response. The message must be
// safe to expose; internal error details never leave the handler layer.
func writeError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(errorPayload{
		RequestID: requestIDFromCtx(c),
		Error: errorEnvelope{
			Code:    code,
			Message: message,
		},
	})
}

// ErrorHandler returns the Fiber global error handler. It standardizes
// responses for errors that escape the route handlers.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		if e, ok := err.(*fiber.Error); ok {
			status = e.Code
		}

		if m, ok := statusCodes[status]; ok {
			return writeError(c, status, m.code, m.message)
		}
		return writeError(c, status, "INTERNAL_ERROR", "internal server error")
	}
}
