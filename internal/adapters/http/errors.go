package http

import "github.com/gofiber/fiber/v2"

// APIError is a structured error response.
type APIError struct {
	Status    int      `json:"status"`
	Code      string   `json:"code"`    // Error code: bad_request, not_found, invalid_geojson, etc.
	Message   string   `json:"message"` // Human-readable message
	Details   []string `json:"details,omitempty"`
	RequestID string   `json:"request_id,omitempty"`
}

// newError builds a JSON error response with a request ID.
func newError(c *fiber.Ctx, status int, code string, message string, details ...string) error {
	reqID, _ := c.Locals("requestid").(string)
	return c.Status(status).JSON(APIError{
		Status:    status,
		Code:      code,
		Message:   message,
		Details:   details,
		RequestID: reqID,
	})
}

// errBadRequest returns a 400 error.
func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, 400, "bad_request", msg)
}

// errValidation returns a 400 error listing every failed field.
func errValidation(c *fiber.Ctx, details []string) error {
	return newError(c, 400, "validation_failed", "request validation failed", details...)
}

// errInvalidGeoJSON returns a 400 error for an import that failed to decode.
func errInvalidGeoJSON(c *fiber.Ctx, detail string) error {
	return newError(c, 400, "invalid_geojson",
		"Error parsing GeoJSON file. Please make sure it's a valid GeoJSON file.", detail)
}

// errNotFound returns a 404 error.
func errNotFound(c *fiber.Ctx, msg string) error {
	return newError(c, 404, "not_found", msg)
}

// errInternal returns a 500 error.
func errInternal(c *fiber.Ctx, msg string) error {
	return newError(c, 500, "internal_error", msg)
}
