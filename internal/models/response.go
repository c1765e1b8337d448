package models

import "github.com/gofiber/fiber/v2"

// Envelope is the response shape shared by every API endpoint.
type Envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Code    string      `json:"code,omitempty"`
}

// RespondOK writes a successful envelope with the given status.
func RespondOK(c *fiber.Ctx, status int, message string, data interface{}) error {
	return c.Status(status).JSON(Envelope{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// RespondWithError creates a standardized error response.
// Details of wrapped errors are only included when exposeDetails is set.
func RespondWithError(c *fiber.Ctx, status int, err error, exposeDetails bool) error {
	resp := Envelope{Success: false}

	if appErr, ok := err.(*AppError); ok {
		resp.Error = appErr.Message
		resp.Code = appErr.Code
		if exposeDetails && appErr.Err != nil {
			resp.Message = appErr.Err.Error()
		}
	} else {
		resp.Error = err.Error()
	}

	return c.Status(status).JSON(resp)
}
