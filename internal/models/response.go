package models

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// Response is the envelope every API response is written in.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
}

// RespondWithData writes a successful envelope.
func RespondWithData(c *fiber.Ctx, status int, message string, data any) error {
	return c.Status(status).JSON(Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// RespondWithError writes a failed envelope. Wrapped causes are only exposed
// for upstream failures; internal errors never leak their cause.
func RespondWithError(c *fiber.Ctx, status int, err error) error {
	resp := Response{Success: false}

	var appErr *AppError
	if errors.As(err, &appErr) {
		resp.Message = appErr.Message
		resp.Code = appErr.Code
		resp.Error = appErr.Message
		if appErr.Err != nil && appErr.Code == CodeUpstream {
			resp.Error = appErr.Err.Error()
		}
	} else {
		resp.Message = "Internal server error"
		resp.Code = CodeInternal
		resp.Error = resp.Message
	}

	return c.Status(status).JSON(resp)
}

// RespondWithAppError writes err using the status derived from its code.
func RespondWithAppError(c *fiber.Ctx, err error) error {
	return RespondWithError(c, StatusFor(err), err)
}
