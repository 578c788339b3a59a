package server

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	kerrors "github.com/p-blackswan/kanban-board/internal/errors"
)

// Response is the envelope every API route answers with.
type Response struct {
	Success   bool             `json:"success"`
	Data      any              `json:"data"`
	Error     *string          `json:"error"`
	ErrorCode kerrors.Code     `json:"errorCode,omitempty"`
	Details   *kerrors.Details `json:"details,omitempty"`
}

func ok(c *fiber.Ctx, data any) error {
	return c.Status(fiber.StatusOK).JSON(Response{Success: true, Data: data})
}

func created(c *fiber.Ctx, data any) error {
	return c.Status(fiber.StatusCreated).JSON(Response{Success: true, Data: data})
}

func writeAPIError(c *fiber.Ctx, e *kerrors.APIError) error {
	msg := e.Message
	return c.Status(e.StatusCode).JSON(Response{
		Error:     &msg,
		ErrorCode: e.Code,
		Details:   e.Details,
	})
}

func customErrorHandler(logger zerolog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		if apiErr, ok := kerrors.As(err); ok {
			if apiErr.StatusCode >= fiber.StatusInternalServerError {
				logger.Error().Err(err).Str("path", c.Path()).Str("method", c.Method()).Msg("request failed")
			}
			return writeAPIError(c, apiErr)
		}

		var fe *fiber.Error
		if errors.As(err, &fe) && fe.Code < fiber.StatusInternalServerError {
			msg := fe.Message
			return c.Status(fe.Code).JSON(Response{Error: &msg})
		}

		logger.Error().
			Err(err).
			Str("path", c.Path()).
			Str("method", c.Method()).
			Msg("unhandled error")

		return writeAPIError(c, kerrors.New(kerrors.CodeInternal, kerrors.InternalMessage))
	}
}
