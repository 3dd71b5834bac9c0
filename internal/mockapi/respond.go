package mockapi

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
)

type envelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

type nested struct {
	Data any `json:"data"`
}

// errorBody mirrors the NestJS exception filter output. Message is a
// string, or a list for validation failures.
type errorBody struct {
	Success    bool   `json:"success"`
	StatusCode int    `json:"statusCode"`
	Message    any    `json:"message"`
	Error      string `json:"error,omitempty"`
	Timestamp  string `json:"timestamp"`
	Path       string `json:"path"`
}

// validationError reports every failed rule of a request body at once.
type validationError struct {
	messages []string
}

func (e *validationError) Error() string {
	return "validation failed"
}

func invalid(messages ...string) error {
	return &validationError{messages: messages}
}

func respond(c *fiber.Ctx, status int, data any) error {
	return c.Status(status).JSON(envelope{Success: true, Data: data})
}

// respondNested wraps data twice, as some backend controllers do.
func respondNested(c *fiber.Ctx, status int, data any) error {
	return c.Status(status).JSON(envelope{Success: true, Data: nested{Data: data}})
}

func errorHandler(c *fiber.Ctx, err error) error {
	body := errorBody{
		StatusCode: fiber.StatusInternalServerError,
		Message:    "Internal server error",
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Path:       c.OriginalURL(),
	}

	var (
		fe *fiber.Error
		ve *validationError
	)
	switch {
	case errors.As(err, &ve):
		body.StatusCode = fiber.StatusBadRequest
		body.Message = ve.messages
		body.Error = "Bad Request"
	case errors.As(err, &fe):
		body.StatusCode = fe.Code
		body.Message = fe.Message
	}
	return c.Status(body.StatusCode).JSON(body)
}
