package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/awokou/ecommerce-microservices/internal/repository"
	"github.com/awokou/ecommerce-microservices/internal/service"
	"github.com/gofiber/fiber/v2"
)

type ErrorResponse struct {
	Timestamp        time.Time         `json:"timestamp"`
	Status           int               `json:"status"`
	Error            string            `json:"error"`
	Message          string            `json:"message"`
	ValidationErrors map[string]string `json:"validation_errors,omitempty"`
}

func mapErrorStatus(err error) int {
	switch {
	case errors.Is(err, repository.ErrCartNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrItemNotInCart),
		errors.Is(err, service.ErrCartLimitExceeded),
		errors.Is(err, service.ErrProductUnavailable):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrCatalogUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func errorBody(c *fiber.Ctx, err error) error {
	status := mapErrorStatus(err)

	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal error"
	}

	return c.Status(status).JSON(ErrorResponse{
		Timestamp: time.Now(),
		Status:    status,
		Error:     http.StatusText(status),
		Message:   message,
	})
}

func validationBody(c *fiber.Ctx, validationErrors map[string]string) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
		Timestamp:        time.Now(),
		Status:           fiber.StatusBadRequest,
		Error:            http.StatusText(fiber.StatusBadRequest),
		Message:          "validation failed",
		ValidationErrors: validationErrors,
	})
}
