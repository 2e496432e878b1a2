package api

import (
	"errors"

	"github.com/Freeeeeet/disk_entulho/internal/service"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type errorResponse struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

// statusFor сопоставляет ошибки сервисов с HTTP статусами
func statusFor(err error) int {
	var fiberErr *fiber.Error
	switch {
	case errors.As(err, &fiberErr):
		return fiberErr.Code
	case errors.Is(err, service.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, service.ErrAlreadyDecided),
		errors.Is(err, service.ErrNotCashPayment),
		errors.Is(err, service.ErrBookingNotPayable),
		service.IsAlreadyAttached(err):
		return fiber.StatusConflict
	case errors.Is(err, service.ErrUnsupportedPaymentType):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

// errorHandler единый обработчик ошибок fiber
func errorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := statusFor(err)
		message := err.Error()

		if code >= fiber.StatusInternalServerError {
			logger.Error("Request failed",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Error(err),
			)
			message = "internal error"
		}

		return c.Status(code).JSON(errorResponse{Status: "error", Error: message})
	}
}
