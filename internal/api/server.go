package api

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// NewServer собирает fiber приложение с маршрутами
func NewServer(h *Handlers, jwtSecret string, logger *zap.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler(logger),
	})

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")

	admin := api.Group("/admin", RequireRole(jwtSecret, RoleAdmin))
	admin.Get("/bookings/pending", h.ListPending)
	admin.Post("/bookings/:id/decision", h.Decide)
	admin.Get("/bookings/:id/notifications", h.Notifications)

	api.Post("/bookings/:id/payment", RequireRole(jwtSecret, RoleCustomer, RoleAdmin), h.AttachPayment)

	return app
}

// Serve запускает сервер и гасит его при отмене контекста
func Serve(ctx context.Context, app *fiber.App, addr string, logger *zap.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", zap.String("addr", addr))
		errCh <- app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("Shutting down HTTP server")
		return app.Shutdown()
	}
}
