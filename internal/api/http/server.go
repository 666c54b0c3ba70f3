package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// NewApp builds a fiber app with the settings shared by both services.
// Errors are rendered by the error middleware, not by fiber's default handler.
func NewApp(name string) *fiber.App {
	return fiber.New(fiber.Config{
		AppName:               name,
		DisableStartupMessage: true,
		ReadTimeout:           15 * time.Second,
		WriteTimeout:          15 * time.Second,
		IdleTimeout:           60 * time.Second,
		BodyLimit:             64 * 1024,
	})
}
