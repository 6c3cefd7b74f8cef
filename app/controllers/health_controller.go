package controllers

import (
	"github.com/gofiber/fiber/v2"
)

// HandleHealth is the liveness probe for the gateway.
func HandleHealth(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).SendString("Gig service is healthy and OK.")
}
