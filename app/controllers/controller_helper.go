package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/gigforge/gig-service/internal/pkg/apperror"
)

// respondError maps the application error taxonomy onto HTTP statuses and
// returns only the stable code plus the client-safe message. Causes stay in
// the logs.
func respondError(c *fiber.Ctx, err error) error {
	code := apperror.CodeOf(err)

	status := fiber.StatusServiceUnavailable
	switch code {
	case apperror.CodeValidation:
		status = fiber.StatusBadRequest
	case apperror.CodeNotFound:
		status = fiber.StatusNotFound
	case apperror.CodeConflict:
		status = fiber.StatusConflict
	}

	if code == apperror.CodeDependency {
		log.Errorf("[API] %s %s failed: %v", c.Method(), c.Path(), err)
	}

	return c.Status(status).JSON(fiber.Map{
		"error":   string(code),
		"message": apperror.ClientMessageOf(err),
	})
}
