package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/utility-advisor/internal/domain"
)

func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		body := fiber.Map{"error": err.Error()}

		var fe *fiber.Error
		var ve *domain.ValidationError
		switch {
		case errors.As(err, &fe):
			code = fe.Code
		case errors.As(err, &ve):
			code = fiber.StatusBadRequest
			body["field"] = ve.Field
		case errors.Is(err, domain.ErrTerritoryRequired):
			code = fiber.StatusBadRequest
		case errors.Is(err, domain.ErrCatalogNotFound):
			code = fiber.StatusNotFound
		}

		if code == fiber.StatusInternalServerError {
			log.Error("Internal Server Error", zap.Error(err), zap.String("path", c.Path()))
			body["error"] = "internal server error"
		}

		return c.Status(code).JSON(body)
	}
}

func isClientError(err error) bool {
	var ve *domain.ValidationError
	return errors.As(err, &ve) || errors.Is(err, domain.ErrTerritoryRequired) || errors.Is(err, domain.ErrCatalogNotFound)
}
