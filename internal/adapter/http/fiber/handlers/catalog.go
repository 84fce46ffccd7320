package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/utility-advisor/internal/ports"
)

type CatalogHandler struct {
	catalogs ports.CatalogRepository
	log      *zap.Logger
}

func NewCatalogHandler(catalogs ports.CatalogRepository, log *zap.Logger) *CatalogHandler {
	return &CatalogHandler{
		catalogs: catalogs,
		log:      log,
	}
}

func (h *CatalogHandler) List(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"territories": h.catalogs.Territories()})
}

func (h *CatalogHandler) Get(c *fiber.Ctx) error {
	territory := strings.ToUpper(strings.TrimSpace(c.Params("territory")))
	catalog, err := h.catalogs.CatalogFor(c.UserContext(), territory)
	if err != nil {
		return err
	}
	return c.JSON(catalog)
}
