package catalog

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"modforge/core/logger"
)

// Handler handles HTTP requests for the catalog.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the catalog routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/catalog")
	group.Get("/items", h.HandleListItems)
	group.Get("/cycles", h.HandleRecentCycles)
	group.Get("/cycles/:cycle/errors", h.HandleCycleErrors)
	// Identifiers contain ':' and '/', so the item route is a wildcard.
	group.Get("/items/+", h.HandleGetItem)
}

// HandleListItems returns a summary of every published item.
func (h *Handler) HandleListItems(c *fiber.Ctx) error {
	return c.JSON(h.service.ListItems())
}

// HandleGetItem returns the detail for one identifier.
func (h *Handler) HandleGetItem(c *fiber.Ctx) error {
	id := c.Params("+")
	detail, ok := h.service.GetItem(id)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "unknown identifier",
		})
	}
	return c.JSON(detail)
}

// HandleRecentCycles returns the latest cycle journal entries.
func (h *Handler) HandleRecentCycles(c *fiber.Ctx) error {
	limit, err := strconv.Atoi(c.Query("limit", "20"))
	if err != nil || limit <= 0 {
		limit = 20
	}

	cycles, err := h.service.RecentCycles(limit)
	if err != nil {
		l := logger.WithRayID(h.service.logger, c)
		l.Error("cycle listing failed", zap.Error(err))
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(cycles)
}

// HandleCycleErrors returns the isolated failures of one cycle.
func (h *Handler) HandleCycleErrors(c *fiber.Ctx) error {
	cycleID := c.Params("cycle")
	errs, err := h.service.CycleErrors(cycleID)
	if err != nil {
		l := logger.WithRayID(h.service.logger, c)
		l.Error("cycle error listing failed", zap.Error(err))
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(errs)
}
