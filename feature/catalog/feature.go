package catalog

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"modforge/core/history"
	"modforge/core/manager"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	service *Service
	handler *Handler
}

// NewFeature creates the catalog feature.
func NewFeature(mgr *manager.Manager, journal *history.Recorder, logger *zap.Logger) *Feature {
	svc := NewService(mgr, journal, logger)
	h := NewHandler(svc)
	return &Feature{service: svc, handler: h}
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "catalog"
}

// IsEnabled checks if the feature is enabled.
func (f *Feature) IsEnabled() bool {
	return true
}

// Load registers the feature's routes.
func (f *Feature) Load(app fiber.Router) error {
	f.handler.RegisterRoutes(app)
	return nil
}
