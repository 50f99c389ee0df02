package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/finalapps/orbit/internal/service"
)

// SweepHandler exposes an on-demand deadline sweep, useful for ops runbooks
// and integration environments where waiting for the ticker is impractical.
type SweepHandler struct {
	lifecycle *service.LifecycleService
}

// NewSweepHandler constructs handler.
func NewSweepHandler(lifecycleService *service.LifecycleService) *SweepHandler {
	return &SweepHandler{lifecycle: lifecycleService}
}

// Run POST /sweep/run.
func (h *SweepHandler) Run(c *fiber.Ctx) error {
	report, err := h.lifecycle.SweepDeadlines(c.Context(), time.Now())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": report})
}
