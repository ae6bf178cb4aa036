// Package analysisapi exposes the analysis service over HTTP. Handlers
// return errx errors and rely on the app-level error handler to shape the
// response.
package analysisapi

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Abraxas-365/lectio/pkg/analysis"
	"github.com/Abraxas-365/lectio/pkg/errx"
)

// Handlers serves the analysis endpoints.
type Handlers struct {
	service *analysis.Service
}

// NewHandlers wraps the service.
func NewHandlers(service *analysis.Service) *Handlers {
	return &Handlers{service: service}
}

// RegisterRoutes mounts the analysis routes under /api/v1. middleware, if
// any, runs in front of every route.
func (h *Handlers) RegisterRoutes(app *fiber.App, middleware ...fiber.Handler) {
	group := app.Group("/api/v1/analysis", middleware...)
	group.Post("/", h.submit)
	group.Get("/:id", h.status)
	group.Delete("/:id", h.cancel)
}

// submit accepts an analysis request and returns 202 with the PENDING
// record; the caller polls GET /:id until a terminal status.
func (h *Handlers) submit(c *fiber.Ctx) error {
	var req analysis.SubmitRequest
	if err := c.BodyParser(&req); err != nil {
		return errx.Validation("invalid request body").WithDetail("cause", err.Error())
	}

	record, err := h.service.SubmitAnalysis(c.Context(), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusAccepted).JSON(record)
}

func (h *Handlers) status(c *fiber.Ctx) error {
	record, err := h.service.Status(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(record)
}

func (h *Handlers) cancel(c *fiber.Ctx) error {
	jobID := c.Params("id")
	if err := h.service.Cancel(c.Context(), jobID); err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"job_id":   jobID,
		"canceled": true,
	})
}
