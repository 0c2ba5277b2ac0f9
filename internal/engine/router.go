package engine

import "github.com/gofiber/fiber/v2"

func RegisterFormRoutes(app *fiber.App, h *Handler, mw ...fiber.Handler) {
	api := app.Group("/api")
	for _, m := range mw {
		api.Use(m)
	}

	api.Get("/forms", h.List)
	api.Get("/forms/:id", h.GetByID)
	api.Post("/forms/:id/evaluate", h.Evaluate)
	api.Post("/forms/:id/submissions", h.Submit)
}
