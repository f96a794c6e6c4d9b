package routes

import (
	"github.com/snackcart/affiliate_engine/handlers"
	"github.com/gofiber/fiber/v2"
)

func OrderRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	api.Post("/orders/webhook", handlers.HandleOrderCompleted)
}
