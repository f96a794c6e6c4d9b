package routes

import (
	"github.com/snackcart/affiliate_engine/handlers"
	"github.com/gofiber/fiber/v2"
)

func PublicRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	api.Post("/auth/login", handlers.LoginUser)

	api.Post("/affiliates/register", handlers.RegisterAffiliate)
	api.Get("/affiliates/resolve-coupon/:code", handlers.ResolveCoupon)
	api.Get("/affiliates/:affiliateId/dashboard", handlers.GetAffiliateDashboard)
	api.Post("/affiliates/:affiliateId/payouts", handlers.RequestPayout)
}
