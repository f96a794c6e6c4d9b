package routes

import (
	"github.com/snackcart/affiliate_engine/handlers"
	"github.com/snackcart/affiliate_engine/middleware"
	"github.com/gofiber/fiber/v2"
)

func AdminRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	admin := api.Group("/admin", middleware.Protected(), middleware.AdminRequired())

	admin.Get("/dashboard-analytics", handlers.GetDashboardAnalytics)

	affiliates := admin.Group("/affiliates")
	affiliates.Get("", handlers.ListAffiliates)
	affiliates.Put("/:affiliateId", handlers.ManageAffiliate)
	affiliates.Post("/:affiliateId/mark-paid", handlers.MarkAffiliatePaid)

	admin.Get("/commission-config", handlers.GetCommissionConfig)
	admin.Get("/commission-config/history", handlers.ListCommissionConfigHistory)
	admin.Post("/commission-config", handlers.UpdateCommissionConfig)

	admin.Get("/transactions", handlers.ListTransactions)
	admin.Post("/transactions/:transactionId/confirm", handlers.ConfirmTransaction)
	admin.Post("/transactions/:transactionId/reverse", handlers.ReverseTransaction)

	admin.Get("/payout-requests", handlers.ListPayoutRequests)
	admin.Post("/payout-requests/:requestId/process", handlers.ProcessPayoutRequest)
}
