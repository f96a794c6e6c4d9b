package handlers

import (
	"errors"
	"log"

	"github.com/snackcart/affiliate_engine/services"
	"github.com/gofiber/fiber/v2"
)

type OrderCompletedRequest struct {
	OrderID    string  `json:"order_id" validate:"required,max=64"`
	CouponCode string  `json:"coupon_code" validate:"required"`
	NetAmount  float64 `json:"net_amount" validate:"required,gt=0"`
}

// HandleOrderCompleted is the webhook the order pipeline calls once per
// completed order. NetAmount is the taxable amount: order value minus
// shipping and tax, which is the commission base.
//
// Replays of the same order_id come back 200 with nothing credited, so the
// caller's retry policy can stay dumb.
func HandleOrderCompleted(c *fiber.Ctx) error {
	var req OrderCompletedRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	transactions, err := services.ApplyOrder(req.OrderID, req.CouponCode, req.NetAmount)
	if err != nil {
		if errors.Is(err, services.ErrDuplicateOrder) {
			return c.JSON(fiber.Map{"message": "Order already processed.", "credited": 0})
		}
		log.Printf("🔥 Commission processing failed for order %s: %v", req.OrderID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process order commissions"})
	}

	if len(transactions) == 0 {
		return c.JSON(fiber.Map{"message": "No affiliate attribution for this order.", "credited": 0})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":      "Commissions credited.",
		"credited":     len(transactions),
		"transactions": transactions,
	})
}
