package handlers

import (
	"errors"

	"github.com/snackcart/affiliate_engine/database"
	"github.com/snackcart/affiliate_engine/models"
	"github.com/snackcart/affiliate_engine/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PayoutRequestBody struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
	UpiID  string  `json:"upi_id" validate:"required,min=5"`
}

func RequestPayout(c *fiber.Ctx) error {
	affiliateID, err := uuid.Parse(c.Params("affiliateId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid affiliate id"})
	}

	var req PayoutRequestBody
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	request, err := services.RequestPayout(affiliateID, req.Amount, req.UpiID)
	if err != nil {
		if errors.Is(err, services.ErrInsufficientBalance) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Insufficient available balance"})
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(fiber.StatusCreated).JSON(request)
}

func ListPayoutRequests(c *fiber.Ctx) error {
	status := c.Query("status")

	query := database.DB.Preload("Affiliate").Order("requested_at desc")
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var requests []models.PayoutRequest
	if err := query.Find(&requests).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}
	return c.JSON(requests)
}

type ProcessPayoutBody struct {
	Decision   string `json:"decision" validate:"required,oneof=approve reject"`
	AdminNotes string `json:"admin_notes"`
}

func ProcessPayoutRequest(c *fiber.Ctx) error {
	requestID, err := uuid.Parse(c.Params("requestId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request id"})
	}

	var req ProcessPayoutBody
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	request, err := services.ProcessPayout(requestID, req.Decision, req.AdminNotes)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Payout request not found"})
		case errors.Is(err, services.ErrInsufficientBalance):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Affiliate no longer has sufficient available balance"})
		case errors.Is(err, services.ErrAlreadyProcessed):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Payout request was already processed"})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process payout request"})
		}
	}

	return c.JSON(fiber.Map{"message": "Payout request processed.", "request": request})
}
