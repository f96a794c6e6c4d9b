package handlers

import (
	"errors"
	"log"
	"time"

	"github.com/snackcart/affiliate_engine/database"
	"github.com/snackcart/affiliate_engine/models"
	"github.com/snackcart/affiliate_engine/services"
	"github.com/snackcart/affiliate_engine/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RegisterAffiliateRequest struct {
	FullName     string  `json:"full_name" validate:"required,min=3"`
	Mobile       string  `json:"mobile" validate:"required,min=10,max=15"`
	UpiID        string  `json:"upi_id" validate:"required,min=5"`
	ReferrerCode *string `json:"referrer_code,omitempty"`
	IsPaid       bool    `json:"is_paid"`
}

// RegisterAffiliate creates a pending affiliate, assigns a fresh coupon code
// and places them in the referral tree. Paid members take the direct-pay
// fast path and come out approved immediately.
//
// Tree-structural failures (self-reference, cycle) demote the placement to a
// root slot and are logged; the registration itself never gets dropped.
func RegisterAffiliate(c *fiber.Ctx) error {
	var req RegisterAffiliateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var affiliate models.Affiliate

	// Two attempts: a concurrent registration can grab the chosen slot
	// between the BFS and the insert, in which case the unique index on
	// (parent_id, position) rejects the row and the search runs once more.
	var err error
	for attempt := 0; attempt < 2; attempt++ {
		err = database.DB.Transaction(func(tx *gorm.DB) error {
			couponCode, err := utils.GenerateUniqueCouponCode(tx)
			if err != nil {
				return err
			}

			newID := uuid.New()
			affiliate = models.Affiliate{
				ID:         newID,
				FullName:   req.FullName,
				Mobile:     req.Mobile,
				UpiID:      req.UpiID,
				CouponCode: couponCode,
				Status:     models.AffiliateStatusPending,
				IsActive:   true,
				IsPaid:     req.IsPaid,
			}

			if req.IsPaid {
				now := time.Now()
				affiliate.Status = models.AffiliateStatusApproved
				affiliate.PaidAt = &now
			}

			if req.ReferrerCode != nil && *req.ReferrerCode != "" {
				placement, err := services.PlaceAffiliate(tx, newID, *req.ReferrerCode)
				switch {
				case err == nil:
					affiliate.ParentID = placement.ParentID
					affiliate.Position = placement.Position
					affiliate.ReferrerID = placement.ReferrerID
				case errors.Is(err, services.ErrUnknownReferrer):
					return err
				case errors.Is(err, services.ErrInvalidTreeOperation), errors.Is(err, services.ErrCorruptTree):
					log.Printf("🔥 Tree placement failed for referrer code %s, placing as root: %v", *req.ReferrerCode, err)
				default:
					return err
				}
			}

			affiliate.CurrentTier = services.TierFor(affiliate.IsPaid, 0).Name

			if err := tx.Create(&affiliate).Error; err != nil {
				return err
			}
			return nil
		})

		if err == nil || !errors.Is(err, gorm.ErrDuplicatedKey) {
			break
		}

		// Duplicate mobile also lands here; retrying once is harmless and
		// the second failure reports the conflict.
	}

	if err != nil {
		if errors.Is(err, services.ErrUnknownReferrer) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Unknown referrer code"})
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Mobile number already registered"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to register affiliate"})
	}

	return c.Status(fiber.StatusCreated).JSON(affiliate)
}

// ResolveCoupon is consumed by the checkout flow to attribute an order.
func ResolveCoupon(c *fiber.Ctx) error {
	code := c.Params("code")

	var affiliate models.Affiliate
	err := database.DB.Where("coupon_code = ? AND status = ? AND is_active = ?",
		code, models.AffiliateStatusApproved, true).First(&affiliate).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Coupon not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}

	return c.JSON(fiber.Map{
		"affiliate_id": affiliate.ID,
		"full_name":    affiliate.FullName,
		"coupon_code":  affiliate.CouponCode,
	})
}

// GetAffiliateDashboard returns the balance/tier/earnings snapshot plus the
// most recent ledger rows.
func GetAffiliateDashboard(c *fiber.Ctx) error {
	affiliateID, err := uuid.Parse(c.Params("affiliateId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid affiliate id"})
	}

	var affiliate models.Affiliate
	if err := database.DB.First(&affiliate, "id = ?", affiliateID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Affiliate not found"})
	}

	var transactions []models.CommissionTransaction
	database.DB.Where("affiliate_id = ?", affiliateID).
		Order("created_at desc").Limit(20).Find(&transactions)

	tier := services.TierByName(affiliate.CurrentTier)

	return c.JSON(fiber.Map{
		"affiliate": affiliate,
		"tier": fiber.Map{
			"name":        tier.Name,
			"direct_rate": tier.Rate,
		},
		"recent_transactions": transactions,
	})
}
