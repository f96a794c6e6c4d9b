package handlers

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/snackcart/affiliate_engine/database"
	"github.com/snackcart/affiliate_engine/models"
	"github.com/snackcart/affiliate_engine/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func ListAffiliates(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "10"))
	search := strings.TrimSpace(c.Query("search"))
	status := c.Query("status")
	offset := (page - 1) * limit

	var affiliates []models.Affiliate
	var total int64

	query := database.DB.Model(&models.Affiliate{})
	countQuery := database.DB.Model(&models.Affiliate{})

	if search != "" {
		searchTerm := "%" + search + "%"
		query = query.Where("full_name ILIKE ? OR mobile LIKE ? OR coupon_code LIKE ?", searchTerm, searchTerm, searchTerm)
		countQuery = countQuery.Where("full_name ILIKE ? OR mobile LIKE ? OR coupon_code LIKE ?", searchTerm, searchTerm, searchTerm)
	}
	if status != "" {
		query = query.Where("status = ?", status)
		countQuery = countQuery.Where("status = ?", status)
	}

	countQuery.Count(&total)
	query.Order("created_at desc").Offset(offset).Limit(limit).Find(&affiliates)

	return c.JSON(fiber.Map{
		"data": affiliates,
		"meta": fiber.Map{
			"total_affiliates": total,
			"total_pages":      int(math.Ceil(float64(total) / float64(limit))),
			"current_page":     page,
		},
	})
}

type ManageAffiliateRequest struct {
	Status string `json:"status" validate:"required,oneof=approved rejected"`
}

func ManageAffiliate(c *fiber.Ctx) error {
	affiliateID := c.Params("affiliateId")

	var req ManageAffiliateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var affiliate models.Affiliate
	if err := database.DB.Where("id = ?", affiliateID).First(&affiliate).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Affiliate not found"})
	}

	affiliate.Status = req.Status
	if err := database.DB.Save(&affiliate).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update affiliate status"})
	}

	return c.JSON(fiber.Map{"message": "Affiliate status updated successfully", "affiliate": affiliate})
}

// MarkAffiliatePaid settles the one-time membership fee, which unlocks tier
// progression from the next qualifying order onward.
func MarkAffiliatePaid(c *fiber.Ctx) error {
	affiliateID := c.Params("affiliateId")

	var affiliate models.Affiliate
	if err := database.DB.Where("id = ?", affiliateID).First(&affiliate).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Affiliate not found"})
	}
	if affiliate.IsPaid {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Membership fee already settled"})
	}

	now := time.Now()
	err := database.DB.Model(&models.Affiliate{}).Where("id = ?", affiliate.ID).
		Updates(map[string]interface{}{
			"is_paid":           true,
			"paid_at":           now,
			"orders_since_paid": 0,
		}).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update affiliate"})
	}

	return c.JSON(fiber.Map{"message": "Membership fee marked as settled."})
}

func GetCommissionConfig(c *fiber.Ctx) error {
	cfg, err := services.LatestCommissionConfig(database.DB)
	if err != nil {
		if errors.Is(err, services.ErrInvalidConfig) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "No commission config found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}
	return c.JSON(cfg)
}

func ListCommissionConfigHistory(c *fiber.Ctx) error {
	var configs []models.CommissionConfig
	if err := database.DB.Order("version desc").Find(&configs).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}
	return c.JSON(configs)
}

type CommissionConfigRequest struct {
	Level1Split float64 `json:"level1_split" validate:"gte=0,lte=100"`
	Level2Split float64 `json:"level2_split" validate:"gte=0,lte=100"`
	Level3Split float64 `json:"level3_split" validate:"gte=0,lte=100"`
}

func UpdateCommissionConfig(c *fiber.Ctx) error {
	var req CommissionConfigRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var cfg *models.CommissionConfig
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		cfg, err = services.SaveCommissionConfig(tx, req.Level1Split, req.Level2Split, req.Level3Split)
		return err
	})
	if err != nil {
		if errors.Is(err, services.ErrInvalidConfig) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Split percentages would exceed 100% of order value"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to save commission config"})
	}

	return c.Status(fiber.StatusCreated).JSON(cfg)
}

func ListTransactions(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	offset := (page - 1) * limit

	query := database.DB.Model(&models.CommissionTransaction{})
	countQuery := database.DB.Model(&models.CommissionTransaction{})

	if affiliateID := c.Query("affiliate_id"); affiliateID != "" {
		query = query.Where("affiliate_id = ?", affiliateID)
		countQuery = countQuery.Where("affiliate_id = ?", affiliateID)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
		countQuery = countQuery.Where("status = ?", status)
	}
	if txnType := c.Query("type"); txnType != "" {
		query = query.Where("type = ?", txnType)
		countQuery = countQuery.Where("type = ?", txnType)
	}

	var total int64
	countQuery.Count(&total)

	var transactions []models.CommissionTransaction
	query.Order("created_at desc").Offset(offset).Limit(limit).Find(&transactions)

	return c.JSON(fiber.Map{
		"data": transactions,
		"meta": fiber.Map{
			"total_transactions": total,
			"total_pages":        int(math.Ceil(float64(total) / float64(limit))),
			"current_page":       page,
		},
	})
}

// ConfirmTransaction settles a pending credit early, e.g. when the return
// window for the underlying order has closed ahead of the sweep.
func ConfirmTransaction(c *fiber.Ctx) error {
	txnID, err := uuid.Parse(c.Params("transactionId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid transaction id"})
	}

	if err := services.ConfirmTransaction(txnID); err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Transaction not found"})
		case errors.Is(err, services.ErrAlreadyProcessed):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Transaction is not pending"})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to confirm transaction"})
		}
	}

	return c.JSON(fiber.Map{"message": "Transaction confirmed."})
}

type ReverseTransactionRequest struct {
	Note string `json:"note" validate:"required,min=3"`
}

func ReverseTransaction(c *fiber.Ctx) error {
	txnID, err := uuid.Parse(c.Params("transactionId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid transaction id"})
	}

	var req ReverseTransactionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	adjustment, err := services.ReverseTransaction(txnID, req.Note)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Transaction not found"})
		case errors.Is(err, services.ErrAlreadyProcessed):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Only pending credits can be reversed"})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to reverse transaction"})
		}
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Transaction reversed.", "adjustment": adjustment})
}

func GetDashboardAnalytics(c *fiber.Ctx) error {
	var totalAffiliates, pendingAffiliates, pendingPayouts int64
	database.DB.Model(&models.Affiliate{}).Count(&totalAffiliates)
	database.DB.Model(&models.Affiliate{}).Where("status = ?", models.AffiliateStatusPending).Count(&pendingAffiliates)
	database.DB.Model(&models.PayoutRequest{}).Where("status = ?", models.PayoutStatusPending).Count(&pendingPayouts)

	type balanceTotals struct {
		Pending   float64
		Available float64
		Paid      float64
		Earnings  float64
	}
	var totals balanceTotals
	database.DB.Model(&models.Affiliate{}).
		Select("COALESCE(SUM(pending_balance),0) as pending, COALESCE(SUM(available_balance),0) as available, COALESCE(SUM(paid_balance),0) as paid, COALESCE(SUM(total_earnings),0) as earnings").
		Scan(&totals)

	return c.JSON(fiber.Map{
		"total_affiliates":   totalAffiliates,
		"pending_affiliates": pendingAffiliates,
		"pending_payouts":    pendingPayouts,
		"balances": fiber.Map{
			"pending":        totals.Pending,
			"available":      totals.Available,
			"paid":           totals.Paid,
			"total_earnings": totals.Earnings,
		},
		"tiers": services.TierTable(),
	})
}
