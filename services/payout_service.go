package services

import (
	"errors"
	"time"

	"github.com/snackcart/affiliate_engine/database"
	"github.com/snackcart/affiliate_engine/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	PayoutDecisionApprove = "approve"
	PayoutDecisionReject  = "reject"
)

// RequestPayout records a withdrawal request. The available balance is only
// checked here, not debited; the debit happens at approval time, where the
// balance is re-checked because it can change in between.
func RequestPayout(affiliateID uuid.UUID, amount float64, upiID string) (*models.PayoutRequest, error) {
	if amount <= 0 {
		return nil, ErrInsufficientBalance
	}

	var request models.PayoutRequest
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var affiliate models.Affiliate
		if err := tx.First(&affiliate, "id = ?", affiliateID).Error; err != nil {
			return err
		}
		if affiliate.Status != models.AffiliateStatusApproved {
			return errors.New("affiliate is not approved")
		}
		if amount > affiliate.AvailableBalance {
			return ErrInsufficientBalance
		}

		request = models.PayoutRequest{
			AffiliateID: affiliateID,
			Amount:      amount,
			UpiID:       upiID,
			Status:      models.PayoutStatusPending,
			RequestedAt: time.Now(),
		}
		return tx.Create(&request).Error
	})
	if err != nil {
		return nil, err
	}
	return &request, nil
}

// ProcessPayout applies an admin decision. Approval drains available into
// paid, writes a confirmed payout ledger row and marks the request paid;
// rejection leaves every balance untouched. The pending-status guard makes a
// retried recording step a no-op rather than a double debit.
func ProcessPayout(requestID uuid.UUID, decision string, note string) (*models.PayoutRequest, error) {
	var request models.PayoutRequest
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&request, "id = ?", requestID).Error; err != nil {
			return err
		}

		newStatus := models.PayoutStatusRejected
		if decision == PayoutDecisionApprove {
			newStatus = models.PayoutStatusPaid
		}

		now := time.Now()
		res := tx.Model(&models.PayoutRequest{}).
			Where("id = ? AND status = ?", requestID, models.PayoutStatusPending).
			Updates(map[string]interface{}{
				"status":       newStatus,
				"admin_notes":  note,
				"processed_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrAlreadyProcessed
		}

		if decision != PayoutDecisionApprove {
			return nil
		}

		if err := DebitAvailableToPaid(tx, request.AffiliateID, request.Amount); err != nil {
			return err
		}

		txn := models.CommissionTransaction{
			AffiliateID: request.AffiliateID,
			Type:        models.TxnTypePayout,
			Amount:      request.Amount,
			Status:      models.TxnStatusConfirmed,
			Note:        &note,
		}
		return tx.Create(&txn).Error
	})
	if err != nil {
		return nil, err
	}

	if err := database.DB.First(&request, "id = ?", requestID).Error; err != nil {
		return nil, err
	}
	return &request, nil
}
