package services

import (
	"github.com/snackcart/affiliate_engine/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Balance mutations are single guarded UPDATE statements so two orders
// crediting the same upline concurrently can never lose an update, and no
// balance can be driven below zero.

func earningsColumn(txnType string) string {
	switch txnType {
	case models.TxnTypeDirect:
		return "direct_earnings"
	case models.TxnTypeLevel1:
		return "level1_earnings"
	case models.TxnTypeLevel2:
		return "level2_earnings"
	case models.TxnTypeLevel3:
		return "level3_earnings"
	}
	return ""
}

// CreditPending adds a freshly earned commission to the affiliate's pending
// balance, the per-level earnings bucket and the running total.
func CreditPending(tx *gorm.DB, affiliateID uuid.UUID, amount float64, txnType string) error {
	col := earningsColumn(txnType)
	if col == "" || amount <= 0 {
		return ErrInvalidConfig
	}
	return tx.Model(&models.Affiliate{}).Where("id = ?", affiliateID).
		Updates(map[string]interface{}{
			"pending_balance": gorm.Expr("pending_balance + ?", amount),
			"total_earnings":  gorm.Expr("total_earnings + ?", amount),
			col:               gorm.Expr(col+" + ?", amount),
		}).Error
}

// ReversePending backs a still-pending credit out of the pending balance and
// its earnings buckets. Guarded so a double reversal cannot go negative.
func ReversePending(tx *gorm.DB, affiliateID uuid.UUID, amount float64, txnType string) error {
	col := earningsColumn(txnType)
	if col == "" || amount <= 0 {
		return ErrInvalidConfig
	}
	res := tx.Model(&models.Affiliate{}).
		Where("id = ? AND pending_balance >= ?", affiliateID, amount).
		Updates(map[string]interface{}{
			"pending_balance": gorm.Expr("pending_balance - ?", amount),
			"total_earnings":  gorm.Expr("total_earnings - ?", amount),
			col:               gorm.Expr(col+" - ?", amount),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInsufficientBalance
	}
	return nil
}

// MaturePending moves earned funds into the withdrawable balance once the
// hold window has closed (or an admin confirms early).
func MaturePending(tx *gorm.DB, affiliateID uuid.UUID, amount float64) error {
	res := tx.Model(&models.Affiliate{}).
		Where("id = ? AND pending_balance >= ?", affiliateID, amount).
		Updates(map[string]interface{}{
			"pending_balance":   gorm.Expr("pending_balance - ?", amount),
			"available_balance": gorm.Expr("available_balance + ?", amount),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInsufficientBalance
	}
	return nil
}

// DebitAvailableToPaid settles a payout: drains the withdrawable balance and
// records it as historically withdrawn, in one statement.
func DebitAvailableToPaid(tx *gorm.DB, affiliateID uuid.UUID, amount float64) error {
	res := tx.Model(&models.Affiliate{}).
		Where("id = ? AND available_balance >= ?", affiliateID, amount).
		Updates(map[string]interface{}{
			"available_balance": gorm.Expr("available_balance - ?", amount),
			"paid_balance":      gorm.Expr("paid_balance + ?", amount),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInsufficientBalance
	}
	return nil
}
