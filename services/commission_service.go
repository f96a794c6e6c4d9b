package services

import (
	"errors"
	"strconv"
	"time"

	config "github.com/snackcart/affiliate_engine/configs"
	"github.com/snackcart/affiliate_engine/database"
	"github.com/snackcart/affiliate_engine/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const defaultHoldDays = 7

// holdWindow is how long a fresh credit stays pending before the maturation
// sweep makes it withdrawable; tracks the store's order-return window.
func holdWindow() time.Duration {
	if v := config.Config("COMMISSION_HOLD_DAYS"); v != "" {
		if days, err := strconv.Atoi(v); err == nil && days >= 0 {
			return time.Duration(days) * 24 * time.Hour
		}
	}
	return defaultHoldDays * 24 * time.Hour
}

// percentOf computes amount * pct / 100 rounded to paise, through decimal so
// repeated float multiplication can't drift the ledger.
func percentOf(amount, pct float64) float64 {
	return decimal.NewFromFloat(amount).
		Mul(decimal.NewFromFloat(pct)).
		Div(decimal.NewFromInt(100)).
		Round(2).InexactFloat64()
}

// ApplyOrder credits every affiliate owed a cut of a completed order, as one
// atomic unit: the direct credit for the coupon owner plus up to three flat
// level credits walking up the tree. Re-invoking with an orderID that was
// already processed returns ErrDuplicateOrder and changes nothing.
//
// A nil, nil return means the coupon belongs to no earning affiliate and the
// sale is an ordinary one.
func ApplyOrder(orderID string, couponCode string, netAmount float64) ([]models.CommissionTransaction, error) {
	if netAmount <= 0 {
		return nil, errors.New("net amount must be positive")
	}

	var created []models.CommissionTransaction
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var seen int64
		if err := tx.Model(&models.CommissionTransaction{}).
			Where("order_id = ? AND type = ?", orderID, models.TxnTypeDirect).
			Count(&seen).Error; err != nil {
			return err
		}
		if seen > 0 {
			return ErrDuplicateOrder
		}

		var owner models.Affiliate
		err := tx.Where("coupon_code = ? AND status = ? AND is_active = ?",
			couponCode, models.AffiliateStatusApproved, true).First(&owner).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil // ordinary sale, nothing to credit
			}
			return err
		}

		cfg, err := LatestCommissionConfig(tx)
		if err != nil {
			return err
		}

		now := time.Now()
		matureAt := now.Add(holdWindow())
		oid := orderID

		// The direct row is written even for a zero rounding so the replay
		// check above always has a row to anchor on.
		tier := TierFor(owner.IsPaid, owner.OrdersSincePaid)
		directAmt := percentOf(netAmount, tier.Rate)
		txn := models.CommissionTransaction{
			AffiliateID:   owner.ID,
			OrderID:       &oid,
			Type:          models.TxnTypeDirect,
			Amount:        directAmt,
			Rate:          tier.Rate,
			ConfigVersion: cfg.Version,
			Status:        models.TxnStatusPending,
			MatureAt:      &matureAt,
		}
		if err := tx.Create(&txn).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicateOrder
			}
			return err
		}
		if directAmt > 0 {
			if err := CreditPending(tx, owner.ID, directAmt, models.TxnTypeDirect); err != nil {
				return err
			}
		}
		created = append(created, txn)

		ancestors, err := Ancestors(tx, owner.ID, MaxCommissionDepth)
		if err != nil {
			// A corrupt chain aborts the whole credit set; a partial
			// commission tree must never persist.
			return err
		}

		levelTypes := []string{models.TxnTypeLevel1, models.TxnTypeLevel2, models.TxnTypeLevel3}
		for i, ancestor := range ancestors {
			split := cfg.LevelSplit(i + 1)
			amount := percentOf(netAmount, split)
			if amount <= 0 {
				continue
			}
			if ancestor.Status != models.AffiliateStatusApproved || !ancestor.IsActive {
				continue
			}
			fromID := owner.ID
			txn := models.CommissionTransaction{
				AffiliateID:     ancestor.ID,
				OrderID:         &oid,
				FromAffiliateID: &fromID,
				Type:            levelTypes[i],
				Amount:          amount,
				Rate:            split,
				ConfigVersion:   cfg.Version,
				Status:          models.TxnStatusPending,
				MatureAt:        &matureAt,
			}
			if err := tx.Create(&txn).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return ErrDuplicateOrder
				}
				return err
			}
			if err := CreditPending(tx, ancestor.ID, amount, levelTypes[i]); err != nil {
				return err
			}
			created = append(created, txn)
		}

		// Only the coupon owner's qualifying-order window moves; the sale
		// is not the upline's.
		return bumpOwnerCounters(tx, owner, netAmount)
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// bumpOwnerCounters advances the coupon owner's order counters and caches
// the recomputed tier. The UPDATE is guarded on the counter value that the
// tier was derived from, so a concurrent order can never pair a stale tier
// with a newer counter; on a miss the row is re-read and the write retried.
func bumpOwnerCounters(tx *gorm.DB, owner models.Affiliate, netAmount float64) error {
	for attempt := 0; attempt < 3; attempt++ {
		newTier := TierFor(owner.IsPaid, owner.OrdersSincePaid+1)
		res := tx.Model(&models.Affiliate{}).
			Where("id = ? AND orders_since_paid = ?", owner.ID, owner.OrdersSincePaid).
			Updates(map[string]interface{}{
				"total_orders":       gorm.Expr("total_orders + 1"),
				"total_sales_amount": gorm.Expr("total_sales_amount + ?", netAmount),
				"orders_since_paid":  owner.OrdersSincePaid + 1,
				"current_tier":       newTier.Name,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return nil
		}
		if err := tx.First(&owner, "id = ?", owner.ID).Error; err != nil {
			return err
		}
	}
	return errors.New("owner counters kept changing underneath the update")
}

// ConfirmTransaction settles a single pending commission credit: the row
// flips to confirmed and the amount moves pending -> available. Safe to call
// twice; the second call reports ErrAlreadyProcessed.
func ConfirmTransaction(txnID uuid.UUID) error {
	return database.DB.Transaction(func(tx *gorm.DB) error {
		var txn models.CommissionTransaction
		if err := tx.First(&txn, "id = ?", txnID).Error; err != nil {
			return err
		}
		if earningsColumn(txn.Type) == "" {
			return ErrAlreadyProcessed
		}

		now := time.Now()
		res := tx.Model(&models.CommissionTransaction{}).
			Where("id = ? AND status = ?", txnID, models.TxnStatusPending).
			Updates(map[string]interface{}{
				"status":       models.TxnStatusConfirmed,
				"confirmed_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrAlreadyProcessed
		}

		return MaturePending(tx, txn.AffiliateID, txn.Amount)
	})
}

// ReverseTransaction compensates a still-pending credit whose order came
// back. The original row is marked reversed and a confirmed adjustment row
// with the negated amount is appended; confirmed credits are immutable and
// cannot be reversed here.
func ReverseTransaction(txnID uuid.UUID, note string) (*models.CommissionTransaction, error) {
	var adjustment models.CommissionTransaction
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var txn models.CommissionTransaction
		if err := tx.First(&txn, "id = ?", txnID).Error; err != nil {
			return err
		}
		if earningsColumn(txn.Type) == "" {
			return ErrAlreadyProcessed
		}

		res := tx.Model(&models.CommissionTransaction{}).
			Where("id = ? AND status = ?", txnID, models.TxnStatusPending).
			Update("status", models.TxnStatusReversed)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrAlreadyProcessed
		}

		if err := ReversePending(tx, txn.AffiliateID, txn.Amount, txn.Type); err != nil {
			return err
		}

		adjustment = models.CommissionTransaction{
			AffiliateID:     txn.AffiliateID,
			OrderID:         txn.OrderID,
			FromAffiliateID: txn.FromAffiliateID,
			Type:            models.TxnTypeAdjustment,
			Amount:          -txn.Amount,
			ConfigVersion:   txn.ConfigVersion,
			Status:          models.TxnStatusConfirmed,
			Note:            &note,
		}
		return tx.Create(&adjustment).Error
	})
	if err != nil {
		return nil, err
	}
	return &adjustment, nil
}
