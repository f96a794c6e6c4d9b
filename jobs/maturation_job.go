package jobs

import (
	"log"
	"time"

	"github.com/snackcart/affiliate_engine/database"
	"github.com/snackcart/affiliate_engine/models"
	"github.com/snackcart/affiliate_engine/services"
)

const maturationBatchSize = 500

// MaturePendingCommissions confirms every pending credit whose hold window
// has closed and moves the money into the withdrawable balance. Each row is
// settled in its own transaction, so one bad row can't stall the sweep.
func MaturePendingCommissions() {
	var due []models.CommissionTransaction
	err := database.DB.
		Where("status = ? AND mature_at IS NOT NULL AND mature_at <= ?", models.TxnStatusPending, time.Now()).
		Where("type IN ?", []string{models.TxnTypeDirect, models.TxnTypeLevel1, models.TxnTypeLevel2, models.TxnTypeLevel3}).
		Order("mature_at asc").Limit(maturationBatchSize).
		Find(&due).Error
	if err != nil {
		log.Printf("🔥 Maturation sweep query failed: %v", err)
		return
	}

	if len(due) == 0 {
		return
	}

	confirmed := 0
	for _, txn := range due {
		if err := services.ConfirmTransaction(txn.ID); err != nil {
			if err == services.ErrAlreadyProcessed {
				continue
			}
			log.Printf("🔥 Failed to mature transaction %s: %v", txn.ID, err)
			continue
		}
		confirmed++
	}

	log.Printf("Maturation sweep confirmed %d of %d due transactions", confirmed, len(due))
}
