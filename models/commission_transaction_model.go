package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	TxnTypeDirect     = "direct"
	TxnTypeLevel1     = "level1"
	TxnTypeLevel2     = "level2"
	TxnTypeLevel3     = "level3"
	TxnTypePayout     = "payout"
	TxnTypeAdjustment = "adjustment"
)

const (
	TxnStatusPending   = "pending"
	TxnStatusConfirmed = "confirmed"
	TxnStatusReversed  = "reversed"
)

// CommissionTransaction is an append-only ledger row. Confirmed rows are
// never edited; undoing a credit writes a compensating adjustment row.
// The uniqueIndex on (order_id, affiliate_id, type) guards against the same
// order crediting the same affiliate twice at the same level.
type CommissionTransaction struct {
	ID              uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	AffiliateID     uuid.UUID  `gorm:"type:uuid;not null;index;uniqueIndex:idx_order_affiliate_type" json:"affiliate_id"`
	OrderID         *string    `gorm:"size:64;uniqueIndex:idx_order_affiliate_type" json:"order_id"`
	FromAffiliateID *uuid.UUID `gorm:"type:uuid" json:"from_affiliate_id"`
	Type            string     `gorm:"size:20;not null;uniqueIndex:idx_order_affiliate_type" json:"type"`
	Amount          float64    `gorm:"type:numeric(12,2);not null" json:"amount"`
	Rate            float64    `gorm:"type:numeric(5,2)" json:"rate"`
	ConfigVersion   int        `gorm:"default:0" json:"config_version"`
	Status          string     `gorm:"size:20;not null;default:'pending'" json:"status"`
	Note            *string    `gorm:"type:text" json:"note"`
	MatureAt        *time.Time `gorm:"index" json:"mature_at"`
	ConfirmedAt     *time.Time `json:"confirmed_at"`

	Affiliate Affiliate `gorm:"foreignkey:AffiliateID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
}

func (t *CommissionTransaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
