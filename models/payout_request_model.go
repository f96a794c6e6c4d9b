package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	PayoutStatusPending  = "pending"
	PayoutStatusRejected = "rejected"
	PayoutStatusPaid     = "paid"
)

type PayoutRequest struct {
	ID          uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	AffiliateID uuid.UUID  `gorm:"type:uuid;not null;index" json:"affiliate_id"`
	Amount      float64    `gorm:"type:numeric(12,2);not null" json:"amount"`
	UpiID       string     `gorm:"size:100;not null" json:"upi_id"`
	Status      string     `gorm:"size:20;not null;default:'pending'" json:"status"`
	AdminNotes  *string    `gorm:"type:text" json:"admin_notes"`
	RequestedAt time.Time  `gorm:"not null" json:"requested_at"`
	ProcessedAt *time.Time `json:"processed_at"`

	Affiliate Affiliate `gorm:"foreignkey:AffiliateID" json:"-"`
}

func (p *PayoutRequest) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
