package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	AffiliateStatusPending  = "pending"
	AffiliateStatusApproved = "approved"
	AffiliateStatusRejected = "rejected"
)

const (
	PositionLeft  = "left"
	PositionRight = "right"
)

// Affiliate is stored as a flat row; ParentID/Position describe where the
// affiliate sits in the placement tree, ReferrerID records who actually
// invited them. The two diverge once spillover placement happens.
type Affiliate struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	FullName   string    `gorm:"size:255;not null" json:"full_name"`
	Mobile     string    `gorm:"size:15;not null;unique" json:"mobile"`
	UpiID      string    `gorm:"size:100" json:"upi_id"`
	CouponCode string    `gorm:"size:10;not null;uniqueIndex" json:"coupon_code"`

	ParentID   *uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_parent_position" json:"parent_id"`
	Position   *string    `gorm:"size:10;uniqueIndex:idx_parent_position" json:"position"`
	ReferrerID *uuid.UUID `gorm:"type:uuid;index" json:"referrer_id"`

	Status   string     `gorm:"size:20;not null;default:'pending'" json:"status"`
	IsActive bool       `gorm:"default:true" json:"is_active"`
	IsPaid   bool       `gorm:"default:false" json:"is_paid"`
	PaidAt   *time.Time `json:"paid_at"`

	TotalOrders      int     `gorm:"default:0" json:"total_orders"`
	TotalSalesAmount float64 `gorm:"type:numeric(12,2);default:0.00" json:"total_sales_amount"`
	OrdersSincePaid  int     `gorm:"default:0" json:"orders_since_paid"`

	TotalEarnings  float64 `gorm:"type:numeric(12,2);default:0.00" json:"total_earnings"`
	DirectEarnings float64 `gorm:"type:numeric(12,2);default:0.00" json:"direct_earnings"`
	Level1Earnings float64 `gorm:"type:numeric(12,2);default:0.00" json:"level1_earnings"`
	Level2Earnings float64 `gorm:"type:numeric(12,2);default:0.00" json:"level2_earnings"`
	Level3Earnings float64 `gorm:"type:numeric(12,2);default:0.00" json:"level3_earnings"`

	PendingBalance   float64 `gorm:"type:numeric(12,2);default:0.00" json:"pending_balance"`
	AvailableBalance float64 `gorm:"type:numeric(12,2);default:0.00" json:"available_balance"`
	PaidBalance      float64 `gorm:"type:numeric(12,2);default:0.00" json:"paid_balance"`

	CurrentTier string `gorm:"size:20;not null;default:'newbie'" json:"current_tier"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (a *Affiliate) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
