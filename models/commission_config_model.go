package models

import (
	"time"
)

// CommissionConfig rows are versioned: admin updates insert a new row and
// readers take the highest version. A single commission computation reads
// one row and sticks with it, so the split percentages can never drift
// mid-calculation.
type CommissionConfig struct {
	ID          uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	Version     int     `gorm:"not null;uniqueIndex" json:"version"`
	Level1Split float64 `gorm:"type:numeric(5,2);not null" json:"level1_split"`
	Level2Split float64 `gorm:"type:numeric(5,2);not null" json:"level2_split"`
	Level3Split float64 `gorm:"type:numeric(5,2);not null" json:"level3_split"`

	CreatedAt time.Time `json:"created_at"`
}

// LevelSplit returns the split percentage for ancestor level 1..3.
func (c *CommissionConfig) LevelSplit(level int) float64 {
	switch level {
	case 1:
		return c.Level1Split
	case 2:
		return c.Level2Split
	case 3:
		return c.Level3Split
	}
	return 0
}
