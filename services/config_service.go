package services

import (
	"errors"

	"github.com/snackcart/affiliate_engine/models"
	"gorm.io/gorm"
)

// LatestCommissionConfig returns the newest config version. Commission
// computations call this once per order and stick with the snapshot.
func LatestCommissionConfig(tx *gorm.DB) (*models.CommissionConfig, error) {
	var cfg models.CommissionConfig
	if err := tx.Order("version desc").First(&cfg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidConfig
		}
		return nil, err
	}
	return &cfg, nil
}

// ValidateSplits rejects split percentages that could pay out more than the
// order is worth: every split must be non-negative and the worst case
// (highest tier direct rate plus all level splits) must stay within 100%.
func ValidateSplits(level1, level2, level3 float64) error {
	if level1 < 0 || level2 < 0 || level3 < 0 {
		return ErrInvalidConfig
	}
	if MaxTierRate()+level1+level2+level3 > 100 {
		return ErrInvalidConfig
	}
	return nil
}

// SaveCommissionConfig validates and inserts the next config version.
func SaveCommissionConfig(tx *gorm.DB, level1, level2, level3 float64) (*models.CommissionConfig, error) {
	if err := ValidateSplits(level1, level2, level3); err != nil {
		return nil, err
	}

	version := 1
	if current, err := LatestCommissionConfig(tx); err == nil {
		version = current.Version + 1
	} else if !errors.Is(err, ErrInvalidConfig) {
		return nil, err
	}

	cfg := models.CommissionConfig{
		Version:     version,
		Level1Split: level1,
		Level2Split: level2,
		Level3Split: level3,
	}
	if err := tx.Create(&cfg).Error; err != nil {
		return nil, err
	}
	return &cfg, nil
}
