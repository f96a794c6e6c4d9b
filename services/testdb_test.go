package services

import (
	"fmt"
	"testing"

	"github.com/snackcart/affiliate_engine/database"
	"github.com/snackcart/affiliate_engine/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Affiliate{},
		&models.CommissionConfig{},
		&models.CommissionTransaction{},
		&models.PayoutRequest{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	database.DB = db
	return db
}

func seedConfig(t *testing.T, db *gorm.DB, l1, l2, l3 float64) models.CommissionConfig {
	t.Helper()
	cfg := models.CommissionConfig{Version: 1, Level1Split: l1, Level2Split: l2, Level3Split: l3}
	if err := db.Create(&cfg).Error; err != nil {
		t.Fatalf("failed to seed commission config: %v", err)
	}
	return cfg
}

var affiliateSeq int

func createAffiliate(t *testing.T, db *gorm.DB, name string, paid bool) *models.Affiliate {
	t.Helper()
	affiliateSeq++
	a := &models.Affiliate{
		FullName:    name,
		Mobile:      fmt.Sprintf("99000%05d", affiliateSeq),
		UpiID:       name + "@upi",
		CouponCode:  fmt.Sprintf("SNACK%03d", affiliateSeq),
		Status:      models.AffiliateStatusApproved,
		IsActive:    true,
		IsPaid:      paid,
		CurrentTier: "newbie",
	}
	if err := db.Create(a).Error; err != nil {
		t.Fatalf("failed to create affiliate %s: %v", name, err)
	}
	return a
}

func linkChild(t *testing.T, db *gorm.DB, child, parent *models.Affiliate, position string, referrer *models.Affiliate) {
	t.Helper()
	refID := parent.ID
	if referrer != nil {
		refID = referrer.ID
	}
	err := db.Model(&models.Affiliate{}).Where("id = ?", child.ID).
		Updates(map[string]interface{}{
			"parent_id":   parent.ID,
			"position":    position,
			"referrer_id": refID,
		}).Error
	if err != nil {
		t.Fatalf("failed to link %s under %s: %v", child.FullName, parent.FullName, err)
	}
	child.ParentID = &parent.ID
	child.Position = &position
	child.ReferrerID = &refID
}

func reloadAffiliate(t *testing.T, db *gorm.DB, a *models.Affiliate) models.Affiliate {
	t.Helper()
	var fresh models.Affiliate
	if err := db.First(&fresh, "id = ?", a.ID).Error; err != nil {
		t.Fatalf("failed to reload affiliate %s: %v", a.FullName, err)
	}
	return fresh
}
