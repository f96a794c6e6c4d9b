package database

import (
	"fmt"
	"log"

	config "github.com/snackcart/affiliate_engine/configs"
	"github.com/snackcart/affiliate_engine/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func ConnectDB() {
	var err error
	dsn := config.Config("DATABASE_URL")

	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		PrepareStmt:                              false,
		SkipDefaultTransaction:                   true,
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
	})
	if err != nil {
		log.Fatalf("🔥 Failed to connect to database: %v", err)
	}

	fmt.Println("✅ Database connected successfully")
}

func Migrate() {
	err := DB.AutoMigrate(
		&models.User{},
		&models.Affiliate{},
		&models.CommissionConfig{},
		&models.CommissionTransaction{},
		&models.PayoutRequest{},
	)
	if err != nil {
		log.Fatalf("🔥 Failed to migrate database: %v", err)
	}
	fmt.Println("✅ Database migration successful")
}

func SeedAdmin() {
	adminEmail := config.Config("ADMIN_EMAIL")
	adminPassword := config.Config("ADMIN_PASSWORD")

	var count int64
	err := DB.Model(&models.User{}).Where("email = ?", adminEmail).Count(&count).Error
	if err != nil {
		log.Fatalf("🔥 Failed to check for admin user: %v", err)
		return
	}

	if count > 0 {
		log.Println("Admin user already exists.")
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("🔥 Failed to hash admin password: %v", err)
		return
	}

	adminUser := models.User{
		FullName: config.Config("ADMIN_FULL_NAME"),
		Email:    adminEmail,
		Password: string(hashedPassword),
		Role:     "admin",
	}

	if err := DB.Create(&adminUser).Error; err != nil {
		log.Fatalf("🔥 Failed to seed admin user: %v", err)
		return
	}

	log.Println("✅ Admin user seeded successfully")
}

// SeedCommissionConfig inserts version 1 of the level splits when the table
// is empty so order processing never runs without a config snapshot.
func SeedCommissionConfig() {
	var count int64
	if err := DB.Model(&models.CommissionConfig{}).Count(&count).Error; err != nil {
		log.Fatalf("🔥 Failed to check commission config: %v", err)
		return
	}
	if count > 0 {
		return
	}

	cfg := models.CommissionConfig{
		Version:     1,
		Level1Split: 10,
		Level2Split: 5,
		Level3Split: 2,
	}
	if err := DB.Create(&cfg).Error; err != nil {
		log.Fatalf("🔥 Failed to seed commission config: %v", err)
		return
	}
	log.Println("✅ Default commission config seeded")
}
