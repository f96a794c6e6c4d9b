package utils

import (
	"math/rand"
	"time"

	"github.com/snackcart/affiliate_engine/models"
	"gorm.io/gorm"
)

const couponCodeLength = 8
const letterBytes = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func GenerateUniqueCouponCode(tx *gorm.DB) (string, error) {
	seededRand := rand.New(rand.NewSource(time.Now().UnixNano()))

	for {
		b := make([]byte, couponCodeLength)
		for i := range b {
			b[i] = letterBytes[seededRand.Intn(len(letterBytes))]
		}
		code := string(b)

		var affiliate models.Affiliate
		err := tx.Where("coupon_code = ?", code).First(&affiliate).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return code, nil
			}
			return "", err
		}
	}
}
