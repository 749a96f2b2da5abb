package main

import (
	"time"

	"github.com/promostreet/internal/config"
	"github.com/promostreet/internal/constants"
	"github.com/promostreet/internal/logger"
	"github.com/promostreet/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	// 演示账号统一密码
	passwordHash, err := bcrypt.GenerateFromPassword([]byte("demo1234"), bcrypt.DefaultCost)
	if err != nil {
		stdLog.Fatalf("Failed to hash demo password: %v", err)
	}

	// 添加演示零售商
	users := []models.User{
		{
			Email:        "cafe@demo.promostreet.test",
			PasswordHash: string(passwordHash),
			BusinessName: "晨光咖啡",
			ReferralCode: "CAFE01",
			Status:       constants.UserStatusActive,
		},
		{
			Email:        "gym@demo.promostreet.test",
			PasswordHash: string(passwordHash),
			BusinessName: "力量健身房",
			ReferralCode: "GYM001",
			Status:       constants.UserStatusActive,
		},
		{
			Email:        "florist@demo.promostreet.test",
			PasswordHash: string(passwordHash),
			BusinessName: "花间小铺",
			ReferralCode: "FLWR01",
			Status:       constants.UserStatusActive,
		},
	}

	userIDs := map[string]uint{}
	for _, user := range users {
		var existing models.User
		if err := models.DB.Where("email = ?", user.Email).First(&existing).Error; err != nil {
			// 不存在则创建
			if err := models.DB.Create(&user).Error; err != nil {
				stdLog.Printf("Failed to create user %s: %v", user.Email, err)
				continue
			}
			stdLog.Printf("Created user: %s", user.Email)
			userIDs[user.Email] = user.ID
		} else {
			stdLog.Printf("User already exists: %s", existing.Email)
			userIDs[existing.Email] = existing.ID
		}
	}

	cafeID := userIDs["cafe@demo.promostreet.test"]
	gymID := userIDs["gym@demo.promostreet.test"]
	floristID := userIDs["florist@demo.promostreet.test"]

	// 添加演示门店
	locations := []models.Location{
		{
			UserID:          cafeID,
			Name:            "晨光咖啡·中山路店",
			Address:         "中山路 88 号",
			Latitude:        31.2304,
			Longitude:       121.4737,
			ChannelCategory: constants.ChannelCategoryRestaurant,
		},
		{
			UserID:          gymID,
			Name:            "力量健身房·滨江店",
			Address:         "滨江大道 16 号",
			Latitude:        31.2289,
			Longitude:       121.5015,
			ChannelCategory: constants.ChannelCategoryFitness,
		},
		{
			UserID:          floristID,
			Name:            "花间小铺·人民广场店",
			Address:         "人民大道 120 号",
			Latitude:        31.2317,
			Longitude:       121.4692,
			ChannelCategory: constants.ChannelCategoryRetail,
			OpenOfferOnly:   true,
		},
	}

	locationIDs := map[string]uint{}
	for _, loc := range locations {
		if loc.UserID == 0 {
			continue
		}
		var existing models.Location
		if err := models.DB.Where("user_id = ? AND name = ?", loc.UserID, loc.Name).First(&existing).Error; err != nil {
			if err := models.DB.Create(&loc).Error; err != nil {
				stdLog.Printf("Failed to create location %s: %v", loc.Name, err)
				continue
			}
			stdLog.Printf("Created location: %s", loc.Name)
			locationIDs[loc.Name] = loc.ID
		} else {
			stdLog.Printf("Location already exists: %s", existing.Name)
			locationIDs[existing.Name] = existing.ID
		}
	}

	// 添加演示报价
	offers := []models.Offer{
		{
			UserID:       cafeID,
			LocationID:   locationIDs["晨光咖啡·中山路店"],
			CallToAction: "凭码到店美式咖啡买一送一",
			CodePrefix:   "CAFE",
			IsActive:     true,
		},
		{
			UserID:       gymID,
			LocationID:   locationIDs["力量健身房·滨江店"],
			CallToAction: "凭码免费体验一次团课",
			CodePrefix:   "GYM",
			IsActive:     true,
		},
		{
			UserID:       floristID,
			LocationID:   locationIDs["花间小铺·人民广场店"],
			CallToAction: "凭码任意花束九折",
			CodePrefix:   "FLWR",
			IsActive:     true,
			IsOpenOffer:  true,
		},
	}

	for _, offer := range offers {
		if offer.UserID == 0 || offer.LocationID == 0 {
			continue
		}
		var existing models.Offer
		if err := models.DB.Where("location_id = ? AND is_open_offer = ?", offer.LocationID, offer.IsOpenOffer).First(&existing).Error; err != nil {
			if err := models.DB.Create(&offer).Error; err != nil {
				stdLog.Printf("Failed to create offer for location %d: %v", offer.LocationID, err)
			} else {
				stdLog.Printf("Created offer: %s", offer.CallToAction)
			}
		} else {
			stdLog.Printf("Offer already exists for location %d", existing.LocationID)
		}
	}

	// 添加演示促销码
	promoExpiry := time.Now().AddDate(0, 3, 0)
	promoCodes := []models.PromoCode{
		{
			Code:        "WELCOME2026",
			Status:      constants.PromoCodeStatusActive,
			CreditValue: models.NewMoneyFromDecimal(decimal.Zero),
			UsageLimit:  100,
			ExpiresAt:   &promoExpiry,
		},
		{
			Code:        "STREETCREDIT10",
			Status:      constants.PromoCodeStatusActive,
			CreditValue: models.NewMoneyFromDecimal(decimal.NewFromInt(10)),
			UsageLimit:  50,
			ExpiresAt:   &promoExpiry,
		},
	}

	for _, promo := range promoCodes {
		var existing models.PromoCode
		if err := models.DB.Where("code = ?", promo.Code).First(&existing).Error; err != nil {
			if err := models.DB.Create(&promo).Error; err != nil {
				stdLog.Printf("Failed to create promo code %s: %v", promo.Code, err)
			} else {
				stdLog.Printf("Created promo code: %s", promo.Code)
			}
		} else {
			stdLog.Printf("Promo code already exists: %s", existing.Code)
		}
	}

	stdLog.Println("Seed completed")
}
