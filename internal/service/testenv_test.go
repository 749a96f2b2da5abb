package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/promostreet/internal/constants"
	"github.com/promostreet/internal/models"
	"github.com/promostreet/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// stubCollaborator 测试用支付协作方：可注入扣款结果
type stubCollaborator struct {
	hasDefault bool
	chargeErr  error
	charges    []decimal.Decimal
}

func (c *stubCollaborator) HasDefaultMethod(userID uint) (bool, error) {
	return c.hasDefault, nil
}

func (c *stubCollaborator) ChargeDefault(userID uint, amount decimal.Decimal, reference string) (string, error) {
	if c.chargeErr != nil {
		return "", c.chargeErr
	}
	if !c.hasDefault {
		return "", ErrPaymentMethodRequired
	}
	c.charges = append(c.charges, amount)
	return fmt.Sprintf("ch_test_%d", len(c.charges)), nil
}

type serviceTestEnv struct {
	db           *gorm.DB
	collaborator *stubCollaborator

	creditSvc       *CreditService
	billingSvc      *BillingService
	eligibilitySvc  *EligibilityService
	partnershipSvc  *PartnershipService
	subscriptionSvc *SubscriptionService
	redemptionSvc   *RedemptionService
	offerSvc        *OfferService
	locationSvc     *LocationService
}

func setupServiceTest(t *testing.T, name string) *serviceTestEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Admin{},
		&models.Location{},
		&models.Offer{},
		&models.PartnerRequest{},
		&models.OpenOfferSubscription{},
		&models.Redemption{},
		&models.CreditAccount{},
		&models.CreditEntry{},
		&models.PaymentMethod{},
		&models.BillingTransaction{},
		&models.PromoCode{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	userRepo := repository.NewUserRepository(db)
	locationRepo := repository.NewLocationRepository(db)
	offerRepo := repository.NewOfferRepository(db)
	partnerRepo := repository.NewPartnerRequestRepository(db)
	subscriptionRepo := repository.NewSubscriptionRepository(db)
	redemptionRepo := repository.NewRedemptionRepository(db)
	creditRepo := repository.NewCreditRepository(db)
	billingRepo := repository.NewBillingRepository(db)
	promoRepo := repository.NewPromoCodeRepository(db)

	collaborator := &stubCollaborator{hasDefault: true}
	fee := decimal.RequireFromString("10.00")
	monthly := decimal.RequireFromString("25.00")

	creditSvc := NewCreditService(creditRepo, userRepo)
	billingSvc := NewBillingService(billingRepo, promoRepo, creditSvc, collaborator)
	eligibilitySvc := NewEligibilityService(offerRepo, locationRepo, partnerRepo,
		subscriptionRepo, creditRepo, collaborator, fee, monthly)
	partnershipSvc := NewPartnershipService(partnerRepo, userRepo, locationRepo,
		eligibilitySvc, billingSvc,
		models.NewMoneyFromDecimal(fee), constants.UnpaidFeePolicyFewestRedemptions)
	subscriptionSvc := NewSubscriptionService(subscriptionRepo, locationRepo, userRepo,
		eligibilitySvc, billingSvc, creditSvc,
		models.NewMoneyFromDecimal(monthly), models.NewMoneyFromDecimal(decimal.RequireFromString("5.00")))
	redemptionSvc := NewRedemptionService(redemptionRepo, offerRepo, partnerRepo, "promostreet.app")
	offerSvc := NewOfferService(offerRepo, locationRepo, partnerRepo)
	locationSvc := NewLocationService(locationRepo, offerRepo, partnerRepo, subscriptionRepo)

	return &serviceTestEnv{
		db:              db,
		collaborator:    collaborator,
		creditSvc:       creditSvc,
		billingSvc:      billingSvc,
		eligibilitySvc:  eligibilitySvc,
		partnershipSvc:  partnershipSvc,
		subscriptionSvc: subscriptionSvc,
		redemptionSvc:   redemptionSvc,
		offerSvc:        offerSvc,
		locationSvc:     locationSvc,
	}
}

func createTestUser(t *testing.T, db *gorm.DB, id uint) *models.User {
	t.Helper()
	now := time.Now()
	user := &models.User{
		ID:           id,
		Email:        fmt.Sprintf("retailer_%d@example.com", id),
		PasswordHash: "hash",
		BusinessName: fmt.Sprintf("商户%d", id),
		ReferralCode: fmt.Sprintf("REF%04d", id),
		Status:       constants.UserStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	return user
}

func createTestLocation(t *testing.T, db *gorm.DB, userID uint) *models.Location {
	t.Helper()
	now := time.Now()
	location := &models.Location{
		UserID:          userID,
		Name:            fmt.Sprintf("门店-%d-%d", userID, now.UnixNano()),
		Address:         "测试路1号",
		ChannelCategory: constants.ChannelCategoryRetail,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := db.Create(location).Error; err != nil {
		t.Fatalf("create location failed: %v", err)
	}
	return location
}

func createTestOffer(t *testing.T, db *gorm.DB, userID, locationID uint, open bool) *models.Offer {
	t.Helper()
	now := time.Now()
	offer := &models.Offer{
		UserID:       userID,
		LocationID:   locationID,
		CallToAction: "买一送一",
		CodePrefix:   fmt.Sprintf("OF%d%d", userID, now.UnixNano()%100000),
		IsActive:     true,
		IsOpenOffer:  open,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := db.Create(offer).Error; err != nil {
		t.Fatalf("create offer failed: %v", err)
	}
	return offer
}

func addTestCredit(t *testing.T, env *serviceTestEnv, userID uint, amount string) {
	t.Helper()
	err := env.db.Transaction(func(tx *gorm.DB) error {
		_, _, addErr := env.creditSvc.AddInTx(tx, CreditAddInput{
			UserID:    userID,
			Amount:    models.NewMoneyFromString(amount),
			Reason:    constants.CreditReasonAdminGrant,
			Reference: fmt.Sprintf("test_grant:%d:%s:%d", userID, amount, time.Now().UnixNano()),
		})
		return addErr
	})
	if err != nil {
		t.Fatalf("add credit failed: %v", err)
	}
}

func creditBalance(t *testing.T, env *serviceTestEnv, userID uint) decimal.Decimal {
	t.Helper()
	account, err := env.creditSvc.GetAccount(userID)
	if err != nil {
		t.Fatalf("get account failed: %v", err)
	}
	return account.Balance.Decimal.Round(2)
}
