package public

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/promostreet/internal/constants"
	"github.com/promostreet/internal/http/response"
	"github.com/promostreet/internal/models"
	"github.com/promostreet/internal/provider"
	"github.com/promostreet/internal/repository"
	"github.com/promostreet/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type previewTestCollaborator struct{ hasDefault bool }

func (c *previewTestCollaborator) HasDefaultMethod(userID uint) (bool, error) {
	return c.hasDefault, nil
}

func (c *previewTestCollaborator) ChargeDefault(userID uint, amount decimal.Decimal, reference string) (string, error) {
	return "ch_test", nil
}

func setupPreviewTest(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	dsn := fmt.Sprintf("file:preview_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Location{},
		&models.Offer{},
		&models.PartnerRequest{},
		&models.OpenOfferSubscription{},
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
	creditRepo := repository.NewCreditRepository(db)
	billingRepo := repository.NewBillingRepository(db)
	promoRepo := repository.NewPromoCodeRepository(db)

	collaborator := &previewTestCollaborator{hasDefault: false}
	fee := decimal.RequireFromString("10.00")
	monthly := decimal.RequireFromString("25.00")
	creditSvc := service.NewCreditService(creditRepo, userRepo)
	billingSvc := service.NewBillingService(billingRepo, promoRepo, creditSvc, collaborator)
	eligibilitySvc := service.NewEligibilityService(offerRepo, locationRepo, partnerRepo,
		subscriptionRepo, creditRepo, collaborator, fee, monthly)

	h := New(&provider.Container{
		BillingService:     billingSvc,
		EligibilityService: eligibilitySvc,
	})
	engine := gin.New()
	engine.POST("/partnerships/preview", func(c *gin.Context) {
		c.Set("user_id", uint(1))
		h.PreviewPartnerRequest(c)
	})

	now := time.Now()
	for id := uint(1); id <= 2; id++ {
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
		location := &models.Location{
			UserID:          id,
			Name:            fmt.Sprintf("门店-%d", id),
			Address:         "测试路1号",
			ChannelCategory: constants.ChannelCategoryRetail,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := db.Create(location).Error; err != nil {
			t.Fatalf("create location failed: %v", err)
		}
		if err := db.Create(&models.Offer{
			UserID:       id,
			LocationID:   location.ID,
			CallToAction: "买一送一",
			CodePrefix:   fmt.Sprintf("PV%d", id),
			IsActive:     true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}).Error; err != nil {
			t.Fatalf("create offer failed: %v", err)
		}
	}
	return engine, db
}

type previewTestEnvelope struct {
	StatusCode int `json:"status_code"`
	Data       struct {
		Decision service.Decision `json:"decision"`
	} `json:"data"`
}

func postPreview(t *testing.T, engine *gin.Engine, body map[string]interface{}) previewTestEnvelope {
	t.Helper()
	payload, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, "/partnerships/preview", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	var envelope previewTestEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response failed: %v (%s)", err, w.Body.String())
	}
	return envelope
}

func TestPreviewPartnerRequestRejectsBogusPromoCode(t *testing.T) {
	engine, _ := setupPreviewTest(t)

	// 无效促销码必须和正式发起一样被拒，而不是预览为免付通过
	envelope := postPreview(t, engine, map[string]interface{}{
		"recipient_id": 2,
		"promo_code":   "NO-SUCH-CODE",
	})
	if envelope.StatusCode != response.CodeBadRequest {
		t.Fatalf("bogus promo code should 400, got %d", envelope.StatusCode)
	}
	if envelope.Data.Decision.Allowed {
		t.Fatalf("bogus promo code must not preview as allowed")
	}
}

func TestPreviewPartnerRequestValidPromoCodeSkipsPayment(t *testing.T) {
	engine, db := setupPreviewTest(t)

	// 无促销码且无支付方式：预判给出 PAYMENT_REQUIRED
	envelope := postPreview(t, engine, map[string]interface{}{"recipient_id": 2})
	if envelope.StatusCode != 0 || envelope.Data.Decision.Allowed {
		t.Fatalf("expected payment-required deny, got %+v", envelope)
	}
	if envelope.Data.Decision.Reason != constants.ReasonPaymentRequired {
		t.Fatalf("unexpected reason: %s", envelope.Data.Decision.Reason)
	}

	// 有效促销码豁免支付方式前置条件
	now := time.Now()
	expires := now.AddDate(0, 1, 0)
	if err := db.Create(&models.PromoCode{
		Code:        "PREVIEW10",
		Status:      constants.PromoCodeStatusActive,
		CreditValue: models.NewMoneyFromString("0.00"),
		UsageLimit:  10,
		ExpiresAt:   &expires,
		CreatedAt:   now,
		UpdatedAt:   now,
	}).Error; err != nil {
		t.Fatalf("create promo code failed: %v", err)
	}
	envelope = postPreview(t, engine, map[string]interface{}{
		"recipient_id": 2,
		"promo_code":   "PREVIEW10",
	})
	if envelope.StatusCode != 0 || !envelope.Data.Decision.Allowed {
		t.Fatalf("valid promo code should preview as allowed, got %+v", envelope)
	}
}
