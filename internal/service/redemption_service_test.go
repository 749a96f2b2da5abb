package service

import (
	"errors"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/promostreet/internal/constants"
	"github.com/promostreet/internal/models"
)

func TestRedemptionIssueAndConfirm(t *testing.T) {
	env := setupServiceTest(t, "redemption_happy")
	user := createTestUser(t, env.db, 1)
	location := createTestLocation(t, env.db, user.ID)
	offer := createTestOffer(t, env.db, user.ID, location.ID, false)

	redemption, err := env.redemptionSvc.Issue(IssueRedemptionInput{
		OfferRef:   strconv.FormatUint(uint64(offer.ID), 10),
		LocationID: location.ID,
	})
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if redemption.Status != constants.RedemptionStatusIssued || redemption.Code == "" {
		t.Fatalf("unexpected redemption: %+v", redemption)
	}

	confirmed, err := env.redemptionSvc.Confirm(redemption.Code)
	if err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	if confirmed.Status != constants.RedemptionStatusConfirmed || confirmed.RedeemedAt == nil {
		t.Fatalf("unexpected confirmed redemption: %+v", confirmed)
	}
}

func TestRedemptionConfirmAtMostOnce(t *testing.T) {
	env := setupServiceTest(t, "redemption_double_scan")
	user := createTestUser(t, env.db, 1)
	location := createTestLocation(t, env.db, user.ID)
	offer := createTestOffer(t, env.db, user.ID, location.ID, false)

	redemption, err := env.redemptionSvc.Issue(IssueRedemptionInput{
		OfferRef: fmt.Sprintf("%d", offer.ID),
	})
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	if _, err := env.redemptionSvc.Confirm(redemption.Code); err != nil {
		t.Fatalf("first confirm failed: %v", err)
	}
	var afterFirst models.Redemption
	env.db.First(&afterFirst, redemption.ID)

	second, err := env.redemptionSvc.Confirm(redemption.Code)
	if !errors.Is(err, ErrRedemptionRedeemed) {
		t.Fatalf("expected ErrRedemptionRedeemed, got %v", err)
	}
	// 第二台设备拿到已核销错误，时间戳保持第一次的值
	if second == nil || second.RedeemedAt == nil || !second.RedeemedAt.Equal(*afterFirst.RedeemedAt) {
		t.Fatalf("redeemed_at must stay unchanged on second scan")
	}
}

func TestRedemptionIssueByCodePrefix(t *testing.T) {
	env := setupServiceTest(t, "redemption_prefix")
	user := createTestUser(t, env.db, 1)
	location := createTestLocation(t, env.db, user.ID)
	offer := createTestOffer(t, env.db, user.ID, location.ID, false)

	redemption, err := env.redemptionSvc.Issue(IssueRedemptionInput{OfferRef: offer.CodePrefix})
	if err != nil {
		t.Fatalf("issue by prefix failed: %v", err)
	}
	if redemption.OfferID != offer.ID {
		t.Fatalf("resolved wrong offer: %d", redemption.OfferID)
	}

	if _, err := env.redemptionSvc.Issue(IssueRedemptionInput{OfferRef: "NOPE"}); !errors.Is(err, ErrOfferNotFound) {
		t.Fatalf("expected ErrOfferNotFound, got %v", err)
	}
}

func TestRedemptionExpiredOfferNotIssuable(t *testing.T) {
	env := setupServiceTest(t, "redemption_expired_offer")
	user := createTestUser(t, env.db, 1)
	location := createTestLocation(t, env.db, user.ID)
	offer := createTestOffer(t, env.db, user.ID, location.ID, false)

	past := time.Now().Add(-time.Hour)
	env.db.Model(offer).Update("expires_at", past)

	if _, err := env.redemptionSvc.Issue(IssueRedemptionInput{
		OfferRef: fmt.Sprintf("%d", offer.ID),
	}); !errors.Is(err, ErrOfferExpired) {
		t.Fatalf("expected ErrOfferExpired, got %v", err)
	}
}

func TestRedemptionConfirmExpiresWithParentOffer(t *testing.T) {
	env := setupServiceTest(t, "redemption_parent_expiry")
	user := createTestUser(t, env.db, 1)
	location := createTestLocation(t, env.db, user.ID)
	offer := createTestOffer(t, env.db, user.ID, location.ID, false)

	redemption, err := env.redemptionSvc.Issue(IssueRedemptionInput{
		OfferRef: fmt.Sprintf("%d", offer.ID),
	})
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	env.db.Model(offer).Update("expires_at", time.Now().Add(-time.Minute))

	if _, err := env.redemptionSvc.Confirm(redemption.Code); !errors.Is(err, ErrRedemptionExpired) {
		t.Fatalf("expected ErrRedemptionExpired, got %v", err)
	}
	var reloaded models.Redemption
	env.db.First(&reloaded, redemption.ID)
	if reloaded.Status != constants.RedemptionStatusExpired || reloaded.RedeemedAt != nil {
		t.Fatalf("expired code must never read as confirmed: %+v", reloaded)
	}
}

func TestRedemptionOpenOfferReferralGating(t *testing.T) {
	env := setupServiceTest(t, "redemption_open_gating")
	user := createTestUser(t, env.db, 1)
	location := createTestLocation(t, env.db, user.ID)
	openOffer := createTestOffer(t, env.db, user.ID, location.ID, true)

	// 规范路径：无 referrer 或平台域名
	if _, err := env.redemptionSvc.Issue(IssueRedemptionInput{
		OfferRef: fmt.Sprintf("%d", openOffer.ID),
	}); err != nil {
		t.Fatalf("issue without referrer failed: %v", err)
	}
	if _, err := env.redemptionSvc.Issue(IssueRedemptionInput{
		OfferRef:     fmt.Sprintf("%d", openOffer.ID),
		ReferrerHost: "promostreet.app",
	}); err != nil {
		t.Fatalf("issue via platform referrer failed: %v", err)
	}

	// 第三方 referrer 不可兑换
	if _, err := env.redemptionSvc.Issue(IssueRedemptionInput{
		OfferRef:     fmt.Sprintf("%d", openOffer.ID),
		ReferrerHost: "partner-site.example.com",
	}); !errors.Is(err, ErrRedemptionNotEligible) {
		t.Fatalf("expected ErrRedemptionNotEligible, got %v", err)
	}

	// 伙伴渠道来源的开放报价曝光不可独立兑换
	partnerID := uint(42)
	if _, err := env.redemptionSvc.Issue(IssueRedemptionInput{
		OfferRef:         fmt.Sprintf("%d", openOffer.ID),
		PartnerRequestID: &partnerID,
	}); !errors.Is(err, ErrRedemptionNotEligible) {
		t.Fatalf("expected ErrRedemptionNotEligible for partner-sourced issue, got %v", err)
	}
}

func TestRedemptionSweepExpired(t *testing.T) {
	env := setupServiceTest(t, "redemption_sweep")
	user := createTestUser(t, env.db, 1)
	location := createTestLocation(t, env.db, user.ID)
	offer := createTestOffer(t, env.db, user.ID, location.ID, false)

	redemption, err := env.redemptionSvc.Issue(IssueRedemptionInput{
		OfferRef: fmt.Sprintf("%d", offer.ID),
	})
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	env.db.Model(offer).Update("expires_at", time.Now().Add(-time.Hour))

	affected, err := env.redemptionSvc.SweepExpired(time.Now())
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if affected != 1 {
		t.Fatalf("expected 1 swept code, got %d", affected)
	}
	var reloaded models.Redemption
	env.db.First(&reloaded, redemption.ID)
	if reloaded.Status != constants.RedemptionStatusExpired {
		t.Fatalf("unexpected status after sweep: %s", reloaded.Status)
	}
}

func TestRedemptionConfirmBumpsPartnerCounters(t *testing.T) {
	env := setupServiceTest(t, "redemption_counters")
	sender := createTestUser(t, env.db, 1)
	recipient := createTestUser(t, env.db, 2)
	senderLoc := createTestLocation(t, env.db, sender.ID)
	recipientLoc := createTestLocation(t, env.db, recipient.ID)
	offer := createTestOffer(t, env.db, sender.ID, senderLoc.ID, false)

	request := &models.PartnerRequest{
		SenderID:            sender.ID,
		RecipientID:         recipient.ID,
		SenderLocationID:    &senderLoc.ID,
		RecipientLocationID: &recipientLoc.ID,
		Status:              constants.PartnerRequestStatusApproved,
		CreatedAt:           time.Now(),
		UpdatedAt:           time.Now(),
	}
	if err := env.db.Create(request).Error; err != nil {
		t.Fatalf("create request failed: %v", err)
	}

	redemption, err := env.redemptionSvc.Issue(IssueRedemptionInput{
		OfferRef:         fmt.Sprintf("%d", offer.ID),
		LocationID:       senderLoc.ID,
		PartnerRequestID: &request.ID,
	})
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if _, err := env.redemptionSvc.Confirm(redemption.Code); err != nil {
		t.Fatalf("confirm failed: %v", err)
	}

	var reloaded models.PartnerRequest
	env.db.First(&reloaded, request.ID)
	if reloaded.SenderRedemptions != 1 || reloaded.RecipientRedemptions != 0 {
		t.Fatalf("unexpected counters: sender=%d recipient=%d",
			reloaded.SenderRedemptions, reloaded.RecipientRedemptions)
	}
}
