package service

import (
	"errors"
	"testing"
	"time"

	"github.com/promostreet/internal/constants"
	"github.com/promostreet/internal/models"

	"github.com/shopspring/decimal"
)

func TestSubscriptionEnableChargesMonthlyFee(t *testing.T) {
	env := setupServiceTest(t, "subscription_enable")
	user := createTestUser(t, env.db, 1)
	location := createTestLocation(t, env.db, user.ID)
	createTestOffer(t, env.db, user.ID, location.ID, true)

	sub, decision, err := env.subscriptionSvc.Enable(user.ID, location.ID)
	if err != nil {
		t.Fatalf("enable failed: %v (decision %+v)", err, decision)
	}
	if !sub.Active || sub.CancelAtPeriodEnd {
		t.Fatalf("unexpected subscription: %+v", sub)
	}
	if !sub.MonthlyFee.Decimal.Equal(decimal.RequireFromString("25.00")) {
		t.Fatalf("unexpected monthly fee: %s", sub.MonthlyFee.String())
	}

	var txn models.BillingTransaction
	if err := env.db.First(&txn).Error; err != nil {
		t.Fatalf("expected first-period billing transaction: %v", err)
	}
	if txn.Reason != constants.CreditReasonOfferXSub || !txn.Amount.Decimal.Equal(decimal.RequireFromString("25.00")) {
		t.Fatalf("unexpected transaction: %+v", txn)
	}

	var reloaded models.Location
	env.db.First(&reloaded, location.ID)
	if !reloaded.OpenOfferOnly {
		t.Fatalf("location must flip to open-offer-only mode")
	}
}

func TestSubscriptionEnableBlockedByActiveOffer(t *testing.T) {
	env := setupServiceTest(t, "subscription_offer_conflict")
	user := createTestUser(t, env.db, 1)
	location := createTestLocation(t, env.db, user.ID)
	createTestOffer(t, env.db, user.ID, location.ID, false)

	_, decision, err := env.subscriptionSvc.Enable(user.ID, location.ID)
	if !errors.Is(err, ErrEligibilityDenied) || decision.Reason != constants.ReasonActiveOfferConflict {
		t.Fatalf("expected ACTIVE_OFFER_CONFLICT deny, got %v / %+v", err, decision)
	}
}

func TestSubscriptionEnableBlockedByPartnership(t *testing.T) {
	env := setupServiceTest(t, "subscription_partnership_conflict")
	user := createTestUser(t, env.db, 1)
	other := createTestUser(t, env.db, 2)
	location := createTestLocation(t, env.db, user.ID)
	otherLoc := createTestLocation(t, env.db, other.ID)
	createTestOffer(t, env.db, user.ID, location.ID, true)

	if err := env.db.Create(&models.PartnerRequest{
		SenderID:            user.ID,
		RecipientID:         other.ID,
		SenderLocationID:    &location.ID,
		RecipientLocationID: &otherLoc.ID,
		Status:              constants.PartnerRequestStatusApproved,
		CreatedAt:           time.Now(),
		UpdatedAt:           time.Now(),
	}).Error; err != nil {
		t.Fatalf("create partnership failed: %v", err)
	}

	_, decision, err := env.subscriptionSvc.Enable(user.ID, location.ID)
	if !errors.Is(err, ErrEligibilityDenied) || decision.Reason != constants.ReasonActivePartnershipConflict {
		t.Fatalf("expected ACTIVE_PARTNERSHIP_CONFLICT deny, got %v / %+v", err, decision)
	}
}

func TestSubscriptionEnableRequiresPayment(t *testing.T) {
	env := setupServiceTest(t, "subscription_payment_required")
	user := createTestUser(t, env.db, 1)
	location := createTestLocation(t, env.db, user.ID)
	createTestOffer(t, env.db, user.ID, location.ID, true)
	env.collaborator.hasDefault = false

	_, decision, err := env.subscriptionSvc.Enable(user.ID, location.ID)
	if !errors.Is(err, ErrEligibilityDenied) || decision.Reason != constants.ReasonPaymentRequired {
		t.Fatalf("expected PAYMENT_REQUIRED deny, got %v / %+v", err, decision)
	}

	// 信用够付一个月时允许开通
	addTestCredit(t, env, user.ID, "25.00")
	if _, _, err := env.subscriptionSvc.Enable(user.ID, location.ID); err != nil {
		t.Fatalf("enable with credit failed: %v", err)
	}
	if !creditBalance(t, env, user.ID).IsZero() {
		t.Fatalf("first period should consume the credit, got %s", creditBalance(t, env, user.ID))
	}
}

func TestSubscriptionCancelAtPeriodEnd(t *testing.T) {
	env := setupServiceTest(t, "subscription_cancel")
	user := createTestUser(t, env.db, 1)
	location := createTestLocation(t, env.db, user.ID)
	createTestOffer(t, env.db, user.ID, location.ID, true)

	sub, _, err := env.subscriptionSvc.Enable(user.ID, location.ID)
	if err != nil {
		t.Fatalf("enable failed: %v", err)
	}

	cancelled, err := env.subscriptionSvc.Cancel(user.ID, location.ID)
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	// 周期内仍然生效
	if !cancelled.Active || !cancelled.CancelAtPeriodEnd {
		t.Fatalf("cancel must defer to period end: %+v", cancelled)
	}

	// 到期后续费任务停用并恢复门店普通模式
	env.db.Model(&models.OpenOfferSubscription{}).Where("id = ?", sub.ID).
		Update("current_period_end", time.Now().Add(-time.Hour))
	if _, err := env.subscriptionSvc.RenewDue(time.Now(), 10); err != nil {
		t.Fatalf("renew due failed: %v", err)
	}

	var reloaded models.OpenOfferSubscription
	env.db.First(&reloaded, sub.ID)
	if reloaded.Active {
		t.Fatalf("subscription should deactivate at period end")
	}
	var loc models.Location
	env.db.First(&loc, location.ID)
	if loc.OpenOfferOnly {
		t.Fatalf("location should leave open-offer-only mode")
	}
	// 停用周期未再扣费
	var count int64
	env.db.Model(&models.BillingTransaction{}).Count(&count)
	if count != 1 {
		t.Fatalf("expected only the initial charge, got %d", count)
	}
}

func TestSubscriptionRenewalAdvancesPeriod(t *testing.T) {
	env := setupServiceTest(t, "subscription_renewal")
	user := createTestUser(t, env.db, 1)
	location := createTestLocation(t, env.db, user.ID)
	createTestOffer(t, env.db, user.ID, location.ID, true)

	sub, _, err := env.subscriptionSvc.Enable(user.ID, location.ID)
	if err != nil {
		t.Fatalf("enable failed: %v", err)
	}

	due := time.Now().Add(-time.Hour)
	env.db.Model(&models.OpenOfferSubscription{}).Where("id = ?", sub.ID).
		Update("current_period_end", due)

	processed, err := env.subscriptionSvc.RenewDue(time.Now(), 10)
	if err != nil {
		t.Fatalf("renew due failed: %v", err)
	}
	if processed != 1 {
		t.Fatalf("expected 1 renewal, got %d", processed)
	}

	var reloaded models.OpenOfferSubscription
	env.db.First(&reloaded, sub.ID)
	if !reloaded.Active || !reloaded.CurrentPeriodEnd.After(time.Now()) {
		t.Fatalf("period should advance: %+v", reloaded)
	}
	var count int64
	env.db.Model(&models.BillingTransaction{}).Count(&count)
	if count != 2 {
		t.Fatalf("expected initial + renewal charges, got %d", count)
	}
}

func TestSubscriptionRenewalDeclineDeactivates(t *testing.T) {
	env := setupServiceTest(t, "subscription_renewal_decline")
	user := createTestUser(t, env.db, 1)
	location := createTestLocation(t, env.db, user.ID)
	createTestOffer(t, env.db, user.ID, location.ID, true)

	sub, _, err := env.subscriptionSvc.Enable(user.ID, location.ID)
	if err != nil {
		t.Fatalf("enable failed: %v", err)
	}
	env.db.Model(&models.OpenOfferSubscription{}).Where("id = ?", sub.ID).
		Update("current_period_end", time.Now().Add(-time.Hour))
	env.collaborator.chargeErr = ErrPaymentDeclined

	if _, err := env.subscriptionSvc.RenewDue(time.Now(), 10); err != nil {
		t.Fatalf("renew due failed: %v", err)
	}
	var reloaded models.OpenOfferSubscription
	env.db.First(&reloaded, sub.ID)
	if reloaded.Active {
		t.Fatalf("declined renewal should deactivate the subscription")
	}
}

func TestSubscriptionPeriodReferenceDistinctWithinMonth(t *testing.T) {
	// 首期与续期的周期终点可能落在同一自然月，幂等键不能相撞
	first := time.Date(2026, 9, 3, 9, 0, 0, 0, time.UTC)
	second := time.Date(2026, 9, 27, 9, 0, 0, 0, time.UTC)
	if subscriptionPeriodReference(1, first) == subscriptionPeriodReference(1, second) {
		t.Fatalf("period references within the same month must stay distinct")
	}
}

func TestSubscriptionReferralBonus(t *testing.T) {
	env := setupServiceTest(t, "subscription_referral")
	referrer := createTestUser(t, env.db, 1)
	referred := createTestUser(t, env.db, 2)
	env.db.Model(&models.User{}).Where("id = ?", referred.ID).Update("referred_by", referrer.ID)

	location := createTestLocation(t, env.db, referred.ID)
	createTestOffer(t, env.db, referred.ID, location.ID, true)

	if _, _, err := env.subscriptionSvc.Enable(referred.ID, location.ID); err != nil {
		t.Fatalf("enable failed: %v", err)
	}
	if !creditBalance(t, env, referrer.ID).Equal(decimal.RequireFromString("5.00")) {
		t.Fatalf("referrer should receive the bonus, got %s", creditBalance(t, env, referrer.ID))
	}

	// 同一被推荐用户不重复奖励
	if _, err := env.subscriptionSvc.Cancel(referred.ID, location.ID); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if _, err := env.subscriptionSvc.Resume(referred.ID, location.ID); err != nil {
		t.Fatalf("resume failed: %v", err)
	}
	if !creditBalance(t, env, referrer.ID).Equal(decimal.RequireFromString("5.00")) {
		t.Fatalf("bonus must be granted at most once")
	}
}
