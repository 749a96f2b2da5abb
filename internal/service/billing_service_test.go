package service

import (
	"errors"
	"testing"
	"time"

	"github.com/promostreet/internal/constants"
	"github.com/promostreet/internal/models"

	"github.com/shopspring/decimal"
)

func TestBillingChargeCreditBeforeCard(t *testing.T) {
	env := setupServiceTest(t, "billing_credit_first")
	createTestUser(t, env.db, 1)
	addTestCredit(t, env, 1, "6.00")

	txn, err := env.billingSvc.Charge(ChargeInput{
		UserID:    1,
		Amount:    models.NewMoneyFromString("10.00"),
		Reason:    constants.CreditReasonPartnershipCharge,
		Reference: "partner_request:1:sender",
	})
	if err != nil {
		t.Fatalf("charge failed: %v", err)
	}
	if !txn.CreditUsed.Decimal.Equal(decimal.RequireFromString("6.00")) {
		t.Fatalf("unexpected credit used: %s", txn.CreditUsed.String())
	}
	if !txn.CardCharged.Decimal.Equal(decimal.RequireFromString("4.00")) {
		t.Fatalf("unexpected card charged: %s", txn.CardCharged.String())
	}
	if txn.Status != constants.BillingStatusCharged {
		t.Fatalf("unexpected status: %s", txn.Status)
	}
	if !creditBalance(t, env, 1).IsZero() {
		t.Fatalf("balance should be fully consumed, got %s", creditBalance(t, env, 1))
	}
	if len(env.collaborator.charges) != 1 || !env.collaborator.charges[0].Equal(decimal.RequireFromString("4.00")) {
		t.Fatalf("unexpected gateway charges: %v", env.collaborator.charges)
	}
}

func TestBillingChargeFullCreditSkipsCard(t *testing.T) {
	env := setupServiceTest(t, "billing_full_credit")
	createTestUser(t, env.db, 1)
	addTestCredit(t, env, 1, "30.00")
	env.collaborator.hasDefault = false

	txn, err := env.billingSvc.Charge(ChargeInput{
		UserID:    1,
		Amount:    models.NewMoneyFromString("10.00"),
		Reason:    constants.CreditReasonPartnershipCharge,
		Reference: "partner_request:2:sender",
	})
	if err != nil {
		t.Fatalf("charge failed: %v", err)
	}
	if !txn.CardCharged.Decimal.IsZero() {
		t.Fatalf("card should not be charged, got %s", txn.CardCharged.String())
	}
	if !creditBalance(t, env, 1).Equal(decimal.RequireFromString("20.00")) {
		t.Fatalf("unexpected balance: %s", creditBalance(t, env, 1))
	}
}

func TestBillingChargeIdempotentByReference(t *testing.T) {
	env := setupServiceTest(t, "billing_idempotent")
	createTestUser(t, env.db, 1)
	addTestCredit(t, env, 1, "100.00")

	input := ChargeInput{
		UserID:    1,
		Amount:    models.NewMoneyFromString("25.00"),
		Reason:    constants.CreditReasonOfferXSub,
		Reference: "offerx_sub:1:202609",
	}
	first, err := env.billingSvc.Charge(input)
	if err != nil {
		t.Fatalf("first charge failed: %v", err)
	}
	second, err := env.billingSvc.Charge(input)
	if err != nil {
		t.Fatalf("second charge failed: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected same transaction, got %d and %d", first.ID, second.ID)
	}
	if !creditBalance(t, env, 1).Equal(decimal.RequireFromString("75.00")) {
		t.Fatalf("balance deducted more than once: %s", creditBalance(t, env, 1))
	}

	var count int64
	env.db.Model(&models.BillingTransaction{}).Count(&count)
	if count != 1 {
		t.Fatalf("expected 1 billing transaction, got %d", count)
	}
}

func TestBillingChargePromoWaived(t *testing.T) {
	env := setupServiceTest(t, "billing_promo")
	createTestUser(t, env.db, 1)
	addTestCredit(t, env, 1, "50.00")
	if err := env.db.Create(&models.PromoCode{
		Code:       "LAUNCH",
		Status:     constants.PromoCodeStatusActive,
		UsageLimit: 1,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}).Error; err != nil {
		t.Fatalf("create promo failed: %v", err)
	}

	txn, err := env.billingSvc.Charge(ChargeInput{
		UserID:    1,
		Amount:    models.NewMoneyFromString("10.00"),
		Reason:    constants.CreditReasonPartnershipCharge,
		Reference: "partner_request:3:sender",
		PromoCode: "LAUNCH",
	})
	if err != nil {
		t.Fatalf("charge failed: %v", err)
	}
	if !txn.PromoWaived || txn.Status != constants.BillingStatusWaived {
		t.Fatalf("expected waived transaction, got %+v", txn)
	}
	if !txn.CreditUsed.Decimal.IsZero() || !txn.CardCharged.Decimal.IsZero() {
		t.Fatalf("waived transaction must not move money: %+v", txn)
	}
	if !creditBalance(t, env, 1).Equal(decimal.RequireFromString("50.00")) {
		t.Fatalf("ledger must stay untouched on waiver: %s", creditBalance(t, env, 1))
	}

	var entries int64
	env.db.Model(&models.CreditEntry{}).Where("reference = ?", "billing:partner_request:3:sender").Count(&entries)
	if entries != 0 {
		t.Fatalf("waiver must not fabricate ledger entries")
	}

	// 已达使用上限，二次使用被拒
	if _, err := env.billingSvc.Charge(ChargeInput{
		UserID:    1,
		Amount:    models.NewMoneyFromString("10.00"),
		Reason:    constants.CreditReasonPartnershipCharge,
		Reference: "partner_request:4:sender",
		PromoCode: "LAUNCH",
	}); !errors.Is(err, ErrPromoCodeUsedUp) {
		t.Fatalf("expected ErrPromoCodeUsedUp, got %v", err)
	}
}

func TestBillingChargeDeclineRollsBackLedger(t *testing.T) {
	env := setupServiceTest(t, "billing_decline")
	createTestUser(t, env.db, 1)
	addTestCredit(t, env, 1, "3.00")
	env.collaborator.chargeErr = ErrPaymentDeclined

	_, err := env.billingSvc.Charge(ChargeInput{
		UserID:    1,
		Amount:    models.NewMoneyFromString("10.00"),
		Reason:    constants.CreditReasonPartnershipCharge,
		Reference: "partner_request:5:sender",
	})
	if !errors.Is(err, ErrPaymentDeclined) {
		t.Fatalf("expected ErrPaymentDeclined, got %v", err)
	}
	if !creditBalance(t, env, 1).Equal(decimal.RequireFromString("3.00")) {
		t.Fatalf("ledger deduction must roll back on decline: %s", creditBalance(t, env, 1))
	}
	var count int64
	env.db.Model(&models.BillingTransaction{}).Count(&count)
	if count != 0 {
		t.Fatalf("declined charge must not persist a transaction inside the tx")
	}
}
