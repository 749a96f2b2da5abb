package service

import (
	"testing"

	"github.com/promostreet/internal/constants"
	"github.com/promostreet/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func TestCreditAddAndConsume(t *testing.T) {
	env := setupServiceTest(t, "credit_basic")
	createTestUser(t, env.db, 1)

	addTestCredit(t, env, 1, "20.00")
	if !creditBalance(t, env, 1).Equal(decimal.RequireFromString("20.00")) {
		t.Fatalf("unexpected balance: %s", creditBalance(t, env, 1))
	}

	var deduct decimal.Decimal
	err := env.db.Transaction(func(tx *gorm.DB) error {
		var consumeErr error
		deduct, consumeErr = env.creditSvc.ConsumeInTx(tx, 1,
			decimal.RequireFromString("50.00"),
			constants.CreditReasonPartnershipCharge, "billing:test:1", "")
		return consumeErr
	})
	if err != nil {
		t.Fatalf("consume failed: %v", err)
	}
	// 只扣到余额为止
	if !deduct.Equal(decimal.RequireFromString("20.00")) {
		t.Fatalf("unexpected deduction: %s", deduct)
	}
	if !creditBalance(t, env, 1).IsZero() {
		t.Fatalf("balance should be zero, got %s", creditBalance(t, env, 1))
	}

	// 余额始终等于账本条目之和
	var entries []models.CreditEntry
	env.db.Where("user_id = ?", 1).Find(&entries)
	sum := decimal.Zero
	for _, entry := range entries {
		sum = sum.Add(entry.Amount.Decimal)
	}
	if !sum.Equal(creditBalance(t, env, 1)) {
		t.Fatalf("ledger sum %s != balance %s", sum, creditBalance(t, env, 1))
	}
}

func TestCreditConsumeIdempotent(t *testing.T) {
	env := setupServiceTest(t, "credit_idempotent")
	createTestUser(t, env.db, 1)
	addTestCredit(t, env, 1, "10.00")

	for i := 0; i < 2; i++ {
		err := env.db.Transaction(func(tx *gorm.DB) error {
			_, consumeErr := env.creditSvc.ConsumeInTx(tx, 1,
				decimal.RequireFromString("4.00"),
				constants.CreditReasonPartnershipCharge, "billing:test:repeat", "")
			return consumeErr
		})
		if err != nil {
			t.Fatalf("consume %d failed: %v", i, err)
		}
	}
	if !creditBalance(t, env, 1).Equal(decimal.RequireFromString("6.00")) {
		t.Fatalf("repeated reference must deduct once, got %s", creditBalance(t, env, 1))
	}
}

func TestCreditGrantRecordsBalanceAfter(t *testing.T) {
	env := setupServiceTest(t, "credit_grant")
	createTestUser(t, env.db, 1)

	_, entry, err := env.creditSvc.Grant(CreditGrantInput{
		UserID:    1,
		Amount:    models.NewMoneyFromString("12.50"),
		Reference: "admin_grant:1",
		Remark:    "开户赠送",
	})
	if err != nil {
		t.Fatalf("grant failed: %v", err)
	}
	if entry.Reason != constants.CreditReasonAdminGrant {
		t.Fatalf("unexpected reason: %s", entry.Reason)
	}
	if !entry.BalanceAfter.Decimal.Equal(decimal.RequireFromString("12.50")) {
		t.Fatalf("unexpected balance_after: %s", entry.BalanceAfter.String())
	}
}
