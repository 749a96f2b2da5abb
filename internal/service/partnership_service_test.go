package service

import (
	"errors"
	"testing"
	"time"

	"github.com/promostreet/internal/constants"
	"github.com/promostreet/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupPartnershipPair(t *testing.T, env *serviceTestEnv) (*models.User, *models.User) {
	t.Helper()
	sender := createTestUser(t, env.db, 1)
	recipient := createTestUser(t, env.db, 2)
	senderLoc := createTestLocation(t, env.db, sender.ID)
	recipientLoc := createTestLocation(t, env.db, recipient.ID)
	createTestOffer(t, env.db, sender.ID, senderLoc.ID, false)
	createTestOffer(t, env.db, recipient.ID, recipientLoc.ID, false)
	return sender, recipient
}

func TestPartnershipSendAndApprove(t *testing.T) {
	env := setupServiceTest(t, "partnership_happy")
	sender, recipient := setupPartnershipPair(t, env)

	request, decision, err := env.partnershipSvc.Send(SendPartnerRequestInput{
		SenderID:    sender.ID,
		RecipientID: recipient.ID,
	})
	if err != nil {
		t.Fatalf("send failed: %v (decision %+v)", err, decision)
	}
	if request.Status != constants.PartnerRequestStatusPending {
		t.Fatalf("unexpected status: %s", request.Status)
	}

	approved, _, err := env.partnershipSvc.Approve(request.ID, recipient.ID)
	if err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if approved.Status != constants.PartnerRequestStatusApproved || approved.ApprovedAt == nil {
		t.Fatalf("unexpected approved request: %+v", approved)
	}

	// 双方各一笔 $10
	var txns []models.BillingTransaction
	env.db.Order("id ASC").Find(&txns)
	if len(txns) != 2 {
		t.Fatalf("expected 2 billing transactions, got %d", len(txns))
	}
	for _, txn := range txns {
		if !txn.Amount.Decimal.Equal(decimal.RequireFromString("10.00")) {
			t.Fatalf("unexpected fee amount: %s", txn.Amount.String())
		}
		if txn.Reason != constants.CreditReasonPartnershipCharge {
			t.Fatalf("unexpected reason: %s", txn.Reason)
		}
	}
}

func TestPartnershipApproveTwiceChargesOnce(t *testing.T) {
	env := setupServiceTest(t, "partnership_double_approve")
	sender, recipient := setupPartnershipPair(t, env)

	request, _, err := env.partnershipSvc.Send(SendPartnerRequestInput{
		SenderID:    sender.ID,
		RecipientID: recipient.ID,
	})
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if _, _, err := env.partnershipSvc.Approve(request.ID, recipient.ID); err != nil {
		t.Fatalf("first approve failed: %v", err)
	}
	if _, _, err := env.partnershipSvc.Approve(request.ID, recipient.ID); !errors.Is(err, ErrPartnerRequestTerminal) {
		t.Fatalf("expected ErrPartnerRequestTerminal, got %v", err)
	}

	var count int64
	env.db.Model(&models.BillingTransaction{}).Count(&count)
	if count != 2 {
		t.Fatalf("double approval must not double charge: %d transactions", count)
	}
}

func TestPartnershipSendDenials(t *testing.T) {
	env := setupServiceTest(t, "partnership_denials")
	sender, recipient := setupPartnershipPair(t, env)

	// 自己不能和自己合作
	_, decision, err := env.partnershipSvc.Send(SendPartnerRequestInput{
		SenderID:    sender.ID,
		RecipientID: sender.ID,
	})
	if !errors.Is(err, ErrEligibilityDenied) || decision.Reason != constants.ReasonSelfRequest {
		t.Fatalf("expected SELF_REQUEST deny, got %v / %+v", err, decision)
	}

	// 同一对之间第二条 pending 被拒（反方向同样算重复）
	if _, _, err := env.partnershipSvc.Send(SendPartnerRequestInput{
		SenderID:    sender.ID,
		RecipientID: recipient.ID,
	}); err != nil {
		t.Fatalf("first send failed: %v", err)
	}
	_, decision, err = env.partnershipSvc.Send(SendPartnerRequestInput{
		SenderID:    recipient.ID,
		RecipientID: sender.ID,
	})
	if !errors.Is(err, ErrEligibilityDenied) || decision.Reason != constants.ReasonDuplicatePending {
		t.Fatalf("expected DUPLICATE_PENDING deny, got %v / %+v", err, decision)
	}
}

func TestPartnershipPendingPairUniqueIndex(t *testing.T) {
	env := setupServiceTest(t, "partnership_pending_unique")
	sender, recipient := setupPartnershipPair(t, env)

	request, _, err := env.partnershipSvc.Send(SendPartnerRequestInput{
		SenderID:    sender.ID,
		RecipientID: recipient.ID,
	})
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}

	// 竞速的两次发起可能都通过资格预检，第二条写入被唯一索引挡下
	key := pendingPairKey(sender.ID, recipient.ID)
	dup := &models.PartnerRequest{
		SenderID:       sender.ID,
		RecipientID:    recipient.ID,
		Status:         constants.PartnerRequestStatusPending,
		PendingPairKey: &key,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
	if err := env.db.Create(dup).Error; !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Fatalf("expected duplicate key error, got %v", err)
	}

	// 终态迁移释放方向对键，同一对可以再次发起
	if _, err := env.partnershipSvc.Reject(request.ID, recipient.ID); err != nil {
		t.Fatalf("reject failed: %v", err)
	}
	if _, _, err := env.partnershipSvc.Send(SendPartnerRequestInput{
		SenderID:    sender.ID,
		RecipientID: recipient.ID,
	}); err != nil {
		t.Fatalf("send after terminal transition failed: %v", err)
	}
}

func TestPartnershipSendBlockedByOpenOffer(t *testing.T) {
	env := setupServiceTest(t, "partnership_open_offer")
	sender, recipient := setupPartnershipPair(t, env)

	var recipientLoc models.Location
	env.db.Where("user_id = ?", recipient.ID).First(&recipientLoc)
	if err := env.db.Create(&models.OpenOfferSubscription{
		LocationID:       recipientLoc.ID,
		UserID:           recipient.ID,
		Active:           true,
		MonthlyFee:       models.NewMoneyFromString("25.00"),
		CurrentPeriodEnd: time.Now().AddDate(0, 1, 0),
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
	}).Error; err != nil {
		t.Fatalf("create subscription failed: %v", err)
	}

	_, decision, err := env.partnershipSvc.Send(SendPartnerRequestInput{
		SenderID:    sender.ID,
		RecipientID: recipient.ID,
	})
	if !errors.Is(err, ErrEligibilityDenied) || decision.Reason != constants.ReasonRecipientOpenOffer {
		t.Fatalf("expected RECIPIENT_OPEN_OFFER deny, got %v / %+v", err, decision)
	}
}

func TestPartnershipSendRequiresPayment(t *testing.T) {
	env := setupServiceTest(t, "partnership_payment_required")
	sender, recipient := setupPartnershipPair(t, env)
	env.collaborator.hasDefault = false

	_, decision, err := env.partnershipSvc.Send(SendPartnerRequestInput{
		SenderID:    sender.ID,
		RecipientID: recipient.ID,
	})
	if !errors.Is(err, ErrEligibilityDenied) || decision.Reason != constants.ReasonPaymentRequired {
		t.Fatalf("expected PAYMENT_REQUIRED deny, got %v / %+v", err, decision)
	}

	// 信用足额时无需支付方式
	addTestCredit(t, env, sender.ID, "10.00")
	if _, _, err := env.partnershipSvc.Send(SendPartnerRequestInput{
		SenderID:    sender.ID,
		RecipientID: recipient.ID,
	}); err != nil {
		t.Fatalf("send with sufficient credit failed: %v", err)
	}
}

func TestPartnershipApproveDeclineRollsBack(t *testing.T) {
	env := setupServiceTest(t, "partnership_decline")
	sender, recipient := setupPartnershipPair(t, env)

	request, _, err := env.partnershipSvc.Send(SendPartnerRequestInput{
		SenderID:    sender.ID,
		RecipientID: recipient.ID,
	})
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}

	env.collaborator.chargeErr = ErrPaymentDeclined
	if _, _, err := env.partnershipSvc.Approve(request.ID, recipient.ID); !errors.Is(err, ErrPaymentDeclined) {
		t.Fatalf("expected ErrPaymentDeclined, got %v", err)
	}

	// 批准迁移随事务回滚，请求仍是 pending
	reloaded, err := env.partnershipSvc.GetByID(request.ID)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if reloaded.Status != constants.PartnerRequestStatusPending || reloaded.ApprovedAt != nil {
		t.Fatalf("approval must roll back on decline: %+v", reloaded)
	}

	// 留下一条 declined 审计流水
	var declined models.BillingTransaction
	if err := env.db.Where("status = ?", constants.BillingStatusDeclined).First(&declined).Error; err != nil {
		t.Fatalf("expected declined audit transaction: %v", err)
	}

	// 恢复支付后可再次批准，declined 审计记录被原位改写
	env.collaborator.chargeErr = nil
	if _, _, err := env.partnershipSvc.Approve(request.ID, recipient.ID); err != nil {
		t.Fatalf("retry approve failed: %v", err)
	}
	var retried models.BillingTransaction
	if err := env.db.Where("id = ?", declined.ID).First(&retried).Error; err != nil {
		t.Fatalf("reload declined record failed: %v", err)
	}
	if retried.Status != constants.BillingStatusCharged {
		t.Fatalf("declined record should be overwritten on retry, got %s", retried.Status)
	}
}

func TestPartnershipCancel(t *testing.T) {
	env := setupServiceTest(t, "partnership_cancel")
	sender, recipient := setupPartnershipPair(t, env)

	request, _, err := env.partnershipSvc.Send(SendPartnerRequestInput{
		SenderID:    sender.ID,
		RecipientID: recipient.ID,
	})
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}
	cancelled, err := env.partnershipSvc.Cancel(request.ID, sender.ID)
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if cancelled.Status != constants.PartnerRequestStatusCancelled || cancelled.ClosedAt == nil {
		t.Fatalf("unexpected cancelled request: %+v", cancelled)
	}
	// 终态不可再批准
	if _, _, err := env.partnershipSvc.Approve(request.ID, recipient.ID); !errors.Is(err, ErrPartnerRequestTerminal) {
		t.Fatalf("expected ErrPartnerRequestTerminal, got %v", err)
	}
}

func TestPartnershipUnpaidFeePayer(t *testing.T) {
	env := setupServiceTest(t, "partnership_unpaid_policy")
	request := &models.PartnerRequest{
		SenderID:             1,
		RecipientID:          2,
		SenderRedemptions:    3,
		RecipientRedemptions: 5,
	}
	if got := env.partnershipSvc.UnpaidFeePayer(request); got != 1 {
		t.Fatalf("fewest_redemptions should pick sender, got %d", got)
	}
	// 平手时曝光少的一方承担
	request.SenderRedemptions = 5
	request.SenderImpressions = 10
	request.RecipientImpressions = 2
	if got := env.partnershipSvc.UnpaidFeePayer(request); got != 2 {
		t.Fatalf("tie-break on impressions should pick recipient, got %d", got)
	}
}
