package service

import (
	"testing"
	"time"

	"github.com/promostreet/internal/constants"
	"github.com/promostreet/internal/models"
)

func TestSendPartnerRequestSelfDenied(t *testing.T) {
	env := setupServiceTest(t, "eligibility_self")
	user := createTestUser(t, env.db, 1)

	decision := env.eligibilitySvc.SendPartnerRequest(user.ID, user.ID, "")
	if decision.Allowed {
		t.Fatalf("expected self request to be denied")
	}
	if decision.Reason != constants.ReasonSelfRequest {
		t.Fatalf("reason want %s got %s", constants.ReasonSelfRequest, decision.Reason)
	}
}

func TestSendPartnerRequestNoOfferDenied(t *testing.T) {
	env := setupServiceTest(t, "eligibility_no_offer")
	sender := createTestUser(t, env.db, 1)
	recipient := createTestUser(t, env.db, 2)

	decision := env.eligibilitySvc.SendPartnerRequest(sender.ID, recipient.ID, "")
	if decision.Allowed {
		t.Fatalf("expected sender without active offer to be denied")
	}
	if decision.Reason != constants.ReasonNoOffer {
		t.Fatalf("reason want %s got %s", constants.ReasonNoOffer, decision.Reason)
	}
}

func TestSendPartnerRequestAllowedWithDefaultMethod(t *testing.T) {
	env := setupServiceTest(t, "eligibility_allowed")
	sender := createTestUser(t, env.db, 1)
	recipient := createTestUser(t, env.db, 2)
	location := createTestLocation(t, env.db, sender.ID)
	createTestOffer(t, env.db, sender.ID, location.ID, false)

	decision := env.eligibilitySvc.SendPartnerRequest(sender.ID, recipient.ID, "")
	if !decision.Allowed {
		t.Fatalf("expected allow, got reason %s", decision.Reason)
	}
	if !decision.RequiresPayment {
		t.Fatalf("expected requires_payment=true for fee without promo code")
	}
}

func TestSendPartnerRequestPaymentRequired(t *testing.T) {
	env := setupServiceTest(t, "eligibility_payment_required")
	env.collaborator.hasDefault = false
	sender := createTestUser(t, env.db, 1)
	recipient := createTestUser(t, env.db, 2)
	location := createTestLocation(t, env.db, sender.ID)
	createTestOffer(t, env.db, sender.ID, location.ID, false)

	decision := env.eligibilitySvc.SendPartnerRequest(sender.ID, recipient.ID, "")
	if decision.Allowed {
		t.Fatalf("expected deny without default payment method")
	}
	if decision.Reason != constants.ReasonPaymentRequired {
		t.Fatalf("reason want %s got %s", constants.ReasonPaymentRequired, decision.Reason)
	}
}

func TestSendPartnerRequestCreditCoversFee(t *testing.T) {
	env := setupServiceTest(t, "eligibility_credit_covers")
	env.collaborator.hasDefault = false
	sender := createTestUser(t, env.db, 1)
	recipient := createTestUser(t, env.db, 2)
	location := createTestLocation(t, env.db, sender.ID)
	createTestOffer(t, env.db, sender.ID, location.ID, false)
	addTestCredit(t, env, sender.ID, "10.00")

	decision := env.eligibilitySvc.SendPartnerRequest(sender.ID, recipient.ID, "")
	if !decision.Allowed {
		t.Fatalf("expected allow when credit covers fee, got reason %s", decision.Reason)
	}
}

func TestSendPartnerRequestPromoCodeSkipsPaymentCheck(t *testing.T) {
	env := setupServiceTest(t, "eligibility_promo")
	env.collaborator.hasDefault = false
	sender := createTestUser(t, env.db, 1)
	recipient := createTestUser(t, env.db, 2)
	location := createTestLocation(t, env.db, sender.ID)
	createTestOffer(t, env.db, sender.ID, location.ID, false)

	decision := env.eligibilitySvc.SendPartnerRequest(sender.ID, recipient.ID, "WELCOME")
	if !decision.Allowed {
		t.Fatalf("expected allow with promo code, got reason %s", decision.Reason)
	}
	if decision.RequiresPayment {
		t.Fatalf("promo code path should not require payment")
	}
}

func TestSendPartnerRequestDuplicatePending(t *testing.T) {
	env := setupServiceTest(t, "eligibility_duplicate")
	sender := createTestUser(t, env.db, 1)
	recipient := createTestUser(t, env.db, 2)
	location := createTestLocation(t, env.db, sender.ID)
	createTestOffer(t, env.db, sender.ID, location.ID, false)

	pending := &models.PartnerRequest{
		SenderID:    sender.ID,
		RecipientID: recipient.ID,
		Status:      constants.PartnerRequestStatusPending,
	}
	if err := env.db.Create(pending).Error; err != nil {
		t.Fatalf("create pending request failed: %v", err)
	}

	decision := env.eligibilitySvc.SendPartnerRequest(sender.ID, recipient.ID, "")
	if decision.Allowed {
		t.Fatalf("expected duplicate pending to be denied")
	}
	if decision.Reason != constants.ReasonDuplicatePending {
		t.Fatalf("reason want %s got %s", constants.ReasonDuplicatePending, decision.Reason)
	}
}

func TestSendPartnerRequestRecipientOpenOffer(t *testing.T) {
	env := setupServiceTest(t, "eligibility_recipient_open")
	sender := createTestUser(t, env.db, 1)
	recipient := createTestUser(t, env.db, 2)
	senderLoc := createTestLocation(t, env.db, sender.ID)
	createTestOffer(t, env.db, sender.ID, senderLoc.ID, false)

	recipientLoc := createTestLocation(t, env.db, recipient.ID)
	sub := &models.OpenOfferSubscription{
		LocationID:       recipientLoc.ID,
		UserID:           recipient.ID,
		Active:           true,
		MonthlyFee:       models.NewMoneyFromString("25.00"),
		CurrentPeriodEnd: time.Now().AddDate(0, 1, 0),
	}
	if err := env.db.Create(sub).Error; err != nil {
		t.Fatalf("create subscription failed: %v", err)
	}

	decision := env.eligibilitySvc.SendPartnerRequest(sender.ID, recipient.ID, "")
	if decision.Allowed {
		t.Fatalf("expected recipient open offer to be denied")
	}
	if decision.Reason != constants.ReasonRecipientOpenOffer {
		t.Fatalf("reason want %s got %s", constants.ReasonRecipientOpenOffer, decision.Reason)
	}
}

func TestEnableOpenOfferActiveOfferConflict(t *testing.T) {
	env := setupServiceTest(t, "eligibility_open_conflict")
	user := createTestUser(t, env.db, 1)
	location := createTestLocation(t, env.db, user.ID)
	createTestOffer(t, env.db, user.ID, location.ID, false)

	decision := env.eligibilitySvc.EnableOpenOffer(location)
	if decision.Allowed {
		t.Fatalf("expected active offer on location to block open offer")
	}
	if decision.Reason != constants.ReasonActiveOfferConflict {
		t.Fatalf("reason want %s got %s", constants.ReasonActiveOfferConflict, decision.Reason)
	}
}

func TestEnableOpenOfferAllowedOnSecondLocation(t *testing.T) {
	env := setupServiceTest(t, "eligibility_open_allowed")
	user := createTestUser(t, env.db, 1)
	offerLoc := createTestLocation(t, env.db, user.ID)
	createTestOffer(t, env.db, user.ID, offerLoc.ID, false)
	openLoc := createTestLocation(t, env.db, user.ID)

	decision := env.eligibilitySvc.EnableOpenOffer(openLoc)
	if !decision.Allowed {
		t.Fatalf("expected allow on location without offers, got reason %s", decision.Reason)
	}
	if !decision.RequiresPayment {
		t.Fatalf("expected monthly fee to require payment")
	}
}

func TestEnableOpenOfferNoOfferDenied(t *testing.T) {
	env := setupServiceTest(t, "eligibility_open_no_offer")
	user := createTestUser(t, env.db, 1)
	location := createTestLocation(t, env.db, user.ID)

	decision := env.eligibilitySvc.EnableOpenOffer(location)
	if decision.Allowed {
		t.Fatalf("expected user without any active offer to be denied")
	}
	if decision.Reason != constants.ReasonNoOffer {
		t.Fatalf("reason want %s got %s", constants.ReasonNoOffer, decision.Reason)
	}
}

func TestApprovePartnerRequestApproverOpenOffer(t *testing.T) {
	env := setupServiceTest(t, "eligibility_approve_open")
	sender := createTestUser(t, env.db, 1)
	recipient := createTestUser(t, env.db, 2)
	senderLoc := createTestLocation(t, env.db, sender.ID)
	createTestOffer(t, env.db, sender.ID, senderLoc.ID, false)

	recipientLoc := createTestLocation(t, env.db, recipient.ID)
	sub := &models.OpenOfferSubscription{
		LocationID:       recipientLoc.ID,
		UserID:           recipient.ID,
		Active:           true,
		MonthlyFee:       models.NewMoneyFromString("25.00"),
		CurrentPeriodEnd: time.Now().AddDate(0, 1, 0),
	}
	if err := env.db.Create(sub).Error; err != nil {
		t.Fatalf("create subscription failed: %v", err)
	}

	request := &models.PartnerRequest{
		SenderID:    sender.ID,
		RecipientID: recipient.ID,
		Status:      constants.PartnerRequestStatusPending,
	}
	if err := env.db.Create(request).Error; err != nil {
		t.Fatalf("create request failed: %v", err)
	}

	decision := env.eligibilitySvc.ApprovePartnerRequest(request)
	if decision.Allowed {
		t.Fatalf("expected approver open offer to be denied")
	}
	if decision.Reason != constants.ReasonApproverOpenOffer {
		t.Fatalf("reason want %s got %s", constants.ReasonApproverOpenOffer, decision.Reason)
	}
}
