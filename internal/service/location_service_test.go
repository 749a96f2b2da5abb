package service

import (
	"errors"
	"testing"
	"time"

	"github.com/promostreet/internal/constants"
	"github.com/promostreet/internal/models"
)

func TestLocationDeleteCascades(t *testing.T) {
	env := setupServiceTest(t, "location_cascade")
	user := createTestUser(t, env.db, 1)
	partner := createTestUser(t, env.db, 2)
	location := createTestLocation(t, env.db, user.ID)
	partnerLoc := createTestLocation(t, env.db, partner.ID)
	offer := createTestOffer(t, env.db, user.ID, location.ID, false)

	request := &models.PartnerRequest{
		SenderID:            user.ID,
		RecipientID:         partner.ID,
		SenderLocationID:    &location.ID,
		RecipientLocationID: &partnerLoc.ID,
		Status:              constants.PartnerRequestStatusApproved,
		CreatedAt:           time.Now(),
		UpdatedAt:           time.Now(),
	}
	if err := env.db.Create(request).Error; err != nil {
		t.Fatalf("create partnership failed: %v", err)
	}
	sub := &models.OpenOfferSubscription{
		LocationID:       location.ID,
		UserID:           user.ID,
		Active:           true,
		MonthlyFee:       models.NewMoneyFromString("25.00"),
		CurrentPeriodEnd: time.Now().AddDate(0, 1, 0),
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
	}
	if err := env.db.Create(sub).Error; err != nil {
		t.Fatalf("create subscription failed: %v", err)
	}

	if err := env.locationSvc.Delete(user.ID, location.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	var reloadedRequest models.PartnerRequest
	env.db.First(&reloadedRequest, request.ID)
	if reloadedRequest.Status != constants.PartnerRequestStatusCancelled || reloadedRequest.ClosedAt == nil {
		t.Fatalf("partnership should be cancelled: %+v", reloadedRequest)
	}

	var reloadedOffer models.Offer
	env.db.First(&reloadedOffer, offer.ID)
	if reloadedOffer.IsActive {
		t.Fatalf("offer should be deactivated")
	}

	var reloadedSub models.OpenOfferSubscription
	env.db.First(&reloadedSub, sub.ID)
	if reloadedSub.Active {
		t.Fatalf("subscription should stop")
	}

	if _, err := env.locationSvc.Get(location.ID); !errors.Is(err, ErrLocationNotFound) {
		t.Fatalf("location should be gone, got %v", err)
	}
}

func TestLocationDeleteForbiddenForOtherUser(t *testing.T) {
	env := setupServiceTest(t, "location_forbidden")
	owner := createTestUser(t, env.db, 1)
	intruder := createTestUser(t, env.db, 2)
	location := createTestLocation(t, env.db, owner.ID)

	if err := env.locationSvc.Delete(intruder.ID, location.ID); !errors.Is(err, ErrLocationForbidden) {
		t.Fatalf("expected ErrLocationForbidden, got %v", err)
	}
}

func TestOfferCreateBlockedOnOpenOfferOnlyLocation(t *testing.T) {
	env := setupServiceTest(t, "offer_mutual_exclusion")
	user := createTestUser(t, env.db, 1)
	location := createTestLocation(t, env.db, user.ID)
	env.db.Model(location).Update("open_offer_only", true)

	_, err := env.offerSvc.Create(CreateOfferInput{
		UserID:       user.ID,
		LocationID:   location.ID,
		CallToAction: "满100减20",
	})
	if !errors.Is(err, ErrOpenOfferConflict) {
		t.Fatalf("expected ErrOpenOfferConflict, got %v", err)
	}

	// 开放报价形态不受互斥限制
	if _, err := env.offerSvc.Create(CreateOfferInput{
		UserID:       user.ID,
		LocationID:   location.ID,
		CallToAction: "满100减20",
		IsOpenOffer:  true,
	}); err != nil {
		t.Fatalf("open offer create failed: %v", err)
	}
}

func TestLocationStateSnapshot(t *testing.T) {
	env := setupServiceTest(t, "location_state")
	user := createTestUser(t, env.db, 1)
	location := createTestLocation(t, env.db, user.ID)
	offer := createTestOffer(t, env.db, user.ID, location.ID, false)

	state, err := env.locationSvc.State(user.ID, location.ID)
	if err != nil {
		t.Fatalf("state snapshot failed: %v", err)
	}
	if state.Location == nil || state.Location.ID != location.ID {
		t.Fatalf("snapshot location mismatch")
	}
	if len(state.ActiveOffers) != 1 || state.ActiveOffers[0].ID != offer.ID {
		t.Fatalf("active offers want [%d], got %v", offer.ID, state.ActiveOffers)
	}
	if state.ActivePartnerships != 0 {
		t.Fatalf("active partnerships want 0, got %d", state.ActivePartnerships)
	}
	if state.OpenOfferActive || state.Subscription != nil {
		t.Fatalf("expected no open offer subscription in snapshot")
	}

	if _, err := env.locationSvc.State(user.ID+1, location.ID); !errors.Is(err, ErrLocationForbidden) {
		t.Fatalf("expected ErrLocationForbidden for other user, got %v", err)
	}
}
