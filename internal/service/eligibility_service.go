package service

import (
	"github.com/promostreet/internal/constants"
	"github.com/promostreet/internal/models"
	"github.com/promostreet/internal/repository"

	"github.com/shopspring/decimal"
)

// Decision 资格判定结果
//
// Reason 为稳定拒绝原因码，前端按码展示提示；
// RequiresPayment 表示允许但需要实际扣款（信用不足以全额抵扣）。
type Decision struct {
	Allowed         bool   `json:"allowed"`
	Reason          string `json:"reason,omitempty"`
	RequiresPayment bool   `json:"requires_payment,omitempty"`
}

func allow(requiresPayment bool) Decision {
	return Decision{Allowed: true, RequiresPayment: requiresPayment}
}

func deny(reason string) Decision {
	return Decision{Allowed: false, Reason: reason}
}

// EligibilityService 资格判定服务
//
// 只读判定，不产生副作用；读状态失败一律返回 STATE_UNAVAILABLE，
// 由调用方重新拉取后重试。
type EligibilityService struct {
	offerRepo        repository.OfferRepository
	locationRepo     repository.LocationRepository
	partnerRepo      repository.PartnerRequestRepository
	subscriptionRepo repository.SubscriptionRepository
	creditRepo       repository.CreditRepository
	collaborator     PaymentCollaborator

	partnershipFee decimal.Decimal
	monthlyFee     decimal.Decimal
}

// NewEligibilityService 创建资格判定服务
func NewEligibilityService(
	offerRepo repository.OfferRepository,
	locationRepo repository.LocationRepository,
	partnerRepo repository.PartnerRequestRepository,
	subscriptionRepo repository.SubscriptionRepository,
	creditRepo repository.CreditRepository,
	collaborator PaymentCollaborator,
	partnershipFee decimal.Decimal,
	monthlyFee decimal.Decimal,
) *EligibilityService {
	return &EligibilityService{
		offerRepo:        offerRepo,
		locationRepo:     locationRepo,
		partnerRepo:      partnerRepo,
		subscriptionRepo: subscriptionRepo,
		creditRepo:       creditRepo,
		collaborator:     collaborator,
		partnershipFee:   partnershipFee.Round(2),
		monthlyFee:       monthlyFee.Round(2),
	}
}

// EnableOpenOffer 判定门店能否开启开放报价订阅
func (s *EligibilityService) EnableOpenOffer(location *models.Location) Decision {
	if location == nil || location.ID == 0 {
		return deny(constants.ReasonStateUnavailable)
	}
	activeOffers, err := s.offerRepo.CountActiveNonOpenByLocation(location.ID)
	if err != nil {
		return deny(constants.ReasonStateUnavailable)
	}
	if activeOffers > 0 {
		return deny(constants.ReasonActiveOfferConflict)
	}
	activePartnerships, err := s.partnerRepo.CountApprovedByLocation(location.ID)
	if err != nil {
		return deny(constants.ReasonStateUnavailable)
	}
	if activePartnerships > 0 {
		return deny(constants.ReasonActivePartnershipConflict)
	}
	offerCount, err := s.offerRepo.CountActiveByUser(location.UserID)
	if err != nil {
		return deny(constants.ReasonStateUnavailable)
	}
	if offerCount == 0 {
		return deny(constants.ReasonNoOffer)
	}
	return s.decideWithPayment(location.UserID, s.monthlyFee, "")
}

// DisableOpenOffer 判定能否取消订阅（总是允许，周期结束生效）
func (s *EligibilityService) DisableOpenOffer(location *models.Location) Decision {
	if location == nil || location.ID == 0 {
		return deny(constants.ReasonStateUnavailable)
	}
	return allow(false)
}

// SendPartnerRequest 判定发起方能否向接收方发起合作请求
func (s *EligibilityService) SendPartnerRequest(senderID, recipientID uint, promoCode string) Decision {
	if senderID == 0 || recipientID == 0 {
		return deny(constants.ReasonStateUnavailable)
	}
	if senderID == recipientID {
		return deny(constants.ReasonSelfRequest)
	}
	offerCount, err := s.offerRepo.CountActiveByUser(senderID)
	if err != nil {
		return deny(constants.ReasonStateUnavailable)
	}
	if offerCount == 0 {
		return deny(constants.ReasonNoOffer)
	}
	pending, err := s.partnerRepo.GetPendingBetween(senderID, recipientID)
	if err != nil {
		return deny(constants.ReasonStateUnavailable)
	}
	if pending != nil {
		return deny(constants.ReasonDuplicatePending)
	}
	senderOpen, err := s.hasOpenOffer(senderID)
	if err != nil {
		return deny(constants.ReasonStateUnavailable)
	}
	if senderOpen {
		return deny(constants.ReasonSenderOpenOffer)
	}
	recipientOpen, err := s.hasOpenOffer(recipientID)
	if err != nil {
		return deny(constants.ReasonStateUnavailable)
	}
	if recipientOpen {
		return deny(constants.ReasonRecipientOpenOffer)
	}
	return s.decideWithPayment(senderID, s.partnershipFee, promoCode)
}

// ApprovePartnerRequest 批准前复核双方状态（状态可能在 pending 期间漂移）
func (s *EligibilityService) ApprovePartnerRequest(request *models.PartnerRequest) Decision {
	if request == nil || request.ID == 0 {
		return deny(constants.ReasonStateUnavailable)
	}
	approverOpen, err := s.hasOpenOffer(request.RecipientID)
	if err != nil {
		return deny(constants.ReasonStateUnavailable)
	}
	if approverOpen {
		return deny(constants.ReasonApproverOpenOffer)
	}
	senderOpen, err := s.hasOpenOffer(request.SenderID)
	if err != nil {
		return deny(constants.ReasonStateUnavailable)
	}
	if senderOpen {
		return deny(constants.ReasonSenderOpenOffer)
	}
	return s.decideWithPayment(request.RecipientID, s.partnershipFee, "")
}

// CancelPartnership 取消伙伴关系总是允许
func (s *EligibilityService) CancelPartnership(request *models.PartnerRequest) Decision {
	if request == nil || request.ID == 0 {
		return deny(constants.ReasonStateUnavailable)
	}
	return allow(false)
}

// DeleteLocation 删除门店总是允许（级联由调用方执行）
func (s *EligibilityService) DeleteLocation(location *models.Location) Decision {
	if location == nil || location.ID == 0 {
		return deny(constants.ReasonStateUnavailable)
	}
	return allow(false)
}

func (s *EligibilityService) hasOpenOffer(userID uint) (bool, error) {
	subs, err := s.subscriptionRepo.ListActiveByUser(userID)
	if err != nil {
		return false, err
	}
	return len(subs) > 0, nil
}

// decideWithPayment 信用足额抵扣则无需支付方式；不足时必须已绑默认卡
func (s *EligibilityService) decideWithPayment(userID uint, fee decimal.Decimal, promoCode string) Decision {
	if promoCode != "" {
		return allow(false)
	}
	if fee.LessThanOrEqual(decimal.Zero) {
		return allow(false)
	}
	balance := decimal.Zero
	account, err := s.creditRepo.GetAccountByUserID(userID)
	if err != nil {
		return deny(constants.ReasonStateUnavailable)
	}
	if account != nil {
		balance = account.Balance.Decimal.Round(2)
	}
	if balance.GreaterThanOrEqual(fee) {
		return allow(true)
	}
	hasMethod, err := s.collaborator.HasDefaultMethod(userID)
	if err != nil {
		return deny(constants.ReasonStateUnavailable)
	}
	if !hasMethod {
		return deny(constants.ReasonPaymentRequired)
	}
	return allow(true)
}
