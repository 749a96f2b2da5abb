package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/promostreet/internal/constants"
	"github.com/promostreet/internal/models"
	"github.com/promostreet/internal/repository"

	"gorm.io/gorm"
)

// PartnershipService 伙伴关系服务
//
// 批准是终态迁移，靠 status 上的 compare-and-swap 保证双边计费
// 恰好触发一次；卡拒绝时迁移随事务整体回滚。
type PartnershipService struct {
	partnerRepo    repository.PartnerRequestRepository
	userRepo       repository.UserRepository
	locationRepo   repository.LocationRepository
	eligibilitySvc *EligibilityService
	billingSvc     *BillingService

	partnershipFee  models.Money
	unpaidFeePolicy string
}

// SendPartnerRequestInput 发起合作请求输入
type SendPartnerRequestInput struct {
	SenderID            uint
	RecipientID         uint
	SenderLocationID    *uint
	RecipientLocationID *uint
	PromoCode           string
}

// NewPartnershipService 创建伙伴关系服务
func NewPartnershipService(
	partnerRepo repository.PartnerRequestRepository,
	userRepo repository.UserRepository,
	locationRepo repository.LocationRepository,
	eligibilitySvc *EligibilityService,
	billingSvc *BillingService,
	partnershipFee models.Money,
	unpaidFeePolicy string,
) *PartnershipService {
	policy := strings.TrimSpace(unpaidFeePolicy)
	if policy != constants.UnpaidFeePolicyMostRedemptions {
		policy = constants.UnpaidFeePolicyFewestRedemptions
	}
	return &PartnershipService{
		partnerRepo:     partnerRepo,
		userRepo:        userRepo,
		locationRepo:    locationRepo,
		eligibilitySvc:  eligibilitySvc,
		billingSvc:      billingSvc,
		partnershipFee:  partnershipFee,
		unpaidFeePolicy: policy,
	}
}

// GetByID 查询合作请求
func (s *PartnershipService) GetByID(id uint) (*models.PartnerRequest, error) {
	request, err := s.partnerRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if request == nil {
		return nil, ErrPartnerRequestNotFound
	}
	return request, nil
}

// List 查询合作请求列表
func (s *PartnershipService) List(filter repository.PartnerRequestListFilter) ([]models.PartnerRequest, int64, error) {
	return s.partnerRepo.List(filter)
}

// Send 发起合作请求
func (s *PartnershipService) Send(input SendPartnerRequestInput) (*models.PartnerRequest, Decision, error) {
	recipient, err := s.userRepo.GetByID(input.RecipientID)
	if err != nil {
		return nil, deny(constants.ReasonStateUnavailable), ErrStateUnavailable
	}
	if recipient == nil || recipient.Status != constants.UserStatusActive {
		return nil, deny(constants.ReasonStateUnavailable), ErrUserNotFound
	}

	promoCode := strings.TrimSpace(input.PromoCode)
	if promoCode != "" {
		if _, promoErr := s.billingSvc.ValidatePromoCode(promoCode); promoErr != nil {
			return nil, Decision{}, promoErr
		}
	}

	decision := s.eligibilitySvc.SendPartnerRequest(input.SenderID, input.RecipientID, promoCode)
	if !decision.Allowed {
		if decision.Reason == constants.ReasonStateUnavailable {
			return nil, decision, ErrStateUnavailable
		}
		return nil, decision, ErrEligibilityDenied
	}

	now := time.Now()
	pairKey := pendingPairKey(input.SenderID, input.RecipientID)
	request := &models.PartnerRequest{
		SenderID:            input.SenderID,
		RecipientID:         input.RecipientID,
		SenderLocationID:    input.SenderLocationID,
		RecipientLocationID: input.RecipientLocationID,
		Status:              constants.PartnerRequestStatusPending,
		PendingPairKey:      &pairKey,
		SenderPromoCode:     promoCode,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := s.partnerRepo.Create(request); err != nil {
		// 并发发起时资格预检可能双双通过，唯一索引兜住第二条
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, deny(constants.ReasonDuplicatePending), ErrEligibilityDenied
		}
		return nil, decision, ErrPartnerRequestCreateFailed
	}
	return request, decision, nil
}

// Approve 批准合作请求并触发双边计费
//
// CAS 迁移 pending->approved 后在同一事务内为双方各落一笔费用；
// 任一方硬拒绝则整个事务回滚，请求保持 pending，另记一条 declined 审计流水。
func (s *PartnershipService) Approve(requestID, approverID uint) (*models.PartnerRequest, Decision, error) {
	request, err := s.partnerRepo.GetByID(requestID)
	if err != nil {
		return nil, deny(constants.ReasonStateUnavailable), ErrStateUnavailable
	}
	if request == nil {
		return nil, Decision{}, ErrPartnerRequestNotFound
	}
	if request.RecipientID != approverID {
		return nil, Decision{}, ErrPartnerRequestForbidden
	}
	if request.Status != constants.PartnerRequestStatusPending {
		return nil, Decision{}, ErrPartnerRequestTerminal
	}

	decision := s.eligibilitySvc.ApprovePartnerRequest(request)
	if !decision.Allowed {
		if decision.Reason == constants.ReasonStateUnavailable {
			return nil, decision, ErrStateUnavailable
		}
		return nil, decision, ErrEligibilityDenied
	}

	var (
		declinedUserID uint
		declinedInput  ChargeInput
	)
	now := time.Now()
	err = s.partnerRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.partnerRepo.WithTx(tx)
		affected, casErr := repo.UpdateStatusIf(request.ID,
			constants.PartnerRequestStatusPending,
			constants.PartnerRequestStatusApproved,
			map[string]interface{}{"approved_at": now})
		if casErr != nil {
			return casErr
		}
		if affected == 0 {
			return ErrPartnerRequestConflict
		}

		senderInput := ChargeInput{
			UserID:    request.SenderID,
			Amount:    s.partnershipFee,
			Reason:    constants.CreditReasonPartnershipCharge,
			Reference: partnershipFeeReference(request.ID, "sender"),
			PromoCode: request.SenderPromoCode,
			Remark:    "合作费用（发起方）",
		}
		if _, billErr := s.billingSvc.ChargeInTx(tx, senderInput); billErr != nil {
			if errors.Is(billErr, ErrPaymentDeclined) {
				declinedUserID = request.SenderID
				declinedInput = senderInput
			}
			return billErr
		}

		recipientInput := ChargeInput{
			UserID:    request.RecipientID,
			Amount:    s.partnershipFee,
			Reason:    constants.CreditReasonPartnershipCharge,
			Reference: partnershipFeeReference(request.ID, "recipient"),
			Remark:    "合作费用（接收方）",
		}
		if _, billErr := s.billingSvc.ChargeInTx(tx, recipientInput); billErr != nil {
			if errors.Is(billErr, ErrPaymentDeclined) {
				declinedUserID = request.RecipientID
				declinedInput = recipientInput
			}
			return billErr
		}
		return nil
	})
	if err != nil {
		if declinedUserID != 0 {
			// 事务已回滚，留一条 declined 流水供账单页追溯
			if _, auditErr := s.billingSvc.RecordDeclined(declinedInput); auditErr != nil {
				return nil, decision, auditErr
			}
		}
		return nil, decision, err
	}

	request.Status = constants.PartnerRequestStatusApproved
	request.ApprovedAt = &now
	request.UpdatedAt = now
	return request, decision, nil
}

// Reject 拒绝合作请求
func (s *PartnershipService) Reject(requestID, approverID uint) (*models.PartnerRequest, error) {
	return s.close(requestID, approverID, constants.PartnerRequestStatusPending,
		constants.PartnerRequestStatusRejected, func(r *models.PartnerRequest) bool {
			return r.RecipientID == approverID
		})
}

// Cancel 取消合作（pending 由任一方取消；approved 由任一方终止）
func (s *PartnershipService) Cancel(requestID, userID uint) (*models.PartnerRequest, error) {
	request, err := s.partnerRepo.GetByID(requestID)
	if err != nil {
		return nil, ErrStateUnavailable
	}
	if request == nil {
		return nil, ErrPartnerRequestNotFound
	}
	from := request.Status
	if from != constants.PartnerRequestStatusPending && from != constants.PartnerRequestStatusApproved {
		return nil, ErrPartnerRequestTerminal
	}
	return s.close(requestID, userID, from,
		constants.PartnerRequestStatusCancelled, func(r *models.PartnerRequest) bool {
			return r.SenderID == userID || r.RecipientID == userID
		})
}

// RecordImpression 记录伙伴侧曝光（尽力而为，失败不阻断展示）
func (s *PartnershipService) RecordImpression(requestID uint, senderSide bool) error {
	return s.partnerRepo.IncrementImpressions(requestID, senderSide)
}

// UnpaidFeePayer 按配置策略判定未付费用的承担方
//
// fewest_redemptions：核销数少（平手时曝光少）的一方承担；
// most_redemptions 取反。
func (s *PartnershipService) UnpaidFeePayer(request *models.PartnerRequest) uint {
	if request == nil {
		return 0
	}
	senderScore := request.SenderRedemptions
	recipientScore := request.RecipientRedemptions
	senderFewer := senderScore < recipientScore
	if senderScore == recipientScore {
		senderFewer = request.SenderImpressions <= request.RecipientImpressions
	}
	if s.unpaidFeePolicy == constants.UnpaidFeePolicyMostRedemptions {
		senderFewer = !senderFewer
	}
	if senderFewer {
		return request.SenderID
	}
	return request.RecipientID
}

func (s *PartnershipService) close(requestID, actorID uint, from, to string, allowed func(*models.PartnerRequest) bool) (*models.PartnerRequest, error) {
	request, err := s.partnerRepo.GetByID(requestID)
	if err != nil {
		return nil, ErrStateUnavailable
	}
	if request == nil {
		return nil, ErrPartnerRequestNotFound
	}
	if !allowed(request) {
		return nil, ErrPartnerRequestForbidden
	}
	if request.Status != from {
		return nil, ErrPartnerRequestTerminal
	}
	now := time.Now()
	affected, err := s.partnerRepo.UpdateStatusIf(requestID, from, to,
		map[string]interface{}{"closed_at": now})
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, ErrPartnerRequestConflict
	}
	request.Status = to
	request.ClosedAt = &now
	request.UpdatedAt = now
	return request, nil
}

func partnershipFeeReference(requestID uint, side string) string {
	return fmt.Sprintf("partner_request:%d:%s", requestID, side)
}

// pendingPairKey 同一有向对的 pending 唯一键（终态迁移时清空释放）
func pendingPairKey(senderID, recipientID uint) string {
	return fmt.Sprintf("%d:%d", senderID, recipientID)
}
