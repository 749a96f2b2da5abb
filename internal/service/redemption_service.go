package service

import (
	crand "crypto/rand"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"github.com/promostreet/internal/constants"
	"github.com/promostreet/internal/models"
	"github.com/promostreet/internal/repository"

	"gorm.io/gorm"
)

// RedemptionService 兑换码签发与核销服务
//
// Confirm 在行锁下做 issued->confirmed 的单次迁移：
// 两台设备同时扫码，恰好一台成功，另一台得到已核销错误且时间戳不变。
type RedemptionService struct {
	redemptionRepo repository.RedemptionRepository
	offerRepo      repository.OfferRepository
	partnerRepo    repository.PartnerRequestRepository

	canonicalHost string
}

// IssueRedemptionInput 签发输入
type IssueRedemptionInput struct {
	OfferRef         string
	LocationID       uint
	PartnerRequestID *uint
	ReferrerHost     string
}

// NewRedemptionService 创建兑换码服务
func NewRedemptionService(
	redemptionRepo repository.RedemptionRepository,
	offerRepo repository.OfferRepository,
	partnerRepo repository.PartnerRequestRepository,
	canonicalHost string,
) *RedemptionService {
	return &RedemptionService{
		redemptionRepo: redemptionRepo,
		offerRepo:      offerRepo,
		partnerRepo:    partnerRepo,
		canonicalHost:  strings.ToLower(strings.TrimSpace(canonicalHost)),
	}
}

// Issue 为报价签发兑换码
//
// OfferRef 支持数字ID或兑换码前缀；开放报价只允许平台规范
// 引荐路径兑换，伙伴渠道的开放报价曝光不可独立兑换。
func (s *RedemptionService) Issue(input IssueRedemptionInput) (*models.Redemption, error) {
	offer, err := s.resolveOffer(input.OfferRef)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	if offer.Expired(now) {
		return nil, ErrOfferExpired
	}
	if !offer.RedeemableAt(now) {
		return nil, ErrOfferNotFound
	}
	if offer.IsOpenOffer {
		if input.PartnerRequestID != nil && *input.PartnerRequestID != 0 {
			return nil, ErrRedemptionNotEligible
		}
		if !s.referrerAllowed(input.ReferrerHost) {
			return nil, ErrRedemptionNotEligible
		}
	}

	locationID := input.LocationID
	if locationID == 0 {
		locationID = offer.LocationID
	}

	redemption := &models.Redemption{
		OfferID:          offer.ID,
		LocationID:       locationID,
		PartnerRequestID: input.PartnerRequestID,
		ReferrerHost:     strings.ToLower(strings.TrimSpace(input.ReferrerHost)),
		Code:             generateRedemptionCode(offer.CodePrefix),
		Status:           constants.RedemptionStatusIssued,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.redemptionRepo.Create(redemption); err != nil {
		return nil, ErrRedemptionCreateFailed
	}
	return redemption, nil
}

// Confirm 确认核销（至多一次）
func (s *RedemptionService) Confirm(code string) (*models.Redemption, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ErrRedemptionNotFound
	}
	var (
		result  *models.Redemption
		demoted bool
	)
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		repo := s.redemptionRepo.WithTx(tx)
		redemption, err := repo.GetByCodeForUpdate(code)
		if err != nil {
			return ErrStateUnavailable
		}
		if redemption == nil {
			return ErrRedemptionNotFound
		}
		switch redemption.Status {
		case constants.RedemptionStatusConfirmed:
			result = redemption
			return ErrRedemptionRedeemed
		case constants.RedemptionStatusExpired:
			return ErrRedemptionExpired
		case constants.RedemptionStatusIssued:
		default:
			return ErrRedemptionNotFound
		}

		now := time.Now()
		offer, err := s.offerRepo.WithTx(tx).GetByID(redemption.OfferID)
		if err != nil {
			return ErrStateUnavailable
		}
		if offer == nil || offer.Expired(now) {
			// 降级写入必须随事务提交，带错误返回会被整体回滚
			redemption.Status = constants.RedemptionStatusExpired
			redemption.UpdatedAt = now
			if updErr := repo.Update(redemption); updErr != nil {
				return ErrRedemptionUpdateFailed
			}
			demoted = true
			return nil
		}

		redemption.Status = constants.RedemptionStatusConfirmed
		redemption.RedeemedAt = &now
		redemption.UpdatedAt = now
		if err := repo.Update(redemption); err != nil {
			return ErrRedemptionUpdateFailed
		}

		if err := s.bumpPartnerCounters(tx, redemption); err != nil {
			return err
		}
		result = redemption
		return nil
	})
	if err != nil {
		return result, err
	}
	if demoted {
		return nil, ErrRedemptionExpired
	}
	return result, nil
}

// SweepExpired 过期清扫：父报价过期的未确认码置为 expired
func (s *RedemptionService) SweepExpired(now time.Time) (int64, error) {
	return s.redemptionRepo.ExpireIssuedForExpiredOffers(now)
}

// List 查询核销记录
func (s *RedemptionService) List(filter repository.RedemptionListFilter) ([]models.Redemption, int64, error) {
	return s.redemptionRepo.List(filter)
}

func (s *RedemptionService) bumpPartnerCounters(tx *gorm.DB, redemption *models.Redemption) error {
	if redemption.PartnerRequestID == nil || *redemption.PartnerRequestID == 0 {
		return nil
	}
	repo := s.partnerRepo.WithTx(tx)
	request, err := repo.GetByID(*redemption.PartnerRequestID)
	if err != nil || request == nil {
		return nil
	}
	senderSide := request.SenderLocationID != nil && *request.SenderLocationID == redemption.LocationID
	return repo.IncrementRedemptions(request.ID, senderSide)
}

// referrerAllowed 空 referrer 或指向平台规范主机的 referrer 视为规范路径
func (s *RedemptionService) referrerAllowed(referrerHost string) bool {
	host := strings.ToLower(strings.TrimSpace(referrerHost))
	if host == "" {
		return true
	}
	if s.canonicalHost == "" {
		return false
	}
	return host == s.canonicalHost || strings.HasSuffix(host, "."+s.canonicalHost)
}

func (s *RedemptionService) resolveOffer(ref string) (*models.Offer, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, ErrOfferNotFound
	}
	if id, err := strconv.ParseUint(ref, 10, 64); err == nil && id > 0 {
		offer, getErr := s.offerRepo.GetByID(uint(id))
		if getErr != nil {
			return nil, ErrStateUnavailable
		}
		if offer != nil {
			return offer, nil
		}
	}
	offer, err := s.offerRepo.GetByCodePrefix(ref)
	if err != nil {
		return nil, ErrStateUnavailable
	}
	if offer == nil {
		return nil, ErrOfferNotFound
	}
	return offer, nil
}

// generateRedemptionCode 128 位随机数 hex 编码，可选报价前缀
func generateRedemptionCode(prefix string) string {
	buf := make([]byte, 16)
	if _, err := crand.Read(buf); err != nil {
		// crypto/rand 不可用时回退到时间纳秒，仍保持唯一索引兜底
		return strings.ToUpper(prefix) + "-" + strconv.FormatInt(time.Now().UnixNano(), 36)
	}
	code := strings.ToUpper(hex.EncodeToString(buf))
	prefix = strings.ToUpper(strings.TrimSpace(prefix))
	if prefix == "" {
		return code
	}
	return prefix + "-" + code
}
