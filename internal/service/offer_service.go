package service

import (
	"strings"
	"time"

	"github.com/promostreet/internal/models"
	"github.com/promostreet/internal/repository"

	"gorm.io/gorm"
)

// OfferService 报价服务
type OfferService struct {
	offerRepo    repository.OfferRepository
	locationRepo repository.LocationRepository
	partnerRepo  repository.PartnerRequestRepository
}

// CreateOfferInput 创建报价输入
type CreateOfferInput struct {
	UserID       uint
	LocationID   uint
	CallToAction string
	CodePrefix   string
	ImageURL     string
	LogoURL      string
	IsOpenOffer  bool
	ExpiresAt    *time.Time
}

// UpdateOfferInput 更新报价输入
type UpdateOfferInput struct {
	CallToAction   *string
	ImageURL       *string
	LogoURL        *string
	IsActive       *bool
	ExpiresAt      *time.Time
	ClearExpiresAt bool
}

// NewOfferService 创建报价服务
func NewOfferService(
	offerRepo repository.OfferRepository,
	locationRepo repository.LocationRepository,
	partnerRepo repository.PartnerRequestRepository,
) *OfferService {
	return &OfferService{
		offerRepo:    offerRepo,
		locationRepo: locationRepo,
		partnerRepo:  partnerRepo,
	}
}

// Create 创建报价
//
// 仅开放报价模式的门店不能挂普通报价（互斥不变量）。
func (s *OfferService) Create(input CreateOfferInput) (*models.Offer, error) {
	cta := strings.TrimSpace(input.CallToAction)
	if cta == "" {
		return nil, ErrOfferInvalid
	}
	location, err := s.locationRepo.GetByID(input.LocationID)
	if err != nil {
		return nil, ErrStateUnavailable
	}
	if location == nil {
		return nil, ErrLocationNotFound
	}
	if location.UserID != input.UserID {
		return nil, ErrLocationForbidden
	}
	if location.OpenOfferOnly && !input.IsOpenOffer {
		return nil, ErrOpenOfferConflict
	}
	if input.ExpiresAt != nil && input.ExpiresAt.Before(time.Now()) {
		return nil, ErrOfferInvalid
	}

	now := time.Now()
	offer := &models.Offer{
		UserID:       input.UserID,
		LocationID:   input.LocationID,
		CallToAction: cta,
		CodePrefix:   strings.ToUpper(strings.TrimSpace(input.CodePrefix)),
		ImageURL:     strings.TrimSpace(input.ImageURL),
		LogoURL:      strings.TrimSpace(input.LogoURL),
		IsActive:     true,
		IsOpenOffer:  input.IsOpenOffer,
		ExpiresAt:    input.ExpiresAt,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.offerRepo.Create(offer); err != nil {
		return nil, ErrOfferCreateFailed
	}
	return offer, nil
}

// Get 查询报价
func (s *OfferService) Get(id uint) (*models.Offer, error) {
	offer, err := s.offerRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if offer == nil {
		return nil, ErrOfferNotFound
	}
	return offer, nil
}

// GetPublic 公开查询：只返回可兑换报价
func (s *OfferService) GetPublic(ref string) (*models.Offer, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, ErrOfferNotFound
	}
	offer, err := s.offerRepo.GetByCodePrefix(ref)
	if err != nil {
		return nil, ErrStateUnavailable
	}
	if offer == nil || !offer.RedeemableAt(time.Now()) {
		return nil, ErrOfferNotFound
	}
	return offer, nil
}

// Update 更新报价
//
// 普通报价重新上线前复核门店模式：订阅开启后门店已进入仅开放
// 报价模式，下线的普通报价不能借更新复活（互斥不变量）。
func (s *OfferService) Update(userID, offerID uint, input UpdateOfferInput) (*models.Offer, error) {
	offer, err := s.Get(offerID)
	if err != nil {
		return nil, err
	}
	if offer.UserID != userID {
		return nil, ErrOfferForbidden
	}
	reactivating := input.IsActive != nil && *input.IsActive && !offer.IsActive
	if input.CallToAction != nil {
		cta := strings.TrimSpace(*input.CallToAction)
		if cta == "" {
			return nil, ErrOfferInvalid
		}
		offer.CallToAction = cta
	}
	if input.ImageURL != nil {
		offer.ImageURL = strings.TrimSpace(*input.ImageURL)
	}
	if input.LogoURL != nil {
		offer.LogoURL = strings.TrimSpace(*input.LogoURL)
	}
	if input.IsActive != nil {
		offer.IsActive = *input.IsActive
	}
	if input.ClearExpiresAt {
		offer.ExpiresAt = nil
	} else if input.ExpiresAt != nil {
		offer.ExpiresAt = input.ExpiresAt
	}
	offer.UpdatedAt = time.Now()
	if reactivating && !offer.IsOpenOffer {
		err := models.DB.Transaction(func(tx *gorm.DB) error {
			location, lockErr := s.locationRepo.WithTx(tx).GetByIDForUpdate(offer.LocationID)
			if lockErr != nil || location == nil {
				return ErrStateUnavailable
			}
			if location.OpenOfferOnly {
				return ErrOpenOfferConflict
			}
			if updErr := s.offerRepo.WithTx(tx).Update(offer); updErr != nil {
				return ErrOfferUpdateFailed
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		return offer, nil
	}
	if err := s.offerRepo.Update(offer); err != nil {
		return nil, ErrOfferUpdateFailed
	}
	return offer, nil
}

// Deactivate 下线报价
func (s *OfferService) Deactivate(userID, offerID uint) (*models.Offer, error) {
	active := false
	return s.Update(userID, offerID, UpdateOfferInput{IsActive: &active})
}

// List 查询报价列表
func (s *OfferService) List(filter repository.OfferListFilter) ([]models.Offer, int64, error) {
	return s.offerRepo.List(filter)
}

// RecordView 记录伙伴渠道的报价曝光（尽力而为）
func (s *OfferService) RecordView(offerID uint, partnerRequestID uint) {
	if offerID == 0 || partnerRequestID == 0 {
		return
	}
	offer, err := s.offerRepo.GetByID(offerID)
	if err != nil || offer == nil {
		return
	}
	request, err := s.partnerRepo.GetByID(partnerRequestID)
	if err != nil || request == nil {
		return
	}
	senderSide := request.SenderLocationID != nil && *request.SenderLocationID == offer.LocationID
	_ = s.partnerRepo.IncrementImpressions(request.ID, senderSide)
}
