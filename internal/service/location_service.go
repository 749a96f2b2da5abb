package service

import (
	"strings"
	"time"

	"github.com/promostreet/internal/constants"
	"github.com/promostreet/internal/models"
	"github.com/promostreet/internal/repository"

	"gorm.io/gorm"
)

// LocationService 门店服务
//
// 删除门店是级联操作：相关伙伴关系取消、订阅停用、报价下线，
// 全部在同一事务内完成。
type LocationService struct {
	locationRepo     repository.LocationRepository
	offerRepo        repository.OfferRepository
	partnerRepo      repository.PartnerRequestRepository
	subscriptionRepo repository.SubscriptionRepository
}

// CreateLocationInput 创建门店输入
type CreateLocationInput struct {
	UserID          uint
	Name            string
	Address         string
	Latitude        float64
	Longitude       float64
	ChannelCategory string
}

// UpdateLocationInput 更新门店输入
type UpdateLocationInput struct {
	Name            *string
	Address         *string
	Latitude        *float64
	Longitude       *float64
	ChannelCategory *string
}

// NewLocationService 创建门店服务
func NewLocationService(
	locationRepo repository.LocationRepository,
	offerRepo repository.OfferRepository,
	partnerRepo repository.PartnerRequestRepository,
	subscriptionRepo repository.SubscriptionRepository,
) *LocationService {
	return &LocationService{
		locationRepo:     locationRepo,
		offerRepo:        offerRepo,
		partnerRepo:      partnerRepo,
		subscriptionRepo: subscriptionRepo,
	}
}

// Create 创建门店
func (s *LocationService) Create(input CreateLocationInput) (*models.Location, error) {
	name := strings.TrimSpace(input.Name)
	address := strings.TrimSpace(input.Address)
	if input.UserID == 0 || name == "" || address == "" {
		return nil, ErrLocationCreateFailed
	}
	category := strings.TrimSpace(input.ChannelCategory)
	if category == "" {
		category = constants.ChannelCategoryOther
	}
	now := time.Now()
	location := &models.Location{
		UserID:          input.UserID,
		Name:            name,
		Address:         address,
		Latitude:        input.Latitude,
		Longitude:       input.Longitude,
		ChannelCategory: category,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.locationRepo.Create(location); err != nil {
		return nil, ErrLocationCreateFailed
	}
	return location, nil
}

// Get 查询门店
func (s *LocationService) Get(id uint) (*models.Location, error) {
	location, err := s.locationRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if location == nil {
		return nil, ErrLocationNotFound
	}
	return location, nil
}

// GetOwned 查询当前用户门店
func (s *LocationService) GetOwned(userID, id uint) (*models.Location, error) {
	location, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if location.UserID != userID {
		return nil, ErrLocationForbidden
	}
	return location, nil
}

// ListByUser 查询用户门店列表
func (s *LocationService) ListByUser(userID uint) ([]models.Location, error) {
	return s.locationRepo.ListByUser(userID)
}

// LocationState 门店资格状态快照
type LocationState struct {
	Location           *models.Location              `json:"location"`
	ActiveOffers       []models.Offer                `json:"active_offers"`
	ActivePartnerships int64                         `json:"active_partnerships"`
	Subscription       *models.OpenOfferSubscription `json:"subscription,omitempty"`
	OpenOfferActive    bool                          `json:"open_offer_active"`
}

// State 读取门店的报价/合作/订阅状态快照
func (s *LocationService) State(userID, id uint) (*LocationState, error) {
	location, err := s.GetOwned(userID, id)
	if err != nil {
		return nil, err
	}
	offers, _, err := s.offerRepo.List(repository.OfferListFilter{
		Page:       1,
		PageSize:   100,
		LocationID: id,
		OnlyActive: true,
	})
	if err != nil {
		return nil, ErrStateUnavailable
	}
	partnerships, err := s.partnerRepo.CountApprovedByLocation(id)
	if err != nil {
		return nil, ErrStateUnavailable
	}
	sub, err := s.subscriptionRepo.GetByLocationID(id)
	if err != nil {
		return nil, ErrStateUnavailable
	}
	return &LocationState{
		Location:           location,
		ActiveOffers:       offers,
		ActivePartnerships: partnerships,
		Subscription:       sub,
		OpenOfferActive:    sub != nil && sub.Active,
	}, nil
}

// List 分页查询门店
func (s *LocationService) List(filter repository.LocationListFilter) ([]models.Location, int64, error) {
	return s.locationRepo.List(filter)
}

// Update 更新门店
func (s *LocationService) Update(userID, id uint, input UpdateLocationInput) (*models.Location, error) {
	location, err := s.GetOwned(userID, id)
	if err != nil {
		return nil, err
	}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, ErrLocationUpdateFailed
		}
		location.Name = name
	}
	if input.Address != nil {
		location.Address = strings.TrimSpace(*input.Address)
	}
	if input.Latitude != nil {
		location.Latitude = *input.Latitude
	}
	if input.Longitude != nil {
		location.Longitude = *input.Longitude
	}
	if input.ChannelCategory != nil {
		location.ChannelCategory = strings.TrimSpace(*input.ChannelCategory)
	}
	location.UpdatedAt = time.Now()
	if err := s.locationRepo.Update(location); err != nil {
		return nil, ErrLocationUpdateFailed
	}
	return location, nil
}

// Delete 删除门店并级联清理
func (s *LocationService) Delete(userID, id uint) error {
	location, err := s.GetOwned(userID, id)
	if err != nil {
		return err
	}
	now := time.Now()
	return models.DB.Transaction(func(tx *gorm.DB) error {
		locRepo := s.locationRepo.WithTx(tx)
		locked, lockErr := locRepo.GetByIDForUpdate(location.ID)
		if lockErr != nil {
			return ErrStateUnavailable
		}
		if locked == nil {
			return nil
		}

		partnerRepo := s.partnerRepo.WithTx(tx)
		requests, listErr := partnerRepo.ListActiveByLocation(locked.ID)
		if listErr != nil {
			return ErrStateUnavailable
		}
		for i := range requests {
			if _, casErr := partnerRepo.UpdateStatusIf(requests[i].ID, requests[i].Status,
				constants.PartnerRequestStatusCancelled,
				map[string]interface{}{"closed_at": now}); casErr != nil {
				return casErr
			}
		}

		if _, deactErr := s.offerRepo.WithTx(tx).DeactivateByLocation(locked.ID, now); deactErr != nil {
			return ErrOfferUpdateFailed
		}

		subRepo := s.subscriptionRepo.WithTx(tx)
		sub, subErr := subRepo.GetByLocationIDForUpdate(locked.ID)
		if subErr != nil {
			return ErrStateUnavailable
		}
		if sub != nil && sub.Active {
			sub.Active = false
			sub.CancelAtPeriodEnd = false
			sub.UpdatedAt = now
			if updErr := subRepo.Update(sub); updErr != nil {
				return ErrSubscriptionUpdateFailed
			}
		}

		return locRepo.Delete(locked.ID)
	})
}
