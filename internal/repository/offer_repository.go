package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/promostreet/internal/models"

	"gorm.io/gorm"
)

// OfferRepository 报价数据访问接口
type OfferRepository interface {
	GetByID(id uint) (*models.Offer, error)
	GetByCodePrefix(prefix string) (*models.Offer, error)
	CountActiveNonOpenByLocation(locationID uint) (int64, error)
	CountActiveByUser(userID uint) (int64, error)
	FirstActiveByUser(userID uint) (*models.Offer, error)
	Create(offer *models.Offer) error
	Update(offer *models.Offer) error
	DeactivateByLocation(locationID uint, now time.Time) (int64, error)
	List(filter OfferListFilter) ([]models.Offer, int64, error)
	WithTx(tx *gorm.DB) *GormOfferRepository
}

// GormOfferRepository GORM 报价仓储实现
type GormOfferRepository struct {
	db *gorm.DB
}

// NewOfferRepository 创建报价仓储
func NewOfferRepository(db *gorm.DB) *GormOfferRepository {
	return &GormOfferRepository{db: db}
}

// WithTx 绑定事务
func (r *GormOfferRepository) WithTx(tx *gorm.DB) *GormOfferRepository {
	if tx == nil {
		return r
	}
	return &GormOfferRepository{db: tx}
}

// GetByID 按ID获取报价
func (r *GormOfferRepository) GetByID(id uint) (*models.Offer, error) {
	if id == 0 {
		return nil, nil
	}
	var offer models.Offer
	if err := r.db.Preload("Location").First(&offer, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &offer, nil
}

// GetByCodePrefix 按兑换码前缀获取报价
func (r *GormOfferRepository) GetByCodePrefix(prefix string) (*models.Offer, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return nil, nil
	}
	var offer models.Offer
	if err := r.db.Preload("Location").
		Where("code_prefix = ?", prefix).
		First(&offer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &offer, nil
}

// CountActiveNonOpenByLocation 统计门店生效中的普通报价数
func (r *GormOfferRepository) CountActiveNonOpenByLocation(locationID uint) (int64, error) {
	if locationID == 0 {
		return 0, nil
	}
	var count int64
	err := r.db.Model(&models.Offer{}).
		Where("location_id = ? AND is_active = ? AND is_open_offer = ?", locationID, true, false).
		Where("expires_at IS NULL OR expires_at > ?", time.Now()).
		Count(&count).Error
	return count, err
}

// CountActiveByUser 统计用户生效中的报价数
func (r *GormOfferRepository) CountActiveByUser(userID uint) (int64, error) {
	if userID == 0 {
		return 0, nil
	}
	var count int64
	err := r.db.Model(&models.Offer{}).
		Where("user_id = ? AND is_active = ?", userID, true).
		Where("expires_at IS NULL OR expires_at > ?", time.Now()).
		Count(&count).Error
	return count, err
}

// FirstActiveByUser 获取用户任一生效报价
func (r *GormOfferRepository) FirstActiveByUser(userID uint) (*models.Offer, error) {
	if userID == 0 {
		return nil, nil
	}
	var offer models.Offer
	if err := r.db.Where("user_id = ? AND is_active = ?", userID, true).
		Where("expires_at IS NULL OR expires_at > ?", time.Now()).
		Order("id").
		First(&offer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &offer, nil
}

// Create 创建报价
func (r *GormOfferRepository) Create(offer *models.Offer) error {
	return r.db.Create(offer).Error
}

// Update 更新报价
func (r *GormOfferRepository) Update(offer *models.Offer) error {
	return r.db.Save(offer).Error
}

// DeactivateByLocation 停用门店下全部报价
func (r *GormOfferRepository) DeactivateByLocation(locationID uint, now time.Time) (int64, error) {
	if locationID == 0 {
		return 0, nil
	}
	result := r.db.Model(&models.Offer{}).
		Where("location_id = ? AND is_active = ?", locationID, true).
		Updates(map[string]interface{}{
			"is_active":  false,
			"updated_at": now,
		})
	return result.RowsAffected, result.Error
}

// List 分页查询报价
func (r *GormOfferRepository) List(filter OfferListFilter) ([]models.Offer, int64, error) {
	query := r.db.Model(&models.Offer{})
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.LocationID != 0 {
		query = query.Where("location_id = ?", filter.LocationID)
	}
	if filter.OnlyActive {
		query = query.Where("is_active = ?", true).
			Where("expires_at IS NULL OR expires_at > ?", time.Now())
	}
	if filter.IsOpenOffer != nil {
		query = query.Where("is_open_offer = ?", *filter.IsOpenOffer)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)
	var offers []models.Offer
	if err := query.Order("id DESC").Find(&offers).Error; err != nil {
		return nil, 0, err
	}
	return offers, total, nil
}
