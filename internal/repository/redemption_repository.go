package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/promostreet/internal/constants"
	"github.com/promostreet/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RedemptionRepository 核销码数据访问接口
type RedemptionRepository interface {
	GetByID(id uint) (*models.Redemption, error)
	GetByCode(code string) (*models.Redemption, error)
	GetByCodeForUpdate(code string) (*models.Redemption, error)
	CountByOfferAndStatus(offerID uint, status string) (int64, error)
	Create(redemption *models.Redemption) error
	Update(redemption *models.Redemption) error
	ExpireIssuedForExpiredOffers(now time.Time) (int64, error)
	List(filter RedemptionListFilter) ([]models.Redemption, int64, error)
	WithTx(tx *gorm.DB) *GormRedemptionRepository
}

// GormRedemptionRepository GORM 核销码仓储实现
type GormRedemptionRepository struct {
	db *gorm.DB
}

// NewRedemptionRepository 创建核销码仓储
func NewRedemptionRepository(db *gorm.DB) *GormRedemptionRepository {
	return &GormRedemptionRepository{db: db}
}

// WithTx 绑定事务
func (r *GormRedemptionRepository) WithTx(tx *gorm.DB) *GormRedemptionRepository {
	if tx == nil {
		return r
	}
	return &GormRedemptionRepository{db: tx}
}

// GetByID 按ID获取核销记录
func (r *GormRedemptionRepository) GetByID(id uint) (*models.Redemption, error) {
	if id == 0 {
		return nil, nil
	}
	var redemption models.Redemption
	if err := r.db.Preload("Offer").First(&redemption, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &redemption, nil
}

// GetByCode 按核销码获取记录
func (r *GormRedemptionRepository) GetByCode(code string) (*models.Redemption, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, nil
	}
	var redemption models.Redemption
	if err := r.db.Where("code = ?", code).First(&redemption).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &redemption, nil
}

// GetByCodeForUpdate 按核销码加锁获取记录
func (r *GormRedemptionRepository) GetByCodeForUpdate(code string) (*models.Redemption, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, nil
	}
	var redemption models.Redemption
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("code = ?", code).First(&redemption).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &redemption, nil
}

// CountByOfferAndStatus 统计优惠下指定状态的核销数
func (r *GormRedemptionRepository) CountByOfferAndStatus(offerID uint, status string) (int64, error) {
	if offerID == 0 {
		return 0, nil
	}
	var count int64
	err := r.db.Model(&models.Redemption{}).
		Where("offer_id = ? AND status = ?", offerID, status).
		Count(&count).Error
	return count, err
}

// Create 创建核销记录
func (r *GormRedemptionRepository) Create(redemption *models.Redemption) error {
	return r.db.Create(redemption).Error
}

// Update 更新核销记录
func (r *GormRedemptionRepository) Update(redemption *models.Redemption) error {
	return r.db.Save(redemption).Error
}

// ExpireIssuedForExpiredOffers 批量过期父报价已过期的未确认核销码
func (r *GormRedemptionRepository) ExpireIssuedForExpiredOffers(now time.Time) (int64, error) {
	sub := r.db.Model(&models.Offer{}).
		Select("id").
		Where("expires_at IS NOT NULL AND expires_at < ?", now)
	result := r.db.Model(&models.Redemption{}).
		Where("status = ?", constants.RedemptionStatusIssued).
		Where("offer_id IN (?)", sub).
		Updates(map[string]interface{}{
			"status":     constants.RedemptionStatusExpired,
			"updated_at": time.Now(),
		})
	return result.RowsAffected, result.Error
}

// List 分页查询核销记录
func (r *GormRedemptionRepository) List(filter RedemptionListFilter) ([]models.Redemption, int64, error) {
	query := r.db.Model(&models.Redemption{})
	if filter.OfferID != 0 {
		query = query.Where("offer_id = ?", filter.OfferID)
	}
	if filter.LocationID != 0 {
		query = query.Where("location_id = ?", filter.LocationID)
	}
	if status := strings.TrimSpace(filter.Status); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)
	var redemptions []models.Redemption
	if err := query.Order("id DESC").Find(&redemptions).Error; err != nil {
		return nil, 0, err
	}
	return redemptions, total, nil
}
