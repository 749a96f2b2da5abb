package repository

import (
	"errors"
	"time"

	"github.com/promostreet/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SubscriptionRepository 开放优惠订阅数据访问接口
type SubscriptionRepository interface {
	GetByID(id uint) (*models.OpenOfferSubscription, error)
	GetByLocationID(locationID uint) (*models.OpenOfferSubscription, error)
	GetByLocationIDForUpdate(locationID uint) (*models.OpenOfferSubscription, error)
	ListDueForRenewal(now time.Time, limit int) ([]models.OpenOfferSubscription, error)
	ListActiveByUser(userID uint) ([]models.OpenOfferSubscription, error)
	Create(sub *models.OpenOfferSubscription) error
	Update(sub *models.OpenOfferSubscription) error
	WithTx(tx *gorm.DB) *GormSubscriptionRepository
}

// GormSubscriptionRepository GORM 订阅仓储实现
type GormSubscriptionRepository struct {
	db *gorm.DB
}

// NewSubscriptionRepository 创建订阅仓储
func NewSubscriptionRepository(db *gorm.DB) *GormSubscriptionRepository {
	return &GormSubscriptionRepository{db: db}
}

// WithTx 绑定事务
func (r *GormSubscriptionRepository) WithTx(tx *gorm.DB) *GormSubscriptionRepository {
	if tx == nil {
		return r
	}
	return &GormSubscriptionRepository{db: tx}
}

// GetByID 按ID获取订阅
func (r *GormSubscriptionRepository) GetByID(id uint) (*models.OpenOfferSubscription, error) {
	if id == 0 {
		return nil, nil
	}
	var sub models.OpenOfferSubscription
	if err := r.db.First(&sub, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

// GetByLocationID 按门店获取订阅
func (r *GormSubscriptionRepository) GetByLocationID(locationID uint) (*models.OpenOfferSubscription, error) {
	if locationID == 0 {
		return nil, nil
	}
	var sub models.OpenOfferSubscription
	if err := r.db.Where("location_id = ?", locationID).First(&sub).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

// GetByLocationIDForUpdate 按门店加锁获取订阅
func (r *GormSubscriptionRepository) GetByLocationIDForUpdate(locationID uint) (*models.OpenOfferSubscription, error) {
	if locationID == 0 {
		return nil, nil
	}
	var sub models.OpenOfferSubscription
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("location_id = ?", locationID).First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

// ListDueForRenewal 获取已到期待续费的订阅
func (r *GormSubscriptionRepository) ListDueForRenewal(now time.Time, limit int) ([]models.OpenOfferSubscription, error) {
	if limit <= 0 {
		limit = 100
	}
	var subs []models.OpenOfferSubscription
	err := r.db.Where("active = ?", true).
		Where("current_period_end <= ?", now).
		Order("current_period_end ASC").
		Limit(limit).
		Find(&subs).Error
	if err != nil {
		return nil, err
	}
	return subs, nil
}

// ListActiveByUser 获取用户生效中的订阅
func (r *GormSubscriptionRepository) ListActiveByUser(userID uint) ([]models.OpenOfferSubscription, error) {
	if userID == 0 {
		return []models.OpenOfferSubscription{}, nil
	}
	var subs []models.OpenOfferSubscription
	err := r.db.Where("user_id = ? AND active = ?", userID, true).Find(&subs).Error
	if err != nil {
		return nil, err
	}
	return subs, nil
}

// Create 创建订阅
func (r *GormSubscriptionRepository) Create(sub *models.OpenOfferSubscription) error {
	return r.db.Create(sub).Error
}

// Update 更新订阅
func (r *GormSubscriptionRepository) Update(sub *models.OpenOfferSubscription) error {
	return r.db.Save(sub).Error
}
