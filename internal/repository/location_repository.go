package repository

import (
	"errors"
	"strings"

	"github.com/promostreet/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LocationRepository 门店数据访问接口
type LocationRepository interface {
	GetByID(id uint) (*models.Location, error)
	GetByIDForUpdate(id uint) (*models.Location, error)
	ListByUser(userID uint) ([]models.Location, error)
	Create(location *models.Location) error
	Update(location *models.Location) error
	Delete(id uint) error
	List(filter LocationListFilter) ([]models.Location, int64, error)
	WithTx(tx *gorm.DB) *GormLocationRepository
}

// GormLocationRepository GORM 门店仓储实现
type GormLocationRepository struct {
	db *gorm.DB
}

// NewLocationRepository 创建门店仓储
func NewLocationRepository(db *gorm.DB) *GormLocationRepository {
	return &GormLocationRepository{db: db}
}

// WithTx 绑定事务
func (r *GormLocationRepository) WithTx(tx *gorm.DB) *GormLocationRepository {
	if tx == nil {
		return r
	}
	return &GormLocationRepository{db: tx}
}

// GetByID 按ID获取门店
func (r *GormLocationRepository) GetByID(id uint) (*models.Location, error) {
	if id == 0 {
		return nil, nil
	}
	var location models.Location
	if err := r.db.First(&location, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &location, nil
}

// GetByIDForUpdate 按ID加锁获取门店
func (r *GormLocationRepository) GetByIDForUpdate(id uint) (*models.Location, error) {
	if id == 0 {
		return nil, nil
	}
	var location models.Location
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&location, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &location, nil
}

// ListByUser 获取用户全部门店
func (r *GormLocationRepository) ListByUser(userID uint) ([]models.Location, error) {
	if userID == 0 {
		return []models.Location{}, nil
	}
	var locations []models.Location
	if err := r.db.Where("user_id = ?", userID).Order("id").Find(&locations).Error; err != nil {
		return nil, err
	}
	return locations, nil
}

// Create 创建门店
func (r *GormLocationRepository) Create(location *models.Location) error {
	return r.db.Create(location).Error
}

// Update 更新门店
func (r *GormLocationRepository) Update(location *models.Location) error {
	return r.db.Save(location).Error
}

// Delete 软删除门店
func (r *GormLocationRepository) Delete(id uint) error {
	return r.db.Delete(&models.Location{}, id).Error
}

// List 分页查询门店
func (r *GormLocationRepository) List(filter LocationListFilter) ([]models.Location, int64, error) {
	query := r.db.Model(&models.Location{})
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if category := strings.TrimSpace(filter.ChannelCategory); category != "" {
		query = query.Where("channel_category = ?", category)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + search + "%"
		query = query.Where("name LIKE ? OR address LIKE ?", like, like)
	}
	if filter.OpenOfferOnly != nil {
		query = query.Where("open_offer_only = ?", *filter.OpenOfferOnly)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)
	var locations []models.Location
	if err := query.Order("id DESC").Find(&locations).Error; err != nil {
		return nil, 0, err
	}
	return locations, total, nil
}
