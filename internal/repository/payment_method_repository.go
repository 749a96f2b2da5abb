package repository

import (
	"errors"

	"github.com/promostreet/internal/models"

	"gorm.io/gorm"
)

// PaymentMethodRepository 支付方式数据访问接口
type PaymentMethodRepository interface {
	GetByID(id uint) (*models.PaymentMethod, error)
	GetDefaultByUser(userID uint) (*models.PaymentMethod, error)
	ListByUser(userID uint) ([]models.PaymentMethod, error)
	Create(method *models.PaymentMethod) error
	Update(method *models.PaymentMethod) error
	Delete(id uint) error
	ClearDefaultByUser(userID uint) error
	WithTx(tx *gorm.DB) *GormPaymentMethodRepository
}

// GormPaymentMethodRepository GORM 支付方式仓储实现
type GormPaymentMethodRepository struct {
	db *gorm.DB
}

// NewPaymentMethodRepository 创建支付方式仓储
func NewPaymentMethodRepository(db *gorm.DB) *GormPaymentMethodRepository {
	return &GormPaymentMethodRepository{db: db}
}

// WithTx 绑定事务
func (r *GormPaymentMethodRepository) WithTx(tx *gorm.DB) *GormPaymentMethodRepository {
	if tx == nil {
		return r
	}
	return &GormPaymentMethodRepository{db: tx}
}

// GetByID 按ID获取支付方式
func (r *GormPaymentMethodRepository) GetByID(id uint) (*models.PaymentMethod, error) {
	if id == 0 {
		return nil, nil
	}
	var method models.PaymentMethod
	if err := r.db.First(&method, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &method, nil
}

// GetDefaultByUser 获取用户默认支付方式
func (r *GormPaymentMethodRepository) GetDefaultByUser(userID uint) (*models.PaymentMethod, error) {
	if userID == 0 {
		return nil, nil
	}
	var method models.PaymentMethod
	err := r.db.Where("user_id = ? AND is_default = ?", userID, true).First(&method).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &method, nil
}

// ListByUser 获取用户全部支付方式
func (r *GormPaymentMethodRepository) ListByUser(userID uint) ([]models.PaymentMethod, error) {
	if userID == 0 {
		return []models.PaymentMethod{}, nil
	}
	var methods []models.PaymentMethod
	if err := r.db.Where("user_id = ?", userID).Order("id DESC").Find(&methods).Error; err != nil {
		return nil, err
	}
	return methods, nil
}

// Create 创建支付方式
func (r *GormPaymentMethodRepository) Create(method *models.PaymentMethod) error {
	return r.db.Create(method).Error
}

// Update 更新支付方式
func (r *GormPaymentMethodRepository) Update(method *models.PaymentMethod) error {
	return r.db.Save(method).Error
}

// Delete 删除支付方式
func (r *GormPaymentMethodRepository) Delete(id uint) error {
	return r.db.Delete(&models.PaymentMethod{}, id).Error
}

// ClearDefaultByUser 清除用户默认标记
func (r *GormPaymentMethodRepository) ClearDefaultByUser(userID uint) error {
	return r.db.Model(&models.PaymentMethod{}).
		Where("user_id = ?", userID).
		Update("is_default", false).Error
}
