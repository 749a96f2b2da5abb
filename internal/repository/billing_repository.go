package repository

import (
	"errors"
	"strings"

	"github.com/promostreet/internal/models"

	"gorm.io/gorm"
)

// BillingRepository 计费流水数据访问接口
type BillingRepository interface {
	GetByID(id uint) (*models.BillingTransaction, error)
	GetByReference(reference string) (*models.BillingTransaction, error)
	Create(txn *models.BillingTransaction) error
	Save(txn *models.BillingTransaction) error
	List(filter BillingListFilter) ([]models.BillingTransaction, int64, error)
	WithTx(tx *gorm.DB) *GormBillingRepository
}

// GormBillingRepository GORM 计费仓储实现
type GormBillingRepository struct {
	db *gorm.DB
}

// NewBillingRepository 创建计费仓储
func NewBillingRepository(db *gorm.DB) *GormBillingRepository {
	return &GormBillingRepository{db: db}
}

// WithTx 绑定事务
func (r *GormBillingRepository) WithTx(tx *gorm.DB) *GormBillingRepository {
	if tx == nil {
		return r
	}
	return &GormBillingRepository{db: tx}
}

// GetByID 按ID获取计费流水
func (r *GormBillingRepository) GetByID(id uint) (*models.BillingTransaction, error) {
	if id == 0 {
		return nil, nil
	}
	var txn models.BillingTransaction
	if err := r.db.First(&txn, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &txn, nil
}

// GetByReference 按业务引用获取计费流水（幂等查重）
func (r *GormBillingRepository) GetByReference(reference string) (*models.BillingTransaction, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, nil
	}
	var txn models.BillingTransaction
	if err := r.db.Where("reference = ?", reference).First(&txn).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &txn, nil
}

// Create 创建计费流水
func (r *GormBillingRepository) Create(txn *models.BillingTransaction) error {
	return r.db.Create(txn).Error
}

// Save 保存计费流水（按主键覆盖）
func (r *GormBillingRepository) Save(txn *models.BillingTransaction) error {
	return r.db.Save(txn).Error
}

// List 分页查询计费流水
func (r *GormBillingRepository) List(filter BillingListFilter) ([]models.BillingTransaction, int64, error) {
	query := r.db.Model(&models.BillingTransaction{})
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if reason := strings.TrimSpace(filter.Reason); reason != "" {
		query = query.Where("reason = ?", reason)
	}
	if status := strings.TrimSpace(filter.Status); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)
	var txns []models.BillingTransaction
	if err := query.Order("id DESC").Find(&txns).Error; err != nil {
		return nil, 0, err
	}
	return txns, total, nil
}
