package repository

import (
	"errors"
	"strings"

	"github.com/promostreet/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CreditRepository 积分账户与流水数据访问接口
type CreditRepository interface {
	GetAccountByUserID(userID uint) (*models.CreditAccount, error)
	GetAccountByUserIDForUpdate(userID uint) (*models.CreditAccount, error)
	CreateAccount(account *models.CreditAccount) error
	UpdateAccount(account *models.CreditAccount) error
	CreateEntry(entry *models.CreditEntry) error
	GetEntryByReference(reference string) (*models.CreditEntry, error)
	ListEntries(filter CreditEntryListFilter) ([]models.CreditEntry, int64, error)
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) *GormCreditRepository
}

// GormCreditRepository GORM 积分仓储实现
type GormCreditRepository struct {
	db *gorm.DB
}

// NewCreditRepository 创建积分仓储
func NewCreditRepository(db *gorm.DB) *GormCreditRepository {
	return &GormCreditRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCreditRepository) WithTx(tx *gorm.DB) *GormCreditRepository {
	if tx == nil {
		return r
	}
	return &GormCreditRepository{db: tx}
}

// Transaction 在事务中执行
func (r *GormCreditRepository) Transaction(fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

// GetAccountByUserID 按用户获取积分账户
func (r *GormCreditRepository) GetAccountByUserID(userID uint) (*models.CreditAccount, error) {
	if userID == 0 {
		return nil, nil
	}
	var account models.CreditAccount
	if err := r.db.Where("user_id = ?", userID).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

// GetAccountByUserIDForUpdate 按用户加锁获取积分账户
func (r *GormCreditRepository) GetAccountByUserIDForUpdate(userID uint) (*models.CreditAccount, error) {
	if userID == 0 {
		return nil, nil
	}
	var account models.CreditAccount
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

// CreateAccount 创建积分账户
func (r *GormCreditRepository) CreateAccount(account *models.CreditAccount) error {
	return r.db.Create(account).Error
}

// UpdateAccount 更新积分账户
func (r *GormCreditRepository) UpdateAccount(account *models.CreditAccount) error {
	return r.db.Save(account).Error
}

// CreateEntry 创建积分流水
func (r *GormCreditRepository) CreateEntry(entry *models.CreditEntry) error {
	return r.db.Create(entry).Error
}

// GetEntryByReference 按业务引用获取流水（幂等查重）
func (r *GormCreditRepository) GetEntryByReference(reference string) (*models.CreditEntry, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, nil
	}
	var entry models.CreditEntry
	if err := r.db.Where("reference = ?", reference).First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

// ListEntries 分页查询积分流水
func (r *GormCreditRepository) ListEntries(filter CreditEntryListFilter) ([]models.CreditEntry, int64, error) {
	query := r.db.Model(&models.CreditEntry{})
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if reason := strings.TrimSpace(filter.Reason); reason != "" {
		query = query.Where("reason = ?", reason)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)
	var entries []models.CreditEntry
	if err := query.Order("id DESC").Find(&entries).Error; err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}
