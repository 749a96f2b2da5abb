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

// PartnerRequestRepository 合作请求数据访问接口
type PartnerRequestRepository interface {
	GetByID(id uint) (*models.PartnerRequest, error)
	GetByIDForUpdate(id uint) (*models.PartnerRequest, error)
	GetPendingBetween(userA, userB uint) (*models.PartnerRequest, error)
	CountApprovedByUser(userID uint) (int64, error)
	CountApprovedByLocation(locationID uint) (int64, error)
	ListActiveByLocation(locationID uint) ([]models.PartnerRequest, error)
	Create(request *models.PartnerRequest) error
	Update(request *models.PartnerRequest) error
	UpdateStatusIf(id uint, from, to string, updates map[string]interface{}) (int64, error)
	IncrementImpressions(id uint, senderSide bool) error
	IncrementRedemptions(id uint, senderSide bool) error
	List(filter PartnerRequestListFilter) ([]models.PartnerRequest, int64, error)
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) *GormPartnerRequestRepository
}

// GormPartnerRequestRepository GORM 合作请求仓储实现
type GormPartnerRequestRepository struct {
	db *gorm.DB
}

// NewPartnerRequestRepository 创建合作请求仓储
func NewPartnerRequestRepository(db *gorm.DB) *GormPartnerRequestRepository {
	return &GormPartnerRequestRepository{db: db}
}

// WithTx 绑定事务
func (r *GormPartnerRequestRepository) WithTx(tx *gorm.DB) *GormPartnerRequestRepository {
	if tx == nil {
		return r
	}
	return &GormPartnerRequestRepository{db: tx}
}

// Transaction 在事务中执行
func (r *GormPartnerRequestRepository) Transaction(fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

// GetByID 按ID获取合作请求
func (r *GormPartnerRequestRepository) GetByID(id uint) (*models.PartnerRequest, error) {
	if id == 0 {
		return nil, nil
	}
	var request models.PartnerRequest
	if err := r.db.Preload("Sender").Preload("Recipient").First(&request, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &request, nil
}

// GetByIDForUpdate 按ID加锁获取合作请求
func (r *GormPartnerRequestRepository) GetByIDForUpdate(id uint) (*models.PartnerRequest, error) {
	if id == 0 {
		return nil, nil
	}
	var request models.PartnerRequest
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&request, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &request, nil
}

// GetPendingBetween 获取两用户间任一方向的 pending 请求
func (r *GormPartnerRequestRepository) GetPendingBetween(userA, userB uint) (*models.PartnerRequest, error) {
	if userA == 0 || userB == 0 {
		return nil, nil
	}
	var request models.PartnerRequest
	err := r.db.Where("status = ?", constants.PartnerRequestStatusPending).
		Where("(sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)",
			userA, userB, userB, userA).
		First(&request).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &request, nil
}

// CountApprovedByUser 统计用户生效中的伙伴关系数
func (r *GormPartnerRequestRepository) CountApprovedByUser(userID uint) (int64, error) {
	if userID == 0 {
		return 0, nil
	}
	var count int64
	err := r.db.Model(&models.PartnerRequest{}).
		Where("status = ?", constants.PartnerRequestStatusApproved).
		Where("sender_id = ? OR recipient_id = ?", userID, userID).
		Count(&count).Error
	return count, err
}

// CountApprovedByLocation 统计门店生效中的伙伴关系数
func (r *GormPartnerRequestRepository) CountApprovedByLocation(locationID uint) (int64, error) {
	if locationID == 0 {
		return 0, nil
	}
	var count int64
	err := r.db.Model(&models.PartnerRequest{}).
		Where("status = ?", constants.PartnerRequestStatusApproved).
		Where("sender_location_id = ? OR recipient_location_id = ?", locationID, locationID).
		Count(&count).Error
	return count, err
}

// ListActiveByLocation 获取门店关联的未终止合作请求
func (r *GormPartnerRequestRepository) ListActiveByLocation(locationID uint) ([]models.PartnerRequest, error) {
	if locationID == 0 {
		return []models.PartnerRequest{}, nil
	}
	var requests []models.PartnerRequest
	err := r.db.Where("status IN ?", []string{
		constants.PartnerRequestStatusPending,
		constants.PartnerRequestStatusApproved,
	}).
		Where("sender_location_id = ? OR recipient_location_id = ?", locationID, locationID).
		Find(&requests).Error
	if err != nil {
		return nil, err
	}
	return requests, nil
}

// Create 创建合作请求
func (r *GormPartnerRequestRepository) Create(request *models.PartnerRequest) error {
	return r.db.Create(request).Error
}

// Update 更新合作请求
func (r *GormPartnerRequestRepository) Update(request *models.PartnerRequest) error {
	return r.db.Save(request).Error
}

// UpdateStatusIf 条件更新状态（compare-and-swap），返回受影响行数
func (r *GormPartnerRequestRepository) UpdateStatusIf(id uint, from, to string, updates map[string]interface{}) (int64, error) {
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["status"] = to
	if to != constants.PartnerRequestStatusPending {
		// 离开 pending 即释放方向对唯一键，同一对之后可再次发起
		updates["pending_pair_key"] = nil
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now()
	}
	result := r.db.Model(&models.PartnerRequest{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	return result.RowsAffected, result.Error
}

// IncrementImpressions 增加曝光计数
func (r *GormPartnerRequestRepository) IncrementImpressions(id uint, senderSide bool) error {
	column := "recipient_impressions"
	if senderSide {
		column = "sender_impressions"
	}
	return r.db.Model(&models.PartnerRequest{}).
		Where("id = ?", id).
		UpdateColumn(column, gorm.Expr(column+" + 1")).Error
}

// IncrementRedemptions 增加核销计数
func (r *GormPartnerRequestRepository) IncrementRedemptions(id uint, senderSide bool) error {
	column := "recipient_redemptions"
	if senderSide {
		column = "sender_redemptions"
	}
	return r.db.Model(&models.PartnerRequest{}).
		Where("id = ?", id).
		UpdateColumn(column, gorm.Expr(column+" + 1")).Error
}

// List 分页查询合作请求
func (r *GormPartnerRequestRepository) List(filter PartnerRequestListFilter) ([]models.PartnerRequest, int64, error) {
	query := r.db.Model(&models.PartnerRequest{})
	if filter.UserID != 0 {
		query = query.Where("sender_id = ? OR recipient_id = ?", filter.UserID, filter.UserID)
	}
	if status := strings.TrimSpace(filter.Status); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)
	var requests []models.PartnerRequest
	if err := query.Preload("Sender").Preload("Recipient").
		Order("id DESC").Find(&requests).Error; err != nil {
		return nil, 0, err
	}
	return requests, total, nil
}
