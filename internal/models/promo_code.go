package models

import (
	"time"

	"gorm.io/gorm"
)

// PromoCode 促销码表
//
// 有效促销码可全额豁免一次合作费用；带 CreditValue 的促销码
// 兑换后入账为促销信用。
type PromoCode struct {
	ID          uint           `gorm:"primarykey" json:"id"`                                           // 主键
	Code        string         `gorm:"type:varchar(64);uniqueIndex;not null" json:"code"`              // 促销码
	Status      string         `gorm:"type:varchar(20);not null;index;default:'active'" json:"status"` // 状态
	CreditValue Money          `gorm:"type:decimal(20,2);not null;default:0" json:"credit_value"`      // 可兑换信用面额（0 表示仅豁免）
	UsageLimit  int            `gorm:"not null;default:0" json:"usage_limit"`                          // 总使用上限（0 表示不限制）
	UsedCount   int            `gorm:"not null;default:0" json:"used_count"`                           // 已使用次数
	ExpiresAt   *time.Time     `gorm:"index" json:"expires_at"`                                        // 过期时间
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`                                        // 创建时间
	UpdatedAt   time.Time      `gorm:"index" json:"updated_at"`                                        // 更新时间
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`                                                 // 软删除时间
}

// TableName 指定表名
func (PromoCode) TableName() string {
	return "promo_codes"
}
