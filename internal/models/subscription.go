package models

import (
	"time"

	"gorm.io/gorm"
)

// OpenOfferSubscription 开放报价订阅表（按门店）
//
// 取消不立即生效：置 CancelAtPeriodEnd，续费任务在周期结束时停用。
type OpenOfferSubscription struct {
	ID                uint           `gorm:"primarykey" json:"id"`                               // 主键
	LocationID        uint           `gorm:"not null;uniqueIndex" json:"location_id"`            // 门店ID
	UserID            uint           `gorm:"not null;index" json:"user_id"`                      // 所属用户ID
	Active            bool           `gorm:"not null;default:true;index" json:"active"`          // 是否生效
	MonthlyFee        Money          `gorm:"type:decimal(20,2);not null" json:"monthly_fee"`     // 每月费用
	CancelAtPeriodEnd bool           `gorm:"not null;default:false" json:"cancel_at_period_end"` // 周期结束时取消
	CurrentPeriodEnd  time.Time      `gorm:"index;not null" json:"current_period_end"`           // 当前计费周期结束时间
	CreatedAt         time.Time      `gorm:"index" json:"created_at"`                            // 创建时间
	UpdatedAt         time.Time      `gorm:"index" json:"updated_at"`                            // 更新时间
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`                                     // 软删除时间

	Location *Location `gorm:"foreignKey:LocationID" json:"location,omitempty"` // 门店信息
}

// TableName 指定表名
func (OpenOfferSubscription) TableName() string {
	return "open_offer_subscriptions"
}
