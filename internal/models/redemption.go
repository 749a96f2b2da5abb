package models

import (
	"time"

	"gorm.io/gorm"
)

// Redemption 兑换码签发记录表
type Redemption struct {
	ID               uint           `gorm:"primarykey" json:"id"`                                           // 主键
	OfferID          uint           `gorm:"not null;index" json:"offer_id"`                                 // 报价ID
	LocationID       uint           `gorm:"not null;index" json:"location_id"`                              // 核销门店ID
	PartnerRequestID *uint          `gorm:"index" json:"partner_request_id,omitempty"`                      // 来源伙伴关系ID（归因）
	ReferrerHost     string         `gorm:"type:varchar(255);default:''" json:"referrer_host"`              // 来源 referrer 主机
	Code             string         `gorm:"type:varchar(80);uniqueIndex;not null" json:"code"`              // 兑换码（全局唯一）
	Status           string         `gorm:"type:varchar(20);not null;index;default:'issued'" json:"status"` // 状态
	RedeemedAt       *time.Time     `gorm:"index" json:"redeemed_at"`                                       // 确认核销时间
	CreatedAt        time.Time      `gorm:"index" json:"created_at"`                                        // 签发时间
	UpdatedAt        time.Time      `gorm:"index" json:"updated_at"`                                        // 更新时间
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`                                                 // 软删除时间

	Offer *Offer `gorm:"foreignKey:OfferID" json:"offer,omitempty"` // 报价信息
}

// TableName 指定表名
func (Redemption) TableName() string {
	return "redemptions"
}
