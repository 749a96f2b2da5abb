package models

import (
	"time"

	"gorm.io/gorm"
)

// Offer 报价（促销活动）表
type Offer struct {
	ID           uint           `gorm:"primarykey" json:"id"`                                 // 主键
	UserID       uint           `gorm:"not null;index" json:"user_id"`                        // 所属用户ID
	LocationID   uint           `gorm:"not null;index" json:"location_id"`                    // 关联门店ID
	CallToAction string         `gorm:"type:varchar(255);not null" json:"call_to_action"`     // 促销文案
	CodePrefix   string         `gorm:"type:varchar(24);index;default:''" json:"code_prefix"` // 兑换码前缀（可按前缀解析）
	ImageURL     string         `gorm:"type:varchar(512);default:''" json:"image_url"`        // 图片地址
	LogoURL      string         `gorm:"type:varchar(512);default:''" json:"logo_url"`         // Logo 地址
	IsActive     bool           `gorm:"not null;default:true;index" json:"is_active"`         // 是否生效
	IsOpenOffer  bool           `gorm:"not null;default:false;index" json:"is_open_offer"`    // 是否为开放报价
	ExpiresAt    *time.Time     `gorm:"index" json:"expires_at"`                              // 过期时间
	CreatedAt    time.Time      `gorm:"index" json:"created_at"`                              // 创建时间
	UpdatedAt    time.Time      `gorm:"index" json:"updated_at"`                              // 更新时间
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`                                       // 软删除时间

	Location *Location `gorm:"foreignKey:LocationID" json:"location,omitempty"` // 关联门店
}

// TableName 指定表名
func (Offer) TableName() string {
	return "offers"
}

// Expired 判断报价在给定时间是否已过期
func (o *Offer) Expired(now time.Time) bool {
	return o != nil && o.ExpiresAt != nil && o.ExpiresAt.Before(now)
}

// RedeemableAt 判断报价在给定时间能否签发新兑换码
func (o *Offer) RedeemableAt(now time.Time) bool {
	return o != nil && o.IsActive && !o.Expired(now)
}
