package models

import (
	"time"

	"gorm.io/gorm"
)

// Location 门店表
type Location struct {
	ID              uint           `gorm:"primarykey" json:"id"`                                    // 主键
	UserID          uint           `gorm:"not null;index" json:"user_id"`                           // 所属用户ID
	Name            string         `gorm:"type:varchar(160);not null" json:"name"`                  // 门店名称
	Address         string         `gorm:"type:varchar(255);not null" json:"address"`               // 门店地址
	Latitude        float64        `gorm:"not null;default:0" json:"latitude"`                      // 纬度
	Longitude       float64        `gorm:"not null;default:0" json:"longitude"`                     // 经度
	ChannelCategory string         `gorm:"type:varchar(40);index;not null" json:"channel_category"` // 零售渠道类别
	OpenOfferOnly   bool           `gorm:"not null;default:false;index" json:"open_offer_only"`     // 仅开放报价模式（与普通报价互斥）
	CreatedAt       time.Time      `gorm:"index" json:"created_at"`                                 // 创建时间
	UpdatedAt       time.Time      `gorm:"index" json:"updated_at"`                                 // 更新时间
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`                                          // 软删除时间

	User User `gorm:"foreignKey:UserID" json:"user,omitempty"` // 所属用户
}

// TableName 指定表名
func (Location) TableName() string {
	return "locations"
}
