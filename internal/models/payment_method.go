package models

import (
	"time"

	"gorm.io/gorm"
)

// PaymentMethod 已保存支付方式表
//
// 只存网关侧的 token 引用，卡面信息与扣款由外部支付协作方负责。
type PaymentMethod struct {
	ID         uint           `gorm:"primarykey" json:"id"`                           // 主键
	UserID     uint           `gorm:"not null;index" json:"user_id"`                  // 用户ID
	GatewayRef string         `gorm:"type:varchar(160);not null" json:"-"`            // 网关侧支付方式引用
	Brand      string         `gorm:"type:varchar(40);default:''" json:"brand"`       // 卡品牌（展示用）
	Last4      string         `gorm:"type:varchar(8);default:''" json:"last4"`        // 卡号后四位（展示用）
	IsDefault  bool           `gorm:"not null;default:false;index" json:"is_default"` // 是否默认支付方式
	CreatedAt  time.Time      `gorm:"index" json:"created_at"`                        // 创建时间
	UpdatedAt  time.Time      `gorm:"index" json:"updated_at"`                        // 更新时间
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`                                 // 软删除时间
}

// TableName 指定表名
func (PaymentMethod) TableName() string {
	return "payment_methods"
}
