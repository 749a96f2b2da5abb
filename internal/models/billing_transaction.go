package models

import (
	"time"

	"gorm.io/gorm"
)

// BillingTransaction 计费交易表
//
// 每次计费触发生成一条记录；Reference 为幂等键，
// 同一引用的触发不会产生第二条扣费。
type BillingTransaction struct {
	ID          uint           `gorm:"primarykey" json:"id"`                                      // 主键
	UserID      uint           `gorm:"not null;index" json:"user_id"`                             // 被扣费用户ID
	Amount      Money          `gorm:"type:decimal(20,2);not null" json:"amount"`                 // 应收总额
	CreditUsed  Money          `gorm:"type:decimal(20,2);not null;default:0" json:"credit_used"`  // 信用抵扣金额
	CardCharged Money          `gorm:"type:decimal(20,2);not null;default:0" json:"card_charged"` // 卡扣款金额
	Reason      string         `gorm:"type:varchar(40);not null;index" json:"reason"`             // 计费原因
	Reference   string         `gorm:"type:varchar(160);uniqueIndex;not null" json:"reference"`   // 业务引用（幂等键）
	Status      string         `gorm:"type:varchar(20);not null;index" json:"status"`             // 状态
	PromoWaived bool           `gorm:"not null;default:false" json:"promo_waived"`                // 是否促销码豁免
	PromoCode   string         `gorm:"type:varchar(64);default:''" json:"promo_code,omitempty"`   // 使用的促销码
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`                                   // 创建时间
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`                                            // 软删除时间
}

// TableName 指定表名
func (BillingTransaction) TableName() string {
	return "billing_transactions"
}
