package models

import (
	"time"

	"gorm.io/gorm"
)

// CreditAccount 促销信用账户表
//
// Balance 始终等于该用户全部账本条目之和，二者在同一事务内更新。
type CreditAccount struct {
	ID        uint           `gorm:"primarykey" json:"id"`                                 // 主键
	UserID    uint           `gorm:"not null;uniqueIndex" json:"user_id"`                  // 用户ID
	Balance   Money          `gorm:"type:decimal(20,2);not null;default:0" json:"balance"` // 可用余额
	CreatedAt time.Time      `gorm:"index" json:"created_at"`                              // 创建时间
	UpdatedAt time.Time      `gorm:"index" json:"updated_at"`                              // 更新时间
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`                                       // 软删除时间
}

// TableName 指定表名
func (CreditAccount) TableName() string {
	return "credit_accounts"
}

// CreditEntry 促销信用账本条目表（金额带符号）
type CreditEntry struct {
	ID           uint           `gorm:"primarykey" json:"id"`                                    // 主键
	UserID       uint           `gorm:"not null;index" json:"user_id"`                           // 用户ID
	Amount       Money          `gorm:"type:decimal(20,2);not null" json:"amount"`               // 金额（正为入账，负为扣减）
	Reason       string         `gorm:"type:varchar(40);not null;index" json:"reason"`           // 原因
	Reference    string         `gorm:"type:varchar(160);uniqueIndex;not null" json:"reference"` // 业务引用（幂等键）
	BalanceAfter Money          `gorm:"type:decimal(20,2);not null" json:"balance_after"`        // 记账后余额
	Remark       string         `gorm:"type:varchar(255);default:''" json:"remark"`              // 备注
	CreatedAt    time.Time      `gorm:"index" json:"created_at"`                                 // 创建时间
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`                                          // 软删除时间
}

// TableName 指定表名
func (CreditEntry) TableName() string {
	return "credit_entries"
}
