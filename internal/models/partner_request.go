package models

import (
	"time"

	"gorm.io/gorm"
)

// PartnerRequest 合作请求（伙伴关系）表
//
// sender -> recipient 的有向请求；approved 后即为生效的伙伴关系。
// 同一有向对之间最多存在一条 pending 记录。
type PartnerRequest struct {
	ID                   uint           `gorm:"primarykey" json:"id"`                                            // 主键
	SenderID             uint           `gorm:"not null;index:idx_partner_pair" json:"sender_id"`                // 发起方用户ID
	RecipientID          uint           `gorm:"not null;index:idx_partner_pair" json:"recipient_id"`             // 接收方用户ID
	SenderLocationID     *uint          `gorm:"index" json:"sender_location_id,omitempty"`                       // 发起方门店ID
	RecipientLocationID  *uint          `gorm:"index" json:"recipient_location_id,omitempty"`                    // 接收方门店ID
	Status               string         `gorm:"type:varchar(20);not null;index;default:'pending'" json:"status"` // 状态
	PendingPairKey       *string        `gorm:"type:varchar(64);uniqueIndex" json:"-"`                           // pending 期间的方向对键，唯一索引兜底并发重复发起；终态置空
	SenderPromoCode      string         `gorm:"type:varchar(64);default:''" json:"sender_promo_code,omitempty"`  // 发起方使用的促销码（批准时豁免其费用）
	SenderImpressions    int64          `gorm:"not null;default:0" json:"sender_impressions"`                    // 发起方侧曝光数
	RecipientImpressions int64          `gorm:"not null;default:0" json:"recipient_impressions"`                 // 接收方侧曝光数
	SenderRedemptions    int64          `gorm:"not null;default:0" json:"sender_redemptions"`                    // 发起方侧核销数
	RecipientRedemptions int64          `gorm:"not null;default:0" json:"recipient_redemptions"`                 // 接收方侧核销数
	ApprovedAt           *time.Time     `gorm:"index" json:"approved_at"`                                        // 批准时间
	ClosedAt             *time.Time     `gorm:"index" json:"closed_at"`                                          // 终止时间（拒绝/取消）
	CreatedAt            time.Time      `gorm:"index" json:"created_at"`                                         // 创建时间
	UpdatedAt            time.Time      `gorm:"index" json:"updated_at"`                                         // 更新时间
	DeletedAt            gorm.DeletedAt `gorm:"index" json:"-"`                                                  // 软删除时间

	Sender    User `gorm:"foreignKey:SenderID" json:"sender,omitempty"`       // 发起方
	Recipient User `gorm:"foreignKey:RecipientID" json:"recipient,omitempty"` // 接收方
}

// TableName 指定表名
func (PartnerRequest) TableName() string {
	return "partner_requests"
}
