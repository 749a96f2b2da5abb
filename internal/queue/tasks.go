package queue

import (
	"encoding/json"
	"time"

	"github.com/promostreet/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskSubscriptionRenew 开放报价订阅续费任务
	TaskSubscriptionRenew = constants.TaskSubscriptionRenew
	// TaskRedemptionExpireSweep 过期兑换码清理任务
	TaskRedemptionExpireSweep = constants.TaskRedemptionExpireSweep
	// TaskPartnershipCounters 合作关系计数刷新任务
	TaskPartnershipCounters = constants.TaskPartnershipCounters
)

// SubscriptionRenewPayload 订阅续费任务载荷
type SubscriptionRenewPayload struct {
	Now   time.Time `json:"now"`
	Limit int       `json:"limit"`
}

// RedemptionExpireSweepPayload 过期兑换码清理任务载荷
type RedemptionExpireSweepPayload struct {
	Now time.Time `json:"now"`
}

// PartnershipCountersPayload 合作关系计数刷新任务载荷
type PartnershipCountersPayload struct {
	PartnerRequestID uint `json:"partner_request_id"`
	SenderSide       bool `json:"sender_side"`
	Redemption       bool `json:"redemption"`
}

// NewSubscriptionRenewTask 创建订阅续费任务
func NewSubscriptionRenewTask(payload SubscriptionRenewPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSubscriptionRenew, body), nil
}

// NewRedemptionExpireSweepTask 创建过期兑换码清理任务
func NewRedemptionExpireSweepTask(payload RedemptionExpireSweepPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskRedemptionExpireSweep, body), nil
}

// NewPartnershipCountersTask 创建合作关系计数刷新任务
func NewPartnershipCountersTask(payload PartnershipCountersPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPartnershipCounters, body), nil
}
