package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/promostreet/internal/logger"
	"github.com/promostreet/internal/provider"
	"github.com/promostreet/internal/queue"
	"github.com/promostreet/internal/service"

	"github.com/hibiken/asynq"
)

const defaultRenewBatchSize = 100

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskSubscriptionRenew, c.handleSubscriptionRenew)
	mux.HandleFunc(queue.TaskRedemptionExpireSweep, c.handleRedemptionExpireSweep)
	mux.HandleFunc(queue.TaskPartnershipCounters, c.handlePartnershipCounters)
}

func (c *Consumer) handleSubscriptionRenew(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_subscription_renew_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.SubscriptionRenewPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_subscription_renew_unmarshal_failed", "error", err)
		return err
	}
	if c.SubscriptionService == nil {
		logger.Warnw("worker_subscription_renew_skip_service_nil")
		return nil
	}
	now := payload.Now
	if now.IsZero() {
		now = time.Now()
	}
	limit := payload.Limit
	if limit <= 0 {
		limit = defaultRenewBatchSize
	}
	processed, err := c.SubscriptionService.RenewDue(now, limit)
	if err != nil {
		logger.Warnw("worker_subscription_renew_failed", "error", err)
		return err
	}
	if processed > 0 {
		logger.Infow("worker_subscription_renew_done", "processed", processed)
	}
	return nil
}

func (c *Consumer) handleRedemptionExpireSweep(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_redemption_sweep_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.RedemptionExpireSweepPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_redemption_sweep_unmarshal_failed", "error", err)
		return err
	}
	if c.RedemptionService == nil {
		logger.Warnw("worker_redemption_sweep_skip_service_nil")
		return nil
	}
	now := payload.Now
	if now.IsZero() {
		now = time.Now()
	}
	expired, err := c.RedemptionService.SweepExpired(now)
	if err != nil {
		logger.Warnw("worker_redemption_sweep_failed", "error", err)
		return err
	}
	if expired > 0 {
		logger.Infow("worker_redemption_sweep_done", "expired", expired)
	}
	return nil
}

func (c *Consumer) handlePartnershipCounters(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_partnership_counters_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.PartnershipCountersPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_partnership_counters_unmarshal_failed", "error", err)
		return err
	}
	if payload.PartnerRequestID == 0 {
		logger.Debugw("worker_partnership_counters_skip_invalid_payload", "partner_request_id", payload.PartnerRequestID)
		return nil
	}
	if payload.Redemption {
		if err := c.PartnerRequestRepo.IncrementRedemptions(payload.PartnerRequestID, payload.SenderSide); err != nil {
			logger.Warnw("worker_partnership_counters_redemption_failed", "partner_request_id", payload.PartnerRequestID, "error", err)
			return err
		}
		return nil
	}
	if err := c.PartnershipService.RecordImpression(payload.PartnerRequestID, payload.SenderSide); err != nil {
		switch {
		case errors.Is(err, service.ErrPartnerRequestNotFound):
			logger.Debugw("worker_partnership_counters_skip_not_found", "partner_request_id", payload.PartnerRequestID)
			return nil
		default:
			logger.Warnw("worker_partnership_counters_impression_failed", "partner_request_id", payload.PartnerRequestID, "error", err)
			return err
		}
	}
	return nil
}
