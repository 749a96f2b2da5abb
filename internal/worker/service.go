package worker

import (
	"context"
	"errors"
	"time"

	"github.com/promostreet/internal/config"
	"github.com/promostreet/internal/logger"
	"github.com/promostreet/internal/queue"

	"github.com/hibiken/asynq"
)

const (
	maintenanceInterval = time.Minute
)

// Service 异步队列服务
type Service struct {
	name     string
	server   *asynq.Server
	mux      *asynq.ServeMux
	consumer *Consumer
}

// NewService 创建异步队列服务
func NewService(cfg *config.QueueConfig, consumer *Consumer) (*Service, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, errors.New("queue disabled")
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(cfg)
	server := asynq.NewServer(opt, serverCfg)
	mux := asynq.NewServeMux()
	consumer.Register(mux)
	return &Service{
		name:     "worker",
		server:   server,
		mux:      mux,
		consumer: consumer,
	}, nil
}

// Name 服务名称
func (s *Service) Name() string {
	if s == nil || s.name == "" {
		return "worker"
	}
	return s.name
}

// Start 启动服务
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.server == nil || s.mux == nil {
		return errors.New("worker not initialized")
	}
	if s.consumer != nil {
		go s.runMaintenanceLoop(ctx)
	}
	return s.server.Run(s.mux)
}

// Stop 停止服务
func (s *Service) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	_ = ctx
	s.server.Shutdown()
	return nil
}

// runMaintenanceLoop 周期执行订阅续费与过期兑换码清理
func (s *Service) runMaintenanceLoop(ctx context.Context) {
	if s == nil || s.consumer == nil {
		return
	}
	runOnce := func() {
		now := time.Now()
		// 队列可用时走任务通道，获得重试语义；不可用时直接执行
		if s.consumer.QueueClient.Enabled() {
			err := s.consumer.QueueClient.EnqueueSubscriptionRenew(queue.SubscriptionRenewPayload{
				Now:   now,
				Limit: defaultRenewBatchSize,
			})
			if err != nil {
				logger.Warnw("worker_subscription_renew_enqueue_failed", "error", err)
			}
			if err := s.consumer.QueueClient.EnqueueRedemptionExpireSweep(queue.RedemptionExpireSweepPayload{Now: now}); err != nil {
				logger.Warnw("worker_redemption_sweep_enqueue_failed", "error", err)
			}
			return
		}
		if s.consumer.SubscriptionService != nil {
			if _, err := s.consumer.SubscriptionService.RenewDue(now, defaultRenewBatchSize); err != nil {
				logger.Warnw("worker_subscription_renew_loop_failed", "error", err)
			}
		}
		if s.consumer.RedemptionService != nil {
			if _, err := s.consumer.RedemptionService.SweepExpired(now); err != nil {
				logger.Warnw("worker_redemption_sweep_loop_failed", "error", err)
			}
		}
	}
	runOnce()

	ticker := time.NewTicker(maintenanceInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runOnce()
		}
	}
}
