package queue

import (
	"fmt"
	"strings"

	"github.com/promostreet/internal/config"
	"github.com/promostreet/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// DefaultQueue 常规任务队列
	DefaultQueue = constants.QueueDefault
	// CriticalQueue 续费扣款走高优先级队列，延迟直接影响商家订阅状态
	CriticalQueue = constants.QueueCritical
)

// Client 任务投递端，队列未启用时所有投递静默跳过
type Client struct {
	client       *asynq.Client
	enabled      bool
	defaultQueue string
}

// NewClient 创建任务投递端
func NewClient(cfg *config.QueueConfig) (*Client, error) {
	if cfg == nil || !cfg.Enabled {
		return &Client{enabled: false, defaultQueue: DefaultQueue}, nil
	}
	return &Client{
		client:       asynq.NewClient(buildRedisOpt(cfg)),
		enabled:      true,
		defaultQueue: DefaultQueue,
	}, nil
}

// Enabled 队列是否可投递
func (c *Client) Enabled() bool {
	return c != nil && c.enabled && c.client != nil
}

// Close 关闭底层连接
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

func (c *Client) enqueue(task *asynq.Task, queue string, opts []asynq.Option) error {
	options := append([]asynq.Option{asynq.Queue(queue)}, opts...)
	_, err := c.client.Enqueue(task, options...)
	return err
}

// EnqueueSubscriptionRenew 投递订阅续费扣款任务
func (c *Client) EnqueueSubscriptionRenew(payload SubscriptionRenewPayload, opts ...asynq.Option) error {
	if !c.Enabled() {
		return nil
	}
	task, err := NewSubscriptionRenewTask(payload)
	if err != nil {
		return err
	}
	return c.enqueue(task, CriticalQueue, opts)
}

// EnqueueRedemptionExpireSweep 投递过期核销码清扫任务
func (c *Client) EnqueueRedemptionExpireSweep(payload RedemptionExpireSweepPayload, opts ...asynq.Option) error {
	if !c.Enabled() {
		return nil
	}
	task, err := NewRedemptionExpireSweepTask(payload)
	if err != nil {
		return err
	}
	return c.enqueue(task, c.defaultQueue, opts)
}

// EnqueuePartnershipCounters 投递合作关系计数刷新任务
func (c *Client) EnqueuePartnershipCounters(payload PartnershipCountersPayload, opts ...asynq.Option) error {
	if !c.Enabled() {
		return nil
	}
	task, err := NewPartnershipCountersTask(payload)
	if err != nil {
		return err
	}
	return c.enqueue(task, c.defaultQueue, opts)
}

// BuildServerConfig 生成消费端连接与并发配置
func BuildServerConfig(cfg *config.QueueConfig) (asynq.RedisClientOpt, asynq.Config) {
	concurrency := 10
	if cfg != nil && cfg.Concurrency > 0 {
		concurrency = cfg.Concurrency
	}
	queues := map[string]int{DefaultQueue: 1}
	if cfg != nil && len(cfg.Queues) > 0 {
		queues = cfg.Queues
	}
	return buildRedisOpt(cfg), asynq.Config{
		Concurrency: concurrency,
		Queues:      queues,
	}
}

func buildRedisOpt(cfg *config.QueueConfig) asynq.RedisClientOpt {
	host := "127.0.0.1"
	port := 6379
	password := ""
	db := 0
	if cfg != nil {
		if trimmed := strings.TrimSpace(cfg.Host); trimmed != "" {
			host = trimmed
		}
		if cfg.Port > 0 {
			port = cfg.Port
		}
		password = cfg.Password
		db = cfg.DB
	}
	return asynq.RedisClientOpt{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	}
}
