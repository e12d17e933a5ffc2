package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/meit-next/internal/logger"
	"github.com/meit-next/internal/provider"
	"github.com/meit-next/internal/queue"

	"github.com/hibiken/asynq"
)

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
	mux.HandleFunc(queue.TaskGiftCardExpireSweep, c.handleGiftCardExpireSweep)
}

func (c *Consumer) handleGiftCardExpireSweep(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_gift_card_expire_sweep_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.GiftCardExpireSweepPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_gift_card_expire_sweep_unmarshal_failed", "error", err)
		return err
	}
	if c.GiftCardService == nil {
		logger.Warnw("worker_gift_card_expire_sweep_skip_service_nil")
		return nil
	}
	affected, err := c.GiftCardService.ExpireSweep(time.Now())
	if err != nil {
		logger.Warnw("worker_gift_card_expire_sweep_failed", "error", err)
		return err
	}
	if affected > 0 {
		logger.Infow("worker_gift_card_expire_sweep_done", "expired", affected)
	}
	return nil
}
