package queue

import (
	"encoding/json"
	"time"

	"github.com/meit-next/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskGiftCardExpireSweep 礼品卡过期清扫任务
	TaskGiftCardExpireSweep = constants.TaskGiftCardExpireSweep
)

// GiftCardExpireSweepPayload 礼品卡过期清扫任务载荷
type GiftCardExpireSweepPayload struct {
	RequestedAt time.Time `json:"requested_at"`
}

// NewGiftCardExpireSweepTask 创建礼品卡过期清扫任务
func NewGiftCardExpireSweepTask(payload GiftCardExpireSweepPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskGiftCardExpireSweep, body), nil
}
