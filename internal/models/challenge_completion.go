package models

import "time"

// ChallengeCompletion 挑战达成记录
type ChallengeCompletion struct {
	ID          uint      `gorm:"primarykey" json:"id"`                                              // 主键
	ChallengeID uint      `gorm:"index:idx_completion_pair,priority:1;not null" json:"challenge_id"` // 挑战ID
	CustomerID  uint      `gorm:"index:idx_completion_pair,priority:2;not null" json:"customer_id"`  // 顾客ID
	MerchantID  uint      `gorm:"index;not null" json:"merchant_id"`                                 // 商户ID
	PointTxnID  uint      `gorm:"index;not null" json:"point_txn_id"`                                // 奖励积分流水ID
	SourceTxnID *uint     `gorm:"index" json:"source_txn_id,omitempty"`                              // 触发评估的入账流水ID
	Points      int64     `gorm:"not null" json:"points"`                                            // 发放积分
	CreatedAt   time.Time `gorm:"index" json:"created_at"`                                           // 达成时间
}

// TableName 指定表名
func (ChallengeCompletion) TableName() string {
	return "challenge_completions"
}
