package models

import (
	"time"

	"gorm.io/gorm"
)

// GiftCard 礼品卡
// 状态机：active → redeemed / expired / cancelled，终态不可再变更。
type GiftCard struct {
	ID          uint           `gorm:"primarykey" json:"id"`                                                    // 主键
	MerchantID  uint           `gorm:"uniqueIndex:idx_gift_card_code,priority:1;not null" json:"merchant_id"`   // 商户ID
	Code        string         `gorm:"type:varchar(16);uniqueIndex:idx_gift_card_code,priority:2;not null" json:"code"` // 卡码（商户内唯一，大写存储）
	CustomerID  uint           `gorm:"index;not null" json:"customer_id"`                                       // 持有顾客ID
	PointsCost  int64          `gorm:"not null" json:"points_cost"`                                             // 铸造扣除积分
	RewardValue Money          `gorm:"type:decimal(20,2);not null" json:"reward_value"`                         // 面额
	Currency    string         `gorm:"type:varchar(16);not null;default:'USD'" json:"currency"`                 // 币种
	Status      string         `gorm:"type:varchar(24);index;not null;default:'active'" json:"status"`          // 状态
	ExpiresAt   time.Time      `gorm:"index;not null" json:"expires_at"`                                        // 过期时间
	RedeemedAt  *time.Time     `gorm:"index" json:"redeemed_at"`                                                // 核销时间
	RedeemedBy  *uint          `gorm:"index" json:"redeemed_by,omitempty"`                                      // 核销员工ID
	PointTxnID  *uint          `gorm:"index" json:"point_txn_id,omitempty"`                                     // 铸造扣分流水ID
	SourceTxnID *uint          `gorm:"index" json:"source_txn_id,omitempty"`                                    // 触发铸造的入账流水ID
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`                                                 // 创建时间
	UpdatedAt   time.Time      `gorm:"index" json:"updated_at"`                                                 // 更新时间
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`                                                          // 软删除时间
}

// TableName 指定表名
func (GiftCard) TableName() string {
	return "gift_cards"
}
