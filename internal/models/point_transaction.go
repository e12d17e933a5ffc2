package models

import (
	"time"

	"github.com/meit-next/internal/constants"
)

// PointTransaction 积分流水（账本，仅追加、不可变）
// 说明：points 恒为正数，方向由 type 决定；任意 (customer, merchant)
// 的余额必须可由其流水带符号求和重建。
type PointTransaction struct {
	ID            uint      `gorm:"primarykey" json:"id"`                                   // 主键
	CustomerID    uint      `gorm:"index:idx_point_txn_pair,priority:1;not null" json:"customer_id"` // 顾客ID
	MerchantID    uint      `gorm:"index:idx_point_txn_pair,priority:2;not null" json:"merchant_id"` // 商户ID
	BranchID      *uint     `gorm:"index" json:"branch_id,omitempty"`                       // 门店ID
	Type          string    `gorm:"type:varchar(32);index;not null" json:"type"`            // 类型（earn/redeem/adjustment_add/adjustment_subtract）
	Points        int64     `gorm:"not null" json:"points"`                                 // 积分数量（正数）
	ReferenceType string    `gorm:"type:varchar(32);index;default:''" json:"reference_type"` // 来源类型（purchase/checkin/gift_card/manual）
	Reference     *string   `gorm:"type:varchar(128);uniqueIndex" json:"reference,omitempty"` // 幂等参考号（可空）
	Description   string    `gorm:"type:varchar(255);default:''" json:"description"`        // 描述
	ActorID       uint      `gorm:"index;not null;default:0" json:"actor_id"`               // 操作者（员工ID，0 表示系统）
	CreatedAt     time.Time `gorm:"index" json:"created_at"`                                // 创建时间
}

// TableName 指定表名
func (PointTransaction) TableName() string {
	return "point_transactions"
}

// SignedPoints 返回带符号的积分变动量
func (t PointTransaction) SignedPoints() int64 {
	switch t.Type {
	case constants.PointTxnTypeEarn, constants.PointTxnTypeAdjustmentAdd:
		return t.Points
	case constants.PointTxnTypeRedeem, constants.PointTxnTypeAdjustmentSubtract:
		return -t.Points
	default:
		return 0
	}
}
