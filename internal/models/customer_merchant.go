package models

import "time"

// CustomerMerchant 顾客-商户关系（单商户维度的权威余额）
// 说明：每个 (customer, merchant) 对唯一一行，首次互动时惰性创建；
// 余额变更必须走相对增量更新并受行锁保护，禁止读-改-写回。
type CustomerMerchant struct {
	ID            uint       `gorm:"primarykey" json:"id"`                                             // 主键
	CustomerID    uint       `gorm:"uniqueIndex:idx_customer_merchant,priority:1;not null" json:"customer_id"` // 顾客ID
	MerchantID    uint       `gorm:"uniqueIndex:idx_customer_merchant,priority:2;not null" json:"merchant_id"` // 商户ID
	PointsBalance int64      `gorm:"not null;default:0" json:"points_balance"`                         // 积分余额（不允许为负）
	VisitsCount   int        `gorm:"not null;default:0" json:"visits_count"`                           // 到店次数
	LastVisitAt   *time.Time `gorm:"index" json:"last_visit_at"`                                       // 最近到店时间
	CreatedAt     time.Time  `gorm:"index" json:"created_at"`                                          // 创建时间
	UpdatedAt     time.Time  `gorm:"index" json:"updated_at"`                                          // 更新时间
}

// TableName 指定表名
func (CustomerMerchant) TableName() string {
	return "customer_merchants"
}
