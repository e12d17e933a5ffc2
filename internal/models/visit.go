package models

import "time"

// Visit 顾客到店记录（frequency 挑战按窗口统计的依据）
type Visit struct {
	ID         uint      `gorm:"primarykey" json:"id"`                                          // 主键
	CustomerID uint      `gorm:"index:idx_visit_pair,priority:1;not null" json:"customer_id"`   // 顾客ID
	MerchantID uint      `gorm:"index:idx_visit_pair,priority:2;not null" json:"merchant_id"`   // 商户ID
	BranchID   *uint     `gorm:"index" json:"branch_id,omitempty"`                              // 门店ID
	CreatedAt  time.Time `gorm:"index:idx_visit_pair,priority:3" json:"created_at"`             // 到店时间
}

// TableName 指定表名
func (Visit) TableName() string {
	return "visits"
}
