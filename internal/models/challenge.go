package models

import (
	"time"

	"gorm.io/gorm"
)

// Challenge 商户营销挑战
// target_value 按类型编码：amount_min 为最低消费金额（分位整数）；
// frequency 为 visits*1000+days；time_based 为 开始HHMM*10000+结束HHMM；
// category 为品类编码。
type Challenge struct {
	ID             uint           `gorm:"primarykey" json:"id"`                                // 主键
	MerchantID     uint           `gorm:"index;not null" json:"merchant_id"`                   // 商户ID
	Name           string         `gorm:"type:varchar(120);not null" json:"name"`              // 挑战名称
	Description    string         `gorm:"type:varchar(255);default:''" json:"description"`     // 描述
	Type           string         `gorm:"type:varchar(32);index;not null" json:"type"`         // 类型（amount_min/time_based/frequency/category）
	TargetValue    int64          `gorm:"not null" json:"target_value"`                        // 目标值（按类型编码）
	Points         int64          `gorm:"not null" json:"points"`                              // 达成奖励积分
	IsActive       bool           `gorm:"index;not null;default:true" json:"is_active"`        // 是否启用
	IsRepeatable   bool           `gorm:"not null;default:false" json:"is_repeatable"`         // 是否可重复达成
	MaxCompletions int            `gorm:"not null;default:0" json:"max_completions"`           // 重复上限（0 表示不限）
	StartsAt       *time.Time     `gorm:"index" json:"starts_at"`                              // 生效时间（可空）
	EndsAt         *time.Time     `gorm:"index" json:"ends_at"`                                // 截止时间（可空）
	CreatedAt      time.Time      `gorm:"index" json:"created_at"`                             // 创建时间
	UpdatedAt      time.Time      `gorm:"index" json:"updated_at"`                             // 更新时间
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`                                      // 软删除时间
}

// TableName 指定表名
func (Challenge) TableName() string {
	return "challenges"
}

// InWindow 判断挑战在给定时刻是否处于有效期内
func (c Challenge) InWindow(now time.Time) bool {
	if c.StartsAt != nil && now.Before(*c.StartsAt) {
		return false
	}
	if c.EndsAt != nil && now.After(*c.EndsAt) {
		return false
	}
	return true
}
