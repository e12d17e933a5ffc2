package models

import (
	"time"

	"gorm.io/gorm"
)

// Customer 顾客（跨商户共享身份，手机号全局唯一且不可变）
type Customer struct {
	ID          uint           `gorm:"primarykey" json:"id"`                            // 主键
	Phone       string         `gorm:"type:varchar(32);uniqueIndex;not null" json:"phone"` // 手机号
	Name        string         `gorm:"type:varchar(120);default:''" json:"name"`        // 姓名
	Email       string         `gorm:"type:varchar(255);default:''" json:"email"`       // 邮箱（可选）
	MarketingOptIn bool        `gorm:"not null;default:false" json:"marketing_opt_in"`  // 营销推送授权
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`                         // 创建时间
	UpdatedAt   time.Time      `gorm:"index" json:"updated_at"`                         // 更新时间
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`                                  // 软删除时间
}

// TableName 指定表名
func (Customer) TableName() string {
	return "customers"
}
