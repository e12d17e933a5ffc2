package models

import (
	"time"

	"gorm.io/gorm"
)

// Branch 商户门店
type Branch struct {
	ID         uint           `gorm:"primarykey" json:"id"`                       // 主键
	MerchantID uint           `gorm:"index;not null" json:"merchant_id"`          // 商户ID
	Name       string         `gorm:"type:varchar(120);not null" json:"name"`     // 门店名称
	Address    string         `gorm:"type:varchar(255);default:''" json:"address"` // 地址
	Phone      string         `gorm:"type:varchar(32);default:''" json:"phone"`   // 联系电话
	IsActive   bool           `gorm:"not null;default:true" json:"is_active"`     // 是否启用
	CreatedAt  time.Time      `gorm:"index" json:"created_at"`                    // 创建时间
	UpdatedAt  time.Time      `gorm:"index" json:"updated_at"`                    // 更新时间
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`                             // 软删除时间
}

// TableName 指定表名
func (Branch) TableName() string {
	return "branches"
}
