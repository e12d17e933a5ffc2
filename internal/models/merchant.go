package models

import (
	"time"

	"gorm.io/gorm"
)

// Merchant 商户（租户）
type Merchant struct {
	ID                 uint           `gorm:"primarykey" json:"id"`                                      // 主键
	Name               string         `gorm:"type:varchar(120);not null" json:"name"`                    // 商户名称
	Currency           string         `gorm:"type:varchar(16);not null;default:'USD'" json:"currency"`   // 币种
	PointsPerUnit      Money          `gorm:"type:decimal(20,2);not null;default:1" json:"points_per_unit"` // 每货币单位积分倍率
	GiftCardThreshold  int64          `gorm:"not null;default:0" json:"gift_card_threshold"`             // 礼品卡所需积分
	GiftCardValue      Money          `gorm:"type:decimal(20,2);not null;default:0" json:"gift_card_value"` // 礼品卡面额
	GiftCardExpiryDays int            `gorm:"not null;default:0" json:"gift_card_expiry_days"`           // 礼品卡有效期（天）
	IsActive           bool           `gorm:"not null;default:true" json:"is_active"`                    // 是否启用
	CreatedAt          time.Time      `gorm:"index" json:"created_at"`                                   // 创建时间
	UpdatedAt          time.Time      `gorm:"index" json:"updated_at"`                                   // 更新时间
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`                                            // 软删除时间
}

// TableName 指定表名
func (Merchant) TableName() string {
	return "merchants"
}
