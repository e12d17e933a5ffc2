package models

import "time"

// AuditLog 操作审计日志（仅追加）
type AuditLog struct {
	ID         uint      `gorm:"primarykey" json:"id"`                                 // 主键
	MerchantID uint      `gorm:"index;not null;default:0" json:"merchant_id"`          // 商户ID（0 表示平台级）
	ActorID    uint      `gorm:"index;not null;default:0" json:"actor_id"`             // 操作者员工ID（0 表示系统）
	Action     string    `gorm:"type:varchar(64);index;not null" json:"action"`        // 动作
	EntityType string    `gorm:"type:varchar(32);index;default:''" json:"entity_type"` // 实体类型
	EntityID   uint      `gorm:"index;default:0" json:"entity_id"`                     // 实体ID
	Detail     JSON      `gorm:"type:text" json:"detail"`                              // 详情
	RequestID  string    `gorm:"type:varchar(64);index;default:''" json:"request_id"`  // 请求追踪ID
	CreatedAt  time.Time `gorm:"index" json:"created_at"`                              // 创建时间
}

// TableName 指定表名
func (AuditLog) TableName() string {
	return "audit_logs"
}
