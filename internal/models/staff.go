package models

import (
	"time"

	"gorm.io/gorm"
)

// Staff 后台员工账号
// role 为 super 时 merchant_id 为 0，可跨商户操作；owner/staff 绑定单商户。
type Staff struct {
	ID           uint           `gorm:"primarykey" json:"id"`                           // 主键
	Username     string         `gorm:"type:varchar(64);uniqueIndex;not null" json:"username"` // 用户名
	PasswordHash string         `gorm:"not null" json:"-"`                              // 密码哈希（不返回给前端）
	DisplayName  string         `gorm:"type:varchar(120);default:''" json:"display_name"` // 昵称
	MerchantID   uint           `gorm:"index;not null;default:0" json:"merchant_id"`    // 所属商户ID（0 表示平台级）
	Role         string         `gorm:"type:varchar(24);not null;default:'staff'" json:"role"` // 角色（super/owner/staff）
	Status       string         `gorm:"type:varchar(24);not null;default:'active'" json:"status"` // 账号状态
	TokenVersion uint64         `gorm:"not null;default:0" json:"-"`                    // Token 版本（用于全量失效）
	LastLoginAt  *time.Time     `json:"last_login_at"`                                  // 最后登录时间
	CreatedAt    time.Time      `gorm:"index" json:"created_at"`                        // 创建时间
	UpdatedAt    time.Time      `gorm:"index" json:"updated_at"`                        // 更新时间
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`                                 // 软删除时间
}

// TableName 指定表名
func (Staff) TableName() string {
	return "staffs"
}
