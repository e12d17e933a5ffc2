package models

import (
	"strings"

	"github.com/meit-next/internal/constants"
	"github.com/meit-next/internal/logger"

	"golang.org/x/crypto/bcrypt"
)

// InitDefaultStaff 初始化默认平台管理员账号
func InitDefaultStaff(username, password string) error {
	var count int64
	DB.Model(&Staff{}).Count(&count)

	// 如果已有员工，确保默认 admin 保持平台管理员角色
	if count > 0 {
		if err := DB.Model(&Staff{}).Where("username = ?", "admin").Update("role", constants.StaffRoleSuper).Error; err != nil {
			logger.Warnw("ensure_default_staff_super_failed", "error", err)
		}
		return nil
	}

	// 创建默认平台管理员
	if username == "" {
		username = "admin"
	}
	if password == "" {
		password = "admin123"
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	staff := Staff{
		Username:     username,
		PasswordHash: string(hash),
		Role:         constants.StaffRoleStaff,
		Status:       constants.StaffStatusActive,
	}
	if strings.EqualFold(strings.TrimSpace(username), "admin") {
		staff.Role = constants.StaffRoleSuper
	}

	if err := DB.Create(&staff).Error; err != nil {
		return err
	}

	if password == "admin123" {
		logger.Warnw("default_staff_created_with_default_password", "username", username, "password", password)
		logger.Warnw("default_staff_password_change_required", "username", username)
	} else {
		logger.Warnw("default_staff_created", "username", username, "password_hidden", true)
	}

	return nil
}
