package service

import (
	"time"

	"github.com/meit-next/internal/logger"
	"github.com/meit-next/internal/models"
	"github.com/meit-next/internal/repository"

	"gorm.io/gorm"
)

// AuditService 审计日志服务
type AuditService struct {
	auditRepo repository.AuditLogRepository
}

// NewAuditService 创建审计日志服务
func NewAuditService(auditRepo repository.AuditLogRepository) *AuditService {
	return &AuditService{auditRepo: auditRepo}
}

// List 分页查询审计日志
func (s *AuditService) List(filter repository.AuditLogListFilter) ([]models.AuditLog, int64, error) {
	return s.auditRepo.List(filter)
}

// writeAuditTx 在事务内写入审计日志
func writeAuditTx(tx *gorm.DB, auditRepo repository.AuditLogRepository, entry *models.AuditLog) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	return auditRepo.WithTx(tx).Create(entry)
}

// writeAuditBestEffort 事务外写入审计日志，失败只记日志不阻断主流程
func writeAuditBestEffort(auditRepo repository.AuditLogRepository, entry *models.AuditLog) {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	if err := auditRepo.Create(entry); err != nil {
		logger.Warnw("audit_log_write_failed", "action", entry.Action, "error", err)
	}
}
