package service

import (
	"strings"

	"github.com/meit-next/internal/models"
	"github.com/meit-next/internal/repository"

	"gorm.io/gorm"
)

// isUniqueViolation 判断是否为唯一约束冲突（兼容 sqlite 与 postgres 的报错文本）
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}

// normalizeGiftCardCode 规范化礼品卡卡码：去空白并转大写
func normalizeGiftCardCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ensureLinkForUpdate 加锁获取 (顾客, 商户) 关系行，不存在时惰性创建后再加锁
func ensureLinkForUpdate(tx *gorm.DB, linkRepo repository.CustomerMerchantRepository, customerID, merchantID uint) (*models.CustomerMerchant, error) {
	repo := linkRepo.WithTx(tx)
	link, err := repo.GetByPairForUpdate(customerID, merchantID)
	if err != nil {
		return nil, err
	}
	if link != nil {
		return link, nil
	}
	created := &models.CustomerMerchant{
		CustomerID: customerID,
		MerchantID: merchantID,
	}
	if err := repo.Create(created); err != nil && !isUniqueViolation(err) {
		return nil, err
	}
	link, err = repo.GetByPairForUpdate(customerID, merchantID)
	if err != nil {
		return nil, err
	}
	if link == nil {
		return nil, ErrPersistenceFailure
	}
	return link, nil
}
