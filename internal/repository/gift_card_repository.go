package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/meit-next/internal/constants"
	"github.com/meit-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GiftCardRepository 礼品卡数据访问接口
type GiftCardRepository interface {
	Create(card *models.GiftCard) error
	Update(card *models.GiftCard) error
	GetByID(id uint) (*models.GiftCard, error)
	GetByIDForUpdate(id uint) (*models.GiftCard, error)
	GetByMerchantAndCode(merchantID uint, code string) (*models.GiftCard, error)
	GetByMerchantAndCodeForUpdate(merchantID uint, code string) (*models.GiftCard, error)
	GetBySourceTxn(txnID uint) (*models.GiftCard, error)
	List(filter GiftCardListFilter) ([]models.GiftCard, int64, error)
	ExpireOverdue(now time.Time) (int64, error)
	WithTx(tx *gorm.DB) *GormGiftCardRepository
}

// GormGiftCardRepository GORM 礼品卡仓储实现
type GormGiftCardRepository struct {
	db *gorm.DB
}

// NewGiftCardRepository 创建礼品卡仓储
func NewGiftCardRepository(db *gorm.DB) *GormGiftCardRepository {
	return &GormGiftCardRepository{db: db}
}

// WithTx 绑定事务
func (r *GormGiftCardRepository) WithTx(tx *gorm.DB) *GormGiftCardRepository {
	if tx == nil {
		return r
	}
	return &GormGiftCardRepository{db: tx}
}

// Create 创建礼品卡
func (r *GormGiftCardRepository) Create(card *models.GiftCard) error {
	return r.db.Create(card).Error
}

// Update 更新礼品卡
func (r *GormGiftCardRepository) Update(card *models.GiftCard) error {
	return r.db.Save(card).Error
}

// GetByID 按ID获取礼品卡
func (r *GormGiftCardRepository) GetByID(id uint) (*models.GiftCard, error) {
	if id == 0 {
		return nil, nil
	}
	var card models.GiftCard
	if err := r.db.First(&card, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &card, nil
}

// GetByIDForUpdate 按ID加锁获取礼品卡
func (r *GormGiftCardRepository) GetByIDForUpdate(id uint) (*models.GiftCard, error) {
	if id == 0 {
		return nil, nil
	}
	var card models.GiftCard
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&card, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &card, nil
}

// GetByMerchantAndCode 按 (商户, 卡码) 获取礼品卡
// 商户不匹配一律视为不存在，跨租户查询不泄露卡片信息。
func (r *GormGiftCardRepository) GetByMerchantAndCode(merchantID uint, code string) (*models.GiftCard, error) {
	code = strings.TrimSpace(code)
	if merchantID == 0 || code == "" {
		return nil, nil
	}
	var card models.GiftCard
	if err := r.db.Where("merchant_id = ? AND code = ?", merchantID, code).First(&card).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &card, nil
}

// GetByMerchantAndCodeForUpdate 按 (商户, 卡码) 加锁获取礼品卡
func (r *GormGiftCardRepository) GetByMerchantAndCodeForUpdate(merchantID uint, code string) (*models.GiftCard, error) {
	code = strings.TrimSpace(code)
	if merchantID == 0 || code == "" {
		return nil, nil
	}
	var card models.GiftCard
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("merchant_id = ? AND code = ?", merchantID, code).
		First(&card).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &card, nil
}

// GetBySourceTxn 按触发铸造的入账流水查找礼品卡
func (r *GormGiftCardRepository) GetBySourceTxn(txnID uint) (*models.GiftCard, error) {
	if txnID == 0 {
		return nil, nil
	}
	var card models.GiftCard
	if err := r.db.Where("source_txn_id = ?", txnID).First(&card).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &card, nil
}

// List 分页查询礼品卡
func (r *GormGiftCardRepository) List(filter GiftCardListFilter) ([]models.GiftCard, int64, error) {
	query := r.db.Model(&models.GiftCard{})
	if filter.MerchantID != 0 {
		query = query.Where("merchant_id = ?", filter.MerchantID)
	}
	if filter.CustomerID != 0 {
		query = query.Where("customer_id = ?", filter.CustomerID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Code != "" {
		query = query.Where("code LIKE ?", "%"+strings.ToUpper(strings.TrimSpace(filter.Code))+"%")
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var cards []models.GiftCard
	if err := query.Order("id desc").Find(&cards).Error; err != nil {
		return nil, 0, err
	}
	return cards, total, nil
}

// ExpireOverdue 批量将过期未核销的礼品卡置为 expired，返回受影响行数
func (r *GormGiftCardRepository) ExpireOverdue(now time.Time) (int64, error) {
	result := r.db.Model(&models.GiftCard{}).
		Where("status = ? AND expires_at < ?", constants.GiftCardStatusActive, now).
		Updates(map[string]interface{}{
			"status":     constants.GiftCardStatusExpired,
			"updated_at": now,
		})
	return result.RowsAffected, result.Error
}
