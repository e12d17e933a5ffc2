package service

import (
	"strings"

	"github.com/meit-next/internal/constants"
	"github.com/meit-next/internal/models"
	"github.com/meit-next/internal/repository"
)

// MerchantService 商户与积分配置管理服务
type MerchantService struct {
	merchantRepo repository.MerchantRepository
	auditRepo    repository.AuditLogRepository
}

// NewMerchantService 创建商户管理服务
func NewMerchantService(merchantRepo repository.MerchantRepository, auditRepo repository.AuditLogRepository) *MerchantService {
	return &MerchantService{merchantRepo: merchantRepo, auditRepo: auditRepo}
}

// MerchantInput 商户创建/更新输入
type MerchantInput struct {
	Name     string
	Currency string
	IsActive bool
}

// LoyaltyConfigInput 积分与礼品卡配置输入
type LoyaltyConfigInput struct {
	PointsPerUnit      models.Money
	GiftCardThreshold  int64
	GiftCardValue      models.Money
	GiftCardExpiryDays int
}

// Create 创建商户
func (s *MerchantService) Create(input MerchantInput, actorID uint) (*models.Merchant, error) {
	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	if currency == "" {
		currency = "USD"
	}
	merchant := &models.Merchant{
		Name:     strings.TrimSpace(input.Name),
		Currency: currency,
		IsActive: input.IsActive,
	}
	if err := s.merchantRepo.Create(merchant); err != nil {
		return nil, err
	}
	writeAuditBestEffort(s.auditRepo, &models.AuditLog{
		MerchantID: merchant.ID,
		ActorID:    actorID,
		Action:     constants.AuditActionMerchantConfig,
		EntityType: constants.AuditEntityMerchant,
		EntityID:   merchant.ID,
		Detail:     models.JSON{"name": merchant.Name, "created": true},
	})
	return merchant, nil
}

// Update 更新商户基础信息
func (s *MerchantService) Update(id uint, input MerchantInput, actorID uint) (*models.Merchant, error) {
	merchant, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	merchant.Name = strings.TrimSpace(input.Name)
	if currency := strings.ToUpper(strings.TrimSpace(input.Currency)); currency != "" {
		merchant.Currency = currency
	}
	merchant.IsActive = input.IsActive
	if err := s.merchantRepo.Update(merchant); err != nil {
		return nil, err
	}
	writeAuditBestEffort(s.auditRepo, &models.AuditLog{
		MerchantID: merchant.ID,
		ActorID:    actorID,
		Action:     constants.AuditActionMerchantConfig,
		EntityType: constants.AuditEntityMerchant,
		EntityID:   merchant.ID,
		Detail:     models.JSON{"name": merchant.Name, "created": false},
	})
	return merchant, nil
}

// UpdateLoyaltyConfig 更新积分倍率与礼品卡配置
// 门槛大于 0 时必须同时给出面额与有效期，引擎不补默认值。
func (s *MerchantService) UpdateLoyaltyConfig(id uint, input LoyaltyConfigInput, actorID uint) (*models.Merchant, error) {
	merchant, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if input.GiftCardThreshold > 0 &&
		(input.GiftCardValue.Decimal.Sign() <= 0 || input.GiftCardExpiryDays <= 0) {
		return nil, ErrMerchantConfigMissing
	}
	merchant.PointsPerUnit = input.PointsPerUnit
	merchant.GiftCardThreshold = input.GiftCardThreshold
	merchant.GiftCardValue = input.GiftCardValue
	merchant.GiftCardExpiryDays = input.GiftCardExpiryDays
	if err := s.merchantRepo.Update(merchant); err != nil {
		return nil, err
	}
	writeAuditBestEffort(s.auditRepo, &models.AuditLog{
		MerchantID: merchant.ID,
		ActorID:    actorID,
		Action:     constants.AuditActionMerchantConfig,
		EntityType: constants.AuditEntityMerchant,
		EntityID:   merchant.ID,
		Detail: models.JSON{
			"points_per_unit":       merchant.PointsPerUnit.String(),
			"gift_card_threshold":   merchant.GiftCardThreshold,
			"gift_card_value":       merchant.GiftCardValue.String(),
			"gift_card_expiry_days": merchant.GiftCardExpiryDays,
		},
	})
	return merchant, nil
}

// Get 获取商户
func (s *MerchantService) Get(id uint) (*models.Merchant, error) {
	merchant, err := s.merchantRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if merchant == nil {
		return nil, ErrMerchantNotFound
	}
	return merchant, nil
}

// List 分页查询商户
func (s *MerchantService) List(filter repository.MerchantListFilter) ([]models.Merchant, int64, error) {
	return s.merchantRepo.List(filter)
}
