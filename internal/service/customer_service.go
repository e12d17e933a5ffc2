package service

import (
	"strings"

	"github.com/meit-next/internal/constants"
	"github.com/meit-next/internal/models"
	"github.com/meit-next/internal/repository"
)

// CustomerService 顾客管理服务
type CustomerService struct {
	customerRepo repository.CustomerRepository
	linkRepo     repository.CustomerMerchantRepository
	auditRepo    repository.AuditLogRepository
}

// NewCustomerService 创建顾客管理服务
func NewCustomerService(
	customerRepo repository.CustomerRepository,
	linkRepo repository.CustomerMerchantRepository,
	auditRepo repository.AuditLogRepository,
) *CustomerService {
	return &CustomerService{customerRepo: customerRepo, linkRepo: linkRepo, auditRepo: auditRepo}
}

// CustomerInput 顾客注册/更新输入（更新时手机号不参与，注册后不可变）
type CustomerInput struct {
	Phone          string
	Name           string
	Email          string
	MarketingOptIn bool
}

// Register 注册顾客
func (s *CustomerService) Register(input CustomerInput, merchantID, actorID uint) (*models.Customer, error) {
	phone := strings.TrimSpace(input.Phone)
	if phone == "" {
		return nil, ErrInvalidPhone
	}
	existing, err := s.customerRepo.GetByPhone(phone)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrCustomerExists
	}

	customer := &models.Customer{
		Phone:          phone,
		Name:           strings.TrimSpace(input.Name),
		Email:          strings.TrimSpace(input.Email),
		MarketingOptIn: input.MarketingOptIn,
	}
	if err := s.customerRepo.Create(customer); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrCustomerExists
		}
		return nil, err
	}
	writeAuditBestEffort(s.auditRepo, &models.AuditLog{
		MerchantID: merchantID,
		ActorID:    actorID,
		Action:     constants.AuditActionCustomerSave,
		EntityType: constants.AuditEntityCustomer,
		EntityID:   customer.ID,
		Detail:     models.JSON{"phone": customer.Phone, "created": true},
	})
	return customer, nil
}

// Update 更新顾客资料，手机号不可变更
func (s *CustomerService) Update(id uint, input CustomerInput, merchantID, actorID uint) (*models.Customer, error) {
	customer, err := s.customerRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, ErrCustomerNotFound
	}
	customer.Name = strings.TrimSpace(input.Name)
	customer.Email = strings.TrimSpace(input.Email)
	customer.MarketingOptIn = input.MarketingOptIn
	if err := s.customerRepo.Update(customer); err != nil {
		return nil, err
	}
	writeAuditBestEffort(s.auditRepo, &models.AuditLog{
		MerchantID: merchantID,
		ActorID:    actorID,
		Action:     constants.AuditActionCustomerSave,
		EntityType: constants.AuditEntityCustomer,
		EntityID:   customer.ID,
		Detail:     models.JSON{"phone": customer.Phone, "created": false},
	})
	return customer, nil
}

// Get 获取顾客
func (s *CustomerService) Get(id uint) (*models.Customer, error) {
	customer, err := s.customerRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, ErrCustomerNotFound
	}
	return customer, nil
}

// GetWithBalance 获取顾客及其在指定商户的积分余额
func (s *CustomerService) GetWithBalance(id, merchantID uint) (*models.Customer, *models.CustomerMerchant, error) {
	customer, err := s.Get(id)
	if err != nil {
		return nil, nil, err
	}
	link, err := s.linkRepo.GetByPair(id, merchantID)
	if err != nil {
		return nil, nil, err
	}
	return customer, link, nil
}

// List 分页查询顾客
func (s *CustomerService) List(filter repository.CustomerListFilter) ([]models.Customer, int64, error) {
	return s.customerRepo.List(filter)
}

// Balances 批量查询顾客在指定商户的余额
func (s *CustomerService) Balances(customerIDs []uint, merchantID uint) (map[uint]int64, error) {
	result := make(map[uint]int64, len(customerIDs))
	for _, customerID := range customerIDs {
		link, err := s.linkRepo.GetByPair(customerID, merchantID)
		if err != nil {
			return nil, err
		}
		if link != nil {
			result[customerID] = link.PointsBalance
		}
	}
	return result, nil
}
