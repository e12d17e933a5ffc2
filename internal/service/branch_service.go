package service

import (
	"strings"

	"github.com/meit-next/internal/constants"
	"github.com/meit-next/internal/models"
	"github.com/meit-next/internal/repository"
)

// BranchService 门店管理服务
type BranchService struct {
	branchRepo repository.BranchRepository
	auditRepo  repository.AuditLogRepository
}

// NewBranchService 创建门店管理服务
func NewBranchService(branchRepo repository.BranchRepository, auditRepo repository.AuditLogRepository) *BranchService {
	return &BranchService{branchRepo: branchRepo, auditRepo: auditRepo}
}

// BranchInput 门店创建/更新输入
type BranchInput struct {
	Name     string
	Address  string
	Phone    string
	IsActive bool
}

// Create 创建门店
func (s *BranchService) Create(merchantID uint, input BranchInput, actorID uint) (*models.Branch, error) {
	branch := &models.Branch{
		MerchantID: merchantID,
		Name:       strings.TrimSpace(input.Name),
		Address:    strings.TrimSpace(input.Address),
		Phone:      strings.TrimSpace(input.Phone),
		IsActive:   input.IsActive,
	}
	if err := s.branchRepo.Create(branch); err != nil {
		return nil, err
	}
	writeAuditBestEffort(s.auditRepo, &models.AuditLog{
		MerchantID: merchantID,
		ActorID:    actorID,
		Action:     constants.AuditActionBranchSave,
		EntityType: constants.AuditEntityBranch,
		EntityID:   branch.ID,
		Detail:     models.JSON{"name": branch.Name, "created": true},
	})
	return branch, nil
}

// Update 更新门店
func (s *BranchService) Update(merchantID, id uint, input BranchInput, actorID uint) (*models.Branch, error) {
	branch, err := s.getOwned(merchantID, id)
	if err != nil {
		return nil, err
	}
	branch.Name = strings.TrimSpace(input.Name)
	branch.Address = strings.TrimSpace(input.Address)
	branch.Phone = strings.TrimSpace(input.Phone)
	branch.IsActive = input.IsActive
	if err := s.branchRepo.Update(branch); err != nil {
		return nil, err
	}
	writeAuditBestEffort(s.auditRepo, &models.AuditLog{
		MerchantID: merchantID,
		ActorID:    actorID,
		Action:     constants.AuditActionBranchSave,
		EntityType: constants.AuditEntityBranch,
		EntityID:   branch.ID,
		Detail:     models.JSON{"name": branch.Name, "created": false},
	})
	return branch, nil
}

// Delete 删除门店
func (s *BranchService) Delete(merchantID, id uint, actorID uint) error {
	branch, err := s.getOwned(merchantID, id)
	if err != nil {
		return err
	}
	if err := s.branchRepo.Delete(branch.ID); err != nil {
		return err
	}
	writeAuditBestEffort(s.auditRepo, &models.AuditLog{
		MerchantID: merchantID,
		ActorID:    actorID,
		Action:     constants.AuditActionBranchSave,
		EntityType: constants.AuditEntityBranch,
		EntityID:   branch.ID,
		Detail:     models.JSON{"name": branch.Name, "deleted": true},
	})
	return nil
}

// Get 获取商户名下的门店
func (s *BranchService) Get(merchantID, id uint) (*models.Branch, error) {
	return s.getOwned(merchantID, id)
}

// List 分页查询门店
func (s *BranchService) List(filter repository.BranchListFilter) ([]models.Branch, int64, error) {
	return s.branchRepo.List(filter)
}

func (s *BranchService) getOwned(merchantID, id uint) (*models.Branch, error) {
	branch, err := s.branchRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if branch == nil || branch.MerchantID != merchantID {
		return nil, ErrBranchNotFound
	}
	return branch, nil
}
