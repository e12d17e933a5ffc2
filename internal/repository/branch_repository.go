package repository

import (
	"errors"
	"strings"

	"github.com/meit-next/internal/models"

	"gorm.io/gorm"
)

// BranchRepository 门店数据访问接口
type BranchRepository interface {
	Create(branch *models.Branch) error
	Update(branch *models.Branch) error
	Delete(id uint) error
	GetByID(id uint) (*models.Branch, error)
	List(filter BranchListFilter) ([]models.Branch, int64, error)
	WithTx(tx *gorm.DB) *GormBranchRepository
}

// GormBranchRepository GORM 门店仓储实现
type GormBranchRepository struct {
	db *gorm.DB
}

// NewBranchRepository 创建门店仓储
func NewBranchRepository(db *gorm.DB) *GormBranchRepository {
	return &GormBranchRepository{db: db}
}

// WithTx 绑定事务
func (r *GormBranchRepository) WithTx(tx *gorm.DB) *GormBranchRepository {
	if tx == nil {
		return r
	}
	return &GormBranchRepository{db: tx}
}

// Create 创建门店
func (r *GormBranchRepository) Create(branch *models.Branch) error {
	return r.db.Create(branch).Error
}

// Update 更新门店
func (r *GormBranchRepository) Update(branch *models.Branch) error {
	return r.db.Save(branch).Error
}

// Delete 删除门店（软删除）
func (r *GormBranchRepository) Delete(id uint) error {
	if id == 0 {
		return nil
	}
	return r.db.Delete(&models.Branch{}, id).Error
}

// GetByID 按ID获取门店
func (r *GormBranchRepository) GetByID(id uint) (*models.Branch, error) {
	if id == 0 {
		return nil, nil
	}
	var branch models.Branch
	if err := r.db.First(&branch, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &branch, nil
}

// List 分页查询门店
func (r *GormBranchRepository) List(filter BranchListFilter) ([]models.Branch, int64, error) {
	query := r.db.Model(&models.Branch{})
	if filter.MerchantID != 0 {
		query = query.Where("merchant_id = ?", filter.MerchantID)
	}
	if filter.Search != "" {
		like := "%" + strings.TrimSpace(filter.Search) + "%"
		query = query.Where("(name LIKE ? OR address LIKE ?)", like, like)
	}
	if filter.OnlyActive {
		query = query.Where("is_active = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var branches []models.Branch
	if err := query.Order("id desc").Find(&branches).Error; err != nil {
		return nil, 0, err
	}
	return branches, total, nil
}
