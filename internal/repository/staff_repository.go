package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/meit-next/internal/models"

	"gorm.io/gorm"
)

// StaffRepository 员工数据访问接口
type StaffRepository interface {
	Create(staff *models.Staff) error
	Update(staff *models.Staff) error
	GetByID(id uint) (*models.Staff, error)
	GetByUsername(username string) (*models.Staff, error)
	List(filter StaffListFilter) ([]models.Staff, int64, error)
	UpdateLastLogin(id uint, at time.Time) error
	BumpTokenVersion(id uint) error
	WithTx(tx *gorm.DB) *GormStaffRepository
}

// GormStaffRepository GORM 员工仓储实现
type GormStaffRepository struct {
	db *gorm.DB
}

// NewStaffRepository 创建员工仓储
func NewStaffRepository(db *gorm.DB) *GormStaffRepository {
	return &GormStaffRepository{db: db}
}

// WithTx 绑定事务
func (r *GormStaffRepository) WithTx(tx *gorm.DB) *GormStaffRepository {
	if tx == nil {
		return r
	}
	return &GormStaffRepository{db: tx}
}

// Create 创建员工
func (r *GormStaffRepository) Create(staff *models.Staff) error {
	return r.db.Create(staff).Error
}

// Update 更新员工
func (r *GormStaffRepository) Update(staff *models.Staff) error {
	return r.db.Save(staff).Error
}

// GetByID 按ID获取员工
func (r *GormStaffRepository) GetByID(id uint) (*models.Staff, error) {
	if id == 0 {
		return nil, nil
	}
	var staff models.Staff
	if err := r.db.First(&staff, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &staff, nil
}

// GetByUsername 按用户名获取员工
func (r *GormStaffRepository) GetByUsername(username string) (*models.Staff, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, nil
	}
	var staff models.Staff
	if err := r.db.Where("username = ?", username).First(&staff).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &staff, nil
}

// List 分页查询员工
func (r *GormStaffRepository) List(filter StaffListFilter) ([]models.Staff, int64, error) {
	query := r.db.Model(&models.Staff{})
	if filter.MerchantID != 0 {
		query = query.Where("merchant_id = ?", filter.MerchantID)
	}
	if filter.Role != "" {
		query = query.Where("role = ?", filter.Role)
	}
	if filter.Search != "" {
		like := "%" + strings.TrimSpace(filter.Search) + "%"
		query = query.Where("(username LIKE ? OR display_name LIKE ?)", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var staffs []models.Staff
	if err := query.Order("id desc").Find(&staffs).Error; err != nil {
		return nil, 0, err
	}
	return staffs, total, nil
}

// UpdateLastLogin 更新最后登录时间
func (r *GormStaffRepository) UpdateLastLogin(id uint, at time.Time) error {
	if id == 0 {
		return nil
	}
	return r.db.Model(&models.Staff{}).Where("id = ?", id).Update("last_login_at", at).Error
}

// BumpTokenVersion 递增 Token 版本，使已签发的 Token 全部失效
func (r *GormStaffRepository) BumpTokenVersion(id uint) error {
	if id == 0 {
		return nil
	}
	return r.db.Model(&models.Staff{}).Where("id = ?", id).
		Update("token_version", gorm.Expr("token_version + 1")).Error
}
