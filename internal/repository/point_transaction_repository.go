package repository

import (
	"errors"
	"strings"

	"github.com/meit-next/internal/constants"
	"github.com/meit-next/internal/models"

	"gorm.io/gorm"
)

// PointTransactionRepository 积分流水数据访问接口
type PointTransactionRepository interface {
	Create(txn *models.PointTransaction) error
	GetByReference(reference string) (*models.PointTransaction, error)
	List(filter PointTransactionListFilter) ([]models.PointTransaction, int64, error)
	SumSignedByPair(customerID, merchantID uint) (int64, error)
	WithTx(tx *gorm.DB) *GormPointTransactionRepository
}

// GormPointTransactionRepository GORM 积分流水仓储实现
type GormPointTransactionRepository struct {
	db *gorm.DB
}

// NewPointTransactionRepository 创建积分流水仓储
func NewPointTransactionRepository(db *gorm.DB) *GormPointTransactionRepository {
	return &GormPointTransactionRepository{db: db}
}

// WithTx 绑定事务
func (r *GormPointTransactionRepository) WithTx(tx *gorm.DB) *GormPointTransactionRepository {
	if tx == nil {
		return r
	}
	return &GormPointTransactionRepository{db: tx}
}

// Create 创建积分流水（仅追加，创建后不可修改）
func (r *GormPointTransactionRepository) Create(txn *models.PointTransaction) error {
	return r.db.Create(txn).Error
}

// GetByReference 按参考号获取流水
func (r *GormPointTransactionRepository) GetByReference(reference string) (*models.PointTransaction, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, nil
	}
	var txn models.PointTransaction
	if err := r.db.Where("reference = ?", reference).First(&txn).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &txn, nil
}

// List 分页查询积分流水
func (r *GormPointTransactionRepository) List(filter PointTransactionListFilter) ([]models.PointTransaction, int64, error) {
	query := r.db.Model(&models.PointTransaction{})
	if filter.CustomerID != 0 {
		query = query.Where("customer_id = ?", filter.CustomerID)
	}
	if filter.MerchantID != 0 {
		query = query.Where("merchant_id = ?", filter.MerchantID)
	}
	if filter.BranchID != 0 {
		query = query.Where("branch_id = ?", filter.BranchID)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.ReferenceType != "" {
		query = query.Where("reference_type = ?", filter.ReferenceType)
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

	var txns []models.PointTransaction
	if err := query.Order("id desc").Find(&txns).Error; err != nil {
		return nil, 0, err
	}
	return txns, total, nil
}

// SumSignedByPair 按 (顾客, 商户) 对流水做带符号求和
// 余额必须恒等于该值，对账与测试据此校验。
func (r *GormPointTransactionRepository) SumSignedByPair(customerID, merchantID uint) (int64, error) {
	var sum int64
	err := r.db.Model(&models.PointTransaction{}).
		Select("COALESCE(SUM(CASE WHEN type IN (?, ?) THEN points ELSE -points END), 0)",
			constants.PointTxnTypeEarn, constants.PointTxnTypeAdjustmentAdd).
		Where("customer_id = ? AND merchant_id = ?", customerID, merchantID).
		Scan(&sum).Error
	return sum, err
}
