package repository

import (
	"errors"
	"time"

	"github.com/meit-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CustomerMerchantRepository 顾客-商户关系数据访问接口
type CustomerMerchantRepository interface {
	GetByPair(customerID, merchantID uint) (*models.CustomerMerchant, error)
	GetByPairForUpdate(customerID, merchantID uint) (*models.CustomerMerchant, error)
	Create(link *models.CustomerMerchant) error
	AddBalanceDelta(customerID, merchantID uint, delta int64) (int64, error)
	RecordVisit(visit *models.Visit) error
	CountVisitsSince(customerID, merchantID uint, since time.Time) (int64, error)
	ListByCustomer(customerID uint) ([]models.CustomerMerchant, error)
	WithTx(tx *gorm.DB) *GormCustomerMerchantRepository
}

// GormCustomerMerchantRepository GORM 顾客-商户关系仓储实现
type GormCustomerMerchantRepository struct {
	db *gorm.DB
}

// NewCustomerMerchantRepository 创建顾客-商户关系仓储
func NewCustomerMerchantRepository(db *gorm.DB) *GormCustomerMerchantRepository {
	return &GormCustomerMerchantRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCustomerMerchantRepository) WithTx(tx *gorm.DB) *GormCustomerMerchantRepository {
	if tx == nil {
		return r
	}
	return &GormCustomerMerchantRepository{db: tx}
}

// GetByPair 按 (顾客, 商户) 获取关系行
func (r *GormCustomerMerchantRepository) GetByPair(customerID, merchantID uint) (*models.CustomerMerchant, error) {
	if customerID == 0 || merchantID == 0 {
		return nil, nil
	}
	var link models.CustomerMerchant
	if err := r.db.Where("customer_id = ? AND merchant_id = ?", customerID, merchantID).First(&link).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &link, nil
}

// GetByPairForUpdate 按 (顾客, 商户) 加锁获取关系行
func (r *GormCustomerMerchantRepository) GetByPairForUpdate(customerID, merchantID uint) (*models.CustomerMerchant, error) {
	if customerID == 0 || merchantID == 0 {
		return nil, nil
	}
	var link models.CustomerMerchant
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("customer_id = ? AND merchant_id = ?", customerID, merchantID).
		First(&link).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &link, nil
}

// Create 创建关系行
func (r *GormCustomerMerchantRepository) Create(link *models.CustomerMerchant) error {
	return r.db.Create(link).Error
}

// AddBalanceDelta 以相对增量更新余额，余额不足时不更新
// 返回受影响行数：0 表示会导致负余额（或行不存在），调用方据此拒绝。
func (r *GormCustomerMerchantRepository) AddBalanceDelta(customerID, merchantID uint, delta int64) (int64, error) {
	result := r.db.Model(&models.CustomerMerchant{}).
		Where("customer_id = ? AND merchant_id = ? AND points_balance + ? >= 0", customerID, merchantID, delta).
		Updates(map[string]interface{}{
			"points_balance": gorm.Expr("points_balance + ?", delta),
			"updated_at":     time.Now(),
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// RecordVisit 记录一次到店并刷新关系行的到店统计
func (r *GormCustomerMerchantRepository) RecordVisit(visit *models.Visit) error {
	if err := r.db.Create(visit).Error; err != nil {
		return err
	}
	return r.db.Model(&models.CustomerMerchant{}).
		Where("customer_id = ? AND merchant_id = ?", visit.CustomerID, visit.MerchantID).
		Updates(map[string]interface{}{
			"visits_count":  gorm.Expr("visits_count + 1"),
			"last_visit_at": visit.CreatedAt,
		}).Error
}

// CountVisitsSince 统计窗口内的到店次数
func (r *GormCustomerMerchantRepository) CountVisitsSince(customerID, merchantID uint, since time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&models.Visit{}).
		Where("customer_id = ? AND merchant_id = ? AND created_at >= ?", customerID, merchantID, since).
		Count(&count).Error
	return count, err
}

// ListByCustomer 查询顾客名下所有商户关系
func (r *GormCustomerMerchantRepository) ListByCustomer(customerID uint) ([]models.CustomerMerchant, error) {
	if customerID == 0 {
		return []models.CustomerMerchant{}, nil
	}
	var links []models.CustomerMerchant
	if err := r.db.Where("customer_id = ?", customerID).Find(&links).Error; err != nil {
		return nil, err
	}
	return links, nil
}
