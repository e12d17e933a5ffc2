package repository

import (
	"errors"
	"time"

	"github.com/meit-next/internal/models"

	"gorm.io/gorm"
)

// ChallengeRepository 挑战数据访问接口
type ChallengeRepository interface {
	Create(challenge *models.Challenge) error
	Update(challenge *models.Challenge) error
	Delete(id uint) error
	GetByID(id uint) (*models.Challenge, error)
	List(filter ChallengeListFilter) ([]models.Challenge, int64, error)
	ListActiveByMerchant(merchantID uint, now time.Time) ([]models.Challenge, error)
	CompletionCounts(customerID uint, challengeIDs []uint) (map[uint]int, error)
	CreateCompletion(completion *models.ChallengeCompletion) error
	ListCompletionsBySource(txnID uint) ([]models.ChallengeCompletion, error)
	WithTx(tx *gorm.DB) *GormChallengeRepository
}

// GormChallengeRepository GORM 挑战仓储实现
type GormChallengeRepository struct {
	db *gorm.DB
}

// NewChallengeRepository 创建挑战仓储
func NewChallengeRepository(db *gorm.DB) *GormChallengeRepository {
	return &GormChallengeRepository{db: db}
}

// WithTx 绑定事务
func (r *GormChallengeRepository) WithTx(tx *gorm.DB) *GormChallengeRepository {
	if tx == nil {
		return r
	}
	return &GormChallengeRepository{db: tx}
}

// Create 创建挑战
func (r *GormChallengeRepository) Create(challenge *models.Challenge) error {
	return r.db.Create(challenge).Error
}

// Update 更新挑战
func (r *GormChallengeRepository) Update(challenge *models.Challenge) error {
	return r.db.Save(challenge).Error
}

// Delete 删除挑战（软删除）
func (r *GormChallengeRepository) Delete(id uint) error {
	if id == 0 {
		return nil
	}
	return r.db.Delete(&models.Challenge{}, id).Error
}

// GetByID 按ID获取挑战
func (r *GormChallengeRepository) GetByID(id uint) (*models.Challenge, error) {
	if id == 0 {
		return nil, nil
	}
	var challenge models.Challenge
	if err := r.db.First(&challenge, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &challenge, nil
}

// List 分页查询挑战
func (r *GormChallengeRepository) List(filter ChallengeListFilter) ([]models.Challenge, int64, error) {
	query := r.db.Model(&models.Challenge{})
	if filter.MerchantID != 0 {
		query = query.Where("merchant_id = ?", filter.MerchantID)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var challenges []models.Challenge
	if err := query.Order("id desc").Find(&challenges).Error; err != nil {
		return nil, 0, err
	}
	return challenges, total, nil
}

// ListActiveByMerchant 查询商户当前有效的挑战（启用且处于时间窗口内）
func (r *GormChallengeRepository) ListActiveByMerchant(merchantID uint, now time.Time) ([]models.Challenge, error) {
	if merchantID == 0 {
		return []models.Challenge{}, nil
	}
	var challenges []models.Challenge
	err := r.db.Where("merchant_id = ? AND is_active = ?", merchantID, true).
		Where("starts_at IS NULL OR starts_at <= ?", now).
		Where("ends_at IS NULL OR ends_at >= ?", now).
		Order("id asc").
		Find(&challenges).Error
	if err != nil {
		return nil, err
	}
	return challenges, nil
}

// CompletionCounts 统计顾客对一组挑战的历史达成次数
func (r *GormChallengeRepository) CompletionCounts(customerID uint, challengeIDs []uint) (map[uint]int, error) {
	counts := make(map[uint]int, len(challengeIDs))
	if customerID == 0 || len(challengeIDs) == 0 {
		return counts, nil
	}
	type row struct {
		ChallengeID uint
		Count       int
	}
	var rows []row
	err := r.db.Model(&models.ChallengeCompletion{}).
		Select("challenge_id, COUNT(*) as count").
		Where("customer_id = ? AND challenge_id IN ?", customerID, challengeIDs).
		Group("challenge_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, item := range rows {
		counts[item.ChallengeID] = item.Count
	}
	return counts, nil
}

// CreateCompletion 创建挑战达成记录
func (r *GormChallengeRepository) CreateCompletion(completion *models.ChallengeCompletion) error {
	return r.db.Create(completion).Error
}

// ListCompletionsBySource 按触发评估的入账流水查找达成记录
func (r *GormChallengeRepository) ListCompletionsBySource(txnID uint) ([]models.ChallengeCompletion, error) {
	if txnID == 0 {
		return []models.ChallengeCompletion{}, nil
	}
	var completions []models.ChallengeCompletion
	if err := r.db.Where("source_txn_id = ?", txnID).Order("id asc").Find(&completions).Error; err != nil {
		return nil, err
	}
	return completions, nil
}
