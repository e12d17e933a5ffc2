package repository

import "time"

// MerchantListFilter 查询商户列表的过滤条件
type MerchantListFilter struct {
	Page       int
	PageSize   int
	Search     string
	OnlyActive bool
}

// BranchListFilter 查询门店列表的过滤条件
type BranchListFilter struct {
	Page       int
	PageSize   int
	MerchantID uint
	Search     string
	OnlyActive bool
}

// CustomerListFilter 查询顾客列表的过滤条件
type CustomerListFilter struct {
	Page       int
	PageSize   int
	MerchantID uint // 非 0 时只返回与该商户有关系的顾客
	Phone      string
	Search     string
}

// PointTransactionListFilter 查询积分流水列表的过滤条件
type PointTransactionListFilter struct {
	Page          int
	PageSize      int
	CustomerID    uint
	MerchantID    uint
	BranchID      uint
	Type          string
	ReferenceType string
	CreatedFrom   *time.Time
	CreatedTo     *time.Time
}

// GiftCardListFilter 查询礼品卡列表的过滤条件
type GiftCardListFilter struct {
	Page        int
	PageSize    int
	MerchantID  uint
	CustomerID  uint
	Status      string
	Code        string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// ChallengeListFilter 查询挑战列表的过滤条件
type ChallengeListFilter struct {
	Page       int
	PageSize   int
	MerchantID uint
	Type       string
	IsActive   *bool
}

// AuditLogListFilter 查询审计日志列表的过滤条件
type AuditLogListFilter struct {
	Page        int
	PageSize    int
	MerchantID  uint
	ActorID     uint
	Action      string
	EntityType  string
	EntityID    uint
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// StaffListFilter 查询员工列表的过滤条件
type StaffListFilter struct {
	Page       int
	PageSize   int
	MerchantID uint
	Role       string
	Search     string
}
