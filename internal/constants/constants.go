package constants

// 积分流水类型常量
const (
	PointTxnTypeEarn               = "earn"
	PointTxnTypeRedeem             = "redeem"
	PointTxnTypeAdjustmentAdd      = "adjustment_add"
	PointTxnTypeAdjustmentSubtract = "adjustment_subtract"
)

// 积分流水来源类型常量
const (
	PointRefTypePurchase = "purchase"
	PointRefTypeCheckin  = "checkin"
	PointRefTypeGiftCard  = "gift_card"
	PointRefTypeChallenge = "challenge"
	PointRefTypeManual    = "manual"
)

// 礼品卡状态常量
const (
	GiftCardStatusActive    = "active"
	GiftCardStatusRedeemed  = "redeemed"
	GiftCardStatusExpired   = "expired"
	GiftCardStatusCancelled = "cancelled"
)

// 挑战类型常量
const (
	ChallengeTypeAmountMin = "amount_min"
	ChallengeTypeTimeBased = "time_based"
	ChallengeTypeFrequency = "frequency"
	ChallengeTypeCategory  = "category"
)

// 员工角色常量
const (
	StaffRoleSuper = "super"
	StaffRoleOwner = "owner"
	StaffRoleStaff = "staff"
)

// 员工账号状态常量
const (
	StaffStatusActive   = "active"
	StaffStatusDisabled = "disabled"
)

// 审计动作常量
const (
	AuditActionPointsAssign   = "points.assign"
	AuditActionPointsAdjust   = "points.adjust"
	AuditActionCheckin        = "checkin"
	AuditActionGiftCardMint   = "gift_card.mint"
	AuditActionGiftCardRedeem = "gift_card.redeem"
	AuditActionGiftCardCancel = "gift_card.cancel"
	AuditActionGiftCardExpire = "gift_card.expire"
	AuditActionChallengeSave  = "challenge.save"
	AuditActionCustomerSave   = "customer.save"
	AuditActionBranchSave     = "branch.save"
	AuditActionMerchantConfig = "merchant.config"
)

// 审计实体类型常量
const (
	AuditEntityCustomer  = "customer"
	AuditEntityMerchant  = "merchant"
	AuditEntityBranch    = "branch"
	AuditEntityGiftCard  = "gift_card"
	AuditEntityChallenge = "challenge"
	AuditEntityPointTxn  = "point_transaction"
)

// 队列与任务常量
const (
	QueueDefault  = "default"
	QueueCritical = "critical"

	TaskGiftCardExpireSweep = "gift_card:expire_sweep"
)

// SystemActorID 系统触发操作使用的操作者ID（如过期清扫）
const SystemActorID = 0
