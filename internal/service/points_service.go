package service

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/meit-next/internal/constants"
	"github.com/meit-next/internal/metrics"
	"github.com/meit-next/internal/models"
	"github.com/meit-next/internal/points"
	"github.com/meit-next/internal/repository"

	"gorm.io/gorm"
)

// PointsService 积分编排服务
// 单次入账的全部写操作（流水、余额、挑战、铸卡、审计）在同一个
// 数据库事务内完成，任一步失败整体回滚。
type PointsService struct {
	db            *gorm.DB
	merchantRepo  repository.MerchantRepository
	branchRepo    repository.BranchRepository
	customerRepo  repository.CustomerRepository
	linkRepo      repository.CustomerMerchantRepository
	txnRepo       repository.PointTransactionRepository
	challengeRepo repository.ChallengeRepository
	giftCardSvc   *GiftCardService
	auditRepo     repository.AuditLogRepository
}

// NewPointsService 创建积分编排服务
func NewPointsService(
	db *gorm.DB,
	merchantRepo repository.MerchantRepository,
	branchRepo repository.BranchRepository,
	customerRepo repository.CustomerRepository,
	linkRepo repository.CustomerMerchantRepository,
	txnRepo repository.PointTransactionRepository,
	challengeRepo repository.ChallengeRepository,
	giftCardSvc *GiftCardService,
	auditRepo repository.AuditLogRepository,
) *PointsService {
	return &PointsService{
		db:            db,
		merchantRepo:  merchantRepo,
		branchRepo:    branchRepo,
		customerRepo:  customerRepo,
		linkRepo:      linkRepo,
		txnRepo:       txnRepo,
		challengeRepo: challengeRepo,
		giftCardSvc:   giftCardSvc,
		auditRepo:     auditRepo,
	}
}

// AssignPointsInput 积分入账输入
type AssignPointsInput struct {
	CustomerID   uint
	MerchantID   uint
	BranchID     *uint
	Amount       models.Money
	CategoryCode *int64
	RequestRef   string // 幂等参考号，可空
	RecordVisit  bool
	Description  string
	ActorID      uint
}

// AssignPointsResult 积分入账结果
type AssignPointsResult struct {
	PointsEarned        int64            `json:"points_earned"`
	BonusPoints         int64            `json:"bonus_points"`
	TotalPoints         int64            `json:"total_points"`
	GiftCard            *models.GiftCard `json:"gift_card,omitempty"`
	ChallengesCompleted []uint           `json:"challenges_completed,omitempty"`
	Replayed            bool             `json:"replayed,omitempty"`
}

// AssignPoints 按消费金额入账积分
// 流程：金额校验 → 写 earn 流水（记全额）→ 余额增量更新 → 挑战评估 →
// 礼品卡发放判定（达门槛则铸卡并扣分）→ 审计。
func (s *PointsService) AssignPoints(input AssignPointsInput) (*AssignPointsResult, error) {
	start := time.Now()
	defer func() {
		metrics.AssignPointsDuration.Observe(time.Since(start).Seconds())
	}()

	requestRef := strings.TrimSpace(input.RequestRef)
	now := time.Now()

	var result AssignPointsResult
	err := s.db.Transaction(func(tx *gorm.DB) error {
		// 幂等重放：同一参考号直接返回已入账的结果
		if requestRef != "" {
			existing, err := s.txnRepo.WithTx(tx).GetByReference(requestRef)
			if err != nil {
				return err
			}
			if existing != nil {
				if existing.CustomerID != input.CustomerID || existing.MerchantID != input.MerchantID {
					return ErrDuplicateReference
				}
				replay, err := s.replayedResult(tx, existing)
				if err != nil {
					return err
				}
				result = *replay
				return nil
			}
		}

		merchant, err := s.loadMerchant(tx, input.MerchantID)
		if err != nil {
			return err
		}
		customer, err := s.customerRepo.WithTx(tx).GetByID(input.CustomerID)
		if err != nil {
			return err
		}
		if customer == nil {
			return ErrCustomerNotFound
		}
		if err := s.checkBranch(tx, input.MerchantID, input.BranchID); err != nil {
			return err
		}

		earned, err := points.ComputeBasePoints(input.Amount.Decimal, merchant.PointsPerUnit.Decimal)
		if err != nil {
			if errors.Is(err, points.ErrInvalidAmount) {
				return ErrInvalidAmount
			}
			return err
		}

		link, err := ensureLinkForUpdate(tx, s.linkRepo, input.CustomerID, input.MerchantID)
		if err != nil {
			return err
		}
		balanceBefore := link.PointsBalance

		if input.RecordVisit {
			if err := s.linkRepo.WithTx(tx).RecordVisit(&models.Visit{
				CustomerID: input.CustomerID,
				MerchantID: input.MerchantID,
				BranchID:   input.BranchID,
				CreatedAt:  now,
			}); err != nil {
				return err
			}
		}

		description := strings.TrimSpace(input.Description)
		if description == "" {
			description = fmt.Sprintf("purchase of %s %s", input.Amount.String(), merchant.Currency)
		}
		earnTxn := &models.PointTransaction{
			CustomerID:    input.CustomerID,
			MerchantID:    input.MerchantID,
			BranchID:      input.BranchID,
			Type:          constants.PointTxnTypeEarn,
			Points:        earned,
			ReferenceType: constants.PointRefTypePurchase,
			Description:   description,
			ActorID:       input.ActorID,
			CreatedAt:     now,
		}
		if requestRef != "" {
			earnTxn.Reference = &requestRef
		}
		if err := s.txnRepo.WithTx(tx).Create(earnTxn); err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicateReference
			}
			return err
		}
		rows, err := s.linkRepo.WithTx(tx).AddBalanceDelta(input.CustomerID, input.MerchantID, earned)
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrPersistenceFailure
		}

		amountUnits := input.Amount.Decimal.Floor().IntPart()
		bonus, completed, _, err := s.awardChallenges(tx, merchant, input.CustomerID, input.BranchID, &earnTxn.ID, points.EvalContext{
			HasAmount:   true,
			Amount:      amountUnits,
			HasCategory: input.CategoryCode != nil,
			Category:    derefInt64(input.CategoryCode),
			Now:         now,
			VisitsInWindow: func(days int) (int, error) {
				count, err := s.linkRepo.WithTx(tx).CountVisitsSince(input.CustomerID, input.MerchantID, now.AddDate(0, 0, -days))
				return int(count), err
			},
		}, input.ActorID, now)
		if err != nil {
			return err
		}

		card, err := s.maybeMint(tx, merchant, input.CustomerID, input.BranchID, balanceBefore, earned+bonus, &earnTxn.ID, input.ActorID, now)
		if err != nil {
			return err
		}

		if err := writeAuditTx(tx, s.auditRepo, &models.AuditLog{
			MerchantID: input.MerchantID,
			ActorID:    input.ActorID,
			Action:     constants.AuditActionPointsAssign,
			EntityType: constants.AuditEntityPointTxn,
			EntityID:   earnTxn.ID,
			Detail: models.JSON{
				"customer_id":   input.CustomerID,
				"amount":        input.Amount.String(),
				"points_earned": earned,
				"bonus_points":  bonus,
				"gift_card_id":  cardIDOrZero(card),
				"request_ref":   requestRef,
			},
		}); err != nil {
			return err
		}

		current, err := s.linkRepo.WithTx(tx).GetByPair(input.CustomerID, input.MerchantID)
		if err != nil {
			return err
		}
		result = AssignPointsResult{
			PointsEarned:        earned,
			BonusPoints:         bonus,
			GiftCard:            card,
			ChallengesCompleted: completed,
		}
		if current != nil {
			result.TotalPoints = current.PointsBalance
		}
		return nil
	})
	if err != nil {
		return nil, wrapTxnError(err)
	}

	if !result.Replayed {
		metrics.PointsAssignedTotal.WithLabelValues(strconv.FormatUint(uint64(input.MerchantID), 10)).
			Add(float64(result.PointsEarned + result.BonusPoints))
	}
	return &result, nil
}

// AdjustPointsInput 手工积分调整输入
type AdjustPointsInput struct {
	CustomerID uint
	MerchantID uint
	Points     int64 // 带符号，正加负减
	Reason     string
	ActorID    uint
}

// AdjustPoints 手工调整顾客积分，负向调整不允许击穿零
func (s *PointsService) AdjustPoints(input AdjustPointsInput) (*AssignPointsResult, error) {
	if input.Points == 0 {
		return nil, ErrInvalidPoints
	}
	now := time.Now()

	var result AssignPointsResult
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if _, err := s.loadMerchant(tx, input.MerchantID); err != nil {
			return err
		}
		customer, err := s.customerRepo.WithTx(tx).GetByID(input.CustomerID)
		if err != nil {
			return err
		}
		if customer == nil {
			return ErrCustomerNotFound
		}
		if _, err := ensureLinkForUpdate(tx, s.linkRepo, input.CustomerID, input.MerchantID); err != nil {
			return err
		}

		txnType := constants.PointTxnTypeAdjustmentAdd
		magnitude := input.Points
		if input.Points < 0 {
			txnType = constants.PointTxnTypeAdjustmentSubtract
			magnitude = -input.Points
		}
		rows, err := s.linkRepo.WithTx(tx).AddBalanceDelta(input.CustomerID, input.MerchantID, input.Points)
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrNegativeBalanceRejected
		}

		txn := &models.PointTransaction{
			CustomerID:    input.CustomerID,
			MerchantID:    input.MerchantID,
			Type:          txnType,
			Points:        magnitude,
			ReferenceType: constants.PointRefTypeManual,
			Description:   strings.TrimSpace(input.Reason),
			ActorID:       input.ActorID,
			CreatedAt:     now,
		}
		if err := s.txnRepo.WithTx(tx).Create(txn); err != nil {
			return err
		}

		if err := writeAuditTx(tx, s.auditRepo, &models.AuditLog{
			MerchantID: input.MerchantID,
			ActorID:    input.ActorID,
			Action:     constants.AuditActionPointsAdjust,
			EntityType: constants.AuditEntityPointTxn,
			EntityID:   txn.ID,
			Detail: models.JSON{
				"customer_id": input.CustomerID,
				"points":      input.Points,
				"reason":      txn.Description,
			},
		}); err != nil {
			return err
		}

		link, err := s.linkRepo.WithTx(tx).GetByPair(input.CustomerID, input.MerchantID)
		if err != nil {
			return err
		}
		result = AssignPointsResult{PointsEarned: input.Points}
		if link != nil {
			result.TotalPoints = link.PointsBalance
		}
		return nil
	})
	if err != nil {
		return nil, wrapTxnError(err)
	}
	return &result, nil
}

// CheckInInput 打卡输入（WhatsApp 渠道回调）
type CheckInInput struct {
	Phone        string
	MerchantID   uint
	BranchID     *uint
	Amount       *models.Money // 为空表示纯到店打卡
	CategoryCode *int64
	RequestRef   string
}

// CheckInResult 打卡结果
type CheckInResult struct {
	Customer *models.Customer    `json:"customer"`
	Assign   *AssignPointsResult `json:"assign"`
}

// CheckIn 处理顾客打卡
// 按手机号找到或注册顾客；带消费金额走积分入账流程，否则只记一次
// 到店并评估时间/频次类挑战。
func (s *PointsService) CheckIn(input CheckInInput) (*CheckInResult, error) {
	phone := strings.TrimSpace(input.Phone)
	if phone == "" {
		return nil, ErrInvalidPhone
	}

	customer, err := s.findOrCreateCustomer(phone)
	if err != nil {
		return nil, err
	}

	var assign *AssignPointsResult
	if input.Amount != nil {
		assign, err = s.AssignPoints(AssignPointsInput{
			CustomerID:   customer.ID,
			MerchantID:   input.MerchantID,
			BranchID:     input.BranchID,
			Amount:       *input.Amount,
			CategoryCode: input.CategoryCode,
			RequestRef:   input.RequestRef,
			RecordVisit:  true,
			Description:  "check-in purchase",
			ActorID:      constants.SystemActorID,
		})
	} else {
		assign, err = s.visitOnlyCheckIn(customer, input)
	}
	if err != nil {
		return nil, err
	}

	metrics.CheckinsTotal.WithLabelValues(strconv.FormatUint(uint64(input.MerchantID), 10)).Inc()
	writeAuditBestEffort(s.auditRepo, &models.AuditLog{
		MerchantID: input.MerchantID,
		ActorID:    constants.SystemActorID,
		Action:     constants.AuditActionCheckin,
		EntityType: constants.AuditEntityCustomer,
		EntityID:   customer.ID,
		Detail: models.JSON{
			"phone":         customer.Phone,
			"with_amount":   input.Amount != nil,
			"points_earned": assign.PointsEarned + assign.BonusPoints,
		},
	})
	return &CheckInResult{Customer: customer, Assign: assign}, nil
}

// visitOnlyCheckIn 无消费打卡：记到店、评估时间/频次挑战、必要时发卡
func (s *PointsService) visitOnlyCheckIn(customer *models.Customer, input CheckInInput) (*AssignPointsResult, error) {
	now := time.Now()

	var result AssignPointsResult
	err := s.db.Transaction(func(tx *gorm.DB) error {
		merchant, err := s.loadMerchant(tx, input.MerchantID)
		if err != nil {
			return err
		}
		if err := s.checkBranch(tx, input.MerchantID, input.BranchID); err != nil {
			return err
		}
		link, err := ensureLinkForUpdate(tx, s.linkRepo, customer.ID, input.MerchantID)
		if err != nil {
			return err
		}
		balanceBefore := link.PointsBalance

		if err := s.linkRepo.WithTx(tx).RecordVisit(&models.Visit{
			CustomerID: customer.ID,
			MerchantID: input.MerchantID,
			BranchID:   input.BranchID,
			CreatedAt:  now,
		}); err != nil {
			return err
		}

		bonus, completed, bonusTxnID, err := s.awardChallenges(tx, merchant, customer.ID, input.BranchID, nil, points.EvalContext{
			Now: now,
			VisitsInWindow: func(days int) (int, error) {
				count, err := s.linkRepo.WithTx(tx).CountVisitsSince(customer.ID, input.MerchantID, now.AddDate(0, 0, -days))
				return int(count), err
			},
		}, constants.SystemActorID, now)
		if err != nil {
			return err
		}

		card, err := s.maybeMint(tx, merchant, customer.ID, input.BranchID, balanceBefore, bonus, bonusTxnID, constants.SystemActorID, now)
		if err != nil {
			return err
		}

		current, err := s.linkRepo.WithTx(tx).GetByPair(customer.ID, input.MerchantID)
		if err != nil {
			return err
		}
		result = AssignPointsResult{
			BonusPoints:         bonus,
			GiftCard:            card,
			ChallengesCompleted: completed,
		}
		if current != nil {
			result.TotalPoints = current.PointsBalance
		}
		return nil
	})
	if err != nil {
		return nil, wrapTxnError(err)
	}

	if result.BonusPoints > 0 {
		metrics.PointsAssignedTotal.WithLabelValues(strconv.FormatUint(uint64(input.MerchantID), 10)).
			Add(float64(result.BonusPoints))
	}
	return &result, nil
}

// ListTransactions 分页查询积分流水
func (s *PointsService) ListTransactions(filter repository.PointTransactionListFilter) ([]models.PointTransaction, int64, error) {
	return s.txnRepo.List(filter)
}

// ReconstructBalance 按流水带符号求和重建余额（对账用）
func (s *PointsService) ReconstructBalance(customerID, merchantID uint) (int64, error) {
	return s.txnRepo.SumSignedByPair(customerID, merchantID)
}

// replayedResult 幂等重放：按来源流水回查当次入账铸出的礼品卡与达成的
// 挑战，返回与首次调用一致的结果，不再写任何行。
func (s *PointsService) replayedResult(tx *gorm.DB, earnTxn *models.PointTransaction) (*AssignPointsResult, error) {
	result := AssignPointsResult{PointsEarned: earnTxn.Points, Replayed: true}

	link, err := s.linkRepo.WithTx(tx).GetByPair(earnTxn.CustomerID, earnTxn.MerchantID)
	if err != nil {
		return nil, err
	}
	if link != nil {
		result.TotalPoints = link.PointsBalance
	}

	card, err := s.giftCardSvc.MintedBySource(tx, earnTxn.ID)
	if err != nil {
		return nil, err
	}
	result.GiftCard = card

	completions, err := s.challengeRepo.WithTx(tx).ListCompletionsBySource(earnTxn.ID)
	if err != nil {
		return nil, err
	}
	for _, completion := range completions {
		result.BonusPoints += completion.Points
		result.ChallengesCompleted = append(result.ChallengesCompleted, completion.ChallengeID)
	}
	return &result, nil
}

// loadMerchant 读取并校验商户与礼品卡配置
func (s *PointsService) loadMerchant(tx *gorm.DB, merchantID uint) (*models.Merchant, error) {
	merchant, err := s.merchantRepo.WithTx(tx).GetByID(merchantID)
	if err != nil {
		return nil, err
	}
	if merchant == nil {
		return nil, ErrMerchantNotFound
	}
	if !merchant.IsActive {
		return nil, ErrMerchantDisabled
	}
	// 门槛已配置但面额或有效期缺失，视为配置不完整
	if merchant.GiftCardThreshold > 0 &&
		(merchant.GiftCardValue.Decimal.Sign() <= 0 || merchant.GiftCardExpiryDays <= 0) {
		return nil, ErrMerchantConfigMissing
	}
	return merchant, nil
}

func (s *PointsService) checkBranch(tx *gorm.DB, merchantID uint, branchID *uint) error {
	if branchID == nil {
		return nil
	}
	branch, err := s.branchRepo.WithTx(tx).GetByID(*branchID)
	if err != nil {
		return err
	}
	if branch == nil || branch.MerchantID != merchantID {
		return ErrBranchNotFound
	}
	return nil
}

// awardChallenges 评估挑战并入账奖励积分，返回奖励总分、达成的挑战ID
// 与奖励流水ID；sourceTxnID 记录触发评估的入账流水，供幂等重放回查。
func (s *PointsService) awardChallenges(tx *gorm.DB, merchant *models.Merchant, customerID uint, branchID *uint, sourceTxnID *uint, ctx points.EvalContext, actorID uint, now time.Time) (int64, []uint, *uint, error) {
	challengeRepo := s.challengeRepo.WithTx(tx)
	active, err := challengeRepo.ListActiveByMerchant(merchant.ID, now)
	if err != nil {
		return 0, nil, nil, err
	}
	if len(active) == 0 {
		return 0, nil, nil, nil
	}

	ids := make([]uint, 0, len(active))
	for _, challenge := range active {
		ids = append(ids, challenge.ID)
	}
	counts, err := challengeRepo.CompletionCounts(customerID, ids)
	if err != nil {
		return 0, nil, nil, err
	}

	rules := make([]points.Rule, 0, len(active))
	for _, challenge := range active {
		target, err := points.DecodeTarget(challenge.Type, challenge.TargetValue)
		if err != nil {
			// 存量数据编码损坏时跳过该条挑战，不拖垮入账主流程
			continue
		}
		rules = append(rules, points.Rule{
			ID:          challenge.ID,
			Type:        challenge.Type,
			Target:      target,
			Points:      challenge.Points,
			Repeatable:  challenge.IsRepeatable,
			MaxTimes:    challenge.MaxCompletions,
			Completions: counts[challenge.ID],
		})
	}

	evaluated, err := points.EvaluateChallenges(rules, ctx)
	if err != nil {
		return 0, nil, nil, err
	}
	if evaluated.BonusPoints <= 0 {
		return 0, evaluated.CompletedIDs, nil, nil
	}

	bonusTxn := &models.PointTransaction{
		CustomerID:    customerID,
		MerchantID:    merchant.ID,
		BranchID:      branchID,
		Type:          constants.PointTxnTypeEarn,
		Points:        evaluated.BonusPoints,
		ReferenceType: constants.PointRefTypeChallenge,
		Description:   fmt.Sprintf("challenge bonus (%d completed)", len(evaluated.CompletedIDs)),
		ActorID:       actorID,
		CreatedAt:     now,
	}
	if err := s.txnRepo.WithTx(tx).Create(bonusTxn); err != nil {
		return 0, nil, nil, err
	}
	rows, err := s.linkRepo.WithTx(tx).AddBalanceDelta(customerID, merchant.ID, evaluated.BonusPoints)
	if err != nil {
		return 0, nil, nil, err
	}
	if rows == 0 {
		return 0, nil, nil, ErrPersistenceFailure
	}

	ruleByID := make(map[uint]points.Rule, len(rules))
	for _, rule := range rules {
		ruleByID[rule.ID] = rule
	}
	for _, completedID := range evaluated.CompletedIDs {
		if err := challengeRepo.CreateCompletion(&models.ChallengeCompletion{
			ChallengeID: completedID,
			CustomerID:  customerID,
			MerchantID:  merchant.ID,
			PointTxnID:  bonusTxn.ID,
			SourceTxnID: sourceTxnID,
			Points:      ruleByID[completedID].Points,
			CreatedAt:   now,
		}); err != nil {
			return 0, nil, nil, err
		}
	}
	return evaluated.BonusPoints, evaluated.CompletedIDs, &bonusTxn.ID, nil
}

// maybeMint 入账后按门槛判定是否铸卡
func (s *PointsService) maybeMint(tx *gorm.DB, merchant *models.Merchant, customerID uint, branchID *uint, balanceBefore, earnedTotal int64, sourceTxnID *uint, actorID uint, now time.Time) (*models.GiftCard, error) {
	if merchant.GiftCardThreshold <= 0 || earnedTotal <= 0 {
		return nil, nil
	}
	issuance, err := points.DecideGiftCardIssuance(balanceBefore, earnedTotal, merchant.GiftCardThreshold)
	if err != nil {
		return nil, err
	}
	if !issuance.Issue {
		return nil, nil
	}
	return s.giftCardSvc.MintInTx(tx, merchant, customerID, branchID, issuance.Debit, sourceTxnID, actorID, now)
}

// findOrCreateCustomer 按手机号找到或注册顾客（手机号不可变、全局唯一）
func (s *PointsService) findOrCreateCustomer(phone string) (*models.Customer, error) {
	customer, err := s.customerRepo.GetByPhone(phone)
	if err != nil {
		return nil, err
	}
	if customer != nil {
		return customer, nil
	}
	created := &models.Customer{Phone: phone}
	if err := s.customerRepo.Create(created); err != nil {
		if !isUniqueViolation(err) {
			return nil, err
		}
		// 并发注册撞了唯一索引，回读已存在的顾客
		customer, err = s.customerRepo.GetByPhone(phone)
		if err != nil {
			return nil, err
		}
		if customer == nil {
			return nil, ErrPersistenceFailure
		}
		return customer, nil
	}
	return created, nil
}

func derefInt64(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}

func cardIDOrZero(card *models.GiftCard) uint {
	if card == nil {
		return 0
	}
	return card.ID
}
