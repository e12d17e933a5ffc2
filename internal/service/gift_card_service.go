package service

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/meit-next/internal/constants"
	"github.com/meit-next/internal/logger"
	"github.com/meit-next/internal/metrics"
	"github.com/meit-next/internal/models"
	"github.com/meit-next/internal/repository"

	nanoid "github.com/jaevor/go-nanoid"
	"gorm.io/gorm"
)

const (
	// 卡码字母表剔除了易混淆字符（0/O、1/I/L）
	giftCardCodeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"
	giftCardCodeLength   = 8
	giftCardMintRetries  = 5
)

// GiftCardService 礼品卡服务：铸造、校验、核销、作废与过期清扫
type GiftCardService struct {
	db        *gorm.DB
	cardRepo  repository.GiftCardRepository
	linkRepo  repository.CustomerMerchantRepository
	txnRepo   repository.PointTransactionRepository
	auditRepo repository.AuditLogRepository
	newCode   func() string
}

// NewGiftCardService 创建礼品卡服务
func NewGiftCardService(
	db *gorm.DB,
	cardRepo repository.GiftCardRepository,
	linkRepo repository.CustomerMerchantRepository,
	txnRepo repository.PointTransactionRepository,
	auditRepo repository.AuditLogRepository,
) *GiftCardService {
	gen, err := nanoid.CustomASCII(giftCardCodeAlphabet, giftCardCodeLength)
	if err != nil {
		// 字母表与长度均为常量，只有编程错误才会走到这里
		panic(fmt.Sprintf("gift card code generator init failed: %v", err))
	}
	return &GiftCardService{
		db:        db,
		cardRepo:  cardRepo,
		linkRepo:  linkRepo,
		txnRepo:   txnRepo,
		auditRepo: auditRepo,
		newCode:   gen,
	}
}

// mintReference 铸造扣分流水的幂等参考号
func mintReference(cardID uint) string {
	return fmt.Sprintf("gift_card:%d:mint", cardID)
}

// MintInTx 在调用方事务内铸造一张礼品卡并扣除门槛积分
// 铸卡与扣分在同一事务内完成，卡码冲突最多重试 giftCardMintRetries 次。
func (s *GiftCardService) MintInTx(tx *gorm.DB, merchant *models.Merchant, customerID uint, branchID *uint, debit int64, sourceTxnID *uint, actorID uint, now time.Time) (*models.GiftCard, error) {
	cardRepo := s.cardRepo.WithTx(tx)

	var card *models.GiftCard
	for attempt := 0; attempt < giftCardMintRetries; attempt++ {
		candidate := &models.GiftCard{
			MerchantID:  merchant.ID,
			Code:        s.newCode(),
			CustomerID:  customerID,
			PointsCost:  debit,
			RewardValue: merchant.GiftCardValue,
			Currency:    merchant.Currency,
			Status:      constants.GiftCardStatusActive,
			ExpiresAt:   now.AddDate(0, 0, merchant.GiftCardExpiryDays),
			SourceTxnID: sourceTxnID,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := cardRepo.Create(candidate); err != nil {
			if isUniqueViolation(err) {
				logger.Warnw("gift_card_code_collision", "merchant_id", merchant.ID, "attempt", attempt+1)
				continue
			}
			return nil, err
		}
		card = candidate
		break
	}
	if card == nil {
		return nil, ErrGiftCardCodeCollision
	}

	// 扣除门槛积分，余额不足说明并发状态异常，整个事务回滚
	rows, err := s.linkRepo.WithTx(tx).AddBalanceDelta(customerID, merchant.ID, -debit)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, ErrNegativeBalanceRejected
	}

	reference := mintReference(card.ID)
	txn := &models.PointTransaction{
		CustomerID:    customerID,
		MerchantID:    merchant.ID,
		BranchID:      branchID,
		Type:          constants.PointTxnTypeRedeem,
		Points:        debit,
		ReferenceType: constants.PointRefTypeGiftCard,
		Reference:     &reference,
		Description:   fmt.Sprintf("gift card %s minted", card.Code),
		ActorID:       actorID,
		CreatedAt:     now,
	}
	if err := s.txnRepo.WithTx(tx).Create(txn); err != nil {
		return nil, err
	}
	card.PointTxnID = &txn.ID
	if err := cardRepo.Update(card); err != nil {
		return nil, err
	}

	if err := writeAuditTx(tx, s.auditRepo, &models.AuditLog{
		MerchantID: merchant.ID,
		ActorID:    actorID,
		Action:     constants.AuditActionGiftCardMint,
		EntityType: constants.AuditEntityGiftCard,
		EntityID:   card.ID,
		Detail: models.JSON{
			"code":         card.Code,
			"customer_id":  customerID,
			"points_cost":  debit,
			"reward_value": card.RewardValue.String(),
			"expires_at":   card.ExpiresAt,
		},
	}); err != nil {
		return nil, err
	}

	metrics.GiftCardsMintedTotal.WithLabelValues(strconv.FormatUint(uint64(merchant.ID), 10)).Inc()
	return card, nil
}

// Validate 校验礼品卡可核销性（只读，不改状态）
func (s *GiftCardService) Validate(merchantID uint, code string) (*models.GiftCard, error) {
	card, err := s.cardRepo.GetByMerchantAndCode(merchantID, normalizeGiftCardCode(code))
	if err != nil {
		return nil, err
	}
	if card == nil {
		return nil, ErrGiftCardNotFound
	}
	if err := giftCardRedeemableError(card, time.Now()); err != nil {
		return card, err
	}
	return card, nil
}

// Redeem 核销礼品卡
// 加锁读取后做状态与过期闸门，active → redeemed 为唯一合法迁移；
// 核销不再扣分（积分已在铸造时扣除），只补齐缺失的铸造流水。
func (s *GiftCardService) Redeem(merchantID uint, code string, actorID uint) (*models.GiftCard, error) {
	normalized := normalizeGiftCardCode(code)
	now := time.Now()

	var result *models.GiftCard
	var lazilyExpired bool
	err := s.db.Transaction(func(tx *gorm.DB) error {
		cardRepo := s.cardRepo.WithTx(tx)
		card, err := cardRepo.GetByMerchantAndCodeForUpdate(merchantID, normalized)
		if err != nil {
			return err
		}
		if card == nil {
			return ErrGiftCardNotFound
		}

		// 已过期但清扫未到的卡，在此惰性置为 expired。
		// 闭包必须返回 nil 让置态与审计提交，过期错误在事务外返回。
		if card.Status == constants.GiftCardStatusActive && now.After(card.ExpiresAt) {
			card.Status = constants.GiftCardStatusExpired
			card.UpdatedAt = now
			if err := cardRepo.Update(card); err != nil {
				return err
			}
			if err := writeAuditTx(tx, s.auditRepo, &models.AuditLog{
				MerchantID: merchantID,
				ActorID:    constants.SystemActorID,
				Action:     constants.AuditActionGiftCardExpire,
				EntityType: constants.AuditEntityGiftCard,
				EntityID:   card.ID,
				Detail:     models.JSON{"code": card.Code, "expired_at": card.ExpiresAt},
			}); err != nil {
				return err
			}
			lazilyExpired = true
			return nil
		}
		if err := giftCardRedeemableError(card, now); err != nil {
			return err
		}

		card.Status = constants.GiftCardStatusRedeemed
		card.RedeemedAt = &now
		card.RedeemedBy = &actorID
		card.UpdatedAt = now
		if err := cardRepo.Update(card); err != nil {
			return err
		}

		if err := s.ensureMintLedgerRow(tx, card, actorID, now); err != nil {
			return err
		}

		if err := writeAuditTx(tx, s.auditRepo, &models.AuditLog{
			MerchantID: merchantID,
			ActorID:    actorID,
			Action:     constants.AuditActionGiftCardRedeem,
			EntityType: constants.AuditEntityGiftCard,
			EntityID:   card.ID,
			Detail: models.JSON{
				"code":         card.Code,
				"customer_id":  card.CustomerID,
				"reward_value": card.RewardValue.String(),
			},
		}); err != nil {
			return err
		}

		result = card
		return nil
	})
	if err != nil {
		return nil, wrapTxnError(err)
	}
	if lazilyExpired {
		return nil, ErrGiftCardExpired
	}

	metrics.GiftCardsRedeemedTotal.WithLabelValues(strconv.FormatUint(uint64(merchantID), 10)).Inc()
	return result, nil
}

// MintedBySource 按触发铸造的入账流水查找礼品卡（幂等重放回查用）
func (s *GiftCardService) MintedBySource(tx *gorm.DB, txnID uint) (*models.GiftCard, error) {
	return s.cardRepo.WithTx(tx).GetBySourceTxn(txnID)
}

// ensureMintLedgerRow 确保铸造扣分流水存在，按参考号幂等，绝不重复扣分
func (s *GiftCardService) ensureMintLedgerRow(tx *gorm.DB, card *models.GiftCard, actorID uint, now time.Time) error {
	reference := mintReference(card.ID)
	existing, err := s.txnRepo.WithTx(tx).GetByReference(reference)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	logger.Warnw("gift_card_mint_ledger_row_missing", "gift_card_id", card.ID, "code", card.Code)
	rows, err := s.linkRepo.WithTx(tx).AddBalanceDelta(card.CustomerID, card.MerchantID, -card.PointsCost)
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNegativeBalanceRejected
	}
	txn := &models.PointTransaction{
		CustomerID:    card.CustomerID,
		MerchantID:    card.MerchantID,
		Type:          constants.PointTxnTypeRedeem,
		Points:        card.PointsCost,
		ReferenceType: constants.PointRefTypeGiftCard,
		Reference:     &reference,
		Description:   fmt.Sprintf("gift card %s minted", card.Code),
		ActorID:       actorID,
		CreatedAt:     now,
	}
	return s.txnRepo.WithTx(tx).Create(txn)
}

// Cancel 作废一张未核销的礼品卡并退还铸造扣除的积分
func (s *GiftCardService) Cancel(merchantID, cardID, actorID uint) (*models.GiftCard, error) {
	now := time.Now()

	var result *models.GiftCard
	err := s.db.Transaction(func(tx *gorm.DB) error {
		cardRepo := s.cardRepo.WithTx(tx)
		card, err := cardRepo.GetByIDForUpdate(cardID)
		if err != nil {
			return err
		}
		if card == nil || card.MerchantID != merchantID {
			return ErrGiftCardNotFound
		}
		if err := giftCardRedeemableError(card, now); err != nil {
			return err
		}

		card.Status = constants.GiftCardStatusCancelled
		card.UpdatedAt = now
		if err := cardRepo.Update(card); err != nil {
			return err
		}

		// 退还铸造时扣除的积分
		reference := fmt.Sprintf("gift_card:%d:cancel_refund", card.ID)
		if _, err := s.linkRepo.WithTx(tx).AddBalanceDelta(card.CustomerID, card.MerchantID, card.PointsCost); err != nil {
			return err
		}
		txn := &models.PointTransaction{
			CustomerID:    card.CustomerID,
			MerchantID:    card.MerchantID,
			Type:          constants.PointTxnTypeAdjustmentAdd,
			Points:        card.PointsCost,
			ReferenceType: constants.PointRefTypeGiftCard,
			Reference:     &reference,
			Description:   fmt.Sprintf("gift card %s cancelled, points refunded", card.Code),
			ActorID:       actorID,
			CreatedAt:     now,
		}
		if err := s.txnRepo.WithTx(tx).Create(txn); err != nil {
			return err
		}

		if err := writeAuditTx(tx, s.auditRepo, &models.AuditLog{
			MerchantID: merchantID,
			ActorID:    actorID,
			Action:     constants.AuditActionGiftCardCancel,
			EntityType: constants.AuditEntityGiftCard,
			EntityID:   card.ID,
			Detail: models.JSON{
				"code":            card.Code,
				"customer_id":     card.CustomerID,
				"points_refunded": card.PointsCost,
			},
		}); err != nil {
			return err
		}

		result = card
		return nil
	})
	if err != nil {
		return nil, wrapTxnError(err)
	}
	return result, nil
}

// ExpireSweep 批量将逾期未核销的礼品卡置为 expired
func (s *GiftCardService) ExpireSweep(now time.Time) (int64, error) {
	affected, err := s.cardRepo.ExpireOverdue(now)
	if err != nil {
		return 0, err
	}
	if affected > 0 {
		metrics.GiftCardsExpiredTotal.Add(float64(affected))
		writeAuditBestEffort(s.auditRepo, &models.AuditLog{
			ActorID:    constants.SystemActorID,
			Action:     constants.AuditActionGiftCardExpire,
			EntityType: constants.AuditEntityGiftCard,
			Detail:     models.JSON{"expired_count": affected, "swept_at": now},
		})
	}
	return affected, nil
}

// List 分页查询礼品卡
func (s *GiftCardService) List(filter repository.GiftCardListFilter) ([]models.GiftCard, int64, error) {
	return s.cardRepo.List(filter)
}

// GetByID 按ID获取礼品卡（商户不匹配按不存在处理）
func (s *GiftCardService) GetByID(merchantID, cardID uint) (*models.GiftCard, error) {
	card, err := s.cardRepo.GetByID(cardID)
	if err != nil {
		return nil, err
	}
	if card == nil || card.MerchantID != merchantID {
		return nil, ErrGiftCardNotFound
	}
	return card, nil
}

// ExportCSV 导出礼品卡列表为 CSV
func (s *GiftCardService) ExportCSV(filter repository.GiftCardListFilter) ([]byte, error) {
	filter.Page = 0
	filter.PageSize = 0
	cards, _, err := s.cardRepo.List(filter)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	header := []string{"id", "code", "customer_id", "points_cost", "reward_value", "currency", "status", "expires_at", "redeemed_at", "created_at"}
	if err := writer.Write(header); err != nil {
		return nil, err
	}
	for _, card := range cards {
		redeemedAt := ""
		if card.RedeemedAt != nil {
			redeemedAt = card.RedeemedAt.Format(time.RFC3339)
		}
		record := []string{
			strconv.FormatUint(uint64(card.ID), 10),
			card.Code,
			strconv.FormatUint(uint64(card.CustomerID), 10),
			strconv.FormatInt(card.PointsCost, 10),
			card.RewardValue.String(),
			card.Currency,
			card.Status,
			card.ExpiresAt.Format(time.RFC3339),
			redeemedAt,
			card.CreatedAt.Format(time.RFC3339),
		}
		if err := writer.Write(record); err != nil {
			return nil, err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// giftCardRedeemableError 状态与过期闸门，active 且未过期返回 nil
func giftCardRedeemableError(card *models.GiftCard, now time.Time) error {
	switch card.Status {
	case constants.GiftCardStatusRedeemed:
		return ErrGiftCardRedeemed
	case constants.GiftCardStatusExpired:
		return ErrGiftCardExpired
	case constants.GiftCardStatusCancelled:
		return ErrGiftCardCancelled
	case constants.GiftCardStatusActive:
		if now.After(card.ExpiresAt) {
			return ErrGiftCardExpired
		}
		return nil
	default:
		return ErrGiftCardNotActive
	}
}
