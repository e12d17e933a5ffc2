package service

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/meit-next/internal/constants"
	"github.com/meit-next/internal/models"
)

func mintTestCard(t *testing.T, svc *PointsService, customerID, merchantID uint) *models.GiftCard {
	t.Helper()
	result, err := svc.AssignPoints(AssignPointsInput{
		CustomerID: customerID,
		MerchantID: merchantID,
		Amount:     money(t, "100.00"),
		ActorID:    1,
	})
	if err != nil {
		t.Fatalf("assign failed: %v", err)
	}
	if result.GiftCard == nil {
		t.Fatal("expected gift card to be minted")
	}
	return result.GiftCard
}

func TestGiftCardValidateAndRedeem(t *testing.T) {
	pointsSvc, giftSvc, db := setupPointsServiceTest(t)
	merchant := seedLoyaltyMerchant(t, db, 100)
	customer := seedLoyaltyCustomer(t, db, "+96174000001")
	card := mintTestCard(t, pointsSvc, customer.ID, merchant.ID)

	validated, err := giftSvc.Validate(merchant.ID, card.Code)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if validated.ID != card.ID {
		t.Fatalf("validate returned wrong card: %d", validated.ID)
	}

	// 卡码大小写不敏感
	redeemed, err := giftSvc.Redeem(merchant.ID, "  "+strings.ToLower(card.Code)+" ", 7)
	if err != nil {
		t.Fatalf("redeem failed: %v", err)
	}
	if redeemed.Status != constants.GiftCardStatusRedeemed {
		t.Fatalf("expected redeemed status, got %s", redeemed.Status)
	}
	if redeemed.RedeemedAt == nil || redeemed.RedeemedBy == nil || *redeemed.RedeemedBy != 7 {
		t.Fatalf("redemption metadata missing: %+v", redeemed)
	}

	// 核销不再扣分，余额与流水不变
	var link models.CustomerMerchant
	if err := db.Where("customer_id = ? AND merchant_id = ?", customer.ID, merchant.ID).First(&link).Error; err != nil {
		t.Fatalf("query link failed: %v", err)
	}
	if link.PointsBalance != 0 {
		t.Fatalf("redeem must not change balance, got %d", link.PointsBalance)
	}
	assertLedgerMatchesBalance(t, pointsSvc, db, customer.ID, merchant.ID)
}

func TestGiftCardDuplicateRedeemRejected(t *testing.T) {
	pointsSvc, giftSvc, db := setupPointsServiceTest(t)
	merchant := seedLoyaltyMerchant(t, db, 100)
	customer := seedLoyaltyCustomer(t, db, "+96174000002")
	card := mintTestCard(t, pointsSvc, customer.ID, merchant.ID)

	if _, err := giftSvc.Redeem(merchant.ID, card.Code, 7); err != nil {
		t.Fatalf("first redeem failed: %v", err)
	}
	if _, err := giftSvc.Redeem(merchant.ID, card.Code, 7); !errors.Is(err, ErrGiftCardRedeemed) {
		t.Fatalf("expected ErrGiftCardRedeemed, got %v", err)
	}

	var txnCount int64
	if err := db.Model(&models.PointTransaction{}).Count(&txnCount).Error; err != nil {
		t.Fatalf("count txns failed: %v", err)
	}
	// earn + mint debit，重复核销不得追加流水
	if txnCount != 2 {
		t.Fatalf("expected 2 ledger rows, got %d", txnCount)
	}
	assertLedgerMatchesBalance(t, pointsSvc, db, customer.ID, merchant.ID)
}

func TestGiftCardUnknownCodeFailsClosed(t *testing.T) {
	_, giftSvc, db := setupPointsServiceTest(t)
	merchant := seedLoyaltyMerchant(t, db, 100)

	if _, err := giftSvc.Validate(merchant.ID, "NOSUCH99"); !errors.Is(err, ErrGiftCardNotFound) {
		t.Fatalf("expected ErrGiftCardNotFound, got %v", err)
	}
	if _, err := giftSvc.Redeem(merchant.ID, "NOSUCH99", 1); !errors.Is(err, ErrGiftCardNotFound) {
		t.Fatalf("expected ErrGiftCardNotFound, got %v", err)
	}

	var count int64
	if err := db.Model(&models.AuditLog{}).Where("action = ?", constants.AuditActionGiftCardRedeem).Count(&count).Error; err != nil {
		t.Fatalf("count audit rows failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("failed redeem must not write redeem audit rows, got %d", count)
	}
}

func TestGiftCardCrossTenantLookupFailsClosed(t *testing.T) {
	pointsSvc, giftSvc, db := setupPointsServiceTest(t)
	merchantA := seedLoyaltyMerchant(t, db, 100)
	merchantB := seedLoyaltyMerchant(t, db, 100)
	customer := seedLoyaltyCustomer(t, db, "+96174000003")
	card := mintTestCard(t, pointsSvc, customer.ID, merchantA.ID)

	// 其他商户用同一卡码查询/核销一律视为不存在
	if _, err := giftSvc.Validate(merchantB.ID, card.Code); !errors.Is(err, ErrGiftCardNotFound) {
		t.Fatalf("expected ErrGiftCardNotFound, got %v", err)
	}
	if _, err := giftSvc.Redeem(merchantB.ID, card.Code, 1); !errors.Is(err, ErrGiftCardNotFound) {
		t.Fatalf("expected ErrGiftCardNotFound, got %v", err)
	}

	var fresh models.GiftCard
	if err := db.First(&fresh, card.ID).Error; err != nil {
		t.Fatalf("reload card failed: %v", err)
	}
	if fresh.Status != constants.GiftCardStatusActive {
		t.Fatalf("cross-tenant attempt must not change state: %s", fresh.Status)
	}
}

func TestGiftCardExpiredLazilyOnRedeem(t *testing.T) {
	pointsSvc, giftSvc, db := setupPointsServiceTest(t)
	merchant := seedLoyaltyMerchant(t, db, 100)
	customer := seedLoyaltyCustomer(t, db, "+96174000004")
	card := mintTestCard(t, pointsSvc, customer.ID, merchant.ID)

	// 过期但清扫尚未执行
	if err := db.Model(&models.GiftCard{}).Where("id = ?", card.ID).
		Update("expires_at", time.Now().Add(-time.Hour)).Error; err != nil {
		t.Fatalf("backdate card failed: %v", err)
	}

	if _, err := giftSvc.Redeem(merchant.ID, card.Code, 1); !errors.Is(err, ErrGiftCardExpired) {
		t.Fatalf("expected ErrGiftCardExpired, got %v", err)
	}

	// 置态必须随事务提交，不能跟着过期错误一起回滚
	var fresh models.GiftCard
	if err := db.First(&fresh, card.ID).Error; err != nil {
		t.Fatalf("reload card failed: %v", err)
	}
	if fresh.Status != constants.GiftCardStatusExpired {
		t.Fatalf("expected lazily expired status, got %s", fresh.Status)
	}

	var expireAudits int64
	if err := db.Model(&models.AuditLog{}).
		Where("action = ? AND entity_id = ?", constants.AuditActionGiftCardExpire, card.ID).
		Count(&expireAudits).Error; err != nil {
		t.Fatalf("count audit rows failed: %v", err)
	}
	if expireAudits != 1 {
		t.Fatalf("expected 1 persisted expire audit row, got %d", expireAudits)
	}

	// 过期是终态
	if _, err := giftSvc.Redeem(merchant.ID, card.Code, 1); !errors.Is(err, ErrGiftCardExpired) {
		t.Fatalf("expected ErrGiftCardExpired again, got %v", err)
	}
}

func TestGiftCardExpireSweep(t *testing.T) {
	pointsSvc, giftSvc, db := setupPointsServiceTest(t)
	merchant := seedLoyaltyMerchant(t, db, 100)
	customer := seedLoyaltyCustomer(t, db, "+96174000005")
	card := mintTestCard(t, pointsSvc, customer.ID, merchant.ID)

	if err := db.Model(&models.GiftCard{}).Where("id = ?", card.ID).
		Update("expires_at", time.Now().Add(-24*time.Hour)).Error; err != nil {
		t.Fatalf("backdate card failed: %v", err)
	}

	affected, err := giftSvc.ExpireSweep(time.Now())
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if affected != 1 {
		t.Fatalf("expected 1 expired card, got %d", affected)
	}

	var fresh models.GiftCard
	if err := db.First(&fresh, card.ID).Error; err != nil {
		t.Fatalf("reload card failed: %v", err)
	}
	if fresh.Status != constants.GiftCardStatusExpired {
		t.Fatalf("expected expired status, got %s", fresh.Status)
	}

	// 再跑一遍没有新的受影响行
	affected, err = giftSvc.ExpireSweep(time.Now())
	if err != nil {
		t.Fatalf("second sweep failed: %v", err)
	}
	if affected != 0 {
		t.Fatalf("expected idempotent sweep, got %d", affected)
	}
}

func TestGiftCardCancelRefundsPoints(t *testing.T) {
	pointsSvc, giftSvc, db := setupPointsServiceTest(t)
	merchant := seedLoyaltyMerchant(t, db, 100)
	customer := seedLoyaltyCustomer(t, db, "+96174000006")
	card := mintTestCard(t, pointsSvc, customer.ID, merchant.ID)

	cancelled, err := giftSvc.Cancel(merchant.ID, card.ID, 3)
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if cancelled.Status != constants.GiftCardStatusCancelled {
		t.Fatalf("expected cancelled status, got %s", cancelled.Status)
	}

	var link models.CustomerMerchant
	if err := db.Where("customer_id = ? AND merchant_id = ?", customer.ID, merchant.ID).First(&link).Error; err != nil {
		t.Fatalf("query link failed: %v", err)
	}
	if link.PointsBalance != 100 {
		t.Fatalf("expected refunded balance 100, got %d", link.PointsBalance)
	}
	assertLedgerMatchesBalance(t, pointsSvc, db, customer.ID, merchant.ID)

	// 已作废的卡不可核销
	if _, err := giftSvc.Redeem(merchant.ID, card.Code, 1); !errors.Is(err, ErrGiftCardCancelled) {
		t.Fatalf("expected ErrGiftCardCancelled, got %v", err)
	}
}
