package service

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/meit-next/internal/constants"
	"github.com/meit-next/internal/models"
	"github.com/meit-next/internal/points"
	"github.com/meit-next/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupPointsServiceTest(t *testing.T) (*PointsService, *GiftCardService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:points_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Staff{},
		&models.Merchant{},
		&models.Branch{},
		&models.Customer{},
		&models.CustomerMerchant{},
		&models.Visit{},
		&models.PointTransaction{},
		&models.GiftCard{},
		&models.Challenge{},
		&models.ChallengeCompletion{},
		&models.AuditLog{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	auditRepo := repository.NewAuditLogRepository(db)
	linkRepo := repository.NewCustomerMerchantRepository(db)
	txnRepo := repository.NewPointTransactionRepository(db)
	giftSvc := NewGiftCardService(db, repository.NewGiftCardRepository(db), linkRepo, txnRepo, auditRepo)
	pointsSvc := NewPointsService(
		db,
		repository.NewMerchantRepository(db),
		repository.NewBranchRepository(db),
		repository.NewCustomerRepository(db),
		linkRepo,
		txnRepo,
		repository.NewChallengeRepository(db),
		giftSvc,
		auditRepo,
	)
	return pointsSvc, giftSvc, db
}

func seedLoyaltyMerchant(t *testing.T, db *gorm.DB, threshold int64) *models.Merchant {
	t.Helper()
	merchant := models.Merchant{
		Name:               "Cafe Nour",
		Currency:           "USD",
		PointsPerUnit:      models.NewMoneyFromDecimal(decimal.RequireFromString("1")),
		GiftCardThreshold:  threshold,
		GiftCardValue:      models.NewMoneyFromDecimal(decimal.RequireFromString("5.00")),
		GiftCardExpiryDays: 365,
		IsActive:           true,
	}
	if err := db.Create(&merchant).Error; err != nil {
		t.Fatalf("create merchant failed: %v", err)
	}
	return &merchant
}

func seedLoyaltyCustomer(t *testing.T, db *gorm.DB, phone string) *models.Customer {
	t.Helper()
	customer := models.Customer{Phone: phone, Name: "Test Customer"}
	if err := db.Create(&customer).Error; err != nil {
		t.Fatalf("create customer failed: %v", err)
	}
	return &customer
}

func money(t *testing.T, value string) models.Money {
	t.Helper()
	return models.NewMoneyFromDecimal(decimal.RequireFromString(value))
}

// assertLedgerMatchesBalance 校验余额恒等于流水带符号求和
func assertLedgerMatchesBalance(t *testing.T, svc *PointsService, db *gorm.DB, customerID, merchantID uint) {
	t.Helper()
	sum, err := svc.ReconstructBalance(customerID, merchantID)
	if err != nil {
		t.Fatalf("reconstruct balance failed: %v", err)
	}
	var link models.CustomerMerchant
	if err := db.Where("customer_id = ? AND merchant_id = ?", customerID, merchantID).First(&link).Error; err != nil {
		t.Fatalf("query link failed: %v", err)
	}
	if link.PointsBalance != sum {
		t.Fatalf("balance %d diverged from ledger sum %d", link.PointsBalance, sum)
	}
}

func TestAssignPointsIssuesGiftCardOnThresholdCrossing(t *testing.T) {
	svc, _, db := setupPointsServiceTest(t)
	merchant := seedLoyaltyMerchant(t, db, 100)
	customer := seedLoyaltyCustomer(t, db, "+96170000001")

	first, err := svc.AssignPoints(AssignPointsInput{
		CustomerID: customer.ID,
		MerchantID: merchant.ID,
		Amount:     money(t, "80.00"),
		ActorID:    1,
	})
	if err != nil {
		t.Fatalf("first assign failed: %v", err)
	}
	if first.PointsEarned != 80 || first.GiftCard != nil {
		t.Fatalf("unexpected first result: %+v", first)
	}
	if first.TotalPoints != 80 {
		t.Fatalf("expected balance 80, got %d", first.TotalPoints)
	}

	second, err := svc.AssignPoints(AssignPointsInput{
		CustomerID: customer.ID,
		MerchantID: merchant.ID,
		Amount:     money(t, "25.00"),
		ActorID:    1,
	})
	if err != nil {
		t.Fatalf("second assign failed: %v", err)
	}
	if second.PointsEarned != 25 {
		t.Fatalf("expected 25 earned, got %d", second.PointsEarned)
	}
	if second.GiftCard == nil {
		t.Fatal("expected gift card at threshold crossing")
	}
	if second.GiftCard.PointsCost != 100 {
		t.Fatalf("expected debit of exactly the threshold, got %d", second.GiftCard.PointsCost)
	}
	if !second.GiftCard.RewardValue.Decimal.Equal(decimal.RequireFromString("5.00")) {
		t.Fatalf("unexpected reward value: %s", second.GiftCard.RewardValue.String())
	}
	if len(second.GiftCard.Code) != giftCardCodeLength {
		t.Fatalf("unexpected code %q", second.GiftCard.Code)
	}
	if second.TotalPoints != 5 {
		t.Fatalf("expected remainder balance 5, got %d", second.TotalPoints)
	}

	// 流水应为：earn 80, earn 25, redeem 100（铸卡扣分）
	var txns []models.PointTransaction
	if err := db.Order("id asc").Find(&txns).Error; err != nil {
		t.Fatalf("query transactions failed: %v", err)
	}
	if len(txns) != 3 {
		t.Fatalf("expected 3 ledger rows, got %d", len(txns))
	}
	if txns[1].Points != 25 || txns[1].Type != constants.PointTxnTypeEarn {
		t.Fatalf("earn row should record the full pre-deduction amount: %+v", txns[1])
	}
	if txns[2].Type != constants.PointTxnTypeRedeem || txns[2].Points != 100 {
		t.Fatalf("unexpected mint debit row: %+v", txns[2])
	}

	assertLedgerMatchesBalance(t, svc, db, customer.ID, merchant.ID)
}

func TestAssignPointsBelowThresholdNoCard(t *testing.T) {
	svc, _, db := setupPointsServiceTest(t)
	merchant := seedLoyaltyMerchant(t, db, 100)
	customer := seedLoyaltyCustomer(t, db, "+96170000002")

	if _, err := svc.AssignPoints(AssignPointsInput{
		CustomerID: customer.ID, MerchantID: merchant.ID, Amount: money(t, "50.00"),
	}); err != nil {
		t.Fatalf("assign failed: %v", err)
	}
	result, err := svc.AssignPoints(AssignPointsInput{
		CustomerID: customer.ID, MerchantID: merchant.ID, Amount: money(t, "30.00"),
	})
	if err != nil {
		t.Fatalf("assign failed: %v", err)
	}
	if result.GiftCard != nil {
		t.Fatalf("no card expected below threshold, got %+v", result.GiftCard)
	}
	if result.TotalPoints != 80 {
		t.Fatalf("expected balance 80, got %d", result.TotalPoints)
	}

	var count int64
	if err := db.Model(&models.GiftCard{}).Count(&count).Error; err != nil {
		t.Fatalf("count cards failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 gift cards, got %d", count)
	}
	assertLedgerMatchesBalance(t, svc, db, customer.ID, merchant.ID)
}

func TestAssignPointsThresholdBoundary(t *testing.T) {
	svc, _, db := setupPointsServiceTest(t)
	merchant := seedLoyaltyMerchant(t, db, 100)
	customer := seedLoyaltyCustomer(t, db, "+96170000003")

	result, err := svc.AssignPoints(AssignPointsInput{
		CustomerID: customer.ID, MerchantID: merchant.ID, Amount: money(t, "99.00"),
	})
	if err != nil {
		t.Fatalf("assign failed: %v", err)
	}
	if result.GiftCard != nil {
		t.Fatal("threshold-1 must not mint")
	}

	result, err = svc.AssignPoints(AssignPointsInput{
		CustomerID: customer.ID, MerchantID: merchant.ID, Amount: money(t, "1.00"),
	})
	if err != nil {
		t.Fatalf("assign failed: %v", err)
	}
	if result.GiftCard == nil {
		t.Fatal("balance exactly at threshold must mint")
	}
	if result.TotalPoints != 0 {
		t.Fatalf("expected remainder 0, got %d", result.TotalPoints)
	}
	assertLedgerMatchesBalance(t, svc, db, customer.ID, merchant.ID)
}

func TestAssignPointsRejectsInvalidAmount(t *testing.T) {
	svc, _, db := setupPointsServiceTest(t)
	merchant := seedLoyaltyMerchant(t, db, 100)
	customer := seedLoyaltyCustomer(t, db, "+96170000004")

	for _, amount := range []string{"0", "-5.00"} {
		if _, err := svc.AssignPoints(AssignPointsInput{
			CustomerID: customer.ID, MerchantID: merchant.ID, Amount: money(t, amount),
		}); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("amount %s: expected ErrInvalidAmount, got %v", amount, err)
		}
	}

	var count int64
	if err := db.Model(&models.PointTransaction{}).Count(&count).Error; err != nil {
		t.Fatalf("count txns failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("rejected assigns must not write ledger rows, got %d", count)
	}
}

func TestAssignPointsIdempotentReference(t *testing.T) {
	svc, _, db := setupPointsServiceTest(t)
	merchant := seedLoyaltyMerchant(t, db, 100)
	customer := seedLoyaltyCustomer(t, db, "+96170000005")

	input := AssignPointsInput{
		CustomerID: customer.ID,
		MerchantID: merchant.ID,
		Amount:     money(t, "40.00"),
		RequestRef: "pos:order:12345",
	}
	first, err := svc.AssignPoints(input)
	if err != nil {
		t.Fatalf("first assign failed: %v", err)
	}
	if first.Replayed {
		t.Fatal("first call must not be a replay")
	}

	second, err := svc.AssignPoints(input)
	if err != nil {
		t.Fatalf("replay failed: %v", err)
	}
	if !second.Replayed {
		t.Fatal("expected replayed result")
	}
	if second.PointsEarned != 40 || second.TotalPoints != 40 {
		t.Fatalf("unexpected replay result: %+v", second)
	}

	var count int64
	if err := db.Model(&models.PointTransaction{}).Count(&count).Error; err != nil {
		t.Fatalf("count txns failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("replay must not write a second ledger row, got %d", count)
	}
	assertLedgerMatchesBalance(t, svc, db, customer.ID, merchant.ID)
}

func TestAssignPointsConcurrentAssignsKeepSum(t *testing.T) {
	svc, _, db := setupPointsServiceTest(t)
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap sql db failed: %v", err)
	}
	// 单连接让 sqlite 串行提交，两笔并发入账依然要靠相对增量更新保住总和
	sqlDB.SetMaxOpenConns(1)

	merchant := seedLoyaltyMerchant(t, db, 0)
	customer := seedLoyaltyCustomer(t, db, "+96170000009")

	amount := money(t, "10.00")
	var wg sync.WaitGroup
	errCh := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.AssignPoints(AssignPointsInput{
				CustomerID: customer.ID,
				MerchantID: merchant.ID,
				Amount:     amount,
				ActorID:    1,
			})
			errCh <- err
		}()
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		if err != nil {
			t.Fatalf("concurrent assign failed: %v", err)
		}
	}

	var link models.CustomerMerchant
	if err := db.Where("customer_id = ? AND merchant_id = ?", customer.ID, merchant.ID).First(&link).Error; err != nil {
		t.Fatalf("query link failed: %v", err)
	}
	// 余额为 0 时两笔各 10 分的入账都必须生效，丢更新会停在 10
	if link.PointsBalance != 20 {
		t.Fatalf("expected balance 20, got %d", link.PointsBalance)
	}

	var txns int64
	if err := db.Model(&models.PointTransaction{}).Count(&txns).Error; err != nil {
		t.Fatalf("count txns failed: %v", err)
	}
	if txns != 2 {
		t.Fatalf("expected 2 earn rows, got %d", txns)
	}
	assertLedgerMatchesBalance(t, svc, db, customer.ID, merchant.ID)
}

func TestAssignPointsReplayReturnsMintedCard(t *testing.T) {
	svc, _, db := setupPointsServiceTest(t)
	merchant := seedLoyaltyMerchant(t, db, 100)
	customer := seedLoyaltyCustomer(t, db, "+96170000010")

	target, err := points.EncodeTarget(points.Target{Type: constants.ChallengeTypeAmountMin, Amount: 50})
	if err != nil {
		t.Fatalf("encode target failed: %v", err)
	}
	challenge := models.Challenge{
		MerchantID:  merchant.ID,
		Name:        "Half century",
		Type:        constants.ChallengeTypeAmountMin,
		TargetValue: target,
		Points:      20,
		IsActive:    true,
	}
	if err := db.Create(&challenge).Error; err != nil {
		t.Fatalf("create challenge failed: %v", err)
	}

	input := AssignPointsInput{
		CustomerID: customer.ID,
		MerchantID: merchant.ID,
		Amount:     money(t, "100.00"),
		RequestRef: "pos:order:77001",
		ActorID:    1,
	}
	first, err := svc.AssignPoints(input)
	if err != nil {
		t.Fatalf("first assign failed: %v", err)
	}
	if first.GiftCard == nil {
		t.Fatal("expected gift card on threshold crossing")
	}
	if first.BonusPoints != 20 || len(first.ChallengesCompleted) != 1 {
		t.Fatalf("unexpected first result: %+v", first)
	}

	// 重放要拿回首次入账的完整结果，铸出的卡与达成的挑战不能丢
	second, err := svc.AssignPoints(input)
	if err != nil {
		t.Fatalf("replay failed: %v", err)
	}
	if !second.Replayed {
		t.Fatal("expected replayed result")
	}
	if second.PointsEarned != 100 || second.BonusPoints != 20 {
		t.Fatalf("unexpected replay points: %+v", second)
	}
	if second.GiftCard == nil || second.GiftCard.ID != first.GiftCard.ID || second.GiftCard.Code != first.GiftCard.Code {
		t.Fatalf("replay must return the originally minted card: %+v", second.GiftCard)
	}
	if len(second.ChallengesCompleted) != 1 || second.ChallengesCompleted[0] != challenge.ID {
		t.Fatalf("replay must return completed challenges: %v", second.ChallengesCompleted)
	}
	if second.TotalPoints != first.TotalPoints {
		t.Fatalf("replay balance %d diverged from %d", second.TotalPoints, first.TotalPoints)
	}

	// earn 100 + bonus 20 + 铸卡扣 100，重放不得追加任何行
	var txns int64
	if err := db.Model(&models.PointTransaction{}).Count(&txns).Error; err != nil {
		t.Fatalf("count txns failed: %v", err)
	}
	if txns != 3 {
		t.Fatalf("expected 3 ledger rows, got %d", txns)
	}
	assertLedgerMatchesBalance(t, svc, db, customer.ID, merchant.ID)
}

func TestAssignPointsFoldsUnexpectedStorageErrors(t *testing.T) {
	svc, _, db := setupPointsServiceTest(t)
	merchant := seedLoyaltyMerchant(t, db, 0)
	customer := seedLoyaltyCustomer(t, db, "+96170000011")

	// 删掉到店表，让事务中途冒出驱动层错误
	if err := db.Migrator().DropTable(&models.Visit{}); err != nil {
		t.Fatalf("drop table failed: %v", err)
	}

	_, err := svc.AssignPoints(AssignPointsInput{
		CustomerID:  customer.ID,
		MerchantID:  merchant.ID,
		Amount:      money(t, "10.00"),
		RecordVisit: true,
		ActorID:     1,
	})
	if !errors.Is(err, ErrTransactionFailed) {
		t.Fatalf("expected ErrTransactionFailed, got %v", err)
	}

	// 整个事务回滚，不得留下半截流水
	var txns int64
	if err := db.Model(&models.PointTransaction{}).Count(&txns).Error; err != nil {
		t.Fatalf("count txns failed: %v", err)
	}
	if txns != 0 {
		t.Fatalf("expected 0 ledger rows after rollback, got %d", txns)
	}

	// 业务哨兵错误原样穿透，不得被折叠
	if _, err := svc.AssignPoints(AssignPointsInput{
		CustomerID: 9999, MerchantID: merchant.ID, Amount: money(t, "10.00"),
	}); !errors.Is(err, ErrCustomerNotFound) || errors.Is(err, ErrTransactionFailed) {
		t.Fatalf("sentinel must pass through unwrapped, got %v", err)
	}
}

func TestAssignPointsUnknownEntities(t *testing.T) {
	svc, _, db := setupPointsServiceTest(t)
	merchant := seedLoyaltyMerchant(t, db, 100)
	customer := seedLoyaltyCustomer(t, db, "+96170000006")

	if _, err := svc.AssignPoints(AssignPointsInput{
		CustomerID: 9999, MerchantID: merchant.ID, Amount: money(t, "10.00"),
	}); !errors.Is(err, ErrCustomerNotFound) {
		t.Fatalf("expected ErrCustomerNotFound, got %v", err)
	}
	if _, err := svc.AssignPoints(AssignPointsInput{
		CustomerID: customer.ID, MerchantID: 9999, Amount: money(t, "10.00"),
	}); !errors.Is(err, ErrMerchantNotFound) {
		t.Fatalf("expected ErrMerchantNotFound, got %v", err)
	}
}

func TestAssignPointsIncompleteGiftCardConfig(t *testing.T) {
	svc, _, db := setupPointsServiceTest(t)
	merchant := seedLoyaltyMerchant(t, db, 100)
	customer := seedLoyaltyCustomer(t, db, "+96170000007")

	// 门槛已配置但有效期缺失
	if err := db.Model(&models.Merchant{}).Where("id = ?", merchant.ID).
		Update("gift_card_expiry_days", 0).Error; err != nil {
		t.Fatalf("update merchant failed: %v", err)
	}
	if _, err := svc.AssignPoints(AssignPointsInput{
		CustomerID: customer.ID, MerchantID: merchant.ID, Amount: money(t, "10.00"),
	}); !errors.Is(err, ErrMerchantConfigMissing) {
		t.Fatalf("expected ErrMerchantConfigMissing, got %v", err)
	}
}

func TestAdjustPointsUnderflowRejected(t *testing.T) {
	svc, _, db := setupPointsServiceTest(t)
	merchant := seedLoyaltyMerchant(t, db, 100)
	customer := seedLoyaltyCustomer(t, db, "+96170000008")

	if _, err := svc.AssignPoints(AssignPointsInput{
		CustomerID: customer.ID, MerchantID: merchant.ID, Amount: money(t, "30.00"),
	}); err != nil {
		t.Fatalf("assign failed: %v", err)
	}

	if _, err := svc.AdjustPoints(AdjustPointsInput{
		CustomerID: customer.ID, MerchantID: merchant.ID, Points: -50, Reason: "correction", ActorID: 1,
	}); !errors.Is(err, ErrNegativeBalanceRejected) {
		t.Fatalf("expected ErrNegativeBalanceRejected, got %v", err)
	}

	result, err := svc.AdjustPoints(AdjustPointsInput{
		CustomerID: customer.ID, MerchantID: merchant.ID, Points: -20, Reason: "correction", ActorID: 1,
	})
	if err != nil {
		t.Fatalf("adjust failed: %v", err)
	}
	if result.TotalPoints != 10 {
		t.Fatalf("expected balance 10, got %d", result.TotalPoints)
	}

	var txn models.PointTransaction
	if err := db.Order("id desc").First(&txn).Error; err != nil {
		t.Fatalf("query txn failed: %v", err)
	}
	if txn.Type != constants.PointTxnTypeAdjustmentSubtract || txn.Points != 20 {
		t.Fatalf("unexpected adjustment row: %+v", txn)
	}
	assertLedgerMatchesBalance(t, svc, db, customer.ID, merchant.ID)
}

func TestCheckInRegistersCustomerByPhone(t *testing.T) {
	svc, _, db := setupPointsServiceTest(t)
	merchant := seedLoyaltyMerchant(t, db, 100)

	amount := money(t, "12.00")
	result, err := svc.CheckIn(CheckInInput{
		Phone:      "+96171111111",
		MerchantID: merchant.ID,
		Amount:     &amount,
	})
	if err != nil {
		t.Fatalf("check-in failed: %v", err)
	}
	if result.Customer == nil || result.Customer.ID == 0 {
		t.Fatalf("expected auto-registered customer, got %+v", result.Customer)
	}
	if result.Assign.PointsEarned != 12 {
		t.Fatalf("expected 12 points, got %d", result.Assign.PointsEarned)
	}

	// 同一手机号再次打卡复用同一顾客
	again, err := svc.CheckIn(CheckInInput{Phone: "+96171111111", MerchantID: merchant.ID})
	if err != nil {
		t.Fatalf("second check-in failed: %v", err)
	}
	if again.Customer.ID != result.Customer.ID {
		t.Fatalf("expected same customer, got %d and %d", result.Customer.ID, again.Customer.ID)
	}

	var visits int64
	if err := db.Model(&models.Visit{}).Where("customer_id = ?", result.Customer.ID).Count(&visits).Error; err != nil {
		t.Fatalf("count visits failed: %v", err)
	}
	if visits != 2 {
		t.Fatalf("expected 2 visits, got %d", visits)
	}
}

func TestCheckInFrequencyChallenge(t *testing.T) {
	svc, _, db := setupPointsServiceTest(t)
	merchant := seedLoyaltyMerchant(t, db, 0) // 礼品卡未启用，只测挑战

	target, err := points.EncodeTarget(points.Target{
		Type: constants.ChallengeTypeFrequency, Visits: 2, Days: 30,
	})
	if err != nil {
		t.Fatalf("encode target failed: %v", err)
	}
	challenge := models.Challenge{
		MerchantID:  merchant.ID,
		Name:        "Regular visitor",
		Type:        constants.ChallengeTypeFrequency,
		TargetValue: target,
		Points:      15,
		IsActive:    true,
	}
	if err := db.Create(&challenge).Error; err != nil {
		t.Fatalf("create challenge failed: %v", err)
	}

	first, err := svc.CheckIn(CheckInInput{Phone: "+96172222222", MerchantID: merchant.ID})
	if err != nil {
		t.Fatalf("first check-in failed: %v", err)
	}
	if first.Assign.BonusPoints != 0 {
		t.Fatalf("first visit must not complete a 2-visit challenge: %+v", first.Assign)
	}

	second, err := svc.CheckIn(CheckInInput{Phone: "+96172222222", MerchantID: merchant.ID})
	if err != nil {
		t.Fatalf("second check-in failed: %v", err)
	}
	if second.Assign.BonusPoints != 15 {
		t.Fatalf("expected 15 bonus points on second visit, got %d", second.Assign.BonusPoints)
	}
	if len(second.Assign.ChallengesCompleted) != 1 || second.Assign.ChallengesCompleted[0] != challenge.ID {
		t.Fatalf("unexpected completions: %v", second.Assign.ChallengesCompleted)
	}

	// 不可重复的挑战不会再次发奖
	third, err := svc.CheckIn(CheckInInput{Phone: "+96172222222", MerchantID: merchant.ID})
	if err != nil {
		t.Fatalf("third check-in failed: %v", err)
	}
	if third.Assign.BonusPoints != 0 {
		t.Fatalf("non-repeatable challenge completed twice: %+v", third.Assign)
	}

	var completions int64
	if err := db.Model(&models.ChallengeCompletion{}).Count(&completions).Error; err != nil {
		t.Fatalf("count completions failed: %v", err)
	}
	if completions != 1 {
		t.Fatalf("expected 1 completion row, got %d", completions)
	}
	assertLedgerMatchesBalance(t, svc, db, second.Customer.ID, merchant.ID)
}

func TestAssignPointsAmountChallengeBonus(t *testing.T) {
	svc, _, db := setupPointsServiceTest(t)
	merchant := seedLoyaltyMerchant(t, db, 0)
	customer := seedLoyaltyCustomer(t, db, "+96173333333")

	target, err := points.EncodeTarget(points.Target{Type: constants.ChallengeTypeAmountMin, Amount: 100})
	if err != nil {
		t.Fatalf("encode target failed: %v", err)
	}
	challenge := models.Challenge{
		MerchantID:  merchant.ID,
		Name:        "Big spender",
		Type:        constants.ChallengeTypeAmountMin,
		TargetValue: target,
		Points:      50,
		IsActive:    true,
	}
	if err := db.Create(&challenge).Error; err != nil {
		t.Fatalf("create challenge failed: %v", err)
	}

	below, err := svc.AssignPoints(AssignPointsInput{
		CustomerID: customer.ID, MerchantID: merchant.ID, Amount: money(t, "99.00"),
	})
	if err != nil {
		t.Fatalf("assign failed: %v", err)
	}
	if below.BonusPoints != 0 {
		t.Fatalf("99 must not satisfy a 100 minimum: %+v", below)
	}

	hit, err := svc.AssignPoints(AssignPointsInput{
		CustomerID: customer.ID, MerchantID: merchant.ID, Amount: money(t, "120.00"),
	})
	if err != nil {
		t.Fatalf("assign failed: %v", err)
	}
	if hit.BonusPoints != 50 {
		t.Fatalf("expected 50 bonus points, got %d", hit.BonusPoints)
	}
	if hit.TotalPoints != 99+120+50 {
		t.Fatalf("unexpected balance %d", hit.TotalPoints)
	}
	assertLedgerMatchesBalance(t, svc, db, customer.ID, merchant.ID)
}
