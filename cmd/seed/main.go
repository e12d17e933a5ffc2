package main

import (
	"fmt"
	"time"

	"github.com/meit-next/internal/config"
	"github.com/meit-next/internal/constants"
	"github.com/meit-next/internal/logger"
	"github.com/meit-next/internal/models"
	"github.com/meit-next/internal/points"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	// 添加演示商户（含积分与礼品卡配置）
	merchants := []models.Merchant{
		{
			Name:               "Cafe Aurora",
			Currency:           "USD",
			PointsPerUnit:      models.NewMoneyFromDecimal(decimal.NewFromInt(1)),
			GiftCardThreshold:  500,
			GiftCardValue:      models.NewMoneyFromDecimal(decimal.NewFromInt(10)),
			GiftCardExpiryDays: 90,
			IsActive:           true,
		},
		{
			Name:               "Bodega Verde",
			Currency:           "MXN",
			PointsPerUnit:      models.NewMoneyFromDecimal(decimal.NewFromFloat(0.5)),
			GiftCardThreshold:  0,
			GiftCardValue:      models.NewMoneyFromDecimal(decimal.Zero),
			GiftCardExpiryDays: 0,
			IsActive:           true,
		},
	}

	merchantIDs := map[string]uint{}
	for _, m := range merchants {
		var existing models.Merchant
		if err := models.DB.Where("name = ?", m.Name).First(&existing).Error; err != nil {
			if err := models.DB.Create(&m).Error; err != nil {
				stdLog.Printf("Failed to create merchant %s: %v", m.Name, err)
				continue
			}
			stdLog.Printf("Created merchant: %s", m.Name)
			merchantIDs[m.Name] = m.ID
		} else {
			existing.Currency = m.Currency
			existing.PointsPerUnit = m.PointsPerUnit
			existing.GiftCardThreshold = m.GiftCardThreshold
			existing.GiftCardValue = m.GiftCardValue
			existing.GiftCardExpiryDays = m.GiftCardExpiryDays
			existing.IsActive = m.IsActive
			if err := models.DB.Save(&existing).Error; err != nil {
				stdLog.Printf("Failed to update merchant %s: %v", m.Name, err)
				continue
			}
			stdLog.Printf("Updated merchant: %s", m.Name)
			merchantIDs[m.Name] = existing.ID
		}
	}
	auroraID := merchantIDs["Cafe Aurora"]
	verdeID := merchantIDs["Bodega Verde"]

	// 添加门店
	branches := []models.Branch{
		{MerchantID: auroraID, Name: "Aurora Downtown", Address: "12 Main St", Phone: "+1-555-0101", IsActive: true},
		{MerchantID: auroraID, Name: "Aurora Riverside", Address: "48 River Ave", Phone: "+1-555-0102", IsActive: true},
		{MerchantID: verdeID, Name: "Verde Centro", Address: "Av. Juarez 230", Phone: "+52-555-0201", IsActive: true},
	}
	for _, b := range branches {
		if b.MerchantID == 0 {
			stdLog.Printf("Skip branch %s: merchant missing", b.Name)
			continue
		}
		var existing models.Branch
		if err := models.DB.Where("merchant_id = ? AND name = ?", b.MerchantID, b.Name).First(&existing).Error; err != nil {
			if err := models.DB.Create(&b).Error; err != nil {
				stdLog.Printf("Failed to create branch %s: %v", b.Name, err)
			} else {
				stdLog.Printf("Created branch: %s", b.Name)
			}
		} else {
			stdLog.Printf("Branch already exists: %s", b.Name)
		}
	}

	// 添加商户员工（owner + staff）
	staffPlans := []struct {
		Username   string
		Password   string
		Display    string
		MerchantID uint
		Role       string
	}{
		{Username: "aurora-owner", Password: "aurora-owner-123", Display: "Aurora Owner", MerchantID: auroraID, Role: constants.StaffRoleOwner},
		{Username: "aurora-staff", Password: "aurora-staff-123", Display: "Aurora Barista", MerchantID: auroraID, Role: constants.StaffRoleStaff},
		{Username: "verde-owner", Password: "verde-owner-123", Display: "Verde Owner", MerchantID: verdeID, Role: constants.StaffRoleOwner},
	}
	for _, plan := range staffPlans {
		if plan.MerchantID == 0 {
			stdLog.Printf("Skip staff %s: merchant missing", plan.Username)
			continue
		}
		var existing models.Staff
		if err := models.DB.Where("username = ?", plan.Username).First(&existing).Error; err == nil {
			stdLog.Printf("Staff already exists: %s", plan.Username)
			continue
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(plan.Password), bcrypt.DefaultCost)
		if err != nil {
			stdLog.Printf("Failed to hash password for %s: %v", plan.Username, err)
			continue
		}
		staff := models.Staff{
			Username:     plan.Username,
			PasswordHash: string(hash),
			DisplayName:  plan.Display,
			MerchantID:   plan.MerchantID,
			Role:         plan.Role,
			Status:       constants.StaffStatusActive,
		}
		if err := models.DB.Create(&staff).Error; err != nil {
			stdLog.Printf("Failed to create staff %s: %v", plan.Username, err)
		} else {
			stdLog.Printf("Created staff: %s", plan.Username)
		}
	}

	// 添加演示挑战
	now := time.Now()
	seasonEnd := now.AddDate(0, 3, 0)
	challengeTargets := []struct {
		Merchant uint
		Name     string
		Desc     string
		Target   points.Target
		Points   int64
		Repeat   bool
		MaxDone  int
		EndsAt   *time.Time
	}{
		{
			Merchant: auroraID,
			Name:     "Big Spender",
			Desc:     "Spend 50 or more in a single visit",
			Target:   points.Target{Type: constants.ChallengeTypeAmountMin, Amount: 5000},
			Points:   100,
			Repeat:   true,
			MaxDone:  0,
		},
		{
			Merchant: auroraID,
			Name:     "Morning Regular",
			Desc:     "Check in between 7am and 10am",
			Target:   points.Target{Type: constants.ChallengeTypeTimeBased, StartHHMM: 700, EndHHMM: 1000},
			Points:   30,
			Repeat:   true,
			MaxDone:  10,
		},
		{
			Merchant: auroraID,
			Name:     "Loyal Five",
			Desc:     "Visit 5 times within 30 days",
			Target:   points.Target{Type: constants.ChallengeTypeFrequency, Visits: 5, Days: 30},
			Points:   200,
			Repeat:   false,
			EndsAt:   &seasonEnd,
		},
		{
			Merchant: verdeID,
			Name:     "Produce Fan",
			Desc:     "Buy from the produce category",
			Target:   points.Target{Type: constants.ChallengeTypeCategory, Category: 7},
			Points:   50,
			Repeat:   true,
			MaxDone:  0,
		},
	}
	for _, plan := range challengeTargets {
		if plan.Merchant == 0 {
			stdLog.Printf("Skip challenge %s: merchant missing", plan.Name)
			continue
		}
		target, err := points.EncodeTarget(plan.Target)
		if err != nil {
			stdLog.Printf("Skip challenge %s: %v", plan.Name, err)
			continue
		}
		var existing models.Challenge
		if err := models.DB.Where("merchant_id = ? AND name = ?", plan.Merchant, plan.Name).First(&existing).Error; err == nil {
			stdLog.Printf("Challenge already exists: %s", plan.Name)
			continue
		}
		challenge := models.Challenge{
			MerchantID:     plan.Merchant,
			Name:           plan.Name,
			Description:    plan.Desc,
			Type:           plan.Target.Type,
			TargetValue:    target,
			Points:         plan.Points,
			IsActive:       true,
			IsRepeatable:   plan.Repeat,
			MaxCompletions: plan.MaxDone,
			EndsAt:         plan.EndsAt,
		}
		if err := models.DB.Create(&challenge).Error; err != nil {
			stdLog.Printf("Failed to create challenge %s: %v", plan.Name, err)
		} else {
			stdLog.Printf("Created challenge: %s", plan.Name)
		}
	}

	// 添加演示顾客并挂到商户
	customers := []models.Customer{
		{Phone: "+15550001001", Name: "Ana Torres", Email: "ana@example.com", MarketingOptIn: true},
		{Phone: "+15550001002", Name: "Ben Okafor", Email: "", MarketingOptIn: false},
		{Phone: "+525550002001", Name: "Carla Ruiz", Email: "carla@example.com", MarketingOptIn: true},
	}
	customerIDs := map[string]uint{}
	for _, cust := range customers {
		var existing models.Customer
		if err := models.DB.Where("phone = ?", cust.Phone).First(&existing).Error; err != nil {
			if err := models.DB.Create(&cust).Error; err != nil {
				stdLog.Printf("Failed to create customer %s: %v", cust.Phone, err)
				continue
			}
			stdLog.Printf("Created customer: %s", cust.Phone)
			customerIDs[cust.Phone] = cust.ID
		} else {
			stdLog.Printf("Customer already exists: %s", cust.Phone)
			customerIDs[cust.Phone] = existing.ID
		}
	}

	memberships := []models.CustomerMerchant{
		{CustomerID: customerIDs["+15550001001"], MerchantID: auroraID},
		{CustomerID: customerIDs["+15550001002"], MerchantID: auroraID},
		{CustomerID: customerIDs["+525550002001"], MerchantID: verdeID},
	}
	for _, member := range memberships {
		if member.CustomerID == 0 || member.MerchantID == 0 {
			continue
		}
		var existing models.CustomerMerchant
		if err := models.DB.Where("customer_id = ? AND merchant_id = ?", member.CustomerID, member.MerchantID).First(&existing).Error; err != nil {
			if err := models.DB.Create(&member).Error; err != nil {
				stdLog.Printf("Failed to create membership %d/%d: %v", member.CustomerID, member.MerchantID, err)
			} else {
				stdLog.Printf("Created membership: customer=%d merchant=%d", member.CustomerID, member.MerchantID)
			}
		}
	}

	fmt.Println("\n✅ Demo data created successfully!")
	fmt.Println("Summary:")
	fmt.Println("- 2 Merchants (Cafe Aurora / Bodega Verde)")
	fmt.Println("- 3 Branches")
	fmt.Println("- 3 Merchant staff accounts")
	fmt.Println("- 4 Challenges")
	fmt.Println("- 3 Customers with memberships")
}
