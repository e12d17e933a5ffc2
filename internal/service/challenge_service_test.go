package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/meit-next/internal/constants"
	"github.com/meit-next/internal/models"
	"github.com/meit-next/internal/points"
	"github.com/meit-next/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupChallengeServiceTest(t *testing.T) (*ChallengeService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:challenge_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Challenge{}, &models.AuditLog{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db
	return NewChallengeService(
		repository.NewChallengeRepository(db),
		repository.NewAuditLogRepository(db),
	), db
}

func TestChallengeCreateEncodesTarget(t *testing.T) {
	svc, db := setupChallengeServiceTest(t)

	created, err := svc.Create(5, ChallengeInput{
		Name:     "Morning regular",
		Target:   points.Target{Type: constants.ChallengeTypeTimeBased, StartHHMM: 700, EndHHMM: 1000},
		Points:   30,
		IsActive: true,
	}, 1)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if created.TargetValue != 700*10000+1000 {
		t.Fatalf("unexpected encoded target %d", created.TargetValue)
	}

	got, target, err := svc.Get(5, created.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Type != constants.ChallengeTypeTimeBased {
		t.Fatalf("unexpected type %s", got.Type)
	}
	if target == nil || target.StartHHMM != 700 || target.EndHHMM != 1000 {
		t.Fatalf("decoded target mismatch: %+v", target)
	}

	var audits int64
	if err := db.Model(&models.AuditLog{}).Count(&audits).Error; err != nil {
		t.Fatalf("count audits failed: %v", err)
	}
	if audits != 1 {
		t.Fatalf("expected 1 audit row, got %d", audits)
	}
}

func TestChallengeCreateRejectsInvalidInput(t *testing.T) {
	svc, _ := setupChallengeServiceTest(t)

	if _, err := svc.Create(5, ChallengeInput{
		Name:   "No reward",
		Target: points.Target{Type: constants.ChallengeTypeAmountMin, Amount: 100},
		Points: 0,
	}, 1); !errors.Is(err, ErrInvalidPoints) {
		t.Fatalf("expected ErrInvalidPoints, got %v", err)
	}

	if _, err := svc.Create(5, ChallengeInput{
		Name:   "Bad target",
		Target: points.Target{Type: constants.ChallengeTypeAmountMin, Amount: 0},
		Points: 10,
	}, 1); !errors.Is(err, points.ErrInvalidTarget) {
		t.Fatalf("expected ErrInvalidTarget, got %v", err)
	}
}

func TestChallengeTenantIsolation(t *testing.T) {
	svc, _ := setupChallengeServiceTest(t)

	created, err := svc.Create(5, ChallengeInput{
		Name:   "Frequency",
		Target: points.Target{Type: constants.ChallengeTypeFrequency, Visits: 3, Days: 14},
		Points: 20,
	}, 1)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	// 其他商户访问同一 ID 必须视作不存在
	if _, _, err := svc.Get(6, created.ID); !errors.Is(err, ErrChallengeNotFound) {
		t.Fatalf("expected ErrChallengeNotFound for foreign merchant, got %v", err)
	}
	if err := svc.Delete(6, created.ID, 1); !errors.Is(err, ErrChallengeNotFound) {
		t.Fatalf("expected ErrChallengeNotFound on foreign delete, got %v", err)
	}

	if err := svc.Delete(5, created.ID, 1); err != nil {
		t.Fatalf("owner delete failed: %v", err)
	}
	if _, _, err := svc.Get(5, created.ID); !errors.Is(err, ErrChallengeNotFound) {
		t.Fatalf("expected ErrChallengeNotFound after delete, got %v", err)
	}
}

func TestChallengeUpdateReplacesTarget(t *testing.T) {
	svc, _ := setupChallengeServiceTest(t)

	created, err := svc.Create(5, ChallengeInput{
		Name:   "Spend",
		Target: points.Target{Type: constants.ChallengeTypeAmountMin, Amount: 5000},
		Points: 100,
	}, 1)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	updated, err := svc.Update(5, created.ID, ChallengeInput{
		Name:         "Spend more",
		Target:       points.Target{Type: constants.ChallengeTypeAmountMin, Amount: 8000},
		Points:       150,
		IsActive:     true,
		IsRepeatable: true,
	}, 1)
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.TargetValue != 8000 || updated.Points != 150 || !updated.IsRepeatable {
		t.Fatalf("unexpected updated challenge: %+v", updated)
	}
}
