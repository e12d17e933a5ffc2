package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/meit-next/internal/config"
	"github.com/meit-next/internal/constants"
	"github.com/meit-next/internal/models"
	"github.com/meit-next/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupAuthServiceTest(t *testing.T) (*AuthService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:auth_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Staff{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	cfg := &config.Config{}
	cfg.JWT.SecretKey = "test-secret-key-0123456789-0123456789"
	cfg.JWT.ExpireHours = 1
	return NewAuthService(cfg, repository.NewStaffRepository(db)), db
}

func seedStaffAccount(t *testing.T, svc *AuthService, username, password, role string, merchantID uint) *models.Staff {
	t.Helper()
	staff, err := svc.CreateStaff(username, password, "Test Staff", role, merchantID)
	if err != nil {
		t.Fatalf("create staff failed: %v", err)
	}
	return staff
}

func TestLoginAndVerifyClaims(t *testing.T) {
	svc, _ := setupAuthServiceTest(t)
	seedStaffAccount(t, svc, "owner1", "pass-12345", constants.StaffRoleOwner, 7)

	staff, token, expiresAt, err := svc.Login("owner1", "pass-12345")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if token == "" || expiresAt.Before(time.Now()) {
		t.Fatalf("unexpected token %q expires %v", token, expiresAt)
	}
	if staff.LastLoginAt == nil {
		t.Fatal("login should record last login time")
	}

	claims, err := svc.ParseJWT(token)
	if err != nil {
		t.Fatalf("parse token failed: %v", err)
	}
	if claims.StaffID != staff.ID || claims.MerchantID != 7 || claims.Role != constants.StaffRoleOwner {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	state, err := svc.VerifyClaims(context.Background(), claims)
	if err != nil {
		t.Fatalf("verify claims failed: %v", err)
	}
	if state.MerchantID != 7 || state.Role != constants.StaffRoleOwner {
		t.Fatalf("unexpected auth state: %+v", state)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, db := setupAuthServiceTest(t)
	seedStaffAccount(t, svc, "staff1", "pass-12345", constants.StaffRoleStaff, 7)

	if _, _, _, err := svc.Login("staff1", "wrong-pass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, _, _, err := svc.Login("no-such-user", "pass-12345"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}

	if err := db.Model(&models.Staff{}).Where("username = ?", "staff1").
		Update("status", constants.StaffStatusDisabled).Error; err != nil {
		t.Fatalf("disable staff failed: %v", err)
	}
	if _, _, _, err := svc.Login("staff1", "pass-12345"); !errors.Is(err, ErrStaffDisabled) {
		t.Fatalf("expected ErrStaffDisabled, got %v", err)
	}
}

func TestChangePasswordInvalidatesOldToken(t *testing.T) {
	svc, _ := setupAuthServiceTest(t)
	staff := seedStaffAccount(t, svc, "owner2", "pass-12345", constants.StaffRoleOwner, 3)

	_, token, _, err := svc.Login("owner2", "pass-12345")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	claims, err := svc.ParseJWT(token)
	if err != nil {
		t.Fatalf("parse token failed: %v", err)
	}

	if err := svc.ChangePassword(staff.ID, "wrong-old", "new-pass-123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if err := svc.ChangePassword(staff.ID, "pass-12345", "new-pass-123"); err != nil {
		t.Fatalf("change password failed: %v", err)
	}

	// 旧 token 的版本号已落后，必须被拒绝
	if _, err := svc.VerifyClaims(context.Background(), claims); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected stale token rejection, got %v", err)
	}
	if _, _, _, err := svc.Login("owner2", "new-pass-123"); err != nil {
		t.Fatalf("login with new password failed: %v", err)
	}
}

func TestCreateStaffRejectsDuplicateUsername(t *testing.T) {
	svc, _ := setupAuthServiceTest(t)
	seedStaffAccount(t, svc, "dup", "pass-12345", constants.StaffRoleStaff, 1)

	if _, err := svc.CreateStaff("dup", "other-pass-1", "Other", constants.StaffRoleStaff, 1); !errors.Is(err, ErrStaffExists) {
		t.Fatalf("expected ErrStaffExists, got %v", err)
	}
}
