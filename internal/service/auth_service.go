package service

import (
	"context"
	"errors"
	"time"

	"github.com/meit-next/internal/cache"
	"github.com/meit-next/internal/config"
	"github.com/meit-next/internal/constants"
	"github.com/meit-next/internal/models"
	"github.com/meit-next/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// AuthService 员工认证服务
type AuthService struct {
	cfg       *config.Config
	staffRepo repository.StaffRepository
}

// NewAuthService 创建员工认证服务
func NewAuthService(cfg *config.Config, staffRepo repository.StaffRepository) *AuthService {
	return &AuthService{cfg: cfg, staffRepo: staffRepo}
}

// HashPassword 使用 bcrypt 加密密码
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword 验证密码
func (s *AuthService) VerifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

// StaffClaims 员工 JWT 声明
type StaffClaims struct {
	StaffID      uint   `json:"staff_id"`
	Username     string `json:"username"`
	MerchantID   uint   `json:"merchant_id"`
	Role         string `json:"role"`
	TokenVersion uint64 `json:"token_version"`
	jwt.RegisteredClaims
}

// GenerateJWT 为员工签发 JWT Token
func (s *AuthService) GenerateJWT(staff *models.Staff) (string, time.Time, error) {
	expiresAt := time.Now().Add(time.Duration(s.cfg.JWT.ExpireHours) * time.Hour)

	claims := StaffClaims{
		StaffID:      staff.ID,
		Username:     staff.Username,
		MerchantID:   staff.MerchantID,
		Role:         staff.Role,
		TokenVersion: staff.TokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.cfg.JWT.SecretKey))
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseJWT 解析员工 JWT Token
func (s *AuthService) ParseJWT(tokenString string) (*StaffClaims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	token, err := parser.ParseWithClaims(tokenString, &StaffClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.JWT.SecretKey), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*StaffClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("无效的 token")
}

// Login 员工登录
func (s *AuthService) Login(username, password string) (*models.Staff, string, time.Time, error) {
	staff, err := s.staffRepo.GetByUsername(username)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	if staff == nil {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}
	if staff.Status != constants.StaffStatusActive {
		return nil, "", time.Time{}, ErrStaffDisabled
	}
	if err := s.VerifyPassword(staff.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}

	token, expiresAt, err := s.GenerateJWT(staff)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	now := time.Now()
	staff.LastLoginAt = &now
	if err := s.staffRepo.Update(staff); err != nil {
		return nil, "", time.Time{}, err
	}
	_ = cache.SetStaffAuthState(context.Background(), cache.BuildStaffAuthState(staff))

	return staff, token, expiresAt, nil
}

// VerifyClaims 校验 JWT 声明对应的员工状态与 Token 版本
// 优先走缓存快照，未命中时回表并回填缓存。
func (s *AuthService) VerifyClaims(ctx context.Context, claims *StaffClaims) (*cache.StaffAuthState, error) {
	if claims == nil || claims.StaffID == 0 {
		return nil, ErrInvalidCredentials
	}
	state, hit, err := cache.GetStaffAuthState(ctx, claims.StaffID)
	if err != nil || !hit {
		staff, repoErr := s.staffRepo.GetByID(claims.StaffID)
		if repoErr != nil {
			return nil, repoErr
		}
		if staff == nil {
			return nil, ErrStaffNotFound
		}
		state = cache.BuildStaffAuthState(staff)
		_ = cache.SetStaffAuthState(ctx, state)
	}
	if state.Status != constants.StaffStatusActive {
		return nil, ErrStaffDisabled
	}
	if state.TokenVersion != claims.TokenVersion {
		return nil, ErrInvalidCredentials
	}
	return state, nil
}

// ChangePassword 修改员工密码并使已签发的 Token 失效
func (s *AuthService) ChangePassword(staffID uint, oldPassword, newPassword string) error {
	staff, err := s.staffRepo.GetByID(staffID)
	if err != nil {
		return err
	}
	if staff == nil {
		return ErrStaffNotFound
	}
	if err := s.VerifyPassword(staff.PasswordHash, oldPassword); err != nil {
		return ErrInvalidCredentials
	}

	hashed, err := s.HashPassword(newPassword)
	if err != nil {
		return err
	}
	staff.PasswordHash = hashed
	staff.TokenVersion++
	if err := s.staffRepo.Update(staff); err != nil {
		return err
	}
	_ = cache.SetStaffAuthState(context.Background(), cache.BuildStaffAuthState(staff))
	return nil
}

// CreateStaff 创建员工账号（平台管理员或商户 owner 使用）
func (s *AuthService) CreateStaff(username, password, displayName, role string, merchantID uint) (*models.Staff, error) {
	existing, err := s.staffRepo.GetByUsername(username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrStaffExists
	}
	hashed, err := s.HashPassword(password)
	if err != nil {
		return nil, err
	}
	staff := &models.Staff{
		Username:     username,
		PasswordHash: hashed,
		DisplayName:  displayName,
		MerchantID:   merchantID,
		Role:         role,
		Status:       constants.StaffStatusActive,
	}
	if err := s.staffRepo.Create(staff); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrStaffExists
		}
		return nil, err
	}
	return staff, nil
}

// GetStaff 获取员工
func (s *AuthService) GetStaff(id uint) (*models.Staff, error) {
	staff, err := s.staffRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if staff == nil {
		return nil, ErrStaffNotFound
	}
	return staff, nil
}

// ListStaff 分页查询员工
func (s *AuthService) ListStaff(filter repository.StaffListFilter) ([]models.Staff, int64, error) {
	return s.staffRepo.List(filter)
}
