package service

import (
	"time"

	"github.com/meit-next/internal/constants"
	"github.com/meit-next/internal/models"
	"github.com/meit-next/internal/points"
	"github.com/meit-next/internal/repository"
)

// ChallengeService 挑战管理服务
type ChallengeService struct {
	challengeRepo repository.ChallengeRepository
	auditRepo     repository.AuditLogRepository
}

// NewChallengeService 创建挑战管理服务
func NewChallengeService(challengeRepo repository.ChallengeRepository, auditRepo repository.AuditLogRepository) *ChallengeService {
	return &ChallengeService{challengeRepo: challengeRepo, auditRepo: auditRepo}
}

// ChallengeInput 挑战创建/更新输入，目标值以结构化形式进出，编码只在服务内发生
type ChallengeInput struct {
	Name           string
	Description    string
	Target         points.Target
	Points         int64
	IsActive       bool
	IsRepeatable   bool
	MaxCompletions int
	StartsAt       *time.Time
	EndsAt         *time.Time
}

// Create 创建挑战
func (s *ChallengeService) Create(merchantID uint, input ChallengeInput, actorID uint) (*models.Challenge, error) {
	if input.Points <= 0 {
		return nil, ErrInvalidPoints
	}
	encoded, err := points.EncodeTarget(input.Target)
	if err != nil {
		return nil, err
	}
	challenge := &models.Challenge{
		MerchantID:     merchantID,
		Name:           input.Name,
		Description:    input.Description,
		Type:           input.Target.Type,
		TargetValue:    encoded,
		Points:         input.Points,
		IsActive:       input.IsActive,
		IsRepeatable:   input.IsRepeatable,
		MaxCompletions: input.MaxCompletions,
		StartsAt:       input.StartsAt,
		EndsAt:         input.EndsAt,
	}
	if err := s.challengeRepo.Create(challenge); err != nil {
		return nil, err
	}
	writeAuditBestEffort(s.auditRepo, &models.AuditLog{
		MerchantID: merchantID,
		ActorID:    actorID,
		Action:     constants.AuditActionChallengeSave,
		EntityType: constants.AuditEntityChallenge,
		EntityID:   challenge.ID,
		Detail:     models.JSON{"name": challenge.Name, "type": challenge.Type, "created": true},
	})
	return challenge, nil
}

// Update 更新挑战
func (s *ChallengeService) Update(merchantID, id uint, input ChallengeInput, actorID uint) (*models.Challenge, error) {
	challenge, err := s.getOwned(merchantID, id)
	if err != nil {
		return nil, err
	}
	if input.Points <= 0 {
		return nil, ErrInvalidPoints
	}
	encoded, err := points.EncodeTarget(input.Target)
	if err != nil {
		return nil, err
	}
	challenge.Name = input.Name
	challenge.Description = input.Description
	challenge.Type = input.Target.Type
	challenge.TargetValue = encoded
	challenge.Points = input.Points
	challenge.IsActive = input.IsActive
	challenge.IsRepeatable = input.IsRepeatable
	challenge.MaxCompletions = input.MaxCompletions
	challenge.StartsAt = input.StartsAt
	challenge.EndsAt = input.EndsAt
	if err := s.challengeRepo.Update(challenge); err != nil {
		return nil, err
	}
	writeAuditBestEffort(s.auditRepo, &models.AuditLog{
		MerchantID: merchantID,
		ActorID:    actorID,
		Action:     constants.AuditActionChallengeSave,
		EntityType: constants.AuditEntityChallenge,
		EntityID:   challenge.ID,
		Detail:     models.JSON{"name": challenge.Name, "type": challenge.Type, "created": false},
	})
	return challenge, nil
}

// Delete 删除挑战
func (s *ChallengeService) Delete(merchantID, id uint, actorID uint) error {
	challenge, err := s.getOwned(merchantID, id)
	if err != nil {
		return err
	}
	if err := s.challengeRepo.Delete(challenge.ID); err != nil {
		return err
	}
	writeAuditBestEffort(s.auditRepo, &models.AuditLog{
		MerchantID: merchantID,
		ActorID:    actorID,
		Action:     constants.AuditActionChallengeSave,
		EntityType: constants.AuditEntityChallenge,
		EntityID:   challenge.ID,
		Detail:     models.JSON{"name": challenge.Name, "deleted": true},
	})
	return nil
}

// Get 获取商户名下的挑战，附带解码后的目标
func (s *ChallengeService) Get(merchantID, id uint) (*models.Challenge, *points.Target, error) {
	challenge, err := s.getOwned(merchantID, id)
	if err != nil {
		return nil, nil, err
	}
	target, err := points.DecodeTarget(challenge.Type, challenge.TargetValue)
	if err != nil {
		return challenge, nil, err
	}
	return challenge, &target, nil
}

// List 分页查询挑战
func (s *ChallengeService) List(filter repository.ChallengeListFilter) ([]models.Challenge, int64, error) {
	return s.challengeRepo.List(filter)
}

func (s *ChallengeService) getOwned(merchantID, id uint) (*models.Challenge, error) {
	challenge, err := s.challengeRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if challenge == nil || challenge.MerchantID != merchantID {
		return nil, ErrChallengeNotFound
	}
	return challenge, nil
}
