package admin

import (
	"errors"
	"strconv"
	"strings"

	"github.com/meit-next/internal/http/response"
	"github.com/meit-next/internal/models"
	"github.com/meit-next/internal/points"
	"github.com/meit-next/internal/repository"
	"github.com/meit-next/internal/service"

	"github.com/gin-gonic/gin"
)

// ChallengeRequest 创建/更新挑战请求
type ChallengeRequest struct {
	Name           string        `json:"name" binding:"required"`
	Description    string        `json:"description"`
	Target         points.Target `json:"target" binding:"required"`
	Points         int64         `json:"points" binding:"required"`
	IsActive       *bool         `json:"is_active"`
	IsRepeatable   bool          `json:"is_repeatable"`
	MaxCompletions int           `json:"max_completions"`
	StartsAt       *string       `json:"starts_at"`
	EndsAt         *string       `json:"ends_at"`
}

func (r *ChallengeRequest) toServiceInput() (service.ChallengeInput, error) {
	input := service.ChallengeInput{
		Name:           strings.TrimSpace(r.Name),
		Description:    strings.TrimSpace(r.Description),
		Target:         r.Target,
		Points:         r.Points,
		IsActive:       true,
		IsRepeatable:   r.IsRepeatable,
		MaxCompletions: r.MaxCompletions,
	}
	if r.IsActive != nil {
		input.IsActive = *r.IsActive
	}
	if r.StartsAt != nil {
		parsed, err := parseTimeNullable(strings.TrimSpace(*r.StartsAt))
		if err != nil {
			return input, err
		}
		input.StartsAt = parsed
	}
	if r.EndsAt != nil {
		parsed, err := parseTimeNullable(strings.TrimSpace(*r.EndsAt))
		if err != nil {
			return input, err
		}
		input.EndsAt = parsed
	}
	return input, nil
}

func respondChallengeSaveError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, points.ErrInvalidTarget):
		respondError(c, response.CodeBadRequest, "error.challenge_invalid", nil)
	case errors.Is(err, service.ErrInvalidPoints):
		respondError(c, response.CodeBadRequest, "error.points_invalid", nil)
	case errors.Is(err, service.ErrChallengeNotFound):
		respondError(c, response.CodeNotFound, "error.challenge_not_found", nil)
	default:
		respondError(c, response.CodeInternal, "error.challenge_save_failed", err)
	}
}

// CreateChallenge 创建挑战
func (h *Handler) CreateChallenge(c *gin.Context) {
	staffID, ok := getStaffID(c)
	if !ok {
		return
	}
	merchantID, ok := resolveMerchantScope(c)
	if !ok {
		return
	}

	var req ChallengeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	input, err := req.toServiceInput()
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	challenge, err := h.ChallengeService.Create(merchantID, input, staffID)
	if err != nil {
		respondChallengeSaveError(c, err)
		return
	}
	response.Success(c, challenge)
}

// UpdateChallenge 更新挑战
func (h *Handler) UpdateChallenge(c *gin.Context) {
	staffID, ok := getStaffID(c)
	if !ok {
		return
	}
	merchantID, ok := resolveMerchantScope(c)
	if !ok {
		return
	}
	id, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	var req ChallengeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	input, err := req.toServiceInput()
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	challenge, err := h.ChallengeService.Update(merchantID, id, input, staffID)
	if err != nil {
		respondChallengeSaveError(c, err)
		return
	}
	response.Success(c, challenge)
}

// DeleteChallenge 删除挑战（软删除）
func (h *Handler) DeleteChallenge(c *gin.Context) {
	staffID, ok := getStaffID(c)
	if !ok {
		return
	}
	merchantID, ok := resolveMerchantScope(c)
	if !ok {
		return
	}
	id, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	if err := h.ChallengeService.Delete(merchantID, id, staffID); err != nil {
		if errors.Is(err, service.ErrChallengeNotFound) {
			respondError(c, response.CodeNotFound, "error.challenge_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.challenge_save_failed", err)
		return
	}
	response.Success(c, nil)
}

type challengeDetail struct {
	*models.Challenge
	Target *points.Target `json:"target,omitempty"`
}

// GetChallenge 挑战详情（附带解码后的目标）
func (h *Handler) GetChallenge(c *gin.Context) {
	merchantID, ok := resolveMerchantScope(c)
	if !ok {
		return
	}
	id, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	challenge, target, err := h.ChallengeService.Get(merchantID, id)
	if err != nil {
		if errors.Is(err, service.ErrChallengeNotFound) {
			respondError(c, response.CodeNotFound, "error.challenge_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.fetch_failed", err)
		return
	}
	response.Success(c, challengeDetail{Challenge: challenge, Target: target})
}

// GetChallenges 挑战列表
func (h *Handler) GetChallenges(c *gin.Context) {
	merchantID, ok := resolveMerchantScope(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	var isActive *bool
	if raw := strings.TrimSpace(c.Query("is_active")); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			respondError(c, response.CodeBadRequest, "error.bad_request", err)
			return
		}
		isActive = &parsed
	}

	challenges, total, err := h.ChallengeService.List(repository.ChallengeListFilter{
		Page:       page,
		PageSize:   pageSize,
		MerchantID: merchantID,
		Type:       strings.TrimSpace(c.Query("type")),
		IsActive:   isActive,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.fetch_failed", err)
		return
	}

	pagination := response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}
	response.SuccessWithPage(c, challenges, pagination)
}
