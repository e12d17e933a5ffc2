package admin

import (
	"errors"
	"strconv"
	"strings"

	"github.com/meit-next/internal/http/response"
	"github.com/meit-next/internal/models"
	"github.com/meit-next/internal/repository"
	"github.com/meit-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// MerchantRequest 创建/更新商户请求（平台管理员）
type MerchantRequest struct {
	Name     string `json:"name" binding:"required"`
	Currency string `json:"currency"`
	IsActive *bool  `json:"is_active"`
}

func (r *MerchantRequest) toServiceInput() service.MerchantInput {
	input := service.MerchantInput{
		Name:     strings.TrimSpace(r.Name),
		Currency: strings.ToUpper(strings.TrimSpace(r.Currency)),
		IsActive: true,
	}
	if r.IsActive != nil {
		input.IsActive = *r.IsActive
	}
	return input
}

// CreateMerchant 创建商户
func (h *Handler) CreateMerchant(c *gin.Context) {
	staffID, ok := getStaffID(c)
	if !ok {
		return
	}
	var req MerchantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	merchant, err := h.MerchantService.Create(req.toServiceInput(), staffID)
	if err != nil {
		respondError(c, response.CodeInternal, "error.save_failed", err)
		return
	}
	response.Success(c, merchant)
}

// UpdateMerchant 更新商户基础信息
func (h *Handler) UpdateMerchant(c *gin.Context) {
	staffID, ok := getStaffID(c)
	if !ok {
		return
	}
	id, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	var req MerchantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	merchant, err := h.MerchantService.Update(id, req.toServiceInput(), staffID)
	if err != nil {
		if errors.Is(err, service.ErrMerchantNotFound) {
			respondError(c, response.CodeNotFound, "error.merchant_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.save_failed", err)
		return
	}
	response.Success(c, merchant)
}

// GetMerchant 商户详情
func (h *Handler) GetMerchant(c *gin.Context) {
	id, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	merchant, err := h.MerchantService.Get(id)
	if err != nil {
		if errors.Is(err, service.ErrMerchantNotFound) {
			respondError(c, response.CodeNotFound, "error.merchant_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.fetch_failed", err)
		return
	}
	response.Success(c, merchant)
}

// GetMerchants 商户列表
func (h *Handler) GetMerchants(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)
	onlyActive, _ := strconv.ParseBool(c.DefaultQuery("only_active", "false"))

	merchants, total, err := h.MerchantService.List(repository.MerchantListFilter{
		Page:       page,
		PageSize:   pageSize,
		Search:     strings.TrimSpace(c.Query("search")),
		OnlyActive: onlyActive,
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
	response.SuccessWithPage(c, merchants, pagination)
}

// GetLoyaltyConfig 获取当前商户的积分与礼品卡配置
func (h *Handler) GetLoyaltyConfig(c *gin.Context) {
	merchantID, ok := resolveMerchantScope(c)
	if !ok {
		return
	}
	merchant, err := h.MerchantService.Get(merchantID)
	if err != nil {
		if errors.Is(err, service.ErrMerchantNotFound) {
			respondError(c, response.CodeNotFound, "error.merchant_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.fetch_failed", err)
		return
	}
	response.Success(c, gin.H{
		"points_per_unit":       merchant.PointsPerUnit,
		"gift_card_threshold":   merchant.GiftCardThreshold,
		"gift_card_value":       merchant.GiftCardValue,
		"gift_card_expiry_days": merchant.GiftCardExpiryDays,
		"currency":              merchant.Currency,
	})
}

// LoyaltyConfigRequest 更新积分与礼品卡配置请求
type LoyaltyConfigRequest struct {
	PointsPerUnit      string `json:"points_per_unit" binding:"required"`
	GiftCardThreshold  int64  `json:"gift_card_threshold"`
	GiftCardValue      string `json:"gift_card_value"`
	GiftCardExpiryDays int    `json:"gift_card_expiry_days"`
}

// UpdateLoyaltyConfig 更新积分与礼品卡配置
func (h *Handler) UpdateLoyaltyConfig(c *gin.Context) {
	staffID, ok := getStaffID(c)
	if !ok {
		return
	}
	merchantID, ok := resolveMerchantScope(c)
	if !ok {
		return
	}

	var req LoyaltyConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	pointsPerUnit, err := decimal.NewFromString(strings.TrimSpace(req.PointsPerUnit))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	giftCardValue := decimal.Zero
	if raw := strings.TrimSpace(req.GiftCardValue); raw != "" {
		giftCardValue, err = decimal.NewFromString(raw)
		if err != nil {
			respondError(c, response.CodeBadRequest, "error.bad_request", err)
			return
		}
	}

	merchant, err := h.MerchantService.UpdateLoyaltyConfig(merchantID, service.LoyaltyConfigInput{
		PointsPerUnit:      models.NewMoneyFromDecimal(pointsPerUnit),
		GiftCardThreshold:  req.GiftCardThreshold,
		GiftCardValue:      models.NewMoneyFromDecimal(giftCardValue),
		GiftCardExpiryDays: req.GiftCardExpiryDays,
	}, staffID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMerchantNotFound):
			respondError(c, response.CodeNotFound, "error.merchant_not_found", nil)
		case errors.Is(err, service.ErrMerchantConfigMissing):
			respondError(c, response.CodeBadRequest, "error.merchant_config_missing", nil)
		default:
			respondError(c, response.CodeInternal, "error.save_failed", err)
		}
		return
	}
	response.Success(c, merchant)
}
