// Package checkin 承接 WhatsApp 通道服务的打卡回调。
package checkin

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/meit-next/internal/cache"
	handlershared "github.com/meit-next/internal/http/handlers/shared"
	"github.com/meit-next/internal/http/response"
	"github.com/meit-next/internal/models"
	"github.com/meit-next/internal/provider"
	"github.com/meit-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// Handler 打卡回调处理器
type Handler struct {
	*provider.Container
}

// New 创建打卡回调处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}

// CheckInRequest 打卡回调请求
type CheckInRequest struct {
	Phone        string `json:"phone" binding:"required"`
	MerchantID   uint   `json:"merchant_id" binding:"required"`
	BranchID     *uint  `json:"branch_id"`
	Amount       string `json:"amount"` // 可空，为空表示纯到店打卡
	CategoryCode *int64 `json:"category_code"`
	RequestRef   string `json:"request_ref"`
}

// CheckIn 处理打卡回调
// 通道服务必须携带共享令牌；按手机号限流防刷。
func (h *Handler) CheckIn(c *gin.Context) {
	if !h.verifyToken(c) {
		handlershared.RespondError(c, response.CodeUnauthorized, "error.unauthorized", nil)
		return
	}

	var req CheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlershared.RespondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	phone := strings.TrimSpace(req.Phone)
	limit := h.Config.Security.CheckinRateLimit
	if limit.MaxAttempts > 0 {
		key := fmt.Sprintf("checkin:%d:%s", req.MerchantID, phone)
		window := time.Duration(limit.WindowSeconds) * time.Second
		allowed, err := cache.FixedWindowAllow(c.Request.Context(), key, limit.MaxAttempts, window)
		if err != nil {
			handlershared.RequestLog(c).Warnw("checkin_rate_limit_check_failed", "error", err)
		}
		if !allowed {
			handlershared.RespondError(c, response.CodeTooManyRequests, "error.rate_limited", nil)
			return
		}
	}

	var amount *models.Money
	if raw := strings.TrimSpace(req.Amount); raw != "" {
		parsed, err := decimal.NewFromString(raw)
		if err != nil {
			handlershared.RespondError(c, response.CodeBadRequest, "error.amount_invalid", err)
			return
		}
		money := models.NewMoneyFromDecimal(parsed)
		amount = &money
	}

	result, err := h.PointsService.CheckIn(service.CheckInInput{
		Phone:        phone,
		MerchantID:   req.MerchantID,
		BranchID:     req.BranchID,
		Amount:       amount,
		CategoryCode: req.CategoryCode,
		RequestRef:   req.RequestRef,
	})
	if err != nil {
		respondCheckInError(c, err)
		return
	}
	response.Success(c, result)
}

func (h *Handler) verifyToken(c *gin.Context) bool {
	expected := strings.TrimSpace(h.Config.Checkin.WebhookToken)
	if expected == "" {
		// 未配置令牌时拒绝所有回调
		return false
	}
	got := strings.TrimSpace(c.GetHeader("X-Webhook-Token"))
	return subtle.ConstantTimeCompare([]byte(expected), []byte(got)) == 1
}

func respondCheckInError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidPhone):
		handlershared.RespondError(c, response.CodeBadRequest, "error.phone_invalid", nil)
	case errors.Is(err, service.ErrInvalidAmount):
		handlershared.RespondError(c, response.CodeBadRequest, "error.amount_invalid", nil)
	case errors.Is(err, service.ErrMerchantNotFound):
		handlershared.RespondError(c, response.CodeNotFound, "error.merchant_not_found", nil)
	case errors.Is(err, service.ErrMerchantDisabled):
		handlershared.RespondError(c, response.CodeForbidden, "error.merchant_disabled", nil)
	case errors.Is(err, service.ErrMerchantConfigMissing):
		handlershared.RespondError(c, response.CodeBadRequest, "error.merchant_config_missing", nil)
	case errors.Is(err, service.ErrBranchNotFound):
		handlershared.RespondError(c, response.CodeNotFound, "error.branch_not_found", nil)
	case errors.Is(err, service.ErrDuplicateReference):
		handlershared.RespondError(c, response.CodeConflict, "error.duplicate_reference", nil)
	case errors.Is(err, service.ErrTransactionFailed):
		handlershared.RespondError(c, response.CodeInternal, "error.transaction_failed", err)
	default:
		handlershared.RespondError(c, response.CodeInternal, "error.checkin_failed", err)
	}
}
