package admin

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/meit-next/internal/http/response"
	"github.com/meit-next/internal/repository"

	"github.com/gin-gonic/gin"
)

// ValidateGiftCard 查询卡码当前可否核销（只读）
func (h *Handler) ValidateGiftCard(c *gin.Context) {
	merchantID, ok := resolveMerchantScope(c)
	if !ok {
		return
	}
	code := strings.TrimSpace(c.Param("code"))
	if code == "" {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	card, err := h.GiftCardService.Validate(merchantID, code)
	if err != nil {
		respondGiftCardError(c, err, "error.gift_card_fetch_failed")
		return
	}
	response.Success(c, card)
}

// RedeemGiftCardRequest 核销礼品卡请求
type RedeemGiftCardRequest struct {
	Code string `json:"code" binding:"required"`
}

// RedeemGiftCard 核销礼品卡
func (h *Handler) RedeemGiftCard(c *gin.Context) {
	staffID, ok := getStaffID(c)
	if !ok {
		return
	}
	merchantID, ok := resolveMerchantScope(c)
	if !ok {
		return
	}

	var req RedeemGiftCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	card, err := h.GiftCardService.Redeem(merchantID, req.Code, staffID)
	if err != nil {
		respondGiftCardError(c, err, "error.gift_card_redeem_failed")
		return
	}
	response.Success(c, card)
}

// CancelGiftCard 作废礼品卡并退还积分
func (h *Handler) CancelGiftCard(c *gin.Context) {
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

	card, err := h.GiftCardService.Cancel(merchantID, id, staffID)
	if err != nil {
		respondGiftCardError(c, err, "error.gift_card_cancel_failed")
		return
	}
	response.Success(c, card)
}

// GetGiftCard 礼品卡详情
func (h *Handler) GetGiftCard(c *gin.Context) {
	merchantID, ok := resolveMerchantScope(c)
	if !ok {
		return
	}
	id, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	card, err := h.GiftCardService.GetByID(merchantID, id)
	if err != nil {
		respondGiftCardError(c, err, "error.gift_card_fetch_failed")
		return
	}
	response.Success(c, card)
}

// GetGiftCards 礼品卡列表
func (h *Handler) GetGiftCards(c *gin.Context) {
	merchantID, ok := resolveMerchantScope(c)
	if !ok {
		return
	}
	filter, ok := h.buildGiftCardListFilter(c, merchantID)
	if !ok {
		return
	}

	cards, total, err := h.GiftCardService.List(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "error.gift_card_fetch_failed", err)
		return
	}

	pagination := response.Pagination{
		Page:      filter.Page,
		PageSize:  filter.PageSize,
		Total:     total,
		TotalPage: (total + int64(filter.PageSize) - 1) / int64(filter.PageSize),
	}
	response.SuccessWithPage(c, cards, pagination)
}

// ExportGiftCards 导出礼品卡 CSV
func (h *Handler) ExportGiftCards(c *gin.Context) {
	merchantID, ok := resolveMerchantScope(c)
	if !ok {
		return
	}
	filter, ok := h.buildGiftCardListFilter(c, merchantID)
	if !ok {
		return
	}
	// 导出不分页
	filter.Page = 0
	filter.PageSize = 0

	content, err := h.GiftCardService.ExportCSV(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "error.gift_card_export_failed", err)
		return
	}
	filename := fmt.Sprintf("gift_cards_%s.csv", time.Now().Format("20060102_150405"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	c.Data(http.StatusOK, "text/csv", content)
}

func (h *Handler) buildGiftCardListFilter(c *gin.Context, merchantID uint) (repository.GiftCardListFilter, bool) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	var customerID uint
	if raw := strings.TrimSpace(c.Query("customer_id")); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			respondError(c, response.CodeBadRequest, "error.bad_request", err)
			return repository.GiftCardListFilter{}, false
		}
		customerID = uint(parsed)
	}
	createdFrom, err := parseTimeNullable(strings.TrimSpace(c.Query("created_from")))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return repository.GiftCardListFilter{}, false
	}
	createdTo, err := parseTimeNullable(strings.TrimSpace(c.Query("created_to")))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return repository.GiftCardListFilter{}, false
	}

	return repository.GiftCardListFilter{
		Page:        page,
		PageSize:    pageSize,
		MerchantID:  merchantID,
		CustomerID:  customerID,
		Status:      strings.TrimSpace(strings.ToLower(c.Query("status"))),
		Code:        strings.TrimSpace(c.Query("code")),
		CreatedFrom: createdFrom,
		CreatedTo:   createdTo,
	}, true
}
