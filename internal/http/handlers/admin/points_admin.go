package admin

import (
	"strconv"
	"strings"

	"github.com/meit-next/internal/http/response"
	"github.com/meit-next/internal/models"
	"github.com/meit-next/internal/repository"
	"github.com/meit-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// AssignPointsRequest 积分入账请求
type AssignPointsRequest struct {
	CustomerID   uint   `json:"customer_id" binding:"required"`
	BranchID     *uint  `json:"branch_id"`
	Amount       string `json:"amount" binding:"required"`
	CategoryCode *int64 `json:"category_code"`
	RequestRef   string `json:"request_ref"`
	Description  string `json:"description"`
}

// AssignPoints 按消费金额入账积分
func (h *Handler) AssignPoints(c *gin.Context) {
	staffID, ok := getStaffID(c)
	if !ok {
		return
	}
	merchantID, ok := resolveMerchantScope(c)
	if !ok {
		return
	}

	var req AssignPointsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(req.Amount))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.amount_invalid", err)
		return
	}

	result, err := h.PointsService.AssignPoints(service.AssignPointsInput{
		CustomerID:   req.CustomerID,
		MerchantID:   merchantID,
		BranchID:     req.BranchID,
		Amount:       models.NewMoneyFromDecimal(amount),
		CategoryCode: req.CategoryCode,
		RequestRef:   req.RequestRef,
		RecordVisit:  true,
		Description:  req.Description,
		ActorID:      staffID,
	})
	if err != nil {
		respondAssignPointsError(c, err)
		return
	}
	response.Success(c, result)
}

// AdjustPointsRequest 手工积分调整请求
type AdjustPointsRequest struct {
	CustomerID uint   `json:"customer_id" binding:"required"`
	Points     int64  `json:"points" binding:"required"`
	Reason     string `json:"reason" binding:"required"`
}

// AdjustPoints 手工调整顾客积分
func (h *Handler) AdjustPoints(c *gin.Context) {
	staffID, ok := getStaffID(c)
	if !ok {
		return
	}
	merchantID, ok := resolveMerchantScope(c)
	if !ok {
		return
	}

	var req AdjustPointsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	result, err := h.PointsService.AdjustPoints(service.AdjustPointsInput{
		CustomerID: req.CustomerID,
		MerchantID: merchantID,
		Points:     req.Points,
		Reason:     req.Reason,
		ActorID:    staffID,
	})
	if err != nil {
		respondAdjustPointsError(c, err)
		return
	}
	response.Success(c, result)
}

// GetPointTransactions 积分流水列表
func (h *Handler) GetPointTransactions(c *gin.Context) {
	merchantID, ok := resolveMerchantScope(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	var customerID uint
	if raw := strings.TrimSpace(c.Query("customer_id")); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			respondError(c, response.CodeBadRequest, "error.bad_request", err)
			return
		}
		customerID = uint(parsed)
	}
	createdFrom, err := parseTimeNullable(strings.TrimSpace(c.Query("created_from")))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	createdTo, err := parseTimeNullable(strings.TrimSpace(c.Query("created_to")))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	txns, total, err := h.PointsService.ListTransactions(repository.PointTransactionListFilter{
		Page:          page,
		PageSize:      pageSize,
		CustomerID:    customerID,
		MerchantID:    merchantID,
		Type:          strings.TrimSpace(c.Query("type")),
		ReferenceType: strings.TrimSpace(c.Query("reference_type")),
		CreatedFrom:   createdFrom,
		CreatedTo:     createdTo,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.transaction_fetch_failed", err)
		return
	}

	pagination := response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}
	response.SuccessWithPage(c, txns, pagination)
}

// ReconcileBalance 校验顾客余额与流水签名和的一致性
func (h *Handler) ReconcileBalance(c *gin.Context) {
	merchantID, ok := resolveMerchantScope(c)
	if !ok {
		return
	}
	customerID, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	_, link, err := h.CustomerService.GetWithBalance(customerID, merchantID)
	if err != nil {
		respondWithMappedError(c, err, loyaltyScopeErrorRules, response.CodeInternal, "error.fetch_failed")
		return
	}
	ledgerSum, err := h.PointsService.ReconstructBalance(customerID, merchantID)
	if err != nil {
		respondError(c, response.CodeInternal, "error.transaction_fetch_failed", err)
		return
	}

	var stored int64
	if link != nil {
		stored = link.PointsBalance
	}
	response.Success(c, gin.H{
		"customer_id":    customerID,
		"merchant_id":    merchantID,
		"stored_balance": stored,
		"ledger_balance": ledgerSum,
		"consistent":     stored == ledgerSum,
	})
}
