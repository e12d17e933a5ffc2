package admin

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/meit-next/internal/http/response"
	"github.com/meit-next/internal/models"
	"github.com/meit-next/internal/repository"
	"github.com/meit-next/internal/service"

	"github.com/gin-gonic/gin"
)

// RegisterCustomerRequest 注册顾客请求
type RegisterCustomerRequest struct {
	Phone          string `json:"phone" binding:"required"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	MarketingOptIn bool   `json:"marketing_opt_in"`
}

// UpdateCustomerRequest 更新顾客请求，手机号注册后不可变更
type UpdateCustomerRequest struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	MarketingOptIn bool   `json:"marketing_opt_in"`
}

// RegisterCustomer 注册顾客
func (h *Handler) RegisterCustomer(c *gin.Context) {
	staffID, ok := getStaffID(c)
	if !ok {
		return
	}
	merchantID, ok := resolveMerchantScope(c)
	if !ok {
		return
	}

	var req RegisterCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	customer, err := h.CustomerService.Register(service.CustomerInput{
		Phone:          req.Phone,
		Name:           req.Name,
		Email:          req.Email,
		MarketingOptIn: req.MarketingOptIn,
	}, merchantID, staffID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidPhone):
			respondError(c, response.CodeBadRequest, "error.phone_invalid", nil)
		case errors.Is(err, service.ErrCustomerExists):
			respondError(c, response.CodeConflict, "error.customer_exists", nil)
		default:
			respondError(c, response.CodeInternal, "error.save_failed", err)
		}
		return
	}
	response.Success(c, customer)
}

// UpdateCustomer 更新顾客资料
func (h *Handler) UpdateCustomer(c *gin.Context) {
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

	var req UpdateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	customer, err := h.CustomerService.Update(id, service.CustomerInput{
		Name:           req.Name,
		Email:          req.Email,
		MarketingOptIn: req.MarketingOptIn,
	}, merchantID, staffID)
	if err != nil {
		if errors.Is(err, service.ErrCustomerNotFound) {
			respondError(c, response.CodeNotFound, "error.customer_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.save_failed", err)
		return
	}
	response.Success(c, customer)
}

type customerDetail struct {
	*models.Customer
	PointsBalance int64      `json:"points_balance"`
	VisitsCount   int        `json:"visits_count"`
	LastVisitAt   *time.Time `json:"last_visit_at,omitempty"`
}

// GetCustomer 顾客详情，附带在当前商户的积分余额
func (h *Handler) GetCustomer(c *gin.Context) {
	merchantID, ok := resolveMerchantScope(c)
	if !ok {
		return
	}
	id, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	customer, link, err := h.CustomerService.GetWithBalance(id, merchantID)
	if err != nil {
		if errors.Is(err, service.ErrCustomerNotFound) {
			respondError(c, response.CodeNotFound, "error.customer_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.fetch_failed", err)
		return
	}

	detail := customerDetail{Customer: customer}
	if link != nil {
		detail.PointsBalance = link.PointsBalance
		detail.VisitsCount = link.VisitsCount
		detail.LastVisitAt = link.LastVisitAt
	}
	response.Success(c, detail)
}

// GetCustomers 顾客列表
func (h *Handler) GetCustomers(c *gin.Context) {
	merchantID, ok := resolveMerchantScope(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	customers, total, err := h.CustomerService.List(repository.CustomerListFilter{
		Page:       page,
		PageSize:   pageSize,
		MerchantID: merchantID,
		Phone:      strings.TrimSpace(c.Query("phone")),
		Search:     strings.TrimSpace(c.Query("search")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.fetch_failed", err)
		return
	}

	ids := make([]uint, 0, len(customers))
	for _, customer := range customers {
		ids = append(ids, customer.ID)
	}
	balances, err := h.CustomerService.Balances(ids, merchantID)
	if err != nil {
		respondError(c, response.CodeInternal, "error.fetch_failed", err)
		return
	}

	items := make([]customerDetail, 0, len(customers))
	for i := range customers {
		items = append(items, customerDetail{
			Customer:      &customers[i],
			PointsBalance: balances[customers[i].ID],
		})
	}

	pagination := response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}
	response.SuccessWithPage(c, items, pagination)
}
