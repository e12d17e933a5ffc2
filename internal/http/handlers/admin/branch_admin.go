package admin

import (
	"errors"
	"strconv"
	"strings"

	"github.com/meit-next/internal/http/response"
	"github.com/meit-next/internal/repository"
	"github.com/meit-next/internal/service"

	"github.com/gin-gonic/gin"
)

// BranchRequest 创建/更新门店请求
type BranchRequest struct {
	Name     string `json:"name" binding:"required"`
	Address  string `json:"address"`
	Phone    string `json:"phone"`
	IsActive *bool  `json:"is_active"`
}

func (r *BranchRequest) toServiceInput() service.BranchInput {
	input := service.BranchInput{
		Name:     strings.TrimSpace(r.Name),
		Address:  strings.TrimSpace(r.Address),
		Phone:    strings.TrimSpace(r.Phone),
		IsActive: true,
	}
	if r.IsActive != nil {
		input.IsActive = *r.IsActive
	}
	return input
}

// CreateBranch 创建门店
func (h *Handler) CreateBranch(c *gin.Context) {
	staffID, ok := getStaffID(c)
	if !ok {
		return
	}
	merchantID, ok := resolveMerchantScope(c)
	if !ok {
		return
	}

	var req BranchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	branch, err := h.BranchService.Create(merchantID, req.toServiceInput(), staffID)
	if err != nil {
		respondError(c, response.CodeInternal, "error.save_failed", err)
		return
	}
	response.Success(c, branch)
}

// UpdateBranch 更新门店
func (h *Handler) UpdateBranch(c *gin.Context) {
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

	var req BranchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	branch, err := h.BranchService.Update(merchantID, id, req.toServiceInput(), staffID)
	if err != nil {
		if errors.Is(err, service.ErrBranchNotFound) {
			respondError(c, response.CodeNotFound, "error.branch_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.save_failed", err)
		return
	}
	response.Success(c, branch)
}

// DeleteBranch 删除门店（软删除）
func (h *Handler) DeleteBranch(c *gin.Context) {
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

	if err := h.BranchService.Delete(merchantID, id, staffID); err != nil {
		if errors.Is(err, service.ErrBranchNotFound) {
			respondError(c, response.CodeNotFound, "error.branch_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.save_failed", err)
		return
	}
	response.Success(c, nil)
}

// GetBranch 门店详情
func (h *Handler) GetBranch(c *gin.Context) {
	merchantID, ok := resolveMerchantScope(c)
	if !ok {
		return
	}
	id, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	branch, err := h.BranchService.Get(merchantID, id)
	if err != nil {
		if errors.Is(err, service.ErrBranchNotFound) {
			respondError(c, response.CodeNotFound, "error.branch_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.fetch_failed", err)
		return
	}
	response.Success(c, branch)
}

// GetBranches 门店列表
func (h *Handler) GetBranches(c *gin.Context) {
	merchantID, ok := resolveMerchantScope(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	onlyActive, _ := strconv.ParseBool(c.DefaultQuery("only_active", "false"))

	branches, total, err := h.BranchService.List(repository.BranchListFilter{
		Page:       page,
		PageSize:   pageSize,
		MerchantID: merchantID,
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
	response.SuccessWithPage(c, branches, pagination)
}
