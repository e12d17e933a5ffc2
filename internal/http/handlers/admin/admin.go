package admin

import (
	"errors"
	"strconv"

	"github.com/meit-next/internal/http/response"
	"github.com/meit-next/internal/repository"
	"github.com/meit-next/internal/service"

	"github.com/gin-gonic/gin"
)

// LoginRequest 登录请求
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse 登录响应
type LoginResponse struct {
	Token     string                 `json:"token"`
	Staff     map[string]interface{} `json:"staff"`
	ExpiresAt string                 `json:"expires_at"`
}

// StaffLogin 员工登录
func (h *Handler) StaffLogin(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	staff, token, expiresAt, err := h.AuthService.Login(req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			respondError(c, response.CodeUnauthorized, "error.login_invalid", nil)
		case errors.Is(err, service.ErrStaffDisabled):
			respondError(c, response.CodeForbidden, "error.staff_disabled", nil)
		default:
			respondError(c, response.CodeInternal, "error.login_failed", err)
		}
		return
	}
	response.Success(c, LoginResponse{
		Token: token,
		Staff: map[string]interface{}{
			"id":           staff.ID,
			"username":     staff.Username,
			"display_name": staff.DisplayName,
			"merchant_id":  staff.MerchantID,
			"role":         staff.Role,
		},
		ExpiresAt: expiresAt.Format("2006-01-02T15:04:05Z07:00"),
	})
}

// GetCurrentStaff 获取当前登录员工信息
func (h *Handler) GetCurrentStaff(c *gin.Context) {
	id, ok := getStaffID(c)
	if !ok {
		return
	}
	staff, err := h.AuthService.GetStaff(id)
	if err != nil {
		if errors.Is(err, service.ErrStaffNotFound) {
			respondError(c, response.CodeNotFound, "error.staff_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.fetch_failed", err)
		return
	}
	response.Success(c, staff)
}

// UpdatePasswordRequest 修改密码请求
type UpdatePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

// UpdateStaffPassword 修改当前员工密码
func (h *Handler) UpdateStaffPassword(c *gin.Context) {
	id, ok := getStaffID(c)
	if !ok {
		return
	}

	var req UpdatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	if err := h.AuthService.ChangePassword(id, req.OldPassword, req.NewPassword); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			respondError(c, response.CodeBadRequest, "error.password_old_invalid", nil)
		case errors.Is(err, service.ErrStaffNotFound):
			respondError(c, response.CodeNotFound, "error.staff_not_found", nil)
		default:
			respondError(c, response.CodeInternal, "error.save_failed", err)
		}
		return
	}

	response.Success(c, nil)
}

// CreateStaffRequest 创建员工请求
type CreateStaffRequest struct {
	Username    string `json:"username" binding:"required"`
	Password    string `json:"password" binding:"required"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role" binding:"required"`
	MerchantID  uint   `json:"merchant_id"`
}

// CreateStaff 创建员工（平台管理员）
func (h *Handler) CreateStaff(c *gin.Context) {
	var req CreateStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	staff, err := h.AuthService.CreateStaff(req.Username, req.Password, req.DisplayName, req.Role, req.MerchantID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrStaffExists):
			respondError(c, response.CodeConflict, "error.staff_exists", nil)
		default:
			respondError(c, response.CodeInternal, "error.save_failed", err)
		}
		return
	}
	response.Success(c, staff)
}

// GetStaffList 员工列表（平台管理员）
func (h *Handler) GetStaffList(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	var merchantID uint
	if raw := c.Query("merchant_id"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			respondError(c, response.CodeBadRequest, "error.bad_request", err)
			return
		}
		merchantID = uint(parsed)
	}

	staffs, total, err := h.AuthService.ListStaff(repository.StaffListFilter{
		Page:       page,
		PageSize:   pageSize,
		MerchantID: merchantID,
		Role:       c.Query("role"),
		Search:     c.Query("search"),
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
	response.SuccessWithPage(c, staffs, pagination)
}
