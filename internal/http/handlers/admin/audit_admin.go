package admin

import (
	"strconv"
	"strings"

	"github.com/meit-next/internal/http/response"
	"github.com/meit-next/internal/repository"

	"github.com/gin-gonic/gin"
)

// GetAuditLogs 审计日志列表
func (h *Handler) GetAuditLogs(c *gin.Context) {
	merchantID, ok := resolveMerchantScope(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	var actorID uint
	if raw := strings.TrimSpace(c.Query("actor_id")); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			respondError(c, response.CodeBadRequest, "error.bad_request", err)
			return
		}
		actorID = uint(parsed)
	}
	var entityID uint
	if raw := strings.TrimSpace(c.Query("entity_id")); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			respondError(c, response.CodeBadRequest, "error.bad_request", err)
			return
		}
		entityID = uint(parsed)
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

	logs, total, err := h.AuditService.List(repository.AuditLogListFilter{
		Page:        page,
		PageSize:    pageSize,
		MerchantID:  merchantID,
		ActorID:     actorID,
		Action:      strings.TrimSpace(c.Query("action")),
		EntityType:  strings.TrimSpace(c.Query("entity_type")),
		EntityID:    entityID,
		CreatedFrom: createdFrom,
		CreatedTo:   createdTo,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.audit_fetch_failed", err)
		return
	}

	pagination := response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}
	response.SuccessWithPage(c, logs, pagination)
}
