package admin

import (
	"strconv"
	"strings"
	"time"

	handlershared "github.com/meit-next/internal/http/handlers/shared"
	"github.com/meit-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

func normalizePagination(page, pageSize int) (int, int) {
	return handlershared.NormalizePagination(page, pageSize)
}

func getStaffID(c *gin.Context) (uint, bool) {
	return handlershared.GetContextUintWithKeys(c, "staff_id", "error.staff_id_invalid", "error.staff_id_type_invalid")
}

// getStaffMerchantID 读取登录员工所属商户，平台员工为 0。
func getStaffMerchantID(c *gin.Context) (uint, bool) {
	value, exists := c.Get("merchant_id")
	if !exists {
		respondError(c, response.CodeUnauthorized, "error.unauthorized", nil)
		return 0, false
	}
	id, ok := value.(uint)
	if !ok {
		respondError(c, response.CodeInternal, "error.staff_id_type_invalid", nil)
		return 0, false
	}
	return id, true
}

// resolveMerchantScope 确定请求作用的商户。
// 商户员工固定为自己的商户；平台员工必须通过 merchant_id 查询参数指定。
func resolveMerchantScope(c *gin.Context) (uint, bool) {
	staffMerchantID, ok := getStaffMerchantID(c)
	if !ok {
		return 0, false
	}
	if staffMerchantID != 0 {
		return staffMerchantID, true
	}
	raw := strings.TrimSpace(c.Query("merchant_id"))
	if raw == "" {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return 0, false
	}
	parsed, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || parsed == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return 0, false
	}
	return uint(parsed), true
}

func parsePathUint(c *gin.Context, key string) (uint, bool) {
	raw := strings.TrimSpace(c.Param(key))
	if raw == "" {
		return 0, false
	}
	parsed, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || parsed == 0 {
		return 0, false
	}
	return uint(parsed), true
}

// parseTimeNullable 解析可空时间参数，支持 RFC3339 与日期两种格式。
func parseTimeNullable(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
		return &parsed, nil
	}
	parsed, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}
