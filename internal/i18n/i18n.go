// Package i18n 提供接口层错误消息的多语言支持。
package i18n

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	// LocaleEN 英文
	LocaleEN = "en"
	// LocaleZH 中文
	LocaleZH = "zh"
)

// DefaultLocale 默认语言
const DefaultLocale = LocaleEN

// ResolveLocale 解析请求语言，优先级: query > header
func ResolveLocale(c *gin.Context) string {
	if c == nil {
		return DefaultLocale
	}
	if lang := strings.TrimSpace(c.Query("lang")); lang != "" {
		return normalizeLocale(lang)
	}
	if accept := c.GetHeader("Accept-Language"); accept != "" {
		first := strings.SplitN(accept, ",", 2)[0]
		return normalizeLocale(first)
	}
	return DefaultLocale
}

// T 根据语言和 key 返回消息文案，找不到时回退默认语言，再回退 key 本身
func T(locale, key string) string {
	if messages, ok := catalog[locale]; ok {
		if msg, ok := messages[key]; ok {
			return msg
		}
	}
	if messages, ok := catalog[DefaultLocale]; ok {
		if msg, ok := messages[key]; ok {
			return msg
		}
	}
	return key
}

// Sprintf 带参数的消息文案
func Sprintf(locale, key string, args ...interface{}) string {
	return fmt.Sprintf(T(locale, key), args...)
}

func normalizeLocale(raw string) string {
	lowered := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case strings.HasPrefix(lowered, "zh"):
		return LocaleZH
	case strings.HasPrefix(lowered, "en"):
		return LocaleEN
	default:
		return DefaultLocale
	}
}

var catalog = map[string]map[string]string{
	LocaleEN: {
		"error.bad_request":              "invalid request",
		"error.unauthorized":             "unauthorized",
		"error.forbidden":                "permission denied",
		"error.rate_limited":             "too many requests, try again later",
		"error.rate_limit_unavailable":   "rate limiter unavailable",
		"error.login_too_many":           "too many login attempts, retry in %d seconds",
		"error.internal":                 "internal server error",
		"error.jwt_secret_missing":       "jwt secret is not configured",
		"error.auth_header_missing":      "authorization header is missing",
		"error.auth_header_invalid":      "authorization header is invalid",
		"error.token_invalid":            "token is invalid",
		"error.token_revoked":            "token has been revoked",
		"error.login_invalid":            "invalid username or password",
		"error.login_failed":             "login failed",
		"error.password_old_invalid":     "old password is incorrect",
		"error.staff_id_invalid":         "invalid staff id",
		"error.staff_id_type_invalid":    "staff id has unexpected type",
		"error.staff_not_found":          "staff not found",
		"error.staff_exists":             "staff username already exists",
		"error.staff_disabled":           "staff account is disabled",
		"error.merchant_not_found":       "merchant not found",
		"error.merchant_disabled":        "merchant is disabled",
		"error.merchant_config_missing":  "merchant loyalty configuration is incomplete",
		"error.branch_not_found":         "branch not found",
		"error.customer_not_found":       "customer not found",
		"error.customer_exists":          "customer phone already registered",
		"error.phone_invalid":            "invalid phone number",
		"error.amount_invalid":           "invalid amount",
		"error.points_invalid":           "invalid points value",
		"error.points_assign_failed":     "failed to assign points",
		"error.points_adjust_failed":     "failed to adjust points",
		"error.balance_insufficient":     "points balance is insufficient",
		"error.duplicate_reference":      "request reference already used",
		"error.transaction_failed":       "transaction failed, please retry",
		"error.checkin_failed":           "check-in failed",
		"error.gift_card_not_found":      "gift card not found",
		"error.gift_card_redeemed":       "gift card already redeemed",
		"error.gift_card_expired":        "gift card has expired",
		"error.gift_card_cancelled":      "gift card has been cancelled",
		"error.gift_card_not_active":     "gift card is not active",
		"error.gift_card_fetch_failed":   "failed to fetch gift cards",
		"error.gift_card_redeem_failed":  "failed to redeem gift card",
		"error.gift_card_cancel_failed":  "failed to cancel gift card",
		"error.gift_card_export_failed":  "failed to export gift cards",
		"error.challenge_not_found":      "challenge not found",
		"error.challenge_invalid":        "invalid challenge definition",
		"error.challenge_save_failed":    "failed to save challenge",
		"error.transaction_fetch_failed": "failed to fetch transactions",
		"error.audit_fetch_failed":       "failed to fetch audit logs",
		"error.save_failed":              "failed to save",
		"error.fetch_failed":             "failed to fetch",
	},
	LocaleZH: {
		"error.bad_request":              "请求参数无效",
		"error.unauthorized":             "未登录或登录已过期",
		"error.forbidden":                "没有操作权限",
		"error.rate_limited":             "请求过于频繁，请稍后再试",
		"error.rate_limit_unavailable":   "限流服务不可用",
		"error.login_too_many":           "登录尝试过多，请 %d 秒后再试",
		"error.internal":                 "服务器内部错误",
		"error.jwt_secret_missing":       "JWT 密钥未配置",
		"error.auth_header_missing":      "缺少认证头",
		"error.auth_header_invalid":      "认证头格式错误",
		"error.token_invalid":            "token 无效",
		"error.token_revoked":            "token 已失效",
		"error.login_invalid":            "用户名或密码错误",
		"error.login_failed":             "登录失败",
		"error.password_old_invalid":     "旧密码不正确",
		"error.staff_id_invalid":         "员工 ID 无效",
		"error.staff_id_type_invalid":    "员工 ID 类型异常",
		"error.staff_not_found":          "员工不存在",
		"error.staff_exists":             "员工用户名已存在",
		"error.staff_disabled":           "员工账号已禁用",
		"error.merchant_not_found":       "商户不存在",
		"error.merchant_disabled":        "商户已禁用",
		"error.merchant_config_missing":  "商户积分配置不完整",
		"error.branch_not_found":         "门店不存在",
		"error.customer_not_found":       "顾客不存在",
		"error.customer_exists":          "手机号已注册",
		"error.phone_invalid":            "手机号无效",
		"error.amount_invalid":           "金额无效",
		"error.points_invalid":           "积分值无效",
		"error.points_assign_failed":     "积分发放失败",
		"error.points_adjust_failed":     "积分调整失败",
		"error.balance_insufficient":     "积分余额不足",
		"error.duplicate_reference":      "请求凭据已被使用",
		"error.transaction_failed":       "事务执行失败，请重试",
		"error.checkin_failed":           "打卡失败",
		"error.gift_card_not_found":      "礼品卡不存在",
		"error.gift_card_redeemed":       "礼品卡已被核销",
		"error.gift_card_expired":        "礼品卡已过期",
		"error.gift_card_cancelled":      "礼品卡已作废",
		"error.gift_card_not_active":     "礼品卡状态不可用",
		"error.gift_card_fetch_failed":   "礼品卡查询失败",
		"error.gift_card_redeem_failed":  "礼品卡核销失败",
		"error.gift_card_cancel_failed":  "礼品卡作废失败",
		"error.gift_card_export_failed":  "礼品卡导出失败",
		"error.challenge_not_found":      "挑战不存在",
		"error.challenge_invalid":        "挑战定义无效",
		"error.challenge_save_failed":    "挑战保存失败",
		"error.transaction_fetch_failed": "积分流水查询失败",
		"error.audit_fetch_failed":       "审计日志查询失败",
		"error.save_failed":              "保存失败",
		"error.fetch_failed":             "查询失败",
	},
}
