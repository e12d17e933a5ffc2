package admin

import (
	"errors"

	"github.com/meit-next/internal/http/response"
	"github.com/meit-next/internal/service"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
	key    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackKey string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.key, nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackKey, err)
}

func concatMappedHandlerErrors(groups ...[]mappedHandlerError) []mappedHandlerError {
	total := 0
	for _, group := range groups {
		total += len(group)
	}
	result := make([]mappedHandlerError, 0, total)
	for _, group := range groups {
		result = append(result, group...)
	}
	return result
}

var loyaltyScopeErrorRules = []mappedHandlerError{
	{target: service.ErrMerchantNotFound, code: response.CodeNotFound, key: "error.merchant_not_found"},
	{target: service.ErrMerchantDisabled, code: response.CodeForbidden, key: "error.merchant_disabled"},
	{target: service.ErrMerchantConfigMissing, code: response.CodeBadRequest, key: "error.merchant_config_missing"},
	{target: service.ErrBranchNotFound, code: response.CodeNotFound, key: "error.branch_not_found"},
	{target: service.ErrCustomerNotFound, code: response.CodeNotFound, key: "error.customer_not_found"},
}

var assignPointsErrorRules = []mappedHandlerError{
	{target: service.ErrInvalidAmount, code: response.CodeBadRequest, key: "error.amount_invalid"},
	{target: service.ErrDuplicateReference, code: response.CodeConflict, key: "error.duplicate_reference"},
	{target: service.ErrTransactionFailed, code: response.CodeInternal, key: "error.transaction_failed"},
}

var adjustPointsErrorRules = []mappedHandlerError{
	{target: service.ErrInvalidPoints, code: response.CodeBadRequest, key: "error.points_invalid"},
	{target: service.ErrNegativeBalanceRejected, code: response.CodeConflict, key: "error.balance_insufficient"},
	{target: service.ErrTransactionFailed, code: response.CodeInternal, key: "error.transaction_failed"},
}

var giftCardLookupErrorRules = []mappedHandlerError{
	{target: service.ErrGiftCardNotFound, code: response.CodeNotFound, key: "error.gift_card_not_found"},
	{target: service.ErrGiftCardRedeemed, code: response.CodeConflict, key: "error.gift_card_redeemed"},
	{target: service.ErrGiftCardExpired, code: response.CodeBadRequest, key: "error.gift_card_expired"},
	{target: service.ErrGiftCardCancelled, code: response.CodeConflict, key: "error.gift_card_cancelled"},
	{target: service.ErrGiftCardNotActive, code: response.CodeConflict, key: "error.gift_card_not_active"},
	{target: service.ErrTransactionFailed, code: response.CodeInternal, key: "error.transaction_failed"},
}

func respondAssignPointsError(c *gin.Context, err error) {
	respondWithMappedError(c, err,
		concatMappedHandlerErrors(loyaltyScopeErrorRules, assignPointsErrorRules),
		response.CodeInternal, "error.points_assign_failed")
}

func respondAdjustPointsError(c *gin.Context, err error) {
	respondWithMappedError(c, err,
		concatMappedHandlerErrors(loyaltyScopeErrorRules, adjustPointsErrorRules),
		response.CodeInternal, "error.points_adjust_failed")
}

func respondGiftCardError(c *gin.Context, err error, fallbackKey string) {
	respondWithMappedError(c, err, giftCardLookupErrorRules, response.CodeInternal, fallbackKey)
}
