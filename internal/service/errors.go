package service

import (
	"errors"
	"fmt"
)

// 服务层统一哨兵错误，处理器用 errors.Is 匹配后映射为 HTTP 状态码。
var (
	// 积分
	ErrInvalidAmount           = errors.New("purchase amount must be greater than zero")
	ErrInvalidPoints           = errors.New("points must be a non-zero value")
	ErrMerchantConfigMissing   = errors.New("merchant loyalty config missing or incomplete")
	ErrNegativeBalanceRejected = errors.New("operation would make points balance negative")
	ErrDuplicateReference      = errors.New("reference already used by another operation")

	// 礼品卡
	ErrGiftCardNotFound      = errors.New("gift card not found")
	ErrGiftCardRedeemed      = errors.New("gift card already redeemed")
	ErrGiftCardExpired       = errors.New("gift card expired")
	ErrGiftCardCancelled     = errors.New("gift card cancelled")
	ErrGiftCardNotActive     = errors.New("gift card not active")
	ErrGiftCardCodeCollision = errors.New("gift card code generation exhausted retries")

	// 实体
	ErrMerchantNotFound  = errors.New("merchant not found")
	ErrMerchantDisabled  = errors.New("merchant disabled")
	ErrBranchNotFound    = errors.New("branch not found")
	ErrCustomerNotFound  = errors.New("customer not found")
	ErrCustomerExists    = errors.New("customer phone already registered")
	ErrChallengeNotFound = errors.New("challenge not found")
	ErrInvalidPhone      = errors.New("phone number is required")

	// 员工与认证
	ErrStaffNotFound      = errors.New("staff not found")
	ErrStaffExists        = errors.New("staff username already taken")
	ErrStaffDisabled      = errors.New("staff account disabled")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrPermissionDenied   = errors.New("permission denied")

	// 基础设施
	ErrPersistenceFailure = errors.New("persistence failure")
	ErrTransactionFailed  = errors.New("transaction failed")
)

// domainSentinels 业务哨兵错误，事务外原样返回给处理器匹配。
var domainSentinels = []error{
	ErrInvalidAmount, ErrInvalidPoints, ErrMerchantConfigMissing,
	ErrNegativeBalanceRejected, ErrDuplicateReference,
	ErrGiftCardNotFound, ErrGiftCardRedeemed, ErrGiftCardExpired,
	ErrGiftCardCancelled, ErrGiftCardNotActive, ErrGiftCardCodeCollision,
	ErrMerchantNotFound, ErrMerchantDisabled, ErrBranchNotFound,
	ErrCustomerNotFound, ErrCustomerExists, ErrChallengeNotFound,
	ErrInvalidPhone, ErrStaffNotFound, ErrStaffExists, ErrStaffDisabled,
	ErrInvalidCredentials, ErrPermissionDenied, ErrPersistenceFailure,
}

// wrapTxnError 把事务内逃逸出来的底层存储错误折叠为 ErrTransactionFailed，
// 业务哨兵错误原样穿透。驱动报错文本不直接暴露给客户端。
func wrapTxnError(err error) error {
	if err == nil {
		return nil
	}
	for _, sentinel := range domainSentinels {
		if errors.Is(err, sentinel) {
			return err
		}
	}
	return fmt.Errorf("%w: %v", ErrTransactionFailed, err)
}
