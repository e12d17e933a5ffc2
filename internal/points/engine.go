// Package points 积分纯计算核心：基础积分、礼品卡发放判定、挑战评估。
// 本包不依赖存储与时钟之外的任何外部状态，便于确定性测试。
package points

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidAmount 消费金额非法（必须大于 0）
	ErrInvalidAmount = errors.New("invalid purchase amount")
	// ErrInvalidThreshold 礼品卡积分门槛非法（必须大于 0）
	ErrInvalidThreshold = errors.New("invalid gift card threshold")
	// ErrInvalidTarget 挑战目标值非法
	ErrInvalidTarget = errors.New("invalid challenge target")
)

// ComputeBasePoints 计算基础积分：floor(金额 × 倍率)
// 倍率未配置（零值或负数）时按 1 处理。
func ComputeBasePoints(amount, pointsPerUnit decimal.Decimal) (int64, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return 0, ErrInvalidAmount
	}
	rate := pointsPerUnit
	if rate.LessThanOrEqual(decimal.Zero) {
		rate = decimal.NewFromInt(1)
	}
	return amount.Mul(rate).Floor().IntPart(), nil
}

// Issuance 礼品卡发放判定结果
type Issuance struct {
	Issue     bool  // 是否发放
	Debit     int64 // 发放时扣除的积分（恒等于门槛）
	Remainder int64 // 扣除后的余额
}

// DecideGiftCardIssuance 判定本次入账后是否触发礼品卡发放
// 判定基于 入账前余额 + 本次获得积分；每次跨越门槛只发放一张。
func DecideGiftCardIssuance(balance, earned, threshold int64) (Issuance, error) {
	if threshold <= 0 {
		return Issuance{}, ErrInvalidThreshold
	}
	total := balance + earned
	if total < threshold {
		return Issuance{Remainder: total}, nil
	}
	return Issuance{
		Issue:     true,
		Debit:     threshold,
		Remainder: total - threshold,
	}, nil
}
