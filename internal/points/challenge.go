package points

import (
	"time"

	"github.com/meit-next/internal/constants"
)

// Rule 参与评估的挑战规则（已解码目标 + 该顾客的历史达成次数）
type Rule struct {
	ID          uint
	Type        string
	Target      Target
	Points      int64
	Repeatable  bool
	MaxTimes    int // 可重复达成上限，0 表示不限
	Completions int // 该顾客已达成次数
}

// EvalContext 单次互动的评估上下文
// VisitsInWindow 返回顾客最近 days 天内的到店次数（含本次），
// 仅 frequency 规则会调用，由编排层绑定到存储查询。
type EvalContext struct {
	HasAmount      bool
	Amount         int64 // 消费金额（货币单位取整）
	HasCategory    bool
	Category       int64
	Now            time.Time
	VisitsInWindow func(days int) (int, error)
}

// Result 评估结果
type Result struct {
	BonusPoints  int64
	CompletedIDs []uint
}

// EvaluateChallenges 对一组规则评估单次互动，返回达成的规则与奖励积分之和
// 不可重复且已达成的规则、达到重复上限的规则不参与评估。
func EvaluateChallenges(rules []Rule, ctx EvalContext) (Result, error) {
	var result Result
	for _, rule := range rules {
		if !rule.eligible() {
			continue
		}
		met, err := rule.satisfied(ctx)
		if err != nil {
			return Result{}, err
		}
		if !met {
			continue
		}
		result.BonusPoints += rule.Points
		result.CompletedIDs = append(result.CompletedIDs, rule.ID)
	}
	return result, nil
}

func (r Rule) eligible() bool {
	if r.Completions == 0 {
		return true
	}
	if !r.Repeatable {
		return false
	}
	if r.MaxTimes > 0 && r.Completions >= r.MaxTimes {
		return false
	}
	return true
}

func (r Rule) satisfied(ctx EvalContext) (bool, error) {
	switch r.Type {
	case constants.ChallengeTypeAmountMin:
		return ctx.HasAmount && ctx.Amount >= r.Target.Amount, nil
	case constants.ChallengeTypeCategory:
		return ctx.HasCategory && ctx.Category == r.Target.Category, nil
	case constants.ChallengeTypeTimeBased:
		return inTimeWindow(ctx.Now, r.Target.StartHHMM, r.Target.EndHHMM), nil
	case constants.ChallengeTypeFrequency:
		if ctx.VisitsInWindow == nil {
			return false, nil
		}
		visits, err := ctx.VisitsInWindow(r.Target.Days)
		if err != nil {
			return false, err
		}
		return visits >= r.Target.Visits, nil
	default:
		return false, nil
	}
}

// inTimeWindow 判断时刻是否落在 [start, end) 内，start > end 表示跨午夜
func inTimeWindow(now time.Time, startHHMM, endHHMM int) bool {
	cur := now.Hour()*100 + now.Minute()
	if startHHMM < endHHMM {
		return cur >= startHHMM && cur < endHHMM
	}
	return cur >= startHHMM || cur < endHHMM
}
