package points

import (
	"fmt"

	"github.com/meit-next/internal/constants"
)

// Target 挑战目标（按类型解码后的结构化视图）
// 数据库只存一个 int64（Challenge.TargetValue），编码规则：
//
//	amount_min: 最低消费金额直接存储（> 0）
//	frequency : visits*1000 + days，visits∈[1,100000]，days∈[1,999]
//	time_based: 开始HHMM*10000 + 结束HHMM，开始≠结束，开始>结束表示跨午夜
//	category  : 品类编码直接存储（≥ 0）
type Target struct {
	Type      string `json:"type"`
	Amount    int64  `json:"amount,omitempty"`     // amount_min：最低消费金额
	Visits    int    `json:"visits,omitempty"`     // frequency：窗口内到店次数
	Days      int    `json:"days,omitempty"`       // frequency：窗口天数
	StartHHMM int    `json:"start_hhmm,omitempty"` // time_based：开始时刻（HHMM）
	EndHHMM   int    `json:"end_hhmm,omitempty"`   // time_based：结束时刻（HHMM）
	Category  int64  `json:"category,omitempty"`   // category：品类编码
}

const (
	frequencyDaysBase = 1000
	timeBasedEndBase  = 10000

	maxFrequencyVisits = 100000
	maxFrequencyDays   = 999
)

// EncodeTarget 将结构化目标编码为单个 int64，越界取值报 ErrInvalidTarget
func EncodeTarget(t Target) (int64, error) {
	switch t.Type {
	case constants.ChallengeTypeAmountMin:
		if t.Amount <= 0 {
			return 0, fmt.Errorf("%w: amount_min requires amount > 0", ErrInvalidTarget)
		}
		return t.Amount, nil
	case constants.ChallengeTypeFrequency:
		if t.Visits < 1 || t.Visits > maxFrequencyVisits {
			return 0, fmt.Errorf("%w: frequency visits out of range", ErrInvalidTarget)
		}
		if t.Days < 1 || t.Days > maxFrequencyDays {
			return 0, fmt.Errorf("%w: frequency days out of range", ErrInvalidTarget)
		}
		return int64(t.Visits)*frequencyDaysBase + int64(t.Days), nil
	case constants.ChallengeTypeTimeBased:
		if !validHHMM(t.StartHHMM) || !validHHMM(t.EndHHMM) {
			return 0, fmt.Errorf("%w: time_based requires valid HHMM times", ErrInvalidTarget)
		}
		if t.StartHHMM == t.EndHHMM {
			return 0, fmt.Errorf("%w: time_based start and end must differ", ErrInvalidTarget)
		}
		return int64(t.StartHHMM)*timeBasedEndBase + int64(t.EndHHMM), nil
	case constants.ChallengeTypeCategory:
		if t.Category < 0 {
			return 0, fmt.Errorf("%w: category code must be non-negative", ErrInvalidTarget)
		}
		return t.Category, nil
	default:
		return 0, fmt.Errorf("%w: unknown challenge type %q", ErrInvalidTarget, t.Type)
	}
}

// DecodeTarget 将存储的 int64 还原为结构化目标
func DecodeTarget(challengeType string, value int64) (Target, error) {
	switch challengeType {
	case constants.ChallengeTypeAmountMin:
		if value <= 0 {
			return Target{}, fmt.Errorf("%w: amount_min requires amount > 0", ErrInvalidTarget)
		}
		return Target{Type: challengeType, Amount: value}, nil
	case constants.ChallengeTypeFrequency:
		visits := value / frequencyDaysBase
		days := value % frequencyDaysBase
		if visits < 1 || visits > maxFrequencyVisits || days < 1 {
			return Target{}, fmt.Errorf("%w: malformed frequency encoding %d", ErrInvalidTarget, value)
		}
		return Target{Type: challengeType, Visits: int(visits), Days: int(days)}, nil
	case constants.ChallengeTypeTimeBased:
		start := value / timeBasedEndBase
		end := value % timeBasedEndBase
		if !validHHMM(int(start)) || !validHHMM(int(end)) || start == end {
			return Target{}, fmt.Errorf("%w: malformed time_based encoding %d", ErrInvalidTarget, value)
		}
		return Target{Type: challengeType, StartHHMM: int(start), EndHHMM: int(end)}, nil
	case constants.ChallengeTypeCategory:
		if value < 0 {
			return Target{}, fmt.Errorf("%w: category code must be non-negative", ErrInvalidTarget)
		}
		return Target{Type: challengeType, Category: value}, nil
	default:
		return Target{}, fmt.Errorf("%w: unknown challenge type %q", ErrInvalidTarget, challengeType)
	}
}

func validHHMM(v int) bool {
	if v < 0 || v > 2359 {
		return false
	}
	return v%100 < 60
}
