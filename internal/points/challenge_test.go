package points

import (
	"testing"
	"time"

	"github.com/meit-next/internal/constants"
)

func TestEvaluateChallenges(t *testing.T) {
	noon := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	rules := []Rule{
		{ID: 1, Type: constants.ChallengeTypeAmountMin, Target: Target{Type: constants.ChallengeTypeAmountMin, Amount: 100}, Points: 20},
		{ID: 2, Type: constants.ChallengeTypeTimeBased, Target: Target{Type: constants.ChallengeTypeTimeBased, StartHHMM: 1100, EndHHMM: 1400}, Points: 10},
		{ID: 3, Type: constants.ChallengeTypeCategory, Target: Target{Type: constants.ChallengeTypeCategory, Category: 7}, Points: 5},
	}

	ctx := EvalContext{HasAmount: true, Amount: 120, HasCategory: true, Category: 7, Now: noon}
	result, err := EvaluateChallenges(rules, ctx)
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	if result.BonusPoints != 35 {
		t.Fatalf("expected 35 bonus points, got %d", result.BonusPoints)
	}
	if len(result.CompletedIDs) != 3 {
		t.Fatalf("expected 3 completions, got %v", result.CompletedIDs)
	}

	// 金额不足时仅时间与品类达成
	ctx.Amount = 99
	result, err = EvaluateChallenges(rules, ctx)
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	if result.BonusPoints != 15 {
		t.Fatalf("expected 15 bonus points, got %d", result.BonusPoints)
	}
}

func TestEvaluateChallengesRepeatability(t *testing.T) {
	base := Rule{
		ID:     4,
		Type:   constants.ChallengeTypeAmountMin,
		Target: Target{Type: constants.ChallengeTypeAmountMin, Amount: 50},
		Points: 10,
	}
	ctx := EvalContext{HasAmount: true, Amount: 60, Now: time.Now()}

	once := base
	once.Completions = 1
	result, err := EvaluateChallenges([]Rule{once}, ctx)
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	if result.BonusPoints != 0 {
		t.Fatalf("non-repeatable rule completed twice: %+v", result)
	}

	repeatable := base
	repeatable.Repeatable = true
	repeatable.Completions = 1
	result, err = EvaluateChallenges([]Rule{repeatable}, ctx)
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	if result.BonusPoints != 10 {
		t.Fatalf("repeatable rule skipped: %+v", result)
	}

	capped := repeatable
	capped.MaxTimes = 2
	capped.Completions = 2
	result, err = EvaluateChallenges([]Rule{capped}, ctx)
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	if result.BonusPoints != 0 {
		t.Fatalf("rule at max completions still completed: %+v", result)
	}
}

func TestEvaluateFrequencyChallenge(t *testing.T) {
	rule := Rule{
		ID:     5,
		Type:   constants.ChallengeTypeFrequency,
		Target: Target{Type: constants.ChallengeTypeFrequency, Visits: 5, Days: 30},
		Points: 25,
	}

	visits := 4
	ctx := EvalContext{
		Now: time.Now(),
		VisitsInWindow: func(days int) (int, error) {
			if days != 30 {
				t.Fatalf("expected 30 day window, got %d", days)
			}
			return visits, nil
		},
	}

	result, err := EvaluateChallenges([]Rule{rule}, ctx)
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	if result.BonusPoints != 0 {
		t.Fatalf("4 visits should not satisfy a 5 visit target")
	}

	visits = 5
	result, err = EvaluateChallenges([]Rule{rule}, ctx)
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	if result.BonusPoints != 25 {
		t.Fatalf("expected 25 bonus points, got %d", result.BonusPoints)
	}
}

func TestInTimeWindowWrapsMidnight(t *testing.T) {
	at := func(h, m int) time.Time {
		return time.Date(2026, 3, 10, h, m, 0, 0, time.UTC)
	}
	if !inTimeWindow(at(23, 0), 2200, 200) {
		t.Fatalf("23:00 should fall inside 22:00-02:00")
	}
	if !inTimeWindow(at(1, 30), 2200, 200) {
		t.Fatalf("01:30 should fall inside 22:00-02:00")
	}
	if inTimeWindow(at(12, 0), 2200, 200) {
		t.Fatalf("12:00 should fall outside 22:00-02:00")
	}
	if inTimeWindow(at(2, 0), 2200, 200) {
		t.Fatalf("window end is exclusive")
	}
}
