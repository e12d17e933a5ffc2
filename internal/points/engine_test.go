package points

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestComputeBasePoints(t *testing.T) {
	cases := []struct {
		name    string
		amount  string
		rate    string
		want    int64
		wantErr error
	}{
		{name: "rate one", amount: "80", rate: "1", want: 80},
		{name: "fractional amount floors", amount: "25.90", rate: "1", want: 25},
		{name: "rate two", amount: "12.50", rate: "2", want: 25},
		{name: "fractional rate floors", amount: "10", rate: "0.5", want: 5},
		{name: "zero rate defaults to one", amount: "30", rate: "0", want: 30},
		{name: "zero amount rejected", amount: "0", rate: "1", wantErr: ErrInvalidAmount},
		{name: "negative amount rejected", amount: "-5", rate: "1", wantErr: ErrInvalidAmount},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ComputeBasePoints(decimal.RequireFromString(tc.amount), decimal.RequireFromString(tc.rate))
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %d points, got %d", tc.want, got)
			}
		})
	}
}

func TestDecideGiftCardIssuance(t *testing.T) {
	cases := []struct {
		name      string
		balance   int64
		earned    int64
		threshold int64
		issue     bool
		remainder int64
	}{
		{name: "below threshold", balance: 50, earned: 30, threshold: 100, issue: false, remainder: 80},
		{name: "crosses threshold", balance: 80, earned: 25, threshold: 100, issue: true, remainder: 5},
		{name: "exactly at threshold", balance: 60, earned: 40, threshold: 100, issue: true, remainder: 0},
		{name: "one short of threshold", balance: 60, earned: 39, threshold: 100, issue: false, remainder: 99},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DecideGiftCardIssuance(tc.balance, tc.earned, tc.threshold)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Issue != tc.issue {
				t.Fatalf("expected issue=%v, got %v", tc.issue, got.Issue)
			}
			if got.Remainder != tc.remainder {
				t.Fatalf("expected remainder %d, got %d", tc.remainder, got.Remainder)
			}
			if got.Issue && got.Debit != tc.threshold {
				t.Fatalf("expected debit %d, got %d", tc.threshold, got.Debit)
			}
		})
	}

	if _, err := DecideGiftCardIssuance(10, 10, 0); !errors.Is(err, ErrInvalidThreshold) {
		t.Fatalf("expected ErrInvalidThreshold, got %v", err)
	}
}
