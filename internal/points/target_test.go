package points

import (
	"errors"
	"testing"

	"github.com/meit-next/internal/constants"
)

func TestTargetRoundTrip(t *testing.T) {
	cases := []struct {
		name   string
		target Target
		want   int64
	}{
		{
			name:   "amount min",
			target: Target{Type: constants.ChallengeTypeAmountMin, Amount: 150},
			want:   150,
		},
		{
			name:   "frequency",
			target: Target{Type: constants.ChallengeTypeFrequency, Visits: 5, Days: 30},
			want:   5030,
		},
		{
			name:   "frequency max days edge",
			target: Target{Type: constants.ChallengeTypeFrequency, Visits: 999, Days: 999},
			want:   999999,
		},
		{
			name:   "time based",
			target: Target{Type: constants.ChallengeTypeTimeBased, StartHHMM: 800, EndHHMM: 1130},
			want:   8001130,
		},
		{
			name:   "time based wraps midnight",
			target: Target{Type: constants.ChallengeTypeTimeBased, StartHHMM: 2200, EndHHMM: 200},
			want:   22000200,
		},
		{
			name:   "category",
			target: Target{Type: constants.ChallengeTypeCategory, Category: 7},
			want:   7,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			encoded, err := EncodeTarget(tc.target)
			if err != nil {
				t.Fatalf("encode failed: %v", err)
			}
			if encoded != tc.want {
				t.Fatalf("expected encoding %d, got %d", tc.want, encoded)
			}
			decoded, err := DecodeTarget(tc.target.Type, encoded)
			if err != nil {
				t.Fatalf("decode failed: %v", err)
			}
			if decoded != tc.target {
				t.Fatalf("round trip mismatch: %+v != %+v", decoded, tc.target)
			}
		})
	}
}

func TestEncodeTargetRejectsInvalid(t *testing.T) {
	cases := []struct {
		name   string
		target Target
	}{
		{name: "zero amount", target: Target{Type: constants.ChallengeTypeAmountMin}},
		{name: "zero visits", target: Target{Type: constants.ChallengeTypeFrequency, Days: 30}},
		{name: "days above max", target: Target{Type: constants.ChallengeTypeFrequency, Visits: 3, Days: 1000}},
		{name: "bad minutes", target: Target{Type: constants.ChallengeTypeTimeBased, StartHHMM: 860, EndHHMM: 1200}},
		{name: "hour above 23", target: Target{Type: constants.ChallengeTypeTimeBased, StartHHMM: 2400, EndHHMM: 100}},
		{name: "start equals end", target: Target{Type: constants.ChallengeTypeTimeBased, StartHHMM: 900, EndHHMM: 900}},
		{name: "negative category", target: Target{Type: constants.ChallengeTypeCategory, Category: -1}},
		{name: "unknown type", target: Target{Type: "mystery", Amount: 1}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := EncodeTarget(tc.target); !errors.Is(err, ErrInvalidTarget) {
				t.Fatalf("expected ErrInvalidTarget, got %v", err)
			}
		})
	}
}
