package services

import "testing"

func TestScoreCorrectAnswerDecay(t *testing.T) {
	cases := []struct {
		name           string
		points         int
		responseTimeMs int64
		timeLimitMs    int64
		want           int
	}{
		{"instant answer gets full credit", 100, 0, 30000, 100},
		{"10s of 30s limit", 100, 10000, 30000, 83},
		{"15s of 30s limit", 100, 15000, 30000, 75},
		{"at the limit hits the half-credit floor", 100, 30000, 30000, 50},
		{"500 point question", 500, 10000, 30000, 417},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			isCorrect, got := Score(tc.points, 2, 2, tc.responseTimeMs, tc.timeLimitMs)
			if !isCorrect {
				t.Fatal("expected answer to be correct")
			}
			if got != tc.want {
				t.Errorf("Score(%d, rt=%d, tl=%d) = %d, want %d",
					tc.points, tc.responseTimeMs, tc.timeLimitMs, got, tc.want)
			}
		})
	}
}

func TestScoreIncorrectAnswerIsZero(t *testing.T) {
	for rt := int64(0); rt <= 60000; rt += 5000 {
		isCorrect, points := Score(100, 1, 2, rt, 30000)
		if isCorrect {
			t.Fatalf("selected index 1 with correct index 2 reported correct at rt=%d", rt)
		}
		if points != 0 {
			t.Fatalf("incorrect answer earned %d points at rt=%d", points, rt)
		}
	}
}

func TestScoreMonotonicNonIncreasing(t *testing.T) {
	prev := 101
	for rt := int64(0); rt <= 90000; rt += 250 {
		_, points := Score(100, 0, 0, rt, 30000)
		if points > prev {
			t.Fatalf("points increased with response time: %d -> %d at rt=%d", prev, points, rt)
		}
		prev = points
	}
}

func TestScoreNeverBelowHalfCredit(t *testing.T) {
	for rt := int64(0); rt <= 30000; rt += 100 {
		_, points := Score(100, 0, 0, rt, 30000)
		if points < 50 {
			t.Fatalf("correct answer within time earned %d points at rt=%d", points, rt)
		}
	}
}

func TestScoreNegativeResponseTimeClamped(t *testing.T) {
	_, points := Score(100, 0, 0, -500, 30000)
	if points != 100 {
		t.Errorf("negative response time should score as instant, got %d", points)
	}
}
