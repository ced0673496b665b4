package services

import "math"

// Score computes correctness and awarded points for a single answer.
// Full credit decays linearly toward half credit as the response time
// approaches the question's time limit; a correct answer within the
// limit never earns less than half the question's value. Incorrect
// answers earn nothing.
func Score(questionPoints, selectedIndex, correctIndex int, responseTimeMs, timeLimitMs int64) (bool, int) {
	isCorrect := selectedIndex == correctIndex
	if !isCorrect || questionPoints <= 0 || timeLimitMs <= 0 {
		return isCorrect, 0
	}

	if responseTimeMs < 0 {
		responseTimeMs = 0
	}

	factor := 1 - float64(responseTimeMs)/float64(2*timeLimitMs)
	if factor < 0.5 {
		factor = 0.5
	}

	return true, int(math.Round(float64(questionPoints) * factor))
}
