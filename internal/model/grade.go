package model

// gradeBands maps a 0-1 badness score (0 = best) onto eleven letter grades.
var gradeBands = []string{"A+", "A", "A-", "B+", "B", "B-", "C+", "C", "C-", "D", "F"}

// GradeForScore converts a 0-1 score where lower is better into a letter
// grade. Scores outside [0,1] are clamped.
func GradeForScore(score float64) string {
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	idx := int(score * float64(len(gradeBands)))
	if idx >= len(gradeBands) {
		idx = len(gradeBands) - 1
	}
	return gradeBands[idx]
}
