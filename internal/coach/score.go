package coach

const (
	ScoreExcellent        = "Excellent"
	ScoreNeedsImprovement = "Needs Improvement"
	ScorePoor             = "Poor"
)

// ScoreLabel maps a 0-100 score to the label shown next to it.
func ScoreLabel(score int) string {
	switch {
	case score >= 80:
		return ScoreExcellent
	case score >= 60:
		return ScoreNeedsImprovement
	default:
		return ScorePoor
	}
}
