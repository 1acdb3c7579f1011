package sentiment

import "math"

// Aggregate labels on the normalized [-1,1] scale
const (
	LabelPositive         = "positive"
	LabelSlightlyPositive = "slightly positive"
	LabelNeutral          = "neutral"
	LabelSlightlyNegative = "slightly negative"
	LabelNegative         = "negative"
)

// Normalize maps a Result onto [-1,1]. Neutral is always 0.
func Normalize(r Result) float64 {
	if r.Label != Positive && r.Label != Negative {
		return 0
	}
	v := (r.Score - 0.5) * 2
	return math.Max(-1, math.Min(1, v))
}

// LabelFor buckets a normalized score. Lower bounds are inclusive.
func LabelFor(score float64) string {
	switch {
	case score >= 0.3:
		return LabelPositive
	case score >= 0.1:
		return LabelSlightlyPositive
	case score >= -0.1:
		return LabelNeutral
	case score >= -0.3:
		return LabelSlightlyNegative
	}
	return LabelNegative
}

// ConfidenceFromScores turns dispersion into a 0-100 confidence:
// round(max(0, 100 - 50*stddev)). Empty input yields 0.
func ConfidenceFromScores(scores []float64) int {
	if len(scores) == 0 {
		return 0
	}
	return int(math.Round(math.Max(0, 100-50*StdDev(scores))))
}

// Mean of scores, 0 for empty input
func Mean(scores []float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range scores {
		sum += s
	}
	return sum / float64(len(scores))
}

// StdDev is the population standard deviation
func StdDev(scores []float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	m := Mean(scores)
	v := 0.0
	for _, s := range scores {
		v += (s - m) * (s - m)
	}
	return math.Sqrt(v / float64(len(scores)))
}
