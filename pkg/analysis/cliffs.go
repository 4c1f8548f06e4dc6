package analysis

// cliffsDelta computes Cliff's delta, a distribution-free effect size in
// [-1, 1]. Positive values mean x tends to dominate y.
func cliffsDelta(x, y []float64) float64 {
	if len(x) == 0 || len(y) == 0 {
		return 0
	}

	var more, less int

	for _, xi := range x {
		for _, yi := range y {
			switch {
			case xi > yi:
				more++
			case xi < yi:
				less++
			}
		}
	}

	return float64(more-less) / float64(len(x)*len(y))
}

// effectMagnitude interprets a Cliff's delta value using the conventional
// thresholds (Romano et al.).
func effectMagnitude(delta float64) string {
	ad := delta
	if ad < 0 {
		ad = -ad
	}

	switch {
	case ad < 0.147:
		return "negligible"
	case ad < 0.33:
		return "small"
	case ad < 0.474:
		return "medium"
	default:
		return "large"
	}
}
