package matching

// LocationScorer maps a distance to a score with a step function. It is
// total: every distance, including one beyond the cap, gets a score.
type LocationScorer struct {
	tiers LocationTiers
}

func NewLocationScorer(tiers LocationTiers) LocationScorer {
	return LocationScorer{tiers: tiers}
}

func (s LocationScorer) Score(distanceMiles, capMiles float64) float64 {
	if distanceMiles < 0 {
		distanceMiles = 0
	}
	for _, step := range s.tiers.Steps {
		if distanceMiles <= step.MaxMiles && distanceMiles <= capMiles {
			return step.Score
		}
	}
	if distanceMiles <= capMiles {
		return s.tiers.WithinCap
	}
	return s.tiers.BeyondCap
}
