package forecast

import "github.com/mgarzon/floracast-go/internal/conf"

// Confidence level thresholds, from the trained model's historical
// accuracy bands.
const (
	confidenceHighAt   = 85
	confidenceMediumAt = 70
)

// speciesKnownBonus is added to the initial-stage confidence when the
// species itself is present in the baseline table.
const speciesKnownBonus = 5

// refinedConfidence starts from the configured model base, subtracts the
// per-unseen-category penalty and clamps into the configured band. The
// floor is policy, not arithmetic: however many categories are unseen,
// confidence never drops below it.
func refinedConfidence(p conf.ConfidencePolicy, newCategories int) float64 {
	return clamp(p.Base-p.Penalty*float64(newCategories), p.Floor, p.Ceiling)
}

// initialConfidence is the configured heuristic base plus a small bonus
// when the species is known to the baseline table.
func initialConfidence(p conf.ConfidencePolicy, speciesKnown bool) float64 {
	c := p.InitialBase
	if speciesKnown {
		c += speciesKnownBonus
	}
	return clamp(c, 0, p.Ceiling)
}

// confidenceLevel buckets a confidence percentage into alta, media, baja.
func confidenceLevel(confidence float64) string {
	switch {
	case confidence >= confidenceHighAt:
		return ConfidenceHigh
	case confidence >= confidenceMediumAt:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

func clamp(v, floor, ceiling float64) float64 {
	if v < floor {
		return floor
	}
	if v > ceiling {
		return ceiling
	}
	return v
}
