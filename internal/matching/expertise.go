package matching

import (
	"contractor-matching/internal/models"
)

// ExpertiseScorer scores certification fit for a service type.
type ExpertiseScorer struct {
	policy ExpertisePolicy
}

func NewExpertiseScorer(p ExpertisePolicy) ExpertiseScorer {
	return ExpertiseScorer{policy: p}
}

// Score adds certificate bonuses only on top of the service base, and the
// special-requirements term independently of it.
func (s ExpertiseScorer) Score(c *models.Contractor, st models.ServiceType, requirements models.TagSet) float64 {
	score := 0.0

	if c.IsCertifiedFor(st) {
		score = s.policy.BaseScore

		bonus := 0.0
		for _, b := range s.policy.Bonuses[st] {
			if c.Certifications.HasAny(b.AnyOf...) {
				bonus += b.Bonus
			}
		}
		if bonus > s.policy.MaxCertBonus {
			bonus = s.policy.MaxCertBonus
		}
		score = clamp01(score + bonus)
	}

	if requirements.Len() > 0 {
		matched := 0
		for req := range requirements {
			if c.SpecialSkills.Has(req) {
				matched++
			}
		}
		score += float64(matched) / float64(requirements.Len()) * s.policy.RequirementsWeight
	}

	return clamp01(score)
}
