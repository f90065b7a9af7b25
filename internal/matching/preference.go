package matching

import "contractor-matching/internal/models"

// PreferenceScorer scores soft client preferences. It has no tunables.
type PreferenceScorer struct{}

// Score returns matched/stated over the stated dimensions, or 1.0 when the
// client stated nothing. Every dimension compares exactly.
func (PreferenceScorer) Score(c *models.Contractor, prefs models.ClientPreferences) float64 {
	stated, matched := 0, 0

	if models.Stated(prefs.Gender) {
		stated++
		if c.Gender == prefs.Gender {
			matched++
		}
	}
	if models.Stated(prefs.Language) {
		stated++
		if c.Languages.Has(prefs.Language) {
			matched++
		}
	}
	if models.Stated(prefs.ExperienceLevel) {
		stated++
		if c.EffectiveExperienceLevel() == prefs.ExperienceLevel {
			matched++
		}
	}

	if stated == 0 {
		return 1.0
	}
	return float64(matched) / float64(stated)
}

// mergePreferences lets stated override values replace the request's.
func mergePreferences(base models.ClientPreferences, o Overrides) models.ClientPreferences {
	out := base
	if o.PreferredGender != "" {
		out.Gender = o.PreferredGender
	}
	if o.PreferredLanguage != "" {
		out.Language = o.PreferredLanguage
	}
	if o.ExperienceLevel != "" {
		out.ExperienceLevel = o.ExperienceLevel
	}
	return out
}
