package matching

import (
	"encoding/json"

	apperrors "contractor-matching/internal/common/errors"
	"contractor-matching/internal/common/validation"
)

// Overrides are caller-supplied refinements of a match run. They can only
// narrow the hard filters; soft preferences replace the request's value.
type Overrides struct {
	MaxResults             *int     `json:"maxResults,omitempty"`
	MaxDistance            *float64 `json:"maxDistance,omitempty"`
	MinRating              *float64 `json:"minRating,omitempty"`
	RequiredCertifications []string `json:"requiredCertifications,omitempty"`
	PreferredGender        string   `json:"preferredGender,omitempty"`
	PreferredLanguage      string   `json:"preferredLanguage,omitempty"`
	ExperienceLevel        string   `json:"experienceLevel,omitempty"`
}

const overridesSchemaJSON = `{
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "maxResults": {"type": "integer", "minimum": 1, "maximum": 20},
    "maxDistance": {"type": "number", "minimum": 1, "maximum": 100},
    "minRating": {"type": "number", "minimum": 0, "maximum": 5},
    "requiredCertifications": {
      "type": "array",
      "items": {"type": "string", "minLength": 1}
    },
    "preferredGender": {"type": "string", "enum": ["male", "female", "no_preference"]},
    "preferredLanguage": {"type": "string", "minLength": 1},
    "experienceLevel": {"type": "string", "enum": ["new", "experienced", "expert", "no_preference"]}
  }
}`

var overridesSchema = validation.MustCompile(overridesSchemaJSON)

// Validate checks the overrides against the override schema.
func (o Overrides) Validate() error {
	res, err := overridesSchema.ValidateDocument(o)
	if err != nil {
		return apperrors.NewInvalidOverridesError(err.Error())
	}
	if !res.Valid {
		stdErr := apperrors.NewInvalidOverridesError(res.Error())
		stdErr.WithMetadata("fields", res.Errors)
		return stdErr
	}
	return nil
}

// ParseOverrides validates raw JSON before decoding so unknown keys and
// wrong types are reported instead of silently dropped.
func ParseOverrides(raw json.RawMessage) (Overrides, error) {
	var o Overrides
	if len(raw) == 0 || string(raw) == "null" {
		return o, nil
	}
	res, err := overridesSchema.ValidateJSON(raw)
	if err != nil {
		return o, apperrors.NewInvalidOverridesError(err.Error())
	}
	if !res.Valid {
		return o, apperrors.NewInvalidOverridesError(res.Error())
	}
	if err := json.Unmarshal(raw, &o); err != nil {
		return o, apperrors.NewInvalidOverridesError(err.Error())
	}
	return o, nil
}
