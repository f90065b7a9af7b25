package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSchema = `{
  "type": "object",
  "properties": {
    "maxResults": {"type": "integer", "minimum": 1, "maximum": 20},
    "gender": {"type": "string", "enum": ["male", "female"]}
  },
  "additionalProperties": false
}`

func TestSchema_ValidateJSON(t *testing.T) {
	s := MustCompile(testSchema)

	tests := []struct {
		name      string
		doc       string
		wantValid bool
		wantField string
	}{
		{"valid", `{"maxResults": 5}`, true, ""},
		{"above max", `{"maxResults": 21}`, false, "maxResults"},
		{"bad enum", `{"gender": "other"}`, false, "gender"},
		{"extra field", `{"color": "blue"}`, false, "(root)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := s.ValidateJSON([]byte(tt.doc))
			require.NoError(t, err)
			assert.Equal(t, tt.wantValid, res.Valid)
			if !tt.wantValid {
				require.NotEmpty(t, res.Errors)
				assert.Equal(t, tt.wantField, res.Errors[0].Field)
				assert.NotEmpty(t, res.Error())
			}
		})
	}
}

func TestSchema_ValidateDocument(t *testing.T) {
	s := MustCompile(testSchema)

	res, err := s.ValidateDocument(map[string]interface{}{"maxResults": 0})
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Equal(t, "NUMBER_GTE", res.Errors[0].Code)
}

func TestCompile_Invalid(t *testing.T) {
	_, err := Compile(`{"type": 12}`)
	assert.Error(t, err)
}
