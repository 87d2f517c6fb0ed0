package validation

import (
	"testing"

	"roi-workers/pkg/registry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validInput() map[string]interface{} {
	return map[string]interface{}{
		"investmentAmount":   2500000.0,
		"companySize":        "large",
		"industry":           "technology",
		"hasInternalTalent":  false,
		"timelinePreference": "moderate",
	}
}

func TestROIInputValidator_Embedded(t *testing.T) {
	v := NewROIInputValidator(nil, "validate-roi-input")
	assert.Equal(t, "embedded", v.Source())

	tests := []struct {
		name          string
		mutate        func(m map[string]interface{})
		valid         bool
		expectedField string
		expectedCode  string
	}{
		{
			name:   "valid input",
			mutate: func(m map[string]interface{}) {},
			valid:  true,
		},
		{
			name:   "investment amount is optional",
			mutate: func(m map[string]interface{}) { delete(m, "investmentAmount") },
			valid:  true,
		},
		{
			name:          "missing company size",
			mutate:        func(m map[string]interface{}) { delete(m, "companySize") },
			expectedField: "companySize",
			expectedCode:  "REQUIRED",
		},
		{
			name:          "unknown industry",
			mutate:        func(m map[string]interface{}) { m["industry"] = "aerospace" },
			expectedField: "industry",
			expectedCode:  "ENUM",
		},
		{
			name:          "zero investment",
			mutate:        func(m map[string]interface{}) { m["investmentAmount"] = 0.0 },
			expectedField: "investmentAmount",
		},
		{
			name:          "investment above the ceiling",
			mutate:        func(m map[string]interface{}) { m["investmentAmount"] = 1e20 },
			expectedField: "investmentAmount",
		},
		{
			name:          "talent as string",
			mutate:        func(m map[string]interface{}) { m["hasInternalTalent"] = "yes" },
			expectedField: "hasInternalTalent",
			expectedCode:  "INVALID_TYPE",
		},
		{
			name:          "negative revision",
			mutate:        func(m map[string]interface{}) { m["revision"] = -1 },
			expectedField: "revision",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validInput()
			tt.mutate(input)

			result, err := v.Validate(input)
			require.NoError(t, err)
			assert.Equal(t, tt.valid, result.Valid)

			if tt.valid {
				assert.Empty(t, result.Errors)
				return
			}
			require.NotEmpty(t, result.Errors)
			assert.Equal(t, tt.expectedField, result.Errors[0].Field)
			if tt.expectedCode != "" {
				assert.Equal(t, tt.expectedCode, result.Errors[0].Code)
			}
			assert.NotEmpty(t, result.Messages())
		})
	}
}

func TestROIInputValidator_FromRegistry(t *testing.T) {
	reg := &registry.ActivityRegistry{
		Activities: []registry.Activity{{
			ID:       "validate-roi-input",
			TaskType: "validate-roi-input",
			InputSchema: map[string]interface{}{
				"type":     "object",
				"required": []interface{}{"companySize"},
			},
		}},
	}

	v := NewROIInputValidator(reg, "validate-roi-input")
	assert.Equal(t, "registry", v.Source())

	result, err := v.Validate(map[string]interface{}{"industry": "retail"})
	require.NoError(t, err)
	assert.False(t, result.Valid)
}

func TestROIInputValidator_FallsBackOnUnknownTask(t *testing.T) {
	reg := &registry.ActivityRegistry{}
	v := NewROIInputValidator(reg, "validate-roi-input")
	assert.Equal(t, "embedded", v.Source())
}

func TestNewValidator_RejectsBrokenSchema(t *testing.T) {
	_, err := NewValidator([]byte(`{"type": 12}`))
	assert.Error(t, err)
}
